package couch

import (
	"context"
	"fmt"
	"regexp"
)

// Database names: lowercase letter first, then the characters CouchDB
// permits.
var dbNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_$()+/-]*$`)

// DB is a handle on one database of the cluster. It holds identity only;
// every operation funnels through the dispatcher's Call.
type DB struct {
	couch *Couch
	name  string
}

// DB returns a handle for the named database. The name must match
// CouchDB's database naming rules.
func (c *Couch) DB(name string) (*DB, error) {
	if !dbNamePattern.MatchString(name) {
		return nil, usageError(fmt.Sprintf("illegal database name %q", name))
	}
	return &DB{couch: c, name: name}, nil
}

// Name returns the database name.
func (db *DB) Name() string {
	return db.name
}

// Couch returns the owning dispatcher.
func (db *DB) Couch() *Couch {
	return db.couch
}

func (db *DB) path() string {
	return "/" + pathEscape(db.name)
}

// Create creates the database (PUT /{db}).
func (db *DB) Create(ctx context.Context, opts *CallOptions) *Result {
	opts = cloneOptions(opts)
	return db.couch.Call(ctx, "PUT", db.path(), opts)
}

// Drop deletes the database (DELETE /{db}).
func (db *DB) Drop(ctx context.Context, opts *CallOptions) *Result {
	opts = cloneOptions(opts)
	return db.couch.Call(ctx, "DELETE", db.path(), opts)
}

// Exists checks for the database with a HEAD request.
func (db *DB) Exists(ctx context.Context, opts *CallOptions) *Result {
	opts = cloneOptions(opts)
	return db.couch.Call(ctx, "HEAD", db.path(), opts)
}

// Info requests database metadata (GET /{db}).
func (db *DB) Info(ctx context.Context, opts *CallOptions) *Result {
	opts = cloneOptions(opts)
	return db.couch.Call(ctx, "GET", db.path(), opts)
}

// AllDocs queries the primary index (GET /{db}/_all_docs). Query options
// (include_docs, startkey, ...) go through the usual normalization.
func (db *DB) AllDocs(ctx context.Context, opts *CallOptions) *Result {
	opts = cloneOptions(opts)
	return db.couch.Call(ctx, "GET", db.path()+"/_all_docs", opts)
}

// Compact triggers database compaction (POST /{db}/_compact).
func (db *DB) Compact(ctx context.Context, opts *CallOptions) *Result {
	opts = cloneOptions(opts)
	return db.couch.Call(ctx, "POST", db.path()+"/_compact", opts)
}

// EnsureFullCommit commits in-memory changes to disk
// (POST /{db}/_ensure_full_commit). Deprecated server-side since 3.0.
func (db *DB) EnsureFullCommit(ctx context.Context, opts *CallOptions) *Result {
	opts = cloneOptions(opts)
	opts.Deprecated = "3.0"
	return db.couch.Call(ctx, "POST", db.path()+"/_ensure_full_commit", opts)
}

// Purge permanently removes document revisions (POST /{db}/_purge).
func (db *DB) Purge(ctx context.Context, revs map[string][]string, opts *CallOptions) *Result {
	opts = cloneOptions(opts)
	opts.Introduced = "2.3"
	opts.Body = revs
	return db.couch.Call(ctx, "POST", db.path()+"/_purge", opts)
}

// Changes reads the database change feed (GET /{db}/_changes). Use the
// Query options for since/feed/limit selection.
func (db *DB) Changes(ctx context.Context, opts *CallOptions) *Result {
	opts = cloneOptions(opts)
	return db.couch.Call(ctx, "GET", db.path()+"/_changes", opts)
}

// View queries a design-document view
// (GET /{db}/_design/{ddoc}/_view/{view}).
func (db *DB) View(ctx context.Context, designID, viewID string, opts *CallOptions) *Result {
	opts = cloneOptions(opts)
	path := fmt.Sprintf("%s/_design/%s/_view/%s", db.path(), pathEscape(designID), pathEscape(viewID))
	return db.couch.Call(ctx, "GET", path, opts)
}
