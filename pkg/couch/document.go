package couch

import (
	"context"
	"fmt"
	"strings"
)

// Identifiable is anything handled as a document: it must expose and
// accept a document ID and revision, be it a struct embedding Doc or a
// DynamicDoc.
type Identifiable interface {
	SetIDRev(id, rev string)
	IDRev() (id, rev string)
}

// Doc is the basic CouchDB document identity, meant to be embedded as an
// anonymous field in custom document structs.
type Doc struct {
	ID  string `json:"_id,omitempty"`
	Rev string `json:"_rev,omitempty"`
}

// SetIDRev implements Identifiable.
func (d *Doc) SetIDRev(id, rev string) {
	d.ID, d.Rev = id, rev
}

// IDRev implements Identifiable.
func (d *Doc) IDRev() (id, rev string) {
	return d.ID, d.Rev
}

// DynamicDoc is a schemaless document that still implements Identifiable.
type DynamicDoc map[string]any

// SetIDRev implements Identifiable.
func (m DynamicDoc) SetIDRev(id, rev string) {
	m["_id"] = id
	m["_rev"] = rev
}

// IDRev implements Identifiable.
func (m DynamicDoc) IDRev() (id, rev string) {
	id, _ = m["_id"].(string)
	rev, _ = m["_rev"].(string)
	return id, rev
}

// validateDocID rejects malformed document identifiers: empty IDs and
// underscore-prefixed IDs outside the reserved _design/ and _local/
// namespaces.
func validateDocID(id string) error {
	if id == "" {
		return usageError("document ID is required")
	}
	if strings.HasPrefix(id, "_") &&
		!strings.HasPrefix(id, "_design/") &&
		!strings.HasPrefix(id, "_local/") {
		return usageError(fmt.Sprintf("illegal document ID %q", id))
	}
	return nil
}

func (db *DB) docPath(id string) string {
	return db.path() + "/" + pathEscape(id)
}

// GetDoc retrieves the latest revision of a document
// (GET /{db}/{docid}). Use Query option "rev" for a specific revision.
func (db *DB) GetDoc(ctx context.Context, id string, opts *CallOptions) *Result {
	opts = cloneOptions(opts)
	if err := validateDocID(id); err != nil {
		res := newResult(db.couch, opts.ToValues, opts.OnFinal)
		res.Fail(err)
		return res
	}
	return db.couch.Call(ctx, "GET", db.docPath(id), opts)
}

// PutDoc saves a document: a document without an ID is created with a
// server-assigned one (POST /{db}), otherwise the existing document is
// updated (PUT /{db}/{docid}). On success the document is stamped with
// its new ID and revision before any caller-supplied OnFinal runs.
func (db *DB) PutDoc(ctx context.Context, doc Identifiable, opts *CallOptions) *Result {
	opts = cloneOptions(opts)
	opts.Body = doc

	callerFinal := opts.OnFinal
	opts.OnFinal = func(r *Result) {
		if r.OK() {
			if m := r.RawMap(); m != nil {
				id, _ := m["id"].(string)
				rev, _ := m["rev"].(string)
				doc.SetIDRev(id, rev)
			}
		}
		if callerFinal != nil {
			callerFinal(r)
		}
	}

	id, _ := doc.IDRev()
	if id == "" {
		return db.couch.Call(ctx, "POST", db.path(), opts)
	}
	if err := validateDocID(id); err != nil {
		res := newResult(db.couch, opts.ToValues, callerFinal)
		res.Fail(err)
		return res
	}
	return db.couch.Call(ctx, "PUT", db.docPath(id), opts)
}

// DeleteDoc removes a document revision (DELETE /{db}/{docid}?rev=...).
func (db *DB) DeleteDoc(ctx context.Context, id, rev string, opts *CallOptions) *Result {
	opts = cloneOptions(opts)
	if err := validateDocID(id); err != nil {
		res := newResult(db.couch, opts.ToValues, opts.OnFinal)
		res.Fail(err)
		return res
	}
	if rev == "" {
		res := newResult(db.couch, opts.ToValues, opts.OnFinal)
		res.Fail(usageError("document revision is required for delete"))
		return res
	}
	opts.Query = mergeQuery(opts.Query, map[string]any{"rev": rev})
	return db.couch.Call(ctx, "DELETE", db.docPath(id), opts)
}

// MismatchFunc is invoked for every submitted document the server's bulk
// report omits. The default is a no-op; reports are never dropped
// silently beyond that choice.
type MismatchFunc func(id string)

// BulkDocsParams holds parameters for DB.BulkDocs.
type BulkDocsParams struct {
	Docs         []Identifiable
	AllOrNothing bool
	// OnMismatch handles documents missing from the server's report.
	OnMismatch MismatchFunc
}

// BulkDocs inserts or updates a batch of documents in one request
// (POST /{db}/_bulk_docs). Successfully saved documents are stamped with
// their new IDs and revisions; documents the server's report omits are
// handed to OnMismatch.
func (db *DB) BulkDocs(ctx context.Context, params BulkDocsParams, opts *CallOptions) *Result {
	opts = cloneOptions(opts)
	opts.Body = map[string]any{
		"docs":           params.Docs,
		"all_or_nothing": params.AllOrNothing,
	}

	onMismatch := params.OnMismatch
	if onMismatch == nil {
		onMismatch = func(string) {}
	}

	callerFinal := opts.OnFinal
	opts.OnFinal = func(r *Result) {
		if r.OK() {
			stampBulkReport(params.Docs, r.Raw(), onMismatch)
		}
		if callerFinal != nil {
			callerFinal(r)
		}
	}

	return db.couch.Call(ctx, "POST", db.path()+"/_bulk_docs", opts)
}

// stampBulkReport applies the server's bulk report back onto the
// submitted documents. Rows arrive in submission order; rows carrying an
// error leave their document untouched. Submitted documents beyond the
// reported rows go to the mismatch handler.
func stampBulkReport(docs []Identifiable, raw any, onMismatch MismatchFunc) {
	rows, ok := raw.([]any)
	if !ok {
		for _, doc := range docs {
			id, _ := doc.IDRev()
			onMismatch(id)
		}
		return
	}

	for i, doc := range docs {
		if i >= len(rows) {
			id, _ := doc.IDRev()
			onMismatch(id)
			continue
		}
		row, ok := rows[i].(map[string]any)
		if !ok {
			id, _ := doc.IDRev()
			onMismatch(id)
			continue
		}
		if errType, _ := row["error"].(string); errType != "" {
			continue
		}
		id, _ := row["id"].(string)
		rev, _ := row["rev"].(string)
		if id == "" {
			docID, _ := doc.IDRev()
			onMismatch(docID)
			continue
		}
		doc.SetIDRev(id, rev)
	}
}
