package couch

import (
	"context"
	"fmt"
)

// Server-level endpoint methods. Each is a thin caller of Call: it fixes
// the path, supplies the endpoint's compatibility annotations and, where
// useful, a value converter.

// Info requests the server welcome document (GET /). The converted values
// carry the server version as a parsed semantic version.
func (c *Couch) Info(ctx context.Context, opts *CallOptions) *Result {
	opts = cloneOptions(opts)
	if opts.ToValues == nil {
		opts.ToValues = func(r *Result, raw any) any {
			m, ok := raw.(map[string]any)
			if !ok {
				return raw
			}
			return r.Couch().ToNative(m, "version", "version")
		}
	}
	return c.Call(ctx, "GET", "/", opts)
}

// AllDBs lists the databases of the instance (GET /_all_dbs).
func (c *Couch) AllDBs(ctx context.Context, opts *CallOptions) *Result {
	opts = cloneOptions(opts)
	return c.Call(ctx, "GET", "/_all_dbs", opts)
}

// ActiveTasks lists the currently running tasks (GET /_active_tasks).
// Task timestamps (started_on, updated_on) are converted from epoch
// seconds to native times.
func (c *Couch) ActiveTasks(ctx context.Context, opts *CallOptions) *Result {
	opts = cloneOptions(opts)
	opts.Introduced = "1.0"
	if opts.ToValues == nil {
		opts.ToValues = func(r *Result, raw any) any {
			tasks, ok := raw.([]any)
			if !ok {
				return raw
			}
			for _, t := range tasks {
				if m, ok := t.(map[string]any); ok {
					r.Couch().ToNative(m, "epoch", "started_on", "updated_on")
					r.Couch().ToNative(m, "node", "node")
				}
			}
			return tasks
		}
	}
	return c.Call(ctx, "GET", "/_active_tasks", opts)
}

// UUIDs requests server-generated UUIDs (GET /_uuids).
func (c *Couch) UUIDs(ctx context.Context, count int, opts *CallOptions) *Result {
	opts = cloneOptions(opts)
	if count > 0 {
		opts.Query = mergeQuery(opts.Query, map[string]any{"count": count})
	}
	return c.Call(ctx, "GET", "/_uuids", opts)
}

// Membership reports the cluster's nodes (GET /_membership). Node names
// in the converted values are resolved through the dispatcher's Node
// registry, so repeated lookups compare identical.
func (c *Couch) Membership(ctx context.Context, opts *CallOptions) *Result {
	opts = cloneOptions(opts)
	opts.Introduced = "2.0"
	if opts.ToValues == nil {
		opts.ToValues = func(r *Result, raw any) any {
			m, ok := raw.(map[string]any)
			if !ok {
				return raw
			}
			for _, field := range []string{"all_nodes", "cluster_nodes"} {
				names, ok := m[field].([]any)
				if !ok {
					continue
				}
				nodes := make([]*Node, 0, len(names))
				for _, n := range names {
					if s, ok := n.(string); ok {
						nodes = append(nodes, r.Couch().Node(s))
					}
				}
				m[field] = nodes
			}
			return m
		}
	}
	return c.Call(ctx, "GET", "/_membership", opts)
}

// Up checks whether the server is up and serving (GET /_up).
func (c *Couch) Up(ctx context.Context, opts *CallOptions) *Result {
	opts = cloneOptions(opts)
	opts.Introduced = "2.0"
	return c.Call(ctx, "GET", "/_up", opts)
}

// ReplicateParams describes a replication request between two databases.
type ReplicateParams struct {
	Source       string
	Target       string
	Continuous   bool
	CreateTarget bool
	Cancel       bool
}

// Replicate starts (or cancels) a replication (POST /_replicate). The
// replication itself runs server-side; this is a thin trigger.
func (c *Couch) Replicate(ctx context.Context, params ReplicateParams, opts *CallOptions) *Result {
	opts = cloneOptions(opts)
	opts.Body = map[string]any{
		"source":        params.Source,
		"target":        params.Target,
		"continuous":    params.Continuous,
		"create_target": params.CreateTarget,
		"cancel":        params.Cancel,
	}
	return c.Call(ctx, "POST", "/_replicate", opts)
}

// cloneOptions copies caller-supplied options so endpoint methods can set
// their annotations without mutating the caller's struct.
func cloneOptions(opts *CallOptions) *CallOptions {
	if opts == nil {
		return &CallOptions{}
	}
	clone := *opts
	return &clone
}

func mergeQuery(query map[string]any, extra map[string]any) map[string]any {
	if query == nil {
		query = make(map[string]any, len(extra))
	}
	for k, v := range extra {
		query[k] = v
	}
	return query
}

// pathEscape escapes a path segment, keeping the slash of _design/ and
// _local/ prefixes intact.
func pathEscape(segment string) string {
	out := make([]byte, 0, len(segment))
	for i := 0; i < len(segment); i++ {
		ch := segment[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			out = append(out, ch)
		case ch == '-' || ch == '_' || ch == '.' || ch == '~' || ch == '/':
			out = append(out, ch)
		default:
			out = append(out, fmt.Sprintf("%%%02X", ch)...)
		}
	}
	return string(out)
}
