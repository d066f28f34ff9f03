package couch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"

	"github.com/morebase/couch-client/pkg/events"
	"github.com/morebase/couch-client/pkg/version"
)

// CallOptions is the logical request an endpoint method hands to Call.
// It is transient, constructed per call.
type CallOptions struct {
	// Query holds query parameters. Boolean-like values are serialized as
	// the literal strings "true"/"false"; a *Node is serialized as its
	// name; other values pass through stringified.
	Query map[string]any
	// Body is the JSON request body, if any.
	Body any

	// Compatibility annotations from the per-endpoint table. Each is an
	// optional version threshold ("2.3", "3.0.0").
	Introduced string
	Deprecated string
	Removed    string

	// Client or Clients select explicit candidates instead of the full
	// configured list. Client is tried first when both are set.
	Client  *Client
	Clients []*Client

	// ToValues converts the raw payload when the caller reads Values.
	ToValues ToValuesFunc
	// OnFinal is invoked exactly once when the Result leaves pending.
	OnFinal OnFinalFunc
}

// Call dispatches one logical request: it normalizes query parameters,
// evaluates the compatibility policy against the expected API version,
// then tries each candidate client in order until one finalizes the
// Result or the list is exhausted. The Result is returned immediately;
// transport attempts run in the background and complete it.
//
// Callers must inspect the Result's success state; failures are never
// discarded silently.
func (c *Couch) Call(ctx context.Context, method, path string, opts *CallOptions) *Result {
	if opts == nil {
		opts = &CallOptions{}
	}
	res := newResult(c, opts.ToValues, opts.OnFinal)

	introduced, deprecated, removed, err := parseAnnotations(opts)
	if err != nil {
		res.Fail(err)
		return res
	}

	// The three compatibility checks are independent; all can fire on
	// one call. Warnings are emitted first so an endpoint carrying all
	// three annotations still warns before the removed check ends it.
	if introduced != nil && version.AtLeast(c.api, introduced) {
		c.sink.Emit(&events.CompatibilityWarning{
			Kind:      events.KindIntroduced,
			Method:    method,
			Path:      path,
			Threshold: introduced.String(),
			Expected:  c.api.String(),
		})
	}

	if deprecated != nil && version.AtLeast(c.api, deprecated) {
		c.warnDeprecatedOnce(method, path, deprecated)
	}

	// Removed is the only fatal check: the feature no longer exists for
	// the declared API version, so no candidate is contacted.
	if removed != nil && version.AtLeast(c.api, removed) {
		res.Fail(usageError(fmt.Sprintf("%s %s was removed in %s and cannot be used with expected API version %s",
			method, path, removed, c.api)))
		return res
	}

	query := c.normalizeQuery(opts.Query)

	candidates := opts.Clients
	if opts.Client != nil {
		candidates = append([]*Client{opts.Client}, candidates...)
	}
	if len(candidates) == 0 {
		candidates = c.Clients()
	}
	if len(candidates) == 0 {
		res.Fail(configurationError(fmt.Sprintf("no client configured for %s %s", method, path)))
		return res
	}

	go c.dispatch(ctx, method, path, query, opts.Body, introduced, candidates, res)
	return res
}

// dispatch runs the sequential failover loop. Candidates are tried one at
// a time, never in parallel, so non-idempotent requests cannot land on
// multiple nodes.
func (c *Couch) dispatch(ctx context.Context, method, path string, query url.Values, body any,
	introduced *masterminds.Version, candidates []*Client, res *Result) {

	for _, cl := range candidates {
		// A server older than the endpoint's introduction cannot serve
		// the request at all.
		if introduced != nil && cl.version != nil && version.Before(cl.version, introduced) {
			res.recordSkip(fmt.Sprintf("%s: server version %s predates %s", cl.name, cl.version, introduced))
			continue
		}

		req := &Request{
			Method: method,
			Path:   path,
			Query:  query,
			Body:   body,
		}
		if cl.attempt(ctx, req, res) {
			return
		}

		if err := ctx.Err(); err != nil {
			res.Fail(transportError(fmt.Sprintf("%s %s: %v", method, path, err)))
			return
		}
	}

	// Exhausted: the last attempted candidate's error stands, on the
	// assumption that later candidates reflect current cluster state.
	if last := res.lastFailure(); last != nil {
		res.Fail(last)
		return
	}

	msg := fmt.Sprintf("no candidate client could serve %s %s", method, path)
	if skips := res.Skips(); len(skips) > 0 {
		msg += ": " + strings.Join(skips, "; ")
	}
	res.Fail(configurationError(msg))
}

// warnDeprecatedOnce emits a deprecation warning for the first call of
// each distinct (method, path) pair; later identical calls stay silent.
func (c *Couch) warnDeprecatedOnce(method, path string, deprecated *masterminds.Version) {
	key := method + " " + path

	c.warnedMu.Lock()
	_, seen := c.warned[key]
	if !seen {
		c.warned[key] = struct{}{}
	}
	c.warnedMu.Unlock()
	if seen {
		return
	}

	c.sink.Emit(&events.CompatibilityWarning{
		Kind:      events.KindDeprecated,
		Method:    method,
		Path:      path,
		Threshold: deprecated.String(),
		Expected:  c.api.String(),
	})
}

// normalizeQuery replaces wire-incompatible query values with their wire
// form: booleans become the literals "true"/"false", a Node becomes its
// name, everything else is stringified unchanged.
func (c *Couch) normalizeQuery(query map[string]any) url.Values {
	if len(query) == 0 {
		return nil
	}
	values := make(url.Values, len(query))
	for key, v := range query {
		switch x := v.(type) {
		case string:
			values.Set(key, x)
		case bool:
			if x {
				values.Set(key, "true")
			} else {
				values.Set(key, "false")
			}
		case *Node:
			values.Set(key, x.Name())
		default:
			values.Set(key, fmt.Sprint(x))
		}
	}
	return values
}

func parseAnnotations(opts *CallOptions) (introduced, deprecated, removed *masterminds.Version, err error) {
	parse := func(s, which string) (*masterminds.Version, error) {
		if s == "" {
			return nil, nil
		}
		v, perr := version.Parse(s)
		if perr != nil {
			return nil, usageError(fmt.Sprintf("invalid %s annotation %q: %v", which, s, perr))
		}
		return v, nil
	}

	if introduced, err = parse(opts.Introduced, "introduced"); err != nil {
		return nil, nil, nil, err
	}
	if deprecated, err = parse(opts.Deprecated, "deprecated"); err != nil {
		return nil, nil, nil, err
	}
	if removed, err = parse(opts.Removed, "removed"); err != nil {
		return nil, nil, nil, err
	}
	return introduced, deprecated, removed, nil
}
