package couch

import (
	"context"
	"sync"
)

type resultState int

const (
	statePending resultState = iota
	stateSucceeded
	stateFailed
)

// ToValuesFunc converts a Result's raw payload into caller-facing values.
// It receives the Result itself so converters can reach back into the
// dispatcher (e.g. to resolve node names through the Node registry).
type ToValuesFunc func(r *Result, raw any) any

// OnFinalFunc is invoked exactly once when a Result leaves the pending
// state, regardless of success or failure.
type OnFinalFunc func(r *Result)

// Result is the deferred handle returned by every dispatched call. It is
// created pending and transitions to succeeded or failed exactly once;
// the terminal state is immutable. Callers observe completion through
// Done, Wait or the OnFinal callback.
type Result struct {
	couch    *Couch
	toValues ToValuesFunc
	onFinal  OnFinalFunc

	mu       sync.Mutex
	state    resultState
	raw      any
	status   int
	client   *Client
	err      error
	lastErr  error
	lastCode int
	skips    []string

	done chan struct{}
}

func newResult(c *Couch, toValues ToValuesFunc, onFinal OnFinalFunc) *Result {
	return &Result{
		couch:    c,
		toValues: toValues,
		onFinal:  onFinal,
		done:     make(chan struct{}),
	}
}

// Couch returns the dispatcher that produced this Result.
func (r *Result) Couch() *Couch {
	return r.couch
}

// Done returns a channel that is closed when the Result reaches a
// terminal state.
func (r *Result) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the Result is terminal or ctx is cancelled. On a
// terminal Result it returns the Result's error, if any.
func (r *Result) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Final reports whether the Result has reached a terminal state.
func (r *Result) Final() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state != statePending
}

// OK reports whether the Result succeeded.
func (r *Result) OK() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == stateSucceeded
}

// Err returns the terminal failure, or nil while pending or on success.
func (r *Result) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Raw returns the decoded response body of the successful attempt.
func (r *Result) Raw() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.raw
}

// RawMap returns the raw payload as an object, or nil if the payload is
// not a JSON object.
func (r *Result) RawMap() map[string]any {
	m, _ := r.Raw().(map[string]any)
	return m
}

// Status returns the HTTP status of the attempt that finalized the Result.
func (r *Result) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Client returns the client whose attempt finalized the Result, or nil.
func (r *Result) Client() *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client
}

// Skips returns the reasons candidates were skipped before any transport
// attempt (e.g. a server version predating the endpoint's introduction).
func (r *Result) Skips() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.skips))
	copy(out, r.skips)
	return out
}

// Values returns the converted payload: the caller-supplied converter
// applied to the raw data, or the raw data itself when no converter was
// attached.
func (r *Result) Values() any {
	raw := r.Raw()
	if r.toValues != nil {
		return r.toValues(r, raw)
	}
	return raw
}

// Succeed moves the Result to its terminal succeeded state. The first
// transition wins; later calls are ignored. Transports call this for the
// attempt that finalizes the Result.
func (r *Result) Succeed(client *Client, status int, raw any) {
	r.mu.Lock()
	if r.state != statePending {
		r.mu.Unlock()
		return
	}
	r.state = stateSucceeded
	r.client = client
	r.status = status
	r.raw = raw
	r.mu.Unlock()

	r.finish()
}

// Fail moves the Result to its terminal failed state. The first
// transition wins; later calls are ignored.
func (r *Result) Fail(err error) {
	r.mu.Lock()
	if r.state != statePending {
		r.mu.Unlock()
		return
	}
	r.state = stateFailed
	r.err = err
	r.status = r.lastCode
	r.mu.Unlock()

	r.finish()
}

// RecordFailure notes a non-final attempt's failure without finalizing the
// Result. When every candidate has failed, the dispatcher fails the Result
// with the last recorded error.
func (r *Result) RecordFailure(client *Client, status int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != statePending {
		return
	}
	r.client = client
	r.lastErr = err
	r.lastCode = status
}

func (r *Result) recordSkip(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != statePending {
		return
	}
	r.skips = append(r.skips, reason)
}

func (r *Result) lastFailure() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func (r *Result) finish() {
	close(r.done)
	if r.onFinal != nil {
		r.onFinal(r)
	}
}
