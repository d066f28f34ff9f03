package couch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const transportLogPrefix = "couch:transport"

// Request is the transport-level request handed to a client's attempt.
// Method, Path, Query and Body come from the caller; BaseURL, credentials
// and Client are filled in per candidate.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any

	BaseURL  string
	Username string
	Password string
	Client   *Client
}

// Transport attempts a request against one server and populates res with
// the outcome. The returned bool reports whether res should be treated as
// final (stop failover). This is the only boundary where network I/O
// occurs.
type Transport interface {
	RoundTrip(ctx context.Context, req *Request, res *Result) bool
}

// serverError is the error body CouchDB returns on non-success statuses.
type serverError struct {
	Type   string `json:"error"`
	Reason string `json:"reason"`
}

// HTTPTransport is the default Transport over net/http. It encodes the
// body as JSON, applies basic auth when credentials are present, and
// decodes the JSON response.
type HTTPTransport struct {
	httpClient *http.Client
}

// NewHTTPTransport creates an HTTPTransport. A nil client uses a default
// with a 30s timeout.
func NewHTTPTransport(hc *http.Client) *HTTPTransport {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPTransport{httpClient: hc}
}

// RoundTrip performs the HTTP request. A network error or non-2xx status
// records a failure on res and reports non-final so the dispatcher can
// fail over to the next candidate. A 2xx response finalizes res.
func (t *HTTPTransport) RoundTrip(ctx context.Context, req *Request, res *Result) bool {
	var bodyReader io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			// An unencodable body will fail identically on every
			// candidate, so it finalizes the Result at once.
			res.Fail(usageError(fmt.Sprintf("cannot encode request body: %v", err)))
			return true
		}
		bodyReader = bytes.NewReader(encoded)
	}

	target := strings.TrimSuffix(req.BaseURL, "/") + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		res.RecordFailure(req.Client, 0, transportError(fmt.Sprintf("%s %s: %v", req.Method, req.Path, err)))
		return false
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if req.Username != "" {
		httpReq.SetBasicAuth(req.Username, req.Password)
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		res.RecordFailure(req.Client, 0, transportError(fmt.Sprintf("%s %s: %v", req.Method, req.Path, err)))
		return false
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		res.RecordFailure(req.Client, resp.StatusCode, transportError(fmt.Sprintf("%s %s: reading response: %v", req.Method, req.Path, err)))
		return false
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var se serverError
		_ = json.Unmarshal(respBody, &se)
		msg := fmt.Sprintf("%s %s: status %d", req.Method, req.Path, resp.StatusCode)
		if se.Type != "" {
			msg = fmt.Sprintf("%s (%s: %s)", msg, se.Type, se.Reason)
		}
		res.RecordFailure(req.Client, resp.StatusCode, &Error{Code: CodeServer, Message: msg})
		return false
	}

	var raw any
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &raw); err != nil {
			res.RecordFailure(req.Client, resp.StatusCode, transportError(fmt.Sprintf("%s %s: decoding response: %v", req.Method, req.Path, err)))
			return false
		}
	}

	res.Succeed(req.Client, resp.StatusCode, raw)
	return true
}
