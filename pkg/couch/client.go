package couch

import (
	"context"
	"fmt"
	"net/url"

	masterminds "github.com/Masterminds/semver/v3"

	"github.com/morebase/couch-client/pkg/version"
)

// Client represents one configured connection target: a base URL,
// optional credentials and the server's actual API version. The order in
// which clients are registered on a dispatcher is the failover order.
type Client struct {
	name      string
	baseURL   string
	username  string
	password  string
	version   *masterminds.Version
	transport Transport
}

// ClientParams holds parameters for Couch.CreateClient.
type ClientParams struct {
	// URL is the server base URL (required).
	URL string
	// Name identifies the client within the dispatcher; defaults to URL.
	Name string
	// Username and Password are optional basic-auth credentials.
	Username string
	Password string
	// ServerVersion is the server's actual API version, discovered or
	// assumed. Empty means unknown; an unknown version never causes the
	// client to be skipped.
	ServerVersion string
	// Transport overrides the transport used for this client's attempts.
	// Nil uses the dispatcher's default HTTP transport.
	Transport Transport
}

// Name returns the client's name.
func (cl *Client) Name() string {
	return cl.name
}

// BaseURL returns the server base URL.
func (cl *Client) BaseURL() string {
	return cl.baseURL
}

// ServerVersion returns the server's API version, or nil when unknown.
func (cl *Client) ServerVersion() *masterminds.Version {
	return cl.version
}

func (cl *Client) String() string {
	return cl.name
}

// attempt delegates one transport-level try to the client's transport.
// The returned bool reports whether the Result is final.
func (cl *Client) attempt(ctx context.Context, req *Request, res *Result) bool {
	req.BaseURL = cl.baseURL
	req.Username = cl.username
	req.Password = cl.password
	req.Client = cl
	return cl.transport.RoundTrip(ctx, req, res)
}

// CreateClient constructs a Client and appends it to the dispatcher's
// ordered client list.
func (c *Couch) CreateClient(params ClientParams) (*Client, error) {
	if params.URL == "" {
		return nil, configurationError("client URL is required")
	}
	if _, err := url.Parse(params.URL); err != nil {
		return nil, configurationError(fmt.Sprintf("invalid client URL %q: %v", params.URL, err))
	}

	name := params.Name
	if name == "" {
		name = params.URL
	}

	var sv *masterminds.Version
	if params.ServerVersion != "" {
		parsed, err := version.Parse(params.ServerVersion)
		if err != nil {
			return nil, configurationError(fmt.Sprintf("invalid server version for client %s: %v", name, err))
		}
		sv = parsed
	}

	transport := params.Transport
	if transport == nil {
		transport = c.transport
	}

	cl := &Client{
		name:      name,
		baseURL:   params.URL,
		username:  params.Username,
		password:  params.Password,
		version:   sv,
		transport: transport,
	}
	if err := c.AddClient(cl); err != nil {
		return nil, err
	}
	return cl, nil
}

// AddClient appends a pre-built client to the dispatcher's ordered list.
// Clients are never removed once added.
func (c *Couch) AddClient(cl *Client) error {
	if cl == nil {
		return usageError("AddClient requires a non-nil client")
	}
	if cl.transport == nil {
		cl.transport = c.transport
	}

	c.clientsMu.Lock()
	defer c.clientsMu.Unlock()
	c.clients = append(c.clients, cl)
	return nil
}

// Clients returns the configured clients in insertion order, which is the
// failover precedence order.
func (c *Couch) Clients() []*Client {
	c.clientsMu.Lock()
	defer c.clientsMu.Unlock()
	out := make([]*Client, len(c.clients))
	copy(out, c.clients)
	return out
}

// Client returns the first configured client with the given name, or nil.
func (c *Couch) Client(name string) *Client {
	c.clientsMu.Lock()
	defer c.clientsMu.Unlock()
	for _, cl := range c.clients {
		if cl.name == name {
			return cl
		}
	}
	return nil
}
