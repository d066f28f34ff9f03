package couch

import (
	"encoding/json"
	"fmt"
	"sync"

	masterminds "github.com/Masterminds/semver/v3"

	"github.com/morebase/couch-client/pkg/events"
	"github.com/morebase/couch-client/pkg/version"
)

const logPrefix = "couch:couch"

// DefaultServerURL is the well-known local CouchDB address used when no
// server is configured explicitly.
const DefaultServerURL = "http://127.0.0.1:5984"

// Couch is the request dispatcher: it owns the ordered client list, the
// node registry, the conversion tables and the declared expected API
// version, and funnels every endpoint method through Call.
type Couch struct {
	api       *masterminds.Version
	conv      *conversions
	sink      events.WarningSink
	transport Transport

	clientsMu sync.Mutex
	clients   []*Client

	nodesMu sync.Mutex
	nodes   map[string]*Node

	warnedMu sync.Mutex
	warned   map[string]struct{}
}

// Params holds parameters for New.
type Params struct {
	// APIVersion is the expected server API version the caller codes
	// against (required). Compatibility annotations on every endpoint are
	// evaluated against it.
	APIVersion string
	// ServerURL configures the initial client. Empty uses DefaultServerURL
	// unless NoDefaultServer is set, in which case no client is created
	// and the caller wires clients explicitly.
	ServerURL       string
	NoDefaultServer bool
	// ServerVersion is the initial client's actual API version, when known.
	ServerVersion string
	// Username and Password apply to the initial client.
	Username string
	Password string
	// ToNative and ToWire are conversion overrides merged over the
	// built-ins; entries for an existing tag replace it.
	ToNative map[string]ToNativeFunc
	ToWire   map[string]ToWireFunc
	// Warnings receives compatibility warnings. Nil logs through slog.
	Warnings events.WarningSink
	// Transport overrides the default HTTP transport for all clients that
	// do not carry their own.
	Transport Transport
}

// New creates a dispatcher. APIVersion is required.
func New(params Params) (*Couch, error) {
	if params.APIVersion == "" {
		return nil, configurationError("APIVersion is required")
	}
	api, err := version.Parse(params.APIVersion)
	if err != nil {
		return nil, configurationError(fmt.Sprintf("invalid APIVersion: %v", err))
	}

	sink := params.Warnings
	if sink == nil {
		sink = &events.SlogSink{}
	}
	transport := params.Transport
	if transport == nil {
		transport = NewHTTPTransport(nil)
	}

	c := &Couch{
		api:       api,
		conv:      newConversions(params.ToNative, params.ToWire),
		sink:      sink,
		transport: transport,
		nodes:     make(map[string]*Node),
		warned:    make(map[string]struct{}),
	}

	if !params.NoDefaultServer {
		serverURL := params.ServerURL
		if serverURL == "" {
			serverURL = DefaultServerURL
		}
		if _, err := c.CreateClient(ClientParams{
			URL:           serverURL,
			Username:      params.Username,
			Password:      params.Password,
			ServerVersion: params.ServerVersion,
		}); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// APIVersion returns the expected API version declared at construction.
func (c *Couch) APIVersion() *masterminds.Version {
	return c.api
}

// ToJSON serializes v to JSON text, pretty-printed when pretty is set.
// Exposed for ad-hoc structure serialization by endpoint methods and
// tooling.
func (c *Couch) ToJSON(v any, pretty bool) (string, error) {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", fmt.Errorf("%s - cannot serialize value: %w", logPrefix, err)
	}
	return string(data), nil
}
