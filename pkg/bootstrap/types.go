// Package bootstrap provides cluster seed-file loading: a JSON file
// describing the servers a dispatcher should be configured with.
package bootstrap

// ServerSeed is one server entry in the cluster seed file. File order is
// the dispatcher's failover order.
type ServerSeed struct {
	// Name identifies the client; defaults to the URL when empty.
	Name string `json:"name,omitempty"`
	URL  string `json:"url"`
	// Version is the server's API version, when known ahead of discovery.
	Version  string `json:"version,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// ClusterConfig is the root cluster seed configuration.
type ClusterConfig struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	// APIVersion is the expected API version the application codes
	// against; overridable by explicit configuration.
	APIVersion string       `json:"apiVersion,omitempty"`
	Servers    []ServerSeed `json:"servers"`
}

// Names returns the server names in failover order, defaulting to URLs.
func (c *ClusterConfig) Names() []string {
	names := make([]string, len(c.Servers))
	for i, s := range c.Servers {
		if s.Name != "" {
			names[i] = s.Name
		} else {
			names[i] = s.URL
		}
	}
	return names
}
