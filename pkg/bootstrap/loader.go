package bootstrap

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

const logPrefix = "bootstrap:loader"

// LoadClusterConfig loads a cluster seed file. It tries paths in order:
// first any paths passed in, then the COUCH_CLUSTER_FILE env var, then
// default locations. A missing file is not an error; the single-server
// default configuration is returned instead.
func LoadClusterConfig(paths ...string) (*ClusterConfig, error) {
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv("COUCH_CLUSTER_FILE"); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/cluster.json", "cluster.json")

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		var cfg ClusterConfig
		if err := json.Unmarshal(data, &cfg); err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse cluster file %s: %v", logPrefix, p, err))
			continue
		}
		if err := validate(&cfg, p); err != nil {
			return nil, err
		}

		slog.Info(fmt.Sprintf("%s - Loaded cluster config from %s (%d servers)", logPrefix, p, len(cfg.Servers)))
		return &cfg, nil
	}

	slog.Info(fmt.Sprintf("%s - Using default single-server cluster config", logPrefix))
	return DefaultClusterConfig(), nil
}

// DefaultClusterConfig returns the fallback configuration: one server at
// the well-known local address.
func DefaultClusterConfig() *ClusterConfig {
	return &ClusterConfig{
		Name:        "local",
		Description: "Default single-server cluster",
		Servers: []ServerSeed{
			{URL: "http://127.0.0.1:5984"},
		},
	}
}

func validate(cfg *ClusterConfig, path string) error {
	if len(cfg.Servers) == 0 {
		return fmt.Errorf("%s - cluster file %s lists no servers", logPrefix, path)
	}
	for i, s := range cfg.Servers {
		if s.URL == "" {
			return fmt.Errorf("%s - cluster file %s: server %d has no url", logPrefix, path, i)
		}
	}
	return nil
}
