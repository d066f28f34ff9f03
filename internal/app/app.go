// Package app orchestrates the couchctl commands: configuration, cluster
// seeding, the dispatcher and the COMMS changes bridge.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/morebase/couch-client/internal/config"
	"github.com/morebase/couch-client/pkg/bootstrap"
	"github.com/morebase/couch-client/pkg/couch"
)

const logPrefix = "app:app"

// App wires one dispatcher for the configured cluster and runs the
// couchctl commands against it.
type App struct {
	cfg   *config.Config
	couch *couch.Couch
	out   io.Writer
}

// Params holds parameters for New.
type Params struct {
	// Config is required.
	Config *config.Config
	// Cluster overrides seed-file loading. Nil loads from
	// Config.ClusterFile (or the default locations).
	Cluster *bootstrap.ClusterConfig
	// Out receives command output. Nil uses stdout.
	Out io.Writer
	// Transport overrides the HTTP transport, mainly for tests.
	Transport couch.Transport
}

// SetupLogging installs the default slog logger at the given level.
func SetupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

// New builds an App: it loads the cluster seed file, creates the
// dispatcher with the expected API version and registers one client per
// seed, in seed-file order.
func New(params Params) (*App, error) {
	cfg := params.Config
	if cfg == nil {
		return nil, fmt.Errorf("%s - Config is required", logPrefix)
	}

	cluster := params.Cluster
	if cluster == nil {
		loaded, err := bootstrap.LoadClusterConfig(cfg.ClusterFile)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to load cluster config: %w", logPrefix, err)
		}
		cluster = loaded
	}

	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = cluster.APIVersion
	}

	transport := params.Transport
	if transport == nil {
		transport = couch.NewHTTPTransport(&http.Client{Timeout: cfg.RequestTimeout})
	}

	c, err := couch.New(couch.Params{
		APIVersion:      apiVersion,
		NoDefaultServer: true,
		Transport:       transport,
	})
	if err != nil {
		return nil, err
	}

	for _, seed := range clusterSeeds(cfg, cluster) {
		if _, err := c.CreateClient(couch.ClientParams{
			URL:           seed.URL,
			Name:          seed.Name,
			Username:      seed.Username,
			Password:      seed.Password,
			ServerVersion: seed.Version,
		}); err != nil {
			return nil, fmt.Errorf("%s - failed to register server %s: %w", logPrefix, seed.URL, err)
		}
	}

	slog.Info(fmt.Sprintf("%s - Dispatcher ready: cluster %s, %d servers, API version %s",
		logPrefix, cluster.Name, len(cluster.Servers), apiVersion))

	out := params.Out
	if out == nil {
		out = os.Stdout
	}

	return &App{cfg: cfg, couch: c, out: out}, nil
}

// Couch exposes the dispatcher, for commands built outside this package.
func (a *App) Couch() *couch.Couch {
	return a.couch
}

// clusterSeeds merges environment configuration into the cluster seeds:
// credentials fill in where a seed carries none, and the env-configured
// server URL replaces the probe default when no seed file was found.
func clusterSeeds(cfg *config.Config, cluster *bootstrap.ClusterConfig) []bootstrap.ServerSeed {
	seeds := make([]bootstrap.ServerSeed, len(cluster.Servers))
	copy(seeds, cluster.Servers)

	if len(seeds) == 1 && seeds[0].URL == couch.DefaultServerURL &&
		cfg.CouchURL != "" && cfg.CouchURL != couch.DefaultServerURL {
		seeds[0].URL = cfg.CouchURL
	}

	for i := range seeds {
		if seeds[i].Username == "" && seeds[i].Password == "" {
			seeds[i].Username = cfg.Username
			seeds[i].Password = cfg.Password
		}
	}
	return seeds
}

// printJSON renders v as indented JSON on the command output.
func (a *App) printJSON(v any) error {
	text, err := a.couch.ToJSON(v, true)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, text)
	return nil
}
