package app

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/morebase/couch-client/internal/config"
	"github.com/morebase/couch-client/pkg/bootstrap"
	"github.com/morebase/couch-client/pkg/couch"
)

// cannedTransport serves fixed payloads keyed by "METHOD path".
type cannedTransport struct {
	mu        sync.Mutex
	responses map[string]any
	seen      []*couch.Request
}

func (t *cannedTransport) RoundTrip(_ context.Context, req *couch.Request, res *couch.Result) bool {
	t.mu.Lock()
	t.seen = append(t.seen, req)
	payload := t.responses[req.Method+" "+req.Path]
	t.mu.Unlock()

	res.Succeed(req.Client, 200, payload)
	return true
}

func testConfig() *config.Config {
	return &config.Config{
		CouchURL:       "http://a:5984",
		APIVersion:     "3.3",
		RequestTimeout: 5 * time.Second,
		PollInterval:   time.Second,
	}
}

func testApp(t *testing.T, transport couch.Transport, cluster *bootstrap.ClusterConfig) (*App, *bytes.Buffer) {
	t.Helper()
	if cluster == nil {
		cluster = &bootstrap.ClusterConfig{
			Name:    "test",
			Servers: []bootstrap.ServerSeed{{Name: "a", URL: "http://a:5984"}},
		}
	}
	var out bytes.Buffer
	a, err := New(Params{
		Config:    testConfig(),
		Cluster:   cluster,
		Out:       &out,
		Transport: transport,
	})
	if err != nil {
		t.Fatalf("app:app_test - New failed: %v", err)
	}
	return a, &out
}

func TestNew_RequiresConfig(t *testing.T) {
	if _, err := New(Params{}); err == nil {
		t.Fatal("app:app_test - expected error without Config")
	}
}

func TestNew_RegistersSeedsInOrder(t *testing.T) {
	cluster := &bootstrap.ClusterConfig{
		Name: "prod",
		Servers: []bootstrap.ServerSeed{
			{Name: "primary", URL: "http://a:5984", Version: "3.3.2"},
			{Name: "fallback", URL: "http://b:5984", Version: "2.3.1"},
		},
	}
	a, _ := testApp(t, &cannedTransport{}, cluster)

	clients := a.Couch().Clients()
	if len(clients) != 2 {
		t.Fatalf("app:app_test - registered %d clients, want 2", len(clients))
	}
	if clients[0].Name() != "primary" || clients[1].Name() != "fallback" {
		t.Errorf("app:app_test - client order = %s, %s", clients[0].Name(), clients[1].Name())
	}
}

func TestClusterSeeds_EnvOverridesProbeDefault(t *testing.T) {
	cfg := testConfig()
	seeds := clusterSeeds(cfg, bootstrap.DefaultClusterConfig())
	if len(seeds) != 1 {
		t.Fatalf("app:app_test - %d seeds, want 1", len(seeds))
	}
	if seeds[0].URL != "http://a:5984" {
		t.Errorf("app:app_test - seed URL = %s, want env-configured server", seeds[0].URL)
	}
}

func TestClusterSeeds_KeepsExplicitServers(t *testing.T) {
	cfg := testConfig()
	cluster := &bootstrap.ClusterConfig{
		Servers: []bootstrap.ServerSeed{{URL: "http://explicit:5984"}},
	}
	seeds := clusterSeeds(cfg, cluster)
	if seeds[0].URL != "http://explicit:5984" {
		t.Errorf("app:app_test - seed URL = %s, explicit server must win", seeds[0].URL)
	}
}

func TestClusterSeeds_FillsCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.Username = "admin"
	cfg.Password = "secret"
	cluster := &bootstrap.ClusterConfig{
		Servers: []bootstrap.ServerSeed{
			{URL: "http://a:5984"},
			{URL: "http://b:5984", Username: "other", Password: "pw"},
		},
	}
	seeds := clusterSeeds(cfg, cluster)
	if seeds[0].Username != "admin" || seeds[0].Password != "secret" {
		t.Errorf("app:app_test - env credentials not applied: %+v", seeds[0])
	}
	if seeds[1].Username != "other" {
		t.Errorf("app:app_test - seed credentials overwritten: %+v", seeds[1])
	}
}

func TestInfo_PrintsWelcome(t *testing.T) {
	transport := &cannedTransport{responses: map[string]any{
		"GET /": map[string]any{"couchdb": "Welcome", "version": "3.3.2"},
	}}
	a, out := testApp(t, transport, nil)

	if err := a.Info(context.Background()); err != nil {
		t.Fatalf("app:app_test - Info failed: %v", err)
	}
	if !strings.Contains(out.String(), "Welcome") {
		t.Errorf("app:app_test - output missing welcome document: %s", out.String())
	}
}

func TestDBs_PrintsNames(t *testing.T) {
	transport := &cannedTransport{responses: map[string]any{
		"GET /_all_dbs": []any{"people", "places"},
	}}
	a, out := testApp(t, transport, nil)

	if err := a.DBs(context.Background()); err != nil {
		t.Fatalf("app:app_test - DBs failed: %v", err)
	}
	if !strings.Contains(out.String(), "places") {
		t.Errorf("app:app_test - output missing database list: %s", out.String())
	}
}

func TestPut_PrintsStampedIdentity(t *testing.T) {
	transport := &cannedTransport{responses: map[string]any{
		"POST /people": map[string]any{"ok": true, "id": "p1", "rev": "1-abc"},
	}}
	a, out := testApp(t, transport, nil)

	if err := a.Put(context.Background(), "people", `{"name":"Ada"}`); err != nil {
		t.Fatalf("app:app_test - Put failed: %v", err)
	}
	if !strings.Contains(out.String(), "p1") || !strings.Contains(out.String(), "1-abc") {
		t.Errorf("app:app_test - output missing stamped identity: %s", out.String())
	}
}

func TestPut_RejectsInvalidJSON(t *testing.T) {
	a, _ := testApp(t, &cannedTransport{}, nil)
	if err := a.Put(context.Background(), "people", "{nope"); err == nil {
		t.Fatal("app:app_test - expected error for invalid JSON document")
	}
}

func TestGet_UsesDocumentPath(t *testing.T) {
	transport := &cannedTransport{responses: map[string]any{
		"GET /people/p1": map[string]any{"_id": "p1", "_rev": "1-abc"},
	}}
	a, out := testApp(t, transport, nil)

	if err := a.Get(context.Background(), "people", "p1"); err != nil {
		t.Fatalf("app:app_test - Get failed: %v", err)
	}
	if !strings.Contains(out.String(), "p1") {
		t.Errorf("app:app_test - output missing document: %s", out.String())
	}

	transport.mu.Lock()
	defer transport.mu.Unlock()
	if len(transport.seen) != 1 || transport.seen[0].Path != "/people/p1" {
		t.Errorf("app:app_test - unexpected requests: %+v", transport.seen)
	}
}
