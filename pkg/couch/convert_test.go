package couch

import (
	"net/url"
	"sync"
	"testing"
	"time"

	masterminds "github.com/Masterminds/semver/v3"

	"github.com/morebase/couch-client/pkg/events"
)

func TestConversions_VersionRoundTrip(t *testing.T) {
	c := testCouch(t, newFakeTransport(), &events.NoOpSink{})
	c.RegisterToWire("version", func(_ *Couch, v any) any {
		if ver, ok := v.(*masterminds.Version); ok {
			return ver.String()
		}
		return v
	})

	payload := map[string]any{"version": "3.2.1"}
	c.ToNative(payload, "version", "version")
	if _, ok := payload["version"].(*masterminds.Version); !ok {
		t.Fatalf("couch:convert_test - version field = %T, want *semver.Version", payload["version"])
	}

	c.ToWire(payload, "version", "version")
	if got := payload["version"]; got != "3.2.1" {
		t.Errorf("couch:convert_test - round-trip = %v, want 3.2.1", got)
	}
}

func TestConversions_MissingFieldIsNoOp(t *testing.T) {
	c := testCouch(t, newFakeTransport(), &events.NoOpSink{})

	payload := map[string]any{"present": "1.0"}
	c.ToNative(payload, "version", "absent")

	if _, exists := payload["absent"]; exists {
		t.Error("couch:convert_test - conversion added a missing field")
	}
	if payload["present"] != "1.0" {
		t.Error("couch:convert_test - unrelated field was touched")
	}
}

func TestConversions_UnregisteredTagIsNoOp(t *testing.T) {
	c := testCouch(t, newFakeTransport(), &events.NoOpSink{})

	payload := map[string]any{"field": "value"}
	got := c.ToNative(payload, "no-such-tag", "field")

	if got["field"] != "value" {
		t.Error("couch:convert_test - unregistered tag modified the payload")
	}
}

func TestConversions_UserOverrideWins(t *testing.T) {
	transport := newFakeTransport()
	c, err := New(Params{
		APIVersion:      "3.3",
		NoDefaultServer: true,
		Transport:       transport,
		Warnings:        &events.NoOpSink{},
		ToNative: map[string]ToNativeFunc{
			"version": func(_ *Couch, v any) any { return "overridden" },
		},
	})
	if err != nil {
		t.Fatalf("couch:convert_test - New failed: %v", err)
	}

	payload := map[string]any{"version": "3.2.1"}
	c.ToNative(payload, "version", "version")
	if payload["version"] != "overridden" {
		t.Errorf("couch:convert_test - version = %v, want user override to win over built-in", payload["version"])
	}
}

func TestConversions_BoolCoercion(t *testing.T) {
	c := testCouch(t, newFakeTransport(), &events.NoOpSink{})

	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"true bool", true, true},
		{"false bool", false, false},
		{"nonempty string", "yes", true},
		{"empty string", "", false},
		{"zero string", "0", false},
		{"zero int", 0, false},
		{"nonzero float", 1.5, true},
		{"nil", nil, false},
		{"map", map[string]any{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := map[string]any{"flag": tt.value}
			c.ToWire(payload, "bool", "flag")
			if payload["flag"] != tt.want {
				t.Errorf("couch:convert_test - bool(%v) = %v, want %v", tt.value, payload["flag"], tt.want)
			}
		})
	}
}

func TestConversions_BuiltinToNative(t *testing.T) {
	c := testCouch(t, newFakeTransport(), &events.NoOpSink{})

	payload := map[string]any{
		"uri":     "http://couch.example.org:5984/db",
		"started": float64(1700000000),
		"iso":     "2024-05-01T12:30:00Z",
		"mail":    "Wed, 01 May 2024 12:30:00 +0000",
		"node":    "couchdb@n1",
	}
	c.ToNative(payload, "abs_uri", "uri")
	c.ToNative(payload, "epoch", "started")
	c.ToNative(payload, "isotime", "iso")
	c.ToNative(payload, "mailtime", "mail")
	c.ToNative(payload, "node", "node")

	if u, ok := payload["uri"].(*url.URL); !ok || u.Host != "couch.example.org:5984" {
		t.Errorf("couch:convert_test - abs_uri = %v (%T)", payload["uri"], payload["uri"])
	}
	if ts, ok := payload["started"].(time.Time); !ok || ts.Unix() != 1700000000 {
		t.Errorf("couch:convert_test - epoch = %v (%T)", payload["started"], payload["started"])
	}
	if ts, ok := payload["iso"].(time.Time); !ok || ts.Year() != 2024 {
		t.Errorf("couch:convert_test - isotime = %v (%T)", payload["iso"], payload["iso"])
	}
	if ts, ok := payload["mail"].(time.Time); !ok || ts.Month() != time.May {
		t.Errorf("couch:convert_test - mailtime = %v (%T)", payload["mail"], payload["mail"])
	}
	if n, ok := payload["node"].(*Node); !ok || n.Name() != "couchdb@n1" {
		t.Errorf("couch:convert_test - node = %v (%T)", payload["node"], payload["node"])
	}
}

func TestConversions_NodeToWire(t *testing.T) {
	c := testCouch(t, newFakeTransport(), &events.NoOpSink{})

	payload := map[string]any{"target": c.Node("couchdb@n2")}
	c.ToWire(payload, "node", "target")
	if payload["target"] != "couchdb@n2" {
		t.Errorf("couch:convert_test - node toWire = %v, want name string", payload["target"])
	}
}

func TestConversions_ConcurrentRegisterAndApply(t *testing.T) {
	c := testCouch(t, newFakeTransport(), &events.NoOpSink{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RegisterToNative("custom", func(_ *Couch, v any) any { return v })
				c.RegisterToWire("custom", func(_ *Couch, v any) any { return v })
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.ToNative(map[string]any{"f": "x"}, "custom", "f")
				c.ToWire(map[string]any{"f": "x"}, "custom", "f")
			}
		}()
	}
	wg.Wait()
}

func TestNode_Identity(t *testing.T) {
	c := testCouch(t, newFakeTransport(), &events.NoOpSink{})

	n1 := c.Node("couchdb@n1")
	n2 := c.Node("couchdb@n1")
	other := c.Node("couchdb@n2")

	if n1 != n2 {
		t.Error("couch:convert_test - same name should yield the same Node instance")
	}
	if n1 == other {
		t.Error("couch:convert_test - different names should yield different Nodes")
	}
	if n1.Couch() != c {
		t.Error("couch:convert_test - Node should reference its dispatcher")
	}
}
