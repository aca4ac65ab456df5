package runtimeinit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"learning-persona/src/config"
	"learning-persona/src/store"
)

func TestBootstrap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	storePath := filepath.Join(t.TempDir(), "flags.yaml")
	var loggingSetup bool
	rt, err := Bootstrap(context.Background(), Options{
		LoadOptions:    config.LoadOptions{APIURLOverride: srv.URL, StorePathOverride: storePath},
		SetupLogging:   func(bool) { loggingSetup = true },
		RequireBackend: true,
	})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if !loggingSetup || !rt.BackendUp {
		t.Fatalf("expected logging set up and backend up, got %v %v", loggingSetup, rt.BackendUp)
	}
	if rt.Config.APIURL != srv.URL || rt.Backend.BaseURL() != srv.URL {
		t.Fatalf("unexpected api url %q", rt.Config.APIURL)
	}
	if f, ok := rt.Store.(*store.File); !ok || f.Path() != storePath {
		t.Fatalf("expected file store at %s, got %#v", storePath, rt.Store)
	}
}

func TestBootstrapBackendDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	opts := Options{
		LoadOptions: config.LoadOptions{APIURLOverride: url},
		Store:       store.NewMemory(),
	}
	rt, err := Bootstrap(context.Background(), opts)
	if err != nil {
		t.Fatalf("expected startup to continue without backend, got %v", err)
	}
	if rt.BackendUp {
		t.Fatal("expected BackendUp=false")
	}

	opts.RequireBackend = true
	if _, err := Bootstrap(context.Background(), opts); err == nil {
		t.Fatal("expected error when backend is required")
	}
}
