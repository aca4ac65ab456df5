package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewRootCmdDefaults(t *testing.T) {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.ParseFlags([]string{}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if opts.n != 20 {
		t.Fatalf("Expected default n=20, got %d", opts.n)
	}
	if opts.mode != "summarize" {
		t.Fatalf("Expected default mode=summarize, got %q", opts.mode)
	}
	if opts.deadline != 60*time.Second {
		t.Fatalf("Expected default deadline=60s, got %v", opts.deadline)
	}
}

func TestNewRootCmdCustomFlags(t *testing.T) {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.ParseFlags([]string{"--n", "3", "--mode", "adapt", "--deadline", "7s"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if opts.n != 3 || opts.mode != "adapt" || opts.deadline != 7*time.Second {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestRunAgainstBackend(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1)%4 == 0 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := runWithOptions(context.Background(), &out, stressOptions{n: 8, mode: "adapt", deadline: 5 * time.Second, apiURL: srv.URL})
	if err != nil {
		t.Fatalf("runWithOptions: %v", err)
	}
	if !strings.Contains(out.String(), "launched=8 ok=6 timeout=0 err=2") {
		t.Fatalf("unexpected summary %q", out.String())
	}
	if calls.Load() != 8 {
		t.Fatalf("expected every query sent, got %d", calls.Load())
	}
}

func TestRunCountsTimeouts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte(`{"response":"late"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := runWithOptions(context.Background(), &out, stressOptions{n: 3, mode: "summarize", deadline: 100 * time.Millisecond, apiURL: srv.URL})
	if err != nil {
		t.Fatalf("runWithOptions: %v", err)
	}
	if !strings.Contains(out.String(), "launched=3 ok=0 timeout=3 err=0") {
		t.Fatalf("unexpected summary %q", out.String())
	}
}

func TestPercentile(t *testing.T) {
	ds := []time.Duration{4, 1, 3, 2}
	if percentile(ds, 50) != 2 || percentile(ds, 100) != 4 || percentile(nil, 50) != 0 {
		t.Fatal("unexpected percentile")
	}
}
