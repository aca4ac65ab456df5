package backend

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/", Timeout: 5 * time.Second})
}

func TestPing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/debug" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"ok","message":"Debug endpoint working"}`))
	})
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestCallMultimodal(t *testing.T) {
	audio := []byte("ID3 fake mp3")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ai/call-multimodal" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		var req MultimodalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Prompt != "Summarize this content" || req.ImageBase64 != "data:image/jpeg;base64,AAAA" {
			t.Errorf("unexpected request %+v", req)
		}
		_ = json.NewEncoder(w).Encode(MultimodalResponse{
			Response:    "# Summary",
			AudioBase64: base64.StdEncoding.EncodeToString(audio),
		})
	})

	ans, err := c.CallMultimodal(context.Background(), "Summarize this content", "data:image/jpeg;base64,AAAA")
	if err != nil {
		t.Fatalf("CallMultimodal failed: %v", err)
	}
	if ans.Text != "# Summary" || string(ans.Audio) != string(audio) {
		t.Fatalf("unexpected answer %+v", ans)
	}
}

func TestCallMultimodalWithoutAudio(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"plain"}`))
	})
	ans, err := c.CallMultimodal(context.Background(), "q", "data:image/png;base64,AA==")
	if err != nil {
		t.Fatalf("CallMultimodal failed: %v", err)
	}
	if ans.Audio != nil {
		t.Fatalf("expected no audio, got %d bytes", len(ans.Audio))
	}
}

func TestNon2xxIsRequestFailed(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"detail":"boom"}`, http.StatusInternalServerError)
	})
	_, err := c.CallMultimodal(context.Background(), "q", "img")
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected exactly one attempt (no retries), got %d", n)
	}
}

func TestTransportFailureIsRequestFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(Config{BaseURL: url, Timeout: time.Second})
	if err := c.Feedback(context.Background(), FeedbackRequest{}); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
}

func TestDeadlineKeepsCause(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.CallMultimodal(ctx, "slow", "data:image/png;base64,AAAA")
	if !errors.Is(err, ErrRequestFailed) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected ErrRequestFailed wrapping DeadlineExceeded, got %v", err)
	}
}

func TestSetInitialData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req InitialDataRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		raw, err := base64.StdEncoding.DecodeString(req.Audio)
		if err != nil || string(raw) != "wave" {
			t.Errorf("unexpected audio payload %q err=%v", req.Audio, err)
		}
		_ = json.NewEncoder(w).Encode(InitialDataResponse{Status: "success", Role: req.Role, TranscribedText: "hello"})
	})
	out, err := c.SetInitialData(context.Background(), "teacher", []byte("wave"))
	if err != nil {
		t.Fatalf("SetInitialData failed: %v", err)
	}
	if out.Role != "teacher" || out.TranscribedText != "hello" {
		t.Fatalf("unexpected response %+v", out)
	}
}

func TestCreatePersonaStatus(t *testing.T) {
	status := "success"
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(PersonaResponse{Status: status})
	})
	if err := c.CreatePersona(context.Background()); err != nil {
		t.Fatalf("CreatePersona failed: %v", err)
	}
	status = "pending"
	if err := c.CreatePersona(context.Background()); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed for non-success status, got %v", err)
	}
}

func TestFeedbackAndLearn(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ai/feedback":
			var fb FeedbackRequest
			_ = json.NewDecoder(r.Body).Decode(&fb)
			if fb.Request != "q" || fb.Feedback != "too long" {
				t.Errorf("unexpected feedback %+v", fb)
			}
			w.WriteHeader(http.StatusOK)
		case "/ai/learn":
			_, _ = w.Write([]byte(`{"status":"success","final_score":72.5}`))
		default:
			http.NotFound(w, r)
		}
	})

	if err := c.Feedback(context.Background(), FeedbackRequest{Request: "q", Material: "m", Output: "o", Feedback: "too long"}); err != nil {
		t.Fatalf("Feedback failed: %v", err)
	}
	res, err := c.Learn(context.Background())
	if err != nil {
		t.Fatalf("Learn failed: %v", err)
	}
	if res.Status != "success" || res.FinalScore != 72.5 {
		t.Fatalf("unexpected learn result %+v", res)
	}
}
