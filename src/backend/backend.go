package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"learning-persona/src/logutil"
)

// ErrRequestFailed covers transport failures and non-2xx answers. Requests are
// never retried.
var ErrRequestFailed = errors.New("request failed")

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

type InitialDataRequest struct {
	Role  string `json:"role"`
	Audio string `json:"audio"`
}

type InitialDataResponse struct {
	Status          string `json:"status"`
	Role            string `json:"role"`
	TranscribedText string `json:"transcribed_text"`
}

type PersonaResponse struct {
	Status string `json:"status"`
}

type MultimodalRequest struct {
	Prompt      string `json:"prompt"`
	ImageBase64 string `json:"image_base64"`
}

type MultimodalResponse struct {
	Response    string `json:"response"`
	AudioBase64 string `json:"audio_base64,omitempty"`
}

type FeedbackRequest struct {
	Request  string `json:"request"`
	Material string `json:"material"`
	Output   string `json:"output"`
	Feedback string `json:"feedback"`
}

type LearnResponse struct {
	Status     string  `json:"status"`
	FinalScore float64 `json:"final_score"`
}

// Answer is a decoded multimodal reply.
type Answer struct {
	Text  string
	Audio []byte
}

// Ping checks GET /debug.
func (c *Client) Ping(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/debug", nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("%w: unexpected debug status %q", ErrRequestFailed, out.Status)
	}
	return nil
}

// SetInitialData uploads base64 audio describing one role.
func (c *Client) SetInitialData(ctx context.Context, role string, audio []byte) (*InitialDataResponse, error) {
	req := InitialDataRequest{Role: role, Audio: base64.StdEncoding.EncodeToString(audio)}
	var out InitialDataResponse
	if err := c.do(ctx, http.MethodPost, "/ai/set-initial-data", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePersona asks the backend to build the persona from the recorded data.
func (c *Client) CreatePersona(ctx context.Context) error {
	var out PersonaResponse
	if err := c.do(ctx, http.MethodPost, "/ai/create-user-persona", nil, &out); err != nil {
		return err
	}
	if out.Status != "success" {
		return fmt.Errorf("%w: persona creation returned status %q", ErrRequestFailed, out.Status)
	}
	return nil
}

// CallMultimodal sends the query and captured image data URI.
func (c *Client) CallMultimodal(ctx context.Context, prompt, imageDataURI string) (*Answer, error) {
	req := MultimodalRequest{Prompt: prompt, ImageBase64: imageDataURI}
	var out MultimodalResponse
	if err := c.do(ctx, http.MethodPost, "/ai/call-multimodal", req, &out); err != nil {
		return nil, err
	}
	ans := &Answer{Text: out.Response}
	if out.AudioBase64 != "" {
		audio, err := base64.StdEncoding.DecodeString(stripDataPrefix(out.AudioBase64))
		if err != nil {
			log.Printf("backend: dropping undecodable audio (%d bytes): %v", len(out.AudioBase64), err)
		} else {
			ans.Audio = audio
		}
	}
	return ans, nil
}

func (c *Client) Feedback(ctx context.Context, fb FeedbackRequest) error {
	return c.do(ctx, http.MethodPost, "/ai/feedback", fb, nil)
}

func (c *Client) Learn(ctx context.Context) (*LearnResponse, error) {
	var out LearnResponse
	if err := c.do(ctx, http.MethodPost, "/ai/learn", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %v", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	if in != nil || method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("backend: %s %s failed after %v: %v", method, path, time.Since(start), err)
		return fmt.Errorf("%w: %s %s: %w", ErrRequestFailed, method, path, err)
	}
	defer resp.Body.Close()
	log.Printf("backend: %s %s -> %d in %v", method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s returned status %d: %s", ErrRequestFailed, method, path, resp.StatusCode, logutil.SanitizeForLog(string(detail)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrRequestFailed, err)
	}
	return nil
}

func stripDataPrefix(s string) string {
	if strings.HasPrefix(s, "data:") {
		if _, payload, ok := strings.Cut(s, ","); ok {
			return payload
		}
	}
	return s
}
