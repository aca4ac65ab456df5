package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"learning-persona/src/clipboard"
	"learning-persona/src/dispatch"
	"learning-persona/src/markdown"
	"learning-persona/src/notification"
	"learning-persona/src/screenshot"
	"learning-persona/src/viewer"
)

// CaptureFunc produces the image for one query.
type CaptureFunc func(ctx context.Context) (screenshot.Capture, error)

// DispatchFunc sends a query with its captured image.
type DispatchFunc func(ctx context.Context, query, imageDataURI string) (*dispatch.Exchange, error)

type ResultTarget interface {
	OnSuccess(ex *dispatch.Exchange) error
	OnFailure(err error) error
}

// ProgressReporter shows that a query is running and then its outcome.
type ProgressReporter interface {
	StartCountdown(timeoutSeconds int) error
	UpdateText(text string) error
	Close() error
}

type Options struct {
	Query    string
	Deadline time.Duration
	Capture  CaptureFunc
	Dispatch DispatchFunc
	Target   ResultTarget
	Progress ProgressReporter
}

type Result struct {
	Exchange *dispatch.Exchange
	Capture  screenshot.Capture
}

// Execute runs capture, dispatch and delivery for one query. Any failure is
// reported to the target and returned; nothing is retried.
func Execute(ctx context.Context, opts Options) (Result, error) {
	if opts.Capture == nil {
		return Result{}, errors.New("Capture is required")
	}
	if opts.Dispatch == nil {
		return Result{}, errors.New("Dispatch is required")
	}
	if opts.Target == nil {
		return Result{}, errors.New("Target is required")
	}

	capture, err := opts.Capture(ctx)
	if err != nil {
		err = fmt.Errorf("failed to capture screenshot: %w", err)
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}

	deadline := opts.Deadline
	if deadline <= 0 {
		deadline = 60 * time.Second
	}

	p := opts.Progress
	if p == nil {
		p = noticeProgress{}
	}

	countdownSeconds := int(math.Ceil(deadline.Seconds()))
	if countdownSeconds < 1 {
		countdownSeconds = 1
	}
	_ = p.StartCountdown(countdownSeconds)

	jobCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	ex, err := opts.Dispatch(jobCtx, opts.Query, capture.DataURI)
	if err != nil {
		_ = p.Close()
		_ = opts.Target.OnFailure(err)
		return Result{Capture: capture}, err
	}

	if err := opts.Target.OnSuccess(ex); err != nil {
		_ = p.Close()
		_ = opts.Target.OnFailure(err)
		return Result{Exchange: ex, Capture: capture}, err
	}

	_ = p.UpdateText(ex.Text)
	return Result{Exchange: ex, Capture: capture}, nil
}

// noticeProgress reports through the notification package.
type noticeProgress struct{}

func (noticeProgress) StartCountdown(timeoutSeconds int) error {
	notification.Default().Info(fmt.Sprintf("Asking the persona (up to %ds)...", timeoutSeconds))
	return nil
}

func (noticeProgress) UpdateText(text string) error {
	notification.ShowResult(text)
	return nil
}

func (noticeProgress) Close() error { return nil }

type ClipboardTarget struct{}

func (ClipboardTarget) OnSuccess(ex *dispatch.Exchange) error {
	return clipboard.Write(ex.Text)
}

func (ClipboardTarget) OnFailure(err error) error {
	return nil
}

// StdoutTarget prints the answer, as markdown or rendered HTML, and saves
// any answer audio to AudioPath.
type StdoutTarget struct {
	Writer    io.Writer
	HTML      bool
	AudioPath string
}

func (t StdoutTarget) OnSuccess(ex *dispatch.Exchange) error {
	w := t.Writer
	if w == nil {
		w = os.Stdout
	}
	out := ex.Text
	if t.HTML {
		html, err := markdown.ToHTML(ex.Text)
		if err != nil {
			return err
		}
		out = html
	}
	if _, err := fmt.Fprintln(w, out); err != nil {
		return err
	}
	return saveAudio(t.AudioPath, ex.Audio)
}

func (t StdoutTarget) OnFailure(err error) error {
	return nil
}

// JSONTarget writes one JSON object per exchange. With IncludeImage the
// captured data URI is kept so the line can be exported later.
type JSONTarget struct {
	Writer       io.Writer
	AudioPath    string
	IncludeImage bool
}

type jsonExchange struct {
	ID          string `json:"id"`
	Query       string `json:"query"`
	Image       string `json:"image,omitempty"`
	Response    string `json:"response,omitempty"`
	AudioBase64 string `json:"audio_base64,omitempty"`
	ElapsedMS   int64  `json:"elapsed_ms,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (t JSONTarget) writer() io.Writer {
	if t.Writer == nil {
		return os.Stdout
	}
	return t.Writer
}

func (t JSONTarget) OnSuccess(ex *dispatch.Exchange) error {
	out := jsonExchange{
		ID:        ex.ID,
		Query:     ex.Query,
		Response:  ex.Text,
		ElapsedMS: ex.Finished.Sub(ex.Started).Milliseconds(),
	}
	if t.IncludeImage {
		out.Image = ex.Image
	}
	if len(ex.Audio) > 0 {
		out.AudioBase64 = base64.StdEncoding.EncodeToString(ex.Audio)
	}
	if err := json.NewEncoder(t.writer()).Encode(out); err != nil {
		return err
	}
	return saveAudio(t.AudioPath, ex.Audio)
}

func (t JSONTarget) OnFailure(err error) error {
	if err == nil {
		err = errors.New("unknown session error")
	}
	return json.NewEncoder(t.writer()).Encode(jsonExchange{Error: err.Error()})
}

// ReadJSONLines loads exchanges written by JSONTarget, skipping failed ones.
func ReadJSONLines(r io.Reader) ([]viewer.Entry, error) {
	var entries []viewer.Entry
	dec := json.NewDecoder(r)
	for {
		var line jsonExchange
		err := dec.Decode(&line)
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read exchange %d: %w", len(entries)+1, err)
		}
		if line.Error != "" {
			continue
		}
		e := viewer.Entry{
			ID:      line.ID,
			Query:   line.Query,
			Image:   line.Image,
			Answer:  line.Response,
			Elapsed: time.Duration(line.ElapsedMS) * time.Millisecond,
		}
		if line.AudioBase64 != "" {
			if e.Audio, err = base64.StdEncoding.DecodeString(line.AudioBase64); err != nil {
				return nil, fmt.Errorf("exchange %s: bad audio: %w", line.ID, err)
			}
		}
		entries = append(entries, e)
	}
}

func saveAudio(path string, audio []byte) error {
	if path == "" || len(audio) == 0 {
		return nil
	}
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return fmt.Errorf("failed to save answer audio: %w", err)
	}
	return nil
}
