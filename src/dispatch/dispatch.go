package dispatch

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"learning-persona/src/backend"
	"learning-persona/src/logutil"
)

// ErrRequestFailed is the backend's transport/status error.
var ErrRequestFailed = backend.ErrRequestFailed

// Client is the part of the backend the dispatcher talks to.
type Client interface {
	CallMultimodal(ctx context.Context, prompt, imageDataURI string) (*backend.Answer, error)
	Feedback(ctx context.Context, fb backend.FeedbackRequest) error
}

// Exchange is one completed query round-trip.
type Exchange struct {
	ID       string
	Query    string
	Image    string
	Text     string
	Audio    []byte
	Started  time.Time
	Finished time.Time
}

// Feedback annotates an earlier exchange.
type Feedback struct {
	OriginalQuery string
	Material      string
	Output        string
	Text          string
}

// Dispatcher sends queries with their captured image. Submissions are
// independent: nothing is cached, deduplicated or retried, and concurrent
// submissions are allowed.
type Dispatcher struct {
	client   Client
	inFlight atomic.Int32
	timeout  time.Duration

	feedback sync.WaitGroup
}

func New(client Client, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Dispatcher{client: client, timeout: timeout}
}

// Timeout is the per-request deadline.
func (d *Dispatcher) Timeout() time.Duration { return d.timeout }

// InFlight reports whether any submission is awaiting its response.
func (d *Dispatcher) InFlight() bool {
	return d.inFlight.Load() > 0
}

// Submit posts query and imageDataURI and waits for the answer.
func (d *Dispatcher) Submit(ctx context.Context, query, imageDataURI string) (*Exchange, error) {
	return d.SubmitWithID(ctx, uuid.NewString(), query, imageDataURI)
}

// SubmitWithID is Submit with a caller-chosen exchange ID, so the caller can
// match the result to the request it started.
func (d *Dispatcher) SubmitWithID(ctx context.Context, id, query, imageDataURI string) (*Exchange, error) {
	d.inFlight.Add(1)
	defer d.inFlight.Add(-1)

	ex := &Exchange{ID: id, Query: query, Image: imageDataURI, Started: time.Now()}
	log.Printf("dispatch[%s]: query=%q image=%s", id, logutil.SanitizeForLog(query), logutil.TruncateDataURI(imageDataURI))

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	ans, err := d.client.CallMultimodal(ctx, query, imageDataURI)
	ex.Finished = time.Now()
	if err != nil {
		log.Printf("dispatch[%s]: failed after %v: %v", id, ex.Finished.Sub(ex.Started), err)
		return nil, fmt.Errorf("dispatch %s: %w", id, err)
	}
	ex.Text = ans.Text
	ex.Audio = ans.Audio
	log.Printf("dispatch[%s]: answer %d chars, audio %d bytes in %v", id, len(ex.Text), len(ex.Audio), ex.Finished.Sub(ex.Started))
	return ex, nil
}

// SubmitFeedback posts fb in the background and returns its ID immediately.
// A failure is reported only to onError, which runs on the background
// goroutine and may be nil.
func (d *Dispatcher) SubmitFeedback(fb Feedback, onError func(id string, err error)) string {
	id := uuid.NewString()
	req := backend.FeedbackRequest{
		Request:  fb.OriginalQuery,
		Material: fb.Material,
		Output:   fb.Output,
		Feedback: fb.Text,
	}
	d.feedback.Add(1)
	go func() {
		defer d.feedback.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.client.Feedback(ctx, req); err != nil {
			log.Printf("dispatch: feedback %s failed: %v", id, err)
			if onError != nil {
				onError(id, err)
			}
			return
		}
		log.Printf("dispatch: feedback %s sent (%d chars)", id, len(fb.Text))
	}()
	return id
}

// Wait blocks until all feedback posts have finished.
func (d *Dispatcher) Wait() {
	d.feedback.Wait()
}
