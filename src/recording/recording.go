package recording

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"learning-persona/src/backend"
	"learning-persona/src/document"
	"learning-persona/src/progress"
)

type State int

const (
	Idle State = iota
	Recording
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	// ErrAlreadyRecorded is returned for any transition out of Stopped.
	ErrAlreadyRecorded = errors.New("subject already recorded")

	ErrInvalidTransition = errors.New("invalid recording transition")
)

// Uploader sends audio describing one role to the backend.
type Uploader interface {
	SetInitialData(ctx context.Context, role string, audio []byte) (*backend.InitialDataResponse, error)
}

// Flow is the recording state machine for a single subject. Stopped is
// terminal and is persisted through the progress tracker.
type Flow struct {
	mu       sync.Mutex
	subject  progress.Subject
	progress *progress.Tracker
	uploader Uploader
	state    State
	busy     bool
}

// NewFlow starts in Stopped when the subject was recorded in an earlier run.
func NewFlow(subject progress.Subject, tracker *progress.Tracker, uploader Uploader) (*Flow, error) {
	done, err := tracker.IsRecorded(subject)
	if err != nil {
		return nil, fmt.Errorf("failed to read recorded subjects: %w", err)
	}
	f := &Flow{subject: subject, progress: tracker, uploader: uploader}
	if done {
		f.state = Stopped
	}
	return f, nil
}

func (f *Flow) Subject() progress.Subject { return f.subject }

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transition(Idle, Recording)
}

func (f *Flow) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transition(Recording, Paused)
}

func (f *Flow) Resume() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transition(Paused, Recording)
}

// TogglePause flips between Recording and Paused.
func (f *Flow) TogglePause() error {
	if f.State() == Paused {
		return f.Resume()
	}
	return f.Pause()
}

// Stop ends an active or paused recording and marks the subject recorded.
func (f *Flow) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Stopped {
		return ErrAlreadyRecorded
	}
	if f.state != Recording && f.state != Paused {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f.state, Stopped)
	}
	return f.finishLocked()
}

// Upload validates an audio file and posts it for the subject's role. Success
// moves the flow to Stopped; failure leaves the state untouched.
func (f *Flow) Upload(ctx context.Context, name string, data []byte) (*backend.InitialDataResponse, error) {
	audio, err := document.AudioFromBytes(name, data)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	if f.state == Stopped {
		f.mu.Unlock()
		return nil, ErrAlreadyRecorded
	}
	if f.busy {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: upload already in progress", ErrInvalidTransition)
	}
	f.busy = true
	f.mu.Unlock()

	log.Printf("recording: uploading %s (%s, %d bytes) as role %s", audio.Name, audio.MIME, len(audio.Data), f.subject.Role())
	resp, err := f.uploader.SetInitialData(ctx, f.subject.Role(), audio.Data)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if err != nil {
		return nil, fmt.Errorf("failed to process audio: %w", err)
	}
	if f.state == Stopped {
		return resp, nil
	}
	if err := f.finishLocked(); err != nil {
		return resp, err
	}
	return resp, nil
}

func (f *Flow) transition(from, to State) error {
	if f.state == Stopped {
		return ErrAlreadyRecorded
	}
	if f.state != from {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f.state, to)
	}
	log.Printf("recording: %s %s -> %s", f.subject.Slug(), f.state, to)
	f.state = to
	return nil
}

func (f *Flow) finishLocked() error {
	if err := f.progress.Mark(f.subject); err != nil {
		return fmt.Errorf("failed to persist recorded subject: %w", err)
	}
	log.Printf("recording: %s %s -> %s", f.subject.Slug(), f.state, Stopped)
	f.state = Stopped
	return nil
}
