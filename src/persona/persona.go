// Package persona gates and runs persona creation, and carries the loading
// screen's rotating messages.
package persona

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"learning-persona/src/progress"
)

// ErrIncomplete is returned when not every subject has been recorded.
var ErrIncomplete = errors.New("record all three subjects before creating the persona")

// LoadingInterval is how long each loading message stays up.
const LoadingInterval = 3 * time.Second

var LoadingTexts = []string{
	"Analyzing your voice patterns...",
	"Discovering your learning preferences...",
	"Understanding personality traits...",
	"Creating personalized insights...",
	"Almost there, cooking up something special...",
}

type Creator interface {
	CreatePersona(ctx context.Context) error
}

// Create asks the backend to build the persona once all subjects are recorded.
// A failed request leaves the recorded subjects as they are.
func Create(ctx context.Context, tracker *progress.Tracker, c Creator) error {
	done, err := tracker.Complete()
	if err != nil {
		return fmt.Errorf("failed to read recorded subjects: %w", err)
	}
	if !done {
		return ErrIncomplete
	}
	start := time.Now()
	if err := c.CreatePersona(ctx); err != nil {
		log.Printf("persona: creation failed after %v: %v", time.Since(start), err)
		return err
	}
	log.Printf("persona: created in %v", time.Since(start))
	return nil
}

// CycleTexts calls show with each loading message in turn, starting
// immediately and advancing every interval, until ctx is done.
func CycleTexts(ctx context.Context, interval time.Duration, show func(string)) {
	if interval <= 0 {
		interval = LoadingInterval
	}
	i := 0
	show(LoadingTexts[i])
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			i = (i + 1) % len(LoadingTexts)
			show(LoadingTexts[i])
		}
	}
}
