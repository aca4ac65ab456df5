package clipboard

import (
	"errors"
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

// ErrUnavailable is returned when the platform clipboard could not be opened
// (no display, missing X11 libraries).
var ErrUnavailable = errors.New("clipboard unavailable")

var (
	initOnce sync.Once
	initErr  error
	writeMu  sync.Mutex
)

// Init opens the platform clipboard. It is safe to call more than once.
func Init() error {
	initOnce.Do(func() {
		if err := clipboard.Init(); err != nil {
			initErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	})
	return initErr
}

// Write copies an answer as text. Writes are serialized so concurrent copies
// cannot interleave.
func Write(text string) error {
	if err := Init(); err != nil {
		return err
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
