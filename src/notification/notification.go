package notification

import (
	"log"
	"sync"
	"unicode/utf8"
)

// MaxPreview is how much of an answer a transient notice shows.
const MaxPreview = 200

// Notifier surfaces short messages outside the main view: a finished answer,
// a failed feedback post, a clipboard error.
type Notifier interface {
	Info(text string)
	Error(title, message string)
}

var (
	mu      sync.RWMutex
	current Notifier = LogNotifier{}
)

// SetDefault replaces the process-wide notifier, e.g. with the GUI's.
func SetDefault(n Notifier) {
	mu.Lock()
	defer mu.Unlock()
	if n == nil {
		n = LogNotifier{}
	}
	current = n
}

func Default() Notifier {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// ShowResult shows a preview of an answer.
func ShowResult(text string) {
	Default().Info(Preview(text))
}

// ShowError reports a recoverable error to the user.
func ShowError(title, message string) {
	Default().Error(title, message)
}

// Preview truncates text to MaxPreview runes.
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= MaxPreview {
		return text
	}
	runes := []rune(text)
	return string(runes[:MaxPreview]) + "..."
}

// LogNotifier writes notices to the log. Used by the CLI and in tests.
type LogNotifier struct{}

func (LogNotifier) Info(text string) {
	log.Printf("Notice: %s", text)
}

func (LogNotifier) Error(title, message string) {
	log.Printf("%s: %s", title, message)
}
