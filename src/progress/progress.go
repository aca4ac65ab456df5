package progress

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"learning-persona/src/store"
)

// RecordedKey is the single stored value: a JSON array of subject identifiers
// in the order they were recorded.
const RecordedKey = "recordedOptions"

// Subject is one of the three fixed recording targets.
type Subject string

const (
	You     Subject = "You"
	Student Subject = "your Student"
	Child   Subject = "your Child"
)

// Subjects lists every subject in display order.
var Subjects = []Subject{Student, Child, You}

// Role is the backend role the subject's audio describes.
func (s Subject) Role() string {
	switch s {
	case You:
		return "student"
	case Student:
		return "teacher"
	case Child:
		return "parent"
	}
	return string(s)
}

// Title is the heading used on the recording screen.
func (s Subject) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// Slug is the short route name: you, student, child.
func (s Subject) Slug() string {
	switch s {
	case You:
		return "you"
	case Student:
		return "student"
	case Child:
		return "child"
	}
	return ""
}

// ParseSubject accepts a slug, a role name or the stored identifier.
func ParseSubject(v string) (Subject, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "you", "me", "self":
		return You, nil
	case "student", "your student", "teacher":
		return Student, nil
	case "child", "your child", "parent":
		return Child, nil
	}
	return "", fmt.Errorf("unknown subject %q (want you, student or child)", v)
}

// Tracker reads and writes the recorded-subject list.
type Tracker struct {
	store store.Store
}

func New(s store.Store) *Tracker {
	return &Tracker{store: s}
}

// Recorded returns the subjects recorded so far. Unparseable stored data reads
// as nothing recorded.
func (t *Tracker) Recorded() ([]Subject, error) {
	raw, ok, err := t.store.Get(RecordedKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, nil
	}
	out := make([]Subject, 0, len(ids))
	for _, id := range ids {
		s := Subject(id)
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (t *Tracker) IsRecorded(s Subject) (bool, error) {
	recorded, err := t.Recorded()
	if err != nil {
		return false, err
	}
	return slices.Contains(recorded, s), nil
}

// Mark appends s once; marking an already recorded subject is a no-op.
func (t *Tracker) Mark(s Subject) error {
	recorded, err := t.Recorded()
	if err != nil {
		return err
	}
	if slices.Contains(recorded, s) {
		return nil
	}
	recorded = append(recorded, s)
	data, err := json.Marshal(recorded)
	if err != nil {
		return err
	}
	return t.store.Set(RecordedKey, string(data))
}

// Complete reports whether all three subjects are recorded, which unlocks persona creation.
func (t *Tracker) Complete() (bool, error) {
	recorded, err := t.Recorded()
	if err != nil {
		return false, err
	}
	for _, s := range Subjects {
		if !slices.Contains(recorded, s) {
			return false, nil
		}
	}
	return true, nil
}

// Reset removes the stored value entirely.
func (t *Tracker) Reset() error {
	return t.store.Clear(RecordedKey)
}
