// Package selection turns pointer drags over the document viewer into a
// rectangle in container-local coordinates.
package selection

import (
	"learning-persona/src/screenshot"
)

// MinSelectionSpan is the click-vs-drag threshold: both sides of a dragged
// rectangle must exceed it for the rectangle to become the active selection.
const MinSelectionSpan = 5

// Tracker holds the drag state and the active selection for one viewer.
// It is not safe for concurrent use; the owning view serializes all calls.
type Tracker struct {
	containerW int
	containerH int
	content    screenshot.Region
	contentSet bool

	dragging bool
	anchor   screenshot.Point
	cursor   screenshot.Point

	active   *screenshot.Region
	fullArea bool
}

func NewTracker(containerW, containerH int) *Tracker {
	t := &Tracker{}
	t.SetContainer(containerW, containerH)
	return t
}

// SetContainer updates the clamping bounds. The content area defaults to the
// whole container until SetContent is called.
func (t *Tracker) SetContainer(w, h int) {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	t.containerW, t.containerH = w, h
	if !t.contentSet {
		t.content = screenshot.Region{Width: w, Height: h}
	}
}

// SetContent records the bounds of the rendered content area used by SelectFullArea.
func (t *Tracker) SetContent(r screenshot.Region) {
	t.content = r
	t.contentSet = true
}

func (t *Tracker) clamp(p screenshot.Point) screenshot.Point {
	return screenshot.Point{X: clampInt(p.X, 0, t.containerW), Y: clampInt(p.Y, 0, t.containerH)}
}

func (t *Tracker) Begin(p screenshot.Point) {
	p = t.clamp(p)
	t.anchor, t.cursor = p, p
	t.dragging = true
}

func (t *Tracker) Update(p screenshot.Point) {
	if !t.dragging {
		return
	}
	t.cursor = t.clamp(p)
}

// End finishes the drag. It reports whether a new selection was committed;
// small drags count as clicks and leave the active selection untouched.
func (t *Tracker) End() bool {
	if !t.dragging {
		return false
	}
	t.dragging = false

	r := rectFromCorners(t.anchor, t.cursor)
	if r.Width > MinSelectionSpan && r.Height > MinSelectionSpan {
		t.active = &r
		t.fullArea = false
		return true
	}
	return false
}

// SelectFullArea selects the whole content area; a second call while the
// full-area selection is still active clears it.
func (t *Tracker) SelectFullArea() {
	if t.fullArea && t.active != nil {
		t.Clear()
		return
	}
	full := t.content
	t.active = &full
	t.fullArea = true
}

func (t *Tracker) Clear() {
	t.active = nil
	t.fullArea = false
}

// Reset drops the selection and any drag in progress, e.g. when a new document loads.
func (t *Tracker) Reset() {
	t.Clear()
	t.dragging = false
	t.anchor, t.cursor = screenshot.Point{}, screenshot.Point{}
}

// Active returns a copy of the active selection, or nil.
func (t *Tracker) Active() *screenshot.Region {
	if t.active == nil {
		return nil
	}
	r := *t.active
	return &r
}

func (t *Tracker) IsFullArea() bool { return t.fullArea && t.active != nil }

func (t *Tracker) Dragging() bool { return t.dragging }

// Preview is the rectangle currently being dragged.
func (t *Tracker) Preview() (screenshot.Region, bool) {
	if !t.dragging {
		return screenshot.Region{}, false
	}
	return rectFromCorners(t.anchor, t.cursor), true
}

func rectFromCorners(a, b screenshot.Point) screenshot.Region {
	return screenshot.Region{
		X:      min(a.X, b.X),
		Y:      min(a.Y, b.Y),
		Width:  absInt(b.X - a.X),
		Height: absInt(b.Y - a.Y),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
