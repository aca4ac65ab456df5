package overlay

import (
	"learning-persona/src/screenshot"
	"learning-persona/src/selection"
)

// Kind tells the renderer how to style the overlay rectangle.
type Kind int

const (
	None Kind = iota
	// Dragging is the live rectangle while the pointer button is held.
	Dragging
	// Selected is the committed active selection.
	Selected
)

// Frame is the transient visual drawn above the page. It lives only in the
// view layer; captures read the content source and never see it.
type Frame struct {
	Kind   Kind
	Region screenshot.Region
}

func (f Frame) Visible() bool { return f.Kind != None && !f.Region.Empty() }

// FrameFor reports what to draw for the tracker's current state. A drag in
// progress takes precedence over the committed selection.
func FrameFor(t *selection.Tracker) Frame {
	if t == nil {
		return Frame{}
	}
	if r, ok := t.Preview(); ok {
		return Frame{Kind: Dragging, Region: r}
	}
	if r := t.Active(); r != nil {
		return Frame{Kind: Selected, Region: *r}
	}
	return Frame{}
}
