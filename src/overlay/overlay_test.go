package overlay

import (
	"testing"

	"learning-persona/src/screenshot"
	"learning-persona/src/selection"
)

func TestFrameFor(t *testing.T) {
	tr := selection.NewTracker(200, 200)
	if f := FrameFor(tr); f.Visible() {
		t.Fatalf("expected nothing to draw, got %+v", f)
	}

	tr.Begin(screenshot.Point{X: 10, Y: 10})
	tr.Update(screenshot.Point{X: 60, Y: 40})
	f := FrameFor(tr)
	if f.Kind != Dragging || f.Region != (screenshot.Region{X: 10, Y: 10, Width: 50, Height: 30}) {
		t.Fatalf("unexpected drag frame %+v", f)
	}

	tr.End()
	f = FrameFor(tr)
	if f.Kind != Selected || !f.Visible() {
		t.Fatalf("expected selected frame, got %+v", f)
	}

	tr.Begin(screenshot.Point{X: 100, Y: 100})
	if f := FrameFor(tr); f.Kind != Dragging {
		t.Fatalf("expected drag to take precedence, got %+v", f)
	}
	if f := FrameFor(tr); f.Visible() {
		t.Fatalf("expected zero-size drag to be invisible, got %+v", f)
	}
}

func TestFrameForNilTracker(t *testing.T) {
	if FrameFor(nil).Visible() {
		t.Fatal("expected nil tracker to draw nothing")
	}
}
