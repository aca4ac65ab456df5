package selection

import (
	"testing"

	"learning-persona/src/screenshot"
)

func drag(t *Tracker, from, to screenshot.Point) bool {
	t.Begin(from)
	t.Update(to)
	return t.End()
}

func TestDragCommitsSelection(t *testing.T) {
	tr := NewTracker(800, 600)
	if !drag(tr, screenshot.Point{X: 10, Y: 10}, screenshot.Point{X: 100, Y: 80}) {
		t.Fatal("expected drag to commit")
	}
	want := screenshot.Region{X: 10, Y: 10, Width: 90, Height: 70}
	if got := tr.Active(); got == nil || *got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if tr.Dragging() {
		t.Fatal("expected drag state cleared after End")
	}
}

func TestSmallDragIsClick(t *testing.T) {
	tr := NewTracker(800, 600)
	if drag(tr, screenshot.Point{X: 10, Y: 10}, screenshot.Point{X: 8, Y: 8}) {
		t.Fatal("expected 2x2 drag to be discarded")
	}
	if tr.Active() != nil {
		t.Fatal("expected no active selection")
	}
}

func TestThresholdTable(t *testing.T) {
	tests := []struct {
		name   string
		to     screenshot.Point
		commit bool
	}{
		{name: "both exactly five", to: screenshot.Point{X: 5, Y: 5}, commit: false},
		{name: "width only", to: screenshot.Point{X: 50, Y: 5}, commit: false},
		{name: "height only", to: screenshot.Point{X: 5, Y: 50}, commit: false},
		{name: "both six", to: screenshot.Point{X: 6, Y: 6}, commit: true},
		{name: "reverse drag", to: screenshot.Point{X: -40, Y: -40}, commit: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(800, 600)
			if got := drag(tr, screenshot.Point{}, tt.to); got != tt.commit {
				t.Fatalf("commit=%v, want %v", got, tt.commit)
			}
		})
	}
}

func TestClickKeepsPreviousSelection(t *testing.T) {
	tr := NewTracker(800, 600)
	drag(tr, screenshot.Point{X: 10, Y: 10}, screenshot.Point{X: 100, Y: 80})
	before := *tr.Active()

	drag(tr, screenshot.Point{X: 300, Y: 300}, screenshot.Point{X: 301, Y: 302})
	if got := tr.Active(); got == nil || *got != before {
		t.Fatalf("expected selection unchanged after click, got %+v", got)
	}
}

func TestUpdateClampsToContainer(t *testing.T) {
	tr := NewTracker(200, 100)
	tr.Begin(screenshot.Point{X: 150, Y: 50})
	tr.Update(screenshot.Point{X: 500, Y: -30})
	if !tr.End() {
		t.Fatal("expected clamped drag to commit")
	}
	want := screenshot.Region{X: 150, Y: 0, Width: 50, Height: 50}
	if got := tr.Active(); *got != want {
		t.Fatalf("expected %+v, got %+v", want, *got)
	}
}

func TestUpdateWithoutBeginIgnored(t *testing.T) {
	tr := NewTracker(200, 100)
	tr.Update(screenshot.Point{X: 50, Y: 50})
	if tr.End() {
		t.Fatal("expected End without Begin to be a no-op")
	}
	if _, ok := tr.Preview(); ok {
		t.Fatal("expected no preview without drag")
	}
}

func TestPreviewDuringDrag(t *testing.T) {
	tr := NewTracker(200, 100)
	tr.Begin(screenshot.Point{X: 40, Y: 40})
	tr.Update(screenshot.Point{X: 20, Y: 10})
	got, ok := tr.Preview()
	if !ok {
		t.Fatal("expected preview while dragging")
	}
	if got != (screenshot.Region{X: 20, Y: 10, Width: 20, Height: 30}) {
		t.Fatalf("unexpected preview %+v", got)
	}
}

func TestSelectFullAreaToggles(t *testing.T) {
	tr := NewTracker(800, 600)
	tr.SetContent(screenshot.Region{Width: 640, Height: 480})

	tr.SelectFullArea()
	if got := tr.Active(); got == nil || *got != (screenshot.Region{Width: 640, Height: 480}) {
		t.Fatalf("expected full content selection, got %+v", got)
	}
	if !tr.IsFullArea() {
		t.Fatal("expected full-area flag")
	}

	tr.SelectFullArea()
	if tr.Active() != nil {
		t.Fatal("expected second SelectFullArea to clear selection")
	}
}

func TestSelectFullAreaOverridesDrag(t *testing.T) {
	tr := NewTracker(300, 200)
	drag(tr, screenshot.Point{X: 10, Y: 10}, screenshot.Point{X: 100, Y: 80})

	tr.SelectFullArea()
	if got := tr.Active(); *got != (screenshot.Region{Width: 300, Height: 200}) {
		t.Fatalf("expected container-sized full area, got %+v", *got)
	}

	drag(tr, screenshot.Point{X: 10, Y: 10}, screenshot.Point{X: 100, Y: 80})
	tr.SelectFullArea()
	if tr.Active() == nil || !tr.IsFullArea() {
		t.Fatal("expected SelectFullArea after a drag to select, not toggle off")
	}
}

func TestClearAndReset(t *testing.T) {
	tr := NewTracker(300, 200)
	drag(tr, screenshot.Point{X: 10, Y: 10}, screenshot.Point{X: 100, Y: 80})
	tr.Clear()
	if tr.Active() != nil {
		t.Fatal("expected Clear to drop selection")
	}

	drag(tr, screenshot.Point{X: 10, Y: 10}, screenshot.Point{X: 100, Y: 80})
	tr.Begin(screenshot.Point{X: 1, Y: 1})
	tr.Reset()
	if tr.Active() != nil || tr.Dragging() {
		t.Fatal("expected Reset to drop selection and drag")
	}
}

func TestActiveReturnsCopy(t *testing.T) {
	tr := NewTracker(300, 200)
	drag(tr, screenshot.Point{X: 10, Y: 10}, screenshot.Point{X: 100, Y: 80})
	got := tr.Active()
	got.X = 999
	if tr.Active().X != 10 {
		t.Fatal("expected Active to return a copy")
	}
}
