// Package viewer owns the state of one result screen: the loaded document,
// its rendered page, the selection, the query and the latest answer. All
// methods are called from a single goroutine (the event loop).
package viewer

import (
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/google/uuid"

	"learning-persona/src/document"
	"learning-persona/src/dispatch"
	"learning-persona/src/logutil"
	"learning-persona/src/overlay"
	"learning-persona/src/screenshot"
	"learning-persona/src/selection"
)

const (
	CaptureFailedMessage  = "Error: Failed to capture screenshot"
	DispatchFailedMessage = "Error: Failed to get response from the AI model"
)

// Mode is a query preset from the side panel.
type Mode string

const (
	ModeNone      Mode = ""
	ModeAdapt     Mode = "adapt"
	ModeSummarize Mode = "summarize"
	ModeCustom    Mode = "custom"
)

// Prompt returns the fixed query text for preset modes, or "" for custom.
func (m Mode) Prompt() string {
	switch m {
	case ModeAdapt:
		return "Adapt this content for learning"
	case ModeSummarize:
		return "Summarize this content"
	}
	return ""
}

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAdapt, ModeSummarize, ModeCustom:
		return Mode(s), nil
	case "summarise":
		return ModeSummarize, nil
	}
	return ModeNone, fmt.Errorf("unknown mode %q (want adapt, summarize or custom)", s)
}

// Request is a captured query ready to be dispatched.
type Request struct {
	ID      string
	Query   string
	Image   string
	Region  screenshot.Region
	Cropped bool
}

// Entry is one exchange in the screen's history.
type Entry struct {
	ID      string
	Query   string
	Image   string
	Answer  string
	Audio   []byte
	Failed  bool
	Page    int
	Elapsed time.Duration
}

// Snapshot is an immutable copy of everything the UI renders.
type Snapshot struct {
	DocumentName string
	Page         int
	PageImage    *image.RGBA
	Frame        overlay.Frame
	FullArea     bool
	HasSelection bool
	Query        string
	Mode         Mode
	Output       string
	Audio        []byte
	Loading      bool
	Error        string
	ErrorSeq     uint64 // bumped on every raised error, including repeats
	History      []Entry
}

type Viewer struct {
	tracker  *selection.Tracker
	capturer *screenshot.Capturer

	width  int
	height int

	doc     *document.Document
	page    *image.RGBA
	pageNum int

	query string
	mode  Mode

	output  string
	audio   []byte
	pending map[string]Request
	errMsg  string
	errSeq  uint64
	history []Entry
}

// New creates a viewer whose container is width x height pixels.
func New(width, height int, capturer *screenshot.Capturer) *Viewer {
	if capturer == nil {
		capturer = screenshot.NewCapturer(screenshot.FormatJPEG, 90)
	}
	return &Viewer{
		tracker:  selection.NewTracker(width, height),
		capturer: capturer,
		width:    width,
		height:   height,
		pending:  make(map[string]Request),
	}
}

func (v *Viewer) Size() (int, int) { return v.width, v.height }

func (v *Viewer) Document() *document.Document { return v.doc }

func (v *Viewer) PageNumber() int { return v.pageNum }

// LoadDocument installs a rendered page. The selection and any drag are
// discarded whenever the document or page changes.
func (v *Viewer) LoadDocument(doc *document.Document, pageNum int, page *image.RGBA) {
	v.doc = doc
	v.pageNum = pageNum
	v.page = page
	v.errMsg = ""
	v.tracker.Reset()
	if page != nil {
		v.tracker.SetContent(screenshot.RegionFromRect(page.Bounds()))
	} else {
		v.tracker.SetContent(screenshot.Region{Width: v.width, Height: v.height})
	}
	name := ""
	if doc != nil {
		name = doc.Name
	}
	log.Printf("viewer: loaded %q page %d", name, pageNum)
}

// RejectUpload records an upload error without touching the loaded document.
func (v *Viewer) RejectUpload(err error) {
	if errors.Is(err, document.ErrUnsupportedFileType) {
		v.SetError(document.UnsupportedFileTypeMessage)
	} else {
		v.SetError(err.Error())
	}
	log.Printf("viewer: upload rejected: %v", err)
}

func (v *Viewer) PointerDown(p screenshot.Point) { v.tracker.Begin(p) }

func (v *Viewer) PointerMove(p screenshot.Point) { v.tracker.Update(p) }

func (v *Viewer) PointerUp() {
	if v.tracker.End() {
		if r := v.tracker.Active(); r != nil {
			log.Printf("viewer: selection %dx%d at (%d,%d)", r.Width, r.Height, r.X, r.Y)
		}
	}
}

func (v *Viewer) SelectFullArea() { v.tracker.SelectFullArea() }

func (v *Viewer) ClearSelection() { v.tracker.Clear() }

func (v *Viewer) SetQuery(text string) {
	v.query = text
	if v.mode != ModeCustom && text != v.mode.Prompt() {
		v.mode = ModeCustom
	}
}

// SelectMode applies a panel preset. It reports whether the preset submits
// immediately, which adapt and summarize do.
func (v *Viewer) SelectMode(m Mode) bool {
	v.mode = m
	if p := m.Prompt(); p != "" {
		v.query = p
		return true
	}
	return false
}

// PrepareSubmit captures the current page with the active selection, or the
// full view when there is none. On capture failure the output shows the
// capture error and nothing is left pending.
func (v *Viewer) PrepareSubmit() (*Request, error) {
	var src screenshot.Source
	if v.page != nil {
		src = screenshot.NewImageSource(v.page)
	}
	capture, err := v.capturer.Capture(src, v.tracker.Active())
	if err != nil {
		log.Printf("viewer: capture failed: %v", err)
		v.output = CaptureFailedMessage
		v.audio = nil
		return nil, err
	}
	req := Request{
		ID:      uuid.NewString(),
		Query:   v.query,
		Image:   capture.DataURI,
		Region:  capture.Region,
		Cropped: capture.Cropped,
	}
	v.pending[req.ID] = req
	v.errMsg = ""
	log.Printf("viewer: submit %s query=%q cropped=%v region=%+v", req.ID, logutil.SanitizeForLog(req.Query), req.Cropped, req.Region)
	return &req, nil
}

// ApplyAnswer shows a finished exchange. Answers are applied in the order they
// arrive, so with overlapping submissions the last one to resolve is shown.
func (v *Viewer) ApplyAnswer(ex *dispatch.Exchange) {
	req, ok := v.pending[ex.ID]
	delete(v.pending, ex.ID)
	if !ok {
		req = Request{ID: ex.ID, Query: ex.Query, Image: ex.Image}
	}
	v.output = ex.Text
	v.audio = ex.Audio
	v.history = append(v.history, Entry{
		ID:      ex.ID,
		Query:   req.Query,
		Image:   req.Image,
		Answer:  ex.Text,
		Audio:   ex.Audio,
		Page:    v.pageNum,
		Elapsed: ex.Finished.Sub(ex.Started),
	})
}

func (v *Viewer) ApplyFailure(id string, err error) {
	req, ok := v.pending[id]
	delete(v.pending, id)
	log.Printf("viewer: exchange %s failed: %v", id, err)
	v.output = DispatchFailedMessage
	v.audio = nil
	if ok {
		v.history = append(v.history, Entry{ID: id, Query: req.Query, Image: req.Image, Answer: DispatchFailedMessage, Failed: true, Page: v.pageNum})
	}
}

// SetError shows a transient message such as a failed feedback post.
func (v *Viewer) SetError(msg string) {
	v.errMsg = msg
	v.errSeq++
}

func (v *Viewer) Loading() bool { return len(v.pending) > 0 }

// LastExchange returns the most recent successful entry, if any.
func (v *Viewer) LastExchange() (Entry, bool) {
	for i := len(v.history) - 1; i >= 0; i-- {
		if !v.history[i].Failed {
			return v.history[i], true
		}
	}
	return Entry{}, false
}

func (v *Viewer) History() []Entry {
	out := make([]Entry, len(v.history))
	copy(out, v.history)
	return out
}

func (v *Viewer) Snapshot() Snapshot {
	s := Snapshot{
		Page:         v.pageNum,
		PageImage:    v.page,
		Frame:        overlay.FrameFor(v.tracker),
		FullArea:     v.tracker.IsFullArea(),
		HasSelection: v.tracker.Active() != nil,
		Query:        v.query,
		Mode:         v.mode,
		Output:       v.output,
		Audio:        v.audio,
		Loading:      v.Loading(),
		Error:        v.errMsg,
		ErrorSeq:     v.errSeq,
		History:      v.History(),
	}
	if v.doc != nil {
		s.DocumentName = v.doc.Name
	}
	return s
}
