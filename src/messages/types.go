package messages

import (
	"image"

	"learning-persona/src/dispatch"
	"learning-persona/src/document"
	"learning-persona/src/screenshot"
	"learning-persona/src/viewer"
)

// Message is anything the event loop applies to the viewer.
type Message interface {
	Type() string
}

const (
	TypeOpenDocument     = "OpenDocument"
	TypeChangePage       = "ChangePage"
	TypeDocumentRendered = "DocumentRendered"
	TypePointerDown      = "PointerDown"
	TypePointerMove      = "PointerMove"
	TypePointerUp        = "PointerUp"
	TypeSelectFullArea   = "SelectFullArea"
	TypeClearSelection   = "ClearSelection"
	TypeSetQuery         = "SetQuery"
	TypeSelectMode       = "SelectMode"
	TypeSubmit           = "Submit"
	TypeAnswerReady      = "AnswerReady"
	TypeAnswerFailed     = "AnswerFailed"
	TypeSendFeedback     = "SendFeedback"
	TypeFeedbackFailed   = "FeedbackFailed"
)

// OpenDocument - sent by the UI when the user picks a file to upload
type OpenDocument struct {
	Name string
	Data []byte
}

func (m OpenDocument) Type() string { return TypeOpenDocument }

// ChangePage - sent by the page navigation buttons
type ChangePage struct {
	Delta int
}

func (m ChangePage) Type() string { return TypeChangePage }

// DocumentRendered - posted back by the render worker
type DocumentRendered struct {
	Document *document.Document
	Page     int
	Image    image.Image
	Err      error
	// Generation identifies the render request; only the latest is applied.
	Generation uint64
}

func (m DocumentRendered) Type() string { return TypeDocumentRendered }

type PointerDown struct {
	Point screenshot.Point
}

func (m PointerDown) Type() string { return TypePointerDown }

type PointerMove struct {
	Point screenshot.Point
}

func (m PointerMove) Type() string { return TypePointerMove }

type PointerUp struct{}

func (m PointerUp) Type() string { return TypePointerUp }

type SelectFullArea struct{}

func (m SelectFullArea) Type() string { return TypeSelectFullArea }

type ClearSelection struct{}

func (m ClearSelection) Type() string { return TypeClearSelection }

type SetQuery struct {
	Text string
}

func (m SetQuery) Type() string { return TypeSetQuery }

// SelectMode - preset modes submit straight away
type SelectMode struct {
	Mode viewer.Mode
}

func (m SelectMode) Type() string { return TypeSelectMode }

type Submit struct{}

func (m Submit) Type() string { return TypeSubmit }

// AnswerReady - posted back by the dispatch worker on success
type AnswerReady struct {
	Exchange *dispatch.Exchange
}

func (m AnswerReady) Type() string { return TypeAnswerReady }

// AnswerFailed - posted back by the dispatch worker on failure
type AnswerFailed struct {
	ID  string
	Err error
}

func (m AnswerFailed) Type() string { return TypeAnswerFailed }

// SendFeedback - annotates the most recent answer
type SendFeedback struct {
	Text string
}

func (m SendFeedback) Type() string { return TypeSendFeedback }

type FeedbackFailed struct {
	ID  string
	Err error
}

func (m FeedbackFailed) Type() string { return TypeFeedbackFailed }
