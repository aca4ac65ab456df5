package eventloop

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"learning-persona/src/dispatch"
	"learning-persona/src/document"
	"learning-persona/src/messages"
	"learning-persona/src/viewer"
	"learning-persona/src/worker"
)

// ErrBusy is reported when the worker queue is full.
var ErrBusy = errors.New("busy, please retry")

// Options wires the loop's collaborators. Publish receives a snapshot after
// every applied message, on the loop goroutine.
type Options struct {
	Viewer        *viewer.Viewer
	Dispatcher    *dispatch.Dispatcher
	Renderer      document.Renderer
	Publish       func(viewer.Snapshot)
	Workers       int
	RenderTimeout time.Duration
}

// Loop is the single goroutine that owns the viewer. UI events and worker
// results are applied strictly in arrival order.
type Loop struct {
	viewer        *viewer.Viewer
	dispatcher    *dispatch.Dispatcher
	renderer      document.Renderer
	publish       func(viewer.Snapshot)
	pool          *worker.Pool
	events        chan messages.Message
	done          chan struct{}
	renderTimeout time.Duration

	// Latest render request. Results from older generations are dropped,
	// and paging while a render is pending starts from the pending page.
	renderGen  uint64
	pendingDoc *document.Document
	pendingPg  int
}

func New(opts Options) *Loop {
	workers := opts.Workers
	if workers <= 0 {
		workers = 2
	}
	renderTimeout := opts.RenderTimeout
	if renderTimeout <= 0 {
		renderTimeout = 30 * time.Second
	}
	publish := opts.Publish
	if publish == nil {
		publish = func(viewer.Snapshot) {}
	}
	l := &Loop{
		viewer:        opts.Viewer,
		dispatcher:    opts.Dispatcher,
		renderer:      opts.Renderer,
		publish:       publish,
		pool:          worker.New(workers, 8),
		events:        make(chan messages.Message, 64),
		done:          make(chan struct{}),
		renderTimeout: renderTimeout,
	}
	return l
}

// Post queues a message for the loop. It is safe from any goroutine and
// returns without effect once the loop has stopped.
func (l *Loop) Post(msg messages.Message) {
	select {
	case l.events <- msg:
	case <-l.done:
	}
}

// Run applies messages until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.pool.Close()
	defer close(l.done)

	l.publish(l.viewer.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-l.events:
			l.handle(ctx, msg)
			l.publish(l.viewer.Snapshot())
		}
	}
}

func (l *Loop) handle(ctx context.Context, msg messages.Message) {
	switch m := msg.(type) {
	case messages.OpenDocument:
		l.handleOpen(ctx, m)
	case messages.ChangePage:
		doc, page := l.viewer.Document(), l.viewer.PageNumber()
		if l.pendingDoc != nil {
			doc, page = l.pendingDoc, l.pendingPg
		}
		if doc != nil {
			l.render(ctx, doc, page+m.Delta)
		}
	case messages.DocumentRendered:
		l.handleRendered(m)
	case messages.PointerDown:
		l.viewer.PointerDown(m.Point)
	case messages.PointerMove:
		l.viewer.PointerMove(m.Point)
	case messages.PointerUp:
		l.viewer.PointerUp()
	case messages.SelectFullArea:
		l.viewer.SelectFullArea()
	case messages.ClearSelection:
		l.viewer.ClearSelection()
	case messages.SetQuery:
		l.viewer.SetQuery(m.Text)
	case messages.SelectMode:
		if l.viewer.SelectMode(m.Mode) {
			l.submit(ctx)
		}
	case messages.Submit:
		l.submit(ctx)
	case messages.AnswerReady:
		l.viewer.ApplyAnswer(m.Exchange)
	case messages.AnswerFailed:
		l.viewer.ApplyFailure(m.ID, m.Err)
	case messages.SendFeedback:
		l.handleFeedback(m)
	case messages.FeedbackFailed:
		log.Printf("eventloop: feedback %s failed: %v", m.ID, m.Err)
		l.viewer.SetError("Failed to send feedback")
	default:
		log.Printf("eventloop: ignoring unknown message %s", msg.Type())
	}
}

func (l *Loop) handleOpen(ctx context.Context, m messages.OpenDocument) {
	doc, err := document.FromBytes(m.Name, m.Data)
	if err != nil {
		l.viewer.RejectUpload(err)
		return
	}
	l.render(ctx, doc, 1)
}

func (l *Loop) render(ctx context.Context, doc *document.Document, page int) {
	if page < 1 {
		return
	}
	if l.renderer == nil {
		l.viewer.SetError("No PDF renderer available")
		return
	}
	gen := l.renderGen + 1
	name := fmt.Sprintf("render %s page %d", doc.Name, page)
	ok := l.pool.Submit(ctx, name, func(ctx context.Context) {
		rctx, cancel := context.WithTimeout(ctx, l.renderTimeout)
		defer cancel()
		img, err := l.renderer.Render(rctx, doc, page)
		l.Post(messages.DocumentRendered{Document: doc, Page: page, Image: img, Err: err, Generation: gen})
	})
	if !ok {
		l.viewer.SetError(ErrBusy.Error())
		return
	}
	l.renderGen = gen
	l.pendingDoc, l.pendingPg = doc, page
}

func (l *Loop) handleRendered(m messages.DocumentRendered) {
	if m.Generation != l.renderGen {
		log.Printf("eventloop: dropping stale render of %s page %d", m.Document.Name, m.Page)
		return
	}
	l.pendingDoc, l.pendingPg = nil, 0
	if m.Err != nil {
		if errors.Is(m.Err, document.ErrPageOutOfRange) {
			log.Printf("eventloop: %v", m.Err)
			return
		}
		log.Printf("eventloop: render failed: %v", m.Err)
		l.viewer.SetError("Failed to render document")
		return
	}
	w, h := l.viewer.Size()
	l.viewer.LoadDocument(m.Document, m.Page, fitPage(m.Image, w, h))
}

func fitPage(img image.Image, w, h int) *image.RGBA {
	return document.Viewport(document.FitWidth(img, w), h)
}

func (l *Loop) submit(ctx context.Context) {
	req, err := l.viewer.PrepareSubmit()
	if err != nil {
		return
	}
	if l.dispatcher == nil {
		l.viewer.ApplyFailure(req.ID, errors.New("no dispatcher configured"))
		return
	}
	ok := l.pool.Submit(ctx, "dispatch "+req.ID, func(ctx context.Context) {
		ex, err := l.dispatcher.SubmitWithID(ctx, req.ID, req.Query, req.Image)
		if err != nil {
			l.Post(messages.AnswerFailed{ID: req.ID, Err: err})
			return
		}
		l.Post(messages.AnswerReady{Exchange: ex})
	})
	if !ok {
		l.viewer.ApplyFailure(req.ID, ErrBusy)
	}
}

func (l *Loop) handleFeedback(m messages.SendFeedback) {
	last, ok := l.viewer.LastExchange()
	if !ok {
		l.viewer.SetError("Ask a question before sending feedback")
		return
	}
	if l.dispatcher == nil {
		return
	}
	l.dispatcher.SubmitFeedback(dispatch.Feedback{
		OriginalQuery: last.Query,
		Material:      last.Image,
		Output:        last.Answer,
		Text:          m.Text,
	}, func(id string, err error) {
		l.Post(messages.FeedbackFailed{ID: id, Err: err})
	})
}
