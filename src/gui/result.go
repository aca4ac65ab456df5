package gui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"learning-persona/src/clipboard"
	"learning-persona/src/eventloop"
	"learning-persona/src/export"
	"learning-persona/src/hotkey"
	"learning-persona/src/messages"
	"learning-persona/src/screenshot"
	"learning-persona/src/viewer"
)

// resultScreen is the study viewer: PDF page on the left, query panel on the
// right. Every user action is posted to the event loop and the widgets are
// redrawn from the snapshots it publishes.
type resultScreen struct {
	ui   *UI
	loop *eventloop.Loop

	page     *pageView
	docLabel *widget.Label
	prev     *widget.Button
	next     *widget.Button
	full     *widget.Button
	clear    *widget.Button
	export   *widget.Button

	adapt     *widget.Button
	summarize *widget.Button
	custom    *widget.Button
	query     *widget.Entry
	submit    *widget.Button
	loading   *widget.ProgressBarInfinite

	answer    *widget.RichText
	copy      *widget.Button
	audioPath *widget.Label
	play      *widget.Button
	feedback  *widget.Entry
	send      *widget.Button

	last      viewer.Snapshot
	syncing   bool
	audioFile string
	showError func(error)
}

// ShowResult opens the study viewer with a fresh event loop.
func (u *UI) ShowResult() {
	r := u.buildResult()
	ctx, cancel := context.WithCancel(u.ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.loop.Run(ctx)
	}()
	removeShortcuts := r.bindShortcuts()
	u.setScreen(r.content(), func() {
		removeShortcuts()
		cancel()
		<-done
		r.removeAudio()
	})
	u.result = r
}

// bindShortcuts registers the configured viewer hotkeys on the window and
// returns a func that removes them.
func (r *resultScreen) bindShortcuts() func() {
	cfg := r.ui.rt.Config
	c := r.ui.window.Canvas()
	bindings := []struct {
		sc  fyne.Shortcut
		msg messages.Message
	}{
		{hotkey.MustParse(cfg.SubmitHotkey, hotkey.DefaultSubmit), messages.Submit{}},
		{hotkey.MustParse(cfg.FullAreaHotkey, hotkey.DefaultFullArea), messages.SelectFullArea{}},
		{hotkey.MustParse(cfg.ClearHotkey, hotkey.DefaultClear), messages.ClearSelection{}},
	}
	for _, b := range bindings {
		msg := b.msg
		c.AddShortcut(b.sc, func(fyne.Shortcut) { r.loop.Post(msg) })
	}
	return func() {
		for _, b := range bindings {
			c.RemoveShortcut(b.sc)
		}
	}
}

func (u *UI) buildResult() *resultScreen {
	cfg := u.rt.Config
	r := &resultScreen{ui: u}
	r.showError = func(err error) { dialog.ShowError(err, u.window) }
	v := viewer.New(cfg.ViewportWidth, cfg.ViewportHeight, u.rt.Capturer)
	r.loop = eventloop.New(eventloop.Options{
		Viewer:     v,
		Dispatcher: u.rt.Dispatcher,
		Renderer:   u.rt.Renderer,
		Publish: func(s viewer.Snapshot) {
			fyne.Do(func() { r.apply(s) })
		},
	})

	r.page = newPageView(cfg.ViewportWidth, cfg.ViewportHeight,
		func(p screenshot.Point) { r.loop.Post(messages.PointerDown{Point: p}) },
		func(p screenshot.Point) { r.loop.Post(messages.PointerMove{Point: p}) },
		func() { r.loop.Post(messages.PointerUp{}) },
	)
	r.docLabel = widget.NewLabel("No document loaded")
	r.prev = widget.NewButton("Prev", func() { r.loop.Post(messages.ChangePage{Delta: -1}) })
	r.next = widget.NewButton("Next", func() { r.loop.Post(messages.ChangePage{Delta: 1}) })
	r.full = widget.NewButton("Full Area", func() { r.loop.Post(messages.SelectFullArea{}) })
	r.clear = widget.NewButton("Clear", func() { r.loop.Post(messages.ClearSelection{}) })
	r.export = widget.NewButton("Export", r.saveExport)

	r.adapt = widget.NewButton("Adapt", func() { r.loop.Post(messages.SelectMode{Mode: viewer.ModeAdapt}) })
	r.summarize = widget.NewButton("Summarise", func() { r.loop.Post(messages.SelectMode{Mode: viewer.ModeSummarize}) })
	r.custom = widget.NewButton("Custom", func() {
		r.loop.Post(messages.SelectMode{Mode: viewer.ModeCustom})
		r.ui.window.Canvas().Focus(r.query)
	})
	r.query = widget.NewMultiLineEntry()
	r.query.SetPlaceHolder("Ask about the selected area...")
	r.query.Wrapping = fyne.TextWrapWord
	r.query.OnChanged = func(text string) {
		if r.syncing {
			return
		}
		r.loop.Post(messages.SetQuery{Text: text})
	}
	r.submit = widget.NewButton("Submit", func() { r.loop.Post(messages.Submit{}) })
	r.submit.Importance = widget.HighImportance
	r.loading = widget.NewProgressBarInfinite()
	r.loading.Hide()

	r.answer = widget.NewRichTextFromMarkdown("")
	r.answer.Wrapping = fyne.TextWrapWord
	r.copy = widget.NewButton("Copy", r.copyAnswer)
	r.audioPath = widget.NewLabel("")
	r.play = widget.NewButton("Play Audio", r.playAudio)
	r.play.Hide()
	r.feedback = widget.NewEntry()
	r.feedback.SetPlaceHolder("How could this answer be better?")
	r.send = widget.NewButton("Send Feedback", func() {
		if r.feedback.Text == "" {
			return
		}
		r.loop.Post(messages.SendFeedback{Text: r.feedback.Text})
		r.feedback.SetText("")
	})
	return r
}

func (r *resultScreen) content() fyne.CanvasObject {
	upload := widget.NewButton("Upload PDF", r.pickDocument)
	home := widget.NewButton("Home", r.ui.ShowHome)
	toolbar := container.NewHBox(upload, r.prev, r.next, r.full, r.clear, r.export, home, r.docLabel)

	modes := container.NewGridWithColumns(3, r.adapt, r.summarize, r.custom)
	feedback := container.NewBorder(nil, nil, nil, r.send, r.feedback)
	panel := container.NewBorder(
		container.NewVBox(modes, r.query, r.submit, r.loading),
		container.NewVBox(container.NewHBox(r.copy, r.play), r.audioPath, feedback),
		nil, nil,
		container.NewVScroll(r.answer),
	)

	split := container.NewHSplit(container.NewScroll(r.page), panel)
	split.Offset = 0.6
	return container.NewBorder(toolbar, nil, nil, nil, split)
}

// apply redraws the widgets from a snapshot. Runs on the fyne goroutine.
func (r *resultScreen) apply(s viewer.Snapshot) {
	prev := r.last
	r.last = s

	if s.PageImage != prev.PageImage || s.Frame != prev.Frame {
		r.page.SetPage(s.PageImage, s.Frame)
	}
	if s.DocumentName != "" {
		r.docLabel.SetText(fmt.Sprintf("%s, page %d", s.DocumentName, s.Page))
	}
	setEnabled(r.prev, s.DocumentName != "" && s.Page > 1)
	setEnabled(r.next, s.DocumentName != "")
	setEnabled(r.full, s.PageImage != nil && !s.FullArea)
	setEnabled(r.clear, s.HasSelection)
	setEnabled(r.export, len(s.History) > 0)

	if s.Query != r.query.Text {
		r.syncing = true
		r.query.SetText(s.Query)
		r.syncing = false
	}
	for _, b := range []*widget.Button{r.adapt, r.summarize, r.submit} {
		setEnabled(b, !s.Loading)
	}
	if s.Loading {
		r.loading.Show()
		r.loading.Start()
	} else {
		r.loading.Stop()
		r.loading.Hide()
	}

	if s.Output != prev.Output {
		r.answer.ParseMarkdown(s.Output)
	}
	setEnabled(r.copy, s.Output != "")
	setEnabled(r.send, len(s.History) > 0)
	if !sameAudio(s.Audio, prev.Audio) {
		r.showAudio(s.Audio)
	}

	if s.Error != "" && s.ErrorSeq != prev.ErrorSeq {
		r.showError(errors.New(s.Error))
	}
}

func sameAudio(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

func (r *resultScreen) pickDocument() {
	d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, r.ui.window)
			return
		}
		if rc == nil {
			return
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			dialog.ShowError(err, r.ui.window)
			return
		}
		r.loop.Post(messages.OpenDocument{Name: rc.URI().Name(), Data: data})
	}, r.ui.window)
	d.Show()
}

func (r *resultScreen) copyAnswer() {
	if err := clipboard.Write(r.last.Output); err != nil {
		dialog.ShowError(err, r.ui.window)
		return
	}
	r.ui.app.SendNotification(fyne.NewNotification("Learning Persona", "Answer copied"))
}

func (r *resultScreen) saveExport() {
	entries := r.last.History
	title := r.last.DocumentName
	if title == "" {
		title = "Study session"
	}
	d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, r.ui.window)
			return
		}
		if wc == nil {
			return
		}
		defer wc.Close()
		if err := export.WritePDF(wc, title, entries); err != nil {
			log.Printf("gui: export failed: %v", err)
			dialog.ShowError(err, r.ui.window)
			return
		}
		log.Printf("gui: exported %d exchanges to %s", len(entries), wc.URI())
	}, r.ui.window)
	d.SetFileName("study-session.pdf")
	d.Show()
}

// showAudio writes answer audio to a temp file so it can be handed to the
// system player.
func (r *resultScreen) showAudio(audio []byte) {
	r.removeAudio()
	if len(audio) == 0 {
		r.audioPath.SetText("")
		r.play.Hide()
		return
	}
	f, err := os.CreateTemp("", "persona-answer-*.mp3")
	if err != nil {
		log.Printf("gui: saving answer audio: %v", err)
		return
	}
	_, werr := f.Write(audio)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		log.Printf("gui: saving answer audio: %v %v", werr, cerr)
		_ = os.Remove(f.Name())
		return
	}
	r.audioFile = f.Name()
	r.audioPath.SetText("Audio: " + r.audioFile)
	r.play.Show()
}

func (r *resultScreen) playAudio() {
	if r.audioFile == "" {
		return
	}
	u := &url.URL{Scheme: "file", Path: filepath.ToSlash(r.audioFile)}
	if err := r.ui.app.OpenURL(u); err != nil {
		dialog.ShowError(err, r.ui.window)
	}
}

func (r *resultScreen) removeAudio() {
	if r.audioFile == "" {
		return
	}
	if err := os.Remove(r.audioFile); err != nil && !os.IsNotExist(err) {
		log.Printf("gui: removing %s: %v", r.audioFile, err)
	}
	r.audioFile = ""
}
