// Package gui is the desktop front end: home, recording, loading and result
// screens in a single fyne window.
package gui

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"

	"learning-persona/src/messages"
	"learning-persona/src/notification"
	"learning-persona/src/runtimeinit"
	"learning-persona/src/singleinstance"
	"learning-persona/src/tray"
)

const appID = "io.learningpersona.client"

// UI holds the window and switches between screens. All fields are touched
// on the fyne goroutine only.
type UI struct {
	app    fyne.App
	window fyne.Window
	rt     *runtimeinit.Runtime

	ctx    context.Context
	cancel context.CancelFunc

	// closeScreen releases whatever the current screen started (event loop,
	// loading ticker).
	closeScreen func()
	result      *resultScreen
}

// RunOptions carries launch requests into the window.
type RunOptions struct {
	// OpenPath is a PDF to open in the study viewer at startup.
	OpenPath string
	// Requests delivers launches delegated by later instances.
	Requests <-chan singleinstance.Request
}

// New builds the UI on a. Pass app.NewWithID for the real window or
// fyne.io/fyne/v2/test.NewApp in tests.
func New(a fyne.App, rt *runtimeinit.Runtime) *UI {
	ctx, cancel := context.WithCancel(context.Background())
	w := a.NewWindow("Learning Persona")
	w.Resize(fyne.NewSize(1200, 800))
	u := &UI{app: a, window: w, rt: rt, ctx: ctx, cancel: cancel}
	w.SetOnClosed(u.shutdown)
	notification.SetDefault(fyneNotifier{app: a, window: w})
	return u
}

// Run opens the window on the home screen and blocks until it is closed.
func Run(rt *runtimeinit.Runtime, opts RunOptions) {
	a := app.NewWithID(appID)
	u := New(a, rt)
	tray.Install(a, tray.Config{
		OnOpen: func() {
			u.window.Show()
			u.window.RequestFocus()
		},
		OnViewer: func() {
			u.window.Show()
			u.ShowResult()
		},
		OnQuit: a.Quit,
	})
	u.ShowHome()
	if opts.OpenPath != "" {
		u.OpenFile(opts.OpenPath)
	}
	if opts.Requests != nil {
		go func() {
			for req := range opts.Requests {
				req := req
				fyne.Do(func() { u.HandleRequest(req) })
			}
		}()
	}
	if !rt.BackendUp {
		dialog.ShowInformation("Backend unavailable",
			"Could not reach "+rt.Config.APIURL+". Recording uploads and queries will fail until it is running.", u.window)
	}
	u.window.ShowAndRun()
}

func (u *UI) Window() fyne.Window { return u.window }

// HandleRequest applies a launch delegated by another instance.
func (u *UI) HandleRequest(req singleinstance.Request) {
	u.window.Show()
	u.window.RequestFocus()
	if req.Action == singleinstance.ActionOpen {
		u.OpenFile(req.Path)
	}
}

// OpenFile loads path into the study viewer, opening the viewer if needed.
// Non-PDF files are rejected by the viewer like any upload.
func (u *UI) OpenFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		dialog.ShowError(err, u.window)
		return
	}
	if u.result == nil {
		u.ShowResult()
	}
	u.result.loop.Post(messages.OpenDocument{Name: filepath.Base(path), Data: data})
}

func (u *UI) setScreen(content fyne.CanvasObject, closer func()) {
	if u.closeScreen != nil {
		u.closeScreen()
	}
	u.result = nil
	u.closeScreen = closer
	u.window.SetContent(content)
}

func (u *UI) shutdown() {
	if u.closeScreen != nil {
		u.closeScreen()
		u.closeScreen = nil
	}
	u.cancel()
	u.rt.Dispatcher.Wait()
	log.Printf("GUI closed")
}

type fyneNotifier struct {
	app    fyne.App
	window fyne.Window
}

func (n fyneNotifier) Info(text string) {
	n.app.SendNotification(fyne.NewNotification("Learning Persona", text))
}

func (n fyneNotifier) Error(title, message string) {
	log.Printf("%s: %s", title, message)
	fyne.Do(func() {
		dialog.ShowInformation(title, message, n.window)
	})
}
