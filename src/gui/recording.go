package gui

import (
	"errors"
	"io"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"learning-persona/src/document"
	"learning-persona/src/progress"
	"learning-persona/src/recording"
)

const (
	processingAudioText = "Processing audio..."
	audioProcessedText  = "Audio processed successfully!"
	audioFailedText     = "Error processing audio. Please try again."
)

type recordingScreen struct {
	flow   *recording.Flow
	title  *widget.Label
	state  *widget.Label
	status *widget.Label
	record *widget.Button
	pause  *widget.Button
	stop   *widget.Button
	upload *widget.Button
}

// ShowRecording opens the recording screen for s.
func (u *UI) ShowRecording(s progress.Subject) {
	r, err := u.buildRecording(s)
	if err != nil {
		dialog.ShowError(err, u.window)
		return
	}
	back := widget.NewButton("Back", u.ShowHome)
	buttons := container.NewHBox(r.record, r.pause, r.stop, r.upload)
	u.setScreen(container.NewBorder(
		container.NewHBox(back),
		nil, nil, nil,
		container.NewVBox(r.title, r.state, buttons, r.status),
	), nil)
}

func (u *UI) buildRecording(s progress.Subject) (*recordingScreen, error) {
	flow, err := recording.NewFlow(s, u.rt.Progress, u.rt.Backend)
	if err != nil {
		return nil, err
	}
	r := &recordingScreen{
		flow:   flow,
		title:  widget.NewLabelWithStyle("Let's get to know "+s.Title(), fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		state:  widget.NewLabel(""),
		status: widget.NewLabel(""),
	}
	r.record = widget.NewButton("Record", func() { r.apply(u, flow.Start) })
	r.pause = widget.NewButton("Pause", func() { r.apply(u, flow.TogglePause) })
	r.stop = widget.NewButton("Stop", func() { r.apply(u, flow.Stop) })
	r.upload = widget.NewButton("Upload Audio", func() { u.pickAudio(r) })
	r.refresh()
	return r, nil
}

func (r *recordingScreen) apply(u *UI, step func() error) {
	if err := step(); err != nil {
		log.Printf("gui: recording %s: %v", r.flow.Subject().Slug(), err)
		dialog.ShowError(err, u.window)
	}
	r.refresh()
}

// refresh mirrors the flow state onto the buttons.
func (r *recordingScreen) refresh() {
	st := r.flow.State()
	r.state.SetText("Status: " + st.String())

	setEnabled(r.record, st == recording.Idle)
	setEnabled(r.pause, st == recording.Recording || st == recording.Paused)
	setEnabled(r.stop, st == recording.Recording || st == recording.Paused)
	setEnabled(r.upload, st != recording.Stopped)

	if st == recording.Paused {
		r.pause.SetText("Resume")
	} else {
		r.pause.SetText("Pause")
	}
	if st == recording.Stopped && r.status.Text == "" {
		r.status.SetText(r.flow.Subject().Title() + " is recorded.")
	}
}

func (u *UI) pickAudio(r *recordingScreen) {
	d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, u.window)
			return
		}
		if rc == nil {
			return
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			dialog.ShowError(err, u.window)
			return
		}
		u.uploadAudio(r, rc.URI().Name(), data)
	}, u.window)
	d.Show()
}

// uploadAudio posts the file off the UI goroutine and reports back with
// fyne.Do.
func (u *UI) uploadAudio(r *recordingScreen, name string, data []byte) {
	r.status.SetText(processingAudioText)
	r.upload.Disable()
	go func() {
		_, err := r.flow.Upload(u.ctx, name, data)
		fyne.Do(func() {
			switch {
			case err == nil:
				r.status.SetText(audioProcessedText)
			case errors.Is(err, recording.ErrAlreadyRecorded):
				r.status.SetText(err.Error())
			case errors.Is(err, document.ErrUnsupportedAudio):
				r.status.SetText(document.UnsupportedAudioMessage)
			default:
				log.Printf("gui: upload for %s failed: %v", r.flow.Subject().Slug(), err)
				r.status.SetText(audioFailedText)
			}
			r.refresh()
		})
	}()
}

func setEnabled(w fyne.Disableable, on bool) {
	if on {
		w.Enable()
	} else {
		w.Disable()
	}
}
