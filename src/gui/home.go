package gui

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"learning-persona/src/progress"
)

// homeScreen is the subject picker. Its widgets are kept on the struct so
// tests can inspect enabled and visible state.
type homeScreen struct {
	subjects map[progress.Subject]*widget.Button
	reset    *widget.Button
	create   *widget.Button
	viewer   *widget.Button
	status   *widget.Label
}

// ShowHome switches to the subject picker.
func (u *UI) ShowHome() {
	h := u.buildHome()
	u.setScreen(h.content(), nil)
}

func (u *UI) buildHome() *homeScreen {
	h := &homeScreen{subjects: make(map[progress.Subject]*widget.Button)}

	recorded := map[progress.Subject]bool{}
	list, err := u.rt.Progress.Recorded()
	if err != nil {
		log.Printf("gui: reading recorded subjects: %v", err)
	}
	for _, s := range list {
		recorded[s] = true
	}
	complete := len(recorded) == len(progress.Subjects)

	for _, s := range progress.Subjects {
		s := s
		label := "Record " + s.Title()
		if recorded[s] {
			label = s.Title() + " (recorded)"
		}
		b := widget.NewButton(label, func() { u.ShowRecording(s) })
		if recorded[s] {
			b.Disable()
		}
		h.subjects[s] = b
	}

	resetLabel := "Reset"
	if complete {
		resetLabel = "Start Over"
	}
	h.reset = widget.NewButton(resetLabel, func() {
		dialog.ShowConfirm("Reset progress", "Forget every recorded subject?", func(ok bool) {
			if !ok {
				return
			}
			if err := u.rt.Progress.Reset(); err != nil {
				dialog.ShowError(err, u.window)
				return
			}
			u.ShowHome()
		}, u.window)
	})
	if len(recorded) == 0 {
		h.reset.Hide()
	}

	h.create = widget.NewButton("Create Persona", u.ShowLoading)
	h.create.Importance = widget.HighImportance
	if !complete {
		h.create.Disable()
	}

	h.viewer = widget.NewButton("Open Study Viewer", u.ShowResult)

	h.status = widget.NewLabel("")
	switch {
	case complete:
		h.status.SetText("All subjects recorded. Create the persona or open the study viewer.")
	default:
		h.status.SetText("Record a short description for each subject to build the learning persona.")
	}
	return h
}

func (h *homeScreen) content() fyne.CanvasObject {
	title := widget.NewLabelWithStyle("Learning Persona", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	cards := container.NewGridWithColumns(len(progress.Subjects))
	for _, s := range progress.Subjects {
		cards.Add(widget.NewCard(s.Title(), "Role: "+s.Role(), h.subjects[s]))
	}
	actions := container.NewHBox(h.reset, h.create, h.viewer)
	return container.NewVBox(title, h.status, cards, container.NewCenter(actions))
}
