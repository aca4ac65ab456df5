package gui

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"learning-persona/src/persona"
)

// ShowLoading runs persona creation behind the rotating loading messages.
// Success opens the result screen; failure returns home with the error.
func (u *UI) ShowLoading() {
	text := widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Italic: true})
	bar := widget.NewProgressBarInfinite()

	ctx, cancel := context.WithCancel(u.ctx)
	u.setScreen(container.NewCenter(container.NewVBox(text, bar)), func() {
		cancel()
		bar.Stop()
	})

	go persona.CycleTexts(ctx, persona.LoadingInterval, func(s string) {
		fyne.Do(func() { text.SetText(s) })
	})
	go func() {
		err := persona.Create(ctx, u.rt.Progress, u.rt.Backend)
		if ctx.Err() != nil {
			return
		}
		fyne.Do(func() {
			if err != nil {
				u.ShowHome()
				dialog.ShowError(err, u.window)
				return
			}
			u.ShowResult()
		})
	}()
}
