// Package tray carries the application icon and the system tray menu.
package tray

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

const svgIcon = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16" width="16" height="16">
  <rect x="2.5" y="1.5" width="9" height="12" rx="1" fill="#ffffff" stroke="#333333" stroke-width="1"/>
  <line x1="4.5" y1="4.5" x2="9.5" y2="4.5" stroke="#999999" stroke-width="0.8"/>
  <line x1="4.5" y1="6.5" x2="9.5" y2="6.5" stroke="#999999" stroke-width="0.8"/>
  <rect x="4" y="8" width="5" height="3" fill="none" stroke="#0078d4" stroke-width="1" stroke-dasharray="1.5,0.8"/>
  <circle cx="12" cy="11.5" r="3" fill="#43a047"/>
  <circle cx="12" cy="10.6" r="0.9" fill="#ffffff"/>
  <path d="M10.4 13.3 a1.6 1.3 0 0 1 3.2 0" fill="#ffffff"/>
</svg>`

// Icon is the window and tray icon.
var Icon = fyne.NewStaticResource("learning-persona.svg", []byte(svgIcon))

type Config struct {
	Title    string
	OnOpen   func()
	OnViewer func()
	OnQuit   func()
}

// Install sets the app icon and, on desktop drivers, the tray menu. It
// reports whether a tray was installed.
func Install(a fyne.App, cfg Config) bool {
	a.SetIcon(Icon)
	d, ok := a.(desktop.App)
	if !ok {
		return false
	}
	d.SetSystemTrayMenu(Menu(cfg))
	d.SetSystemTrayIcon(Icon)
	return true
}

// Menu builds the tray menu. Items with a nil callback are left out.
func Menu(cfg Config) *fyne.Menu {
	title := cfg.Title
	if title == "" {
		title = "Learning Persona"
	}
	var items []*fyne.MenuItem
	if cfg.OnOpen != nil {
		items = append(items, fyne.NewMenuItem("Open", cfg.OnOpen))
	}
	if cfg.OnViewer != nil {
		items = append(items, fyne.NewMenuItem("Study Viewer", cfg.OnViewer))
	}
	if cfg.OnQuit != nil {
		items = append(items, fyne.NewMenuItemSeparator())
		quit := fyne.NewMenuItem("Quit", cfg.OnQuit)
		quit.IsQuit = true
		items = append(items, quit)
	}
	return fyne.NewMenu(title, items...)
}
