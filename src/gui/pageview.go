package gui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"learning-persona/src/overlay"
	"learning-persona/src/screenshot"
)

var (
	dragStroke     = color.NRGBA{R: 0x1e, G: 0x88, B: 0xe5, A: 0xff}
	dragFill       = color.NRGBA{R: 0x1e, G: 0x88, B: 0xe5, A: 0x22}
	selectedStroke = color.NRGBA{R: 0x43, G: 0xa0, B: 0x47, A: 0xff}
	selectedFill   = color.NRGBA{R: 0x43, G: 0xa0, B: 0x47, A: 0x22}
	pageBackground = color.NRGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
)

// pageView draws the rendered page with the selection frame on top and turns
// mouse input into content-pixel points. The frame is drawn in the widget
// only; captures come from the page image.
type pageView struct {
	widget.BaseWidget

	pixelW, pixelH int

	page  *image.RGBA
	frame overlay.Frame

	onDown func(screenshot.Point)
	onMove func(screenshot.Point)
	onUp   func()

	dragging bool
}

func newPageView(pixelW, pixelH int, down, move func(screenshot.Point), up func()) *pageView {
	p := &pageView{pixelW: pixelW, pixelH: pixelH, onDown: down, onMove: move, onUp: up}
	p.ExtendBaseWidget(p)
	return p
}

// SetPage replaces the page and frame. Call on the fyne goroutine.
func (p *pageView) SetPage(page *image.RGBA, frame overlay.Frame) {
	p.page = page
	p.frame = frame
	p.Refresh()
}

func (p *pageView) MinSize() fyne.Size {
	return fyne.NewSize(float32(p.pixelW), float32(p.pixelH))
}

func (p *pageView) scale() float32 {
	w := p.Size().Width
	if w <= 0 || p.pixelW == 0 {
		return 1
	}
	return w / float32(p.pixelW)
}

func (p *pageView) toPoint(pos fyne.Position) screenshot.Point {
	s := p.scale()
	return screenshot.Point{X: int(pos.X / s), Y: int(pos.Y / s)}
}

func (p *pageView) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || p.onDown == nil {
		return
	}
	p.dragging = true
	p.onDown(p.toPoint(ev.Position))
}

func (p *pageView) MouseUp(*desktop.MouseEvent) { p.release() }

func (p *pageView) Dragged(ev *fyne.DragEvent) {
	if !p.dragging || p.onMove == nil {
		return
	}
	p.onMove(p.toPoint(ev.Position))
}

func (p *pageView) DragEnd() { p.release() }

// release fires onUp once per press; fyne delivers both DragEnd and MouseUp
// after a drag.
func (p *pageView) release() {
	if !p.dragging {
		return
	}
	p.dragging = false
	if p.onUp != nil {
		p.onUp()
	}
}

func (p *pageView) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(pageBackground)
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillStretch
	img.ScaleMode = canvas.ImageScaleSmooth
	rect := canvas.NewRectangle(color.Transparent)
	rect.StrokeWidth = 2
	r := &pageRenderer{view: p, bg: bg, img: img, rect: rect}
	r.Refresh()
	return r
}

type pageRenderer struct {
	view *pageView
	bg   *canvas.Rectangle
	img  *canvas.Image
	rect *canvas.Rectangle
}

func (r *pageRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	r.layoutImage()
	r.layoutFrame()
}

func (r *pageRenderer) layoutImage() {
	if r.view.page == nil {
		r.img.Hide()
		return
	}
	s := r.view.scale()
	b := r.view.page.Bounds()
	r.img.Move(fyne.NewPos(0, 0))
	r.img.Resize(fyne.NewSize(float32(b.Dx())*s, float32(b.Dy())*s))
	r.img.Show()
}

func (r *pageRenderer) layoutFrame() {
	f := r.view.frame
	if !f.Visible() {
		r.rect.Hide()
		return
	}
	s := r.view.scale()
	r.rect.Move(fyne.NewPos(float32(f.Region.X)*s, float32(f.Region.Y)*s))
	r.rect.Resize(fyne.NewSize(float32(f.Region.Width)*s, float32(f.Region.Height)*s))
	if f.Kind == overlay.Dragging {
		r.rect.StrokeColor = dragStroke
		r.rect.FillColor = dragFill
	} else {
		r.rect.StrokeColor = selectedStroke
		r.rect.FillColor = selectedFill
	}
	r.rect.Show()
}

func (r *pageRenderer) MinSize() fyne.Size { return r.view.MinSize() }

func (r *pageRenderer) Refresh() {
	if r.view.page != nil {
		r.img.Image = r.view.page
	}
	r.Layout(r.view.Size())
	r.img.Refresh()
	r.rect.Refresh()
}

func (r *pageRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.bg, r.img, r.rect}
}

func (r *pageRenderer) Destroy() {}
