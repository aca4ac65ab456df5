package screenshot

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// ScreenSource captures a display instead of a rendered document. Bounds are
// reported relative to the display's top-left corner so selections use the
// same local coordinates as the document viewer.
type ScreenSource struct {
	Display int
}

func NewScreenSource(display int) *ScreenSource {
	return &ScreenSource{Display: display}
}

func (s *ScreenSource) displayBounds() (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	if s.Display < 0 || s.Display >= n {
		return image.Rectangle{}, fmt.Errorf("display %d out of range (have %d)", s.Display, n)
	}
	return screenshot.GetDisplayBounds(s.Display), nil
}

func (s *ScreenSource) Bounds() image.Rectangle {
	b, err := s.displayBounds()
	if err != nil {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, b.Dx(), b.Dy())
}

func (s *ScreenSource) Rasterize() (*image.RGBA, error) {
	b, err := s.displayBounds()
	if err != nil {
		return nil, err
	}
	img, err := screenshot.CaptureRect(b)
	if err != nil {
		return nil, fmt.Errorf("failed to capture display %d: %w", s.Display, err)
	}
	// CaptureRect keeps virtual-screen coordinates; rebase to zero.
	if img.Bounds().Min != (image.Point{}) {
		return cropRGBA(img, img.Bounds()), nil
	}
	return img, nil
}
