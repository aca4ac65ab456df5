package screenshot

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func TestCaptureWithoutSource(t *testing.T) {
	c := NewCapturer(FormatPNG, 0)
	_, err := c.Capture(nil, nil)
	if !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestCaptureEmptyImageSource(t *testing.T) {
	c := NewCapturer(FormatPNG, 0)
	_, err := c.Capture(NewImageSource(nil), nil)
	if !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound for empty source, got %v", err)
	}
}

func TestCaptureFullEqualsNilSelection(t *testing.T) {
	for _, format := range []string{FormatPNG, FormatJPEG} {
		t.Run(format, func(t *testing.T) {
			src := NewImageSource(gradient(40, 30))
			c := NewCapturer(format, 80)

			none, err := c.Capture(src, nil)
			if err != nil {
				t.Fatalf("capture(nil): %v", err)
			}
			full := RegionFromRect(src.Bounds())
			all, err := c.Capture(src, &full)
			if err != nil {
				t.Fatalf("capture(full): %v", err)
			}
			if none.DataURI != all.DataURI {
				t.Fatal("expected byte-identical output for nil and full-bounds selection")
			}
			if none.Cropped || all.Cropped {
				t.Fatal("expected no crop for full capture")
			}
		})
	}
}

func TestCaptureCropsToSelection(t *testing.T) {
	src := NewImageSource(gradient(100, 80))
	c := NewCapturer(FormatPNG, 0)

	sel := Region{X: 10, Y: 20, Width: 30, Height: 15}
	got, err := c.Capture(src, &sel)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if !got.Cropped {
		t.Fatal("expected cropped capture")
	}
	if got.Image.Bounds() != image.Rect(0, 0, 30, 15) {
		t.Fatalf("unexpected crop bounds %v", got.Image.Bounds())
	}
	if px := got.Image.RGBAAt(0, 0); px.R != 10 || px.G != 20 {
		t.Fatalf("expected crop origin pixel from (10,20), got %#v", px)
	}

	mime, data, err := ParseDataURI(got.DataURI)
	if err != nil {
		t.Fatalf("ParseDataURI: %v", err)
	}
	if mime != "image/png" {
		t.Fatalf("expected image/png, got %s", mime)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if decoded.Bounds().Dx() != 30 || decoded.Bounds().Dy() != 15 {
		t.Fatalf("unexpected decoded size %v", decoded.Bounds())
	}
}

func TestCaptureClipsSelectionToContent(t *testing.T) {
	src := NewImageSource(gradient(50, 50))
	c := NewCapturer(FormatPNG, 0)

	sel := Region{X: 40, Y: 40, Width: 30, Height: 30}
	got, err := c.Capture(src, &sel)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if got.Region != (Region{X: 40, Y: 40, Width: 10, Height: 10}) {
		t.Fatalf("expected clipped region, got %+v", got.Region)
	}
}

func TestCaptureDisjointSelectionFallsBackToFull(t *testing.T) {
	src := NewImageSource(gradient(20, 20))
	c := NewCapturer(FormatPNG, 0)

	sel := Region{X: 100, Y: 100, Width: 10, Height: 10}
	got, err := c.Capture(src, &sel)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if got.Cropped || got.Image.Bounds().Dx() != 20 {
		t.Fatalf("expected full capture, got %+v", got.Region)
	}
}

func TestCaptureDoesNotMutateSource(t *testing.T) {
	page := gradient(10, 10)
	src := NewImageSource(page)
	c := NewCapturer(FormatPNG, 0)

	got, err := c.Capture(src, nil)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	got.Image.SetRGBA(0, 0, color.RGBA{A: 255})
	if px := page.RGBAAt(0, 0); px.B != 128 {
		t.Fatalf("source pixel changed: %#v", px)
	}
}

func TestParseDataURIErrors(t *testing.T) {
	for _, in := range []string{"image/png;base64,AAAA", "data:image/png;base64", "data:image/png,AAAA", "data:image/png;base64,***"} {
		if _, _, err := ParseDataURI(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestScreenSource(t *testing.T) {
	// Requires a display; headless environments only log.
	src := NewScreenSource(0)
	if _, err := src.Rasterize(); err != nil {
		t.Logf("Failed to capture display (expected in headless environment): %v", err)
	}
}
