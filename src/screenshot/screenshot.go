package screenshot

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"strings"
)

var (
	// ErrSourceNotFound means there is no rendered content to capture.
	ErrSourceNotFound = errors.New("no renderable content to capture")
	errEmptySource    = errors.New("content has no visible area")
)

const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"

	defaultJPEGQuality = 90
)

// Region is a rectangle in pixels relative to the viewer container's top-left corner.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

type Point struct {
	X int
	Y int
}

// Rect converts the region to image coordinates.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func (r Region) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// RegionFromRect is the inverse of Region.Rect.
func RegionFromRect(b image.Rectangle) Region {
	return Region{X: b.Min.X, Y: b.Min.Y, Width: b.Dx(), Height: b.Dy()}
}

// Source is an explicit handle to rendered content. Rasterize must return only
// real content: overlays such as the selection rectangle are never part of it.
type Source interface {
	Bounds() image.Rectangle
	Rasterize() (*image.RGBA, error)
}

// Capture is one encoded screenshot, held only for a single query round-trip.
type Capture struct {
	DataURI string
	Image   *image.RGBA
	Region  Region
	Cropped bool
}

// Capturer rasterizes a Source and encodes the result as a data URI.
type Capturer struct {
	Format      string
	JPEGQuality int
}

func NewCapturer(format string, jpegQuality int) *Capturer {
	return &Capturer{Format: format, JPEGQuality: jpegQuality}
}

// Capture rasterizes src and crops it to sel. A nil selection, a selection equal
// to the full content bounds, or one that misses the content entirely all yield
// the full raster.
func (c *Capturer) Capture(src Source, sel *Region) (Capture, error) {
	if src == nil {
		return Capture{}, ErrSourceNotFound
	}

	full, err := src.Rasterize()
	if err != nil {
		return Capture{}, fmt.Errorf("failed to rasterize content: %w", err)
	}
	if full == nil || full.Bounds().Empty() {
		return Capture{}, errEmptySource
	}

	out := full
	cropped := false
	bounds := full.Bounds()
	if sel != nil {
		want := sel.Rect().Intersect(bounds)
		if !want.Empty() && want != bounds {
			out = cropRGBA(full, want)
			cropped = true
		}
	}

	uri, err := c.Encode(out)
	if err != nil {
		return Capture{}, err
	}

	region := RegionFromRect(bounds)
	if cropped {
		region = RegionFromRect(sel.Rect().Intersect(bounds))
	}
	return Capture{DataURI: uri, Image: out, Region: region, Cropped: cropped}, nil
}

// cropRGBA copies the pixels of r into a new zero-origin image.
func cropRGBA(frame *image.RGBA, r image.Rectangle) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), frame, r.Min, draw.Src)
	return out
}

// Encode writes img as a data URI in the capturer's format.
func (c *Capturer) Encode(img image.Image) (string, error) {
	var buf bytes.Buffer
	mime := "image/jpeg"
	switch c.Format {
	case FormatPNG:
		mime = "image/png"
		if err := png.Encode(&buf, img); err != nil {
			return "", fmt.Errorf("failed to encode image as PNG: %w", err)
		}
	default:
		q := c.JPEGQuality
		if q <= 0 {
			q = defaultJPEGQuality
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return "", fmt.Errorf("failed to encode image as JPEG: %w", err)
		}
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ParseDataURI splits a base64 data URI into its media type and payload.
func ParseDataURI(uri string) (string, []byte, error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", nil, fmt.Errorf("not a data URI")
	}
	header, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return "", nil, fmt.Errorf("data URI missing payload")
	}
	mime, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("data URI is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return mime, data, nil
}

// ImageSource serves an already-rendered raster, e.g. a rasterized PDF page.
type ImageSource struct {
	img image.Image
}

func NewImageSource(img image.Image) *ImageSource {
	return &ImageSource{img: img}
}

func (s *ImageSource) Bounds() image.Rectangle {
	if s == nil || s.img == nil {
		return image.Rectangle{}
	}
	b := s.img.Bounds()
	return image.Rect(0, 0, b.Dx(), b.Dy())
}

// Rasterize copies the content into a zero-origin RGBA so callers can never
// mutate the rendered page.
func (s *ImageSource) Rasterize() (*image.RGBA, error) {
	if s == nil || s.img == nil {
		return nil, ErrSourceNotFound
	}
	b := s.img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), s.img, b.Min, draw.Src)
	return out, nil
}
