package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/image/draw"
)

// ErrPageOutOfRange is returned when the requested page does not exist.
var ErrPageOutOfRange = errors.New("page out of range")

// Renderer rasterizes one page of a document. Pages are 1-based.
type Renderer interface {
	Render(ctx context.Context, doc *Document, page int) (image.Image, error)
}

// PopplerRenderer shells out to pdftoppm.
type PopplerRenderer struct {
	Path string
	DPI  int
}

func NewPopplerRenderer(path string, dpi int) *PopplerRenderer {
	if path == "" {
		path = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = 110
	}
	return &PopplerRenderer{Path: path, DPI: dpi}
}

// Available reports whether the pdftoppm binary can be found.
func (r *PopplerRenderer) Available() bool {
	_, err := exec.LookPath(r.Path)
	return err == nil
}

func (r *PopplerRenderer) Render(ctx context.Context, doc *Document, page int) (image.Image, error) {
	if doc == nil {
		return nil, errors.New("no document loaded")
	}
	if page < 1 {
		return nil, fmt.Errorf("%w: %d", ErrPageOutOfRange, page)
	}

	dir, err := os.MkdirTemp("", "learning-persona-render-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(input, doc.Data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to stage document: %w", err)
	}
	root := filepath.Join(dir, "page")
	p := strconv.Itoa(page)
	args := []string{"-png", "-r", strconv.Itoa(r.DPI), "-f", p, "-l", p, "-singlefile", input, root}

	start := time.Now()
	cmd := exec.CommandContext(ctx, r.Path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		log.Printf("document: pdftoppm page %d failed after %v: %v (%s)", page, time.Since(start), err, stderr.String())
		if bytes.Contains(stderr.Bytes(), []byte("Wrong page range")) {
			return nil, fmt.Errorf("%w: %d", ErrPageOutOfRange, page)
		}
		return nil, fmt.Errorf("pdftoppm failed: %w", err)
	}
	log.Printf("document: rendered %s page %d at %d dpi in %v", doc.Name, page, r.DPI, time.Since(start))

	f, err := os.Open(root + ".png")
	if err != nil {
		// pdftoppm exits 0 without output for pages past the end on some builds.
		return nil, fmt.Errorf("%w: %d", ErrPageOutOfRange, page)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode rendered page: %w", err)
	}
	return img, nil
}

// FitWidth scales img so its width equals width, keeping the aspect ratio.
// This is the page-width zoom the viewer uses.
func FitWidth(img image.Image, width int) *image.RGBA {
	b := img.Bounds()
	if width <= 0 || b.Dx() == 0 {
		return toRGBA(img)
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Viewport crops a page-width rendering to the visible height, which is what
// a non-scrolled viewer shows.
func Viewport(img *image.RGBA, height int) *image.RGBA {
	b := img.Bounds()
	if height <= 0 || b.Dy() <= height {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), height))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
