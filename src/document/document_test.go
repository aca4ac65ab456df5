package document

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
)

func samplePDF(t *testing.T, pages int) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 16)
	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.Cell(40, 10, "Photosynthesis converts light into chemical energy.")
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	return buf.Bytes()
}

func wavHeader() []byte {
	b := []byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00\x01\x00\x01\x00\x40\x1f\x00\x00\x80\x3e\x00\x00\x02\x00\x10\x00data\x00\x00\x00\x00")
	return b
}

func TestFromBytes(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{name: "lesson.pdf", data: samplePDF(t, 1)},
		{name: "notes.txt", data: []byte("just some notes"), wantErr: true},
		{name: "renamed.pdf", data: []byte("\x89PNG\r\n\x1a\n0000"), wantErr: true},
		{name: "voice.wav", data: wavHeader(), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := FromBytes(tt.name, tt.data)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFileType) {
					t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
				}
				if doc != nil {
					t.Fatal("expected no document on rejection")
				}
				return
			}
			if err != nil {
				t.Fatalf("FromBytes failed: %v", err)
			}
			if doc.MIME != "application/pdf" || doc.Name != tt.name {
				t.Fatalf("unexpected document %+v", doc)
			}
		})
	}
}

func TestUnsupportedMessage(t *testing.T) {
	if ErrUnsupportedFileType.Error() != "Only PDF files are supported" {
		t.Fatalf("unexpected message %q", ErrUnsupportedFileType.Error())
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chapter.pdf")
	if err := os.WriteFile(path, samplePDF(t, 2), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if doc.Name != "chapter.pdf" {
		t.Fatalf("unexpected name %q", doc.Name)
	}
	if _, err := Open(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// ebmlHeader builds the start of a Matroska-family file with the given
// DocType, enough for content sniffing.
func ebmlHeader(docType string) []byte {
	b := []byte("\x1a\x45\xdf\xa3\x9f\x42\x86\x81\x01\x42\x82")
	b = append(b, byte(0x80|len(docType)))
	b = append(b, docType...)
	return append(b, make([]byte, 32)...)
}

func TestAudioFromBytes(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantMIME string
		wantErr  bool
	}{
		{name: "wav", data: wavHeader(), wantMIME: "audio/wav"},
		{name: "mp3", data: append([]byte("ID3\x03\x00\x00\x00\x00\x00\x00"), make([]byte, 32)...), wantMIME: "audio/mpeg"},
		{name: "voice.webm", data: ebmlHeader("webm"), wantMIME: "audio/webm"},
		{name: "voice.mka", data: ebmlHeader("matroska"), wantMIME: "audio/x-matroska"},
		{name: "voice.ogg", data: append([]byte("OggS\x00\x02"), make([]byte, 40)...), wantMIME: "audio/ogg"},
		{name: "pdf", data: samplePDF(t, 1), wantErr: true},
		{name: "text", data: []byte("hello"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := AudioFromBytes(tt.name, tt.data)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedAudio) {
					t.Fatalf("expected ErrUnsupportedAudio, got %v", err)
				}
				if errors.Is(err, ErrUnsupportedFileType) {
					t.Fatalf("audio rejection must not mention PDFs: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("AudioFromBytes failed: %v", err)
			}
			if a.MIME != tt.wantMIME {
				t.Fatalf("expected %s, got %q", tt.wantMIME, a.MIME)
			}
		})
	}
}

func TestFitWidth(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 600))
	for y := 0; y < 600; y++ {
		for x := 0; x < 400; x++ {
			src.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	got := FitWidth(src, 800)
	if got.Bounds().Dx() != 800 || got.Bounds().Dy() != 1200 {
		t.Fatalf("unexpected size %v", got.Bounds())
	}
	if c := got.RGBAAt(400, 600); c.R < 190 {
		t.Fatalf("expected scaled content, got %v", c)
	}

	vp := Viewport(got, 600)
	if vp.Bounds().Dx() != 800 || vp.Bounds().Dy() != 600 {
		t.Fatalf("unexpected viewport %v", vp.Bounds())
	}
	if same := Viewport(vp, 900); same != vp {
		t.Fatal("expected short image returned unchanged")
	}
}

func TestPopplerRenderer(t *testing.T) {
	r := NewPopplerRenderer("", 72)
	if !r.Available() {
		t.Skip("pdftoppm not installed")
	}
	doc, err := FromBytes("two.pdf", samplePDF(t, 2))
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	img, err := r.Render(ctx, doc, 2)
	if err != nil {
		t.Fatalf("Render page 2: %v", err)
	}
	// A4 at 72 dpi is 595x842 points.
	if b := img.Bounds(); b.Dx() < 590 || b.Dx() > 600 {
		t.Fatalf("unexpected page width %d", b.Dx())
	}
	if _, err := r.Render(ctx, doc, 3); !errors.Is(err, ErrPageOutOfRange) {
		t.Fatalf("expected ErrPageOutOfRange past the end, got %v", err)
	}
	if _, err := r.Render(ctx, doc, 0); !errors.Is(err, ErrPageOutOfRange) {
		t.Fatalf("expected ErrPageOutOfRange for page 0, got %v", err)
	}
}
