package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// UnsupportedFileTypeMessage is shown to the user when an upload is rejected.
const UnsupportedFileTypeMessage = "Only PDF files are supported"

// ErrUnsupportedFileType rejects uploads whose content does not sniff as the
// expected type.
var ErrUnsupportedFileType = errors.New(UnsupportedFileTypeMessage)

// UnsupportedAudioMessage is shown when a recording upload is not audio.
const UnsupportedAudioMessage = "Only audio files are supported"

// ErrUnsupportedAudio rejects recording uploads that do not sniff as audio.
var ErrUnsupportedAudio = errors.New(UnsupportedAudioMessage)

const pdfMIME = "application/pdf"

// audioContainers are container types that browser and phone recorders use
// for audio-only streams. Content sniffing cannot tell them from video.
var audioContainers = map[string]string{
	"video/webm":       "audio/webm",
	"video/x-matroska": "audio/x-matroska",
	"application/ogg":  "audio/ogg",
	"video/ogg":        "audio/ogg",
}

// Document is an uploaded PDF held in memory.
type Document struct {
	Name string
	Data []byte
	MIME string
}

// Open reads a single file from disk and validates it as a PDF.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return FromBytes(filepath.Base(path), data)
}

// FromBytes validates data as a PDF by content, not by file name.
func FromBytes(name string, data []byte) (*Document, error) {
	mt := mimetype.Detect(data)
	if !mt.Is(pdfMIME) {
		return nil, fmt.Errorf("%w: %s is %s", ErrUnsupportedFileType, name, mt.String())
	}
	return &Document{Name: name, Data: data, MIME: pdfMIME}, nil
}

// Audio is an uploaded recording.
type Audio struct {
	Name string
	Data []byte
	MIME string
}

// OpenAudio reads and validates an audio upload.
func OpenAudio(path string) (*Audio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return AudioFromBytes(filepath.Base(path), data)
}

// AudioFromBytes accepts any audio/* content, including WebM, Ogg and
// Matroska recordings, which are reported with their audio MIME type.
func AudioFromBytes(name string, data []byte) (*Audio, error) {
	mt := mimetype.Detect(data)
	audioType, ok := audioMIME(mt)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %s", ErrUnsupportedAudio, name, mt.String())
	}
	return &Audio{Name: name, Data: data, MIME: audioType}, nil
}

// audioMIME walks from the detected type up through the generic parents it
// was refined from and returns the first audio type found.
func audioMIME(mt *mimetype.MIME) (string, bool) {
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "audio/") {
			return m.String(), true
		}
		if a, ok := audioContainers[m.String()]; ok {
			return a, true
		}
	}
	return "", false
}
