package logutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeForLog(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "hello", want: "hello"},
		{name: "newlines escaped", in: "a\nb\r", want: "a\\nb\\n"},
		{name: "tab escaped", in: "a\tb", want: "a\\tb"},
		{name: "control replaced", in: "a\x01b", want: "a?b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeForLog(tt.in); got != tt.want {
				t.Fatalf("SanitizeForLog(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeForLogTruncates(t *testing.T) {
	got := SanitizeForLog(strings.Repeat("x", 250))
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected truncation suffix, got %q", got)
	}
	if len(got) != maxLogLength+3 {
		t.Fatalf("expected length %d, got %d", maxLogLength+3, len(got))
	}
}

func TestSanitizeForLogKeepsRunesWhole(t *testing.T) {
	got := SanitizeForLog(strings.Repeat("é", maxLogLength+20))
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got)
	}
	if want := strings.Repeat("é", maxLogLength) + "..."; got != want {
		t.Fatalf("expected %d runes plus suffix, got %d runes", maxLogLength, utf8.RuneCountInString(got))
	}
}

func TestTruncateDataURI(t *testing.T) {
	if got := TruncateDataURI("data:image/png;base64,AAAA"); got != "data:image/png;base64,<4 bytes>" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := TruncateDataURI("nocomma"); got != "<7 bytes>" {
		t.Fatalf("unexpected truncation without prefix: %q", got)
	}
}
