package markdown

import (
	"strings"
	"testing"
)

func TestToHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"heading", "# Summary", []string{"<h1>Summary</h1>"}},
		{"emphasis", "Plants use **light**.", []string{"<strong>light</strong>"}},
		{"list", "- one\n- two", []string{"<ul>", "<li>one</li>", "<li>two</li>"}},
		{"table", "| a | b |\n|---|---|\n| 1 | 2 |", []string{"<table>", "<td>1</td>"}},
		{"raw html dropped", "<script>alert(1)</script>", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToHTML(tt.in)
			if err != nil {
				t.Fatalf("ToHTML: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Fatalf("expected %q in %q", w, got)
				}
			}
			if strings.Contains(got, "<script>") {
				t.Fatalf("raw html leaked: %q", got)
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	in := "# Cells\n\nA cell has a **nucleus** and `DNA`.\n\n- membrane\n- cytoplasm\n"
	got := PlainText(in)
	for _, w := range []string{"Cells", "A cell has a nucleus and DNA.", "- membrane", "- cytoplasm"} {
		if !strings.Contains(got, w) {
			t.Fatalf("expected %q in %q", w, got)
		}
	}
	if strings.ContainsAny(got, "#*`") {
		t.Fatalf("expected markup stripped, got %q", got)
	}
}
