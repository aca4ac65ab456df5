// Package markdown converts answers, which the backend returns as markdown,
// into HTML for `persona ask --html` and the history export.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// ToHTML renders src as GitHub-flavoured markdown. Raw HTML in the answer is
// dropped by goldmark's default (unsafe rendering off).
func ToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

// PlainText flattens src to its text content, one block per line. The PDF
// export uses it because gofpdf cannot lay out HTML.
func PlainText(src string) string {
	source := []byte(src)
	doc := md.Parser().Parse(text.NewReader(source))

	var out strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument && n.Kind() != ast.KindList {
				if !strings.HasSuffix(out.String(), "\n") {
					out.WriteString("\n")
				}
			}
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.ListItem:
			out.WriteString("- ")
		case *ast.Text:
			out.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				out.WriteString(" ")
			}
		case *ast.String:
			out.Write(v.Value)
		case *ast.CodeSpan:
			for c := v.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					out.Write(t.Segment.Value(source))
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			lines := v.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				out.Write(seg.Value(source))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(out.String())
}
