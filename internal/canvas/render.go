package canvas

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		html.WithUnsafe(),
	),
)

// RenderHTML converts a document's markdown to HTML, used by the web
// surface to preview canvases.
func RenderHTML(doc Document) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(doc.Markdown), &buf); err != nil {
		return "", fmt.Errorf("render canvas %q: %w", doc.Title, err)
	}
	return buf.String(), nil
}
