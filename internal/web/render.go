package web

import (
	"html/template"
	"strings"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
)

var mdRenderer = goldmark.New(
	goldmark.WithExtensions(
		highlighting.NewHighlighting(
			highlighting.WithCustomStyle(styles.Get("monokai")),
		),
	),
)

func renderMarkdown(src string) (template.HTML, error) {
	var b strings.Builder
	if err := mdRenderer.Convert([]byte(src), &b); err != nil {
		return "", err
	}
	return template.HTML(b.String()), nil
}
