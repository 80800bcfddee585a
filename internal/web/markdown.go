package web

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"slate-cli/internal/model"
	"slate-cli/internal/render"
)

// Raw HTML stays escaped: object text can come from any pasted page.
var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		emoji.Emoji,
	),
	goldmark.WithParserOptions(
		// Section anchors let /#plan link to a container.
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

func renderMarkdownHTML(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return template.HTML("")
	}
	var b bytes.Buffer
	if err := markdownRenderer.Convert([]byte(src), &b); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	return template.HTML(b.String())
}

// outlineHTML renders the outline of folder without its top heading, which
// the page already shows in the breadcrumb.
func outlineHTML(folder *model.Object) template.HTML {
	md := render.Markdown(folder)
	if strings.HasPrefix(md, "# ") {
		if i := strings.IndexByte(md, '\n'); i >= 0 {
			md = md[i+1:]
		}
	}
	return renderMarkdownHTML(md)
}
