package render

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"slate-cli/internal/model"
)

// Markdown describes the contents of folder as a Markdown outline: titles
// become headings, containers become sections and arrows are listed last.
func Markdown(folder *model.Object) string {
	var b strings.Builder
	name := "Canvas"
	if f, ok := folder.Content.(*model.FolderContent); ok && strings.TrimSpace(model.StripHTML(f.Name)) != "" {
		name = strings.TrimSpace(model.StripHTML(f.Name))
	}
	fmt.Fprintf(&b, "# %s\n\n", name)

	byID := map[int]*model.Object{}
	var arrows []*model.Object
	for _, o := range folder.Children() {
		if o.IsArrow() {
			arrows = append(arrows, o)
			continue
		}
		byID[o.ID] = o
		for _, c := range o.Children() {
			byID[c.ID] = c
		}
		writeBlock(&b, o, 2)
	}
	if len(arrows) > 0 {
		b.WriteString("## Connections\n\n")
		for _, a := range arrows {
			c := a.Content.(*model.ArrowContent)
			fmt.Fprintf(&b, "- %s → %s\n", label(byID[c.Start.ID()], c.Start.ID()), label(byID[c.End.ID()], c.End.ID()))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeBlock(b *strings.Builder, o *model.Object, depth int) {
	switch c := o.Content.(type) {
	case *model.TitleContent:
		fmt.Fprintf(b, "%s %s\n\n", strings.Repeat("#", min(depth+1, 6)), oneLine(model.ContentText(c)))
	case *model.TextContent:
		if t := strings.TrimSpace(model.ContentText(c)); t != "" {
			b.WriteString(t + "\n\n")
		}
	case *model.ContainerContent:
		title := strings.TrimSpace(c.Title)
		if title == "" {
			title = fmt.Sprintf("Section %d", o.ID)
		}
		fmt.Fprintf(b, "%s %s\n\n", strings.Repeat("#", min(depth, 6)), oneLine(title))
		for _, child := range c.Objects {
			writeBlock(b, child, depth+1)
		}
	case *model.FolderContent:
		fmt.Fprintf(b, "- 📁 **%s** (%d objects)\n\n", oneLine(model.StripHTML(c.Name)), len(c.Objects))
	case *model.ImageContent:
		fmt.Fprintf(b, "- 🖼 image `%s`\n\n", c.Handle)
	}
}

func label(o *model.Object, id int) string {
	if o == nil {
		return "#" + strconv.Itoa(id)
	}
	t := oneLine(model.PlainText(o))
	if t == "" {
		t = string(o.Kind())
	}
	return fmt.Sprintf("%s (#%d)", t, id)
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 60 {
		return string(r[:59]) + "…"
	}
	return s
}

var (
	mdRendererMu sync.Mutex
	// Renderers are cached by style and width; building one is slow.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

// RenderMarkdown renders md for a terminal of the given width. On failure
// the source is returned unchanged.
func RenderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}
	style := markdownStyle()
	key := style + ":" + strconv.Itoa(width)

	mdRendererMu.Lock()
	r := mdRenderers[key]
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			// WithAutoStyle can block on terminal queries.
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			mdRendererMu.Unlock()
			return md
		}
		mdRenderers[key] = rr
		r = rr
	}
	mdRendererMu.Unlock()

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func markdownStyle() string {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("SLATE_MD_STYLE"))) {
	case "light":
		return "light"
	case "dark":
		return "dark"
	case "notty", "ascii":
		return "notty"
	}
	if termenv.EnvColorProfile() == termenv.Ascii {
		return "notty"
	}
	// COLORFGBG is often "fg;bg"; 0-6 are dark backgrounds.
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			if bg >= 7 {
				return "light"
			}
			return "dark"
		}
	}
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}
