// Package clipboard converts canvas objects to and from the HTML fragment
// exchanged through the system clipboard.
package clipboard

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"slate-cli/internal/model"
)

// Locator resolves the position of a nested object in the coordinate space
// of its folder. *canvas.Store satisfies it.
type Locator interface {
	CalculateGlobalPos(obj *model.Object) (model.Vec2, error)
}

// ImageSource gives access to image bytes that are already loaded.
type ImageSource interface {
	LoadedImageData(handle string) ([]byte, bool)
}

// Encode renders objects as an HTML fragment plus a plain text fallback.
// Objects that are not top level are written at their global position.
func Encode(objs []*model.Object, loc Locator, images ImageSource) (htmlText, plain string, err error) {
	var b strings.Builder
	b.WriteString(`<div data-slate-kind="multiple">` + "\n")
	texts := make([]string, 0, len(objs))
	for _, o := range objs {
		pos := o.Position
		if !o.IsRoot {
			if pos, err = loc.CalculateGlobalPos(o); err != nil {
				return "", "", fmt.Errorf("clipboard: encode object %d: %w", o.ID, err)
			}
		}
		if err := writeObject(&b, o, pos, images); err != nil {
			return "", "", err
		}
		texts = append(texts, model.PlainText(o))
	}
	b.WriteString("</div>")
	return b.String(), strings.Join(texts, "\n"), nil
}

func writeObject(b *strings.Builder, o *model.Object, pos model.Vec2, images ImageSource) error {
	parent := "null"
	if o.ParentID != nil {
		parent = strconv.Itoa(*o.ParentID)
	}
	fmt.Fprintf(b, `<div data-slate-kind="object" data-slate-id="%d" data-slate-position-x="%s" data-slate-position-y="%s" data-slate-size-w="%s" data-slate-size-h="%s" data-slate-parent-id="%s" data-slate-is-root="%t">`,
		o.ID, num(pos.X), num(pos.Y), num(o.Size.W), num(o.Size.H), parent, o.IsRoot)
	if err := writeContent(b, o.Content, images); err != nil {
		return fmt.Errorf("clipboard: encode object %d: %w", o.ID, err)
	}
	b.WriteString("</div>\n")
	return nil
}

func writeContent(b *strings.Builder, c model.Content, images ImageSource) error {
	switch c := c.(type) {
	case *model.TextContent:
		b.WriteString(`<div class="content" data-slate-kind="text">`)
		b.WriteString(strings.ReplaceAll(c.Text, "<br>", "<br/>"))
	case *model.TitleContent:
		b.WriteString(`<div class="content" data-slate-kind="title">`)
		b.WriteString(strings.ReplaceAll(c.Text, "<br>", "<br/>"))
	case *model.ImageContent:
		fmt.Fprintf(b, `<div class="content" data-slate-kind="image" data-slate-handle="%s">`, html.EscapeString(c.Handle))
		if images != nil {
			if data, ok := images.LoadedImageData(c.Handle); ok {
				fmt.Fprintf(b, `<img src="%s"/>`, dataURL(data))
			}
		}
	case *model.ContainerContent:
		fmt.Fprintf(b, `<div class="content" data-slate-kind="container"><h1>%s</h1>`, html.EscapeString(c.Title))
		for _, child := range c.Objects {
			if err := writeObject(b, child, child.Position, images); err != nil {
				return err
			}
		}
	case *model.FolderContent:
		data, err := json.Marshal(model.SerializeContent(c))
		if err != nil {
			return err
		}
		fmt.Fprintf(b, `<div class="content" data-slate-kind="folder" data-slate-folder-data="%s">`, html.EscapeString(url.PathEscape(string(data))))
		fmt.Fprintf(b, `<h2 color="%s"><span>%s</span><span>%s</span></h2>`,
			html.EscapeString(c.Color), html.EscapeString(c.Icon), html.EscapeString(c.Name))
	case *model.ArrowContent:
		curve, err := json.Marshal(c.Curve)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, `<div class="content" data-slate-kind="arrow" data-slate-start="%d" data-slate-end="%d" data-slate-curve="%s" data-slate-tipLeft="%t" data-slate-tipRight="%t">`,
			c.Start.ID(), c.End.ID(), html.EscapeString(url.PathEscape(string(curve))), c.TipLeft, c.TipRight)
	default:
		return fmt.Errorf("unsupported content %T", c)
	}
	b.WriteString("</div>")
	return nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func dataURL(data []byte) string {
	return "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}
