package clipboard

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"slate-cli/internal/model"
)

// ErrNotFragment is returned for HTML that does not claim to be canvas
// data. Callers paste it as text instead.
var ErrNotFragment = errors.New("clipboard: not a slate fragment")

// UnacceptableError reports HTML that claims to be canvas data but cannot
// be pasted.
type UnacceptableError struct {
	Reason string
	Err    error
}

func (e *UnacceptableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("clipboard: unacceptable fragment: %s: %v", e.Reason, e.Err)
	}
	return "clipboard: unacceptable fragment: " + e.Reason
}

func (e *UnacceptableError) Unwrap() error { return e.Err }

func unacceptable(reason string, args ...any) error {
	return &UnacceptableError{Reason: fmt.Sprintf(reason, args...)}
}

// Fragment is a decoded clipboard payload. Images maps the handles found in
// image content to the bytes embedded next to them, when any were.
type Fragment struct {
	Objects []model.ObjectData
	Images  map[string][]byte
}

// Decode parses a fragment produced by Encode.
func Decode(htmlText string) (*Fragment, error) {
	nodes, err := html.ParseFragment(strings.NewReader(htmlText), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return nil, ErrNotFragment
	}
	var first *html.Node
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			first = n
			break
		}
	}
	if first == nil {
		return nil, ErrNotFragment
	}
	kind, ok := attr(first, "data-slate-kind")
	if !ok {
		return nil, ErrNotFragment
	}
	if kind != "multiple" {
		return nil, unacceptable("data-slate-kind is %q, not multiple", kind)
	}

	f := &Fragment{Images: map[string][]byte{}}
	for i, el := range elements(first) {
		obj, err := f.object(el)
		if err != nil {
			var ue *UnacceptableError
			if errors.As(err, &ue) {
				ue.Reason = fmt.Sprintf("object %d: %s", i, ue.Reason)
				return nil, ue
			}
			return nil, &UnacceptableError{Reason: fmt.Sprintf("object %d", i), Err: err}
		}
		f.Objects = append(f.Objects, obj)
	}
	return f, nil
}

func (f *Fragment) object(el *html.Node) (model.ObjectData, error) {
	var out model.ObjectData
	if k, _ := attr(el, "data-slate-kind"); k != "object" {
		return out, unacceptable("expected object element, got %q", k)
	}
	nums := []struct {
		name string
		dst  *float64
	}{
		{"data-slate-position-x", &out.Position.X},
		{"data-slate-position-y", &out.Position.Y},
		{"data-slate-size-w", &out.Size.W},
		{"data-slate-size-h", &out.Size.H},
	}
	for _, n := range nums {
		v, ok := attr(el, n.name)
		if !ok {
			return out, unacceptable("missing %s", n.name)
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return out, &UnacceptableError{Reason: n.name, Err: err}
		}
		*n.dst = parsed
	}
	idAttr, ok := attr(el, "data-slate-id")
	if !ok {
		return out, unacceptable("missing data-slate-id")
	}
	id, err := strconv.Atoi(idAttr)
	if err != nil {
		return out, &UnacceptableError{Reason: "data-slate-id", Err: err}
	}
	out.ID = id
	parentAttr, ok := attr(el, "data-slate-parent-id")
	if !ok {
		return out, unacceptable("missing data-slate-parent-id")
	}
	if p, err := strconv.Atoi(parentAttr); err == nil {
		out.ParentID = model.IntPtr(p)
	}
	rootAttr, ok := attr(el, "data-slate-is-root")
	if !ok {
		return out, unacceptable("missing data-slate-is-root")
	}
	out.IsRoot = rootAttr == "true"

	kids := elements(el)
	if len(kids) != 1 {
		return out, unacceptable("object %d has %d content elements", id, len(kids))
	}
	content, err := f.content(kids[0])
	if err != nil {
		return out, err
	}
	out.Content = content
	return out, nil
}

func (f *Fragment) content(el *html.Node) (model.ContentData, error) {
	kind, _ := attr(el, "data-slate-kind")
	switch model.Kind(kind) {
	case model.KindText, model.KindTitle:
		return model.ContentData{Kind: model.Kind(kind), Text: innerHTML(el)}, nil

	case model.KindImage:
		handle, ok := attr(el, "data-slate-handle")
		if !ok {
			return model.ContentData{}, unacceptable("image without handle")
		}
		for _, c := range elements(el) {
			if c.DataAtom != atom.Img {
				continue
			}
			src, _ := attr(c, "src")
			data, err := decodeDataURL(src)
			if err != nil {
				return model.ContentData{}, &UnacceptableError{Reason: "image " + handle, Err: err}
			}
			f.Images[handle] = data
		}
		return model.ContentData{Kind: model.KindImage, Handle: handle}, nil

	case model.KindContainer:
		kids := elements(el)
		if len(kids) == 0 || kids[0].DataAtom != atom.H1 {
			return model.ContentData{}, unacceptable("container without title")
		}
		out := model.ContentData{Kind: model.KindContainer, Title: textOf(kids[0]), Objects: []model.ObjectData{}}
		for _, k := range kids[1:] {
			child, err := f.object(k)
			if err != nil {
				return model.ContentData{}, err
			}
			out.Objects = append(out.Objects, child)
		}
		return out, nil

	case model.KindFolder:
		hidden, ok := attr(el, "data-slate-folder-data")
		if !ok {
			return model.ContentData{}, unacceptable("folder without data")
		}
		raw, err := url.PathUnescape(hidden)
		if err != nil {
			return model.ContentData{}, &UnacceptableError{Reason: "folder data", Err: err}
		}
		var data model.ContentData
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return model.ContentData{}, &UnacceptableError{Reason: "folder data", Err: err}
		}
		if data.Kind != model.KindFolder {
			return model.ContentData{}, unacceptable("folder data holds %q", data.Kind)
		}
		var h2 *html.Node
		for _, c := range elements(el) {
			if c.DataAtom == atom.H2 {
				h2 = c
				break
			}
		}
		if h2 == nil {
			return model.ContentData{}, unacceptable("folder without heading")
		}
		spans := elements(h2)
		if len(spans) != 2 {
			return model.ContentData{}, unacceptable("folder heading has %d spans", len(spans))
		}
		color, ok := attr(h2, "color")
		if !ok {
			return model.ContentData{}, unacceptable("folder without color")
		}
		data.Color = color
		data.Icon = textOf(spans[0])
		data.Name = textOf(spans[1])
		return data, nil

	case model.KindArrow:
		out := model.ContentData{Kind: model.KindArrow}
		vals := map[string]string{}
		for _, name := range []string{"data-slate-start", "data-slate-end", "data-slate-curve", "data-slate-tipleft", "data-slate-tipright"} {
			v, ok := attr(el, name)
			if !ok {
				return out, unacceptable("arrow without %s", name)
			}
			vals[name] = v
		}
		var err error
		if out.Start, err = strconv.Atoi(vals["data-slate-start"]); err != nil {
			return out, &UnacceptableError{Reason: "arrow start", Err: err}
		}
		if out.End, err = strconv.Atoi(vals["data-slate-end"]); err != nil {
			return out, &UnacceptableError{Reason: "arrow end", Err: err}
		}
		curve, err := url.PathUnescape(vals["data-slate-curve"])
		if err != nil {
			return out, &UnacceptableError{Reason: "arrow curve", Err: err}
		}
		if err := json.Unmarshal([]byte(curve), &out.Curve); err != nil {
			return out, &UnacceptableError{Reason: "arrow curve", Err: err}
		}
		out.TipLeft = vals["data-slate-tipleft"] == "true"
		out.TipRight = vals["data-slate-tipright"] == "true"
		return out, nil
	}
	return model.ContentData{}, unacceptable("unknown content kind %q", kind)
}

// ImageStore is the asset side of a paste.
type ImageStore interface {
	ImageSource
	CreateImage(data []byte) (string, error)
	MoveImageRefCount(handle string, delta int)
}

// ResolveImages takes a reference on every image of the fragment outside
// folders. Handles whose bytes are not loaded locally are recreated from
// the embedded data and rewritten to the new handle. Images inside folders
// are counted when the folder is cloned.
func (f *Fragment) ResolveImages(assets ImageStore) error {
	var walk func(objs []model.ObjectData) error
	walk = func(objs []model.ObjectData) error {
		for i := range objs {
			c := &objs[i].Content
			switch c.Kind {
			case model.KindContainer:
				if err := walk(c.Objects); err != nil {
					return err
				}
			case model.KindImage:
				if c.Handle == "" {
					continue
				}
				if _, ok := assets.LoadedImageData(c.Handle); ok {
					assets.MoveImageRefCount(c.Handle, +1)
					continue
				}
				data, ok := f.Images[c.Handle]
				if !ok {
					return unacceptable("image %s is not available", c.Handle)
				}
				handle, err := assets.CreateImage(data)
				if err != nil {
					return &UnacceptableError{Reason: "image " + c.Handle, Err: err}
				}
				c.Handle = handle
			}
		}
		return nil
	}
	return walk(f.Objects)
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func elements(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func innerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return strings.ReplaceAll(buf.String(), "<br/>", "<br>")
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func decodeDataURL(src string) ([]byte, error) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return nil, fmt.Errorf("unsupported image source %.32q", src)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, errors.New("malformed data url")
	}
	if strings.HasSuffix(meta, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	s, err := url.PathUnescape(payload)
	return []byte(s), err
}
