package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ObjectData is the transportable form of an Object. Arrow endpoints are
// stored as bare ids.
type ObjectData struct {
	ID       int
	Position Vec2
	Size     Size2
	Content  ContentData
	ParentID *int
	IsRoot   bool
}

// ContentData is the transportable form of every content kind. Only the
// fields belonging to Kind are meaningful.
type ContentData struct {
	Kind Kind

	Text   string // text, title
	Handle string // image
	Title  string // container

	Name  string // folder
	Color string
	Icon  string

	Objects []ObjectData // container, folder

	Start    int // arrow
	End      int
	Curve    *CurveInfo
	TipLeft  bool
	TipRight bool
}

// DecodeError reports a malformed or incomplete serialized object.
type DecodeError struct {
	Path   string
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	loc := e.Field
	if e.Path != "" {
		loc = e.Path + "." + e.Field
	}
	loc = strings.TrimSuffix(loc, ".")
	if loc == "" {
		return "model: decode: " + e.Reason
	}
	return fmt.Sprintf("model: decode %s: %s", loc, e.Reason)
}

func (e *DecodeError) under(prefix string) *DecodeError {
	out := *e
	if out.Path == "" {
		out.Path = prefix
	} else {
		out.Path = prefix + "." + out.Path
	}
	return &out
}

func missing(field string) *DecodeError {
	return &DecodeError{Field: field, Reason: "missing required field"}
}

func invalid(field string, err error) *DecodeError {
	return &DecodeError{Field: field, Reason: err.Error()}
}

func (c *TextContent) serializable() ContentData  { return ContentData{Kind: KindText, Text: c.Text} }
func (c *TitleContent) serializable() ContentData { return ContentData{Kind: KindTitle, Text: c.Text} }
func (c *ImageContent) serializable() ContentData {
	return ContentData{Kind: KindImage, Handle: c.Handle}
}

func (c *ContainerContent) serializable() ContentData {
	return ContentData{Kind: KindContainer, Title: c.Title, Objects: serializeAll(c.Objects)}
}

func (c *FolderContent) serializable() ContentData {
	return ContentData{Kind: KindFolder, Name: c.Name, Color: c.Color, Icon: c.Icon, Objects: serializeAll(c.Objects)}
}

func (c *ArrowContent) serializable() ContentData {
	data := ContentData{Kind: KindArrow, Start: c.Start.ID(), End: c.End.ID(), TipLeft: c.TipLeft, TipRight: c.TipRight}
	if c.Curve != nil {
		curve := *c.Curve
		data.Curve = &curve
	}
	return data
}

// SerializeContent returns the transportable form of c.
func SerializeContent(c Content) ContentData { return c.serializable() }

func serializeAll(objs []*Object) []ObjectData {
	out := make([]ObjectData, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.Serializable())
	}
	return out
}

// Deserialize builds a live object tree from its transportable form. Arrow
// endpoints come back as id references.
func Deserialize(data ObjectData) (*Object, error) {
	content, err := DeserializeContent(data.Content)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			return nil, de.under("content")
		}
		return nil, err
	}
	return NewObject(data.ID, data.Position, data.Size, content, data.ParentID, data.IsRoot), nil
}

// DeserializeContent builds live content from its transportable form.
func DeserializeContent(data ContentData) (Content, error) {
	switch data.Kind {
	case KindText:
		return NewText(data.Text), nil
	case KindTitle:
		return NewTitle(data.Text), nil
	case KindImage:
		return NewImage(data.Handle, false), nil
	case KindArrow:
		var curve *CurveInfo
		if data.Curve != nil {
			c := *data.Curve
			curve = &c
		}
		return NewArrow(IDRef(data.Start), IDRef(data.End), curve, data.TipLeft, data.TipRight), nil
	case KindContainer:
		objs, err := deserializeAll(data.Objects, false)
		if err != nil {
			return nil, err
		}
		return &ContainerContent{Title: data.Title, Objects: objs}, nil
	case KindFolder:
		objs, err := deserializeAll(data.Objects, true)
		if err != nil {
			return nil, err
		}
		return &FolderContent{Name: data.Name, Color: data.Color, Icon: data.Icon, Objects: objs}, nil
	case "":
		return nil, missing("kind")
	default:
		return nil, &DecodeError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", data.Kind)}
	}
}

func deserializeAll(data []ObjectData, allowArrows bool) ([]*Object, error) {
	out := make([]*Object, 0, len(data))
	for i, d := range data {
		obj, err := Deserialize(d)
		if err != nil {
			var de *DecodeError
			if errors.As(err, &de) {
				return nil, de.under(fmt.Sprintf("objects[%d]", i))
			}
			return nil, err
		}
		if !allowArrows && obj.IsArrow() {
			return nil, &DecodeError{Path: fmt.Sprintf("objects[%d]", i), Field: "content", Reason: "arrows are not permitted in containers"}
		}
		out = append(out, obj)
	}
	return out, nil
}

type objectJSON struct {
	ID       int         `json:"id"`
	Position Vec2        `json:"position"`
	Size     Size2       `json:"size"`
	Content  ContentData `json:"content"`
	ParentID *int        `json:"parentId"`
	IsRoot   bool        `json:"isRoot"`
}

func (d ObjectData) MarshalJSON() ([]byte, error) {
	return json.Marshal(objectJSON(d))
}

func (d *ObjectData) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return &DecodeError{Reason: err.Error()}
	}
	for _, f := range []string{"id", "position", "size", "content", "parentId", "isRoot"} {
		if _, ok := raw[f]; !ok {
			return missing(f)
		}
	}
	var out ObjectData
	fields := []struct {
		name string
		dst  any
	}{
		{"id", &out.ID},
		{"position", &out.Position},
		{"size", &out.Size},
		{"parentId", &out.ParentID},
		{"isRoot", &out.IsRoot},
	}
	for _, f := range fields {
		if err := json.Unmarshal(raw[f.name], f.dst); err != nil {
			return invalid(f.name, err)
		}
	}
	if err := json.Unmarshal(raw["content"], &out.Content); err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			return de.under("content")
		}
		return invalid("content", err)
	}
	*d = out
	return nil
}

func (d ContentData) MarshalJSON() ([]byte, error) {
	objs := d.Objects
	if objs == nil {
		objs = []ObjectData{}
	}
	switch d.Kind {
	case KindText, KindTitle:
		return json.Marshal(struct {
			Kind Kind   `json:"kind"`
			Text string `json:"text"`
		}{d.Kind, d.Text})
	case KindImage:
		return json.Marshal(struct {
			Kind   Kind   `json:"kind"`
			Handle string `json:"handle"`
		}{d.Kind, d.Handle})
	case KindContainer:
		return json.Marshal(struct {
			Kind    Kind         `json:"kind"`
			Title   string       `json:"title"`
			Objects []ObjectData `json:"objects"`
		}{d.Kind, d.Title, objs})
	case KindFolder:
		return json.Marshal(struct {
			Kind    Kind         `json:"kind"`
			Name    string       `json:"name"`
			Color   string       `json:"color"`
			Icon    string       `json:"icon"`
			Objects []ObjectData `json:"objects"`
		}{d.Kind, d.Name, d.Color, d.Icon, objs})
	case KindArrow:
		return json.Marshal(struct {
			Kind     Kind       `json:"kind"`
			Start    int        `json:"start"`
			End      int        `json:"end"`
			Curve    *CurveInfo `json:"curve"`
			TipLeft  bool       `json:"tipLeft"`
			TipRight bool       `json:"tipRight"`
		}{d.Kind, d.Start, d.End, d.Curve, d.TipLeft, d.TipRight})
	default:
		return nil, fmt.Errorf("model: encode content: unknown kind %q", d.Kind)
	}
}

func (d *ContentData) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return &DecodeError{Reason: err.Error()}
	}
	kindRaw, ok := raw["kind"]
	if !ok {
		return missing("kind")
	}
	var out ContentData
	if err := json.Unmarshal(kindRaw, &out.Kind); err != nil {
		return invalid("kind", err)
	}

	type field struct {
		name string
		dst  any
	}
	var fields []field
	switch out.Kind {
	case KindText, KindTitle:
		fields = []field{{"text", &out.Text}}
	case KindImage:
		fields = []field{{"handle", &out.Handle}}
	case KindContainer:
		fields = []field{{"title", &out.Title}}
	case KindFolder:
		fields = []field{{"name", &out.Name}, {"color", &out.Color}, {"icon", &out.Icon}}
	case KindArrow:
		fields = []field{
			{"start", &out.Start}, {"end", &out.End}, {"curve", &out.Curve},
			{"tipLeft", &out.TipLeft}, {"tipRight", &out.TipRight},
		}
	default:
		return &DecodeError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", out.Kind)}
	}
	for _, f := range fields {
		v, ok := raw[f.name]
		if !ok {
			return missing(f.name)
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return invalid(f.name, err)
		}
	}

	if out.Kind == KindContainer || out.Kind == KindFolder {
		v, ok := raw["objects"]
		if !ok || string(v) == "null" {
			return missing("objects")
		}
		var items []json.RawMessage
		if err := json.Unmarshal(v, &items); err != nil {
			return invalid("objects", err)
		}
		out.Objects = make([]ObjectData, len(items))
		for i, item := range items {
			if err := json.Unmarshal(item, &out.Objects[i]); err != nil {
				prefix := fmt.Sprintf("objects[%d]", i)
				var de *DecodeError
				if errors.As(err, &de) {
					return de.under(prefix)
				}
				return invalid(prefix, err)
			}
		}
	}
	*d = out
	return nil
}
