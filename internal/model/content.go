package model

import "fmt"

// Kind discriminates the content variants an object can carry.
type Kind string

const (
	KindText      Kind = "text"
	KindTitle     Kind = "title"
	KindImage     Kind = "image"
	KindArrow     Kind = "arrow"
	KindContainer Kind = "container"
	KindFolder    Kind = "folder"
)

// Content is the payload of a canvas object. The set of implementations is
// closed: TextContent, TitleContent, ImageContent, ArrowContent,
// ContainerContent and FolderContent.
type Content interface {
	Kind() Kind
	// ShallowClone copies scalar fields. Child lists of containers and
	// folders are shared with the original.
	ShallowClone() Content

	serializable() ContentData
}

type TextContent struct {
	Text string
}

func NewText(text string) *TextContent { return &TextContent{Text: text} }

func (*TextContent) Kind() Kind              { return KindText }
func (c *TextContent) ShallowClone() Content { return &TextContent{Text: c.Text} }

type TitleContent struct {
	Text string
}

func NewTitle(text string) *TitleContent { return &TitleContent{Text: text} }

func (*TitleContent) Kind() Kind              { return KindTitle }
func (c *TitleContent) ShallowClone() Content { return &TitleContent{Text: c.Text} }

// ImageContent references image bytes held by an external asset store.
// An empty Handle means no image has been chosen yet.
type ImageContent struct {
	Handle string
	IsNew  bool
}

func NewImage(handle string, isNew bool) *ImageContent {
	return &ImageContent{Handle: handle, IsNew: isNew}
}

func (*ImageContent) Kind() Kind { return KindImage }
func (c *ImageContent) ShallowClone() Content {
	return &ImageContent{Handle: c.Handle, IsNew: c.IsNew}
}

type ContainerContent struct {
	Title   string
	Objects []*Object
}

func EmptyContainer(title string) *ContainerContent {
	return &ContainerContent{Title: title, Objects: []*Object{}}
}

func (*ContainerContent) Kind() Kind { return KindContainer }
func (c *ContainerContent) ShallowClone() Content {
	return &ContainerContent{Title: c.Title, Objects: c.Objects}
}

// FolderContent hosts a separate canvas. Only folders may hold arrows.
type FolderContent struct {
	Name    string
	Color   string
	Icon    string
	Objects []*Object
}

func EmptyFolder(name, color, icon string) *FolderContent {
	return &FolderContent{Name: name, Color: color, Icon: icon, Objects: []*Object{}}
}

func (*FolderContent) Kind() Kind { return KindFolder }
func (c *FolderContent) ShallowClone() Content {
	return &FolderContent{Name: c.Name, Color: c.Color, Icon: c.Icon, Objects: c.Objects}
}

// ArrowRef points at an arrow endpoint either by live object or by bare id.
// Bare ids only exist while a batch of objects is being loaded or copied.
type ArrowRef struct {
	id  int
	obj *Object
}

func IDRef(id int) ArrowRef { return ArrowRef{id: id} }

func ObjectRef(obj *Object) ArrowRef { return ArrowRef{id: obj.ID, obj: obj} }

func (r ArrowRef) ID() int {
	if r.obj != nil {
		return r.obj.ID
	}
	return r.id
}

// Object returns the resolved endpoint, or nil for a bare id reference.
func (r ArrowRef) Object() *Object { return r.obj }

func (r ArrowRef) Resolved() bool { return r.obj != nil }

func (r ArrowRef) String() string {
	if r.obj != nil {
		return fmt.Sprintf("object(%d)", r.obj.ID)
	}
	return fmt.Sprintf("id(%d)", r.id)
}

type ArrowContent struct {
	Start    ArrowRef
	End      ArrowRef
	Curve    *CurveInfo
	TipLeft  bool
	TipRight bool
}

func NewArrow(start, end ArrowRef, curve *CurveInfo, tipLeft, tipRight bool) *ArrowContent {
	return &ArrowContent{Start: start, End: end, Curve: curve, TipLeft: tipLeft, TipRight: tipRight}
}

func (*ArrowContent) Kind() Kind { return KindArrow }
func (c *ArrowContent) ShallowClone() Content {
	out := &ArrowContent{Start: c.Start, End: c.End, TipLeft: c.TipLeft, TipRight: c.TipRight}
	if c.Curve != nil {
		curve := *c.Curve
		out.Curve = &curve
	}
	return out
}

// IsAddable reports whether content of this kind may be inserted through the
// generic add path. Arrows have a dedicated path.
func IsAddable(c Content) bool {
	switch c.(type) {
	case *TextContent, *TitleContent, *ImageContent, *ContainerContent, *FolderContent:
		return true
	case *ArrowContent:
		return false
	default:
		panic(unreachableKind(c))
	}
}

// IsArrowTarget reports whether objects with this content may be arrow endpoints.
func IsArrowTarget(c Content) bool {
	return IsAddable(c)
}

// Children returns the child list of a container or folder, and nil otherwise.
func Children(c Content) []*Object {
	switch t := c.(type) {
	case *ContainerContent:
		return t.Objects
	case *FolderContent:
		return t.Objects
	case *TextContent, *TitleContent, *ImageContent, *ArrowContent:
		return nil
	default:
		panic(unreachableKind(c))
	}
}

// SetChildren replaces the child list of a container or folder.
func SetChildren(c Content, objs []*Object) {
	switch t := c.(type) {
	case *ContainerContent:
		t.Objects = objs
	case *FolderContent:
		t.Objects = objs
	default:
		panic(fmt.Sprintf("model: %s content has no children", c.Kind()))
	}
}

func unreachableKind(c Content) string {
	return fmt.Sprintf("model: unhandled content type %T", c)
}
