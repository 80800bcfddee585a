package model

import "fmt"

// Object is a node of the canvas tree. Position is relative to the parent
// container, or to the enclosing folder for top-level objects.
type Object struct {
	ID       int
	Position Vec2
	Size     Size2
	Content  Content
	ParentID *int
	IsRoot   bool

	Dragging bool
	Resizing bool
	Editing  bool
	Selected bool

	// Values recorded when a gesture starts, restored if it is cancelled.
	TentativeSelected *bool
	TentativePosition *Vec2
	TentativeSize     *Size2
}

func NewObject(id int, pos Vec2, size Size2, content Content, parentID *int, isRoot bool) *Object {
	return &Object{ID: id, Position: pos, Size: size, Content: content, ParentID: cloneID(parentID), IsRoot: isRoot}
}

func (o *Object) Kind() Kind { return o.Content.Kind() }

func (o *Object) Box() Box { return Box{Position: o.Position, Size: o.Size} }

// IsParent reports whether the object can hold children.
func (o *Object) IsParent() bool {
	switch o.Content.(type) {
	case *ContainerContent, *FolderContent:
		return true
	default:
		return false
	}
}

func (o *Object) IsFolder() bool {
	_, ok := o.Content.(*FolderContent)
	return ok
}

func (o *Object) IsContainer() bool {
	_, ok := o.Content.(*ContainerContent)
	return ok
}

func (o *Object) IsArrow() bool {
	_, ok := o.Content.(*ArrowContent)
	return ok
}

// Children returns the child list when the object is a container or a folder.
func (o *Object) Children() []*Object { return Children(o.Content) }

// Serializable returns the wire form of the object and its whole subtree.
// The result shares no memory with the object.
func (o *Object) Serializable() ObjectData {
	return ObjectData{
		ID:       o.ID,
		Position: o.Position,
		Size:     o.Size,
		Content:  o.Content.serializable(),
		ParentID: cloneID(o.ParentID),
		IsRoot:   o.IsRoot,
	}
}

// UnsafeClone deep copies the object including its ids. The copy must not
// be registered in a store alongside the original.
func (o *Object) UnsafeClone() (*Object, error) {
	clone, err := Deserialize(o.Serializable())
	if err != nil {
		return nil, fmt.Errorf("model: clone object %d: %w", o.ID, err)
	}
	return clone, nil
}

func cloneID(id *int) *int {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// IntPtr returns a pointer to a copy of v.
func IntPtr(v int) *int { return &v }
