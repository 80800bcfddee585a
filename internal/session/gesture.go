package session

import (
	"fmt"

	"slate-cli/internal/canvas"
	"slate-cli/internal/model"
)

// Tool is an entry of the toolbar that objects are dragged from.
type Tool string

const (
	ToolContainer Tool = "container"
	ToolFolder    Tool = "folder"
	ToolTitle     Tool = "title"
	ToolText      Tool = "text"
	ToolImage     Tool = "image"
)

const (
	defaultTitleHTML   = `<h2 class="ql-align-center">Title</h2>`
	defaultTextHTML    = `<div><br></div>`
	DefaultFolderColor = "#8bc34a"
	draggedFolderSide  = 90
)

var toolSizes = map[Tool]model.Size2{
	ToolContainer: {W: canvas.Unit * 22, H: 128},
	ToolFolder:    {W: canvas.Unit * 6, H: canvas.Unit * 7},
	ToolTitle:     {W: canvas.Unit * 22, H: canvas.Unit * 2},
	ToolText:      {W: canvas.Unit * 22, H: canvas.Unit * 2},
	ToolImage:     {W: canvas.Unit * 22, H: canvas.Unit * 22},
}

// DefaultSize is the size an object of tool starts with.
func DefaultSize(tool Tool) (model.Size2, bool) {
	size, ok := toolSizes[tool]
	return size, ok
}

// ToolbarDragStart creates an object from tool centered under mouse, given
// in viewport coordinates, and starts dragging it. Cancelling the drag
// removes the object again.
func (s *Session) ToolbarDragStart(tool Tool, mouse model.Vec2) (*model.Object, error) {
	const op = "toolbar drag start"
	if !s.isIdle() {
		return nil, s.reject(op)
	}
	size, ok := toolSizes[tool]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, tool)
	}
	at := s.toCanvas(mouse)
	opts := canvas.AddOptions{
		Position: model.Vec2{X: at.X - size.W/2, Y: at.Y - size.H/2},
		Size:     size,
	}

	var obj *model.Object
	var err error
	switch tool {
	case ToolContainer:
		if obj, err = s.store.AddContent(model.EmptyContainer(""), opts); err != nil {
			return nil, err
		}
		inner := canvas.AddOptions{Size: model.Size2{W: size.W - 20, H: size.H - 20}}
		if _, err = s.store.AddContentWithParent(model.NewTitle(defaultTitleHTML), obj, inner); err != nil {
			return nil, err
		}
		if _, err = s.store.AddContentWithParent(model.NewText(defaultTextHTML), obj, inner); err != nil {
			return nil, err
		}
		if _, err = s.store.FixLayout(obj, false, true); err != nil {
			return nil, err
		}
	case ToolFolder:
		if obj, err = s.store.AddContent(model.EmptyFolder(defaultTitleHTML, DefaultFolderColor, ""), opts); err != nil {
			return nil, err
		}
		if _, err = s.store.FixLayout(obj, false, true); err != nil {
			return nil, err
		}
	case ToolTitle:
		obj, err = s.store.AddContent(model.NewTitle(defaultTitleHTML), opts)
	case ToolText:
		obj, err = s.store.AddContent(model.NewText(defaultTextHTML), opts)
	case ToolImage:
		obj, err = s.store.AddContent(model.NewImage("", true), opts)
	}
	if err != nil {
		return nil, err
	}
	s.log.Debug("toolbar object created", "tool", tool, "id", obj.ID)
	return obj, s.ObjectDragStart(obj, mouse, false)
}

// ObjectDragStart starts dragging obj, or the whole selection when obj is
// selected. With setTentative the current geometry is recorded so that
// cancelling restores it.
func (s *Session) ObjectDragStart(obj *model.Object, mouse model.Vec2, setTentative bool) error {
	const op = "object drag start"
	if !s.isIdle() {
		return s.reject(op)
	}
	live, err := s.live(op, obj)
	if err != nil {
		return err
	}
	var toDrag []*model.Object
	if live.Selected {
		for _, o := range s.store.GetSelected() {
			if !o.IsArrow() {
				toDrag = append(toDrag, o)
			}
		}
	} else {
		if len(s.store.GetSelected()) > 0 {
			s.store.ClearSelected()
		}
		toDrag = []*model.Object{live}
	}
	for _, d := range toDrag {
		d.Dragging = true
		if setTentative {
			pos, size := d.Position, d.Size
			d.TentativePosition, d.TentativeSize = &pos, &size
		}
		if d.IsFolder() && !d.IsRoot {
			d.Size = model.Size2{W: draggedFolderSide, H: draggedFolderSide}
		}
	}
	s.state = Dragging{Objects: toDrag}
	s.log.Debug("drag started", "count", len(toDrag), "mouse_x", mouse.X, "mouse_y", mouse.Y)
	return nil
}

// ObjectDragMove moves the dragged objects by delta, in viewport units. It
// is ignored after a cancel.
func (s *Session) ObjectDragMove(delta model.Vec2) error {
	switch st := s.state.(type) {
	case Dragging:
		return s.store.SetPositionDelta(st.Objects, model.Vec2{X: delta.X / s.zoom, Y: delta.Y / s.zoom})
	case Cancelled:
		return nil
	}
	return s.reject("object drag move")
}

// ObjectDragEnd drops the dragged objects onto the open canvas. After a
// drop or cancel it only returns to idle.
func (s *Session) ObjectDragEnd() error {
	const op = "object drag end"
	if s.isDeferredIdle() {
		s.state = Idle{}
		return nil
	}
	st, ok := s.state.(Dragging)
	if !ok {
		return s.reject(op)
	}
	for _, o := range st.Objects {
		o.Dragging = false
		pos, err := s.store.CalculateGlobalPos(o)
		if err != nil {
			return err
		}
		o.Position = pos
		o.TentativePosition, o.TentativeSize = nil, nil
	}
	if err := s.store.SetParents(st.Objects, nil, -1); err != nil {
		return err
	}
	s.state = Idle{}
	return s.AddMomentToHistory(false)
}

// ObjectDrop drops the dragged objects into target at index. The end event
// that follows only returns the session to idle.
func (s *Session) ObjectDrop(target *model.Object, index int) error {
	const op = "object drop"
	if s.isCancelled() {
		return nil
	}
	st, ok := s.state.(Dragging)
	if !ok {
		return s.reject(op)
	}
	target, err := s.live(op, target)
	if err != nil {
		return err
	}
	if !target.IsContainer() {
		return fmt.Errorf("%w: %d is %s", ErrNotContainer, target.ID, target.Kind())
	}
	for _, o := range st.Objects {
		if !model.IsAddable(o.Content) {
			return fmt.Errorf("session: %s %d: %w", op, o.ID, canvas.ErrNotAddable)
		}
	}
	for _, o := range st.Objects {
		o.Dragging = false
		o.TentativePosition, o.TentativeSize = nil, nil
		top, err := s.store.TopLevel(o)
		if err != nil {
			return err
		}
		changed, err := s.store.FixLayout(top, false, true)
		if err != nil {
			return err
		}
		if _, err := s.store.FixArrows(changed, true); err != nil {
			return err
		}
	}
	if err := s.store.SetParents(st.Objects, target, index); err != nil {
		return err
	}
	s.state = JustDropped{}
	return s.AddMomentToHistory(false)
}

// ArrowHandleDragStart starts drawing an arrow out of obj towards mouse,
// given in canvas coordinates.
func (s *Session) ArrowHandleDragStart(mouse model.Vec2, obj *model.Object) error {
	const op = "arrow handle drag start"
	if !s.isIdle() {
		return s.reject(op)
	}
	start, err := s.live(op, obj)
	if err != nil {
		return err
	}
	if !model.IsArrowTarget(start.Content) {
		return fmt.Errorf("session: %s %d: arrows cannot start at an arrow", op, start.ID)
	}
	handle, err := s.handleTo(start, mouse, nil)
	if err != nil {
		return err
	}
	s.store.ClearEditing()
	s.store.ClearSelected()
	s.state = handle
	return nil
}

func (s *Session) handleTo(start *model.Object, mouse model.Vec2, hovering *model.Object) (DraggingArrowHandle, error) {
	global, err := s.store.CalculateGlobalPos(start)
	if err != nil {
		return DraggingArrowHandle{}, err
	}
	curve, pos, size := model.RecalculateCurve(
		model.Box{Position: global, Size: start.Size},
		model.NewBox(mouse.X-5, mouse.Y-5, 10, 10),
		0, 0, nil)
	return DraggingArrowHandle{Start: start, Curve: curve, Pos: pos, Size: size, Hovering: hovering}, nil
}

// ArrowHandleDragMove follows the pointer, in canvas coordinates. hovering
// is the object under the pointer, if any.
func (s *Session) ArrowHandleDragMove(mouse model.Vec2, hovering *model.Object) error {
	switch st := s.state.(type) {
	case DraggingArrowHandle:
		handle, err := s.handleTo(st.Start, mouse, hovering)
		if err != nil {
			return err
		}
		s.state = handle
		return nil
	case Cancelled:
		return nil
	}
	return s.reject("arrow handle drag move")
}

// ArrowHandleDragEnd abandons the arrow unless it was dropped.
func (s *Session) ArrowHandleDragEnd() error {
	switch s.state.(type) {
	case DraggingArrowHandle, JustDropped, Cancelled:
		s.state = Idle{}
		return nil
	}
	return s.reject("arrow handle drag end")
}

// ArrowHandleDrop connects the arrow being drawn to end.
func (s *Session) ArrowHandleDrop(end *model.Object) (*model.Object, error) {
	const op = "arrow handle drop"
	if s.isCancelled() {
		return nil, nil
	}
	st, ok := s.state.(DraggingArrowHandle)
	if !ok {
		return nil, s.reject(op)
	}
	end, err := s.live(op, end)
	if err != nil {
		return nil, err
	}
	curve, pos, size, err := s.store.CalculateCurveInfo(st.Start, end, 0, 0)
	if err != nil {
		return nil, err
	}
	arrow, err := s.store.AddArrow(
		model.NewArrow(model.ObjectRef(st.Start), model.ObjectRef(end), &curve, false, false),
		canvas.AddOptions{Position: pos, Size: size})
	if err != nil {
		return nil, err
	}
	s.state = JustDropped{}
	return arrow, s.AddMomentToHistory(false)
}

// ObjectResizeStart starts resizing obj and records its geometry.
func (s *Session) ObjectResizeStart(obj *model.Object) error {
	const op = "object resize start"
	if !s.isIdle() {
		return s.reject(op)
	}
	live, err := s.live(op, obj)
	if err != nil {
		return err
	}
	live.Resizing = true
	pos, size := live.Position, live.Size
	live.TentativePosition, live.TentativeSize = &pos, &size
	s.state = Resizing{}
	return nil
}

// ObjectResizeMove grows obj by size minus coord and moves it by coord,
// both in viewport units. Children of a container grow with it.
func (s *Session) ObjectResizeMove(obj *model.Object, size model.Size2, coord model.Vec2) error {
	const op = "object resize move"
	if _, ok := s.state.(Resizing); !ok {
		return s.reject(op)
	}
	live, err := s.live(op, obj)
	if err != nil {
		return err
	}
	if !live.Resizing {
		return nil
	}
	size = model.Size2{W: size.W / s.zoom, H: size.H / s.zoom}
	coord = model.Vec2{X: coord.X / s.zoom, Y: coord.Y / s.zoom}
	return s.resize(live, size, coord, false)
}

func (s *Session) resize(obj *model.Object, size model.Size2, coord model.Vec2, sizeOnly bool) error {
	obj.Size.W += size.W - coord.X
	obj.Size.H += size.H - coord.Y
	if !sizeOnly {
		obj.Position = obj.Position.Add(coord)
	}
	if _, err := s.store.FixArrows([]*model.Object{obj}, false); err != nil {
		return err
	}
	switch obj.Content.(type) {
	case *model.ContainerContent:
		for _, c := range obj.Children() {
			if err := s.resize(c, size, coord, true); err != nil {
				return err
			}
		}
	case *model.ImageContent:
		if obj.Resizing && !obj.IsRoot {
			top, err := s.store.TopLevel(obj)
			if err != nil {
				return err
			}
			changed, err := s.store.FixLayout(top, false, true)
			if err != nil {
				return err
			}
			if _, err := s.store.FixArrows(changed, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// ObjectResizeEnd settles the layout around obj and records the change.
func (s *Session) ObjectResizeEnd(obj *model.Object) error {
	const op = "object resize end"
	if _, ok := s.state.(Resizing); !ok {
		return s.reject(op)
	}
	live, err := s.live(op, obj)
	if err != nil {
		return err
	}
	if !live.Resizing {
		return nil
	}
	live.Resizing = false
	live.TentativePosition, live.TentativeSize = nil, nil
	if err := s.store.SetSize(live, live.Size); err != nil {
		return err
	}
	s.state = Idle{}
	return s.AddMomentToHistory(false)
}

// BoxSelectStart starts a rubber band selection at origin, in canvas
// coordinates.
func (s *Session) BoxSelectStart(origin model.Vec2) error {
	if !s.isIdle() {
		return s.reject("box select start")
	}
	s.state = BoxSelecting{Origin: origin}
	return nil
}

// BoxSelectEnd selects every top-level object lying fully inside the band
// from the origin to corner.
func (s *Session) BoxSelectEnd(corner model.Vec2, keepSelection bool) ([]*model.Object, error) {
	st, ok := s.state.(BoxSelecting)
	if !ok {
		return nil, s.reject("box select end")
	}
	s.state = Idle{}
	minX, maxX := min(st.Origin.X, corner.X), max(st.Origin.X, corner.X)
	minY, maxY := min(st.Origin.Y, corner.Y), max(st.Origin.Y, corner.Y)
	if !keepSelection {
		s.store.ClearSelected()
	}
	var picked []*model.Object
	for _, o := range s.store.CurrentRoot().Children() {
		end := o.Box().Max()
		if o.Position.X < minX || o.Position.Y < minY || end.X > maxX || end.Y > maxY {
			continue
		}
		if err := s.store.SetSelected(o, true); err != nil {
			return nil, err
		}
		picked = append(picked, o)
	}
	return picked, nil
}

// Cancel aborts the current gesture. A drag puts back the recorded geometry
// or, for objects created by the drag, deletes them; an arrow being drawn is
// dropped and its start selected. When idle it clears editing, or else the
// selection.
func (s *Session) Cancel() error {
	switch st := s.state.(type) {
	case Dragging:
		s.state = Cancelled{}
		for _, o := range st.Objects {
			o.Dragging = false
			if o.TentativePosition == nil || o.TentativeSize == nil {
				if _, err := s.Delete(o); err != nil {
					return err
				}
				continue
			}
			o.Position, o.Size = *o.TentativePosition, *o.TentativeSize
			o.TentativePosition, o.TentativeSize = nil, nil
			var moved []*model.Object
			s.store.Visit(o, false, func(n *model.Object) bool {
				moved = append(moved, n)
				return false
			})
			if _, err := s.store.FixArrows(moved, false); err != nil {
				return err
			}
		}
	case DraggingArrowHandle:
		s.state = Cancelled{}
		return s.store.SetSelected(st.Start, true)
	case Idle:
		if s.store.GetEditing() != nil {
			s.store.ClearEditing()
		} else if len(s.store.GetSelected()) > 0 {
			s.store.ClearSelected()
		}
	}
	return nil
}
