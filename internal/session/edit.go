package session

import (
	"fmt"

	"slate-cli/internal/canvas"
	"slate-cli/internal/model"
)

// Select toggles the selection of obj, or sets it to *force when given. An
// object being edited always stays selected. Without keepSelection the rest
// of the selection is cleared first.
func (s *Session) Select(obj *model.Object, keepSelection bool, force *bool) error {
	const op = "select"
	if !s.isIdle() {
		return s.reject(op)
	}
	live, err := s.live(op, obj)
	if err != nil {
		return err
	}
	selected := !live.Selected
	if force != nil {
		selected = *force
	}
	if live.Editing {
		selected = true
	}
	s.store.ClearEditing()
	if !keepSelection {
		s.store.ClearSelected()
	}
	return s.store.SetSelected(live, selected)
}

func (s *Session) ClearSelected() error {
	if !s.isIdle() {
		return s.reject("clear selected")
	}
	s.store.ClearSelected()
	return nil
}

// Edit makes obj the only selected object and starts editing it.
func (s *Session) Edit(obj *model.Object) error {
	const op = "edit"
	if !s.isIdle() {
		return s.reject(op)
	}
	live, err := s.live(op, obj)
	if err != nil {
		return err
	}
	s.store.ClearSelected()
	if err := s.store.SetSelected(live, true); err != nil {
		return err
	}
	return s.store.SetEditing(live)
}

func (s *Session) ClearEditing() error {
	if !s.isIdle() {
		return s.reject("clear editing")
	}
	s.store.ClearEditing()
	return nil
}

// SetText commits edited text. For folders the text is the name. Input
// arriving during a drag or an undo is dropped.
func (s *Session) SetText(obj *model.Object, htmlText string) error {
	const op = "set text"
	switch s.state.(type) {
	case Idle:
	case Undoing, Dragging:
		return nil
	default:
		return s.reject(op)
	}
	live, err := s.live(op, obj)
	if err != nil {
		return err
	}
	switch c := live.Content.(type) {
	case *model.TextContent:
		c.Text = htmlText
	case *model.TitleContent:
		c.Text = htmlText
	case *model.FolderContent:
		c.Name = htmlText
	default:
		return fmt.Errorf("%w: %d is %s", ErrNotEditable, live.ID, live.Kind())
	}
	s.markUnsaved()
	return nil
}

// SetFolderStyle changes the color and icon of a folder.
func (s *Session) SetFolderStyle(obj *model.Object, color, icon string) error {
	const op = "set folder style"
	if !s.isIdle() {
		return s.reject(op)
	}
	live, err := s.live(op, obj)
	if err != nil {
		return err
	}
	f, ok := live.Content.(*model.FolderContent)
	if !ok {
		return fmt.Errorf("session: %s %d: %w", op, live.ID, canvas.ErrNotFolder)
	}
	f.Color, f.Icon = color, icon
	s.markUnsaved()
	return nil
}

// AddContent adds content to the open canvas, or into parent when given.
func (s *Session) AddContent(opts canvas.AddOptions, content model.Content, parent *model.Object) (*model.Object, error) {
	if !s.isIdle() {
		return nil, s.reject("add content")
	}
	if parent != nil {
		return s.store.AddContentWithParent(content, parent, opts)
	}
	return s.store.AddContent(content, opts)
}

// Connect draws an arrow from start to end. Tips take the arrowhead
// padding into account.
func (s *Session) Connect(start, end *model.Object, tipLeft, tipRight bool) (*model.Object, error) {
	const op = "connect"
	if !s.isIdle() {
		return nil, s.reject(op)
	}
	pad := func(tip bool) float64 {
		if tip {
			return canvas.ArrowTipPad
		}
		return 0
	}
	curve, pos, size, err := s.store.CalculateCurveInfo(start, end, pad(tipLeft), pad(tipRight))
	if err != nil {
		return nil, err
	}
	return s.store.AddArrow(
		model.NewArrow(model.ObjectRef(start), model.ObjectRef(end), &curve, tipLeft, tipRight),
		canvas.AddOptions{Position: pos, Size: size})
}

// CloneFolder inserts a copy of a folder and takes a reference on every
// image inside it.
func (s *Session) CloneFolder(opts canvas.AddOptions, oldID int, content *model.FolderContent, parent *model.Object) (*model.Object, error) {
	if !s.isIdle() {
		return nil, s.reject("clone folder")
	}
	folder, err := s.store.CloneFolder(oldID, content, opts, parent)
	if err != nil {
		return nil, err
	}
	s.moveImageRefs(folder, +1)
	return folder, nil
}

// Delete removes obj as canvas.Store.DeleteObject does and releases the
// images it held.
func (s *Session) Delete(obj *model.Object) ([]int, error) {
	switch s.state.(type) {
	case Idle, Cancelled:
	default:
		return nil, s.reject("delete")
	}
	live, err := s.live("delete", obj)
	if err != nil {
		return nil, err
	}
	ids, err := s.store.DeleteObject(live)
	if err != nil {
		return nil, err
	}
	s.moveImageRefs(live, -1)
	return ids, nil
}

// SetCurrentRoot opens folder, or the top of the document when nil, and
// moves the viewport to where it was last left in that folder.
func (s *Session) SetCurrentRoot(folder *model.Object, addToHistory, trivial bool) error {
	if !s.isIdle() {
		return s.reject("set current root")
	}
	if err := s.store.SetCurrentRoot(folder); err != nil {
		return err
	}
	s.recenter(s.store.CurrentRoot().ID)
	if addToHistory {
		return s.AddMomentToHistory(trivial)
	}
	return nil
}

// AddMomentToHistory records the document and the asset counts as one
// undo step. Trivial moments do not mark the document unsaved.
func (s *Session) AddMomentToHistory(trivial bool) error {
	switch s.state.(type) {
	case Idle, JustDropped:
	default:
		return s.reject("add moment to history")
	}
	s.store.AddSnapshotToHistory(trivial)
	s.assets.AddRefCountToHistory()
	if !trivial {
		s.markUnsaved()
	}
	return nil
}

func (s *Session) SetHeight(obj *model.Object, h float64) error {
	switch s.state.(type) {
	case Resizing, Dragging, Idle:
	default:
		return s.reject("set height")
	}
	return s.store.SetHeight(obj, h)
}

// Undo steps the document back one moment, then the asset counts.
func (s *Session) Undo() error {
	if !s.isIdle() {
		return s.reject("undo")
	}
	s.state = Undoing{}
	defer func() { s.state = Idle{} }()

	rootChanged, trivial, err := s.store.Undo()
	if err != nil {
		return err
	}
	if err := s.assets.Undo(); err != nil {
		if _, _, rerr := s.store.Redo(); rerr != nil {
			s.log.Error("document and asset history out of step", "err", rerr)
		}
		return fmt.Errorf("session: undo assets: %w", err)
	}
	if rootChanged {
		s.recenter(s.store.CurrentRoot().ID)
	}
	if !trivial {
		s.markUnsaved()
	}
	return nil
}

// Redo steps the document forward one moment, then the asset counts.
func (s *Session) Redo() error {
	if !s.isIdle() {
		return s.reject("redo")
	}
	s.state = Undoing{}
	defer func() { s.state = Idle{} }()

	rootChanged, trivial, err := s.store.Redo()
	if err != nil {
		return err
	}
	if err := s.assets.Redo(); err != nil {
		if _, _, rerr := s.store.Undo(); rerr != nil {
			s.log.Error("document and asset history out of step", "err", rerr)
		}
		return fmt.Errorf("session: redo assets: %w", err)
	}
	if rootChanged {
		s.recenter(s.store.CurrentRoot().ID)
	}
	if !trivial {
		s.markUnsaved()
	}
	return nil
}
