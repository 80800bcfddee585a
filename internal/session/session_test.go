package session

import (
	"errors"
	"strings"
	"testing"

	"slate-cli/internal/assets"
	"slate-cli/internal/canvas"
	"slate-cli/internal/clipboard"
	"slate-cli/internal/model"
)

type fixture struct {
	s      *Session
	assets *assets.Memory
	clip   *clipboard.Memory
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	as := assets.NewMemory(canvas.HistorySize, nil)
	clip := &clipboard.Memory{}
	s := New(canvas.New(canvas.Options{}), Options{Assets: as, Clipboard: clip})
	if err := s.Open(nil, nil, 0); err != nil {
		t.Fatalf("open: %v", err)
	}
	return fixture{s: s, assets: as, clip: clip}
}

func (f fixture) add(t *testing.T, c model.Content, x, y, w, h float64) *model.Object {
	t.Helper()
	obj, err := f.s.AddContent(canvas.AddOptions{Position: model.Vec2{X: x, Y: y}, Size: model.Size2{W: w, H: h}}, c, nil)
	if err != nil {
		t.Fatalf("add %s: %v", c.Kind(), err)
	}
	return obj
}

func wantState(t *testing.T, s *Session, want string) {
	t.Helper()
	if got := s.State().String(); got != want {
		t.Fatalf("state = %s, want %s", got, want)
	}
}

func TestOutOfOrderEventsRejected(t *testing.T) {
	f := newFixture(t)
	err := f.s.ObjectDragEnd()
	var se *StateError
	if !errors.As(err, &se) {
		t.Fatalf("expected StateError, got %v", err)
	}
	if err.Error() != "session: invalid state for request object drag end (idle)" {
		t.Fatalf("unexpected message: %q", err.Error())
	}

	obj := f.add(t, model.NewText("a"), 0, 0, 90, 30)
	if err := f.s.ObjectDragStart(obj, model.Vec2{}, false); err != nil {
		t.Fatalf("drag start: %v", err)
	}
	if err := f.s.Select(obj, false, nil); !errors.As(err, &se) || se.State != "dragging" {
		t.Fatalf("select while dragging: %v", err)
	}
	if _, err := f.s.BoxSelectEnd(model.Vec2{}, false); err == nil {
		t.Fatalf("expected box select end to be rejected")
	}
}

func TestToolbarDragCancelDeletesObject(t *testing.T) {
	f := newFixture(t)
	obj, err := f.s.ToolbarDragStart(ToolContainer, model.Vec2{X: 400, Y: 300})
	if err != nil {
		t.Fatalf("toolbar drag start: %v", err)
	}
	if len(obj.Children()) != 2 {
		t.Fatalf("expected title and text inside the container, got %d", len(obj.Children()))
	}
	wantState(t, f.s, "dragging")
	if err := f.s.ObjectDragMove(model.Vec2{X: 30, Y: 30}); err != nil {
		t.Fatalf("drag move: %v", err)
	}

	if err := f.s.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	wantState(t, f.s, "cancelled")
	if f.s.Store().GetObject(obj.ID) != nil {
		t.Fatalf("expected toolbar object to be deleted")
	}
	if n := len(f.s.Store().Objects()); n != 0 {
		t.Fatalf("expected empty canvas, got %d objects", n)
	}
	// moves after a cancel are ignored until the gesture ends
	if err := f.s.ObjectDragMove(model.Vec2{X: 5}); err != nil {
		t.Fatalf("drag move after cancel: %v", err)
	}
	if err := f.s.ObjectDragEnd(); err != nil {
		t.Fatalf("drag end: %v", err)
	}
	wantState(t, f.s, "idle")
}

func TestToolbarUnknownTool(t *testing.T) {
	f := newFixture(t)
	if _, err := f.s.ToolbarDragStart(Tool("sticker"), model.Vec2{}); !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
}

func TestDragCancelRestoresGeometry(t *testing.T) {
	f := newFixture(t)
	obj := f.add(t, model.NewText("a"), 0, 0, 90, 30)
	if err := f.s.ObjectDragStart(obj, model.Vec2{}, true); err != nil {
		t.Fatalf("drag start: %v", err)
	}
	if err := f.s.ObjectDragMove(model.Vec2{X: 50, Y: 20}); err != nil {
		t.Fatalf("drag move: %v", err)
	}
	if obj.Position != (model.Vec2{X: 50, Y: 20}) {
		t.Fatalf("unexpected position while dragging: %+v", obj.Position)
	}
	if err := f.s.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if obj.Position != (model.Vec2{}) || obj.Size != (model.Size2{W: 90, H: 30}) {
		t.Fatalf("geometry not restored: %+v %+v", obj.Position, obj.Size)
	}
	if obj.TentativePosition != nil || obj.Dragging {
		t.Fatalf("drag flags left behind")
	}
}

func TestDragEndRecordsMoment(t *testing.T) {
	f := newFixture(t)
	if f.s.SaveState() != SaveLoaded {
		t.Fatalf("expected loaded, got %s", f.s.SaveState())
	}
	obj := f.add(t, model.NewText("a"), 0, 0, 90, 30)
	if err := f.s.AddMomentToHistory(false); err != nil {
		t.Fatalf("moment: %v", err)
	}

	if err := f.s.SetViewportZoom(2); err != nil {
		t.Fatalf("zoom: %v", err)
	}
	if err := f.s.ObjectDragStart(obj, model.Vec2{}, true); err != nil {
		t.Fatalf("drag start: %v", err)
	}
	if err := f.s.ObjectDragMove(model.Vec2{X: 90, Y: 60}); err != nil {
		t.Fatalf("drag move: %v", err)
	}
	if err := f.s.ObjectDragEnd(); err != nil {
		t.Fatalf("drag end: %v", err)
	}
	wantState(t, f.s, "idle")
	if obj.Position != (model.Vec2{X: 45, Y: 30}) {
		t.Fatalf("expected zoom-scaled snapped position, got %+v", obj.Position)
	}
	if f.s.SaveState() != SaveUnsaved {
		t.Fatalf("expected unsaved, got %s", f.s.SaveState())
	}

	if err := f.s.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	wantState(t, f.s, "idle")
	if got := f.s.Store().GetObject(obj.ID).Position; got != (model.Vec2{}) {
		t.Fatalf("undo did not restore position: %+v", got)
	}
	if err := f.s.Redo(); err != nil {
		t.Fatalf("redo: %v", err)
	}
	if got := f.s.Store().GetObject(obj.ID).Position; got != (model.Vec2{X: 45, Y: 30}) {
		t.Fatalf("redo did not reapply position: %+v", got)
	}
}

func TestDragEndInNestedFolder(t *testing.T) {
	f := newFixture(t)
	folder := f.add(t, model.EmptyFolder("f", "", ""), 0, 0, 90, 105)
	if err := f.s.SetCurrentRoot(folder, false, false); err != nil {
		t.Fatalf("open folder: %v", err)
	}
	obj := f.add(t, model.NewText("a"), 0, 0, 90, 30)

	if err := f.s.ObjectDragStart(obj, model.Vec2{}, true); err != nil {
		t.Fatalf("drag start: %v", err)
	}
	if err := f.s.ObjectDragMove(model.Vec2{X: 90, Y: 60}); err != nil {
		t.Fatalf("drag move: %v", err)
	}
	if err := f.s.ObjectDragEnd(); err != nil {
		t.Fatalf("drag end: %v", err)
	}
	wantState(t, f.s, "idle")
	if !obj.IsRoot || *obj.ParentID != folder.ID {
		t.Fatalf("expected object to stay in folder %d", folder.ID)
	}
	if obj.Position == (model.Vec2{}) {
		t.Fatalf("object did not move")
	}
}

func TestDropIntoContainer(t *testing.T) {
	f := newFixture(t)
	box := f.add(t, model.EmptyContainer(""), 0, 0, 300, 60)
	text := f.add(t, model.NewText("a"), 600, 0, 90, 30)

	if err := f.s.ObjectDragStart(text, model.Vec2{}, true); err != nil {
		t.Fatalf("drag start: %v", err)
	}
	if err := f.s.ObjectDrop(text, 0); !errors.Is(err, ErrNotContainer) {
		t.Fatalf("expected ErrNotContainer, got %v", err)
	}
	if err := f.s.ObjectDrop(box, 0); err != nil {
		t.Fatalf("drop: %v", err)
	}
	wantState(t, f.s, "just-dropped")
	if kids := box.Children(); len(kids) != 1 || kids[0].ID != text.ID {
		t.Fatalf("text not moved into container: %v", kids)
	}
	if text.IsRoot {
		t.Fatalf("nested text should not be top-level")
	}
	if err := f.s.ObjectDragEnd(); err != nil {
		t.Fatalf("drag end: %v", err)
	}
	wantState(t, f.s, "idle")
	if !f.s.Store().CanUndo() {
		t.Fatalf("drop should be undoable")
	}
}

func TestArrowHandle(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, model.NewText("a"), 0, 0, 90, 30)
	b := f.add(t, model.NewText("b"), 300, 0, 90, 30)
	if err := f.s.Select(a, false, nil); err != nil {
		t.Fatalf("select: %v", err)
	}

	if err := f.s.ArrowHandleDragStart(model.Vec2{X: 150, Y: 15}, a); err != nil {
		t.Fatalf("handle start: %v", err)
	}
	if len(f.s.Store().GetSelected()) != 0 {
		t.Fatalf("drawing an arrow should clear the selection")
	}
	if err := f.s.ArrowHandleDragMove(model.Vec2{X: 250, Y: 15}, b); err != nil {
		t.Fatalf("handle move: %v", err)
	}
	h := f.s.ArrowHandle()
	if h == nil || h.Start.ID != a.ID || h.Hovering.ID != b.ID {
		t.Fatalf("unexpected handle: %+v", h)
	}

	arrow, err := f.s.ArrowHandleDrop(b)
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	c := arrow.Content.(*model.ArrowContent)
	if c.Start.ID() != a.ID || c.End.ID() != b.ID || c.Curve == nil {
		t.Fatalf("unexpected arrow: %+v", c)
	}
	wantState(t, f.s, "just-dropped")
	if err := f.s.ArrowHandleDragEnd(); err != nil {
		t.Fatalf("handle end: %v", err)
	}
	wantState(t, f.s, "idle")
}

func TestArrowHandleCancelSelectsStart(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, model.NewText("a"), 0, 0, 90, 30)
	if err := f.s.ArrowHandleDragStart(model.Vec2{X: 150, Y: 15}, a); err != nil {
		t.Fatalf("handle start: %v", err)
	}
	if err := f.s.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !a.Selected {
		t.Fatalf("expected start object to be selected after cancel")
	}
	if arrow, err := f.s.ArrowHandleDrop(a); arrow != nil || err != nil {
		t.Fatalf("drop after cancel should be ignored, got %v %v", arrow, err)
	}
	if err := f.s.ArrowHandleDragEnd(); err != nil {
		t.Fatalf("handle end: %v", err)
	}
	wantState(t, f.s, "idle")
}

func TestResize(t *testing.T) {
	f := newFixture(t)
	obj := f.add(t, model.NewImage("", true), 0, 0, 90, 90)
	if err := f.s.ObjectResizeStart(obj); err != nil {
		t.Fatalf("resize start: %v", err)
	}
	wantState(t, f.s, "resizing")
	if err := f.s.ObjectResizeMove(obj, model.Size2{W: 30, H: 15}, model.Vec2{}); err != nil {
		t.Fatalf("resize move: %v", err)
	}
	if obj.Size != (model.Size2{W: 120, H: 105}) {
		t.Fatalf("unexpected size while resizing: %+v", obj.Size)
	}
	if err := f.s.ObjectResizeEnd(obj); err != nil {
		t.Fatalf("resize end: %v", err)
	}
	wantState(t, f.s, "idle")
	if obj.Resizing || obj.TentativeSize != nil {
		t.Fatalf("resize flags left behind")
	}
	if f.s.SaveState() != SaveUnsaved {
		t.Fatalf("expected unsaved after resize")
	}
}

func TestBoxSelect(t *testing.T) {
	f := newFixture(t)
	in := f.add(t, model.NewText("in"), 0, 0, 90, 30)
	f.add(t, model.NewText("out"), 300, 0, 90, 30)
	if err := f.s.BoxSelectStart(model.Vec2{X: 100, Y: 50}); err != nil {
		t.Fatalf("box start: %v", err)
	}
	wantState(t, f.s, "box-selecting")
	picked, err := f.s.BoxSelectEnd(model.Vec2{X: -10, Y: -10}, false)
	if err != nil {
		t.Fatalf("box end: %v", err)
	}
	if len(picked) != 1 || picked[0].ID != in.ID || !in.Selected {
		t.Fatalf("unexpected pick: %v", picked)
	}
}

func TestSetTextAndStyle(t *testing.T) {
	f := newFixture(t)
	text := f.add(t, model.NewText("a"), 0, 0, 90, 30)
	folder := f.add(t, model.EmptyFolder("f", "red", ""), 200, 0, 90, 105)
	box := f.add(t, model.EmptyContainer(""), 400, 0, 90, 90)

	if err := f.s.SetText(text, "<b>b</b>"); err != nil {
		t.Fatalf("set text: %v", err)
	}
	if got := text.Content.(*model.TextContent).Text; got != "<b>b</b>" {
		t.Fatalf("text = %q", got)
	}
	if err := f.s.SetText(folder, "Notes"); err != nil {
		t.Fatalf("set folder name: %v", err)
	}
	if err := f.s.SetText(box, "x"); !errors.Is(err, ErrNotEditable) {
		t.Fatalf("expected ErrNotEditable, got %v", err)
	}
	if err := f.s.SetFolderStyle(folder, "blue", "star"); err != nil {
		t.Fatalf("set style: %v", err)
	}
	fc := folder.Content.(*model.FolderContent)
	if fc.Name != "Notes" || fc.Color != "blue" || fc.Icon != "star" {
		t.Fatalf("unexpected folder: %+v", fc)
	}
	if err := f.s.SetFolderStyle(text, "blue", ""); !errors.Is(err, canvas.ErrNotFolder) {
		t.Fatalf("expected ErrNotFolder, got %v", err)
	}
}

func TestTrivialRootChangeKeepsSaveState(t *testing.T) {
	f := newFixture(t)
	folder := f.add(t, model.EmptyFolder("f", "red", ""), 0, 0, 90, 105)
	if err := f.s.Save(func(canvas.Snapshot) error { return nil }); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := f.s.SetCurrentRoot(folder, true, true); err != nil {
		t.Fatalf("open folder: %v", err)
	}
	if f.s.SaveState() != SaveSaved {
		t.Fatalf("trivial moment changed save state to %s", f.s.SaveState())
	}
	if err := f.s.SetViewportOffset(model.Vec2{X: 7, Y: 9}); err != nil {
		t.Fatalf("offset: %v", err)
	}
	if err := f.s.SetCurrentRoot(nil, true, true); err != nil {
		t.Fatalf("close folder: %v", err)
	}
	if err := f.s.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if f.s.Store().CurrentRoot().ID != folder.ID {
		t.Fatalf("undo should reopen the folder")
	}
	if f.s.Offset() != (model.Vec2{X: 7, Y: 9}) {
		t.Fatalf("expected remembered offset, got %+v", f.s.Offset())
	}
	if f.s.SaveState() != SaveSaved {
		t.Fatalf("undoing a trivial moment changed save state to %s", f.s.SaveState())
	}
}

func TestSaveStates(t *testing.T) {
	f := newFixture(t)
	f.add(t, model.NewText("a"), 0, 0, 90, 30)
	if err := f.s.AddMomentToHistory(false); err != nil {
		t.Fatalf("moment: %v", err)
	}
	boom := errors.New("disk full")
	if err := f.s.Save(func(canvas.Snapshot) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if f.s.SaveState() != SaveError {
		t.Fatalf("expected save-error, got %s", f.s.SaveState())
	}
	var saved canvas.Snapshot
	if err := f.s.Save(func(s canvas.Snapshot) error { saved = s; return nil }); err != nil {
		t.Fatalf("save: %v", err)
	}
	if f.s.SaveState() != SaveSaved || saved.LastObjectID != 1 {
		t.Fatalf("unexpected save: %s %+v", f.s.SaveState(), saved)
	}
}

func TestImageRefCounts(t *testing.T) {
	f := newFixture(t)
	h, err := f.assets.CreateImage([]byte("png"))
	if err != nil {
		t.Fatalf("create image: %v", err)
	}
	img := f.add(t, model.NewImage(h, false), 0, 0, 90, 90)
	if err := f.s.AddMomentToHistory(false); err != nil {
		t.Fatalf("moment: %v", err)
	}
	if _, err := f.s.Delete(img); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.s.AddMomentToHistory(false); err != nil {
		t.Fatalf("moment: %v", err)
	}
	if n := f.assets.ImageRefCount(h); n != 0 {
		t.Fatalf("ref count after delete = %d", n)
	}
	if err := f.assets.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, ok := f.assets.LoadedImageData(h); !ok {
		t.Fatalf("image referenced by history must survive commit")
	}

	if err := f.s.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if n := f.assets.ImageRefCount(h); n != 1 {
		t.Fatalf("ref count after undo = %d", n)
	}
	if f.s.Store().GetObject(img.ID) == nil {
		t.Fatalf("undo should restore the image")
	}
	if err := f.s.Redo(); err != nil {
		t.Fatalf("redo: %v", err)
	}
	if n := f.assets.ImageRefCount(h); n != 0 {
		t.Fatalf("ref count after redo = %d", n)
	}
}

func TestCloneFolderTakesImageRefs(t *testing.T) {
	f := newFixture(t)
	h, err := f.assets.CreateImage([]byte("png"))
	if err != nil {
		t.Fatalf("create image: %v", err)
	}
	folder := f.add(t, model.EmptyFolder("f", "red", ""), 0, 0, 90, 105)
	if err := f.s.SetCurrentRoot(folder, false, false); err != nil {
		t.Fatalf("open folder: %v", err)
	}
	f.add(t, model.NewImage(h, false), 0, 0, 90, 90)
	if err := f.s.SetCurrentRoot(nil, false, false); err != nil {
		t.Fatalf("close folder: %v", err)
	}

	clone, err := f.s.CloneFolder(canvas.AddOptions{Position: model.Vec2{X: 200}}, folder.ID, folder.Content.(*model.FolderContent), nil)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if clone.ID == folder.ID || len(clone.Children()) != 1 {
		t.Fatalf("unexpected clone: %+v", clone)
	}
	if n := f.assets.ImageRefCount(h); n != 2 {
		t.Fatalf("ref count after clone = %d", n)
	}
	if _, err := f.s.Delete(clone); err != nil {
		t.Fatalf("delete clone: %v", err)
	}
	if n := f.assets.ImageRefCount(h); n != 1 {
		t.Fatalf("ref count after deleting clone = %d", n)
	}
}

func TestCopyPasteRoundTrip(t *testing.T) {
	f := newFixture(t)
	h, err := f.assets.CreateImage([]byte("\x89PNG\r\n\x1a\n"))
	if err != nil {
		t.Fatalf("create image: %v", err)
	}
	box := f.add(t, model.EmptyContainer("Plan"), 0, 0, 300, 90)
	if _, err := f.s.AddContent(canvas.AddOptions{Size: model.Size2{W: 280, H: 30}}, model.NewText("step one"), box); err != nil {
		t.Fatalf("add child: %v", err)
	}
	img := f.add(t, model.NewImage(h, false), 400, 0, 90, 90)
	arrow, err := f.s.Connect(box, img, false, true)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	for _, o := range []*model.Object{arrow, box, img} {
		if err := f.s.Select(o, true, nil); err != nil {
			t.Fatalf("select: %v", err)
		}
	}
	if err := f.s.CopySelected(); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if !strings.Contains(f.clip.Content.Text, "step one") {
		t.Fatalf("plain text missing child text: %q", f.clip.Content.Text)
	}

	lastID := f.s.Store().LastObjectID()
	added, err := f.s.Paste(false)
	if err != nil {
		t.Fatalf("paste: %v", err)
	}
	if len(added) != 4 {
		t.Fatalf("expected container, text, image and arrow, got %d", len(added))
	}
	for _, o := range added {
		if o.ID <= lastID {
			t.Fatalf("pasted object reused id %d", o.ID)
		}
	}
	sel := f.s.Store().GetSelected()
	if len(sel) != 3 {
		t.Fatalf("expected the three top-level copies selected, got %d", len(sel))
	}
	last := added[len(added)-1]
	c, ok := last.Content.(*model.ArrowContent)
	if !ok {
		t.Fatalf("arrows are pasted last, got %s", last.Kind())
	}
	if c.Start.ID() <= lastID || c.End.ID() <= lastID || !c.TipRight {
		t.Fatalf("arrow not retargeted: %+v", c)
	}
	if n := f.assets.ImageRefCount(h); n != 2 {
		t.Fatalf("ref count after paste = %d", n)
	}
	if f.s.SaveState() != SaveUnsaved {
		t.Fatalf("paste should mark the document unsaved")
	}
}

func TestPasteText(t *testing.T) {
	f := newFixture(t)
	f.clip.Content = clipboard.Content{Text: "one\ntwo"}
	added, err := f.s.Paste(false)
	if err != nil {
		t.Fatalf("paste: %v", err)
	}
	if len(added) != 1 {
		t.Fatalf("expected one object, got %d", len(added))
	}
	if got := added[0].Content.(*model.TextContent).Text; got != "one<br>two" {
		t.Fatalf("text = %q", got)
	}
	want := f.s.Offset().Add(model.Vec2{X: pasteInset, Y: pasteInset})
	if added[0].Position != want {
		t.Fatalf("position = %+v, want %+v", added[0].Position, want)
	}

	f.clip.Content = clipboard.Content{HTML: "<p>hello</p>", Text: "hello"}
	added, err = f.s.Paste(false)
	if err != nil {
		t.Fatalf("paste html: %v", err)
	}
	if got := added[0].Content.(*model.TextContent).Text; got != "<p>hello</p>" {
		t.Fatalf("foreign html should paste as text, got %q", got)
	}
	added, err = f.s.Paste(true)
	if err != nil {
		t.Fatalf("paste as text: %v", err)
	}
	if got := added[0].Content.(*model.TextContent).Text; got != "hello" {
		t.Fatalf("paste as text = %q", got)
	}
}

func TestPasteImage(t *testing.T) {
	f := newFixture(t)
	f.clip.Content = clipboard.Content{Image: &clipboard.Image{Data: []byte("png"), Size: model.Size2{W: 64, H: 48}}}
	added, err := f.s.Paste(false)
	if err != nil {
		t.Fatalf("paste: %v", err)
	}
	img := added[0].Content.(*model.ImageContent)
	if f.assets.ImageRefCount(img.Handle) != 1 {
		t.Fatalf("pasted image should hold one reference")
	}
	if added[0].Size != (model.Size2{W: 64, H: 48}) {
		t.Fatalf("size = %+v", added[0].Size)
	}
}

func TestPasteIgnoredWhileEditing(t *testing.T) {
	f := newFixture(t)
	obj := f.add(t, model.NewText("a"), 0, 0, 90, 30)
	if err := f.s.Edit(obj); err != nil {
		t.Fatalf("edit: %v", err)
	}
	f.clip.Content = clipboard.Content{Text: "b"}
	if added, err := f.s.Paste(false); added != nil || err != nil {
		t.Fatalf("paste while editing should do nothing, got %v %v", added, err)
	}
	if err := f.s.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if f.s.Store().GetEditing() != nil {
		t.Fatalf("cancel should stop editing")
	}
}

func TestOpenWithHistory(t *testing.T) {
	f := newFixture(t)
	folder := f.add(t, model.EmptyFolder("f", "red", ""), 0, 0, 90, 105)
	if err := f.s.SetCurrentRoot(folder, true, false); err != nil {
		t.Fatalf("open folder: %v", err)
	}
	entries, head := f.s.Store().HistoryEntries()
	counts, countsHead := f.assets.History()

	as := assets.NewMemory(canvas.HistorySize, nil)
	if err := as.RestoreHistory(counts, countsHead); err != nil {
		t.Fatalf("restore counts: %v", err)
	}
	s := New(canvas.New(canvas.Options{}), Options{Assets: as})
	if err := s.Open(nil, entries, head); err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Store().CurrentRoot().ID != folder.ID {
		t.Fatalf("expected folder %d open, got %d", folder.ID, s.Store().CurrentRoot().ID)
	}
	if err := s.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if s.Store().CurrentRoot().ID == folder.ID {
		t.Fatalf("undo should leave the folder")
	}
	if s.SaveState() != SaveUnsaved {
		t.Fatalf("expected unsaved after undo")
	}
}
