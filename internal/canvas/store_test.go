package canvas

import (
	"errors"
	"reflect"
	"testing"

	"slate-cli/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(Options{})
}

func mustAdd(t *testing.T, s *Store, c model.Content, opts AddOptions) *model.Object {
	t.Helper()
	obj, err := s.AddContent(c, opts)
	if err != nil {
		t.Fatalf("add %s: %v", c.Kind(), err)
	}
	return obj
}

func sized(w, h float64) AddOptions {
	return AddOptions{Size: model.Size2{W: w, H: h}}
}

func ids(objs []*model.Object) []int {
	out := make([]int, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.ID)
	}
	return out
}

func TestDefaultRoot(t *testing.T) {
	s := newTestStore(t)
	root := s.Root()
	f, ok := root.Content.(*model.FolderContent)
	if !ok || root.ID != 0 || f.Name != "Home" || f.Color != "white" || root.ParentID != nil || root.IsRoot {
		t.Fatalf("unexpected default root %+v", root)
	}
	if s.CurrentRoot() != root {
		t.Fatalf("expected current root to be the absolute root")
	}
	want := model.NewBox(-1200, -1200, 2400, 2400)
	if s.Bounds() != want {
		t.Fatalf("empty bounds: got %+v, want %+v", s.Bounds(), want)
	}
}

func TestAddThenDeleteContainer(t *testing.T) {
	s := newTestStore(t)
	c := mustAdd(t, s, model.EmptyContainer("c"), AddOptions{})
	if c.ID != 1 {
		t.Fatalf("expected id 1, got %d", c.ID)
	}
	txt, err := s.AddContentWithParent(model.NewText("hi"), c, AddOptions{})
	if err != nil {
		t.Fatalf("add with parent: %v", err)
	}
	if txt.ID != 2 || txt.ParentID == nil || *txt.ParentID != 1 || txt.IsRoot {
		t.Fatalf("unexpected child %+v", txt)
	}

	deleted, err := s.DeleteObject(c)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !reflect.DeepEqual(deleted, []int{1, 2}) {
		t.Fatalf("expected [1 2] deleted, got %v", deleted)
	}
	if s.GetObject(1) != nil || s.GetObject(2) != nil {
		t.Fatalf("expected objects gone from index")
	}
	if len(s.Root().Children()) != 0 {
		t.Fatalf("expected empty root")
	}
}

func TestAddCopiesContent(t *testing.T) {
	s := newTestStore(t)
	content := model.NewText("a")
	obj := mustAdd(t, s, content, AddOptions{})
	content.Text = "b"
	if obj.Content.(*model.TextContent).Text != "a" {
		t.Fatalf("store aliased caller content")
	}
}

func TestAddRejectsArrowContent(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddContent(model.NewArrow(model.IDRef(0), model.IDRef(0), nil, false, false), AddOptions{})
	if !errors.Is(err, ErrNotAddable) {
		t.Fatalf("expected ErrNotAddable, got %v", err)
	}
}

func TestDeleteCascadesArrows(t *testing.T) {
	s := newTestStore(t)
	a := mustAdd(t, s, model.NewText("a"), sized(90, 30))
	b := mustAdd(t, s, model.NewText("b"), AddOptions{Position: model.Vec2{X: 300}, Size: model.Size2{W: 90, H: 30}})
	arrow, err := s.AddArrow(model.NewArrow(model.ObjectRef(a), model.ObjectRef(b), nil, false, false), AddOptions{})
	if err != nil {
		t.Fatalf("add arrow: %v", err)
	}
	if !arrow.IsRoot {
		t.Fatalf("expected arrow to be top level")
	}

	deleted, err := s.DeleteObject(a)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !reflect.DeepEqual(deleted, []int{a.ID, arrow.ID}) {
		t.Fatalf("expected %v, got %v", []int{a.ID, arrow.ID}, deleted)
	}
	if s.GetObject(arrow.ID) != nil {
		t.Fatalf("expected arrow removed")
	}
	if s.GetObject(b.ID) == nil {
		t.Fatalf("expected b to survive")
	}
}

func TestAddArrowRequiresLiveEndpoints(t *testing.T) {
	s := newTestStore(t)
	a := mustAdd(t, s, model.NewText("a"), AddOptions{})
	_, err := s.AddArrow(model.NewArrow(model.ObjectRef(a), model.IDRef(42), nil, false, false), AddOptions{})
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
	if s.LastObjectID() != a.ID {
		t.Fatalf("failed add must not consume ids")
	}
}

func TestIDCollision(t *testing.T) {
	s := newTestStore(t)
	mustAdd(t, s, model.NewText("a"), AddOptions{})
	s.lastID = 0

	_, err := s.AddContent(model.NewText("b"), AddOptions{})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	var ce *Error
	if !errors.As(err, &ce) || ce.Op != "add content" {
		t.Fatalf("expected qualified error, got %v", err)
	}
	if len(s.Root().Children()) != 1 {
		t.Fatalf("failed add must not touch the tree")
	}
}

func TestSelectionExclusivity(t *testing.T) {
	s := newTestStore(t)
	c := mustAdd(t, s, model.EmptyContainer("c"), sized(330, 0))
	inner, err := s.AddContentWithParent(model.EmptyContainer("inner"), c, AddOptions{})
	if err != nil {
		t.Fatalf("add inner: %v", err)
	}
	leaf, err := s.AddContentWithParent(model.NewText("t"), inner, AddOptions{})
	if err != nil {
		t.Fatalf("add leaf: %v", err)
	}

	steps := []struct {
		obj  *model.Object
		sel  bool
		want []int
	}{
		{leaf, true, []int{leaf.ID}},
		{c, true, []int{c.ID}},
		{leaf, true, []int{leaf.ID}},
		{leaf, true, []int{leaf.ID}},
		{inner, true, []int{inner.ID}},
		{inner, false, []int{}},
		{inner, false, []int{}},
	}
	for i, st := range steps {
		if err := s.SetSelected(st.obj, st.sel); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got := ids(s.GetSelected()); !reflect.DeepEqual(got, st.want) {
			t.Fatalf("step %d: selected %v, want %v", i, got, st.want)
		}
		for _, o := range []*model.Object{c, inner, leaf} {
			in := false
			for _, id := range st.want {
				in = in || id == o.ID
			}
			if o.Selected != in {
				t.Fatalf("step %d: object %d selected flag %v, want %v", i, o.ID, o.Selected, in)
			}
		}
	}

	ghost := model.NewObject(99, model.Vec2{}, model.Size2{}, model.NewText(""), nil, true)
	if err := s.SetSelected(ghost, true); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestSelectedOnAddAndEditing(t *testing.T) {
	s := newTestStore(t)
	var events []EventKind
	cancel := s.Subscribe(func(ev Event) { events = append(events, ev.Kind) })
	defer cancel()

	a := mustAdd(t, s, model.NewText("a"), AddOptions{Selected: true})
	if got := ids(s.GetSelected()); !reflect.DeepEqual(got, []int{a.ID}) {
		t.Fatalf("expected new object selected, got %v", got)
	}
	b := mustAdd(t, s, model.NewText("b"), AddOptions{})
	if err := s.SetEditing(a); err != nil {
		t.Fatalf("edit a: %v", err)
	}
	if err := s.SetEditing(b); err != nil {
		t.Fatalf("edit b: %v", err)
	}
	if a.Editing || !b.Editing || s.GetEditing() != b {
		t.Fatalf("expected only b editing")
	}
	s.ClearEditing()
	if b.Editing || s.GetEditing() != nil {
		t.Fatalf("expected editing cleared")
	}

	seen := map[EventKind]bool{}
	for _, k := range events {
		seen[k] = true
	}
	for _, k := range []EventKind{EventSelected, EventEditing, EventBounds} {
		if !seen[k] {
			t.Fatalf("expected %s event", k)
		}
	}
}

func TestCrossFolderGuard(t *testing.T) {
	s := newTestStore(t)
	folder := mustAdd(t, s, model.EmptyFolder("f", "red", ""), AddOptions{})
	if err := s.SetCurrentRoot(folder); err != nil {
		t.Fatalf("open folder: %v", err)
	}
	inner := mustAdd(t, s, model.EmptyContainer("k"), sized(330, 0))
	if err := s.SetCurrentRoot(nil); err != nil {
		t.Fatalf("back home: %v", err)
	}

	if _, err := s.AddContentWithParent(model.NewText("x"), inner, AddOptions{}); !errors.Is(err, ErrCrossFolder) {
		t.Fatalf("expected ErrCrossFolder, got %v", err)
	}
	if _, err := s.AddContentWithParent(model.NewText("x"), folder, AddOptions{}); !errors.Is(err, ErrCrossFolder) {
		t.Fatalf("expected ErrCrossFolder for nested folder, got %v", err)
	}
	txt := mustAdd(t, s, model.NewText("y"), AddOptions{})
	if err := s.SetParents([]*model.Object{txt}, inner, -1); !errors.Is(err, ErrCrossFolder) {
		t.Fatalf("expected ErrCrossFolder on reparent, got %v", err)
	}
	ghost := model.NewObject(500, model.Vec2{}, model.Size2{}, model.EmptyContainer(""), nil, true)
	if _, err := s.AddContentWithParent(model.NewText("x"), ghost, AddOptions{}); !errors.Is(err, ErrParentNotInCanvas) {
		t.Fatalf("expected ErrParentNotInCanvas, got %v", err)
	}
}

func TestSetCurrentRootPathAndIndex(t *testing.T) {
	s := newTestStore(t)
	f1 := mustAdd(t, s, model.EmptyFolder("f1", "", ""), AddOptions{})
	if err := s.SetCurrentRoot(f1); err != nil {
		t.Fatalf("open f1: %v", err)
	}
	c := mustAdd(t, s, model.EmptyContainer("c"), sized(330, 0))
	f2, err := s.AddContentWithParent(model.EmptyFolder("f2", "", ""), c, AddOptions{})
	if err != nil {
		t.Fatalf("add f2: %v", err)
	}
	if f2.IsRoot {
		t.Fatalf("folder inside a container is not top level")
	}
	if err := s.SetCurrentRoot(nil); err != nil {
		t.Fatalf("home: %v", err)
	}
	if s.GetObject(c.ID) != nil {
		t.Fatalf("objects inside f1 must not be indexed from home")
	}

	if err := s.SetCurrentRootID(f2.ID); err != nil {
		t.Fatalf("open f2: %v", err)
	}
	if got := ids(s.Path()); !reflect.DeepEqual(got, []int{0, f1.ID, f2.ID}) {
		t.Fatalf("unexpected path %v", got)
	}
	if err := s.SetCurrentRootID(c.ID); !errors.Is(err, ErrNotFolder) {
		t.Fatalf("expected ErrNotFolder, got %v", err)
	}
	if err := s.SetCurrentRootID(1234); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestDeleteRootRejected(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.DeleteObject(s.Root()); !errors.Is(err, ErrDeleteRoot) {
		t.Fatalf("expected ErrDeleteRoot, got %v", err)
	}
	f := mustAdd(t, s, model.EmptyFolder("f", "", ""), AddOptions{})
	if err := s.SetCurrentRoot(f); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.DeleteObject(f); !errors.Is(err, ErrDeleteRoot) {
		t.Fatalf("expected ErrDeleteRoot for current root, got %v", err)
	}
}

func TestDeleteFolderIsSingleUnit(t *testing.T) {
	s := newTestStore(t)
	f := mustAdd(t, s, model.EmptyFolder("f", "", ""), AddOptions{})
	if err := s.SetCurrentRoot(f); err != nil {
		t.Fatalf("open: %v", err)
	}
	mustAdd(t, s, model.NewText("inside"), AddOptions{})
	if err := s.SetCurrentRoot(nil); err != nil {
		t.Fatalf("home: %v", err)
	}
	deleted, err := s.DeleteObject(f)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !reflect.DeepEqual(deleted, []int{f.ID}) {
		t.Fatalf("expected only the folder id, got %v", deleted)
	}
}

func TestCloneFolderRetargetsArrows(t *testing.T) {
	s := newTestStore(t)
	t1 := model.NewObject(10, model.Vec2{}, model.Size2{W: 90, H: 30}, model.NewText("a"), model.IntPtr(5), true)
	t2 := model.NewObject(11, model.Vec2{X: 200}, model.Size2{W: 90, H: 30}, model.NewText("b"), model.IntPtr(5), true)
	arrow := model.NewObject(12, model.Vec2{}, model.Size2{}, model.NewArrow(model.IDRef(10), model.IDRef(11), nil, false, true), model.IntPtr(5), true)
	content := &model.FolderContent{Name: "copy", Objects: []*model.Object{t1, t2, arrow}}

	clone, err := s.CloneFolder(5, content, AddOptions{}, nil)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if s.LastObjectID() != 4 {
		t.Fatalf("expected 4 ids used, got %d", s.LastObjectID())
	}
	if s.GetObject(clone.ID) == nil {
		t.Fatalf("expected clone indexed")
	}
	for _, c := range clone.Children() {
		if s.GetObject(c.ID) != nil {
			t.Fatalf("folder contents must stay out of the index, found %d", c.ID)
		}
	}
	if len(content.Objects) != 3 || content.Objects[0] != t1 {
		t.Fatalf("input content was modified")
	}

	if err := s.SetCurrentRoot(clone); err != nil {
		t.Fatalf("open clone: %v", err)
	}
	kids := clone.Children()
	a := kids[2].Content.(*model.ArrowContent)
	if a.Start.Object() != kids[0] || a.End.Object() != kids[1] {
		t.Fatalf("arrow not retargeted: %s -> %s", a.Start, a.End)
	}
	if kids[0].ID == 10 || *kids[2].ParentID != clone.ID {
		t.Fatalf("expected fresh ids and parent ids")
	}
}

func TestSetParentsMovesAndReorders(t *testing.T) {
	s := newTestStore(t)
	c := mustAdd(t, s, model.EmptyContainer("c"), sized(330, 0))
	a := mustAdd(t, s, model.NewText("a"), sized(100, 30))
	b := mustAdd(t, s, model.NewText("b"), sized(100, 30))

	if err := s.SetParents([]*model.Object{a, b}, c, -1); err != nil {
		t.Fatalf("set parents: %v", err)
	}
	if got := ids(c.Children()); !reflect.DeepEqual(got, []int{a.ID, b.ID}) {
		t.Fatalf("unexpected children %v", got)
	}
	if a.IsRoot || *a.ParentID != c.ID {
		t.Fatalf("expected a nested in c")
	}
	if c.Size.H != 15+40+40+10 {
		t.Fatalf("unexpected container height %v", c.Size.H)
	}
	if a.Position != (model.Vec2{X: 10, Y: 15}) || b.Position != (model.Vec2{X: 10, Y: 55}) || a.Size.W != 308 {
		t.Fatalf("unexpected child layout a=%+v b=%+v", a, b)
	}

	if err := s.SetParents([]*model.Object{b}, c, 0); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if got := ids(c.Children()); !reflect.DeepEqual(got, []int{b.ID, a.ID}) {
		t.Fatalf("unexpected order %v", got)
	}

	if err := s.SetParents([]*model.Object{b}, nil, -1); err != nil {
		t.Fatalf("move out: %v", err)
	}
	if !b.IsRoot || *b.ParentID != 0 {
		t.Fatalf("expected b top level")
	}
	if c.Size.H != 15+40+10 {
		t.Fatalf("expected old parent re-laid out, got %v", c.Size.H)
	}

	if err := s.SetParents([]*model.Object{c}, c, -1); !errors.Is(err, ErrInvalidParent) {
		t.Fatalf("expected ErrInvalidParent, got %v", err)
	}
}

func TestSetParentsInNestedFolder(t *testing.T) {
	s := newTestStore(t)
	f := mustAdd(t, s, model.EmptyFolder("f", "", ""), AddOptions{})
	if err := s.SetCurrentRoot(f); err != nil {
		t.Fatalf("open folder: %v", err)
	}
	c := mustAdd(t, s, model.EmptyContainer("c"), sized(330, 0))
	a, err := s.AddContentWithParent(model.NewText("a"), c, AddOptions{})
	if err != nil {
		t.Fatalf("add a: %v", err)
	}

	if err := s.SetParents([]*model.Object{a}, nil, -1); err != nil {
		t.Fatalf("move out of container: %v", err)
	}
	if !a.IsRoot || *a.ParentID != f.ID {
		t.Fatalf("expected a directly in folder %d, got parent %d", f.ID, *a.ParentID)
	}
	if got := ids(s.CurrentRoot().Children()); !reflect.DeepEqual(got, []int{c.ID, a.ID}) {
		t.Fatalf("unexpected folder children %v", got)
	}
	if len(c.Children()) != 0 {
		t.Fatalf("container still holds %v", ids(c.Children()))
	}

	if err := s.SetParents([]*model.Object{a}, s.CurrentRoot(), 0); err != nil {
		t.Fatalf("reorder in folder: %v", err)
	}
	if got := ids(s.CurrentRoot().Children()); !reflect.DeepEqual(got, []int{a.ID, c.ID}) {
		t.Fatalf("unexpected order %v", got)
	}
	if err := s.SetParents([]*model.Object{a}, c, -1); err != nil {
		t.Fatalf("move back in: %v", err)
	}
	if a.IsRoot || *a.ParentID != c.ID {
		t.Fatalf("expected a nested in c")
	}
}

func TestSelectCurrentRootRejected(t *testing.T) {
	s := newTestStore(t)
	a := mustAdd(t, s, model.NewText("a"), sized(100, 30))
	if err := s.SetSelected(s.CurrentRoot(), true); !errors.Is(err, ErrSelectRoot) {
		t.Fatalf("expected ErrSelectRoot at home, got %v", err)
	}

	f := mustAdd(t, s, model.EmptyFolder("f", "", ""), AddOptions{})
	if err := s.SetCurrentRoot(f); err != nil {
		t.Fatalf("open folder: %v", err)
	}
	if err := s.SetSelected(s.CurrentRoot(), true); !errors.Is(err, ErrSelectRoot) {
		t.Fatalf("expected ErrSelectRoot in folder, got %v", err)
	}
	b := mustAdd(t, s, model.NewText("b"), sized(100, 30))
	if err := s.SetSelected(b, true); err != nil {
		t.Fatalf("select b: %v", err)
	}
	if got := ids(s.GetSelected()); !reflect.DeepEqual(got, []int{b.ID}) {
		t.Fatalf("selected %v, want only %d", got, b.ID)
	}
	if s.CurrentRoot().Selected || a.Selected {
		t.Fatalf("unexpected selected flags")
	}
}

func TestSetPositionDeltaRefreshesBounds(t *testing.T) {
	s := newTestStore(t)
	a := mustAdd(t, s, model.NewText("a"), sized(100, 30))
	before, start := s.Bounds(), a.Position

	var bounds int
	unsubscribe := s.Subscribe(func(e Event) {
		if e.Kind == EventBounds {
			bounds++
		}
	})
	defer unsubscribe()

	if err := s.SetPositionDelta([]*model.Object{a}, model.Vec2{X: 500, Y: 400}); err != nil {
		t.Fatalf("move: %v", err)
	}
	if a.Position != start.Add(model.Vec2{X: 500, Y: 400}) {
		t.Fatalf("unexpected position %+v", a.Position)
	}
	if bounds == 0 || s.Bounds() == before {
		t.Fatalf("bounds not refreshed: %+v (%d events)", s.Bounds(), bounds)
	}

	ghost := model.NewObject(77, model.Vec2{}, model.Size2{}, model.NewText(""), nil, true)
	if err := s.SetPositionDelta([]*model.Object{ghost}, model.Vec2{X: 1}); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
	if ghost.Position != (model.Vec2{}) {
		t.Fatalf("stale object moved")
	}
}

func TestFixLayoutSnapsTopLevel(t *testing.T) {
	s := newTestStore(t)
	txt := mustAdd(t, s, model.NewText("t"), AddOptions{Position: model.Vec2{X: 7, Y: 8}, Size: model.Size2{W: 100, H: 31}})
	img := mustAdd(t, s, model.NewImage("h", false), AddOptions{Size: model.Size2{W: 100, H: 100}})
	folder := mustAdd(t, s, model.EmptyFolder("f", "", ""), sized(90, 105))

	for _, o := range []*model.Object{txt, img, folder} {
		if _, err := s.FixLayout(o, false, true); err != nil {
			t.Fatalf("fix layout: %v", err)
		}
	}
	if txt.Position != (model.Vec2{X: 0, Y: 15}) || txt.Size != (model.Size2{W: 105, H: 31}) {
		t.Fatalf("unexpected text geometry %+v %+v", txt.Position, txt.Size)
	}
	if img.Size != (model.Size2{W: 105, H: 105}) {
		t.Fatalf("unexpected image size %+v", img.Size)
	}
	if folder.Size.W != 180 || folder.Size.H != 105 {
		t.Fatalf("unexpected folder size %+v", folder.Size)
	}
}

func TestMovingEndpointRecomputesArrow(t *testing.T) {
	s := newTestStore(t)
	a := mustAdd(t, s, model.NewText("a"), sized(90, 30))
	b := mustAdd(t, s, model.NewText("b"), AddOptions{Position: model.Vec2{X: 300}, Size: model.Size2{W: 90, H: 30}})
	arrow, err := s.AddArrow(model.NewArrow(model.ObjectRef(a), model.ObjectRef(b), nil, false, true), AddOptions{})
	if err != nil {
		t.Fatalf("add arrow: %v", err)
	}
	if err := s.SetPositionDelta([]*model.Object{b}, model.Vec2{X: 100}); err != nil {
		t.Fatalf("move: %v", err)
	}
	curve := arrow.Content.(*model.ArrowContent).Curve
	if curve == nil {
		t.Fatalf("expected curve computed")
	}
	if got := curve.EX + arrow.Position.X; got != 400-ArrowTipPad {
		t.Fatalf("expected arrow end at %v, got %v", 400-ArrowTipPad, got)
	}
}

func TestSnapshotIdempotent(t *testing.T) {
	s := newTestStore(t)
	a := mustAdd(t, s, model.NewText("a"), sized(90, 30))
	b := mustAdd(t, s, model.NewImage("img", true), AddOptions{Position: model.Vec2{X: 300}, Size: model.Size2{W: 90, H: 90}})
	if _, err := s.AddArrow(model.NewArrow(model.ObjectRef(a), model.ObjectRef(b), nil, true, false), AddOptions{}); err != nil {
		t.Fatalf("add arrow: %v", err)
	}
	f := mustAdd(t, s, model.EmptyFolder("f", "", ""), AddOptions{})
	if err := s.SetCurrentRoot(f); err != nil {
		t.Fatalf("open: %v", err)
	}
	mustAdd(t, s, model.NewText("nested"), AddOptions{})

	first, err := s.CreateSnapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	last := s.LastObjectID()
	for i := 0; i < 3; i++ {
		if err := s.LoadSnapshot(first); err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
		again, err := s.CreateSnapshot()
		if err != nil {
			t.Fatalf("snapshot %d: %v", i, err)
		}
		if again != first {
			t.Fatalf("snapshot changed after load %d:\n%s\n%s", i, first, again)
		}
	}
	if s.LastObjectID() != last {
		t.Fatalf("expected last id %d, got %d", last, s.LastObjectID())
	}
	if s.CurrentRoot().ID != f.ID {
		t.Fatalf("expected current root restored to %d", f.ID)
	}
}

func TestLoadSnapshotErrors(t *testing.T) {
	s := newTestStore(t)
	cases := map[string]string{
		"not json":     `{`,
		"no data":      `{"lastObjectId":1}`,
		"no last id":   `{"data":{"id":0,"position":{"x":0,"y":0},"size":{"w":0,"h":0},"content":{"kind":"text","text":""},"parentId":null,"isRoot":false}}`,
		"root is text": `{"lastObjectId":0,"data":{"id":0,"position":{"x":0,"y":0},"size":{"w":0,"h":0},"content":{"kind":"text","text":""},"parentId":null,"isRoot":false}}`,
		"bad root id":  `{"lastObjectId":0,"currentRootId":7,"data":{"id":0,"position":{"x":0,"y":0},"size":{"w":0,"h":0},"content":{"kind":"folder","name":"Home","color":"white","icon":"","objects":[]},"parentId":null,"isRoot":false}}`,
	}
	for name, input := range cases {
		if err := s.LoadSnapshot(input); !errors.Is(err, ErrSnapshot) {
			t.Fatalf("%s: expected ErrSnapshot, got %v", name, err)
		}
	}
}

func TestLoadFromObjectSetsLastID(t *testing.T) {
	s := newTestStore(t)
	data := model.ObjectData{
		ID: 0,
		Content: model.ContentData{Kind: model.KindFolder, Name: "Home", Objects: []model.ObjectData{
			{ID: 7, Content: model.ContentData{Kind: model.KindText}, ParentID: model.IntPtr(0), IsRoot: true},
		}},
	}
	if err := s.LoadFromObject(data); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.LastObjectID() != 7 {
		t.Fatalf("expected last id 7, got %d", s.LastObjectID())
	}
	obj := mustAdd(t, s, model.NewText("x"), AddOptions{})
	if obj.ID != 8 {
		t.Fatalf("expected next id 8, got %d", obj.ID)
	}
}

func TestUndoRedoInverse(t *testing.T) {
	s := newTestStore(t)
	s.AddSnapshotToHistory(false)
	a := mustAdd(t, s, model.NewText("a"), AddOptions{})
	s.AddSnapshotToHistory(false)
	b := mustAdd(t, s, model.NewText("b"), AddOptions{})
	s.AddSnapshotToHistory(false)
	before, _ := s.CreateSnapshot()

	if _, _, err := s.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if s.GetObject(b.ID) != nil || s.LastObjectID() != a.ID {
		t.Fatalf("expected b undone, last id %d", s.LastObjectID())
	}
	if _, _, err := s.Redo(); err != nil {
		t.Fatalf("redo: %v", err)
	}
	after, _ := s.CreateSnapshot()
	if before != after {
		t.Fatalf("redo did not restore state:\n%s\n%s", before, after)
	}

	if _, _, err := s.Undo(); err != nil {
		t.Fatalf("undo 1: %v", err)
	}
	if _, _, err := s.Undo(); err != nil {
		t.Fatalf("undo 2: %v", err)
	}
	if _, _, err := s.Undo(); err == nil {
		t.Fatalf("expected undo past oldest to fail")
	}
	if len(s.Root().Children()) != 0 {
		t.Fatalf("expected empty document at oldest entry")
	}
	_, _, _ = s.Redo()
	_, _, _ = s.Redo()
	if _, _, err := s.Redo(); err == nil {
		t.Fatalf("expected redo past newest to fail")
	}
}

func TestUndoRestoresCurrentRoot(t *testing.T) {
	s := newTestStore(t)
	f := mustAdd(t, s, model.EmptyFolder("f", "", ""), AddOptions{})
	s.AddSnapshotToHistory(false)
	if err := s.SetCurrentRoot(f); err != nil {
		t.Fatalf("open: %v", err)
	}
	s.AddSnapshotToHistory(true)
	mustAdd(t, s, model.NewText("x"), AddOptions{})
	s.AddSnapshotToHistory(false)

	changed, trivial, err := s.Undo()
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if changed || trivial || s.CurrentRoot().ID != f.ID {
		t.Fatalf("undo 1: changed=%v trivial=%v root=%d", changed, trivial, s.CurrentRoot().ID)
	}
	if len(s.CurrentRoot().Children()) != 0 {
		t.Fatalf("expected text undone")
	}

	changed, trivial, err = s.Undo()
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if !changed || !trivial || s.CurrentRoot().ID != 0 {
		t.Fatalf("undo 2: changed=%v trivial=%v root=%d", changed, trivial, s.CurrentRoot().ID)
	}

	changed, trivial, err = s.Redo()
	if err != nil {
		t.Fatalf("redo: %v", err)
	}
	if !changed || !trivial || s.CurrentRoot().ID != f.ID {
		t.Fatalf("redo: changed=%v trivial=%v root=%d", changed, trivial, s.CurrentRoot().ID)
	}
}

func TestHistoryEntriesRestore(t *testing.T) {
	s := newTestStore(t)
	s.AddSnapshotToHistory(false)
	mustAdd(t, s, model.NewText("a"), AddOptions{})
	s.AddSnapshotToHistory(false)
	if _, _, err := s.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	entries, head := s.HistoryEntries()
	if len(entries) != 2 || head != 1 {
		t.Fatalf("expected 2 entries at head 1, got %d at %d", len(entries), head)
	}

	other := newTestStore(t)
	if err := other.RestoreHistory(entries, head); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !other.CanRedo() || other.CanUndo() {
		t.Fatalf("expected redo only")
	}
	if _, _, err := other.Redo(); err != nil {
		t.Fatalf("redo: %v", err)
	}
	if len(other.Root().Children()) != 1 {
		t.Fatalf("expected restored document to have one object")
	}
}

func TestResetClearsEverything(t *testing.T) {
	s := newTestStore(t)
	mustAdd(t, s, model.NewText("a"), AddOptions{Selected: true})
	s.AddSnapshotToHistory(false)
	s.Reset()
	if s.LastObjectID() != 0 || len(s.Root().Children()) != 0 || len(s.GetSelected()) != 0 || s.CanRedo() {
		t.Fatalf("expected pristine store")
	}
	if _, _, err := s.Undo(); err == nil {
		t.Fatalf("expected empty history")
	}
}
