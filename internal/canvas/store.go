// Package canvas owns the live object tree of a document: the absolute
// root, the folder currently open, a flat index of the objects visible in
// it, the selection, and the snapshot history used for undo/redo.
//
// Every mutator validates its inputs before touching the tree, so a call
// that returns an error leaves the store as it was.
package canvas

import (
	"log/slog"

	"slate-cli/internal/history"
	"slate-cli/internal/model"
)

const (
	Unit              = 15
	HistorySize       = 1000
	DefaultHomeName   = "Home"
	DefaultHomeColor  = "white"
	DefaultStartingID = 0

	boundsBorder     = 200
	ArrowTipPad      = 6
	rootFolderWidth  = 180
	containerHeader  = 15
	containerMargin  = 10
	containerInsetX  = 10
	containerPadding = 22
)

var emptyBounds = model.NewBox(-1000, -1000, 2000, 2000)

type Options struct {
	Logger      *slog.Logger
	Router      model.Router
	HistorySize int
}

// AddOptions sets the initial placement of a new object.
type AddOptions struct {
	Position model.Vec2
	Size     model.Size2
	Selected bool
}

type Store struct {
	lastID      int
	root        *model.Object
	currentRoot *model.Object

	all      map[int]*model.Object
	selected []*model.Object
	editing  *model.Object

	history     *history.List[Snapshot]
	historySize int

	path   []*model.Object
	bounds model.Box

	router model.Router
	log    *slog.Logger

	subs    map[int]func(Event)
	nextSub int
}

func New(opts Options) *Store {
	s := &Store{
		router:      opts.Router,
		log:         opts.Logger,
		historySize: opts.HistorySize,
	}
	if s.router == nil {
		s.router = model.BoxToBox{}
	}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	if s.historySize <= 0 {
		s.historySize = HistorySize
	}
	s.Reset()
	return s
}

func defaultRoot() *model.Object {
	return model.NewObject(DefaultStartingID, model.Vec2{}, model.Size2{},
		model.EmptyFolder(DefaultHomeName, DefaultHomeColor, ""), nil, false)
}

// Reset replaces the document with an empty one and clears the history.
func (s *Store) Reset() {
	s.lastID = DefaultStartingID
	s.root = defaultRoot()
	s.currentRoot = s.root
	s.all = map[int]*model.Object{}
	s.selected = nil
	s.editing = nil
	s.history = history.New[Snapshot](s.historySize)

	s.reloadAll()
	if err := s.reloadAuxiliary(); err != nil {
		panic(err) // the default root has no arrows
	}
	s.path = []*model.Object{s.root}
	s.bounds = s.computeBounds(s.root)

	s.emitCurrentRoot()
	s.emit(Event{Kind: EventPath, Path: s.Path()})
	s.emitSelected()
	s.emit(Event{Kind: EventEditing})
	s.emit(Event{Kind: EventBounds, Bounds: s.bounds})
}

func (s *Store) Root() *model.Object        { return s.root }
func (s *Store) CurrentRoot() *model.Object { return s.currentRoot }
func (s *Store) LastObjectID() int          { return s.lastID }

// Path returns the folders from the absolute root down to the current root.
func (s *Store) Path() []*model.Object {
	return append([]*model.Object(nil), s.path...)
}

// Bounds returns the box around every top-level object of the current
// canvas, grown by a fixed border.
func (s *Store) Bounds() model.Box { return s.bounds }

// GetObject looks an object up in the current canvas.
func (s *Store) GetObject(id int) *model.Object {
	return s.all[id]
}

// Objects returns every object of the current canvas in breadth-first order.
func (s *Store) Objects() []*model.Object {
	var out []*model.Object
	visit(s.currentRoot, false, func(o *model.Object) bool {
		if o != s.currentRoot {
			out = append(out, o)
		}
		return false
	})
	return out
}

// Visit walks the tree breadth-first from node. The children of node are
// always visited; nested folders are entered only when enterFolders is set.
// The walk stops at the first object for which fn returns true, and that
// object is returned.
func (s *Store) Visit(node *model.Object, enterFolders bool, fn func(*model.Object) bool) *model.Object {
	return visit(node, enterFolders, fn)
}

func visit(node *model.Object, enterFolders bool, fn func(*model.Object) bool) *model.Object {
	queue := []*model.Object{node}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if fn(cur) {
			return cur
		}
		switch c := cur.Content.(type) {
		case *model.ContainerContent:
			queue = append(queue, c.Objects...)
		case *model.FolderContent:
			if cur == node || enterFolders {
				queue = append(queue, c.Objects...)
			}
		}
	}
	return nil
}

// find searches the whole document, nested folders included.
func (s *Store) find(id int) *model.Object {
	return visit(s.root, true, func(o *model.Object) bool { return o.ID == id })
}

func (s *Store) reloadAll() {
	s.all = map[int]*model.Object{}
	visit(s.currentRoot, false, func(o *model.Object) bool {
		s.all[o.ID] = o
		return false
	})
}

// reloadAuxiliary rebuilds the selection list from the selected flags and
// resolves arrow endpoints still held as bare ids. Objects already in the
// selection keep their order.
func (s *Store) reloadAuxiliary() error {
	var flagged []*model.Object
	var arrows []*model.ArrowContent
	visit(s.currentRoot, false, func(o *model.Object) bool {
		if o.Selected {
			flagged = append(flagged, o)
		}
		if a, ok := o.Content.(*model.ArrowContent); ok {
			arrows = append(arrows, a)
		}
		return false
	})

	for _, a := range arrows {
		start, err := s.upgradeRef(a.Start)
		if err != nil {
			return err
		}
		end, err := s.upgradeRef(a.End)
		if err != nil {
			return err
		}
		a.Start, a.End = start, end
	}

	inFlagged := make(map[*model.Object]bool, len(flagged))
	for _, o := range flagged {
		inFlagged[o] = true
	}
	next := make([]*model.Object, 0, len(flagged))
	kept := map[*model.Object]bool{}
	for _, o := range s.selected {
		if inFlagged[o] && !kept[o] {
			next = append(next, o)
			kept[o] = true
		}
	}
	for _, o := range flagged {
		if !kept[o] {
			next = append(next, o)
		}
	}
	s.selected = next
	if s.editing != nil && s.all[s.editing.ID] != s.editing {
		s.editing.Editing = false
		s.editing = nil
		s.emit(Event{Kind: EventEditing})
	}
	s.emitSelected()
	return nil
}

func (s *Store) upgradeRef(ref model.ArrowRef) (model.ArrowRef, error) {
	obj := s.all[ref.ID()]
	if obj == nil {
		return ref, objErr("resolve arrow endpoint", ref.ID(), ErrObjectNotFound)
	}
	if !model.IsArrowTarget(obj.Content) {
		return ref, objErr("resolve arrow endpoint", ref.ID(), ErrCorrupt)
	}
	return model.ObjectRef(obj), nil
}

// lineage returns the ancestors of obj up to, but not including, the
// nearest folder. Only the current canvas is searched, so the current root
// has no lineage even when it is nested.
func (s *Store) lineage(obj *model.Object) ([]*model.Object, error) {
	var out []*model.Object
	cur := obj
	for cur != s.currentRoot && cur.ParentID != nil {
		next := s.all[*cur.ParentID]
		if next == nil {
			return nil, objErr("lineage", cur.ID, ErrParentNotInCanvas)
		}
		if next.IsFolder() {
			break
		}
		out = append(out, next)
		cur = next
	}
	return out, nil
}

// TopLevel returns the ancestor of obj that sits directly in its folder,
// or obj itself when it already does.
func (s *Store) TopLevel(obj *model.Object) (*model.Object, error) {
	return s.topLevel(obj)
}

func (s *Store) topLevel(obj *model.Object) (*model.Object, error) {
	lin, err := s.lineage(obj)
	if err != nil {
		return nil, err
	}
	if len(lin) == 0 {
		return obj, nil
	}
	return lin[len(lin)-1], nil
}

func (s *Store) lookup(op string, obj *model.Object) (*model.Object, error) {
	if obj == nil {
		return nil, opErr(op, ErrObjectNotFound)
	}
	live := s.all[obj.ID]
	if live == nil {
		return nil, objErr(op, obj.ID, ErrObjectNotFound)
	}
	return live, nil
}
