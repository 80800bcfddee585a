package canvas

import (
	"fmt"

	"slate-cli/internal/model"
)

// cloneJob collects a detached copy of a content tree with fresh ids. The
// tree is only attached to the document once the whole copy succeeded.
type cloneJob struct {
	nextID int
	oldIDs map[int]*model.Object
	arrows []pendingArrow
}

type pendingArrow struct {
	obj    *model.Object
	folder *model.Object
	start  int
	end    int
}

func (j *cloneJob) id() int {
	j.nextID++
	return j.nextID
}

func countTree(c model.Content) int {
	n := 1
	for _, child := range model.Children(c) {
		n += countTree(child.Content)
	}
	return n
}

// reserveIDs checks that the next n ids are unused anywhere in the document.
func (s *Store) reserveIDs(op string, n int) (*cloneJob, error) {
	lo, hi := s.lastID+1, s.lastID+n
	if clash := visit(s.root, true, func(o *model.Object) bool { return o.ID >= lo && o.ID <= hi }); clash != nil {
		return nil, objErr(op, clash.ID, ErrDuplicateID)
	}
	return &cloneJob{nextID: s.lastID, oldIDs: map[int]*model.Object{}}, nil
}

// buildTree copies content into a new object with a fresh id. Children are
// copied recursively; arrows found under folders are collected in the job
// and re-targeted by finishArrows.
func (s *Store) buildTree(op string, job *cloneJob, oldID int, content model.Content, parent *model.Object, opts AddOptions) (*model.Object, error) {
	isRoot := parent == nil || parent.IsFolder()
	obj := model.NewObject(job.id(), opts.Position, opts.Size, content.ShallowClone(), nil, isRoot)
	obj.Selected = opts.Selected
	job.oldIDs[oldID] = obj

	if parent != nil {
		obj.ParentID = model.IntPtr(parent.ID)
		switch {
		case model.IsAddable(obj.Content):
			model.SetChildren(parent.Content, append(parent.Children(), obj))
		case parent.IsFolder():
			a := obj.Content.(*model.ArrowContent)
			job.arrows = append(job.arrows, pendingArrow{obj: obj, folder: parent, start: a.Start.ID(), end: a.End.ID()})
		default:
			return nil, objErr(op, oldID, fmt.Errorf("%w: %s under %s", ErrNotAddable, obj.Kind(), parent.Kind()))
		}
	}

	if obj.IsParent() {
		children := obj.Children()
		model.SetChildren(obj.Content, []*model.Object{})
		for _, child := range children {
			childOpts := AddOptions{Position: child.Position, Size: child.Size}
			if _, err := s.buildTree(op, job, child.ID, child.Content, obj, childOpts); err != nil {
				return nil, err
			}
		}
	}
	return obj, nil
}

func (s *Store) finishArrows(op string, job *cloneJob) error {
	for _, p := range job.arrows {
		start, end := job.oldIDs[p.start], job.oldIDs[p.end]
		if start == nil || end == nil {
			return objErr(op, p.obj.ID, fmt.Errorf("%w: arrow endpoint outside copied tree", ErrCorrupt))
		}
		a := p.obj.Content.(*model.ArrowContent)
		a.Start, a.End = model.IDRef(start.ID), model.IDRef(end.ID)
		model.SetChildren(p.folder.Content, append(p.folder.Children(), p.obj))
	}
	return nil
}

// insert copies content under target (the current root when nil) and
// commits the copy to the document.
func (s *Store) insert(op string, oldID int, content model.Content, target *model.Object, opts AddOptions) (*model.Object, error) {
	if opts.Selected && s.isSelectedID(s.lastID+1) {
		return nil, objErr(op, s.lastID+1, ErrDuplicateSelection)
	}
	job, err := s.reserveIDs(op, countTree(content))
	if err != nil {
		return nil, err
	}
	var parent *model.Object
	if target != nil && target != s.currentRoot {
		parent = target
	}
	obj, err := s.buildTree(op, job, oldID, content, nil, opts)
	if err != nil {
		return nil, err
	}
	obj.IsRoot = parent == nil || parent.IsFolder()
	if err := s.finishArrows(op, job); err != nil {
		return nil, err
	}

	attach := s.currentRoot
	if parent != nil {
		attach = parent
	}
	obj.ParentID = model.IntPtr(attach.ID)
	model.SetChildren(attach.Content, append(attach.Children(), obj))
	s.lastID = job.nextID

	s.reloadAll()
	if err := s.reloadAuxiliary(); err != nil {
		return nil, err
	}
	s.refreshBounds()
	s.log.Debug("object added", "op", op, "id", obj.ID, "kind", obj.Kind(), "parent", attach.ID, "last_id", s.lastID)
	return obj, nil
}

func (s *Store) isSelectedID(id int) bool {
	for _, o := range s.selected {
		if o.ID == id {
			return true
		}
	}
	return false
}

// AddContent inserts a copy of content at the top level of the current
// canvas. The content and any child objects it carries are copied with
// fresh ids; the caller's values are never retained.
func (s *Store) AddContent(content model.Content, opts AddOptions) (*model.Object, error) {
	if !model.IsAddable(content) {
		return nil, opErr("add content", fmt.Errorf("%w: %s", ErrNotAddable, content.Kind()))
	}
	return s.insert("add content", -1, content, nil, opts)
}

// AddContentWithParent inserts a copy of content as the last child of
// parent, which must be a container of the current canvas or the current
// root itself.
func (s *Store) AddContentWithParent(content model.Content, parent *model.Object, opts AddOptions) (*model.Object, error) {
	const op = "add content with parent"
	if !model.IsAddable(content) {
		return nil, opErr(op, fmt.Errorf("%w: %s", ErrNotAddable, content.Kind()))
	}
	target, err := s.resolveParent(op, parent)
	if err != nil {
		return nil, err
	}
	return s.insert(op, -1, content, target, opts)
}

func (s *Store) resolveParent(op string, parent *model.Object) (*model.Object, error) {
	if parent == nil {
		return nil, opErr(op, ErrParentNotInCanvas)
	}
	live := s.all[parent.ID]
	if live == nil {
		if s.find(parent.ID) != nil {
			return nil, objErr(op, parent.ID, ErrCrossFolder)
		}
		return nil, objErr(op, parent.ID, ErrParentNotInCanvas)
	}
	switch {
	case live == s.currentRoot:
	case live.IsFolder():
		return nil, objErr(op, parent.ID, ErrCrossFolder)
	case !live.IsContainer():
		return nil, objErr(op, parent.ID, fmt.Errorf("%w: %s cannot hold children", ErrInvalidParent, live.Kind()))
	}
	return live, nil
}

// AddArrow inserts an arrow at the top level of the current canvas. Both
// endpoints must be arrow targets of the current canvas.
func (s *Store) AddArrow(content *model.ArrowContent, opts AddOptions) (*model.Object, error) {
	const op = "add arrow"
	for _, ref := range []model.ArrowRef{content.Start, content.End} {
		o := s.all[ref.ID()]
		if o == nil {
			return nil, objErr(op, ref.ID(), ErrObjectNotFound)
		}
		if !model.IsArrowTarget(o.Content) {
			return nil, objErr(op, ref.ID(), fmt.Errorf("%w: arrow cannot target an arrow", ErrInvalidParent))
		}
	}
	return s.insert(op, -1, content, nil, opts)
}

// CloneFolder inserts a copy of the folder subtree that had id oldID. Only
// the new folder becomes part of the current canvas; its contents stay
// behind the folder boundary.
func (s *Store) CloneFolder(oldID int, content *model.FolderContent, opts AddOptions, parent *model.Object) (*model.Object, error) {
	const op = "clone folder"
	var target *model.Object
	if parent != nil {
		var err error
		if target, err = s.resolveParent(op, parent); err != nil {
			return nil, err
		}
	}
	return s.insert(op, oldID, content, target, opts)
}
