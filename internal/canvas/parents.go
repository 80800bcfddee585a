package canvas

import (
	"fmt"

	"slate-cli/internal/model"
)

// SetParents moves objects, in order, into newParent (the current root when
// nil) starting at index initialIndex, or appending when it is -1. Objects
// already inside newParent are repositioned. Layout and arrows are fixed on
// the new parent and on every old parent that lost a child.
func (s *Store) SetParents(objects []*model.Object, newParent *model.Object, initialIndex int) error {
	const op = "set parents"
	target := s.currentRoot
	if newParent != nil && newParent.ID != s.currentRoot.ID {
		var err error
		if target, err = s.resolveParent(op, newParent); err != nil {
			return err
		}
	}
	if initialIndex == -1 {
		initialIndex = len(target.Children())
	}
	if initialIndex < 0 || initialIndex > len(target.Children()) {
		return objErr(op, target.ID, fmt.Errorf("%w: index %d out of range", ErrInvalidParent, initialIndex))
	}

	var targetLineage []*model.Object
	if target != s.currentRoot {
		var err error
		if targetLineage, err = s.lineage(target); err != nil {
			return err
		}
	}
	var moving []*model.Object
	seen := map[int]bool{}
	for _, o := range objects {
		live, err := s.lookup(op, o)
		if err != nil {
			return err
		}
		if seen[live.ID] {
			continue
		}
		seen[live.ID] = true
		if !model.IsAddable(live.Content) {
			return objErr(op, live.ID, ErrNotAddable)
		}
		if live.ParentID == nil || live == s.currentRoot {
			return objErr(op, live.ID, ErrDeleteRoot)
		}
		if s.parentOf(live) == nil {
			return objErr(op, live.ID, fmt.Errorf("%w: parent %d not in canvas", ErrCorrupt, *live.ParentID))
		}
		if live == target {
			return objErr(op, live.ID, fmt.Errorf("%w: object cannot contain itself", ErrInvalidParent))
		}
		for _, a := range targetLineage {
			if a == live {
				return objErr(op, live.ID, fmt.Errorf("%w: object cannot move into its own descendant", ErrInvalidParent))
			}
		}
		moving = append(moving, live)
	}

	var oldParents []*model.Object
	idx := 0
	for _, obj := range moving {
		if *obj.ParentID != target.ID {
			oldParent := s.parentOf(obj)
			insertChild(target, obj, initialIndex+idx)
			removeChild(oldParent, obj)
			obj.IsRoot = target == s.currentRoot
			obj.ParentID = model.IntPtr(target.ID)
			if oldParent != s.currentRoot {
				oldParents = append(oldParents, oldParent)
			}
		} else {
			current := indexOf(target, obj)
			removeChild(target, obj)
			if current < initialIndex+idx {
				idx--
			}
			insertChild(target, obj, initialIndex+idx)
		}
		idx++
		if obj.IsRoot {
			if _, err := s.FixArrows(layout(obj, false, true), true); err != nil {
				return err
			}
		}
	}

	if target != s.currentRoot {
		if err := s.fixAround(target, true, true); err != nil {
			return err
		}
	}
	for _, p := range oldParents {
		if err := s.fixAround(p, true, true); err != nil {
			return err
		}
	}

	s.reloadAll()
	if err := s.reloadAuxiliary(); err != nil {
		return err
	}
	s.emitCurrentRoot()
	s.refreshBounds()
	s.log.Debug("objects reparented", "parent", target.ID, "count", len(moving), "index", initialIndex)
	return nil
}

func (s *Store) parentOf(obj *model.Object) *model.Object {
	if obj.ParentID == nil {
		return nil
	}
	if *obj.ParentID == s.currentRoot.ID {
		return s.currentRoot
	}
	p := s.all[*obj.ParentID]
	if p == nil || !p.IsParent() {
		return nil
	}
	return p
}

func indexOf(parent, obj *model.Object) int {
	for i, c := range parent.Children() {
		if c == obj {
			return i
		}
	}
	return -1
}

func insertChild(parent, obj *model.Object, at int) {
	kids := parent.Children()
	if at < 0 {
		at = 0
	}
	if at > len(kids) {
		at = len(kids)
	}
	out := make([]*model.Object, 0, len(kids)+1)
	out = append(out, kids[:at]...)
	out = append(out, obj)
	out = append(out, kids[at:]...)
	model.SetChildren(parent.Content, out)
}

func removeChild(parent, obj *model.Object) {
	kids := parent.Children()
	out := make([]*model.Object, 0, len(kids))
	for _, k := range kids {
		if k != obj {
			out = append(out, k)
		}
	}
	model.SetChildren(parent.Content, out)
}
