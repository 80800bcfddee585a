package canvas

import (
	"fmt"

	"slate-cli/internal/model"
)

// DeleteObject removes obj with everything nested in it, plus every arrow
// of the current canvas that starts or ends at a removed object. A nested
// folder is removed as a single unit. It returns the ids of all removed
// objects.
func (s *Store) DeleteObject(obj *model.Object) ([]int, error) {
	const op = "delete object"
	live, err := s.lookup(op, obj)
	if err != nil {
		return nil, err
	}
	if live.ParentID == nil || live == s.currentRoot {
		return nil, objErr(op, live.ID, ErrDeleteRoot)
	}

	var doomed []*model.Object
	if live.IsFolder() {
		doomed = []*model.Object{live}
	} else {
		visit(live, false, func(o *model.Object) bool {
			doomed = append(doomed, o)
			return false
		})
	}
	gone := make(map[int]bool, len(doomed))
	for _, d := range doomed {
		gone[d.ID] = true
	}
	for _, o := range s.Objects() {
		a, ok := o.Content.(*model.ArrowContent)
		if !ok || gone[o.ID] {
			continue
		}
		if gone[a.Start.ID()] || gone[a.End.ID()] {
			doomed = append(doomed, o)
			gone[o.ID] = true
		}
	}

	type detach struct {
		obj    *model.Object
		parent *model.Object
	}
	var plan []detach
	for _, d := range doomed {
		if d.ParentID == nil {
			return nil, objErr(op, d.ID, ErrDeleteRoot)
		}
		if gone[*d.ParentID] {
			continue
		}
		parent := s.all[*d.ParentID]
		if parent == nil || !parent.IsParent() {
			return nil, objErr(op, d.ID, fmt.Errorf("%w: parent %d not in canvas", ErrCorrupt, *d.ParentID))
		}
		plan = append(plan, detach{obj: d, parent: parent})
	}

	for _, d := range doomed {
		if d.Selected {
			d.Selected = false
			s.removeSelected(d)
		}
		if d == s.editing {
			s.ClearEditing()
		}
	}

	var fix []*model.Object
	for _, p := range plan {
		removeChild(p.parent, p.obj)
		if p.parent != s.currentRoot {
			fix = append(fix, p.parent)
		}
	}

	s.reloadAll()
	seen := map[*model.Object]bool{}
	for _, p := range fix {
		if seen[p] || gone[p.ID] {
			continue
		}
		seen[p] = true
		if err := s.fixAround(p, true, false); err != nil {
			return nil, err
		}
	}
	if err := s.reloadAuxiliary(); err != nil {
		return nil, err
	}
	s.emitCurrentRoot()
	s.refreshBounds()

	ids := make([]int, 0, len(doomed))
	for _, d := range doomed {
		ids = append(ids, d.ID)
	}
	s.log.Debug("objects deleted", "root", live.ID, "count", len(ids))
	return ids, nil
}
