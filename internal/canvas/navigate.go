package canvas

import (
	"fmt"
	"math"

	"slate-cli/internal/model"
)

// SetCurrentRoot opens the canvas of folder, or of the absolute root when
// folder is nil. The folder may be nested anywhere in the document.
func (s *Store) SetCurrentRoot(folder *model.Object) error {
	id := s.root.ID
	if folder != nil {
		id = folder.ID
	}
	return s.setCurrentRootID("set current root", id)
}

// SetCurrentRootID is SetCurrentRoot for callers holding only an id.
func (s *Store) SetCurrentRootID(id int) error {
	return s.setCurrentRootID("set current root", id)
}

func (s *Store) setCurrentRootID(op string, id int) error {
	target := s.find(id)
	if target == nil {
		return objErr(op, id, ErrObjectNotFound)
	}
	if !target.IsFolder() {
		return objErr(op, id, ErrNotFolder)
	}
	path, err := s.folderPath(target)
	if err != nil {
		return objErr(op, id, err)
	}

	prev := s.currentRoot
	s.ClearSelected()
	s.ClearEditing()
	s.currentRoot = target
	s.reloadAll()
	if err := s.reloadAuxiliary(); err != nil {
		s.currentRoot = prev
		s.reloadAll()
		_ = s.reloadAuxiliary()
		return err
	}
	s.path = path
	s.bounds = s.computeBounds(target)

	s.emitCurrentRoot()
	s.emit(Event{Kind: EventPath, Path: s.Path()})
	s.emit(Event{Kind: EventBounds, Bounds: s.bounds})
	s.log.Debug("current root set", "id", target.ID, "depth", len(path))
	return nil
}

// folderPath returns the folders from the absolute root down to folder.
func (s *Store) folderPath(folder *model.Object) ([]*model.Object, error) {
	out := []*model.Object{folder}
	cur := folder
	for cur.ParentID != nil {
		pid := *cur.ParentID
		next := s.find(pid)
		if next == nil {
			return nil, fmt.Errorf("%w: parent %d of %d is missing", ErrCorrupt, pid, cur.ID)
		}
		if next.IsFolder() {
			out = append(out, next)
		}
		cur = next
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *Store) computeBounds(folder *model.Object) model.Box {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	found := false
	visit(folder, false, func(o *model.Object) bool {
		if o.ID != folder.ID && o.IsRoot {
			found = true
			minX = math.Min(minX, o.Position.X)
			minY = math.Min(minY, o.Position.Y)
			maxX = math.Max(maxX, o.Position.X+o.Size.W)
			maxY = math.Max(maxY, o.Position.Y+o.Size.H)
		}
		return false
	})
	if !found {
		minX, minY = emptyBounds.Position.X, emptyBounds.Position.Y
		maxX, maxY = emptyBounds.Max().X, emptyBounds.Max().Y
	}
	return model.NewBox(minX-boundsBorder, minY-boundsBorder,
		maxX-minX+2*boundsBorder, maxY-minY+2*boundsBorder)
}

func (s *Store) refreshBounds() {
	s.bounds = s.computeBounds(s.currentRoot)
	s.emit(Event{Kind: EventBounds, Bounds: s.bounds})
}
