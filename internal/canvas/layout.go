package canvas

import (
	"fmt"
	"math"

	"slate-cli/internal/model"
)

// snap rounds v to the grid, halves rounding up.
func snap(v float64) float64 {
	return Unit * math.Floor(v/Unit+0.5)
}

// FixLayout recomputes the geometry of obj and everything nested in it and
// returns the objects it touched. Top-level objects snap to the grid unless
// round is false; childrenOnly lays out the children without moving or
// resizing obj itself.
func (s *Store) FixLayout(obj *model.Object, childrenOnly, round bool) ([]*model.Object, error) {
	live, err := s.lookup("fix layout", obj)
	if err != nil {
		return nil, err
	}
	return layout(live, childrenOnly, round), nil
}

func layout(obj *model.Object, childrenOnly, round bool) []*model.Object {
	touched := []*model.Object{obj}
	if obj.IsRoot && !childrenOnly && round {
		obj.Position.X = snap(obj.Position.X)
		obj.Position.Y = snap(obj.Position.Y)
		obj.Size.W = snap(obj.Size.W)
		if _, ok := obj.Content.(*model.ImageContent); ok {
			obj.Size.H = snap(obj.Size.H)
		}
	}
	switch c := obj.Content.(type) {
	case *model.FolderContent:
		if obj.IsRoot {
			obj.Size.W = rootFolderWidth
		}
	case *model.ContainerContent:
		y := float64(containerHeader)
		for _, child := range c.Objects {
			child.Position = model.Vec2{X: containerInsetX, Y: y}
			child.Size.W = obj.Size.W - containerPadding
			touched = append(touched, layout(child, false, true)...)
			y += child.Size.H + containerMargin
		}
		if !childrenOnly {
			obj.Size.H = y + containerMargin
		}
	}
	return touched
}

// FixArrows re-resolves the endpoints of every arrow of the current canvas
// and recomputes the curves of those touching an object in changed. With
// bringForward the recomputed arrows move to the end of the sibling list.
func (s *Store) FixArrows(changed []*model.Object, bringForward bool) ([]*model.Object, error) {
	ids := make(map[int]bool, len(changed))
	for _, c := range changed {
		ids[c.ID] = true
	}

	var moved []*model.Object
	for _, o := range s.currentRoot.Children() {
		a, ok := o.Content.(*model.ArrowContent)
		if !ok {
			continue
		}
		start, err := s.upgradeRef(a.Start)
		if err != nil {
			return nil, err
		}
		end, err := s.upgradeRef(a.End)
		if err != nil {
			return nil, err
		}
		a.Start, a.End = start, end
		if !ids[start.ID()] && !ids[end.ID()] {
			continue
		}
		curve, pos, size, err := s.CalculateCurveInfo(start.Object(), end.Object(), tipPad(a.TipLeft), tipPad(a.TipRight))
		if err != nil {
			return nil, err
		}
		a.Curve = &curve
		o.Position = pos
		o.Size = size
		moved = append(moved, o)
	}

	if bringForward && len(moved) > 0 {
		front := make(map[*model.Object]bool, len(moved))
		for _, o := range moved {
			front[o] = true
		}
		rest := make([]*model.Object, 0, len(s.currentRoot.Children()))
		for _, o := range s.currentRoot.Children() {
			if !front[o] {
				rest = append(rest, o)
			}
		}
		model.SetChildren(s.currentRoot.Content, append(rest, moved...))
	}
	return moved, nil
}

func tipPad(tip bool) float64 {
	if tip {
		return ArrowTipPad
	}
	return 0
}

// fixAround lays out the top-level ancestor of obj and then refreshes the
// arrows attached to anything that moved.
func (s *Store) fixAround(obj *model.Object, round, bringForward bool) error {
	top, err := s.topLevel(obj)
	if err != nil {
		return err
	}
	_, err = s.FixArrows(layout(top, false, round), bringForward)
	return err
}

// CalculateGlobalPos resolves the position of obj in the coordinate space
// of its enclosing folder.
func (s *Store) CalculateGlobalPos(obj *model.Object) (model.Vec2, error) {
	lin, err := s.lineage(obj)
	if err != nil {
		return model.Vec2{}, err
	}
	pos := obj.Position
	for _, a := range lin {
		pos = pos.Add(a.Position)
	}
	return pos, nil
}

// CalculateCurveInfo routes an arrow between start and end. The curve is
// relative to the returned position.
func (s *Store) CalculateCurveInfo(start, end *model.Object, padStart, padEnd float64) (model.CurveInfo, model.Vec2, model.Size2, error) {
	if start == nil || end == nil {
		return model.CurveInfo{}, model.Vec2{}, model.Size2{}, opErr("calculate curve", ErrObjectNotFound)
	}
	from, err := s.CalculateGlobalPos(start)
	if err != nil {
		return model.CurveInfo{}, model.Vec2{}, model.Size2{}, err
	}
	to, err := s.CalculateGlobalPos(end)
	if err != nil {
		return model.CurveInfo{}, model.Vec2{}, model.Size2{}, err
	}
	curve, pos, size := model.RecalculateCurve(
		model.Box{Position: from, Size: start.Size},
		model.Box{Position: to, Size: end.Size},
		padStart, padEnd, s.router)
	return curve, pos, size, nil
}

// SetPositionDelta translates objects by delta and recomputes the arrows
// attached to them or to anything nested in them.
func (s *Store) SetPositionDelta(objects []*model.Object, delta model.Vec2) error {
	live := make([]*model.Object, 0, len(objects))
	for _, o := range objects {
		l, err := s.lookup("set position delta", o)
		if err != nil {
			return err
		}
		live = append(live, l)
	}
	var changed []*model.Object
	for _, o := range live {
		o.Position = o.Position.Add(delta)
		visit(o, false, func(n *model.Object) bool {
			changed = append(changed, n)
			return false
		})
	}
	if _, err := s.FixArrows(changed, false); err != nil {
		return err
	}
	s.refreshBounds()
	return nil
}

// SetHeight changes the height of obj and re-lays out its top-level
// ancestor without snapping.
func (s *Store) SetHeight(obj *model.Object, h float64) error {
	live, err := s.lookup("set height", obj)
	if err != nil {
		return err
	}
	if live.Size.H == h {
		return nil
	}
	if _, err := s.topLevel(live); err != nil {
		return err
	}
	live.Size.H = h
	if err := s.fixAround(live, false, false); err != nil {
		return err
	}
	s.refreshBounds()
	return nil
}

// SetSize resizes obj and re-lays out its top-level ancestor.
func (s *Store) SetSize(obj *model.Object, size model.Size2) error {
	live, err := s.lookup("set size", obj)
	if err != nil {
		return err
	}
	if size.W < 0 || size.H < 0 {
		return objErr("set size", live.ID, fmt.Errorf("negative size %vx%v", size.W, size.H))
	}
	if _, err := s.topLevel(live); err != nil {
		return err
	}
	live.Size = size
	if err := s.fixAround(live, true, false); err != nil {
		return err
	}
	s.refreshBounds()
	return nil
}
