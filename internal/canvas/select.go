package canvas

import "slate-cli/internal/model"

// GetSelected returns a copy of the selection in selection order.
func (s *Store) GetSelected() []*model.Object {
	return append([]*model.Object(nil), s.selected...)
}

func (s *Store) ClearSelected() {
	for _, o := range s.selected {
		o.Selected = false
	}
	s.selected = nil
	s.emitSelected()
}

// SetSelected changes the selection state of obj. Selecting an object
// deselects its selected ancestors and descendants; deselecting also
// deselects its descendants. Requesting the current state is a no-op.
func (s *Store) SetSelected(obj *model.Object, selected bool) error {
	const op = "set selected"
	live, err := s.lookup(op, obj)
	if err != nil {
		return err
	}
	if live == s.currentRoot {
		return objErr(op, live.ID, ErrSelectRoot)
	}
	if live.Selected == selected {
		return nil
	}
	lin, err := s.lineage(live)
	if err != nil {
		return err
	}

	s.setSelectedTree(live, selected)
	if selected {
		for _, a := range lin {
			if a.Selected {
				a.Selected = false
				s.removeSelected(a)
			}
		}
	}
	s.reloadAll()
	if err := s.reloadAuxiliary(); err != nil {
		return err
	}
	s.emitCurrentRoot()
	return nil
}

func (s *Store) setSelectedTree(obj *model.Object, selected bool) {
	obj.Selected = selected
	if selected {
		if !s.isSelectedID(obj.ID) {
			s.selected = append(s.selected, obj)
		}
	} else {
		s.removeSelected(obj)
	}
	if c, ok := obj.Content.(*model.ContainerContent); ok {
		for _, child := range c.Objects {
			s.setSelectedTree(child, false)
		}
	}
}

func (s *Store) removeSelected(obj *model.Object) {
	for i, o := range s.selected {
		if o.ID == obj.ID {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			return
		}
	}
}

func (s *Store) GetEditing() *model.Object { return s.editing }

// SetEditing puts obj in edit mode, taking any other object out of it.
func (s *Store) SetEditing(obj *model.Object) error {
	live, err := s.lookup("set editing", obj)
	if err != nil {
		return err
	}
	s.ClearEditing()
	live.Editing = true
	s.editing = live
	s.emit(Event{Kind: EventEditing, Editing: live})
	return nil
}

func (s *Store) ClearEditing() {
	if s.editing == nil {
		return
	}
	s.editing.Editing = false
	s.editing = nil
	s.emit(Event{Kind: EventEditing})
}
