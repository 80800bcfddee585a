package canvas

import (
	"sort"

	"slate-cli/internal/model"
)

type EventKind int

const (
	EventCurrentRoot EventKind = iota
	EventPath
	EventSelected
	EventEditing
	EventBounds
)

func (k EventKind) String() string {
	switch k {
	case EventCurrentRoot:
		return "current-root"
	case EventPath:
		return "path"
	case EventSelected:
		return "selected"
	case EventEditing:
		return "editing"
	case EventBounds:
		return "bounds"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after a mutation has completed. Only
// the fields matching Kind are set.
type Event struct {
	Kind     EventKind
	Root     *model.Object
	Path     []*model.Object
	Selected []*model.Object
	Editing  *model.Object
	Bounds   model.Box
}

// Subscribe registers fn for every event emitted by the store. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.nextSub++
	id := s.nextSub
	if s.subs == nil {
		s.subs = map[int]func(Event){}
	}
	s.subs[id] = fn
	return func() { delete(s.subs, id) }
}

func (s *Store) emit(ev Event) {
	if len(s.subs) == 0 {
		return
	}
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := s.subs[id]; ok {
			fn(ev)
		}
	}
}

func (s *Store) emitSelected() {
	s.emit(Event{Kind: EventSelected, Selected: s.GetSelected()})
}

func (s *Store) emitCurrentRoot() {
	s.emit(Event{Kind: EventCurrentRoot, Root: s.currentRoot})
}
