package session

import (
	"fmt"

	"slate-cli/internal/model"
)

// State is the gesture the session is in. Exactly one is active.
type State interface {
	String() string
	state()
}

type Idle struct{}

// Dragging moves Objects with the pointer.
type Dragging struct {
	Objects []*model.Object
}

type Resizing struct{}

// DraggingArrowHandle draws a provisional arrow from Start to the pointer.
// Curve is relative to Pos.
type DraggingArrowHandle struct {
	Start    *model.Object
	Curve    model.CurveInfo
	Pos      model.Vec2
	Size     model.Size2
	Hovering *model.Object
}

type BoxSelecting struct {
	Origin model.Vec2
}

// Undoing guards against reentrant undo and redo.
type Undoing struct{}

// JustDropped and Cancelled are deferred idles: the gesture is over but the
// end event for it has not arrived yet.
type JustDropped struct{}

type Cancelled struct{}

func (Idle) String() string                { return "idle" }
func (Dragging) String() string            { return "dragging" }
func (Resizing) String() string            { return "resizing" }
func (DraggingArrowHandle) String() string { return "dragging-arrow-handle" }
func (BoxSelecting) String() string        { return "box-selecting" }
func (Undoing) String() string             { return "undoing" }
func (JustDropped) String() string         { return "just-dropped" }
func (Cancelled) String() string           { return "cancelled" }

func (Idle) state()                {}
func (Dragging) state()            {}
func (Resizing) state()            {}
func (DraggingArrowHandle) state() {}
func (BoxSelecting) state()        {}
func (Undoing) state()             {}
func (JustDropped) state()         {}
func (Cancelled) state()           {}

// StateError is returned when a request arrives in a state that does not
// accept it.
type StateError struct {
	Op    string
	State string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("session: invalid state for request %s (%s)", e.Op, e.State)
}

// SaveState tracks whether the document has changes that are not persisted.
type SaveState string

const (
	SaveLoaded  SaveState = "loaded"
	SaveUnsaved SaveState = "unsaved"
	SaveSaving  SaveState = "saving"
	SaveSaved   SaveState = "saved"
	SaveError   SaveState = "save-error"
)
