package canvas

import (
	"errors"
	"fmt"
)

var (
	ErrObjectNotFound     = errors.New("object not found")
	ErrParentNotInCanvas  = errors.New("parent not in current canvas")
	ErrDuplicateID        = errors.New("object id is already registered")
	ErrDuplicateSelection = errors.New("object is already in selected list")
	ErrDeleteRoot         = errors.New("cannot delete a root folder")
	ErrSelectRoot         = errors.New("cannot select the open folder")
	ErrSnapshot           = errors.New("invalid snapshot")
	ErrNotAddable         = errors.New("content kind cannot have a parent")
	ErrCrossFolder        = errors.New("parent belongs to another folder")
	ErrNotFolder          = errors.New("object is not a folder")
	ErrInvalidParent      = errors.New("invalid parent")
	ErrCorrupt            = errors.New("inconsistent object tree")
)

// Error qualifies a store failure with the operation and the object involved.
type Error struct {
	Op  string
	ID  *int
	Err error
}

func (e *Error) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("canvas: %s %d: %v", e.Op, *e.ID, e.Err)
	}
	return fmt.Sprintf("canvas: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func opErr(op string, err error) error {
	return &Error{Op: op, Err: err}
}

func objErr(op string, id int, err error) error {
	return &Error{Op: op, ID: &id, Err: err}
}
