package cli

import (
	"errors"
	"fmt"
)

var errNoDocument = errors.New("no current document; run `slate new <name>` or `slate open <doc>` (or pass --doc)")

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

type wrongKindError struct {
	id   int
	kind string
	want string
}

func (e wrongKindError) Error() string {
	return fmt.Sprintf("object %d is a %s, expected %s", e.id, e.kind, e.want)
}
