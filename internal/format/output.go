// Package format writes command results as JSON or as human-readable text.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Texter is implemented by results with their own text rendering.
type Texter interface {
	Text() string
}

// Write writes output in the requested format.
//
// Supported formats:
// - json (default)
// - text
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "text":
		return WriteText(w, v)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteJSON writes strict JSON output for CLI commands.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}

// WriteText writes v for a person to read. Values without a text form fall
// back to indented JSON.
func WriteText(w io.Writer, v any) error {
	var s string
	switch t := v.(type) {
	case Texter:
		s = t.Text()
	case *Node:
		s = RenderTree(*t, Styled(w))
	case Node:
		s = RenderTree(t, Styled(w))
	case string:
		s = t
	case fmt.Stringer:
		s = t.String()
	default:
		return WriteJSON(w, v, true)
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(s, "\n"))
	return err
}
