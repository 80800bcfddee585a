package clipboard

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"

	"slate-cli/internal/model"
)

// Content is one clipboard payload. A paste may carry any combination of
// the three forms.
type Content struct {
	Text  string
	HTML  string
	Image *Image
}

// Image is pasted image data together with the size to show it at.
type Image struct {
	Data []byte
	Size model.Size2
}

// System reads and writes the operating system clipboard. It only carries
// text, so fragments are stored as their HTML and recognised on read.
type System struct{}

func (System) Write(c Content) error {
	s := c.HTML
	if s == "" {
		s = c.Text
	}
	if err := clipboard.WriteAll(s); err != nil {
		return fmt.Errorf("clipboard: write: %w", err)
	}
	return nil
}

func (System) Read() (Content, error) {
	s, err := clipboard.ReadAll()
	if err != nil {
		return Content{}, fmt.Errorf("clipboard: read: %w", err)
	}
	return Parse(s), nil
}

// Parse classifies raw clipboard text. Anything that looks like markup is
// offered as HTML with its stripped text as fallback.
func Parse(s string) Content {
	if t := strings.TrimSpace(s); strings.HasPrefix(t, "<") {
		return Content{HTML: s, Text: model.StripHTML(t)}
	}
	return Content{Text: s}
}

// Memory is an in-process clipboard.
type Memory struct {
	Content Content
}

func (m *Memory) Write(c Content) error {
	m.Content = c
	return nil
}

func (m *Memory) Read() (Content, error) {
	return m.Content, nil
}
