package format

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-isatty"
)

// MaxLabelWidth bounds a tree label in terminal cells.
const MaxLabelWidth = 72

// Node is one line of a tree rendering. It marshals to JSON as-is so the
// same value serves both output formats.
type Node struct {
	ID       int    `json:"id"`
	Kind     string `json:"kind"`
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
	Children []Node `json:"children,omitempty"`
}

var (
	enumStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "250", Dark: "240"})
	idStyle       = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"})
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "27", Dark: "62"})
	kindStyles    = map[string]lipgloss.Style{
		"folder":    lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "130", Dark: "179"}),
		"container": lipgloss.NewStyle().Bold(true),
		"arrow":     lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"}),
		"image":     lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "114"}),
	}
)

// Styled reports whether w is a terminal that should get colors.
func Styled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

// RenderTree draws n and its children with box-drawing branches.
func RenderTree(n Node, styled bool) string {
	t := build(n, styled).Enumerator(tree.RoundedEnumerator)
	if styled {
		t = t.EnumeratorStyle(enumStyle)
	}
	return t.String()
}

func build(n Node, styled bool) *tree.Tree {
	t := tree.Root(line(n, styled))
	for _, c := range n.Children {
		if len(c.Children) == 0 {
			t.Child(line(c, styled))
			continue
		}
		t.Child(build(c, styled))
	}
	return t
}

func line(n Node, styled bool) string {
	label := ansi.Truncate(n.Label, MaxLabelWidth, "…")
	id := fmt.Sprintf("#%d", n.ID)
	mark := ""
	if n.Selected {
		mark = " *"
	}
	if !styled {
		return fmt.Sprintf("%s %s %s%s", id, n.Kind, label, mark)
	}
	kind := n.Kind
	if st, ok := kindStyles[n.Kind]; ok {
		kind = st.Render(kind)
	}
	if n.Selected {
		label = selectedStyle.Render(label)
		mark = selectedStyle.Render(mark)
	}
	return fmt.Sprintf("%s %s %s%s", idStyle.Render(id), kind, label, mark)
}
