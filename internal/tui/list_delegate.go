package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"slate-cli/internal/model"
)

type objectDelegate struct {
	normal   lipgloss.Style
	cursor   lipgloss.Style
	selected lipgloss.Style
	kinds    map[model.Kind]lipgloss.Style
}

func newObjectDelegate() objectDelegate {
	return objectDelegate{
		normal:   lipgloss.NewStyle(),
		cursor:   lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true),
		selected: lipgloss.NewStyle().Foreground(colorAccent).Bold(true),
		kinds: map[model.Kind]lipgloss.Style{
			model.KindFolder: lipgloss.NewStyle().Foreground(colorFolder),
			model.KindImage:  lipgloss.NewStyle().Foreground(colorImage),
			model.KindArrow:  styleMuted(),
		},
	}
}

func (d objectDelegate) Height() int                             { return 1 }
func (d objectDelegate) Spacing() int                            { return 0 }
func (d objectDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d objectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	contentW := m.Width()
	it, ok := item.(objectItem)
	if !ok || contentW < 4 {
		fmt.Fprint(w, "")
		return
	}

	mark := "  "
	if it.obj.Selected {
		mark = "* "
	}
	line := mark + it.Title()
	lineW := xansi.StringWidth(line)
	if lineW < contentW {
		line += strings.Repeat(" ", contentW-lineW)
	} else if lineW > contentW {
		line = xansi.Truncate(line, contentW, "…")
	}

	style := d.normal
	if st, ok := d.kinds[it.obj.Kind()]; ok {
		style = st
	}
	if it.obj.Selected {
		style = d.selected
	}
	if index == m.Index() {
		style = d.cursor
	}
	fmt.Fprint(w, style.Render(line))
}
