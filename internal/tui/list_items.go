package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"slate-cli/internal/model"
)

// objectItem is one row of the canvas list. Children of a container follow
// it with a deeper indent.
type objectItem struct {
	obj   *model.Object
	depth int
}

func (i objectItem) FilterValue() string { return i.label() }

func (i objectItem) Title() string {
	return strings.Repeat("  ", i.depth) + glyph(i.obj) + " " + i.label()
}

func (i objectItem) label() string {
	switch c := i.obj.Content.(type) {
	case *model.ArrowContent:
		return fmt.Sprintf("#%d → #%d", c.Start.ID(), c.End.ID())
	case *model.ContainerContent:
		if t := strings.TrimSpace(c.Title); t != "" {
			return t
		}
		return fmt.Sprintf("container #%d", i.obj.ID)
	case *model.FolderContent:
		return fmt.Sprintf("%s (%d)", strings.TrimSpace(model.StripHTML(c.Name)), len(c.Objects))
	case *model.ImageContent:
		return "image " + c.Handle
	}
	return strings.Join(strings.Fields(model.PlainText(i.obj)), " ")
}

func glyph(o *model.Object) string {
	switch o.Content.(type) {
	case *model.FolderContent:
		return "▸"
	case *model.ContainerContent:
		return "▣"
	case *model.ArrowContent:
		return "→"
	case *model.ImageContent:
		return "▧"
	case *model.TitleContent:
		return "#"
	}
	return "·"
}

// canvasItems lists the objects of folder, arrows last.
func canvasItems(folder *model.Object) []list.Item {
	var items, arrows []list.Item
	for _, o := range folder.Children() {
		if o.IsArrow() {
			arrows = append(arrows, objectItem{obj: o})
			continue
		}
		items = append(items, objectItem{obj: o})
		if o.IsContainer() {
			for _, c := range o.Children() {
				items = append(items, objectItem{obj: c, depth: 1})
			}
		}
	}
	return append(items, arrows...)
}
