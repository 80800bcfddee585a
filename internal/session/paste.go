package session

import (
	"errors"
	"fmt"
	"strings"

	"slate-cli/internal/canvas"
	"slate-cli/internal/clipboard"
	"slate-cli/internal/model"
)

// CopySelected puts the selected objects on the clipboard. Nothing is copied
// while an object is being edited.
func (s *Session) CopySelected() error {
	if s.store.GetEditing() != nil {
		return nil
	}
	sel := s.store.GetSelected()
	if len(sel) == 0 {
		return nil
	}
	htmlText, plain, err := clipboard.Encode(sel, s.store, s.assets)
	if err != nil {
		return err
	}
	return s.clip.Write(clipboard.Content{Text: plain, HTML: htmlText})
}

// Paste inserts the clipboard contents into the open canvas. An image
// becomes an image object; text, or anything when asText is set, becomes
// a text object; a fragment copied from a canvas is rebuilt object by
// object. HTML that is not such a fragment is pasted as text.
func (s *Session) Paste(asText bool) ([]*model.Object, error) {
	const op = "paste"
	if s.store.GetEditing() != nil {
		return nil, nil
	}
	if !s.isIdle() {
		return nil, s.reject(op)
	}
	c, err := s.clip.Read()
	if err != nil {
		return nil, err
	}
	at := s.offset.Add(model.Vec2{X: pasteInset, Y: pasteInset})

	var added []*model.Object
	switch {
	case c.Image != nil:
		handle, err := s.assets.CreateImage(c.Image.Data)
		if err != nil {
			return nil, err
		}
		s.store.ClearSelected()
		obj, err := s.store.AddContent(model.NewImage(handle, true), canvas.AddOptions{Position: at, Size: c.Image.Size})
		if err != nil {
			s.assets.MoveImageRefCount(handle, -1)
			return nil, err
		}
		added = append(added, obj)

	case c.Text != "" && (c.HTML == "" || asText):
		s.store.ClearSelected()
		obj, err := s.pasteText(strings.ReplaceAll(c.Text, "\n", "<br>"), at)
		if err != nil {
			return nil, err
		}
		added = append(added, obj)

	case c.HTML != "":
		s.store.ClearSelected()
		frag, err := clipboard.Decode(c.HTML)
		switch {
		case errors.Is(err, clipboard.ErrNotFragment):
			obj, err := s.pasteText(c.HTML, at)
			if err != nil {
				return nil, err
			}
			added = append(added, obj)
		case err != nil:
			return nil, err
		default:
			if err := frag.ResolveImages(s.assets); err != nil {
				return nil, err
			}
			p := &paster{s: s, parents: map[int]*model.Object{}, targets: map[int]*model.Object{}}
			for _, data := range frag.Objects {
				if err := p.object(data); err != nil {
					return p.added, &clipboard.UnacceptableError{Reason: fmt.Sprintf("object %d", data.ID), Err: err}
				}
			}
			if err := p.connect(); err != nil {
				return p.added, &clipboard.UnacceptableError{Reason: "arrows", Err: err}
			}
			added = p.added
		}

	default:
		return nil, nil
	}
	s.log.Debug("pasted", "count", len(added))
	return added, s.AddMomentToHistory(false)
}

func (s *Session) pasteText(text string, at model.Vec2) (*model.Object, error) {
	return s.store.AddContent(model.NewText(text), canvas.AddOptions{
		Position: at,
		Size:     model.Size2{W: canvas.Unit * 22, H: canvas.Unit * 3},
	})
}

// paster rebuilds copied objects with fresh ids. Objects that were nested
// in a copied container go back into the copy of it; the rest land on the
// open canvas selected. Arrows are added last, between the copies of their
// endpoints, so they may refer to any object of the fragment.
type paster struct {
	s       *Session
	parents map[int]*model.Object
	targets map[int]*model.Object
	arrows  []*model.Object
	added   []*model.Object
}

func (p *paster) object(data model.ObjectData) error {
	root, err := model.Deserialize(data)
	if err != nil {
		return err
	}
	queue := []*model.Object{root}
	for len(queue) > 0 {
		o := queue[0]
		queue = queue[1:]

		var parent *model.Object
		if !o.IsRoot && o.ParentID != nil {
			parent = p.parents[*o.ParentID]
		}
		opts := canvas.AddOptions{Position: o.Position, Size: o.Size, Selected: parent == nil}

		var obj *model.Object
		switch c := o.Content.(type) {
		case *model.ContainerContent:
			obj, err = p.add(model.EmptyContainer(c.Title), parent, opts)
			if err == nil {
				p.parents[o.ID] = obj
			}
			queue = append(queue, c.Objects...)
		case *model.TextContent, *model.TitleContent, *model.ImageContent:
			obj, err = p.add(c, parent, opts)
		case *model.FolderContent:
			obj, err = p.s.CloneFolder(opts, o.ID, c, parent)
		case *model.ArrowContent:
			p.arrows = append(p.arrows, o)
			continue
		default:
			panic(fmt.Sprintf("session: paste: unhandled content %T", c))
		}
		if err != nil {
			return err
		}
		p.targets[o.ID] = obj
		p.added = append(p.added, obj)
	}
	return nil
}

func (p *paster) add(c model.Content, parent *model.Object, opts canvas.AddOptions) (*model.Object, error) {
	if parent != nil {
		return p.s.store.AddContentWithParent(c, parent, opts)
	}
	return p.s.store.AddContent(c, opts)
}

func (p *paster) connect() error {
	for _, o := range p.arrows {
		a := o.Content.(*model.ArrowContent)
		start, end := p.targets[a.Start.ID()], p.targets[a.End.ID()]
		if start == nil || end == nil {
			p.s.log.Warn("pasted arrow endpoints not found", "start", a.Start.ID(), "end", a.End.ID())
			continue
		}
		obj, err := p.s.store.AddArrow(
			model.NewArrow(model.ObjectRef(start), model.ObjectRef(end), a.Curve, a.TipLeft, a.TipRight),
			canvas.AddOptions{Position: o.Position, Size: o.Size, Selected: true})
		if err != nil {
			return err
		}
		p.added = append(p.added, obj)
	}
	return nil
}
