package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"slate-cli/internal/model"
	"slate-cli/internal/render"
	"slate-cli/internal/session"
)

type browseModel struct {
	title string
	sess  *session.Session
	save  func() error

	keys keyMap
	list list.Model
	help help.Model

	width   int
	height  int
	preview bool

	status string
	err    error
}

func newBrowseModel(title string, sess *session.Session, save func() error) browseModel {
	l := list.New(nil, newObjectDelegate(), 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.DisableQuitKeybindings()

	m := browseModel{
		title: title,
		sess:  sess,
		save:  save,
		keys:  defaultKeyMap(),
		list:  l,
		help:  help.New(),
	}
	m.refresh()
	return m
}

func (m browseModel) Init() tea.Cmd { return nil }

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Open):
			if obj := m.current(); obj != nil && obj.IsFolder() {
				m.apply("opened "+folderLabel(obj), func() error {
					return m.sess.SetCurrentRoot(obj, true, true)
				})
			}
			return m, nil
		case key.Matches(msg, m.keys.Up):
			path := m.sess.Store().Path()
			if len(path) > 1 {
				parent := path[len(path)-2]
				m.apply("back to "+folderLabel(parent), func() error {
					return m.sess.SetCurrentRoot(parent, true, true)
				})
			}
			return m, nil
		case key.Matches(msg, m.keys.Select):
			if obj := m.current(); obj != nil {
				m.setErr(m.sess.Select(obj, true, nil))
				m.refresh()
			}
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			m.delete()
			return m, nil
		case key.Matches(msg, m.keys.Undo):
			m.apply("undone", m.sess.Undo)
			return m, nil
		case key.Matches(msg, m.keys.Redo):
			m.apply("redone", m.sess.Redo)
			return m, nil
		case key.Matches(msg, m.keys.Preview):
			m.preview = !m.preview
			m.resize()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *browseModel) current() *model.Object {
	if it, ok := m.list.SelectedItem().(objectItem); ok {
		return it.obj
	}
	return nil
}

// delete removes the selection, or the object under the cursor when
// nothing is selected.
func (m *browseModel) delete() {
	targets := m.sess.Store().GetSelected()
	if len(targets) == 0 {
		if obj := m.current(); obj != nil {
			targets = []*model.Object{obj}
		}
	}
	if len(targets) == 0 {
		return
	}
	m.apply(fmt.Sprintf("deleted %d", len(targets)), func() error {
		for _, o := range targets {
			if m.sess.Store().GetObject(o.ID) == nil {
				continue
			}
			if _, err := m.sess.Delete(o); err != nil {
				return err
			}
		}
		return m.sess.AddMomentToHistory(false)
	})
}

// apply runs a change, saves the document and reloads the list.
func (m *browseModel) apply(status string, fn func() error) {
	if err := fn(); err != nil {
		m.setErr(err)
		m.refresh()
		return
	}
	if err := m.save(); err != nil {
		m.setErr(err)
	} else {
		m.err = nil
		m.status = status
	}
	m.refresh()
}

func (m *browseModel) setErr(err error) {
	if err != nil {
		m.err = err
		m.status = ""
	}
}

func (m *browseModel) refresh() {
	idx := m.list.Index()
	m.list.SetItems(canvasItems(m.sess.Store().CurrentRoot()))
	if n := len(m.list.Items()); idx >= n {
		idx = n - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}
}

func (m *browseModel) resize() {
	w := m.listWidth()
	h := m.height - 3
	if h < 1 {
		h = 1
	}
	m.list.SetSize(w, h)
	m.help.Width = m.width
}

func (m browseModel) listWidth() int {
	if m.preview {
		return m.width / 2
	}
	return m.width
}

func folderLabel(o *model.Object) string {
	if f, ok := o.Content.(*model.FolderContent); ok {
		return strings.TrimSpace(model.StripHTML(f.Name))
	}
	return fmt.Sprintf("#%d", o.ID)
}

func (m browseModel) header() string {
	var names []string
	for _, f := range m.sess.Store().Path() {
		names = append(names, folderLabel(f))
	}
	crumbs := lipgloss.NewStyle().Foreground(colorChromeFg).Render(strings.Join(names, " / "))
	title := lipgloss.NewStyle().Bold(true).Render(m.title)
	state := styleMuted().Render(string(m.sess.SaveState()))
	return title + "  " + crumbs + "  " + state
}

func (m browseModel) footer() string {
	line := styleMuted().Render(m.status)
	if m.err != nil {
		line = lipgloss.NewStyle().Foreground(colorError).Render(m.err.Error())
	}
	return line + "\n" + m.help.View(m.keys)
}

func (m browseModel) View() string {
	body := m.list.View()
	if m.preview {
		pw := m.width - m.listWidth() - 2
		md := render.RenderMarkdown(render.Markdown(m.sess.Store().CurrentRoot()), pw)
		pane := lipgloss.NewStyle().
			Width(pw).
			Height(m.height - 3).
			MaxHeight(m.height - 3).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(colorPreviewEdge).
			PaddingLeft(1).
			Render(md)
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, pane)
	}
	return m.header() + "\n" + body + "\n" + m.footer()
}
