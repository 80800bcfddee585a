// Package tui is an interactive browser for one canvas document.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"slate-cli/internal/session"
)

// Run browses the document edited by sess until the user quits. save is
// called after every change.
func Run(title string, sess *session.Session, save func() error) error {
	applyColorProfilePreference()
	applyThemePreference()
	m := newBrowseModel(title, sess, save)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
