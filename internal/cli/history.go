package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"slate-cli/internal/model"
)

type historyEntry struct {
	Index       int  `json:"index"`
	Current     bool `json:"current,omitempty"`
	Trivial     bool `json:"trivial,omitempty"`
	CurrentRoot int  `json:"currentRoot"`
	Objects     int  `json:"objects"`
	LastID      int  `json:"lastObjectId"`
}

type historyResult struct {
	Data    []historyEntry `json:"data"`
	Head    int            `json:"head"`
	CanUndo bool           `json:"canUndo"`
	CanRedo bool           `json:"canRedo"`
}

func (h historyResult) Text() string {
	var b strings.Builder
	for _, e := range h.Data {
		mark := " "
		if e.Current {
			mark = ">"
		}
		kind := "edit"
		if e.Trivial {
			kind = "view"
		}
		fmt.Fprintf(&b, "%s %3d  %-4s  folder #%d  %d objects\n", mark, e.Index, kind, e.CurrentRoot, e.Objects)
	}
	return b.String()
}

func countData(objs []model.ObjectData) int {
	n := 0
	for _, o := range objs {
		n += 1 + countData(o.Content.Objects)
	}
	return n
}

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the undo history of the current document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := view(cmd.Context(), app, func(ws *workspace) (any, error) {
				st := ws.store()
				entries, head := st.HistoryEntries()
				res := historyResult{Data: []historyEntry{}, Head: head, CanUndo: st.CanUndo(), CanRedo: st.CanRedo()}
				for i, e := range entries {
					root := e.Data.ID
					if e.CurrentRootID != nil {
						root = *e.CurrentRootID
					}
					res.Data = append(res.Data, historyEntry{
						Index:       i + 1,
						Current:     i+1 == head,
						Trivial:     e.Trivial,
						CurrentRoot: root,
						Objects:     countData(e.Data.Content.Objects),
						LastID:      e.LastObjectID,
					})
				}
				return res, nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, out)
		},
	}
	return cmd
}

func newUndoCmd(app *App) *cobra.Command {
	return newStepCmd(app, "undo", "Undo the last change", -1)
}

func newRedoCmd(app *App) *cobra.Command {
	return newStepCmd(app, "redo", "Redo the last undone change", +1)
}

func newStepCmd(app *App, use, short string, dir int) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := mutate(cmd.Context(), app, func(ws *workspace) (any, error) {
				for i := 0; i < max(1, steps); i++ {
					var err error
					if dir < 0 {
						err = ws.sess.Undo()
					} else {
						err = ws.sess.Redo()
					}
					if err != nil {
						return nil, err
					}
				}
				st := ws.store()
				return map[string]any{"data": map[string]any{
					"currentRoot": st.CurrentRoot().ID,
					"objects":     len(st.Objects()),
					"canUndo":     st.CanUndo(),
					"canRedo":     st.CanRedo(),
				}}, nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of steps")
	return cmd
}
