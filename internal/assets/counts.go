// Package assets keeps image reference counts and their undo history.
package assets

import (
	"maps"
	"slices"

	"slate-cli/internal/history"
)

// Counts maps image handles to the number of objects that refer to them.
// Snapshots of the whole map are kept in a history that is stepped in
// lockstep with the document history.
type Counts struct {
	counts  map[string]int
	history *history.List[map[string]int]
}

func NewCounts(capacity int) *Counts {
	return &Counts{counts: map[string]int{}, history: history.New[map[string]int](capacity)}
}

// Add registers handle with n references.
func (c *Counts) Add(handle string, n int) { c.counts[handle] = n }

// Move adjusts the count of a known handle. It reports false for handles
// it has never seen.
func (c *Counts) Move(handle string, delta int) bool {
	n, ok := c.counts[handle]
	if !ok {
		return false
	}
	c.counts[handle] = n + delta
	return true
}

func (c *Counts) Count(handle string) int { return c.counts[handle] }

func (c *Counts) Known(handle string) bool {
	_, ok := c.counts[handle]
	return ok
}

// Handles lists known handles in sorted order.
func (c *Counts) Handles() []string {
	return slices.Sorted(maps.Keys(c.counts))
}

func (c *Counts) Forget(handle string) { delete(c.counts, handle) }

// Checkpoint records the current counts as a history entry.
func (c *Counts) Checkpoint() { c.history.Next(maps.Clone(c.counts)) }

func (c *Counts) Undo() error {
	if err := c.history.Undo(); err != nil {
		return err
	}
	c.load()
	return nil
}

func (c *Counts) Redo() error {
	if err := c.history.Redo(); err != nil {
		return err
	}
	c.load()
	return nil
}

// load sets every known handle to its count in the current entry. Handles
// missing from the entry did not exist then and drop to zero.
func (c *Counts) load() {
	snap, err := c.history.Get()
	if err != nil {
		return
	}
	for h := range c.counts {
		c.counts[h] = snap[h]
	}
}

// Unreferenced lists handles at zero now and in every retained history
// entry. Those can be dropped without breaking undo.
func (c *Counts) Unreferenced() []string {
	var out []string
	entries := c.history.Items()
	for _, h := range c.Handles() {
		if c.counts[h] > 0 {
			continue
		}
		used := false
		for _, e := range entries {
			if e[h] > 0 {
				used = true
				break
			}
		}
		if !used {
			out = append(out, h)
		}
	}
	return out
}

// History returns the retained entries oldest first with the 1-based
// position of the current one.
func (c *Counts) History() ([]map[string]int, int) {
	items := c.history.Items()
	for i, e := range items {
		items[i] = maps.Clone(e)
	}
	return items, c.history.Head()
}

// ResetHistory drops every history entry.
func (c *Counts) ResetHistory() { c.history.Reset() }

// RestoreHistory replaces the history. Current counts are left alone.
func (c *Counts) RestoreHistory(entries []map[string]int, head int) error {
	l, err := history.Restore(c.history.Cap(), entries, head)
	if err != nil {
		return err
	}
	c.history = l
	return nil
}
