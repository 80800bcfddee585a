package canvas

import (
	"encoding/json"
	"fmt"

	"slate-cli/internal/history"
	"slate-cli/internal/model"
)

// Snapshot is the serialized state of a whole document.
type Snapshot struct {
	LastObjectID  int              `json:"lastObjectId"`
	Data          model.ObjectData `json:"data"`
	CurrentRootID *int             `json:"currentRootId"`
	Trivial       bool             `json:"trivial"`
}

func (s *Store) serialize(trivial bool) Snapshot {
	return Snapshot{
		LastObjectID:  s.lastID,
		Data:          s.root.Serializable(),
		CurrentRootID: model.IntPtr(s.currentRoot.ID),
		Trivial:       trivial,
	}
}

// CreateSnapshot returns the document as indented JSON.
func (s *Store) CreateSnapshot() (string, error) {
	b, err := json.MarshalIndent(s.serialize(false), "", "    ")
	if err != nil {
		return "", opErr("create snapshot", err)
	}
	return string(b), nil
}

// CreateSnapshoter returns the document as a value.
func (s *Store) CreateSnapshoter() Snapshot {
	return s.serialize(false)
}

// LoadSnapshot replaces the document with the one in input and reopens
// the folder recorded in it.
func (s *Store) LoadSnapshot(input string) error {
	const op = "load snapshot"
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(input), &raw); err != nil {
		return opErr(op, fmt.Errorf("%w: %w", ErrSnapshot, err))
	}
	for _, f := range []string{"data", "lastObjectId"} {
		if v, ok := raw[f]; !ok || string(v) == "null" {
			return opErr(op, fmt.Errorf("%w: missing %s", ErrSnapshot, f))
		}
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(input), &snap); err != nil {
		return opErr(op, fmt.Errorf("%w: %w", ErrSnapshot, err))
	}
	_, err := s.apply(op, snap)
	return err
}

// ApplySnapshot replaces the document with snap, as LoadSnapshot does for
// its encoded form.
func (s *Store) ApplySnapshot(snap Snapshot) error {
	_, err := s.apply("apply snapshot", snap)
	return err
}

// LoadFromObject replaces the document with the tree in data. The id
// counter continues after the largest id found.
func (s *Store) LoadFromObject(data model.ObjectData) error {
	const op = "load from object"
	root, err := decodeRoot(op, data)
	if err != nil {
		return err
	}
	max := 0
	visit(root, true, func(o *model.Object) bool {
		if o.ID > max {
			max = o.ID
		}
		return false
	})
	s.root = root
	s.lastID = max
	return s.setCurrentRootID(op, root.ID)
}

func decodeRoot(op string, data model.ObjectData) (*model.Object, error) {
	root, err := model.Deserialize(data)
	if err != nil {
		return nil, opErr(op, fmt.Errorf("%w: %w", ErrSnapshot, err))
	}
	if !root.IsFolder() {
		return nil, opErr(op, fmt.Errorf("%w: root is %s, not folder", ErrSnapshot, root.Kind()))
	}
	return root, nil
}

// apply installs snap as the document. It fails without side effects when
// the tree does not decode or the recorded current root is missing.
func (s *Store) apply(op string, snap Snapshot) (rootChanged bool, err error) {
	root, err := decodeRoot(op, snap.Data)
	if err != nil {
		return false, err
	}
	want := root.ID
	if snap.CurrentRootID != nil {
		want = *snap.CurrentRootID
	}
	found := visit(root, true, func(o *model.Object) bool { return o.ID == want })
	if found == nil || !found.IsFolder() {
		return false, objErr(op, want, fmt.Errorf("%w: current root not in snapshot", ErrSnapshot))
	}

	prevRoot, prevLast, prevCurrent := s.root, s.lastID, s.currentRoot.ID
	s.root = root
	s.lastID = snap.LastObjectID
	if err := s.setCurrentRootID(op, want); err != nil {
		s.root, s.lastID = prevRoot, prevLast
		_ = s.setCurrentRootID(op, prevCurrent)
		return false, err
	}
	return want != prevCurrent, nil
}

// AddSnapshotToHistory records the current document as a new history
// entry. trivial marks entries that should not flag the document unsaved.
func (s *Store) AddSnapshotToHistory(trivial bool) {
	s.history.Next(s.serialize(trivial))
}

func (s *Store) CanUndo() bool { return s.history.CanUndo() }
func (s *Store) CanRedo() bool { return s.history.CanRedo() }

// Undo restores the previous history entry. It reports whether the open
// folder changed and whether the undone entry was trivial.
func (s *Store) Undo() (rootChanged, trivial bool, err error) {
	const op = "undo"
	prev, err := s.history.Get()
	if err != nil {
		return false, false, opErr(op, err)
	}
	if err := s.history.Undo(); err != nil {
		return false, false, opErr(op, err)
	}
	snap, _ := s.history.Get()
	rootChanged, err = s.apply(op, snap)
	if err != nil {
		_ = s.history.Redo()
		return false, false, err
	}
	s.log.Debug("undo", "last_id", s.lastID, "root_changed", rootChanged)
	return rootChanged, prev.Trivial, nil
}

// Redo restores the next history entry. It reports whether the open folder
// changed and whether the restored entry was trivial.
func (s *Store) Redo() (rootChanged, trivial bool, err error) {
	const op = "redo"
	if err := s.history.Redo(); err != nil {
		return false, false, opErr(op, err)
	}
	snap, _ := s.history.Get()
	rootChanged, err = s.apply(op, snap)
	if err != nil {
		_ = s.history.Undo()
		return false, false, err
	}
	s.log.Debug("redo", "last_id", s.lastID, "root_changed", rootChanged)
	return rootChanged, snap.Trivial, nil
}

// HistoryEntries returns the retained history from oldest to newest and
// the 1-based position of the current entry.
func (s *Store) HistoryEntries() ([]Snapshot, int) {
	return s.history.Items(), s.history.Head()
}

// RestoreHistory replaces the history with entries, positioned at head.
// The document itself is not changed.
func (s *Store) RestoreHistory(entries []Snapshot, head int) error {
	l, err := history.Restore(s.historySize, entries, head)
	if err != nil {
		return opErr("restore history", err)
	}
	s.history = l
	return nil
}
