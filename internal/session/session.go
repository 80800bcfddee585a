// Package session drives a canvas through user gestures. It enforces the
// order in which gesture events may arrive, keeps asset reference counts in
// step with the object tree and tracks whether the document needs saving.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"slate-cli/internal/assets"
	"slate-cli/internal/canvas"
	"slate-cli/internal/clipboard"
	"slate-cli/internal/model"
)

const (
	// DefaultViewportW and DefaultViewportH size the viewport used when a
	// canvas is opened without a remembered offset.
	DefaultViewportW = 1280
	DefaultViewportH = 800

	menuWidth  = 90
	menuHeight = 45
	pasteInset = 300
)

var (
	ErrUnknownTool  = errors.New("session: unknown tool")
	ErrNotEditable  = errors.New("session: object has no editable text")
	ErrNotContainer = errors.New("session: drop target is not a container")
)

// AssetStore owns image bytes. Objects only hold handles; the session moves
// reference counts as objects holding them come and go. Its history is
// stepped right after the object tree history.
type AssetStore interface {
	clipboard.ImageStore
	ImageRefCount(handle string) int
	AddRefCountToHistory()
	Undo() error
	Redo() error
	Commit() error
}

// Clipboard carries copied objects out of and into the session.
type Clipboard interface {
	Write(c clipboard.Content) error
	Read() (clipboard.Content, error)
}

type Options struct {
	Logger    *slog.Logger
	Assets    AssetStore
	Clipboard Clipboard
	// Viewport is the visible area in canvas units. Zero means the default.
	Viewport model.Size2
}

// Session is the single writer of a canvas store.
type Session struct {
	store  *canvas.Store
	assets AssetStore
	clip   Clipboard
	log    *slog.Logger

	state     State
	saveState SaveState

	offset    model.Vec2
	zoom      float64
	viewport  model.Size2
	viewports map[int]model.Vec2
}

func New(store *canvas.Store, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	as := opts.Assets
	if as == nil {
		as = assets.NewMemory(canvas.HistorySize, log)
	}
	clip := opts.Clipboard
	if clip == nil {
		clip = &clipboard.Memory{}
	}
	vp := opts.Viewport
	if vp.W <= 0 || vp.H <= 0 {
		vp = model.Size2{W: DefaultViewportW, H: DefaultViewportH}
	}
	return &Session{
		store:     store,
		assets:    as,
		clip:      clip,
		log:       log,
		state:     Idle{},
		saveState: SaveLoaded,
		zoom:      1,
		viewport:  vp,
		viewports: map[int]model.Vec2{},
	}
}

func (s *Session) Store() *canvas.Store { return s.store }
func (s *Session) Assets() AssetStore   { return s.assets }
func (s *Session) State() State         { return s.state }
func (s *Session) SaveState() SaveState { return s.saveState }
func (s *Session) Offset() model.Vec2   { return s.offset }
func (s *Session) Zoom() float64        { return s.zoom }

func (s *Session) reject(op string) error {
	return &StateError{Op: op, State: s.state.String()}
}

func (s *Session) markUnsaved() { s.saveState = SaveUnsaved }

func (s *Session) isIdle() bool {
	_, ok := s.state.(Idle)
	return ok
}

func (s *Session) isCancelled() bool {
	_, ok := s.state.(Cancelled)
	return ok
}

// isDeferredIdle reports whether the end event of a finished gesture is
// still expected.
func (s *Session) isDeferredIdle() bool {
	switch s.state.(type) {
	case JustDropped, Cancelled:
		return true
	}
	return false
}

// ArrowHandle returns the provisional arrow while one is being drawn.
func (s *Session) ArrowHandle() *DraggingArrowHandle {
	if h, ok := s.state.(DraggingArrowHandle); ok {
		return &h
	}
	return nil
}

// Reset returns the session to idle and forgets viewport positions.
func (s *Session) Reset() {
	s.state = Idle{}
	s.viewports = map[int]model.Vec2{}
}

// Open installs a document. With history entries, the document is taken
// from the current entry so the open folder survives, and the asset store is
// expected to hold the matching ref-count history. Otherwise root (or an
// empty document when nil) becomes the first history moment.
func (s *Session) Open(root *model.ObjectData, entries []canvas.Snapshot, head int) error {
	s.store.Reset()
	s.Reset()
	if len(entries) > 0 {
		if err := s.store.RestoreHistory(entries, head); err != nil {
			return err
		}
		if err := s.store.ApplySnapshot(entries[head-1]); err != nil {
			return err
		}
	} else {
		if root != nil {
			if err := s.store.LoadFromObject(*root); err != nil {
				return err
			}
		}
		if err := s.AddMomentToHistory(false); err != nil {
			return err
		}
	}
	s.recenter(s.store.CurrentRoot().ID)
	s.saveState = SaveLoaded
	s.log.Debug("document opened", "last_id", s.store.LastObjectID(), "root", s.store.CurrentRoot().ID)
	return nil
}

// Save persists the current document through persist and then commits the
// assets. A save already in flight is not restarted.
func (s *Session) Save(persist func(canvas.Snapshot) error) error {
	if s.saveState == SaveSaving {
		return nil
	}
	s.saveState = SaveSaving
	if err := persist(s.store.CreateSnapshoter()); err != nil {
		s.saveState = SaveError
		return fmt.Errorf("session: save: %w", err)
	}
	if err := s.assets.Commit(); err != nil {
		s.saveState = SaveError
		return fmt.Errorf("session: commit assets: %w", err)
	}
	s.saveState = SaveSaved
	return nil
}

// SetViewportOffset records where the user scrolled to in the open folder.
func (s *Session) SetViewportOffset(offset model.Vec2) error {
	switch s.state.(type) {
	case Idle, Dragging, Undoing:
	default:
		return s.reject("set viewport offset")
	}
	s.offset = offset
	s.viewports[s.store.CurrentRoot().ID] = offset
	return nil
}

func (s *Session) SetViewportZoom(zoom float64) error {
	if !s.isIdle() {
		return s.reject("set viewport zoom")
	}
	if zoom <= 0 {
		return fmt.Errorf("session: zoom must be positive, got %v", zoom)
	}
	s.zoom = zoom
	return nil
}

// recenter restores the remembered offset of a folder, or centers the
// viewport on the folder's contents.
func (s *Session) recenter(rootID int) {
	if off, ok := s.viewports[rootID]; ok {
		s.offset = off
		return
	}
	b := s.store.Bounds()
	center := model.Vec2{
		X: b.Position.X + b.Size.W/2 - menuWidth/2,
		Y: b.Position.Y + b.Size.H/2 + menuHeight/2,
	}
	s.offset = model.Vec2{
		X: math.Round(center.X - s.viewport.W/2),
		Y: math.Round(center.Y - s.viewport.H/2),
	}
}

// toCanvas converts a viewport point to canvas coordinates.
func (s *Session) toCanvas(p model.Vec2) model.Vec2 {
	return model.Vec2{X: p.X/s.zoom + s.offset.X, Y: p.Y/s.zoom + s.offset.Y}
}

func (s *Session) live(op string, obj *model.Object) (*model.Object, error) {
	if obj == nil {
		return nil, fmt.Errorf("session: %s: %w", op, canvas.ErrObjectNotFound)
	}
	live := s.store.GetObject(obj.ID)
	if live == nil {
		return nil, fmt.Errorf("session: %s %d: %w", op, obj.ID, canvas.ErrObjectNotFound)
	}
	return live, nil
}

// moveImageRefs adjusts the reference count of every image under obj,
// nested folders included.
func (s *Session) moveImageRefs(obj *model.Object, delta int) {
	s.store.Visit(obj, true, func(o *model.Object) bool {
		if img, ok := o.Content.(*model.ImageContent); ok && img.Handle != "" {
			s.assets.MoveImageRefCount(img.Handle, delta)
		}
		return false
	})
}
