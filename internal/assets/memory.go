package assets

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

// ErrEmptyImage is returned when creating an image without data.
var ErrEmptyImage = errors.New("assets: empty image")

// Memory is an asset store that keeps image bytes in process.
type Memory struct {
	*Counts
	data map[string][]byte
	log  *slog.Logger
}

func NewMemory(historySize int, log *slog.Logger) *Memory {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Memory{Counts: NewCounts(historySize), data: map[string][]byte{}, log: log}
}

// CreateImage stores data under a fresh handle with one reference.
func (m *Memory) CreateImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}
	h := uuid.NewString()
	m.data[h] = append([]byte(nil), data...)
	m.Add(h, 1)
	return h, nil
}

func (m *Memory) LoadedImageData(handle string) ([]byte, bool) {
	d, ok := m.data[handle]
	return d, ok
}

func (m *Memory) MoveImageRefCount(handle string, delta int) {
	if !m.Move(handle, delta) {
		m.log.Warn("ref count moved for unknown image", "handle", handle, "delta", delta)
	}
}

func (m *Memory) ImageRefCount(handle string) int { return m.Count(handle) }

func (m *Memory) AddRefCountToHistory() { m.Checkpoint() }

// Commit drops images no longer referenced anywhere in the history.
func (m *Memory) Commit() error {
	for _, h := range m.Unreferenced() {
		delete(m.data, h)
		m.Forget(h)
	}
	return nil
}
