package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"slate-cli/internal/model"
)

const (
	DocumentVersion     = 1
	DefaultDocumentName = "Untitled"

	// lastAccessLayout is fixed width so stored values sort by time.
	lastAccessLayout = "2006-01-02T15:04:05.000Z"
)

var ErrInvalidDocument = errors.New("store: invalid document")

// Document is a saved canvas in file format v1. A nil Data is a document
// that has never been edited; it opens as an empty Home folder.
type Document struct {
	Version    int           `json:"version"`
	UUID       string        `json:"uuid"`
	LastAccess string        `json:"lastAccess"`
	Name       string        `json:"name"`
	Data       *DocumentData `json:"data"`
}

type DocumentData struct {
	LastObjectID int              `json:"lastObjectId"`
	Data         model.ObjectData `json:"data"`
}

// NewDocument returns an empty document with a fresh uuid.
func NewDocument(name string) *Document {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultDocumentName
	}
	return &Document{Version: DocumentVersion, UUID: uuid.NewString(), Name: name}
}

// Root returns the top-level folder, or nil for a document without data.
func (d *Document) Root() *model.ObjectData {
	if d.Data == nil {
		return nil
	}
	return &d.Data.Data
}

// LastAccessTime parses LastAccess. Documents that were never opened report
// the zero time.
func (d *Document) LastAccessTime() time.Time {
	t, err := time.Parse(time.RFC3339Nano, d.LastAccess)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (d *Document) Touch(now time.Time) {
	d.LastAccess = now.UTC().Format(lastAccessLayout)
}

// ParseDocument decodes and validates a v1 document.
func ParseDocument(b []byte) (*Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	var version int
	if v, ok := raw["version"]; !ok || json.Unmarshal(v, &version) != nil {
		return nil, fmt.Errorf("%w: missing version", ErrInvalidDocument)
	}
	if version != DocumentVersion {
		return nil, fmt.Errorf("%w: unknown version %d", ErrInvalidDocument, version)
	}
	for _, f := range []string{"data", "uuid", "lastAccess", "name"} {
		if _, ok := raw[f]; !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrInvalidDocument, f)
		}
	}
	if d, ok := raw["data"]; ok && string(d) != "null" {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(d, &inner); err != nil {
			return nil, fmt.Errorf("%w: data: %w", ErrInvalidDocument, err)
		}
		for _, f := range []string{"lastObjectId", "data"} {
			if v, ok := inner[f]; !ok || string(v) == "null" {
				return nil, fmt.Errorf("%w: missing data.%s", ErrInvalidDocument, f)
			}
		}
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if strings.TrimSpace(doc.UUID) == "" {
		return nil, fmt.Errorf("%w: empty uuid", ErrInvalidDocument)
	}
	return &doc, nil
}
