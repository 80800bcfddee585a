package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"slate-cli/internal/assets"
)

const imageAssetKind = "image"

var ErrEmptyAsset = errors.New("store: empty asset")

// Assets is the image store of one document in the library. Bytes and
// reference counts are loaded on open and written back on Commit.
type Assets struct {
	*assets.Counts
	lib  *Library
	doc  string
	data map[string][]byte
	log  *slog.Logger
}

// LoadAssets reads every image of document doc.
func (l *Library) LoadAssets(ctx context.Context, doc string, historySize int) (*Assets, error) {
	a := &Assets{
		Counts: assets.NewCounts(historySize),
		lib:    l,
		doc:    doc,
		data:   map[string][]byte{},
		log:    l.log,
	}
	rows, err := l.db.QueryContext(ctx, `SELECT handle, data, ref_count FROM assets WHERE doc_uuid = ? AND kind = ?`, doc, imageAssetKind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			handle string
			data   []byte
			n      int
		)
		if err := rows.Scan(&handle, &data, &n); err != nil {
			return nil, err
		}
		a.data[handle] = data
		a.Add(handle, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	l.log.Debug("assets loaded", "doc", doc, "count", len(a.data))
	return a, nil
}

func (a *Assets) CreateImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyAsset
	}
	h := uuid.NewString()
	a.data[h] = append([]byte(nil), data...)
	a.Add(h, 1)
	return h, nil
}

func (a *Assets) LoadedImageData(handle string) ([]byte, bool) {
	d, ok := a.data[handle]
	return d, ok
}

func (a *Assets) MoveImageRefCount(handle string, delta int) {
	if !a.Move(handle, delta) {
		a.log.Warn("ref count moved for unknown image", "doc", a.doc, "handle", handle, "delta", delta)
	}
}

func (a *Assets) ImageRefCount(handle string) int { return a.Count(handle) }

func (a *Assets) AddRefCountToHistory() { a.Checkpoint() }

func (a *Assets) Commit() error { return a.CommitContext(context.Background()) }

// CommitContext writes every image and its count, then deletes images that
// neither the document nor its history refer to.
func (a *Assets) CommitContext(ctx context.Context) error {
	tx, err := a.lib.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	drop := a.Unreferenced()
	dropped := make(map[string]bool, len(drop))
	for _, h := range drop {
		dropped[h] = true
		if _, err := tx.ExecContext(ctx, `DELETE FROM assets WHERE doc_uuid = ? AND handle = ?`, a.doc, h); err != nil {
			return err
		}
	}
	for _, h := range a.Handles() {
		if dropped[h] {
			continue
		}
		data, ok := a.data[h]
		if !ok {
			return fmt.Errorf("store: image %s has a count but no data", h)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO assets(doc_uuid, handle, kind, data, ref_count) VALUES(?, ?, ?, ?, ?)
			ON CONFLICT(doc_uuid, handle) DO UPDATE SET ref_count=excluded.ref_count`,
			a.doc, h, imageAssetKind, data, a.Count(h)); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	for _, h := range drop {
		delete(a.data, h)
		a.Forget(h)
	}
	a.log.Debug("assets committed", "doc", a.doc, "kept", len(a.data), "dropped", len(drop))
	return nil
}
