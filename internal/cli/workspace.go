package cli

import (
	"context"
	"strconv"
	"strings"
	"time"

	"slate-cli/internal/canvas"
	"slate-cli/internal/clipboard"
	"slate-cli/internal/format"
	"slate-cli/internal/model"
	"slate-cli/internal/session"
	"slate-cli/internal/store"
)

// workspace is one open document: the library it lives in, its assets and
// the session editing it.
type workspace struct {
	app    *App
	cfg    *store.GlobalConfig
	lib    *store.Library
	doc    *store.Document
	assets *store.Assets
	sess   *session.Session
}

func openLibrary(ctx context.Context, app *App) (*store.GlobalConfig, *store.Library, error) {
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	path, err := cfg.ResolveLibraryPath()
	if err != nil {
		return nil, nil, err
	}
	lib, err := store.OpenLibrary(ctx, path, app.log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, lib, nil
}

// currentRef is --doc, then the document remembered in the config.
func currentRef(app *App, cfg *store.GlobalConfig) string {
	if ref := strings.TrimSpace(app.Doc); ref != "" {
		return ref
	}
	return cfg.CurrentDocument
}

// openWorkspace loads the current document with its history.
func openWorkspace(ctx context.Context, app *App) (*workspace, error) {
	cfg, lib, err := openLibrary(ctx, app)
	if err != nil {
		return nil, err
	}
	w, err := loadWorkspace(ctx, app, cfg, lib, currentRef(app, cfg))
	if err != nil {
		_ = lib.Close()
		return nil, err
	}
	return w, nil
}

func loadWorkspace(ctx context.Context, app *App, cfg *store.GlobalConfig, lib *store.Library, ref string) (*workspace, error) {
	if ref == "" {
		return nil, errNoDocument
	}
	doc, err := lib.Find(ctx, ref)
	if err != nil {
		return nil, err
	}
	size := cfg.EffectiveHistorySize()
	as, err := lib.LoadAssets(ctx, doc.UUID, size)
	if err != nil {
		return nil, err
	}
	st := canvas.New(canvas.Options{Logger: app.log, HistorySize: size})
	sess := session.New(st, session.Options{Logger: app.log, Assets: as, Clipboard: app.clipboard()})

	h, err := lib.LoadHistory(ctx, doc.UUID)
	if err != nil {
		return nil, err
	}
	opened := false
	if h != nil && len(h.Entries) > 0 {
		if err := as.RestoreHistory(h.Counts, h.CountsHead); err != nil {
			app.log.Warn("discarding unreadable asset history", "doc", doc.UUID, "err", err)
		} else if err := sess.Open(nil, h.Entries, h.Head); err != nil {
			app.log.Warn("discarding unreadable history", "doc", doc.UUID, "err", err)
			as.ResetHistory()
		} else {
			opened = true
		}
	}
	if !opened {
		if err := sess.Open(doc.Root(), nil, 0); err != nil {
			return nil, err
		}
	}
	return &workspace{app: app, cfg: cfg, lib: lib, doc: doc, assets: as, sess: sess}, nil
}

func (app *App) clipboard() session.Clipboard {
	if app.Clip != nil {
		return app.Clip
	}
	return clipboard.System{}
}

func (w *workspace) Close() error { return w.lib.Close() }

func (w *workspace) store() *canvas.Store { return w.sess.Store() }

// save writes the document, its assets and the undo history.
func (w *workspace) save(ctx context.Context) error {
	err := w.sess.Save(func(snap canvas.Snapshot) error {
		return w.lib.SaveSnapshot(ctx, w.doc, snap)
	})
	if err != nil {
		return err
	}
	entries, head := w.store().HistoryEntries()
	counts, countsHead := w.assets.History()
	return w.lib.SaveHistory(ctx, w.doc.UUID, store.History{
		Entries:    entries,
		Head:       head,
		Counts:     counts,
		CountsHead: countsHead,
	})
}

// object resolves an id argument in the open canvas.
func (w *workspace) object(arg string) (*model.Object, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(arg), "#"))
	if err != nil {
		return nil, errNotFound("object", arg)
	}
	o := w.store().GetObject(id)
	if o == nil {
		return nil, errNotFound("object", arg)
	}
	return o, nil
}

func (w *workspace) objects(args []string) ([]*model.Object, error) {
	out := make([]*model.Object, 0, len(args))
	for _, a := range args {
		o, err := w.object(a)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// mutate opens the current document, runs fn and saves the result.
func mutate(ctx context.Context, app *App, fn func(w *workspace) (any, error)) (any, error) {
	w, err := openWorkspace(ctx, app)
	if err != nil {
		return nil, err
	}
	defer w.Close()
	out, err := fn(w)
	if err != nil {
		return nil, err
	}
	if err := w.save(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// view opens the current document read-only.
func view(ctx context.Context, app *App, fn func(w *workspace) (any, error)) (any, error) {
	w, err := openWorkspace(ctx, app)
	if err != nil {
		return nil, err
	}
	defer w.Close()
	return fn(w)
}

type objectView struct {
	ID       int            `json:"id"`
	Kind     model.Kind     `json:"kind"`
	Text     string         `json:"text,omitempty"`
	Position model.Vec2     `json:"position"`
	Size     model.Size2    `json:"size"`
	ParentID *int           `json:"parentId,omitempty"`
	Selected bool           `json:"selected,omitempty"`
	Arrow    *arrowEndpoint `json:"arrow,omitempty"`
}

type arrowEndpoint struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func viewObject(o *model.Object) objectView {
	v := objectView{
		ID:       o.ID,
		Kind:     o.Kind(),
		Text:     strings.TrimSpace(model.PlainText(o)),
		Position: o.Position,
		Size:     o.Size,
		ParentID: o.ParentID,
		Selected: o.Selected,
	}
	if a, ok := o.Content.(*model.ArrowContent); ok {
		v.Arrow = &arrowEndpoint{Start: a.Start.ID(), End: a.End.ID()}
		v.Text = ""
	}
	return v
}

func viewObjects(objs []*model.Object) []objectView {
	out := make([]objectView, 0, len(objs))
	for _, o := range objs {
		out = append(out, viewObject(o))
	}
	return out
}

// canvasTree describes the open canvas for `show`.
func canvasTree(st *canvas.Store) format.Node {
	return treeNode(st.CurrentRoot())
}

func treeNode(o *model.Object) format.Node {
	n := format.Node{ID: o.ID, Kind: string(o.Kind()), Label: nodeLabel(o), Selected: o.Selected}
	if o.IsFolder() && !o.IsRoot && o.ParentID != nil {
		// Folder contents belong to another canvas.
		return n
	}
	for _, c := range o.Children() {
		n.Children = append(n.Children, treeNode(c))
	}
	return n
}

func nodeLabel(o *model.Object) string {
	switch c := o.Content.(type) {
	case *model.ArrowContent:
		return "#" + strconv.Itoa(c.Start.ID()) + " → #" + strconv.Itoa(c.End.ID())
	case *model.ContainerContent:
		return c.Title
	case *model.FolderContent:
		return strings.TrimSpace(model.StripHTML(c.Name)) + " (" + strconv.Itoa(len(c.Objects)) + ")"
	case *model.ImageContent:
		return c.Handle
	}
	return strings.Join(strings.Fields(model.PlainText(o)), " ")
}

// docView is what document commands print.
type docView struct {
	UUID       string    `json:"uuid"`
	Name       string    `json:"name"`
	LastAccess time.Time `json:"lastAccess"`
	Current    bool      `json:"current,omitempty"`
}

func viewDocument(d *store.Document, current string) docView {
	return docView{UUID: d.UUID, Name: d.Name, LastAccess: d.LastAccessTime(), Current: d.UUID == current}
}
