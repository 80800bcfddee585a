package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/CAFxX/httpcompression"
	"github.com/starfederation/datastar-go/datastar"

	"slate-cli/internal/model"
	"slate-cli/internal/render"
)

// Canvas is what the viewer shows: the open folder of a document.
type Canvas struct {
	Name   string
	Path   []string
	Root   *model.Object
	Images render.Images
}

// Source loads the document being served. Revision changes whenever the
// document is saved, by this process or another one.
type Source interface {
	Load(ctx context.Context) (*Canvas, error)
	Revision(ctx context.Context) (int64, error)
}

type ServerConfig struct {
	Addr      string
	DocID     string
	ConfigDir string
	AuthMode  string // none|token

	// Terminal enables /terminal, a browser terminal running TerminalArgs
	// against this executable in a pty.
	Terminal     bool
	TerminalArgs []string

	PollInterval time.Duration
	Source       Source
	Log          *slog.Logger
}

type Server struct {
	cfg    ServerConfig
	tmpl   *template.Template
	secret []byte
	log    *slog.Logger
	hub    *revisionHub

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewServer(cfg ServerConfig) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.DocID = strings.TrimSpace(cfg.DocID)
	cfg.AuthMode = strings.ToLower(strings.TrimSpace(cfg.AuthMode))
	if cfg.Addr == "" {
		return nil, errors.New("web: addr is empty")
	}
	if cfg.Source == nil {
		return nil, errors.New("web: no document source")
	}
	if cfg.AuthMode == "" {
		cfg.AuthMode = "none"
	}
	if cfg.AuthMode != "none" && cfg.AuthMode != "token" {
		return nil, errors.New("web: invalid auth mode (expected none|token)")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Log == nil {
		cfg.Log = slog.New(slog.DiscardHandler)
	}

	tmpl, err := template.New("base").Parse(pageTemplates)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		cfg:    cfg,
		tmpl:   tmpl,
		log:    cfg.Log,
		hub:    newRevisionHub(),
		stopCh: make(chan struct{}),
	}
	if cfg.AuthMode == "token" {
		if cfg.DocID == "" {
			return nil, errors.New("web: token auth needs a document id")
		}
		srv.secret, err = loadOrInitSecretKey(cfg.ConfigDir)
		if err != nil {
			return nil, err
		}
	}
	go srv.watchLoop()
	return srv, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

// Close stops watching the document for changes.
func (s *Server) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *Server) Handler() http.Handler {
	compress, err := httpcompression.DefaultAdapter()
	if err != nil {
		s.log.Warn("response compression disabled", "err", err)
		compress = func(h http.Handler) http.Handler { return h }
	}

	app := http.NewServeMux()
	app.Handle("GET /{$}", compress(http.HandlerFunc(s.handleHome)))
	app.Handle("GET /canvas.md", compress(http.HandlerFunc(s.handleMarkdown)))
	app.HandleFunc("GET /canvas.png", s.handlePNG)
	app.HandleFunc("GET /events", s.handleEvents)
	if s.cfg.Terminal {
		app.Handle("GET /terminal", compress(http.HandlerFunc(s.handleTerminal)))
		app.HandleFunc("GET /ws", s.handleWS)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.secret != nil {
		mux.HandleFunc("GET /verify", s.handleVerify)
	}
	mux.Handle("/", s.requireSession(app))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

type mainVM struct {
	Name     string
	Path     []string
	Rev      int64
	Empty    bool
	Outline  template.HTML
	Terminal bool
}

func (s *Server) mainVM(ctx context.Context) (mainVM, error) {
	rev, err := s.cfg.Source.Revision(ctx)
	if err != nil {
		return mainVM{}, err
	}
	c, err := s.cfg.Source.Load(ctx)
	if err != nil {
		return mainVM{}, err
	}
	return mainVM{
		Name:     c.Name,
		Path:     c.Path,
		Rev:      rev,
		Empty:    len(c.Root.Children()) == 0,
		Outline:  outlineHTML(c.Root),
		Terminal: s.cfg.Terminal,
	}, nil
}

func (s *Server) renderTemplate(name string, data any) (string, error) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Server) writeHTMLTemplate(w http.ResponseWriter, name string, data any) {
	html, err := s.renderTemplate(name, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	vm, err := s.mainVM(r.Context())
	if err != nil {
		s.log.Error("load canvas", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeHTMLTemplate(w, "page", vm)
}

func (s *Server) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	c, err := s.cfg.Source.Load(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = io.WriteString(w, render.Markdown(c.Root))
}

func (s *Server) handlePNG(w http.ResponseWriter, r *http.Request) {
	scale := 1.0
	if v := strings.TrimSpace(r.URL.Query().Get("scale")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > 4 {
			http.Error(w, "scale must be in (0, 4]", http.StatusBadRequest)
			return
		}
		scale = f
	}
	c, err := s.cfg.Source.Load(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := render.PNG(&buf, c.Root, c.Images, render.PNGOptions{Scale: scale}); err != nil {
		if errors.Is(err, render.ErrEmpty) {
			http.Error(w, "canvas is empty", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}

// handleEvents streams a fresh #slate-main whenever the document changes.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	ch, cancel := s.hub.subscribe()
	defer cancel()
	_ = sse.MarshalAndPatchSignals(map[string]any{"rev": s.hub.current()})

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-sse.Context().Done():
			return
		case <-keepAlive.C:
			_ = sse.PatchSignals([]byte(`{}`))
		case <-ch:
			vm, err := s.mainVM(sse.Context())
			if err != nil {
				_ = sse.ExecuteScript(fmt.Sprintf(`console.error(%q)`, err.Error()))
				continue
			}
			html, err := s.renderTemplate("main", vm)
			if err != nil {
				_ = sse.ExecuteScript(fmt.Sprintf(`console.error(%q)`, err.Error()))
				continue
			}
			_ = sse.PatchElements(html, datastar.WithSelector("#slate-main"), datastar.WithMode(datastar.ElementPatchModeOuter))
			_ = sse.MarshalAndPatchSignals(map[string]any{"rev": vm.Rev})
		}
	}
}

type revisionHub struct {
	mu   sync.Mutex
	rev  int64
	subs map[chan struct{}]struct{}
}

func newRevisionHub() *revisionHub {
	return &revisionHub{subs: map[chan struct{}]struct{}{}}
}

func (h *revisionHub) subscribe() (ch chan struct{}, cancel func()) {
	ch = make(chan struct{}, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}
}

func (h *revisionHub) current() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rev
}

// update records rev and wakes subscribers when it moved. The first
// observed revision only sets the baseline.
func (h *revisionHub) update(rev int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if rev == h.rev {
		return false
	}
	first := h.rev == 0
	h.rev = rev
	if first {
		return false
	}
	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return true
}

func (s *Server) watchLoop() {
	t := time.NewTicker(s.cfg.PollInterval)
	defer t.Stop()

	for {
		rev, err := s.cfg.Source.Revision(context.Background())
		if err != nil {
			s.log.Debug("revision poll failed", "err", err)
		} else if s.hub.update(rev) {
			s.log.Debug("document changed", "rev", rev)
		}
		select {
		case <-s.stopCh:
			return
		case <-t.C:
		}
	}
}
