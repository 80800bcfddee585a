package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/gorilla/websocket"
)

type wsMsg struct {
	Type string `json:"type"`
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  32 * 1024,
	WriteBufferSize: 32 * 1024,
	CheckOrigin:     sameOrigin,
}

func sameOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	host := strings.TrimSpace(r.Host)
	return strings.HasSuffix(origin, "://"+host)
}

func (s *Server) handleTerminal(w http.ResponseWriter, r *http.Request) {
	c, err := s.cfg.Source.Load(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeHTMLTemplate(w, "terminal", struct{ Name string }{c.Name})
}

// handleWS runs one TUI subprocess per connection and pipes it through
// the websocket.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ptmx, cleanup, err := s.startPTYSession()
	if err != nil {
		s.log.Error("start terminal session", "err", err)
		_ = conn.WriteMessage(websocket.TextMessage, []byte("failed to start session: "+err.Error()))
		return
	}
	defer cleanup()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		errCh <- pumpPTYToWS(ctx, ptmx, conn)
	}()
	go func() {
		defer wg.Done()
		errCh <- pumpWSToPTY(ctx, conn, ptmx)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			s.log.Debug("terminal session ended", "err", err)
		}
	}
	cancel()
	// Closing the pty and the socket unblocks both pumps.
	cleanup()
	_ = conn.Close()
	wg.Wait()
}

func (s *Server) startPTYSession() (*os.File, func(), error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, nil, err
	}
	cmd := exec.Command(exe, s.cfg.TerminalArgs...)
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
	)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: 120, Rows: 40})
	if err != nil {
		return nil, nil, err
	}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			_ = ptmx.Close()
			_ = cmd.Process.Kill()
			_, _ = cmd.Process.Wait()
		})
	}
	return ptmx, cleanup, nil
}

func pumpPTYToWS(ctx context.Context, ptmx io.Reader, conn *websocket.Conn) error {
	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := ptmx.Read(buf)
		if n > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func pumpWSToPTY(ctx context.Context, conn *websocket.Conn, ptmx *os.File) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		// Control messages are JSON text; keystrokes are anything else.
		if mt == websocket.TextMessage && len(data) > 0 && data[0] == '{' {
			if m, ok := parseResize(data); ok {
				_ = pty.Setsize(ptmx, &pty.Winsize{Cols: uint16(m.Cols), Rows: uint16(m.Rows)})
			}
			continue
		}
		if len(data) == 0 {
			continue
		}
		if _, err := ptmx.Write(data); err != nil {
			return err
		}
	}
}

func parseResize(data []byte) (wsMsg, bool) {
	var m wsMsg
	if err := json.Unmarshal(data, &m); err != nil {
		return wsMsg{}, false
	}
	if strings.ToLower(strings.TrimSpace(m.Type)) != "resize" || m.Cols <= 0 || m.Rows <= 0 || m.Cols > 1000 || m.Rows > 1000 {
		return wsMsg{}, false
	}
	return m, true
}
