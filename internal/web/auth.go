package web

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	sessionCookieName = "slate_session"
	sessionTTL        = 12 * time.Hour
	linkTTL           = 10 * time.Minute
)

type signedPayload struct {
	Exp int64  `json:"exp"`
	Sub string `json:"sub"`           // document uuid
	Typ string `json:"typ,omitempty"` // "session"|"link"
	N   string `json:"n,omitempty"`   // nonce
}

func secretKeyPath(configDir string) string {
	return filepath.Join(configDir, "web", "secret.key")
}

func loadOrInitSecretKey(configDir string) ([]byte, error) {
	path := secretKeyPath(configDir)
	if b, err := os.ReadFile(path); err == nil && len(b) > 0 {
		return []byte(strings.TrimSpace(string(b))), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	enc := base64.RawURLEncoding.EncodeToString(raw)
	if err := os.WriteFile(path, []byte(enc+"\n"), 0o600); err != nil {
		return nil, err
	}
	return []byte(enc), nil
}

func signToken(secret []byte, payload signedPayload) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	p := base64.RawURLEncoding.EncodeToString(b)
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(p))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return p + "." + sig, nil
}

func verifyToken(secret []byte, token string) (signedPayload, error) {
	token = strings.TrimSpace(token)
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return signedPayload{}, errors.New("invalid token format")
	}
	p, sig := parts[0], parts[1]

	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(p))
	want := mac.Sum(nil)
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil || !hmac.Equal(want, got) {
		return signedPayload{}, errors.New("invalid token signature")
	}

	raw, err := base64.RawURLEncoding.DecodeString(p)
	if err != nil {
		return signedPayload{}, errors.New("invalid token payload")
	}
	var sp signedPayload
	if err := json.Unmarshal(raw, &sp); err != nil {
		return signedPayload{}, errors.New("invalid token payload")
	}
	if sp.Exp == 0 {
		return signedPayload{}, errors.New("token missing exp")
	}
	if time.Now().Unix() > sp.Exp {
		return signedPayload{}, errors.New("token expired")
	}
	if strings.TrimSpace(sp.Sub) == "" {
		return signedPayload{}, errors.New("token missing sub")
	}
	return sp, nil
}

func newNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func newToken(secret []byte, typ, sub string, ttl time.Duration) (string, error) {
	sub = strings.TrimSpace(sub)
	if sub == "" {
		return "", errors.New("missing subject")
	}
	n, err := newNonce()
	if err != nil {
		return "", err
	}
	return signToken(secret, signedPayload{
		Typ: typ,
		Sub: sub,
		N:   n,
		Exp: time.Now().Add(ttl).Unix(),
	})
}

// LoginURL returns the link to open in a browser. With token auth it
// carries a short-lived token that starts a session.
func (s *Server) LoginURL() (string, error) {
	if s.secret == nil {
		return "http://" + s.cfg.Addr + "/", nil
	}
	tok, err := newToken(s.secret, "link", s.cfg.DocID, linkTTL)
	if err != nil {
		return "", err
	}
	return "http://" + s.cfg.Addr + "/verify?token=" + tok, nil
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	sp, err := verifyToken(s.secret, r.URL.Query().Get("token"))
	if err != nil || sp.Typ != "link" || sp.Sub != s.cfg.DocID {
		http.Error(w, "invalid or expired link", http.StatusUnauthorized)
		return
	}
	tok, err := newToken(s.secret, "session", sp.Sub, sessionTTL)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sessionTTL),
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// requireSession rejects requests without a valid session cookie when the
// server runs with token auth.
func (s *Server) requireSession(next http.Handler) http.Handler {
	if s.secret == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookieName)
		if err == nil {
			if sp, err := verifyToken(s.secret, c.Value); err == nil && sp.Typ == "session" && sp.Sub == s.cfg.DocID {
				next.ServeHTTP(w, r)
				return
			}
		}
		http.Error(w, "unauthorized: open the link printed by `slate serve`", http.StatusUnauthorized)
	})
}
