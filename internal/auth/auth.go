// internal/auth/auth.go
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// tokenFileName is the well-known key the Drive token lives under.
const tokenFileName = "google_token.json"

// driveFileScope grants access to files the app created.
const driveFileScope = "https://www.googleapis.com/auth/drive.file"

var (
	// ErrNotSignedIn is returned when no cached token exists.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrNotConfigured is returned when no OAuth client is configured.
	ErrNotConfigured = errors.New("google oauth client not configured")
)

// Manager owns the cached Drive credential: one token file under the
// data dir, an interactive loopback sign-in flow, and invalidation when
// the remote rejects the token.
type Manager struct {
	conf *oauth2.Config
	path string
	mu   sync.Mutex
}

// New creates a Manager caching its token under dataDir.
func New(clientID, clientSecret, dataDir string) *Manager {
	return &Manager{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{driveFileScope},
		},
		path: filepath.Join(dataDir, tokenFileName),
	}
}

// Configured reports whether an OAuth client ID and secret are set.
func (m *Manager) Configured() bool {
	return m.conf.ClientID != "" && m.conf.ClientSecret != ""
}

// SignedIn reports whether a cached token exists.
func (m *Manager) SignedIn() bool {
	_, err := m.load()
	return err == nil
}

// Client returns an HTTP client carrying the cached credential,
// refreshing and re-caching it as needed.
func (m *Manager) Client(ctx context.Context) (*http.Client, error) {
	tok, err := m.load()
	if err != nil {
		return nil, err
	}
	src := &persistingSource{
		manager: m,
		source:  m.conf.TokenSource(ctx, tok),
		last:    tok,
	}
	return oauth2.NewClient(ctx, src), nil
}

// SignOut drops the cached token. Signing out twice is a no-op.
func (m *Manager) SignOut() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// Login runs the interactive loopback flow: it starts a local callback
// listener, writes the consent URL to out, exchanges the returned code
// and caches the token.
func (m *Manager) Login(ctx context.Context, out io.Writer) error {
	if !m.Configured() {
		return ErrNotConfigured
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("start callback listener: %w", err)
	}
	defer listener.Close()

	conf := *m.conf
	conf.RedirectURL = fmt.Sprintf("http://%s/callback", listener.Addr().String())
	state := uuid.New().String()

	fmt.Fprintf(out, "Open this URL in your browser to sign in:\n\n  %s\n\n", conf.AuthCodeURL(state, oauth2.AccessTypeOffline))

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			errCh <- errors.New("oauth state mismatch")
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			errCh <- errors.New("callback missing code")
			return
		}
		fmt.Fprintln(w, "Signed in. You can close this tab.")
		codeCh <- code
	})}
	go srv.Serve(listener)
	defer srv.Close()

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return fmt.Errorf("oauth callback: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	tok, err := conf.Exchange(exchangeCtx, code)
	if err != nil {
		return fmt.Errorf("exchange code: %w", err)
	}
	return m.save(tok)
}

func (m *Manager) load() (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotSignedIn
		}
		return nil, fmt.Errorf("read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}
	return &tok, nil
}

func (m *Manager) save(tok *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}

	// Atomic write: write to temp file then rename
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename token file: %w", err)
	}
	return nil
}

// persistingSource re-caches the token whenever the underlying source
// refreshes it.
type persistingSource struct {
	manager *Manager
	source  oauth2.TokenSource
	mu      sync.Mutex
	last    *oauth2.Token
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.source.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	changed := p.last == nil || tok.AccessToken != p.last.AccessToken
	p.last = tok
	p.mu.Unlock()
	if changed {
		if err := p.manager.save(tok); err != nil {
			return nil, err
		}
	}
	return tok, nil
}
