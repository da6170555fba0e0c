// internal/auth/auth_test.go
package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestTokenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := New("client", "secret", dir)

	if m.SignedIn() {
		t.Fatal("fresh manager should not be signed in")
	}

	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	}
	if err := m.save(tok); err != nil {
		t.Fatal(err)
	}
	if !m.SignedIn() {
		t.Fatal("expected signed in after save")
	}

	loaded, err := m.load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.AccessToken != "access" || loaded.RefreshToken != "refresh" {
		t.Errorf("token mangled: %+v", loaded)
	}
}

func TestLoad_MissingFileIsErrNotSignedIn(t *testing.T) {
	m := New("client", "secret", t.TempDir())
	if _, err := m.load(); !errors.Is(err, ErrNotSignedIn) {
		t.Errorf("expected ErrNotSignedIn, got %v", err)
	}
}

func TestSignOut_RemovesTokenAndIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	m := New("client", "secret", dir)
	if err := m.save(&oauth2.Token{AccessToken: "x"}); err != nil {
		t.Fatal(err)
	}

	if err := m.SignOut(); err != nil {
		t.Fatal(err)
	}
	if m.SignedIn() {
		t.Error("still signed in after sign out")
	}
	if _, err := os.Stat(filepath.Join(dir, tokenFileName)); !os.IsNotExist(err) {
		t.Error("token file still present")
	}

	if err := m.SignOut(); err != nil {
		t.Errorf("second sign out should be a no-op, got %v", err)
	}
}

func TestConfigured(t *testing.T) {
	if New("", "", t.TempDir()).Configured() {
		t.Error("empty client should not be configured")
	}
	if !New("id", "secret", t.TempDir()).Configured() {
		t.Error("full client should be configured")
	}
}

func TestTokenFilePermissions(t *testing.T) {
	dir := t.TempDir()
	m := New("client", "secret", dir)
	if err := m.save(&oauth2.Token{AccessToken: "x"}); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(filepath.Join(dir, tokenFileName))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("token file should be 0600, got %v", info.Mode().Perm())
	}
}
