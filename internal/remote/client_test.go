// internal/remote/client_test.go
package remote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewWithEndpoints(srv.Client(), srv.URL, srv.URL)
	return client, srv
}

func TestFind_ReturnsIDWhenPresent(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query().Get("q")
		if !strings.Contains(q, "name='chats.json'") || !strings.Contains(q, "trashed=false") {
			t.Errorf("unexpected query %q", q)
		}
		io.WriteString(w, `{"files":[{"id":"abc123","name":"chats.json"}]}`)
	}))
	defer srv.Close()

	id, err := client.Find(context.Background(), "chats.json")
	if err != nil {
		t.Fatal(err)
	}
	if id != "abc123" {
		t.Errorf("expected abc123, got %q", id)
	}
}

func TestFind_EmptyWhenAbsent(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"files":[]}`)
	}))
	defer srv.Close()

	id, err := client.Find(context.Background(), "missing.json")
	if err != nil {
		t.Fatal(err)
	}
	if id != "" {
		t.Errorf("expected empty ID, got %q", id)
	}
}

func TestDownload(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/abc123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("alt") != "media" {
			t.Error("expected alt=media")
		}
		io.WriteString(w, `[{"id":"s1"}]`)
	}))
	defer srv.Close()

	data, err := client.Download(context.Background(), "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `[{"id":"s1"}]` {
		t.Errorf("wrong content: %s", data)
	}
}

func TestCreate_MultipartUpload(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Query().Get("uploadType") != "multipart" {
			t.Error("expected uploadType=multipart")
		}
		ct := r.Header.Get("Content-Type")
		if !strings.HasPrefix(ct, "multipart/related") {
			t.Errorf("expected multipart/related, got %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"name":"chats.json"`) {
			t.Error("metadata part missing file name")
		}
		if !strings.Contains(string(body), `[{"id":"s1"}]`) {
			t.Error("content part missing")
		}
		io.WriteString(w, `{"id":"new456"}`)
	}))
	defer srv.Close()

	id, err := client.Create(context.Background(), "chats.json", "application/json", []byte(`[{"id":"s1"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if id != "new456" {
		t.Errorf("expected new456, got %q", id)
	}
}

func TestUpdate_MediaPatch(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		if r.URL.Path != "/files/abc123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("uploadType") != "media" {
			t.Error("expected uploadType=media")
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `[]` {
			t.Errorf("wrong body: %s", body)
		}
		io.WriteString(w, `{"id":"abc123"}`)
	}))
	defer srv.Close()

	if err := client.Update(context.Background(), "abc123", []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
}

func TestUnauthorized_MapsToErrAuthExpired(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := client.Find(context.Background(), "chats.json")
	if !errors.Is(err, ErrAuthExpired) {
		t.Errorf("expected ErrAuthExpired, got %v", err)
	}

	err = client.Update(context.Background(), "x", nil)
	if !errors.Is(err, ErrAuthExpired) {
		t.Errorf("expected ErrAuthExpired from update, got %v", err)
	}
}

func TestServerError_NotAuthExpired(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "boom")
	}))
	defer srv.Close()

	_, err := client.Download(context.Background(), "abc123")
	if err == nil || errors.Is(err, ErrAuthExpired) {
		t.Errorf("expected plain error, got %v", err)
	}
}
