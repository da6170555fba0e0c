// internal/remote/client.go
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
)

const (
	defaultBaseURL   = "https://www.googleapis.com/drive/v3"
	defaultUploadURL = "https://www.googleapis.com/upload/drive/v3"
)

// ErrAuthExpired is returned when the bearer token is rejected. The
// caller is expected to drop the cached token and fall back to the
// signed-out state.
var ErrAuthExpired = errors.New("remote auth expired")

// Client talks to the Drive v3 files surface. It only needs the small
// slice of the API used to mirror one JSON document: find a file by
// name, download it, create it, and overwrite it.
type Client struct {
	httpClient *http.Client
	baseURL    string
	uploadURL  string
}

// New creates a Client. httpClient must already carry credentials
// (an oauth2 token source client).
func New(httpClient *http.Client) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
		uploadURL:  defaultUploadURL,
	}
}

// NewWithEndpoints creates a Client against custom endpoints. Used by
// tests to point at a local server.
func NewWithEndpoints(httpClient *http.Client, baseURL, uploadURL string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		uploadURL:  uploadURL,
	}
}

type fileMeta struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

type fileList struct {
	Files []fileMeta `json:"files"`
}

// Find looks a file up by exact name and returns its ID, or "" when it
// does not exist.
func (c *Client) Find(ctx context.Context, name string) (string, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("name='%s' and trashed=false", name))
	q.Set("fields", "files(id,name)")

	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/files?"+q.Encode(), "", nil)
	if err != nil {
		return "", fmt.Errorf("find file: %w", err)
	}

	var list fileList
	if err := json.Unmarshal(body, &list); err != nil {
		return "", fmt.Errorf("parse file list: %w", err)
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].ID, nil
}

// Download fetches the raw content of a file.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/files/"+fileID+"?alt=media", "", nil)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	return body, nil
}

// Create uploads a new file with the given name and content and returns
// its ID.
func (c *Client) Create(ctx context.Context, name, mimeType string, content []byte) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := w.CreatePart(metaHeader)
	if err != nil {
		return "", fmt.Errorf("create metadata part: %w", err)
	}
	meta := fileMeta{Name: name, MimeType: mimeType}
	if err := json.NewEncoder(metaPart).Encode(meta); err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}

	contentHeader := textproto.MIMEHeader{}
	contentHeader.Set("Content-Type", mimeType)
	contentPart, err := w.CreatePart(contentHeader)
	if err != nil {
		return "", fmt.Errorf("create content part: %w", err)
	}
	if _, err := contentPart.Write(content); err != nil {
		return "", fmt.Errorf("write content part: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close multipart body: %w", err)
	}

	contentType := "multipart/related; boundary=" + w.Boundary()
	body, err := c.do(ctx, http.MethodPost, c.uploadURL+"/files?uploadType=multipart", contentType, buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	var created fileMeta
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("parse created file: %w", err)
	}
	return created.ID, nil
}

// Update overwrites the content of an existing file.
func (c *Client) Update(ctx context.Context, fileID string, content []byte) error {
	_, err := c.do(ctx, http.MethodPatch, c.uploadURL+"/files/"+fileID+"?uploadType=media", "application/json", content)
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url, contentType string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrAuthExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
