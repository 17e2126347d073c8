package cloudsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sandeepkv93/focusloop/internal/model"
)

const (
	DefaultBaseURL  = "https://api.github.com"
	DefaultFileName = "focus-loops.json"
)

var (
	ErrNotConfigured = errors.New("cloudsync: gist id and token are required")
	ErrRemoteEmpty   = errors.New("cloudsync: remote file is missing or empty")
)

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gist api error: status=%d body=%s", e.StatusCode, e.Body)
}

// GistClient stores the whole snapshot as one file in a GitHub gist.
type GistClient struct {
	BaseURL    string
	GistID     string
	Token      string
	FileName   string
	HTTPClient *http.Client
	Timeout    time.Duration
}

func NewGistClient(gistID, token string) *GistClient {
	return &GistClient{
		BaseURL:  DefaultBaseURL,
		GistID:   gistID,
		Token:    token,
		FileName: DefaultFileName,
		Timeout:  10 * time.Second,
	}
}

type gistFile struct {
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
	RawURL    string `json:"raw_url,omitempty"`
}

type gistResponse struct {
	Files     map[string]gistFile `json:"files"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type gistPatch struct {
	Files map[string]gistFile `json:"files"`
}

// Pull fetches the remote snapshot.
func (c *GistClient) Pull(ctx context.Context) (*model.State, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	var resp gistResponse
	if err := c.do(ctx, http.MethodGet, "gists/"+url.PathEscape(c.GistID), nil, &resp); err != nil {
		return nil, err
	}
	file, ok := resp.Files[c.fileName()]
	if !ok {
		return nil, ErrRemoteEmpty
	}
	content := file.Content
	if file.Truncated && file.RawURL != "" {
		raw, err := c.fetchRaw(ctx, file.RawURL)
		if err != nil {
			return nil, err
		}
		content = raw
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrRemoteEmpty
	}
	var st model.State
	if err := json.Unmarshal([]byte(content), &st); err != nil {
		return nil, fmt.Errorf("cloudsync: decode remote snapshot: %w", err)
	}
	st.Normalize()
	return &st, nil
}

// Push uploads st, replacing the remote file.
func (c *GistClient) Push(ctx context.Context, st *model.State) error {
	if err := c.check(); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	body := gistPatch{Files: map[string]gistFile{c.fileName(): {Content: string(raw)}}}
	return c.do(ctx, http.MethodPatch, "gists/"+url.PathEscape(c.GistID), body, nil)
}

func (c *GistClient) check() error {
	if strings.TrimSpace(c.GistID) == "" || strings.TrimSpace(c.Token) == "" {
		return ErrNotConfigured
	}
	return nil
}

func (c *GistClient) fileName() string {
	if c.FileName == "" {
		return DefaultFileName
	}
	return c.FileName
}

func (c *GistClient) client() *http.Client {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	return c.HTTPClient
}

func (c *GistClient) do(ctx context.Context, method, endpoint string, body any, out any) error {
	target := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.Token)
	resp, err := c.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *GistClient) fetchRaw(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	resp, err := c.client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 300 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	return string(b), nil
}
