// Package store persists dashboard state as JSON files in a GitHub
// repository via the contents API, and dispatches workflow runs.
package store

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultAPIURL = "https://api.github.com"

var (
	// ErrNotFound is returned when the requested file does not exist in
	// the repository.
	ErrNotFound = errors.New("store: file not found")
	// ErrConflict is returned when a write loses the optimistic
	// concurrency race (the provided sha is stale).
	ErrConflict = errors.New("store: sha conflict")
)

// Client talks to the GitHub REST API for a single repository.
type Client struct {
	baseURL string
	httpc   *http.Client
	token   string
	owner   string
	repo    string
}

// ClientOptions configures a Client. Token, Owner and Repo are required.
type ClientOptions struct {
	Token      string
	Owner      string
	Repo       string
	APIURL     string
	HTTPClient *http.Client
}

// NewClient builds a Client from options, applying defaults for the API
// URL and HTTP client.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Token == "" {
		return nil, errors.New("store: token is required")
	}
	if opts.Owner == "" || opts.Repo == "" {
		return nil, errors.New("store: owner and repo are required")
	}
	baseURL := opts.APIURL
	if baseURL == "" {
		baseURL = defaultAPIURL
	}
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: baseURL,
		httpc:   httpc,
		token:   opts.Token,
		owner:   opts.Owner,
		repo:    opts.Repo,
	}, nil
}

// File is a repository file with the blob sha needed for updates.
type File struct {
	Content []byte
	SHA     string
}

type contentsResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	SHA      string `json:"sha"`
}

// GetFile fetches a file from the repository.
func (c *Client) GetFile(ctx context.Context, path string) (File, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, c.owner, c.repo, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return File{}, err
	}
	c.setHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return File{}, fmt.Errorf("store: get %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return File{}, ErrNotFound
	default:
		return File{}, apiError("get", path, resp)
	}

	var cr contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return File{}, fmt.Errorf("store: decode %s: %w", path, err)
	}
	raw, err := base64.StdEncoding.DecodeString(stripNewlines(cr.Content))
	if err != nil {
		return File{}, fmt.Errorf("store: decode content of %s: %w", path, err)
	}
	return File{Content: raw, SHA: cr.SHA}, nil
}

// PutFile creates or updates a file. An empty sha creates the file; a
// non-empty sha must match the current blob or ErrConflict is returned.
// The new blob sha is returned on success.
func (c *Client) PutFile(ctx context.Context, path, message string, content []byte, sha string) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, c.owner, c.repo, path)

	body := map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString(content),
	}
	if sha != "" {
		body["sha"] = sha
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("store: put %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return "", ErrConflict
	default:
		return "", apiError("put", path, resp)
	}

	var result struct {
		Content struct {
			SHA string `json:"sha"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("store: decode put response for %s: %w", path, err)
	}
	return result.Content.SHA, nil
}

// DispatchWorkflow triggers a workflow_dispatch event for the given
// workflow file on ref.
func (c *Client) DispatchWorkflow(ctx context.Context, workflowFile, ref string) error {
	url := fmt.Sprintf("%s/repos/%s/%s/actions/workflows/%s/dispatches", c.baseURL, c.owner, c.repo, workflowFile)

	payload, err := json.Marshal(map[string]string{"ref": ref})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("store: dispatch %s: %w", workflowFile, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return apiError("dispatch", workflowFile, resp)
	}
	log.Debug().Str("workflow", workflowFile).Str("ref", ref).Msg("workflow dispatched")
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
}

func apiError(op, path string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	var ghErr struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &ghErr) == nil && ghErr.Message != "" {
		return fmt.Errorf("store: %s %s: %s (status %d)", op, path, ghErr.Message, resp.StatusCode)
	}
	return fmt.Errorf("store: %s %s: status %d", op, path, resp.StatusCode)
}

// GitHub base64-encodes contents with embedded newlines.
func stripNewlines(s string) string {
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' || s[i] == '\r' {
			continue
		}
		buf = append(buf, s[i])
	}
	return string(buf)
}
