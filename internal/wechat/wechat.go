// Package wechat is a client for the WeChat official account API:
// access tokens, draft creation and image uploads.
package wechat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const defaultBaseURL = "https://api.weixin.qq.com"

// Access tokens are refreshed this long before their reported expiry.
const tokenExpiryMargin = 5 * time.Minute

// Client talks to the official account API for a single app. The
// access token is cached on the instance and refreshed on demand.
type Client struct {
	appID     string
	appSecret string
	baseURL   string
	httpc     *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time

	now func() time.Time
}

// Options configures a Client. AppID and AppSecret are required.
type Options struct {
	AppID      string
	AppSecret  string
	BaseURL    string
	HTTPClient *http.Client
}

// New builds a Client, applying defaults.
func New(opts Options) (*Client, error) {
	if opts.AppID == "" || opts.AppSecret == "" {
		return nil, fmt.Errorf("wechat: app id and secret are required")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		appID:     opts.AppID,
		appSecret: opts.AppSecret,
		baseURL:   baseURL,
		httpc:     httpc,
		now:       time.Now,
	}, nil
}

// APIError is a response carrying a non-zero errcode.
type APIError struct {
	Code    int    `json:"errcode"`
	Message string `json:"errmsg"`
}

func (e *APIError) Error() string {
	if desc, ok := errcodeDescriptions[e.Code]; ok {
		return fmt.Sprintf("wechat: errcode %d (%s): %s", e.Code, desc, e.Message)
	}
	return fmt.Sprintf("wechat: errcode %d: %s", e.Code, e.Message)
}

const errcodeInvalidCredential = 40001

var errcodeDescriptions = map[int]string{
	-1:    "system busy",
	40001: "invalid or expired access token",
	40002: "invalid credential type",
	40164: "calling IP not in whitelist",
	45009: "api call quota exceeded",
	48001: "api unauthorized for this account",
}

// AccessToken returns a valid cached token, fetching a new one when
// the cache is empty or within the expiry margin.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}
	return c.refreshTokenLocked(ctx)
}

func (c *Client) refreshTokenLocked(ctx context.Context) (string, error) {
	q := url.Values{
		"grant_type": {"client_credential"},
		"appid":      {c.appID},
		"secret":     {c.appSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cgi-bin/token?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("wechat: token request: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		APIError
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("wechat: decode token response: %w", err)
	}
	if body.Code != 0 {
		return "", &APIError{Code: body.Code, Message: body.Message}
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("wechat: empty access token")
	}

	c.token = body.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(body.ExpiresIn)*time.Second - tokenExpiryMargin)
	return c.token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}

// Article is one item of a draft.
type Article struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	Digest       string `json:"digest,omitempty"`
	ThumbMediaID string `json:"thumb_media_id,omitempty"`
}

// CreateDraft uploads the articles as a single draft and returns its
// media id.
func (c *Client) CreateDraft(ctx context.Context, articles []Article) (string, error) {
	payload, err := json.Marshal(map[string]any{"articles": articles})
	if err != nil {
		return "", err
	}

	var result struct {
		MediaID string `json:"media_id"`
	}
	if err := c.postJSON(ctx, "/cgi-bin/draft/add", payload, &result); err != nil {
		return "", err
	}
	if result.MediaID == "" {
		return "", fmt.Errorf("wechat: draft created without media id")
	}
	return result.MediaID, nil
}

// UploadArticleImage uploads image bytes for use inside article
// bodies and returns the hosted URL.
func (c *Client) UploadArticleImage(ctx context.Context, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("media", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var result struct {
		URL string `json:"url"`
	}
	err = c.call(ctx, "/cgi-bin/media/uploadimg", mw.FormDataContentType(), buf.Bytes(), &result)
	if err != nil {
		return "", err
	}
	if result.URL == "" {
		return "", fmt.Errorf("wechat: image upload returned no url")
	}
	return result.URL, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload []byte, out any) error {
	return c.call(ctx, path, "application/json", payload, out)
}

// call performs an authenticated POST. On errcode 40001 the cached
// token is dropped and the request retried once with a fresh token.
func (c *Client) call(ctx context.Context, path, contentType string, payload []byte, out any) error {
	err := c.doOnce(ctx, path, contentType, payload, out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == errcodeInvalidCredential {
		c.invalidateToken()
		err = c.doOnce(ctx, path, contentType, payload, out)
	}
	return err
}

func (c *Client) doOnce(ctx context.Context, path, contentType string, payload []byte, out any) error {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return err
	}

	reqURL := fmt.Sprintf("%s%s?access_token=%s", c.baseURL, path, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("wechat: %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("wechat: read %s response: %w", path, err)
	}

	var apiErr APIError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Code != 0 {
		return &apiErr
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("wechat: decode %s response: %w", path, err)
		}
	}
	return nil
}
