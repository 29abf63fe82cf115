package wechat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWeChat serves the token, draft and image upload endpoints.
type fakeWeChat struct {
	tokenCalls int
	draftCalls int
	// tokens issued so far; token N is "token-N"
	rejectFirstDraft bool
}

func (f *fakeWeChat) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/cgi-bin/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls++
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": fmt.Sprintf("token-%d", f.tokenCalls),
			"expires_in":   7200,
		})
	})
	mux.HandleFunc("/cgi-bin/draft/add", func(w http.ResponseWriter, r *http.Request) {
		f.draftCalls++
		if f.rejectFirstDraft && f.draftCalls == 1 {
			json.NewEncoder(w).Encode(map[string]any{"errcode": 40001, "errmsg": "invalid credential"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"media_id": "MEDIA123"})
	})
	mux.HandleFunc("/cgi-bin/media/uploadimg", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"url": "https://mmbiz.qpic.cn/hosted.png"})
	})
	return mux
}

func newTestClient(t *testing.T, fake *fakeWeChat) *Client {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	c, err := New(Options{AppID: "appid", AppSecret: "secret", BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestAccessToken_Cached(t *testing.T) {
	fake := &fakeWeChat{}
	c := newTestClient(t, fake)
	ctx := context.Background()

	tok1, err := c.AccessToken(ctx)
	require.NoError(t, err)
	tok2, err := c.AccessToken(ctx)
	require.NoError(t, err)

	assert.Equal(t, tok1, tok2)
	assert.Equal(t, 1, fake.tokenCalls)
}

func TestAccessToken_RefreshesNearExpiry(t *testing.T) {
	fake := &fakeWeChat{}
	c := newTestClient(t, fake)
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }

	_, err := c.AccessToken(ctx)
	require.NoError(t, err)

	// Just inside the 5 minute margin of the 7200s expiry.
	now = now.Add(7200*time.Second - 4*time.Minute)
	_, err = c.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.tokenCalls)
}

func TestCreateDraft(t *testing.T) {
	fake := &fakeWeChat{}
	c := newTestClient(t, fake)

	mediaID, err := c.CreateDraft(context.Background(), []Article{
		{Title: "标题", Content: "<p>正文</p>", Digest: "摘要"},
	})
	require.NoError(t, err)
	assert.Equal(t, "MEDIA123", mediaID)
}

func TestCreateDraft_RetriesOnceOnInvalidCredential(t *testing.T) {
	fake := &fakeWeChat{rejectFirstDraft: true}
	c := newTestClient(t, fake)

	mediaID, err := c.CreateDraft(context.Background(), []Article{{Title: "t", Content: "c"}})
	require.NoError(t, err)
	assert.Equal(t, "MEDIA123", mediaID)
	assert.Equal(t, 2, fake.draftCalls)
	assert.Equal(t, 2, fake.tokenCalls, "40001 drops the cached token")
}

func TestAPIError_KnownCode(t *testing.T) {
	err := &APIError{Code: 40001, Message: "invalid credential"}
	assert.Contains(t, err.Error(), "invalid or expired access token")

	unknown := &APIError{Code: 99999, Message: "boom"}
	assert.Contains(t, unknown.Error(), "99999")
}

func TestRehostImages(t *testing.T) {
	var uploads int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cgi-bin/token":
			json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 7200})
		case "/cgi-bin/media/uploadimg":
			uploads++
			json.NewEncoder(w).Encode(map[string]string{"url": "https://mmbiz.qpic.cn/hosted.png"})
		case "/external.png":
			w.Write([]byte("pngdata"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c, err := New(Options{AppID: "a", AppSecret: "s", BaseURL: srv.URL})
	require.NoError(t, err)

	html := fmt.Sprintf(`<p>x</p><img src="%s/external.png"><img src="https://mmbiz.qpic.cn/already.png">`, srv.URL)
	out := c.RehostImages(context.Background(), html)

	assert.Equal(t, 1, uploads, "hosted images are left alone")
	assert.Contains(t, out, "https://mmbiz.qpic.cn/hosted.png")
	assert.NotContains(t, out, "/external.png")
	assert.Contains(t, out, "https://mmbiz.qpic.cn/already.png")
}

func TestRehostImages_FailureKeepsOriginal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cgi-bin/token" {
			json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 7200})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := New(Options{AppID: "a", AppSecret: "s", BaseURL: srv.URL})
	require.NoError(t, err)

	html := fmt.Sprintf(`<img src="%s/missing.png">`, srv.URL)
	out := c.RehostImages(context.Background(), html)
	assert.Equal(t, html, out)
}
