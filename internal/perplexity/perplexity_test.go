package perplexity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okResponse(content string, tokens int) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
		"citations": []string{"https://example.com/a"},
		"usage":     map[string]int{"prompt_tokens": 10, "completion_tokens": tokens - 10, "total_tokens": tokens},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{
		APIKey:    "key",
		BaseURL:   srv.URL,
		RetryBase: time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func TestSearch_Success(t *testing.T) {
	var gotAuth, gotModel string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel = req.Model
		json.NewEncoder(w).Encode(okResponse("generated article", 1200))
	})

	resp, err := c.Search(context.Background(), "write about Go")
	require.NoError(t, err)
	assert.Equal(t, "Bearer key", gotAuth)
	assert.Equal(t, "sonar", gotModel)
	assert.Equal(t, "generated article", resp.Content)
	assert.Equal(t, []string{"https://example.com/a"}, resp.Citations)
	assert.Equal(t, 1200, resp.Usage.TotalTokens)
}

func TestSearch_RetriesRateLimit(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(okResponse("ok", 100))
	})

	resp, err := c.Search(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "ok", resp.Content)
}

func TestSearch_ExhaustsRetries(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Search(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, 3, calls)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestSearch_UnauthorizedIsTerminal(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Search(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, 1, calls, "auth failures must not be retried")
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
