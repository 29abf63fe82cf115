package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGitHub serves a minimal slice of the contents and actions APIs.
type fakeGitHub struct {
	files      map[string]fakeFile
	dispatched []string
}

type fakeFile struct {
	content []byte
	sha     string
}

func (f *fakeGitHub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/site/contents/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		path := r.URL.Path[len("/repos/acme/site/contents/"):]

		switch r.Method {
		case http.MethodGet:
			file, ok := f.files[path]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{
				"content":  base64.StdEncoding.EncodeToString(file.content),
				"encoding": "base64",
				"sha":      file.sha,
			})
		case http.MethodPut:
			var body struct {
				Message string `json:"message"`
				Content string `json:"content"`
				SHA     string `json:"sha"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

			existing, exists := f.files[path]
			if exists && body.SHA != existing.sha {
				w.WriteHeader(http.StatusConflict)
				return
			}
			raw, err := base64.StdEncoding.DecodeString(body.Content)
			require.NoError(t, err)
			newSHA := existing.sha + "x"
			if newSHA == "x" {
				newSHA = "sha-1"
			}
			f.files[path] = fakeFile{content: raw, sha: newSHA}
			json.NewEncoder(w).Encode(map[string]any{
				"content": map[string]string{"sha": newSHA},
			})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/repos/acme/site/actions/workflows/", func(w http.ResponseWriter, r *http.Request) {
		f.dispatched = append(f.dispatched, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func newTestStore(t *testing.T, fake *fakeGitHub) *Store {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	client, err := NewClient(ClientOptions{
		Token:  "test-token",
		Owner:  "acme",
		Repo:   "site",
		APIURL: srv.URL,
	})
	require.NoError(t, err)
	return New(client)
}

func TestSettings_RoundTrip(t *testing.T) {
	fake := &fakeGitHub{files: map[string]fakeFile{}}
	st := newTestStore(t, fake)
	ctx := context.Background()

	settings, sha, err := st.Settings(ctx)
	require.NoError(t, err)
	assert.Empty(t, sha, "missing file yields empty sha")
	assert.Equal(t, DefaultSettings(), settings)

	settings.Content.Language = "en-US"
	settings.Schedule.Enabled = true
	newSHA, err := st.SaveSettings(ctx, settings, sha)
	require.NoError(t, err)
	assert.NotEmpty(t, newSHA)

	loaded, loadedSHA, err := st.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, newSHA, loadedSHA)
	assert.Equal(t, "en-US", loaded.Content.Language)
	assert.True(t, loaded.Schedule.Enabled)
}

func TestSaveSettings_StaleSHAConflicts(t *testing.T) {
	fake := &fakeGitHub{files: map[string]fakeFile{
		SettingsPath: {content: []byte(`{}`), sha: "current"},
	}}
	st := newTestStore(t, fake)

	_, err := st.SaveSettings(context.Background(), DefaultSettings(), "stale")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestTopics_NilSliceNormalized(t *testing.T) {
	fake := &fakeGitHub{files: map[string]fakeFile{
		TopicsPath: {content: []byte(`{}`), sha: "s1"},
	}}
	st := newTestStore(t, fake)

	topics, sha, err := st.Topics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s1", sha)
	assert.NotNil(t, topics.Topics)
	assert.Empty(t, topics.Topics)
}

func TestHistory_Defaults(t *testing.T) {
	fake := &fakeGitHub{files: map[string]fakeFile{}}
	st := newTestStore(t, fake)

	history, sha, err := st.History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sha)
	assert.NotNil(t, history.Articles)
	assert.Zero(t, history.Usage.TotalTokens)
}

func TestGetFile_StripsEmbeddedNewlines(t *testing.T) {
	// GitHub wraps base64 content at 60 columns.
	content := []byte(`{"articles":[],"usage":{"totalTokens":0,"totalCost":0}}`)
	encoded := base64.StdEncoding.EncodeToString(content)
	wrapped := encoded[:20] + "\n" + encoded[20:]

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"content":  wrapped,
			"encoding": "base64",
			"sha":      "abc",
		})
	}))
	defer srv.Close()

	client, err := NewClient(ClientOptions{Token: "t", Owner: "o", Repo: "r", APIURL: srv.URL})
	require.NoError(t, err)

	file, err := client.GetFile(context.Background(), HistoryPath)
	require.NoError(t, err)
	assert.Equal(t, content, file.Content)
	assert.Equal(t, "abc", file.SHA)
}

func TestDispatchWorkflow(t *testing.T) {
	fake := &fakeGitHub{files: map[string]fakeFile{}}
	st := newTestStore(t, fake)

	err := st.Client().DispatchWorkflow(context.Background(), "daily-publish.yml", "main")
	require.NoError(t, err)
	require.Len(t, fake.dispatched, 1)
	assert.Contains(t, fake.dispatched[0], "daily-publish.yml")
}

func TestHistory_LastExecution(t *testing.T) {
	assert.Nil(t, History{}.LastExecution())
	assert.Nil(t, History{LastExecutionTime: "not a timestamp"}.LastExecution())

	h := History{LastExecutionTime: "2026-03-02T09:00:00+08:00"}
	got := h.LastExecution()
	require.NotNil(t, got)
	assert.Equal(t, "2026-03-02T01:00:00Z", got.Format(time.RFC3339))
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(ClientOptions{Owner: "o", Repo: "r"})
	assert.Error(t, err)
	_, err = NewClient(ClientOptions{Token: "t"})
	assert.Error(t, err)
}
