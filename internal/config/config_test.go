package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "draftpress.toml"), []byte(content), 0644))
	chdir(t, dir)
}

func TestLoad_FromFile(t *testing.T) {
	writeConfig(t, `
[server]
port = 9090

[github]
owner = "acme"
repo = "site"

[perplexity]
model = "sonar-pro"
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "acme", cfg.GitHub.Owner)
	assert.Equal(t, "site", cfg.GitHub.Repo)
	assert.Equal(t, "sonar-pro", cfg.Perplexity.Model)

	// Defaults fill what the file leaves out.
	assert.Equal(t, "daily-publish.yml", cfg.GitHub.WorkflowFile)
	assert.Equal(t, "main", cfg.GitHub.Ref)
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sonar", cfg.Perplexity.Model)
	assert.Equal(t, "daily-publish.yml", cfg.GitHub.WorkflowFile)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	writeConfig(t, `
[github]
token = "from-file"
owner = "acme"
`)
	t.Setenv("GITHUB_TOKEN", "from-env")
	t.Setenv("DASHBOARD_PASSWORD", "pw")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.GitHub.Token)
	assert.Equal(t, "acme", cfg.GitHub.Owner)
	assert.Equal(t, "pw", cfg.Auth.Password)
}

func TestValidateStorage(t *testing.T) {
	cfg := &Config{}
	err := cfg.ValidateStorage()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "github.token")
	assert.Contains(t, err.Error(), "github.owner")
	assert.Contains(t, err.Error(), "github.repo")

	cfg.GitHub = GitHub{Token: "t", Owner: "o", Repo: "r"}
	assert.NoError(t, cfg.ValidateStorage())
}

func TestValidateServe(t *testing.T) {
	cfg := &Config{GitHub: GitHub{Token: "t", Owner: "o", Repo: "r"}}
	require.Error(t, cfg.ValidateServe())

	cfg.Auth = Auth{Password: "pw"}
	require.Error(t, cfg.ValidateServe())

	cfg.Auth.JWTSecret = "secret"
	assert.NoError(t, cfg.ValidateServe())
}

func TestValidatePublish(t *testing.T) {
	cfg := &Config{
		GitHub:     GitHub{Token: "t", Owner: "o", Repo: "r"},
		Perplexity: Perplexity{APIKey: "key"},
	}
	require.Error(t, cfg.ValidatePublish())

	cfg.WeChat = WeChat{AppID: "id", AppSecret: "secret"}
	assert.NoError(t, cfg.ValidatePublish())
}
