// Package config loads runtime configuration from a TOML file and the
// environment. Environment variables take precedence, so secrets never
// have to live in the file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration.
type Config struct {
	Server     Server     `mapstructure:"server"`
	Auth       Auth       `mapstructure:"auth"`
	GitHub     GitHub     `mapstructure:"github"`
	WeChat     WeChat     `mapstructure:"wechat"`
	Perplexity Perplexity `mapstructure:"perplexity"`
}

// Server configures the dashboard HTTP server.
type Server struct {
	Port          int    `mapstructure:"port"`
	SessionSecret string `mapstructure:"session_secret"`
}

// Auth configures dashboard login.
type Auth struct {
	Password  string `mapstructure:"password"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// GitHub configures the repository used for storage and workflows.
type GitHub struct {
	Token        string `mapstructure:"token"`
	Owner        string `mapstructure:"owner"`
	Repo         string `mapstructure:"repo"`
	WorkflowFile string `mapstructure:"workflow_file"`
	Ref          string `mapstructure:"ref"`
	APIURL       string `mapstructure:"api_url"`
}

// WeChat configures the official account client.
type WeChat struct {
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
}

// Perplexity configures the generation client.
type Perplexity struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// Load reads configuration via viper. A config file is optional; the
// environment alone is enough to run.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("github.workflow_file", "daily-publish.yml")
	v.SetDefault("github.ref", "main")
	v.SetDefault("perplexity.model", "sonar")

	v.SetConfigName("draftpress")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/draftpress")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Names used by the hosted deployment and CI secrets.
	envBindings := map[string]string{
		"auth.password":         "DASHBOARD_PASSWORD",
		"auth.jwt_secret":       "JWT_SECRET",
		"server.session_secret": "SESSION_SECRET",
		"github.token":          "GITHUB_TOKEN",
		"github.owner":          "GITHUB_OWNER",
		"github.repo":           "GITHUB_REPO",
		"wechat.app_id":         "WECHAT_APP_ID",
		"wechat.app_secret":     "WECHAT_APP_SECRET",
		"perplexity.api_key":    "PERPLEXITY_API_KEY",
	}
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// ValidateStorage checks the fields every command touching the
// repository needs.
func (c *Config) ValidateStorage() error {
	var missing []string
	if c.GitHub.Token == "" {
		missing = append(missing, "github.token")
	}
	if c.GitHub.Owner == "" {
		missing = append(missing, "github.owner")
	}
	if c.GitHub.Repo == "" {
		missing = append(missing, "github.repo")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateServe checks the additional fields the dashboard needs.
func (c *Config) ValidateServe() error {
	if err := c.ValidateStorage(); err != nil {
		return err
	}
	if c.Auth.Password == "" {
		return errors.New("config: missing auth.password (DASHBOARD_PASSWORD)")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("config: missing auth.jwt_secret (JWT_SECRET)")
	}
	return nil
}

// ValidatePublish checks the additional fields the publish pipeline
// needs.
func (c *Config) ValidatePublish() error {
	if err := c.ValidateStorage(); err != nil {
		return err
	}
	if c.Perplexity.APIKey == "" {
		return errors.New("config: missing perplexity.api_key (PERPLEXITY_API_KEY)")
	}
	if c.WeChat.AppID == "" || c.WeChat.AppSecret == "" {
		return errors.New("config: missing wechat app credentials")
	}
	return nil
}
