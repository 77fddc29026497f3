package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Env           string `yaml:"env"` // dev | prod
		Port          string `yaml:"port"`
		BaseURL       string `yaml:"base_url"`
		DefaultLocale string `yaml:"default_locale"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Session struct {
		TTL    time.Duration `yaml:"ttl"`
		Secure bool          `yaml:"secure"`
	} `yaml:"session"`

	Connect Connect `yaml:"connect"`

	Providers []Provider `yaml:"providers"`
}

// Connect configures the account-linking flow.
type Connect struct {
	AuthSessionTTL        time.Duration `yaml:"auth_session_ttl"`
	Store                 string        `yaml:"store"` // redis | memory
	AutoLinkVerifiedEmail bool          `yaml:"auto_link_verified_email"`
	Registration          Registration  `yaml:"registration"`
}

// Registration mirrors the form options shown on the connect page.
type Registration struct {
	AllowNameEdit         bool `yaml:"allow_name_edit"`
	AllowEmailEdit        bool `yaml:"allow_email_edit"`
	RequirePassword       bool `yaml:"require_password"`
	PasswordMinLength     int  `yaml:"password_min_length"`
	RequireTermsOfService bool `yaml:"require_terms_of_service"`
}

// Provider configures one OIDC authenticator.
type Provider struct {
	Name          string   `yaml:"name"`         // route key, e.g. "google"
	DisplayName   string   `yaml:"display_name"` // e.g. "Google"
	Issuer        string   `yaml:"issuer"`
	ClientID      string   `yaml:"client_id"`
	ClientSecret  string   `yaml:"client_secret"`
	RedirectURL   string   `yaml:"redirect_url"`
	PublicAuthURL string   `yaml:"public_auth_url"`
	Scopes        []string `yaml:"scopes"`
	UI            struct {
		ButtonColor         string `yaml:"button_color"`
		PhotoURL            string `yaml:"photo_url"`
		TermsOfServiceLabel string `yaml:"terms_of_service_label"`
		TermsOfServiceURL   string `yaml:"terms_of_service_url"`
	} `yaml:"ui"`
}

// Load reads an optional .env file, the YAML file at path (if any) and
// environment overrides, then applies defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(&c)
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func applyEnv(c *Config) {
	setString(&c.App.Env, "APP_ENV")
	setString(&c.App.Port, "APP_PORT")
	setString(&c.App.BaseURL, "APP_BASE_URL")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Database.DSN, "DATABASE_DSN")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")

	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}

	// Secrets per provider: GOOGLE_CLIENT_SECRET, KEYCLOAK_CLIENT_ID, ...
	for i := range c.Providers {
		prefix := strings.ToUpper(strings.ReplaceAll(c.Providers[i].Name, "-", "_"))
		setString(&c.Providers[i].ClientID, prefix+"_CLIENT_ID")
		setString(&c.Providers[i].ClientSecret, prefix+"_CLIENT_SECRET")
		setString(&c.Providers[i].RedirectURL, prefix+"_REDIRECT_URL")
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Port == "" {
		c.App.Port = "8080"
	}
	if c.App.DefaultLocale == "" {
		c.App.DefaultLocale = "en"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 24 * time.Hour
	}
	if c.Connect.AuthSessionTTL == 0 {
		c.Connect.AuthSessionTTL = 15 * time.Minute
	}
	if c.Connect.Store == "" {
		c.Connect.Store = "redis"
	}
	if c.Connect.Registration.PasswordMinLength == 0 {
		c.Connect.Registration.PasswordMinLength = 8
	}
	for i := range c.Providers {
		p := &c.Providers[i]
		if p.DisplayName == "" {
			p.DisplayName = p.Name
		}
		if len(p.Scopes) == 0 {
			p.Scopes = []string{"openid", "profile", "email"}
		}
	}
}

// Validate reports configuration that cannot produce a working service.
func (c *Config) Validate() error {
	switch c.Connect.Store {
	case "redis", "memory":
	default:
		return fmt.Errorf("config: unknown connect.store %q", c.Connect.Store)
	}

	seen := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		if p.Name == "" {
			return errors.New("config: provider without name")
		}
		if seen[p.Name] {
			return fmt.Errorf("config: duplicate provider %q", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}
