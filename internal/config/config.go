package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configDirEnv   = "REWRITER_CONFIG_DIR"
	configPathEnv  = "REWRITER_CONFIG"
	apiURLEnv      = "REWRITER_API_URL"
	apiKeyEnv      = "REWRITER_API_KEY"
	sitemapURLEnv  = "REWRITER_SITEMAP_URL"
	logLevelEnv    = "REWRITER_LOG_LEVEL"
	logFileEnv     = "REWRITER_LOG_FILE"
	defaultBaseURL = "http://localhost:8000"
	defaultSitemap = "https://example.com/sitemap.xml"
)

type Config struct {
	API           APIConfig          `json:"api" yaml:"api"`
	Sitemap       SitemapConfig      `json:"sitemap" yaml:"sitemap"`
	Notifications NotificationConfig `json:"notifications" yaml:"notifications"`
	Schedule      ScheduleConfig     `json:"schedule" yaml:"schedule"`
	Log           LogConfig          `json:"log" yaml:"log"`
}

type APIConfig struct {
	BaseURL string   `json:"base_url" yaml:"base_url"`
	Timeout Duration `json:"timeout" yaml:"timeout"`
	// Key is read but never written back; prefer REWRITER_API_KEY or the settings tab.
	Key string `json:"key,omitempty" yaml:"key,omitempty"`
}

type SitemapConfig struct {
	DefaultURL string `json:"default_url" yaml:"default_url"`
}

type NotificationConfig struct {
	TTL Duration `json:"ttl" yaml:"ttl"`
}

// ScheduleConfig controls how the schedule action spaces posts.
type ScheduleConfig struct {
	IntervalMinutes int            `json:"interval_minutes" yaml:"interval_minutes"`
	Timezone        string         `json:"timezone" yaml:"timezone"`
	location        *time.Location `yaml:"-"`
}

// Location is the resolved timezone; Load guarantees it is set.
func (s ScheduleConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	return time.Local
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
	File  string `json:"file" yaml:"file"`
}

// Duration reads "30s"-style strings from YAML.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q", node.Line, raw)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func Default() Config {
	return Config{
		API:           APIConfig{BaseURL: defaultBaseURL, Timeout: Duration(30 * time.Second)},
		Sitemap:       SitemapConfig{DefaultURL: defaultSitemap},
		Notifications: NotificationConfig{TTL: Duration(3 * time.Second)},
		Schedule:      ScheduleConfig{IntervalMinutes: 5, Timezone: "Local", location: time.Local},
		Log:           LogConfig{Level: "info"},
	}
}

func ConfigDir() (string, error) {
	// Override keeps tests away from the real home directory.
	if v := strings.TrimSpace(os.Getenv(configDirEnv)); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".rewriter"), nil
}

// ConfigPath resolves explicit, then $REWRITER_CONFIG, then ConfigDir()/config.yaml.
func ConfigPath(explicit string) (string, error) {
	if p := strings.TrimSpace(explicit); p != "" {
		return p, nil
	}
	if p := strings.TrimSpace(os.Getenv(configPathEnv)); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config file (a missing file is fine), applies environment
// overrides and validates the result.
func Load(explicitPath string) (Config, error) {
	cfg := Default()
	path, err := ConfigPath(explicitPath)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(apiURLEnv)); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(apiKeyEnv)); v != "" {
		c.API.Key = v
	}
	if v := strings.TrimSpace(os.Getenv(sitemapURLEnv)); v != "" {
		c.Sitemap.DefaultURL = v
	}
	if v := strings.TrimSpace(os.Getenv(logLevelEnv)); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(logFileEnv)); v != "" {
		c.Log.File = v
	}
}

// Validate checks ranges and binds the schedule timezone.
func (c *Config) Validate() error {
	u, err := url.Parse(strings.TrimSpace(c.API.BaseURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	c.API.BaseURL = strings.TrimRight(u.String(), "/")
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if c.Notifications.TTL <= 0 {
		return errors.New("notifications.ttl must be positive")
	}
	if n := c.Schedule.IntervalMinutes; n < 1 || n > 1440 {
		return fmt.Errorf("schedule.interval_minutes must be between 1 and 1440, got %d", n)
	}
	loc, err := loadLocation(c.Schedule.Timezone)
	if err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	c.Schedule.location = loc
	return nil
}

func loadLocation(name string) (*time.Location, error) {
	switch strings.TrimSpace(name) {
	case "", "Local", "local":
		return time.Local, nil
	}
	return time.LoadLocation(strings.TrimSpace(name))
}

// Save writes cfg to path without the API key. The previous file, if any, is
// kept as path+".bak".
func Save(path string, cfg Config) error {
	cfg.API.Key = ""
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if prev, err := os.ReadFile(path); err == nil && len(prev) > 0 {
		_ = atomicWriteFile(dir, "config.yaml.bak.*.tmp", path+".bak", prev, 0o644)
	}
	return atomicWriteFile(dir, "config.yaml.*.tmp", path, b, 0o600)
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}
