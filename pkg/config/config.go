package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	DefaultRedirectURI = "http://localhost:8080/callback"
	DefaultAddr        = "localhost:8080"
	DefaultAPIURL      = "https://api.spotify.com/v1/"
	DefaultTimeout     = 10 * time.Second

	appDirName = "Modulatify"
)

// Config holds the runtime settings of the tray process
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Addr         string
	ConfigDir    string
	APIURL       string
	Timeout      time.Duration
	Debug        bool
}

// LoadDefaults populates c with the built-in defaults
func (c *Config) LoadDefaults() {
	c.RedirectURI = DefaultRedirectURI
	c.Addr = DefaultAddr
	c.APIURL = DefaultAPIURL
	c.Timeout = DefaultTimeout

	if dir, err := os.UserConfigDir(); err == nil {
		c.ConfigDir = filepath.Join(dir, appDirName)
	} else {
		c.ConfigDir = appDirName
	}
}

// Load builds a Config from defaults, then the environment, then args.
// Later sources take precedence.
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := cfg.loadEnv(getenv); err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("modulatify", flag.ContinueOnError)
	fs.StringVar(&cfg.ClientID, "client-id", cfg.ClientID, "Spotify application client ID, defaults to value of SPOTIFY_CLIENT_ID env var")
	fs.StringVar(&cfg.ClientSecret, "client-secret", cfg.ClientSecret, "Spotify application client secret, defaults to value of SPOTIFY_CLIENT_SECRET env var")
	fs.StringVar(&cfg.RedirectURI, "redirect-uri", cfg.RedirectURI, "OAuth redirect URI registered with Spotify")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address of the OAuth callback server")
	fs.StringVar(&cfg.ConfigDir, "config-dir", cfg.ConfigDir, "Directory holding settings and the encryption key")
	fs.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "Spotify Web API base URL")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Timeout for each request to Spotify")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadEnv(getenv func(string) string) error {
	setString := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&c.ClientID, "SPOTIFY_CLIENT_ID")
	setString(&c.ClientSecret, "SPOTIFY_CLIENT_SECRET")
	setString(&c.RedirectURI, "MODULATIFY_REDIRECT_URI")
	setString(&c.Addr, "MODULATIFY_ADDR")
	setString(&c.ConfigDir, "MODULATIFY_CONFIG_DIR")
	setString(&c.APIURL, "MODULATIFY_API_URL")

	if v := getenv("MODULATIFY_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid MODULATIFY_HTTP_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}

	if v := getenv("MODULATIFY_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid MODULATIFY_DEBUG: %w", err)
		}
		c.Debug = b
	}

	return nil
}

// Validate reports settings the process cannot start without
func (c *Config) Validate() error {
	var errs []error

	if c.ClientID == "" {
		errs = append(errs, errors.New("client id is required"))
	}
	if c.ClientSecret == "" {
		errs = append(errs, errors.New("client secret is required"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	if _, err := c.CallbackPath(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// CallbackPath is the path component of the redirect URI
func (c *Config) CallbackPath() (string, error) {
	u, err := url.Parse(c.RedirectURI)
	if err != nil {
		return "", fmt.Errorf("invalid redirect uri: %w", err)
	}
	if u.Path == "" || u.Path == "/" {
		return "", fmt.Errorf("redirect uri %q has no path", c.RedirectURI)
	}
	return u.Path, nil
}

// SettingsPath is the location of the settings file
func (c *Config) SettingsPath() string {
	return filepath.Join(c.ConfigDir, "settings.yaml")
}

// KeyPath is the location of the encryption key file
func (c *Config) KeyPath() string {
	return filepath.Join(c.ConfigDir, "key.dat")
}
