package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix                = "LINKHIVE"
	defaultHTTPAddress       = "0.0.0.0:8080"
	defaultDatabasePath      = "linkhive.db"
	defaultLogLevel          = "info"
	defaultAccessTTLMinutes  = 24 * 60
	defaultRefreshTTLMinutes = 7 * 24 * 60
	defaultRefreshCookie     = "refreshToken"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress       string
	DatabasePath      string
	LogLevel          string
	AccessSecret      string
	RefreshSecret     string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	RefreshCookieName string
	AllowedOrigins    []string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("http.allowed_origins", []string{"*"})
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("token.access_ttl_minutes", defaultAccessTTLMinutes)
	configViper.SetDefault("token.refresh_ttl_minutes", defaultRefreshTTLMinutes)
	configViper.SetDefault("token.refresh_cookie_name", defaultRefreshCookie)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:       configViper.GetString("http.address"),
		DatabasePath:      configViper.GetString("database.path"),
		LogLevel:          configViper.GetString("log.level"),
		AccessSecret:      configViper.GetString("auth.access_secret"),
		RefreshSecret:     configViper.GetString("auth.refresh_secret"),
		AccessTokenTTL:    time.Duration(configViper.GetInt("token.access_ttl_minutes")) * time.Minute,
		RefreshTokenTTL:   time.Duration(configViper.GetInt("token.refresh_ttl_minutes")) * time.Minute,
		RefreshCookieName: configViper.GetString("token.refresh_cookie_name"),
		AllowedOrigins:    configViper.GetStringSlice("http.allowed_origins"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.AccessSecret) == "" {
		return fmt.Errorf("auth.access_secret is required")
	}
	if strings.TrimSpace(c.RefreshSecret) == "" {
		return fmt.Errorf("auth.refresh_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token ttl values must be positive")
	}
	if strings.TrimSpace(c.RefreshCookieName) == "" {
		return fmt.Errorf("token.refresh_cookie_name is required")
	}
	return nil
}
