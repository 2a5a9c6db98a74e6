// Package config loads launcher settings from defaults, an optional
// launcher.yaml in the data directory and LAUNCHER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/MJE43/everything-launcher/internal/deck"
	"github.com/MJE43/everything-launcher/internal/search"
)

const (
	// AppDirName is the per-user directory holding the catalog and config.
	AppDirName = "everything-launcher"
	// FileName is the optional config file looked up in the data directory.
	FileName = "launcher"
	// DefaultHTTPPort is the loopback status API port. Zero disables it.
	DefaultHTTPPort = 17890
)

// Config is the resolved application configuration.
type Config struct {
	DataDir       string         `json:"dataDir"`
	Debug         bool           `json:"debug"`
	BatchSize     int            `json:"batchSize"`
	FrameInterval time.Duration  `json:"frameInterval"`
	Shuffle       deck.Algorithm `json:"shuffle"`
	HTTPPort      int            `json:"httpPort"`
	HTTPToken     string         `json:"-"`
}

// CatalogPath is the SQLite file holding launcher items.
func (c Config) CatalogPath() string {
	return filepath.Join(c.DataDir, "catalog.db")
}

// TokenEnabled reports whether the loopback API requires a token.
func (c Config) TokenEnabled() bool {
	return c.HTTPToken != ""
}

// Load resolves the configuration. v may be nil, in which case a fresh
// viper instance reading the process environment is used.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	v.SetEnvPrefix("LAUNCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", appDataDir())
	v.SetDefault("debug", false)
	v.SetDefault("batch_size", search.DefaultBatchSize)
	v.SetDefault("frame_interval", search.DefaultFrameInterval)
	v.SetDefault("shuffle", string(deck.AlgorithmKeySort))
	v.SetDefault("http_port", DefaultHTTPPort)
	v.SetDefault("http_token", "")

	dataDir := v.GetString("data_dir")
	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dataDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	cfg := Config{
		DataDir:       v.GetString("data_dir"),
		Debug:         v.GetBool("debug"),
		BatchSize:     v.GetInt("batch_size"),
		FrameInterval: v.GetDuration("frame_interval"),
		Shuffle:       deck.Algorithm(strings.ToLower(v.GetString("shuffle"))),
		HTTPPort:      v.GetInt("http_port"),
		HTTPToken:     v.GetString("http_token"),
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("config: batch_size must be > 0, got %d", c.BatchSize)
	}
	if c.FrameInterval < 0 {
		return fmt.Errorf("config: frame_interval must be >= 0, got %s", c.FrameInterval)
	}
	switch c.Shuffle {
	case deck.AlgorithmKeySort, deck.AlgorithmFisherYates:
	default:
		return fmt.Errorf("config: unknown shuffle algorithm %q", c.Shuffle)
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("config: http_port out of range: %d", c.HTTPPort)
	}
	return nil
}

// appDataDir returns an OS-appropriate writable directory.
func appDataDir() string {
	if d, err := os.UserConfigDir(); err == nil && d != "" {
		return filepath.Join(d, AppDirName)
	}
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return filepath.Join(h, "."+AppDirName)
	}
	return "."
}
