// Package config loads reader settings from a YAML file, EPUBCARDS_*
// environment variables and built-in defaults, and reloads them when the
// file changes.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v *viper.Viper

	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
	logger    *slog.Logger
}

// NewManager creates a config manager and loads the initial config. An
// empty cfgFile searches ./epubcards.yaml and
// $HOME/.config/epubcards/epubcards.yaml; finding neither is not an error.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		v:      viper.New(),
		logger: slog.Default(),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up defaults, environment binding and the config file.
func (cm *Manager) initViper(cfgFile string) error {
	v := cm.v
	d := DefaultConfig()
	v.SetDefault("viewport.width", d.Viewport.Width)
	v.SetDefault("viewport.height", d.Viewport.Height)
	v.SetDefault("viewport.chrome", d.Viewport.Chrome)
	v.SetDefault("density", d.Density)
	v.SetDefault("font.size", d.Font.Size)
	v.SetDefault("font.line_spacing", d.Font.LineSpacing)
	v.SetDefault("font.text_scale", d.Font.TextScale)
	v.SetDefault("font.heading_scale", d.Font.HeadingScale)
	v.SetDefault("font.paragraph_gap", d.Font.ParagraphGap)
	v.SetDefault("segment.max_words", d.Segment.MaxWords)
	v.SetDefault("segment.target_words", d.Segment.TargetWords)
	v.SetDefault("segment.merge_below", d.Segment.MergeBelow)
	v.SetDefault("segment.keywords", d.Segment.Keywords)

	// EPUBCARDS_VIEWPORT_WIDTH overrides viewport.width, and so on.
	v.SetEnvPrefix("EPUBCARDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("epubcards")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/epubcards")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// load parses and validates the current viper state.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetLogger sets where reload failures are reported.
func (cm *Manager) SetLogger(l *slog.Logger) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.logger = l
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// File returns the config file in use, or "" when running on defaults and
// environment only.
func (cm *Manager) File() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading. A reload that fails to parse or
// validate is logged and the previous config stays in effect. It reports
// whether there is a file to watch.
func (cm *Manager) WatchConfig() bool {
	if cm.File() == "" {
		return false
	}
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()

		cm.mu.Lock()
		logger := cm.logger
		if err != nil {
			cm.mu.Unlock()
			logger.Warn("config reload failed", "file", e.Name, "error", err)
			return
		}
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		logger.Info("config reloaded", "file", e.Name, "op", e.Op.String())
		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
	return true
}

// WriteDefault writes the default configuration to path.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# epubcards configuration
# Every key can be overridden by an environment variable, for example
# EPUBCARDS_DENSITY=compact or EPUBCARDS_VIEWPORT_WIDTH=412.

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
