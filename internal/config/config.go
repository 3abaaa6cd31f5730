package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Feed   FeedConfig   `mapstructure:"feed"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Search SearchConfig `mapstructure:"search"`
	Groups GroupsConfig `mapstructure:"groups"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	UI     UIConfig     `mapstructure:"ui"`
	Keys   KeyConfig    `mapstructure:"keys"`
}

type FeedConfig struct {
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
	SourceTimeout  time.Duration `mapstructure:"source_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	Workers        int           `mapstructure:"workers"`
	AllowPrivate   bool          `mapstructure:"allow_private"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Path    string        `mapstructure:"path"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type SearchConfig struct {
	DefaultSince       string   `mapstructure:"default_since"`
	DefaultLimit       int      `mapstructure:"default_limit"`
	Mode               string   `mapstructure:"mode"`
	OnMissingTimestamp string   `mapstructure:"on_missing_timestamp"`
	Fields             []string `mapstructure:"fields"`
	ExactMarkers       []string `mapstructure:"exact_markers"`
}

type GroupsConfig struct {
	File    string   `mapstructure:"file"`
	Default []string `mapstructure:"default"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type UIConfig struct {
	Colors UIColors     `mapstructure:"colors"`
	Reader ReaderConfig `mapstructure:"reader"`
	Opener string       `mapstructure:"opener"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type ReaderConfig struct {
	MaxSummaryLength int `mapstructure:"max_summary_length"`
	WordWrapMaxWidth int `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth int `mapstructure:"word_wrap_min_width"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit   string `mapstructure:"quit"`
	Refine string `mapstructure:"refine"`
	Open   string `mapstructure:"open"`
	Export string `mapstructure:"export"`
	Back   string `mapstructure:"back"`
	Help   string `mapstructure:"help"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".newsagent")

	return &Config{
		Feed: FeedConfig{
			HTTPTimeout:    30 * time.Second,
			SourceTimeout:  15 * time.Second,
			RequestTimeout: 45 * time.Second,
			UserAgent:      "newsagent/1.0 (https://github.com/pders01/newsagent)",
			Workers:        8,
			AllowPrivate:   false,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    filepath.Join(dataDir, "cache.db"),
			TTL:     10 * time.Minute,
		},
		Search: SearchConfig{
			DefaultSince:       "7d",
			DefaultLimit:       20,
			Mode:               "any",
			OnMissingTimestamp: "drop",
			Fields:             []string{"title", "summary"},
			ExactMarkers:       []string{"quotes", "equals"},
		},
		Groups: GroupsConfig{
			Default: []string{"Default"},
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8501",
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(dataDir, "newsagent.log"),
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#FF6B6B",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
			Reader: ReaderConfig{
				MaxSummaryLength: 150,
				WordWrapMaxWidth: 120,
				WordWrapMinWidth: 40,
			},
			Opener: getDefaultOpener(),
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:   "q",
				Refine: "f",
				Open:   "o",
				Export: "e",
				Back:   "esc",
				Help:   "?",
			},
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

// Default returns the built-in configuration with paths expanded.
func Default() *Config {
	cfg := defaultConfig()
	expandPaths(cfg)
	return cfg
}

// setDefaults registers every leaf key so partial sections in a config file
// keep the remaining defaults.
func setDefaults(v *viper.Viper, cfg *Config) {
	for key, value := range flatten(cfg) {
		v.SetDefault(key, value)
	}
}

func flatten(cfg *Config) map[string]interface{} {
	return map[string]interface{}{
		"feed.http_timeout":    cfg.Feed.HTTPTimeout,
		"feed.source_timeout":  cfg.Feed.SourceTimeout,
		"feed.request_timeout": cfg.Feed.RequestTimeout,
		"feed.user_agent":      cfg.Feed.UserAgent,
		"feed.workers":         cfg.Feed.Workers,
		"feed.allow_private":   cfg.Feed.AllowPrivate,

		"cache.enabled": cfg.Cache.Enabled,
		"cache.path":    cfg.Cache.Path,
		"cache.ttl":     cfg.Cache.TTL,

		"search.default_since":        cfg.Search.DefaultSince,
		"search.default_limit":        cfg.Search.DefaultLimit,
		"search.mode":                 cfg.Search.Mode,
		"search.on_missing_timestamp": cfg.Search.OnMissingTimestamp,
		"search.fields":               cfg.Search.Fields,
		"search.exact_markers":        cfg.Search.ExactMarkers,

		"groups.file":    cfg.Groups.File,
		"groups.default": cfg.Groups.Default,

		"server.addr": cfg.Server.Addr,

		"log.level": cfg.Log.Level,
		"log.file":  cfg.Log.File,

		"ui.colors.primary":             cfg.UI.Colors.Primary,
		"ui.colors.secondary":           cfg.UI.Colors.Secondary,
		"ui.colors.accent":              cfg.UI.Colors.Accent,
		"ui.colors.background":          cfg.UI.Colors.Background,
		"ui.colors.surface":             cfg.UI.Colors.Surface,
		"ui.colors.text":                cfg.UI.Colors.Text,
		"ui.colors.muted":               cfg.UI.Colors.Muted,
		"ui.colors.error":               cfg.UI.Colors.Error,
		"ui.colors.success":             cfg.UI.Colors.Success,
		"ui.reader.max_summary_length":  cfg.UI.Reader.MaxSummaryLength,
		"ui.reader.word_wrap_max_width": cfg.UI.Reader.WordWrapMaxWidth,
		"ui.reader.word_wrap_min_width": cfg.UI.Reader.WordWrapMinWidth,
		"ui.opener":                     cfg.UI.Opener,

		"keys.modifier":        cfg.Keys.Modifier,
		"keys.bindings.quit":   cfg.Keys.Bindings.Quit,
		"keys.bindings.refine": cfg.Keys.Bindings.Refine,
		"keys.bindings.open":   cfg.Keys.Bindings.Open,
		"keys.bindings.export": cfg.Keys.Bindings.Export,
		"keys.bindings.back":   cfg.Keys.Bindings.Back,
		"keys.bindings.help":   cfg.Keys.Bindings.Help,
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "newsagent")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("NEWSAGENT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	return &config, nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Cache.Path = expandPath(cfg.Cache.Path)
	cfg.Groups.File = expandPath(cfg.Groups.File)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()

	for key, value := range flatten(config) {
		// Durations as strings for TOML readability
		if d, ok := value.(time.Duration); ok {
			value = d.String()
		}
		v.Set(key, value)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
