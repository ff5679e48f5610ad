package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pders01/wscroll/internal/validation"
)

const (
	AppName         = "wscroll"
	DefaultPageSize = 20
)

type Config struct {
	API   APIConfig   `mapstructure:"api"`
	UI    UIConfig    `mapstructure:"ui"`
	Media MediaConfig `mapstructure:"media"`
	Keys  KeyConfig   `mapstructure:"keys"`
	Log   LogConfig   `mapstructure:"log"`
}

type APIConfig struct {
	BaseURL       string        `mapstructure:"base_url" validate:"required,url"`
	SiteURL       string        `mapstructure:"site_url" validate:"required,url"`
	UserAgent     string        `mapstructure:"user_agent" validate:"required"`
	HTTPTimeout   time.Duration `mapstructure:"http_timeout" validate:"gt=0"`
	PageSize      int           `mapstructure:"page_size" validate:"min=1,max=20"`
	ThumbSize     int           `mapstructure:"thumb_size" validate:"min=1"`
	FullThumbSize int           `mapstructure:"full_thumb_size" validate:"min=1"`
	// PublicOnly rejects localhost and private-network endpoints.
	PublicOnly    bool          `mapstructure:"public_only"`
}

type UIConfig struct {
	Colors            UIColors      `mapstructure:"colors"`
	Article           ArticleConfig `mapstructure:"article"`
	PrefetchThreshold int           `mapstructure:"prefetch_threshold" validate:"min=0"`
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

type ArticleConfig struct {
	MaxDescriptionLength int `mapstructure:"max_description_length" validate:"min=0"`
	WordWrapMaxWidth     int `mapstructure:"word_wrap_max_width" validate:"min=20"`
	WordWrapMinWidth     int `mapstructure:"word_wrap_min_width" validate:"min=20,ltefield=WordWrapMaxWidth"`
}

type MediaConfig struct {
	Darwin        MediaPlayers `mapstructure:"darwin"`
	Linux         MediaPlayers `mapstructure:"linux"`
	Windows       MediaPlayers `mapstructure:"windows"`
	DefaultOpener string       `mapstructure:"default_opener"`
}

type MediaPlayers struct {
	Image []string `mapstructure:"image"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier" validate:"required"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit       string `mapstructure:"quit"`
	Search     string `mapstructure:"search"`
	Categories string `mapstructure:"categories"`
	Home       string `mapstructure:"home"`
	Find       string `mapstructure:"find"`
	Open       string `mapstructure:"open"`
	OpenImage  string `mapstructure:"open_image"`
	Back       string `mapstructure:"back"`
	Help       string `mapstructure:"help"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error off"`
	Path  string `mapstructure:"path"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	logPath := filepath.Join(homeDir, "."+AppName, AppName+".log")

	return &Config{
		API: APIConfig{
			BaseURL:       "https://en.wikipedia.org/w/api.php",
			SiteURL:       "https://en.wikipedia.org",
			UserAgent:     "wscroll/1.0 (https://github.com/pders01/wscroll)",
			HTTPTimeout:   30 * time.Second,
			PageSize:      DefaultPageSize,
			ThumbSize:     300,
			FullThumbSize: 800,
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
			Article: ArticleConfig{
				MaxDescriptionLength: 150,
				WordWrapMaxWidth:     120,
				WordWrapMinWidth:     40,
			},
			PrefetchThreshold: 5,
		},
		Media: MediaConfig{
			Darwin: MediaPlayers{
				Image: []string{"qlmanage", "open"},
			},
			Linux: MediaPlayers{
				Image: []string{"sxiv", "feh", "eog", "xdg-open"},
			},
			Windows: MediaPlayers{
				Image: []string{"start"},
			},
			DefaultOpener: getDefaultOpener(),
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:       "q",
				Search:     "s",
				Categories: "t",
				Home:       "r",
				Find:       "f",
				Open:       "o",
				OpenImage:  "g",
				Back:       "esc",
				Help:       "?",
			},
		},
		Log: LogConfig{
			Level: "off",
			Path:  logPath,
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
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

// setDefaults registers every leaf key so partial config files merge with defaults.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.site_url", cfg.API.SiteURL)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)
	v.SetDefault("api.http_timeout", cfg.API.HTTPTimeout)
	v.SetDefault("api.page_size", cfg.API.PageSize)
	v.SetDefault("api.thumb_size", cfg.API.ThumbSize)
	v.SetDefault("api.full_thumb_size", cfg.API.FullThumbSize)
	v.SetDefault("api.public_only", cfg.API.PublicOnly)

	for key, value := range colorMap(cfg.UI.Colors) {
		v.SetDefault("ui.colors."+key, value)
	}
	v.SetDefault("ui.article.max_description_length", cfg.UI.Article.MaxDescriptionLength)
	v.SetDefault("ui.article.word_wrap_max_width", cfg.UI.Article.WordWrapMaxWidth)
	v.SetDefault("ui.article.word_wrap_min_width", cfg.UI.Article.WordWrapMinWidth)
	v.SetDefault("ui.prefetch_threshold", cfg.UI.PrefetchThreshold)

	v.SetDefault("media.darwin.image", cfg.Media.Darwin.Image)
	v.SetDefault("media.linux.image", cfg.Media.Linux.Image)
	v.SetDefault("media.windows.image", cfg.Media.Windows.Image)
	v.SetDefault("media.default_opener", cfg.Media.DefaultOpener)

	v.SetDefault("keys.modifier", cfg.Keys.Modifier)
	for key, value := range bindingMap(cfg.Keys.Bindings) {
		v.SetDefault("keys.bindings."+key, value)
	}

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.path", cfg.Log.Path)
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(DefaultDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	config.Log.Level = strings.ToLower(strings.TrimSpace(config.Log.Level))
	expandPaths(&config)

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks struct constraints and that the API endpoints are usable URLs.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	endpoint := validation.NewEndpointValidator()
	if cfg.API.PublicOnly {
		endpoint = validation.NewStrictEndpointValidator()
	}
	if _, err := endpoint.ValidateAndNormalize(cfg.API.BaseURL); err != nil {
		return fmt.Errorf("invalid config: api.base_url: %w", err)
	}
	if _, err := endpoint.ValidateAndNormalize(cfg.API.SiteURL); err != nil {
		return fmt.Errorf("invalid config: api.site_url: %w", err)
	}
	return nil
}

// DefaultDir is the directory searched for config.toml when no path is given.
func DefaultDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", AppName)
}

// DefaultPath is the location `config generate` writes to.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.toml")
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
	cfg.Log.Path = expandPath(cfg.Log.Path)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations as strings for TOML readability
	apiCfg := map[string]interface{}{
		"base_url":        config.API.BaseURL,
		"site_url":        config.API.SiteURL,
		"user_agent":      config.API.UserAgent,
		"http_timeout":    config.API.HTTPTimeout.String(),
		"page_size":       config.API.PageSize,
		"thumb_size":      config.API.ThumbSize,
		"full_thumb_size": config.API.FullThumbSize,
		"public_only":     config.API.PublicOnly,
	}

	uiCfg := map[string]interface{}{
		"colors": colorMap(config.UI.Colors),
		"article": map[string]interface{}{
			"max_description_length": config.UI.Article.MaxDescriptionLength,
			"word_wrap_max_width":    config.UI.Article.WordWrapMaxWidth,
			"word_wrap_min_width":    config.UI.Article.WordWrapMinWidth,
		},
		"prefetch_threshold": config.UI.PrefetchThreshold,
	}

	mediaCfg := map[string]interface{}{
		"darwin":         map[string]interface{}{"image": config.Media.Darwin.Image},
		"linux":          map[string]interface{}{"image": config.Media.Linux.Image},
		"windows":        map[string]interface{}{"image": config.Media.Windows.Image},
		"default_opener": config.Media.DefaultOpener,
	}

	keysCfg := map[string]interface{}{
		"modifier": config.Keys.Modifier,
		"bindings": bindingMap(config.Keys.Bindings),
	}

	logCfg := map[string]interface{}{
		"level": config.Log.Level,
		"path":  config.Log.Path,
	}

	v.Set("api", apiCfg)
	v.Set("ui", uiCfg)
	v.Set("media", mediaCfg)
	v.Set("keys", keysCfg)
	v.Set("log", logCfg)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v.SetConfigType("toml")
	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}

func colorMap(c UIColors) map[string]interface{} {
	return map[string]interface{}{
		"primary":    c.Primary,
		"secondary":  c.Secondary,
		"accent":     c.Accent,
		"background": c.Background,
		"surface":    c.Surface,
		"text":       c.Text,
		"muted":      c.Muted,
		"error":      c.Error,
		"success":    c.Success,
	}
}

func bindingMap(b KeyBindings) map[string]interface{} {
	return map[string]interface{}{
		"quit":       b.Quit,
		"search":     b.Search,
		"categories": b.Categories,
		"home":       b.Home,
		"find":       b.Find,
		"open":       b.Open,
		"open_image": b.OpenImage,
		"back":       b.Back,
		"help":       b.Help,
	}
}
