package memorial

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "MEMORIAL_"

// Config holds all configuration for composing and previewing a book.
type Config struct {
	Dataset   string `yaml:"dataset" env:"DATASET"`       // dataset JSON path (default "data.json")
	Template  string `yaml:"template" env:"TEMPLATE"`     // html/template file; empty uses the bundled one
	Output    string `yaml:"output" env:"OUTPUT"`         // PDF path; default <dataset dir>/<name>-memories.pdf
	DebugHTML bool   `yaml:"debug_html" env:"DEBUG_HTML"` // also write the generated markup next to the PDF

	MaxPageWeight      float64 `yaml:"max_page_weight" env:"MAX_PAGE_WEIGHT"`             // default 2400
	MaxCommentsPerPage int     `yaml:"max_comments_per_page" env:"MAX_COMMENTS_PER_PAGE"` // default 2
	BackgroundSize     string  `yaml:"background_size" env:"BACKGROUND_SIZE"`             // default "cover"
	BackgroundPosition string  `yaml:"background_position" env:"BACKGROUND_POSITION"`     // default "center"

	OptimizeImages bool `yaml:"optimize_images" env:"OPTIMIZE_IMAGES"`
	MaxImageWidth  int  `yaml:"max_image_width" env:"MAX_IMAGE_WIDTH"` // default 1600
	JPEGQuality    int  `yaml:"jpeg_quality" env:"JPEG_QUALITY"`       // default 85

	HistoryPath string `yaml:"history" env:"HISTORY"` // SQLite path; default <dataset dir>/.memorial/history.db

	Chrome  ChromeConfig  `yaml:"chrome" envPrefix:"CHROME_"`
	Preview PreviewConfig `yaml:"preview" envPrefix:"PREVIEW_"`
}

// ChromeConfig controls the headless browser used to print PDFs.
type ChromeConfig struct {
	Bin         string        `yaml:"bin" env:"BIN"`                   // empty lets the launcher find or download one
	ShowBrowser bool          `yaml:"show_browser" env:"SHOW_BROWSER"` // run with a visible window
	Timeout     time.Duration `yaml:"timeout" env:"TIMEOUT"`           // default 60s
}

// PreviewConfig controls the preview server.
type PreviewConfig struct {
	Addr          string `yaml:"addr" env:"ADDR"`                   // default ":3000"
	Password      string `yaml:"password" env:"PASSWORD"`           // empty disables the login gate
	PasswordHash  string `yaml:"password_hash" env:"PASSWORD_HASH"` // bcrypt hash; used instead of Password when set
	SessionSecret string `yaml:"session_secret" env:"SESSION_SECRET"`
	CookieSecure  bool   `yaml:"cookie_secure" env:"COOKIE_SECURE"`
}

// LoadConfig builds a Config from an optional YAML file, then applies
// MEMORIAL_* environment overrides and fills in defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("memorial: read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("memorial: parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("memorial: parse environment: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Dataset == "" {
		c.Dataset = "data.json"
	}
	if c.MaxPageWeight == 0 {
		c.MaxPageWeight = DefaultMaxPageWeight
	}
	if c.MaxCommentsPerPage == 0 {
		c.MaxCommentsPerPage = DefaultMaxCommentsPerPage
	}
	if c.BackgroundSize == "" {
		c.BackgroundSize = DefaultBackgroundSize
	}
	if c.BackgroundPosition == "" {
		c.BackgroundPosition = DefaultBackgroundPosition
	}
	if c.MaxImageWidth == 0 {
		c.MaxImageWidth = 1600
	}
	if c.JPEGQuality == 0 {
		c.JPEGQuality = 85
	}
	if c.Chrome.Timeout == 0 {
		c.Chrome.Timeout = time.Minute
	}
	if c.Preview.Addr == "" {
		c.Preview.Addr = ":3000"
	}
}

// Option configures additional Composer behavior.
type Option func(*Composer)

// WithLogger sets the logger used for progress and diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Composer) {
		c.log = l
	}
}

// WithRasterizer replaces the Chrome-backed PDF rasterizer.
func WithRasterizer(r Rasterizer) Option {
	return func(c *Composer) {
		c.rasterizer = r
	}
}

// WithHistory records every render run in s.
func WithHistory(s *HistoryStore) Option {
	return func(c *Composer) {
		c.history = s
	}
}
