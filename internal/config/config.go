package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgallion1/scrollnav/internal/nav"
	"github.com/dgallion1/scrollnav/internal/page"
	"github.com/dgallion1/scrollnav/internal/parser"
	"github.com/dgallion1/scrollnav/internal/tracker"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/multierr"
)

// EnvPrefix is the prefix of environment overrides: SCROLLNAV_PORT -> port.
const EnvPrefix = "SCROLLNAV_"

type Config struct {
	Port string `koanf:"port" yaml:"port"`

	// Auth. Empty disables bearer-token checks.
	APIKey string `koanf:"api_key" yaml:"api_key"`

	// CORS
	AllowedOrigins []string `koanf:"allowed_origins" yaml:"allowed_origins"`

	// Upload limits
	MaxUploadBytes int64 `koanf:"max_upload_bytes" yaml:"max_upload_bytes"`

	// Page sessions
	PageTTL  time.Duration `koanf:"page_ttl" yaml:"page_ttl"`
	MaxPages int           `koanf:"max_pages" yaml:"max_pages"`

	// Navigation builder
	NavAttr      string `koanf:"nav_attr" yaml:"nav_attr"`
	BlockTag     string `koanf:"block_tag" yaml:"block_tag"`
	MenuID       string `koanf:"menu_id" yaml:"menu_id"`
	AnchorPrefix string `koanf:"anchor_prefix" yaml:"anchor_prefix"`
	AnchorStyle  string `koanf:"anchor_style" yaml:"anchor_style"`
	AssignIDs    bool   `koanf:"assign_ids" yaml:"assign_ids"`
	MenuMode     string `koanf:"menu_mode" yaml:"menu_mode"`

	// Visibility tracker
	ActiveClass         string  `koanf:"active_class" yaml:"active_class"`
	Threshold           float64 `koanf:"threshold" yaml:"threshold"`
	RootMargin          float64 `koanf:"root_margin" yaml:"root_margin"`
	ClearBelowThreshold bool    `koanf:"clear_below_threshold" yaml:"clear_below_threshold"`

	// Source parsing
	SectionLevel         int  `koanf:"section_level" yaml:"section_level"`
	PDFFallbackPdftotext bool `koanf:"pdf_fallback_pdftotext" yaml:"pdf_fallback_pdftotext"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Port:           "8090",
		AllowedOrigins: []string{"*"},
		MaxUploadBytes: 10 << 20, // 10MB
		PageTTL:        1 * time.Hour,
		MaxPages:       1000,

		NavAttr:      "data-nav",
		BlockTag:     "section",
		MenuID:       "navbar__list",
		AnchorPrefix: "section",
		AnchorStyle:  "index",
		AssignIDs:    true,
		MenuMode:     "rebuild",

		ActiveClass: "active",
		Threshold:   0.9,
		RootMargin:  0,

		SectionLevel:         2,
		PDFFallbackPdftotext: true,
	}
}

// Load starts from Default, overlays the YAML file at path when it exists,
// then overlays SCROLLNAV_* environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

var (
	validAnchorStyles = map[string]bool{"index": true, "slug": true}
	validMenuModes    = map[string]bool{"rebuild": true, "append": true}
)

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var err error
	if c.Port == "" {
		err = multierr.Append(err, fmt.Errorf("port is required"))
	}
	if c.MaxUploadBytes <= 0 {
		err = multierr.Append(err, fmt.Errorf("max_upload_bytes must be positive"))
	}
	if c.PageTTL <= 0 {
		err = multierr.Append(err, fmt.Errorf("page_ttl must be positive"))
	}
	if c.MaxPages <= 0 {
		err = multierr.Append(err, fmt.Errorf("max_pages must be positive"))
	}
	if c.NavAttr == "" {
		err = multierr.Append(err, fmt.Errorf("nav_attr is required"))
	}
	if c.BlockTag == "" {
		err = multierr.Append(err, fmt.Errorf("block_tag is required"))
	}
	if c.MenuID == "" {
		err = multierr.Append(err, fmt.Errorf("menu_id is required"))
	}
	if c.AnchorPrefix == "" && c.AnchorStyle == "index" {
		err = multierr.Append(err, fmt.Errorf("anchor_prefix is required for index anchors"))
	}
	if !validAnchorStyles[c.AnchorStyle] {
		err = multierr.Append(err, fmt.Errorf("invalid anchor_style %q: must be index or slug", c.AnchorStyle))
	}
	if !validMenuModes[c.MenuMode] {
		err = multierr.Append(err, fmt.Errorf("invalid menu_mode %q: must be rebuild or append", c.MenuMode))
	}
	if c.ActiveClass == "" {
		err = multierr.Append(err, fmt.Errorf("active_class is required"))
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		err = multierr.Append(err, fmt.Errorf("threshold must be in (0, 1], got %v", c.Threshold))
	}
	if c.SectionLevel < 1 || c.SectionLevel > 6 {
		err = multierr.Append(err, fmt.Errorf("section_level must be between 1 and 6, got %d", c.SectionLevel))
	}
	return err
}

// PageOptions maps the flat config onto the page, nav, tracker and parser
// options.
func (c *Config) PageOptions() page.Options {
	return page.Options{
		Nav: nav.Options{
			Attr:         c.NavAttr,
			Tag:          c.BlockTag,
			MenuID:       c.MenuID,
			AnchorPrefix: c.AnchorPrefix,
			AnchorStyle:  nav.AnchorStyle(c.AnchorStyle),
			Mode:         nav.Mode(c.MenuMode),
			AssignIDs:    c.AssignIDs,
		},
		Tracker: tracker.Options{
			Threshold:           c.Threshold,
			RootMargin:          c.RootMargin,
			ClearBelowThreshold: c.ClearBelowThreshold,
		},
		Parser: parser.Options{
			SectionLevel:         c.SectionLevel,
			PDFFallbackPdftotext: c.PDFFallbackPdftotext,
		},
		ActiveClass: c.ActiveClass,
	}
}
