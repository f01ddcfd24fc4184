// Package config holds the conversion settings that can be tuned without
// code changes. Defaults come from NewDefault; a YAML file overrides them.
package config

import (
	"errors"
	"fmt"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/yuanying/epub2txt/internal/converter"
	"github.com/yuanying/epub2txt/internal/gaiji"
	"github.com/yuanying/epub2txt/internal/roles"
	"github.com/yuanying/epub2txt/internal/yomi"
	pkgconfig "github.com/yuanying/epub2txt/pkg/config"
)

// EnvConfigPath names the environment variable holding the default config file.
const EnvConfigPath = "EPUB2TXT_CONFIG"

func init() {
	// Report fields by their YAML names.
	validation.ErrorTag = "yaml"
}

// Config represents the application configuration.
type Config struct {
	Roles   RolesConfig   `yaml:"roles"`
	Gaiji   GaijiConfig   `yaml:"gaiji"`
	Yomi    YomiConfig    `yaml:"yomi"`
	Catalog CatalogConfig `yaml:"catalog"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Roles.Validate(); err != nil {
		return fmt.Errorf("roles: %w", err)
	}
	if err := c.Gaiji.Validate(); err != nil {
		return fmt.Errorf("gaiji: %w", err)
	}
	return nil
}

// RolesConfig tunes the chapter role classifier. Keys of the keyword maps and
// the entries of Active are role names such as "main" or "afterword".
type RolesConfig struct {
	Active      []string            `yaml:"active"`
	Keywords    map[string][]string `yaml:"keywords"`
	Reliable    map[string][]string `yaml:"reliable"`
	CoverTitles []string            `yaml:"cover_titles"`
}

var roleName = validation.By(func(value any) error {
	s, _ := value.(string)
	_, err := roles.Parse(s)
	return err
})

func roleKeys(value any) error {
	m, _ := value.(map[string][]string)
	for k := range m {
		if _, err := roles.Parse(k); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the roles configuration.
func (c *RolesConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Active, validation.Each(validation.Required, roleName)),
		validation.Field(&c.Keywords, validation.By(roleKeys)),
		validation.Field(&c.Reliable, validation.By(roleKeys)),
	); err != nil {
		return err
	}
	if len(c.Active) == 0 {
		return nil
	}
	for _, name := range c.Active {
		if r, _ := roles.Parse(name); r == roles.Main {
			return nil
		}
	}
	return fmt.Errorf("active: %q must be active", roles.Main)
}

// Options converts the configuration into classifier options. Validate must
// have succeeded.
func (c *RolesConfig) Options() roles.Options {
	opts := roles.Options{
		Keywords: parseKeywords(c.Keywords),
		Reliable: parseKeywords(c.Reliable),
	}
	for _, name := range c.Active {
		if r, err := roles.Parse(name); err == nil {
			opts.Active = append(opts.Active, r)
		}
	}
	return opts
}

func parseKeywords(m map[string][]string) roles.Keywords {
	if m == nil {
		return nil
	}
	kws := make(roles.Keywords, len(m))
	for name, words := range m {
		if r, err := roles.Parse(name); err == nil {
			kws[r] = words
		}
	}
	return kws
}

// GaijiConfig controls private-use glyph substitution.
type GaijiConfig struct {
	// Classes mark an inline image as a glyph substitution.
	Classes []string `yaml:"classes"`
	// Placeholder is registered for glyph images seen for the first time.
	Placeholder  string `yaml:"placeholder"`
	ExportHeight int    `yaml:"export_height"`
}

var errPlaceholder = errors.New("must be a single character")

// Validate validates the gaiji configuration.
func (c *GaijiConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Classes, validation.Each(validation.Required)),
		validation.Field(&c.Placeholder, validation.Required, validation.By(func(any) error {
			if utf8.RuneCountInString(c.Placeholder) != 1 {
				return errPlaceholder
			}
			return nil
		})),
		validation.Field(&c.ExportHeight, validation.Min(1), validation.Max(1024)),
	)
}

// PlaceholderRune returns the placeholder glyph.
func (c *GaijiConfig) PlaceholderRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Placeholder)
	return r
}

// YomiConfig controls the small-kana post-processor.
type YomiConfig struct {
	Exceptions []string `yaml:"exceptions"`
	// Dictionary enables the morphological dictionary as an extra exception source.
	Dictionary bool `yaml:"dictionary"`
}

// CatalogConfig locates the optional SQLite catalog. An empty path disables it.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// NewDefault returns a new Config with the built-in defaults.
func NewDefault() *Config {
	return &Config{
		Roles: RolesConfig{
			CoverTitles: []string{"表紙"},
		},
		Gaiji: GaijiConfig{
			Classes:      append([]string(nil), converter.DefaultGaijiClasses...),
			Placeholder:  string(gaiji.Placeholder),
			ExportHeight: 64,
		},
		Yomi: YomiConfig{
			Exceptions: append([]string(nil), yomi.DefaultExceptions...),
		},
	}
}

// Load reads path over the defaults. An empty path or a missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := NewDefault()
	if _, err := pkgconfig.LoadOptional(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
