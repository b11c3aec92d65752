// Package config loads and writes the descript tool configuration.
//
// The configuration lives in a TOML file, by default
// <user config dir>/descript/descript.toml. Loading overlays the file
// onto the built-in defaults, so a config file only needs the entries
// it changes. The resulting Config is an explicit value passed into
// the pipeline and the CLI; nothing reads it through a global.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/nanofab/descript/pkg/errors"
	"github.com/nanofab/descript/pkg/layout/match"
	"github.com/nanofab/descript/pkg/recipe"
)

// appDir names the per-user directory under the OS config and cache
// roots.
const appDir = "descript"

// FileName is the configuration file name inside the config directory.
const FileName = "descript.toml"

// Cache backends selectable via the cache section.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// DefaultDeScribePath is the standard DeScribe installation path on the
// machines that drive the printer.
const DefaultDeScribePath = `C:\Program Files\Nanoscribe\DeScribe\DeScribe.exe`

// Config is the tool configuration.
type Config struct {
	Paths    Paths          `toml:"paths"`
	Layout   Layout         `toml:"layout"`
	Matchers Matchers       `toml:"matchers"`
	Job      Job            `toml:"job"`
	Cache    Cache          `toml:"cache"`
	Recipe   map[string]any `toml:"recipe"`
}

// Paths locates the external tools.
type Paths struct {
	// DeScribe is the slicer executable invoked per distinct recipe.
	DeScribe string `toml:"describe"`
}

// Layout configures hierarchy resolution.
type Layout struct {
	// Topcell pins the traversal root to a named cell. Empty means
	// automatic detection: a single top-level cell, or the one
	// canonically named "topcell".
	Topcell string `toml:"topcell"`
	// Matcher names the default target-matching strategy.
	Matcher string `toml:"matcher"`
}

// Matchers carries the per-strategy tunables. Only the section of the
// selected strategy applies to a run.
type Matchers struct {
	Layer         LayerMatcher         `toml:"layer"`
	LayerDatatype LayerDatatypeMatcher `toml:"layerdatatype"`
	PrintZone     PrintZoneMatcher     `toml:"printzone"`
}

// LayerMatcher tunes the "layer" strategy.
type LayerMatcher struct {
	Layer int `toml:"layer"`
}

// LayerDatatypeMatcher tunes the "layerdatatype" strategy.
type LayerDatatypeMatcher struct {
	Layer    int `toml:"layer"`
	Datatype int `toml:"datatype"`
}

// PrintZoneMatcher tunes the "printzone" strategy.
type PrintZoneMatcher struct {
	// Cell is the sentinel cell name whose direct presence marks a
	// print target.
	Cell string `toml:"cell"`
}

// Job configures print job assembly.
type Job struct {
	// FieldOffsets re-asserts zero scan field offsets in the job
	// preamble.
	FieldOffsets bool `toml:"field_offsets"`
}

// Cache selects and configures the artifact cache backend.
type Cache struct {
	// Backend is one of file, redis or none.
	Backend string `toml:"backend"`
	// Dir overrides the file backend location. Empty means
	// <user cache dir>/descript.
	Dir string `toml:"dir"`
	// Namespace prefixes every cache key. Shared backends use it to
	// keep printers or projects apart.
	Namespace string `toml:"namespace"`
	Redis     Redis  `toml:"redis"`
}

// Redis configures the redis cache backend.
type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Paths: Paths{DeScribe: DefaultDeScribePath},
		Layout: Layout{
			Matcher: "layer",
		},
		Matchers: Matchers{
			Layer:         LayerMatcher{Layer: match.DefaultLayer},
			LayerDatatype: LayerDatatypeMatcher{Layer: match.DefaultLayer, Datatype: match.DefaultDatatype},
			PrintZone:     PrintZoneMatcher{Cell: match.DefaultSentinel},
		},
		Cache: Cache{
			Backend: BackendFile,
			Redis:   Redis{Addr: "localhost:6379"},
		},
		Recipe: map[string]any{},
	}
}

// IsZero reports whether c is the zero value. No usable configuration
// is: Default always sets the cache backend and matcher.
func (c Config) IsZero() bool {
	return c.Paths == (Paths{}) && c.Layout == (Layout{}) &&
		c.Matchers == (Matchers{}) && c.Job == (Job{}) &&
		c.Cache == (Cache{}) && len(c.Recipe) == 0
}

// DefaultPath returns the default configuration file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "locate user config directory")
	}
	return filepath.Join(dir, appDir, FileName), nil
}

// Load reads the configuration at path, overlaying it onto the
// defaults and validating the result. An empty path means the default
// location, where a missing file simply yields the defaults; an
// explicit path that does not exist is an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		if os.IsNotExist(err) {
			return Config{}, errors.New(errors.ErrCodeNotFound,
				"config file %s does not exist", path)
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidInput,
			"config %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrap(errors.GetCode(err), err, "config %s", path)
	}
	return cfg, nil
}

// Validate checks the entries a bad edit is likely to break: the cache
// backend selection and the recipe overrides. Matcher names are
// validated where matchers are built, since flags can override them
// anyway.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput,
			"unknown cache backend %q (available: %s, %s, %s)",
			c.Cache.Backend, BackendFile, BackendRedis, BackendNone)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.Redis.Addr == "" {
		return errors.New(errors.ErrCodeInvalidInput,
			"cache backend %s wants a redis address", BackendRedis)
	}
	return c.OverlayRecipe(recipe.New())
}

// OverlayRecipe applies the recipe overrides onto r, in key order.
// Unknown keys and uncastable values fail with the offending key.
func (c Config) OverlayRecipe(r *recipe.Recipe) error {
	keys := make([]string, 0, len(c.Recipe))
	for key := range c.Recipe {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := r.Set(key, fmt.Sprintf("%v", c.Recipe[key])); err != nil {
			return err
		}
	}
	return nil
}

// MatcherOptions returns the tunables for the named strategy, falling
// back to the standard conventions for anything the configuration does
// not cover.
func (c Config) MatcherOptions(name string) match.Options {
	opts := match.DefaultOptions()
	switch strings.ToLower(name) {
	case "layer":
		opts.Layer = c.Matchers.Layer.Layer
	case "layerdatatype":
		opts.Layer = c.Matchers.LayerDatatype.Layer
		opts.Datatype = c.Matchers.LayerDatatype.Datatype
	case "printzone":
		opts.Sentinel = c.Matchers.PrintZone.Cell
	}
	return opts
}

// CacheDir returns the file cache location: the configured directory,
// or <user cache dir>/descript.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "locate user cache directory")
	}
	return filepath.Join(dir, appDir), nil
}

// Write encodes the configuration as TOML.
func (c Config) Write(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode config")
	}
	return nil
}

// WriteFile writes the configuration to path, creating parent
// directories as needed.
func (c Config) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", filepath.Dir(path))
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", path)
	}
	if err := c.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
