// Package manifest handles tiersplit.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/chazu/tiersplit/transform"
)

// FileName is the manifest file looked up in a project directory.
const FileName = "tiersplit.toml"

// DefaultCachePath is the cache database location relative to the manifest.
const DefaultCachePath = ".tiersplit/cache.db"

// Manifest represents a tiersplit.toml project configuration.
type Manifest struct {
	Transform TransformConfig `toml:"transform"`
	Output    OutputConfig    `toml:"output"`
	Cache     CacheConfig     `toml:"cache"`
	Sources   []Source        `toml:"source"`

	// Dir is the directory containing the tiersplit.toml file (set at load time).
	Dir string `toml:"-"`
}

// TransformConfig tunes marker recognition.
type TransformConfig struct {
	Receiver              string `toml:"receiver"`
	SubstringMarkerMatch  bool   `toml:"substring-marker-match"`
	StripQualifiedMarkers bool   `toml:"strip-qualified-markers"`
}

// OutputConfig configures where generated files go.
type OutputConfig struct {
	Dir      string `toml:"dir"`
	EmitTree bool   `toml:"emit-tree"`
}

// CacheConfig configures the output cache. MaxAge is a duration such as
// "720h"; entries older than that are pruned at the start of a build.
type CacheConfig struct {
	Path     string `toml:"path"`
	Disabled bool   `toml:"disabled"`
	MaxAge   string `toml:"max-age"`
}

// Source is one annotated input and the tiers to generate from it.
type Source struct {
	Path  string   `toml:"path"`
	Tiers []string `toml:"tiers"`
}

// Load parses a tiersplit.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Transform.Receiver == "" {
		m.Transform.Receiver = transform.DefaultReceiver
	}
	if m.Cache.Path == "" {
		m.Cache.Path = DefaultCachePath
	}
	for i := range m.Sources {
		if len(m.Sources[i].Tiers) == 0 {
			m.Sources[i].Tiers = []string{string(transform.Tier1), string(transform.Tier2)}
		}
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if m.Cache.MaxAge != "" {
		d, err := time.ParseDuration(m.Cache.MaxAge)
		if err != nil {
			return fmt.Errorf("cache max-age: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("cache max-age %q is not positive", m.Cache.MaxAge)
		}
	}
	for i, s := range m.Sources {
		if s.Path == "" {
			return fmt.Errorf("source %d has no path", i+1)
		}
		for _, t := range s.Tiers {
			if _, err := transform.ParseTier(t); err != nil {
				return fmt.Errorf("source %s: %w", s.Path, err)
			}
		}
	}
	return nil
}

// FindAndLoad walks up from startDir to find a tiersplit.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Options returns the transform options configured by the [transform] table.
// A nil manifest yields the defaults.
func (m *Manifest) Options() transform.Options {
	if m == nil {
		return transform.Options{Receiver: transform.DefaultReceiver}
	}
	return transform.Options{
		Receiver:              m.Transform.Receiver,
		SubstringMarkerMatch:  m.Transform.SubstringMarkerMatch,
		StripQualifiedMarkers: m.Transform.StripQualifiedMarkers,
	}
}

// SourcePath returns the absolute path of a configured source.
func (m *Manifest) SourcePath(s Source) string {
	return m.resolve(s.Path)
}

// OutputDir returns the directory generated files for input are written to:
// [output] dir when set, otherwise the input's own directory.
func (m *Manifest) OutputDir(input string) string {
	if m == nil || m.Output.Dir == "" {
		return filepath.Dir(input)
	}
	return m.resolve(m.Output.Dir)
}

// CachePath returns the absolute path of the cache database, or "" when the
// cache is disabled.
func (m *Manifest) CachePath() string {
	if m == nil || m.Cache.Disabled {
		return ""
	}
	return m.resolve(m.Cache.Path)
}

// CacheMaxAge returns how long cached outputs are kept, or 0 when they
// never expire.
func (m *Manifest) CacheMaxAge() time.Duration {
	if m == nil || m.Cache.MaxAge == "" {
		return 0
	}
	d, _ := time.ParseDuration(m.Cache.MaxAge) // validated by Load
	return d
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}
