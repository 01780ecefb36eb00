// Package config loads weave.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"weave/internal/link"
	"weave/internal/naming"
	"weave/internal/trace"
)

// FileName is the configuration file looked up from the working directory.
const FileName = "weave.toml"

// ErrUnknownKey reports keys the file sets that no setting reads.
var ErrUnknownKey = errors.New("unknown configuration key")

type Config struct {
	// Path is the file the values were read from, "" for defaults.
	Path  string      `toml:"-"`
	Link  LinkConfig  `toml:"link"`
	Trace TraceConfig `toml:"trace"`
	Cache CacheConfig `toml:"cache"`
}

type LinkConfig struct {
	Inline          string `toml:"inline"`
	Jobs            int    `toml:"jobs"`
	MaxDiagnostics  int    `toml:"max_diagnostics"`
	MaxNameAttempts int    `toml:"max_name_attempts"`
	ReportForwards  bool   `toml:"report_forwards"`
}

type TraceConfig struct {
	Level    string `toml:"level"`
	Output   string `toml:"output"`
	Format   string `toml:"format"`
	Mode     string `toml:"mode"`
	RingSize int    `toml:"ring_size"`
}

// CacheConfig controls the linked-unit disk cache. An empty Dir selects
// $XDG_CACHE_HOME/weave.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Default returns the settings used when no file is found.
func Default() Config {
	return Config{
		Link: LinkConfig{
			Inline:          link.InlineAuto.String(),
			MaxDiagnostics:  100,
			MaxNameAttempts: naming.DefaultMaxAttempts,
		},
		Trace: TraceConfig{
			Level:    trace.LevelOff.String(),
			Output:   "-",
			Format:   "text",
			Mode:     trace.ModeStream.String(),
			RingSize: 4096,
		},
	}
}

// Find walks up from startDir to locate weave.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load finds and reads the configuration for startDir. Without a file it
// returns the defaults and false.
func Load(startDir string) (Config, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return Default(), false, err
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return Config{}, true, err
	}
	return cfg, true, nil
}

// LoadFile reads path over the defaults and validates the result.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%s: %w: %s", path, ErrUnknownKey, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every enumerated value and numeric range.
func (c Config) Validate() error {
	if _, err := link.ParseInlinePolicy(c.Link.Inline); err != nil {
		return fmt.Errorf("[link].inline: %w", err)
	}
	if c.Link.Jobs < 0 {
		return fmt.Errorf("[link].jobs must not be negative, got %d", c.Link.Jobs)
	}
	if c.Link.MaxNameAttempts < 0 {
		return fmt.Errorf("[link].max_name_attempts must not be negative, got %d", c.Link.MaxNameAttempts)
	}
	if _, err := c.TraceConfig(); err != nil {
		return err
	}
	return nil
}

// LinkOptions converts [link]. Jobs of 0 means one worker per CPU.
func (c Config) LinkOptions() (link.Options, error) {
	policy, err := link.ParseInlinePolicy(c.Link.Inline)
	if err != nil {
		return link.Options{}, fmt.Errorf("[link].inline: %w", err)
	}
	jobs := c.Link.Jobs
	if jobs == 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	return link.Options{
		Inline:          policy,
		Jobs:            jobs,
		MaxDiagnostics:  c.Link.MaxDiagnostics,
		MaxNameAttempts: c.Link.MaxNameAttempts,
		ReportForwards:  c.Link.ReportForwards,
	}, nil
}

// TraceConfig converts [trace].
func (c Config) TraceConfig() (trace.Config, error) {
	level, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.Config{}, fmt.Errorf("[trace].level: %w", err)
	}
	mode, err := trace.ParseMode(c.Trace.Mode)
	if err != nil {
		return trace.Config{}, fmt.Errorf("[trace].mode: %w", err)
	}
	format, err := trace.ParseFormat(c.Trace.Format)
	if err != nil {
		return trace.Config{}, fmt.Errorf("[trace].format: %w", err)
	}
	return trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: c.Trace.Output,
		RingSize:   c.Trace.RingSize,
	}, nil
}
