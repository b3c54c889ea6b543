// Package config loads GNUnet daemon configuration: INI files with
// `[section]` headers, an @INLINE@ include directive, and `$`-variable
// expansion against the [PATHS] section and the process environment.
//
// The service substrate only consumes the narrow lookup surface (String,
// Int, Filename, RelativeTime); everything else exists so programs can
// load the same config.d tree the daemons themselves run from.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

var (
	// ErrNoSection reports a lookup against a section the config does not
	// contain.
	ErrNoSection = errors.New("config: no such section")

	// ErrNoKey reports a lookup against a key the section does not contain.
	ErrNoKey = errors.New("config: no such key")

	// ErrNoDataDir reports that the GNUnet installation data directory
	// could not be determined.
	ErrNoDataDir = errors.New("config: failed to determine installation data directory")
)

// InlineDisabledError reports an @INLINE@ directive in a config loaded
// with includes disabled.
type InlineDisabledError struct {
	Filename string
}

func (e *InlineDisabledError) Error() string {
	return fmt.Sprintf("config: @INLINE@ disabled, will not load %q", e.Filename)
}

// Cfg is a parsed configuration: a section to key to value map. Values
// are stored unexpanded; Filename applies `$`-expansion on lookup.
type Cfg struct {
	data map[string]map[string]string
}

// Empty returns a configuration with no sections.
func Empty() *Cfg {
	return &Cfg{data: make(map[string]map[string]string)}
}

var reInline = regexp.MustCompile(`(?i)^@inline@ +(.+)$`)

// LoadRaw loads a single config file, following @INLINE@ directives.
func LoadRaw(path string) (*Cfg, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()
	cfg, err := Deserialize(f, true)
	if err != nil {
		return nil, fmt.Errorf("config: load %q: %w", path, err)
	}
	return cfg, nil
}

// Deserialize parses config text from r. When allowInline is true,
// @INLINE@ directives load and merge the named file at the point of the
// directive; later values win, matching the daemons' merge semantics.
func Deserialize(r io.Reader, allowInline bool) (*Cfg, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}

	cfg := Empty()
	var chunk strings.Builder
	flush := func() error {
		if chunk.Len() == 0 {
			return nil
		}
		parsed, err := parseINI([]byte(chunk.String()))
		if err != nil {
			return err
		}
		cfg.Merge(parsed)
		chunk.Reset()
		return nil
	}

	for _, line := range strings.Split(string(raw), "\n") {
		m := reInline.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			chunk.WriteString(line)
			chunk.WriteByte('\n')
			continue
		}
		filename := strings.TrimSpace(m[1])
		if !allowInline {
			return nil, &InlineDisabledError{Filename: filename}
		}
		if err := flush(); err != nil {
			return nil, err
		}
		inlined, err := LoadRaw(filename)
		if err != nil {
			return nil, fmt.Errorf("config: @INLINE@ %q: %w", filename, err)
		}
		cfg.Merge(inlined)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseINI(data []byte) (*Cfg, error) {
	f, err := ini.LoadSources(ini.LoadOptions{}, data)
	if err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg := Empty()
	for _, sec := range f.Sections() {
		keys := sec.Keys()
		if sec.Name() == ini.DefaultSection && len(keys) == 0 {
			continue
		}
		for _, key := range keys {
			cfg.set(sec.Name(), key.Name(), key.Value())
		}
	}
	return cfg, nil
}

// Default loads and merges every *.conf file from the installation's
// config.d directory, the same defaults the daemons start from.
func Default() (*Cfg, error) {
	dataDir, ok := DataDir()
	if !ok {
		return nil, ErrNoDataDir
	}
	dir := filepath.Join(dataDir, "config.d")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("config: read defaults directory: %w", err)
	}
	cfg := Empty()
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".conf" {
			continue
		}
		raw, err := LoadRaw(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		cfg.Merge(raw)
	}
	return cfg, nil
}

// Load returns the system defaults overlaid with the named config file.
func Load(path string) (*Cfg, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	overlay, err := LoadRaw(path)
	if err != nil {
		return nil, err
	}
	cfg.Merge(overlay)
	return cfg, nil
}

// Merge copies every entry of other into c, overwriting existing values.
func (c *Cfg) Merge(other *Cfg) {
	for section, entries := range other.data {
		for key, value := range entries {
			c.set(section, key, value)
		}
	}
}

func (c *Cfg) set(section, key, value string) {
	entries, ok := c.data[section]
	if !ok {
		entries = make(map[string]string)
		c.data[section] = entries
	}
	entries[key] = value
}

// SetString stores a value, returning the previous value if one existed.
func (c *Cfg) SetString(section, key, value string) (string, bool) {
	prev, had := c.data[section][key]
	c.set(section, key, value)
	return prev, had
}

func (c *Cfg) value(section, key string) (string, error) {
	entries, ok := c.data[section]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNoSection, section)
	}
	v, ok := entries[key]
	if !ok {
		return "", fmt.Errorf("%w: %q in section %q", ErrNoKey, key, section)
	}
	return v, nil
}

// String returns the raw, unexpanded value of a key.
func (c *Cfg) String(section, key string) (string, error) {
	return c.value(section, key)
}

// Int returns the value of a key parsed as an unsigned integer.
func (c *Cfg) Int(section, key string) (uint64, error) {
	v, err := c.value(section, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s/%s is not an integer: %w", section, key, err)
	}
	return n, nil
}

// Float returns the value of a key parsed as a float.
func (c *Cfg) Float(section, key string) (float64, error) {
	v, err := c.value(section, key)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s/%s is not a float: %w", section, key, err)
	}
	return f, nil
}

// RelativeTime returns the value of a key parsed as GNUnet relative-time
// syntax (e.g. "5 s", "3 min 10 s").
func (c *Cfg) RelativeTime(section, key string) (time.Duration, error) {
	v, err := c.value(section, key)
	if err != nil {
		return 0, err
	}
	d, err := ParseRelativeTime(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s/%s: %w", section, key, err)
	}
	return d, nil
}

// Filename returns the `$`-expanded value of a key, used for socket and
// file paths.
func (c *Cfg) Filename(section, key string) (string, error) {
	v, err := c.value(section, key)
	if err != nil {
		return "", err
	}
	expanded, err := c.ExpandDollar(v)
	if err != nil {
		return "", fmt.Errorf("config: expand %s/%s: %w", section, key, err)
	}
	return expanded, nil
}
