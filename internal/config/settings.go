package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"chatdeck/internal/decorate"
)

// Settings is the on-disk configuration.
// Path: ~/.chatdeck/config.yaml
type Settings struct {
	// Style selects how terminal.exec calls are presented: markdown or shell.
	Style decorate.Style `yaml:"style"`
	// PreviewLines bounds the markdown output preview (minimum 1).
	PreviewLines int `yaml:"preview_lines"`
	// LogLevel is a charmbracelet/log level name: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// Addr is the default bind address of the web UI server.
	Addr string `yaml:"addr"`
}

// Environment overrides, applied after the file.
const (
	EnvStyle        = "CHATDECK_STYLE"
	EnvPreviewLines = "CHATDECK_PREVIEW_LINES"
	EnvLogLevel     = "CHATDECK_LOG_LEVEL"
)

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Style:        decorate.StyleMarkdown,
		PreviewLines: decorate.DefaultPreviewLines,
		LogLevel:     "info",
		Addr:         "127.0.0.1:8787",
	}
}

// Load reads the settings file and applies environment overrides.
// A missing file yields the defaults and no error. On a malformed file the
// defaults (with env overrides) are returned together with the error.
func Load() (Settings, error) {
	s := Defaults()
	p, err := Path()
	if err != nil {
		return s.withEnv(), err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return s.withEnv(), nil
		}
		return s.withEnv(), err
	}
	var onDisk Settings
	if err := yaml.Unmarshal(b, &onDisk); err != nil {
		return s.withEnv(), fmt.Errorf("parse %s: %w", p, err)
	}
	return s.merge(onDisk).withEnv(), nil
}

// Save writes s to the settings file, creating ~/.chatdeck when needed.
func Save(s Settings) error {
	p, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(s.Normalize())
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o644)
}

// merge overlays the non-zero fields of o onto s.
func (s Settings) merge(o Settings) Settings {
	if strings.TrimSpace(string(o.Style)) != "" {
		s.Style = o.Style
	}
	if o.PreviewLines != 0 {
		s.PreviewLines = o.PreviewLines
	}
	if strings.TrimSpace(o.LogLevel) != "" {
		s.LogLevel = o.LogLevel
	}
	if strings.TrimSpace(o.Addr) != "" {
		s.Addr = o.Addr
	}
	return s.Normalize()
}

func (s Settings) withEnv() Settings {
	if v := strings.TrimSpace(os.Getenv(EnvStyle)); v != "" {
		s.Style = decorate.Style(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvPreviewLines)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.PreviewLines = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		s.LogLevel = v
	}
	return s.Normalize()
}

// Normalize clamps values into range and falls back to defaults for
// unknown styles.
func (s Settings) Normalize() Settings {
	d := Defaults()
	if style, err := decorate.ParseStyle(string(s.Style)); err == nil {
		s.Style = style
	} else {
		s.Style = d.Style
	}
	if s.PreviewLines < 1 {
		s.PreviewLines = 1
	}
	s.LogLevel = strings.ToLower(strings.TrimSpace(s.LogLevel))
	if s.LogLevel == "" {
		s.LogLevel = d.LogLevel
	}
	if strings.TrimSpace(s.Addr) == "" {
		s.Addr = d.Addr
	}
	return s
}

// Set assigns one setting by its YAML key, as used by `chatdeck config --set`.
func (s *Settings) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch strings.TrimSpace(key) {
	case "style":
		style, err := decorate.ParseStyle(value)
		if err != nil {
			return err
		}
		s.Style = style
	case "preview_lines":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("preview_lines: %w", err)
		}
		if n < 1 {
			return fmt.Errorf("preview_lines must be at least 1, got %d", n)
		}
		s.PreviewLines = n
	case "log_level":
		s.LogLevel = value
	case "addr":
		s.Addr = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// Get returns one setting by its YAML key.
func (s Settings) Get(key string) (string, error) {
	switch strings.TrimSpace(key) {
	case "style":
		return string(s.Style), nil
	case "preview_lines":
		return strconv.Itoa(s.PreviewLines), nil
	case "log_level":
		return s.LogLevel, nil
	case "addr":
		return s.Addr, nil
	}
	return "", fmt.Errorf("unknown setting %q", key)
}

// Decorator builds the decorator these settings describe.
func (s Settings) Decorator() *decorate.Decorator {
	s = s.Normalize()
	return decorate.ForStyle(s.Style, s.PreviewLines)
}
