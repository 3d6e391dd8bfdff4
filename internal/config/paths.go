package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// DotDir returns ~/.chatdeck, where the settings file lives.
func DotDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return "", errors.New("cannot determine user home directory")
	}
	return filepath.Join(home, ".chatdeck"), nil
}

// Path returns ~/.chatdeck/config.yaml.
func Path() (string, error) {
	dir, err := DotDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
