package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chatdeck/internal/decorate"
	tu "chatdeck/internal/testutil"
)

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	tmp := t.TempDir()
	defer tu.WithEnv(t, "HOME", tmp)()
	defer tu.WithEnv(t, EnvStyle, "")()
	defer tu.WithEnv(t, EnvPreviewLines, "")()
	defer tu.WithEnv(t, EnvLogLevel, "")()

	s, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if s != Defaults() {
		t.Fatalf("expected defaults, got %+v", s)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	tmp := t.TempDir()
	defer tu.WithEnv(t, "HOME", tmp)()
	defer tu.WithEnv(t, EnvStyle, "")()
	defer tu.WithEnv(t, EnvPreviewLines, "")()
	defer tu.WithEnv(t, EnvLogLevel, "")()

	in := Defaults()
	in.Style = decorate.StyleShell
	in.PreviewLines = 8
	if err := Save(in); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	p, err := Path()
	if err != nil {
		t.Fatalf("Path error: %v", err)
	}
	if !strings.HasPrefix(p, tmp) {
		t.Fatalf("expected config under %s, got %s", tmp, p)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if !strings.Contains(string(b), "style: shell") {
		t.Fatalf("expected yaml style key, got:\n%s", b)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.Style != decorate.StyleShell || got.PreviewLines != 8 {
		t.Fatalf("unexpected settings after save+load: %+v", got)
	}
}

func TestLoad_EnvOverridesAndClamp(t *testing.T) {
	tmp := t.TempDir()
	defer tu.WithEnv(t, "HOME", tmp)()
	defer tu.WithEnv(t, EnvStyle, "SHELL")()
	defer tu.WithEnv(t, EnvPreviewLines, "0")()
	defer tu.WithEnv(t, EnvLogLevel, "")()

	s, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if s.Style != decorate.StyleShell {
		t.Fatalf("expected env style override, got %q", s.Style)
	}
	if s.PreviewLines != 1 {
		t.Fatalf("expected preview lines floor of 1, got %d", s.PreviewLines)
	}
}

func TestLoad_MalformedFileKeepsDefaults(t *testing.T) {
	tmp := t.TempDir()
	defer tu.WithEnv(t, "HOME", tmp)()
	defer tu.WithEnv(t, EnvStyle, "")()
	defer tu.WithEnv(t, EnvPreviewLines, "")()
	defer tu.WithEnv(t, EnvLogLevel, "")()

	dir := filepath.Join(tmp, ".chatdeck")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("style: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load()
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if s != Defaults() {
		t.Fatalf("expected defaults alongside the error, got %+v", s)
	}
}

func TestSettings_SetGet(t *testing.T) {
	s := Defaults()
	if err := s.Set("style", "shell"); err != nil {
		t.Fatalf("Set style: %v", err)
	}
	if err := s.Set("preview_lines", "0"); err == nil {
		t.Fatalf("expected error for preview_lines=0")
	}
	if err := s.Set("colour", "red"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if v, _ := s.Get("style"); v != "shell" {
		t.Fatalf("Get style = %q", v)
	}
	if _, err := s.Get("nope"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if s.Normalize().Style != decorate.StyleShell {
		t.Fatalf("normalize changed a valid style")
	}
	s.Style = "html"
	if s.Normalize().Style != decorate.StyleMarkdown {
		t.Fatalf("expected unknown style to fall back to markdown")
	}
}
