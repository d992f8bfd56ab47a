package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Claude.Type != ProviderAnthropic {
		t.Errorf("expected default claude type 'anthropic', got %q", cfg.Claude.Type)
	}
	if cfg.Gemini.Type != ProviderGenAI {
		t.Errorf("expected default gemini type 'genai', got %q", cfg.Gemini.Type)
	}
	if cfg.Gemini.Temperature == nil || *cfg.Gemini.Temperature != 0.7 {
		t.Errorf("expected default gemini temperature 0.7, got %v", cfg.Gemini.Temperature)
	}
	if cfg.History.Dir != ".chat_history" {
		t.Errorf("expected default history dir '.chat_history', got %q", cfg.History.Dir)
	}
	if cfg.History.ContextMessages != 10 {
		t.Errorf("expected default context_messages 10, got %d", cfg.History.ContextMessages)
	}
	if cfg.Bash.DefaultTimeoutMS != 120000 {
		t.Errorf("expected default bash timeout 120000, got %d", cfg.Bash.DefaultTimeoutMS)
	}
	if cfg.Bash.MaxTimeoutMS != 600000 {
		t.Errorf("expected max bash timeout 600000, got %d", cfg.Bash.MaxTimeoutMS)
	}
	if len(cfg.Bash.BannedCommands) != len(DefaultBannedCommands) {
		t.Errorf("expected %d banned commands, got %d", len(DefaultBannedCommands), len(cfg.Bash.BannedCommands))
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected default log level 'warn', got %q", cfg.Log.Level)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Setenv("CLAUDE_MODEL", "")
	cfg, err := Load("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Claude.Model != KnownProviderModels[ProviderAnthropic] {
		t.Errorf("expected default claude model, got %q", cfg.Claude.Model)
	}
	if cfg.Claude.MaxTokens != 4000 {
		t.Errorf("expected max_tokens 4000, got %d", cfg.Claude.MaxTokens)
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("MCPCLI_HISTORY_DIR", "")

	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	content := `
gemini:
  type: openai
  api_key: g-key
  model: gemini-2.0-flash
history:
  dir: /tmp/chats
  backend: sqlite
server:
  url: http://localhost:8808/mcp
ui:
  markdown: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gemini.APIKey != "g-key" {
		t.Errorf("gemini api key = %q, want %q", cfg.Gemini.APIKey, "g-key")
	}
	if cfg.Gemini.Model != "gemini-2.0-flash" {
		t.Errorf("gemini model = %q, want %q", cfg.Gemini.Model, "gemini-2.0-flash")
	}
	if cfg.Gemini.BaseURL != KnownProviderBaseURLs[ProviderOpenAI] {
		t.Errorf("gemini base url = %q, want the openai-compatible default", cfg.Gemini.BaseURL)
	}
	if cfg.History.Backend != BackendSQLite {
		t.Errorf("backend = %q, want %q", cfg.History.Backend, BackendSQLite)
	}
	if got := cfg.SessionDBPath(); got != filepath.Join("/tmp/chats", "sessions.db") {
		t.Errorf("SessionDBPath = %q", got)
	}
	if cfg.Server.EffectiveType() != ServerTypeHTTP {
		t.Errorf("server type = %q, want http", cfg.Server.EffectiveType())
	}
	if !cfg.UI.Markdown {
		t.Error("expected ui.markdown true")
	}
	// Untouched sections keep their defaults.
	if cfg.Bash.DefaultTimeoutMS != 120000 {
		t.Errorf("bash timeout = %d, want default", cfg.Bash.DefaultTimeoutMS)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("claude: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "from-anthropic")
	t.Setenv("CLAUDE_API_KEY", "from-claude")
	t.Setenv("GEMINI_MODEL", "gemini-exp")
	t.Setenv("MCPCLI_HISTORY_DIR", "/var/chats")
	t.Setenv("MCPCLI_LOG_LEVEL", "debug")

	cfg, err := Load("/nonexistent/config.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Claude.APIKey != "from-claude" {
		t.Errorf("CLAUDE_API_KEY should win over ANTHROPIC_API_KEY, got %q", cfg.Claude.APIKey)
	}
	if cfg.Gemini.Model != "gemini-exp" {
		t.Errorf("gemini model = %q, want %q", cfg.Gemini.Model, "gemini-exp")
	}
	if cfg.History.Dir != "/var/chats" {
		t.Errorf("history dir = %q, want %q", cfg.History.Dir, "/var/chats")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q, want %q", cfg.Log.Level, "debug")
	}
}

func TestServerConfig_EffectiveType(t *testing.T) {
	tests := []struct {
		cfg  ServerConfig
		want ServerType
	}{
		{ServerConfig{}, ServerTypeStdio},
		{ServerConfig{Command: "mcpcli"}, ServerTypeStdio},
		{ServerConfig{URL: "http://x"}, ServerTypeHTTP},
		{ServerConfig{Type: ServerTypeSSE, URL: "http://x"}, ServerTypeSSE},
	}
	for _, tt := range tests {
		if got := tt.cfg.EffectiveType(); got != tt.want {
			t.Errorf("EffectiveType(%+v) = %q, want %q", tt.cfg, got, tt.want)
		}
	}
}

func TestSaveProviderToFile_PreservesOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("ui:\n  markdown: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	err := SaveProviderToFile(path, "claude", ProviderConfig{Type: ProviderAnthropic, APIKey: "k1", Model: "m1"})
	if err != nil {
		t.Fatalf("SaveProviderToFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["ui"]["markdown"] != true {
		t.Errorf("ui.markdown lost: %v", raw["ui"])
	}
	if raw["claude"]["api_key"] != "k1" || raw["claude"]["model"] != "m1" {
		t.Errorf("claude section = %v", raw["claude"])
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestSaveProviderToFile_NewFileIsPrivate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := SaveProviderToFile(path, "gemini", ProviderConfig{APIKey: "g1"}); err != nil {
		t.Fatalf("SaveProviderToFile: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("leftover files in config dir: %v", entries)
	}
}
