// Package config loads and manages mcpcli configuration.
// Configuration source priority (highest to lowest):
// 1. Command-line flags (applied by cmd)
// 2. Environment variables (CLAUDE_API_KEY, GEMINI_API_KEY, MCPCLI_HISTORY_DIR, etc.)
// 3. Config file path specified via --config flag
// 4. ~/.config/mcpcli/config.yaml
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed providers_default.yaml
var defaultProvidersYAML []byte

// Provider types understood by the tool server.
const (
	ProviderAnthropic = "anthropic"
	ProviderGenAI     = "genai"
	ProviderOpenAI    = "openai"
)

// Session storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// ProviderDefaults holds the default base URL and model for a provider type.
type ProviderDefaults struct {
	BaseURL      string `yaml:"base_url"`
	DefaultModel string `yaml:"default_model"`
}

// LoadProviderDefaults parses the embedded defaults and merges any user
// overrides from ~/.config/mcpcli/providers.yaml.
func LoadProviderDefaults() map[string]ProviderDefaults {
	defs := make(map[string]ProviderDefaults)
	_ = yaml.Unmarshal(defaultProvidersYAML, &defs)

	home, err := os.UserHomeDir()
	if err == nil {
		userPath := filepath.Join(home, ".config", "mcpcli", "providers.yaml")
		if data, err := os.ReadFile(userPath); err == nil {
			userDefs := make(map[string]ProviderDefaults)
			if yaml.Unmarshal(data, &userDefs) == nil {
				for name, ud := range userDefs {
					d := defs[name]
					if ud.BaseURL != "" {
						d.BaseURL = ud.BaseURL
					}
					if ud.DefaultModel != "" {
						d.DefaultModel = ud.DefaultModel
					}
					defs[name] = d
				}
			}
		}
	}
	return defs
}

// ProviderConfig configures one of the two LLM tools (prompt and gemini).
type ProviderConfig struct {
	// Type selects the client: "anthropic", "genai" or "openai" (any
	// OpenAI-compatible endpoint).
	Type    string `yaml:"type"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`

	MaxTokens int `yaml:"max_tokens"`
	// Temperature is left to the provider default when nil.
	Temperature  *float64 `yaml:"temperature"`
	SystemPrompt string   `yaml:"system_prompt"`
}

// ServerType specifies the tool server transport.
type ServerType string

const (
	ServerTypeStdio ServerType = "stdio" // child process stdin/stdout
	ServerTypeHTTP  ServerType = "http"  // Streamable HTTP
	ServerTypeSSE   ServerType = "sse"   // 2024-11-05 HTTP+SSE
)

// ServerConfig tells the client how to reach the tool server.
// With no command and no URL the client runs its own binary with "serve".
type ServerConfig struct {
	// Type is the transport type; inferred from Command/URL if omitted.
	Type ServerType `yaml:"type"`

	// Stdio transport
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`

	// HTTP transports
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

// EffectiveType infers the actual transport type.
func (c *ServerConfig) EffectiveType() ServerType {
	if c.Type != "" {
		return c.Type
	}
	if c.URL != "" {
		return ServerTypeHTTP
	}
	return ServerTypeStdio
}

// HistoryConfig controls where chat sessions are stored.
type HistoryConfig struct {
	// Dir holds one JSON file per session. Relative paths resolve against
	// the working directory.
	Dir string `yaml:"dir"`

	// Backend: "json" (default) | "sqlite"
	Backend string `yaml:"backend"`

	// DBPath is the SQLite database file. Empty = <dir>/sessions.db.
	DBPath string `yaml:"db_path"`

	// ContextMessages is how many prior messages accompany a chat turn.
	ContextMessages int `yaml:"context_messages"`
}

// BashConfig holds settings for the bash tool.
type BashConfig struct {
	DefaultTimeoutMS int      `yaml:"default_timeout_ms"`
	MaxTimeoutMS     int      `yaml:"max_timeout_ms"`
	BannedCommands   []string `yaml:"banned_commands"`
	WorkDir          string   `yaml:"work_dir"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	// Color: "auto" (default) | "always" | "never"
	Color string `yaml:"color"`

	// Markdown renders AI responses with glamour instead of plain
	// text with highlighted code blocks.
	Markdown bool `yaml:"markdown"`

	// Menu: "auto" (arrow-key menu on terminals) | "numbered"
	Menu string `yaml:"menu"`

	// CodeStyle is the chroma style used for fenced code blocks.
	CodeStyle string `yaml:"code_style"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Config is the complete configuration structure for mcpcli.
type Config struct {
	// Claude backs the "prompt" tool and the claude command.
	Claude ProviderConfig `yaml:"claude"`

	// Gemini backs the "gemini" tool and the gemini commands.
	Gemini ProviderConfig `yaml:"gemini"`

	Server  ServerConfig  `yaml:"server"`
	History HistoryConfig `yaml:"history"`
	Bash    BashConfig    `yaml:"bash"`
	UI      UIConfig      `yaml:"ui"`
	Log     LogConfig     `yaml:"log"`
}

// DefaultBannedCommands are rejected by the bash tool when they are the first
// word of a command.
var DefaultBannedCommands = []string{
	"alias", "curl", "curlie", "wget", "axel", "aria2c", "nc", "telnet",
	"lynx", "w3m", "links", "httpie", "xh", "http-prompt", "chrome", "firefox", "safari",
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	temp := 0.7
	return &Config{
		Claude: ProviderConfig{
			Type:      ProviderAnthropic,
			MaxTokens: 4000,
		},
		Gemini: ProviderConfig{
			Type:        ProviderGenAI,
			MaxTokens:   4000,
			Temperature: &temp,
		},
		History: HistoryConfig{
			Dir:             ".chat_history",
			Backend:         BackendJSON,
			ContextMessages: 10,
		},
		Bash: BashConfig{
			DefaultTimeoutMS: 120000,
			MaxTimeoutMS:     600000,
			BannedCommands:   append([]string(nil), DefaultBannedCommands...),
		},
		UI: UIConfig{
			Color:     "auto",
			Menu:      "auto",
			CodeStyle: "monokai",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
			Output: "stderr",
		},
	}
}

// DefaultPath returns ~/.config/mcpcli/config.yaml, or "" if the home
// directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mcpcli", "config.yaml")
}

// Load reads the config file and merges environment variable overrides.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		configPath = DefaultPath()
	}

	// Read config file (use defaults if not found)
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
			}
		}
	}

	applyEnvOverrides(cfg)
	applyProviderDefaults(&cfg.Claude, ProviderAnthropic)
	applyProviderDefaults(&cfg.Gemini, ProviderGenAI)

	if cfg.History.ContextMessages <= 0 {
		cfg.History.ContextMessages = 10
	}
	if cfg.Bash.MaxTimeoutMS <= 0 {
		cfg.Bash.MaxTimeoutMS = 600000
	}

	return cfg, nil
}

// SessionDBPath returns the SQLite file used by the sqlite backend.
func (c *Config) SessionDBPath() string {
	if c.History.DBPath != "" {
		return c.History.DBPath
	}
	return filepath.Join(c.History.Dir, "sessions.db")
}

var (
	// KnownProviderBaseURLs maps provider types to their default base URLs.
	// Populated from providers_default.yaml (embedded) + user overrides.
	KnownProviderBaseURLs map[string]string

	// KnownProviderModels maps provider types to their default models.
	// Populated from providers_default.yaml (embedded) + user overrides.
	KnownProviderModels map[string]string
)

func init() {
	defs := LoadProviderDefaults()
	KnownProviderBaseURLs = make(map[string]string, len(defs))
	KnownProviderModels = make(map[string]string, len(defs))
	for name, d := range defs {
		if d.BaseURL != "" {
			KnownProviderBaseURLs[name] = d.BaseURL
		}
		if d.DefaultModel != "" {
			KnownProviderModels[name] = d.DefaultModel
		}
	}
}

func applyProviderDefaults(pc *ProviderConfig, fallbackType string) {
	if pc.Type == "" {
		pc.Type = fallbackType
	}
	if pc.Model == "" {
		pc.Model = KnownProviderModels[pc.Type]
	}
	if pc.BaseURL == "" && pc.Type == ProviderOpenAI {
		pc.BaseURL = KnownProviderBaseURLs[pc.Type]
	}
	if pc.MaxTokens <= 0 {
		pc.MaxTokens = 4000
	}
}

// SaveProviderToFile persists one provider section ("claude" or "gemini")
// into the config file at cfgPath, preserving all other user settings.
func SaveProviderToFile(cfgPath, section string, pc ProviderConfig) error {
	if cfgPath == "" {
		cfgPath = DefaultPath()
	}
	if cfgPath == "" {
		return fmt.Errorf("cannot determine config path")
	}

	// Read existing file into a generic map to preserve unknown fields.
	raw := make(map[string]any)
	if data, err := os.ReadFile(cfgPath); err == nil {
		_ = yaml.Unmarshal(data, &raw) // ignore errors; start fresh if corrupt
	}

	entry, _ := raw[section].(map[string]any)
	if entry == nil {
		entry = make(map[string]any)
	}
	if pc.Type != "" {
		entry["type"] = pc.Type
	}
	entry["api_key"] = pc.APIKey
	if pc.BaseURL != "" {
		entry["base_url"] = pc.BaseURL
	}
	if pc.Model != "" {
		entry["model"] = pc.Model
	}
	raw[section] = entry

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	// Holds API keys: 0600 even when replacing an existing file.
	tmp, err := os.CreateTemp(filepath.Dir(cfgPath), filepath.Base(cfgPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmpName, cfgPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Claude
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Claude.APIKey = v
	}
	if v := os.Getenv("CLAUDE_API_KEY"); v != "" {
		cfg.Claude.APIKey = v
	}
	if v := os.Getenv("CLAUDE_MODEL"); v != "" {
		cfg.Claude.Model = v
	}

	// Gemini
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.Gemini.Model = v
	}

	if v := os.Getenv("MCPCLI_HISTORY_DIR"); v != "" {
		cfg.History.Dir = v
	}
	if v := os.Getenv("MCPCLI_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
