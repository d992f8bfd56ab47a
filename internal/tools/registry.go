package tools

import (
	"sort"

	"github.com/apexion-ai/mcpcli/internal/provider"
)

// Registry manages all registered tools.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry.
func (r *Registry) Register(t Tool) {
	r.tools[t.Name()] = t
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// All returns all registered tools sorted by name.
func (r *Registry) All() []Tool {
	result := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

// BashToolConfig holds configuration for the bash tool.
type BashToolConfig struct {
	WorkDir          string // working directory for commands ("" = server cwd)
	DefaultTimeoutMS int
	MaxTimeoutMS     int
}

// RegistryConfig wires the tools that need outside collaborators.
type RegistryConfig struct {
	Bash BashToolConfig

	// Claude backs the "prompt" tool, Gemini the "gemini" tool.
	Claude provider.Provider
	Gemini provider.Provider
}

// DefaultRegistry creates a registry with every served tool.
func DefaultRegistry(cfg RegistryConfig) *Registry {
	r := NewRegistry()
	r.Register(&BashTool{
		WorkDir:          cfg.Bash.WorkDir,
		DefaultTimeoutMS: cfg.Bash.DefaultTimeoutMS,
		MaxTimeoutMS:     cfg.Bash.MaxTimeoutMS,
	})
	r.Register(NewPromptTool(cfg.Claude))
	r.Register(NewGeminiTool(cfg.Gemini))
	r.Register(&ReadFileTool{})
	r.Register(&ListFilesTool{})
	r.Register(&SearchGlobTool{})
	r.Register(&GrepTool{})
	r.Register(&ThinkTool{})
	r.Register(&CodeReviewTool{})
	r.Register(&EditFileTool{})
	return r
}
