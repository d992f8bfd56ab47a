package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/apexion-ai/mcpcli/internal/logging"
	"github.com/apexion-ai/mcpcli/internal/permission"
)

// Executor handles tool execution with permission checks, panic recovery,
// and output limits. It never returns a Go error: every failure becomes a
// ToolResult with IsError set.
type Executor struct {
	registry       *Registry
	policy         permission.Policy
	logger         *zap.Logger
	defaultTimeout time.Duration
}

// NewExecutor creates a tool executor. A nil policy allows everything.
func NewExecutor(registry *Registry, policy permission.Policy, logger *zap.Logger) *Executor {
	if policy == nil {
		policy = permission.AllowAllPolicy{}
	}
	return &Executor{
		registry: registry,
		policy:   policy,
		logger:   logging.OrNop(logger),
		// Above the bash maximum so the tool's own timeout fires first.
		defaultTimeout: 11 * time.Minute,
	}
}

// Registry returns the underlying tool registry.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Policy returns the underlying permission policy.
func (e *Executor) Policy() permission.Policy {
	return e.policy
}

// Execute runs a single tool call.
func (e *Executor) Execute(ctx context.Context, name string, params json.RawMessage) (result ToolResult) {
	tool, ok := e.registry.Get(name)
	if !ok {
		return ToolResult{Content: fmt.Sprintf("unknown tool: %s", name), IsError: true}
	}
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}

	if e.policy.Check(name, params) == permission.Deny {
		msg := "Blocked: tool execution denied by policy"
		if ex, ok := e.policy.(permission.Explainer); ok {
			msg = ex.Explain(name, params)
		}
		e.logger.Info("tool call denied", zap.String("tool", name), zap.String("reason", msg))
		return ToolResult{Content: msg, IsError: true}
	}

	ctx, cancel := context.WithTimeout(ctx, e.defaultTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tool panicked", zap.String("tool", name), zap.Any("panic", r))
			result = ToolResult{Content: fmt.Sprintf("error: tool %s panicked: %v", name, r), IsError: true}
		}
		e.logger.Debug("tool call finished",
			zap.String("tool", name),
			zap.Bool("is_error", result.IsError),
			zap.Duration("elapsed", time.Since(start)))
	}()

	var err error
	result, err = tool.Execute(ctx, params)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return ToolResult{Content: "error: cancelled", IsError: true}
		}
		return ToolResult{Content: fmt.Sprintf("error: %v", err), IsError: true}
	}

	if limit := toolOutputLimit(name); limit > 0 && len(result.Content) > limit {
		result.Content = truncateHeadTail(result.Content, limit)
		result.Truncated = true
	}
	return result
}

// toolOutputLimit returns the output byte limit for a given tool; 0 means
// unlimited. listFiles is never cut because the client decodes it as JSON.
func toolOutputLimit(name string) int {
	switch name {
	case "readFile", "grep", "bash":
		return 64 * 1024
	case "searchGlob":
		return 32 * 1024
	default:
		return 0
	}
}

// truncateHeadTail keeps the head (60%) and tail (40%) of a string,
// omitting the middle. Tail content (errors, final results) is often more important.
func truncateHeadTail(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	head := maxLen * 3 / 5 // 60%
	tail := maxLen * 2 / 5 // 40%
	omitted := len(s) - head - tail
	return s[:head] + fmt.Sprintf("\n\n[...%d chars omitted...]\n\n", omitted) + s[len(s)-tail:]
}
