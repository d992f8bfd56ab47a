package permission

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// CommandPolicy rejects bash calls whose first word is a banned command.
// Every other tool call is allowed.
type CommandPolicy struct {
	banned map[string]bool
}

// NewCommandPolicy creates a policy from a list of banned command names.
func NewCommandPolicy(banned []string) *CommandPolicy {
	m := make(map[string]bool, len(banned))
	for _, name := range banned {
		name = strings.TrimSpace(name)
		if name != "" {
			m[name] = true
		}
	}
	return &CommandPolicy{banned: m}
}

// Check determines whether a tool call is allowed.
func (p *CommandPolicy) Check(toolName string, params json.RawMessage) Decision {
	if toolName != "bash" {
		return Allow
	}
	if _, banned := p.bannedCommand(params); banned {
		return Deny
	}
	return Allow
}

// Explain returns the message shown when a bash command is rejected.
func (p *CommandPolicy) Explain(toolName string, params json.RawMessage) string {
	if toolName == "bash" {
		if name, banned := p.bannedCommand(params); banned {
			return fmt.Sprintf("Error: The command '%s' is not allowed for security reasons.", name)
		}
	}
	return "Blocked: tool execution denied by policy"
}

// IsBanned reports whether cmd starts with a banned command. A path such
// as /usr/bin/curl matches the banned name curl.
func (p *CommandPolicy) IsBanned(cmd string) (string, bool) {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return "", false
	}
	first := fields[0]
	if p.banned[first] || p.banned[filepath.Base(first)] {
		return first, true
	}
	return "", false
}

func (p *CommandPolicy) bannedCommand(params json.RawMessage) (string, bool) {
	var args struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return "", false
	}
	return p.IsBanned(args.Command)
}
