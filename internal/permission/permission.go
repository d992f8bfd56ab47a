// Package permission decides whether a tool call may run.
package permission

import "encoding/json"

// Decision represents the outcome of a permission check.
type Decision int

const (
	Allow Decision = iota // Automatically allowed
	Deny                  // Denied
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "unknown"
	}
}

// Policy checks whether a tool call should be allowed.
type Policy interface {
	Check(toolName string, params json.RawMessage) Decision
}

// Explainer is implemented by policies that can describe a denial. The
// executor shows the explanation to the caller instead of a generic message.
type Explainer interface {
	Explain(toolName string, params json.RawMessage) string
}

// AllowAllPolicy allows all tool calls.
type AllowAllPolicy struct{}

func (AllowAllPolicy) Check(_ string, _ json.RawMessage) Decision {
	return Allow
}
