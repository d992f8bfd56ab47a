package mcp

import "errors"

// Result is the outcome of a tool call. It is either a success carrying
// text or a failure carrying an error message; the zero value is an empty
// success. Build one with Success or Failure.
type Result struct {
	text   string
	failed bool
	cause  error
}

// Success returns a successful result.
func Success(text string) Result { return Result{text: text} }

// Failure returns a failed result.
func Failure(text string) Result { return Result{text: text, failed: true} }

// FailureFrom returns a failed result whose Err is err itself, so callers
// can match it with errors.Is.
func FailureFrom(err error) Result { return Result{text: err.Error(), failed: true, cause: err} }

// Text returns the output on success or the error message on failure.
func (r Result) Text() string { return r.text }

// IsError reports whether the call failed.
func (r Result) IsError() bool { return r.failed }

// Err returns the failure as an error, or nil on success.
func (r Result) Err() error {
	if !r.failed {
		return nil
	}
	if r.cause != nil {
		return r.cause
	}
	return errors.New(r.text)
}
