package stacking

import "fmt"

// Result is the outcome of a single stacking operation. Message is
// non-empty exactly when Success is false. Results are built once per
// call and never mutated.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// failf builds a failure Result with a formatted message.
func failf(format string, args ...any) Result {
	return Result{Message: fmt.Sprintf(format, args...)}
}
