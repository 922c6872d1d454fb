package bills

import "errors"

// Sentinel errors for the three failure classes callers branch on. Wrap with
// %w and test with errors.Is.
var (
	// ErrInvalidInput marks a validation failure: bad shape or range,
	// missing required fields, mismatched totals.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a lookup miss, including rows that exist but belong
	// to another household.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a precondition violation: paying a settled
	// occurrence, rewriting frozen allocations, reusing an idempotency key.
	ErrConflict = errors.New("conflict")
)

// ErrorCode maps an error to a stable machine-readable code, used in autopay
// run records and HTTP responses.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	}
	return "internal"
}
