package status

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound signals that no record exists for the referenced device.
	ErrNotFound = errors.New("status: device not found")

	// ErrNoData signals that a fleet summary was requested against an empty
	// store. Distinct from ErrNotFound: no device at all has reported yet.
	ErrNoData = errors.New("status: no records stored")
)

// ValidationError collects per-field reasons for rejecting an input. It is
// terminal for the caller; the input has to be fixed, never retried.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) add(field, reason string) {
	e.Fields[field] = reason
}

func (e *ValidationError) ok() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "status: invalid input: " + strings.Join(parts, "; ")
}

// AsValidation unwraps err into a ValidationError when it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
