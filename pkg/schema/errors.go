package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRequired is wrapped by a SettingError for a required setting that is absent or
// null.
var ErrRequired = errors.New("is required")

// SettingError reports one module setting whose value does not match its declaration.
type SettingError struct {
	Setting string
	Value   any
	Err     error
}

func (e *SettingError) Error() string {
	if errors.Is(e.Err, ErrRequired) {
		return fmt.Sprintf("setting %q %v", e.Setting, e.Err)
	}
	return fmt.Sprintf("setting %q: %v", e.Setting, e.Err)
}

func (e *SettingError) Unwrap() error { return e.Err }

// SettingErrors is every failing setting of one module, ordered by setting name.
type SettingErrors []*SettingError

func (e SettingErrors) Error() string {
	parts := make([]string, len(e))
	for i, s := range e {
		parts[i] = s.Error()
	}
	return strings.Join(parts, "; ")
}

func (e SettingErrors) Unwrap() []error {
	out := make([]error, len(e))
	for i, s := range e {
		out[i] = s
	}
	return out
}

// Problems returns the failing settings carried by err, or nil when err did not come
// from Validate.
func Problems(err error) []*SettingError {
	var errs SettingErrors
	if errors.As(err, &errs) {
		return errs
	}
	return nil
}
