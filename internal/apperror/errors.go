package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks lookups for targets, submissions or learners that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrConcurrentModification is returned when another writer updated a submission first.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrPrerequisiteCycle is returned when a prerequisite edge would close a cycle.
	ErrPrerequisiteCycle = errors.New("prerequisite cycle")
)

// ConfigurationError describes a single broken target configuration rule.
type ConfigurationError struct {
	Field   string
	Message string
	Err     error
}

func (e ConfigurationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e ConfigurationError) Unwrap() error {
	return e.Err
}

// ConfigurationErrors is the outcome of one validation pass over a target.
type ConfigurationErrors []ConfigurationError

func (e ConfigurationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, item := range e {
		parts = append(parts, item.Error())
	}
	return "invalid target configuration: " + strings.Join(parts, "; ")
}

func (e ConfigurationErrors) Unwrap() []error {
	out := make([]error, 0, len(e))
	for _, item := range e {
		out = append(out, item)
	}
	return out
}

// Fields groups messages by field for response bodies.
func (e ConfigurationErrors) Fields() map[string][]string {
	out := make(map[string][]string, len(e))
	for _, item := range e {
		key := item.Field
		if key == "" {
			key = "base"
		}
		out[key] = append(out[key], item.Message)
	}
	return out
}

// AsConfiguration reports whether err carries configuration errors.
func AsConfiguration(err error) (ConfigurationErrors, bool) {
	var list ConfigurationErrors
	if errors.As(err, &list) {
		return list, true
	}
	var single ConfigurationError
	if errors.As(err, &single) {
		return ConfigurationErrors{single}, true
	}
	return nil, false
}
