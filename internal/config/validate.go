package config

import (
	"fmt"
	"regexp"
	"time"
)

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// recognizedActions is the set of valid action names for rules.
var recognizedActions = map[string]bool{
	"borrow": true,
	"mut":    true,
}

// identRe matches a bare identifier. The borrow rule's word-boundary match
// only makes sense for targets of this shape.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks a Config for structural and semantic errors.
// It returns a slice of all validation errors found (empty if valid).
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError
	m := cfg.Mend

	if m.Command == "" {
		errs = append(errs, ValidationError{Field: "mend.command", Message: "is required"})
	}

	if !identRe.MatchString(m.Target) {
		errs = append(errs, ValidationError{
			Field:   "mend.target",
			Message: fmt.Sprintf("%q is not a bare identifier", m.Target),
		})
	}

	if m.MaxIterations != nil && *m.MaxIterations < 0 {
		errs = append(errs, ValidationError{
			Field:   "mend.max_iterations",
			Message: "must be zero (unbounded) or positive",
		})
	}

	if m.Timeout != "" {
		if _, err := time.ParseDuration(m.Timeout); err != nil {
			errs = append(errs, ValidationError{
				Field:   "mend.timeout",
				Message: fmt.Sprintf("invalid duration %q", m.Timeout),
			})
		}
	}

	for code, action := range m.Rules {
		if !recognizedActions[action] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("mend.rules.%s", code),
				Message: fmt.Sprintf("unrecognized action %q", action),
			})
		}
	}

	return errs
}

// TimeoutDuration returns the parsed per-invocation timeout; zero disables
// it. Validate catches unparseable values before this is called.
func (m *Mend) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(m.Timeout)
	if err != nil {
		return 0
	}
	return d
}
