package config

// Config is the top-level configuration structure parsed from cargomend YAML.
type Config struct {
	Mend Mend `yaml:"mend"`
}

// Mend defines the loop: the build-check command, the target binding the fix
// rules resolve against, termination guards, and the error-code rule table.
type Mend struct {
	Command       string            `yaml:"command"`
	Target        string            `yaml:"target"`
	MaxIterations *int              `yaml:"max_iterations"`
	Timeout       string            `yaml:"timeout"`
	History       *bool             `yaml:"history"`
	Rules         map[string]string `yaml:"rules"`
}

// HistoryEnabled reports whether run history should be recorded.
func (m *Mend) HistoryEnabled() bool {
	return m.History == nil || *m.History
}

// IterationCap returns the effective iteration cap; zero means unbounded.
func (m *Mend) IterationCap() int {
	if m.MaxIterations == nil {
		return DefaultMaxIterations
	}
	return *m.MaxIterations
}
