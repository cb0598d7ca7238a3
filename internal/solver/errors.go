package solver

import (
	"errors"
	"fmt"
)

// ErrInfeasible is reported when the search exhausts its time budget without
// finding any assignment that covers every stop within its time window. No
// partial result accompanies it; relaxing constraints and retrying is the
// caller's decision.
var ErrInfeasible = errors.New("no feasible assignment found")

// ConfigurationError rejects invalid problem input before any search work
// begins: empty stop set, zero vehicles, or an inverted time window.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

func configErrf(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}
