package holiday

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned for holiday configuration text
	// that matches no grammar form.
	ErrInvalidConfiguration = errors.New("invalid holiday configuration")

	// ErrInvalidHoliday is returned when a holiday record is incomplete.
	ErrInvalidHoliday = errors.New("invalid holiday")

	// ErrHolidayNotFound is returned by stores for unknown holiday ids.
	ErrHolidayNotFound = errors.New("holiday not found")
)

// ConfigurationError carries the offending configuration string.
type ConfigurationError struct {
	Config string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid holiday configuration %q: %s", e.Config, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrInvalidConfiguration }

// IsConfigurationError reports whether err came from an unparseable rule.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) || errors.Is(err, ErrInvalidHoliday)
}
