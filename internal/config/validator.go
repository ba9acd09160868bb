package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config key (e.g., "output.color")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the list of valid stderr log formats
func ValidLogFormats() []string {
	return []string{"json", "text"}
}

// ValidOutputFormats returns the list of valid report output formats
func ValidOutputFormats() []string {
	return []string{"text", "json"}
}

// ValidColorModes returns the list of valid output.color values
func ValidColorModes() []string {
	return []string{"auto", "always", "never"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateOutput()...)
	errors = append(errors, c.validateRun()...)
	errors = append(errors, c.validateWatch()...)
	return errors
}

// oneOf reports a ValidationError when value is set and not in valid.
// Matching is case-insensitive.
func oneOf(field, value string, valid []string) []ValidationError {
	if value == "" || slices.Contains(valid, strings.ToLower(value)) {
		return nil
	}
	return []ValidationError{{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(valid, ", ")),
	}}
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	errors = append(errors, oneOf("logging.level", c.Logging.Level, ValidLogLevels())...)
	errors = append(errors, oneOf("logging.format", c.Logging.Format, ValidLogFormats())...)

	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be non-negative (0 disables rotation)",
		})
	}
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateOutput() []ValidationError {
	var errors []ValidationError
	errors = append(errors, oneOf("output.format", c.Output.Format, ValidOutputFormats())...)
	errors = append(errors, oneOf("output.color", c.Output.Color, ValidColorModes())...)
	return errors
}

func (c *Config) validateRun() []ValidationError {
	if c.Run.Timeout < 0 {
		return []ValidationError{{
			Field:   "run.timeout",
			Value:   c.Run.Timeout,
			Message: "must be non-negative (0 disables the timeout)",
		}}
	}
	return nil
}

func (c *Config) validateWatch() []ValidationError {
	var errors []ValidationError
	if c.Watch.DebounceMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "watch.debounce_ms",
			Value:   c.Watch.DebounceMs,
			Message: "must be non-negative",
		})
	} else if c.Watch.DebounceMs > 60000 {
		errors = append(errors, ValidationError{
			Field:   "watch.debounce_ms",
			Value:   c.Watch.DebounceMs,
			Message: "must be at most 60000 (one minute)",
		})
	}
	return errors
}
