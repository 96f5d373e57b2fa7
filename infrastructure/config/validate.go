package config

import "fmt"

// ValidationError reports one invalid config field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateRequired fails when value is empty.
func ValidateRequired(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// ValidatePort fails when port is outside 1..65535.
func ValidatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return &ValidationError{Field: field, Message: "must be between 1 and 65535"}
	}
	return nil
}

// ValidateRange fails when v is outside [minVal, maxVal].
func ValidateRange(field string, v, minVal, maxVal float64) error {
	if v < minVal || v > maxVal {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be between %g and %g", minVal, maxVal)}
	}
	return nil
}

// ValidateLogLevel fails on unknown levels.
func ValidateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "warning", "error", "fatal":
		return nil
	default:
		return &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error, fatal"}
	}
}

// Validator is implemented by config types that can check themselves.
type Validator interface {
	Validate() error
}

// Validate calls cfg.Validate when cfg implements Validator.
func Validate(cfg any) error {
	if v, ok := cfg.(Validator); ok {
		return v.Validate()
	}
	return nil
}
