package errors

import "fmt"

// WrapWithContext returns "context: err", or nil when err is nil.
func WrapWithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}
