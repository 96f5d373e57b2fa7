// Package errors describes failed collaborator responses and wraps errors
// with context.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	// MinErrorStatusCode is the first status code treated as an error.
	MinErrorStatusCode = 400

	maxErrorBodyBytes = 4 << 10
)

// HTTPError is a non-success collaborator response.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP error (%d %s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP error: %d %s", e.StatusCode, e.Status)
}

// ParseHTTPError turns a response with a status other than 200 into an
// *HTTPError. It reads at most 4KiB of the body. It returns nil for 200.
func ParseHTTPError(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    fmt.Sprintf("read error body: %v", err),
		}
	}
	body := string(bodyBytes)

	var jsonErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := body
	if json.Unmarshal(bodyBytes, &jsonErr) == nil {
		switch {
		case jsonErr.Error != "":
			msg = jsonErr.Error
		case jsonErr.Message != "":
			msg = jsonErr.Message
		}
	}

	return &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
		Message:    msg,
	}
}

// GetHTTPStatusCode returns the status code of a wrapped *HTTPError.
func GetHTTPStatusCode(err error) (int, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, true
	}
	return 0, false
}
