package helpers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chart-stream/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type ChartStreamError struct {
	Message string
	Cause   error
}

func (e *ChartStreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ChartStreamError) Unwrap() error {
	return e.Cause
}

// Distinct error kinds, matched with errors.As.
//
// InputError is reported back to the requesting client; its Message is the
// exact text of the error envelope.
type InputError struct{ ChartStreamError }
type DataError struct{ ChartStreamError }
type TransportError struct{ ChartStreamError }
type ConfigurationError struct{ ChartStreamError }
type DatabaseError struct{ ChartStreamError }

// -----------------------------------------------------------------------------

func NewInputError(format string, args ...interface{}) *InputError {
	return &InputError{ChartStreamError{Message: fmt.Sprintf(format, args...)}}
}

func NewDataError(message string, cause error) *DataError {
	return &DataError{ChartStreamError{Message: message, Cause: cause}}
}

func NewTransportError(message string, cause error) *TransportError {
	return &TransportError{ChartStreamError{Message: message, Cause: cause}}
}

func NewConfigurationError(message string, cause error) *ConfigurationError {
	return &ConfigurationError{ChartStreamError{Message: message, Cause: cause}}
}

func NewDatabaseError(message string, cause error) *DatabaseError {
	return &DatabaseError{ChartStreamError{Message: message, Cause: cause}}
}

// -----------------------------------------------------------------------------

// UnknownSeriesType is the input error returned when a series kind is not registered.
func UnknownSeriesType(name string) *InputError {
	return NewInputError("Unknown series type: %s", name)
}

// -----------------------------------------------------------------------------

// IsInputError reports whether err should be surfaced to the client as an
// error envelope, returning the client-facing message.
func IsInputError(err error) (string, bool) {
	var in *InputError
	if errors.As(err, &in) {
		return in.Message, true
	}
	return "", false
}

// IsTransportError reports whether err ended the connection.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts to execute the operation up to maxRetries times with exponential backoff.
func RetryWithBackoff(ctx context.Context, log *logger.Logger, operation string, maxRetries int, baseDelay time.Duration, fn func() error) error {
	var lastErr error
	if maxRetries < 1 {
		maxRetries = 1
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		if log != nil {
			log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, maxRetries, operation, err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return &ChartStreamError{Message: fmt.Sprintf("%s failed after %d attempts", operation, maxRetries), Cause: lastErr}
}
