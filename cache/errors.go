package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every *ConfigurationError.
	ErrConfiguration = errors.New("cache: configuration error")
	// ErrTransport matches every *TransportError.
	ErrTransport = errors.New("cache: transport error")
	// ErrCacheCorruption matches every *CacheCorruptionError.
	ErrCacheCorruption = errors.New("cache: corrupted entry")
	// ErrInvalidation matches every *InvalidationError.
	ErrInvalidation = errors.New("cache: invalidation failed")

	// ErrTransportMissing is the cause reported when no transport was wired.
	ErrTransportMissing = errors.New("cache transport not provided")
	// ErrScanUnsupported is reported when a transport can neither scan nor list keys.
	ErrScanUnsupported = errors.New("transport supports neither SCAN nor KEYS")
)

// ConfigurationError reports wiring or option problems. It is never retried.
type ConfigurationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Field == "" {
		return "cache config error: " + msg
	}
	return "cache config error in field " + e.Field + ": " + msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// MissingTransport returns the error used when an operation runs without a transport.
func MissingTransport() error {
	return &ConfigurationError{Field: "Transport", Message: ErrTransportMissing.Error(), Err: ErrTransportMissing}
}

// TransportError wraps a failure of the underlying key-value command.
type TransportError struct {
	Op  string
	Key string
	Err error
}

func (e *TransportError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("cache transport %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("cache transport %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// CacheCorruptionError reports a stored payload that could not be decoded.
type CacheCorruptionError struct {
	Key string
	Err error
}

func (e *CacheCorruptionError) Error() string {
	return fmt.Sprintf("cache entry %q could not be decoded: %v", e.Key, e.Err)
}

func (e *CacheCorruptionError) Unwrap() error { return e.Err }

func (e *CacheCorruptionError) Is(target error) bool { return target == ErrCacheCorruption }

// InvalidationError reports a failed namespace clear. Stage is "scan" or "delete".
type InvalidationError struct {
	Prefix string
	Stage  string
	Err    error
}

func (e *InvalidationError) Error() string {
	return fmt.Sprintf("clearing namespace %q failed during %s: %v", e.Prefix, e.Stage, e.Err)
}

func (e *InvalidationError) Unwrap() error { return e.Err }

func (e *InvalidationError) Is(target error) bool { return target == ErrInvalidation }
