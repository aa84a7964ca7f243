package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies how an error propagates through a run.
type Kind int

const (
	// KindFatal aborts the whole run with a non-zero exit.
	KindFatal Kind = iota
	// KindItem is recoverable: the current batch item is skipped and the
	// batch continues.
	KindItem
	// KindBestEffort failures are logged and otherwise ignored
	// (e.g. service restart).
	KindBestEffort
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindFatal:
		return "FATAL"
	case KindItem:
		return "ITEM"
	case KindBestEffort:
		return "BEST_EFFORT"
	default:
		return "UNKNOWN"
	}
}

// CacheError carries the propagation kind and diagnostic context for one
// failure. Context values render in the message so a skip line is
// diagnosable without re-running.
type CacheError struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
	Context map[string]string
}

// Error implements the error interface
func (e *CacheError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Context) > 0 {
		b.WriteString(" (")
		first := true
		for _, k := range e.contextKeys() {
			if !first {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%s", k, e.Context[k])
			first = false
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *CacheError) Unwrap() error {
	return e.Cause
}

// WithContext adds a context value to the error
func (e *CacheError) WithContext(key, value string) *CacheError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

func (e *CacheError) contextKeys() []string {
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	// deterministic order for logs and tests
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

// New creates a CacheError
func New(kind Kind, code, message string) *CacheError {
	return &CacheError{Kind: kind, Code: code, Message: message}
}

// Wrap wraps an existing error with a CacheError
func Wrap(err error, kind Kind, code, message string) *CacheError {
	return &CacheError{Kind: kind, Code: code, Message: message, Cause: err}
}

// Fatal creates a run-aborting error
func Fatal(code, message string) *CacheError {
	return New(KindFatal, code, message)
}

// Item creates a per-item recoverable error
func Item(code, message string) *CacheError {
	return New(KindItem, code, message)
}

// KindOf reports the propagation kind of err. Errors that were never
// classified abort the run: only failures explicitly marked recoverable may
// be skipped.
func KindOf(err error) Kind {
	var ce *CacheError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindFatal
}

// IsItem reports whether err is recoverable at the batch boundary.
func IsItem(err error) bool {
	return err != nil && KindOf(err) == KindItem
}

// Well-known error codes.
const (
	CodeUnresolved    = "UNRESOLVED_IDENTITY"
	CodeEmptySource   = "EMPTY_SOURCE"
	CodeRecordAbsent  = "RECORD_ABSENT"
	CodeFetchFailed   = "FETCH_FAILED"
	CodeIndexCorrupt  = "INDEX_CORRUPT"
	CodeNoLatest      = "NO_LATEST_VERSION"
	CodeNoPrivilege   = "INSUFFICIENT_PRIVILEGE"
	CodeCatalogLoad   = "CATALOG_UNREADABLE"
	CodeToolMissing   = "TOOL_MISSING"
	CodeRestartFailed = "RESTART_FAILED"
)
