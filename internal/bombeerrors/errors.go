// Package bombeerrors defines the typed error taxonomy surfaced by
// the storage, extraction, and query layers.
package bombeerrors

import "fmt"

// Code is a stable error code for a failure category.
type Code string

const (
	// Database covers persistence or migration failures, fatal to the
	// current operation.
	Database Code = "DATABASE"
	// Index covers extraction or builder failures isolated to a
	// single file.
	Index Code = "INDEX"
	// Query covers symbol-not-found and malformed-parameter failures
	// surfaced to the caller.
	Query Code = "QUERY"
	// Parse covers malformed source input; the file is skipped.
	Parse Code = "PARSE"
	// IO covers unreadable source or sidecar files.
	IO Code = "IO"

	// SymbolNotFound is returned when a lookup by qualified name or
	// name resolves to nothing.
	SymbolNotFound Code = "SYMBOL_NOT_FOUND"
	// InvalidParameter is returned for a missing or malformed
	// request parameter.
	InvalidParameter Code = "INVALID_PARAMETER"
	// SchemaTooNew is returned when a store's schema_version exceeds
	// the version known to the reading process.
	SchemaTooNew Code = "SCHEMA_TOO_NEW"
)

// Drilldown is a suggested follow-up query attached to an error.
type Drilldown struct {
	Label string `json:"label"`
	Query string `json:"query"`
}

// BombeError is the typed error value returned across package
// boundaries.
type BombeError struct {
	Code       Code        `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	Drilldowns []Drilldown `json:"drilldowns,omitempty"`
	cause      error
}

// New creates a BombeError.
func New(code Code, message string, cause error) *BombeError {
	return &BombeError{Code: code, Message: message, cause: cause}
}

func (e *BombeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *BombeError) Unwrap() error {
	return e.cause
}

// WithDetails attaches structured details and returns the receiver.
func (e *BombeError) WithDetails(details interface{}) *BombeError {
	e.Details = details
	return e
}

// WithDrilldowns attaches suggested follow-up queries.
func (e *BombeError) WithDrilldowns(d ...Drilldown) *BombeError {
	e.Drilldowns = d
	return e
}

// NotFound builds the "symbol-resolution miss" error spec.md §7
// requires: a Query error carrying the looked-up name.
func NotFound(lookedUp string) *BombeError {
	return New(Query, fmt.Sprintf("symbol not found: %s", lookedUp), nil).
		WithDetails(map[string]interface{}{"lookup": lookedUp})
}

// InvalidParam builds an InvalidParameter error.
func InvalidParam(name, reason string) *BombeError {
	msg := fmt.Sprintf("invalid parameter %q", name)
	if reason != "" {
		msg = fmt.Sprintf("invalid parameter %q: %s", name, reason)
	}
	return New(InvalidParameter, msg, nil)
}

// Wrap attaches a code and message to an underlying error.
func Wrap(code Code, message string, cause error) *BombeError {
	return New(code, message, cause)
}
