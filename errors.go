package sitetheory

import (
	"errors"
	"fmt"
)

// SiteError is a synthesis-time failure with a stable error code.
//
// Every SiteError is fatal: the entry point logs it and exits without
// producing a cloud assembly.
type SiteError struct {
	Code    string
	Message string
	Err     error
}

func (e *SiteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SiteError) Unwrap() error {
	return e.Err
}

// NewError returns a SiteError without an underlying cause.
func NewError(code, message string) *SiteError {
	return &SiteError{Code: code, Message: message}
}

// WrapError returns a SiteError carrying err as its cause.
func WrapError(code, message string, err error) *SiteError {
	return &SiteError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the first SiteError in err's chain, or
// ErrorCodeInternal when there is none.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var siteErr *SiteError
	if errors.As(err, &siteErr) {
		return siteErr.Code
	}
	return ErrorCodeInternal
}

// IsCode reports whether err carries a SiteError with the given code.
func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}
