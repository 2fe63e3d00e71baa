package serrors

import "fmt"

// BaseError is a coded error. Code is a stable machine-readable identifier,
// Message is the operator-facing text, LocaleKey points at the translation
// entry used by presentation layers.
type BaseError struct {
	Code      string
	Message   string
	LocaleKey string
	Cause     error
}

func (e *BaseError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *BaseError) Unwrap() error { return e.Cause }

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{Code: code, Message: message, LocaleKey: localeKey}
}

// Wrap returns a copy of e carrying cause, preserving the code for
// errors.Is comparisons against the original sentinel.
func Wrap(e *BaseError, cause error) *BaseError {
	return &BaseError{Code: e.Code, Message: e.Message, LocaleKey: e.LocaleKey, Cause: cause}
}

// Is matches on Code so wrapped copies compare equal to their sentinel.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
