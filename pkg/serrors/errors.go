package serrors

import (
	"fmt"
)

// BaseError is an error carrying a stable machine code and an optional
// translation key for the UI.
type BaseError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	LocaleKey string `json:"locale_key,omitempty"`
}

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{
		Code:      code,
		Message:   message,
		LocaleKey: localeKey,
	}
}

func (e *BaseError) Error() string {
	return e.Message
}

// Is matches any *BaseError with the same code so wrapped copies compare equal.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *BaseError) Wrap(err error) error {
	return fmt.Errorf("%w: %w", e, err)
}
