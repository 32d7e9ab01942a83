package booking

import "fmt"

type SubmitError struct {
	Code    string
	Message string
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewSubmitError(msg string) error {
	return &SubmitError{
		Code:    "submitError",
		Message: msg,
	}
}
