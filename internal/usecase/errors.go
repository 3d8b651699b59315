package usecase

import (
	"errors"
	"fmt"
)

// バリデーション以外のエラー種別
const (
	KindCartNotFound    = "CartNotFound"
	KindProductNotFound = "ProductNotFound"
	KindBusy            = "Busy"
	KindInternalError   = "InternalError"
)

type HTTPError struct {
	Status  int
	Kind    string
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Kind, e.Message)
}

func NewHTTPError(status int, kind string, message string) error {
	return &HTTPError{
		Status:  status,
		Kind:    kind,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}
