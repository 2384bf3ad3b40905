package service

import (
	"errors"
	"fmt"
)

// Error taxonomy. Validation and transition failures happen before any
// persistence attempt and carry no side effects; stock-shortage rejects the
// whole operation; anything else that bubbles up from a repository is a
// persistence failure and is passed through wrapped.

// ValidationError reports a request rejected before any write.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// StockShortageError names the first product with insufficient stock.
type StockShortageError struct {
	ProductName string
	Available   int
	Requested   int
}

func (e *StockShortageError) Error() string {
	return fmt.Sprintf("not enough stock for %s: available %d, requested %d",
		e.ProductName, e.Available, e.Requested)
}

// TransitionError reports an illegal order state transition.
type TransitionError struct{ Msg string }

func (e *TransitionError) Error() string { return e.Msg }

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// IsValidation reports whether err is a pre-persistence rejection.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsStockShortage reports whether err is a stock-shortage rejection.
func IsStockShortage(err error) bool {
	var s *StockShortageError
	return errors.As(err, &s)
}

// IsTransition reports whether err is an illegal state-transition rejection.
func IsTransition(err error) bool {
	var t *TransitionError
	return errors.As(err, &t)
}
