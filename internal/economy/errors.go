package economy

import (
	"errors"
	"fmt"
)

// InsufficientHoldsError reports a transfer larger than the target can hold.
type InsufficientHoldsError struct {
	Requested int
	Available int
}

func (e *InsufficientHoldsError) Error() string {
	return fmt.Sprintf("requested %d holds but only %d available", e.Requested, e.Available)
}

// AvailableFrom extracts the available holds carried by err.
func AvailableFrom(err error) (int, bool) {
	var holdsErr *InsufficientHoldsError
	if errors.As(err, &holdsErr) {
		return holdsErr.Available, true
	}
	return 0, false
}
