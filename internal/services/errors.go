package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a referenced thread, answer, course or
// notification does not exist.
var ErrNotFound = errors.New("record not found")

// ValidationError rejects a request before any storage access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// trapNotFound maps gorm's missing-row error to ErrNotFound and wraps
// everything else with the operation name.
func trapNotFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
