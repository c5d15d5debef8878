package models

import (
	"errors"
	"fmt"
)

// ErrValidation is the root of every input validation failure. Callers test with errors.Is.
var ErrValidation = errors.New("validation error")

var (
	ErrInvalidDiscountTarget = fmt.Errorf("%w: discount must target exactly one of menu_item_id or set_id", ErrValidation)
	ErrInvalidTimeOfDay      = fmt.Errorf("%w: invalid time of day", ErrValidation)
)
