package survey

import (
	"errors"
	"fmt"
)

// ErrMissingField matches every MissingFieldError via errors.Is.
var ErrMissingField = errors.New("missing field")

// MissingFieldError reports a field name that the input schema does not
// declare. It indicates a configuration mistake and is never recovered.
type MissingFieldError struct {
	Field   string
	Table   string
	Context string
}

func (e *MissingFieldError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: field %q not found in table %s", e.Context, e.Field, e.Table)
	}
	return fmt.Sprintf("field %q not found in table %s", e.Field, e.Table)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// LengthMismatchError reports cross-tab inputs that are not aligned row by row.
type LengthMismatchError struct {
	Rows int
	Cols int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("cross-tab dimensions are not aligned: %d row tokens vs %d column tokens", e.Rows, e.Cols)
}
