package geometry

import "fmt"

// ConversionError reports a box conversion that has no defined rule or was
// given malformed input.
type ConversionError struct {
	From   Mode
	To     Mode
	Reason string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s -> %s: %s", e.From, e.To, e.Reason)
}
