package timesheet

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHours is returned for negative or over-precise hours.
	ErrInvalidHours = errors.New("invalid hours")

	// ErrInvalidBill is returned for bills with bad ids or a blank reason.
	ErrInvalidBill = errors.New("invalid bill")

	// ErrMalformedRecord is returned when a wire record cannot be decoded.
	ErrMalformedRecord = errors.New("malformed bill record")
)

// DecodeError reports one bad record in a batch. Index is the record's
// position in the ';'-separated input.
type DecodeError struct {
	Index  int
	Record string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("bill record %d %q: %v", e.Index, e.Record, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodeErrors extracts the per-record errors from a DecodeBills error.
func DecodeErrors(err error) []*DecodeError {
	if err == nil {
		return nil
	}
	var out []*DecodeError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			var de *DecodeError
			if errors.As(e, &de) {
				out = append(out, de)
			}
		}
		return out
	}
	var de *DecodeError
	if errors.As(err, &de) {
		out = append(out, de)
	}
	return out
}
