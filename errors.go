package lino

import (
	"errors"
	"fmt"
)

// ErrDepthExceeded reports input nested deeper than the parser's MaxDepth.
var ErrDepthExceeded = errors.New("maximum nesting depth exceeded")

// SizeError reports input larger than the parser's MaxInputSize.
type SizeError struct {
	Size  int
	Limit int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("input size %d exceeds maximum allowed size %d", e.Size, e.Limit)
}

// ParseError reports a structural parsing failure. It wraps the
// originating fault, reachable through errors.Unwrap.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return "parse " + e.Msg + ": " + e.Err.Error()
	}
	return "parse " + e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// MultiIdentityError is returned by Link.ID when the link carries a
// multi-part identity. Use Link.IDs for multi-part access.
type MultiIdentityError struct {
	Count int
}

func (e *MultiIdentityError) Error() string {
	return fmt.Sprintf("link has a multi-part identity with %d parts; use IDs instead of ID", e.Count)
}
