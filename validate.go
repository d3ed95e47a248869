package lino

import (
	"errors"
	"unicode/utf8"
)

var (
	// ErrInvalidUTF8 reports input that is not valid UTF-8 text.
	ErrInvalidUTF8 = errors.New("invalid utf-8 input")
	// ErrBinaryInput reports input that appears to be binary.
	ErrBinaryInput = errors.New("binary input detected")
)

const (
	minBinarySample = 64
	maxControlPct   = 2
)

// ValidateText returns an error if src is not valid UTF-8 or appears to be
// binary rather than notation text. Parse runs this gate before scanning.
func ValidateText(src string) error {
	if !utf8.ValidString(src) {
		return ErrInvalidUTF8
	}
	var control int
	for i := 0; i < len(src); i++ {
		b := src[i]
		if b == 0x00 {
			return ErrBinaryInput
		}
		if isControlByte(b) {
			control++
		}
	}
	if len(src) >= minBinarySample && control*100 >= len(src)*maxControlPct {
		return ErrBinaryInput
	}
	return nil
}

func isControlByte(b byte) bool {
	if b == '\n' || b == '\r' || b == '\t' {
		return false
	}
	return b < 0x20 || b == 0x7F
}
