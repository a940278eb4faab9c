package sequence

import "fmt"

// SequenceError is the base error type for sequence operations.
type SequenceError interface {
	error
	IsSequenceError()
}

// EmptySequenceError is returned when a sequence is empty.
type EmptySequenceError struct{}

func (e *EmptySequenceError) Error() string {
	return "sequence must have at least one base"
}

func (e *EmptySequenceError) IsSequenceError() {}

// InvalidBaseError is returned when an invalid base is encountered.
type InvalidBaseError struct {
	Position int
	Found    byte
}

func (e *InvalidBaseError) Error() string {
	return fmt.Sprintf("invalid base '%c' at position %d", e.Found, e.Position)
}

func (e *InvalidBaseError) IsSequenceError() {}

// InvalidLengthError is returned when a parallel buffer (quality) does not
// match the sequence length.
type InvalidLengthError struct {
	Expected int
	Actual   int
}

func (e *InvalidLengthError) Error() string {
	return fmt.Sprintf("expected length %d, got %d", e.Expected, e.Actual)
}

func (e *InvalidLengthError) IsSequenceError() {}

// WindowError is returned for an empty or out of range alignment window.
type WindowError struct {
	Offset int
	End    int
	Length int
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("invalid alignment window [%d, %d] for sequence of length %d",
		e.Offset, e.End, e.Length)
}

func (e *WindowError) IsSequenceError() {}

// Validate checks that every byte is an uppercase IUPAC nucleotide code or
// the placeholder.
func Validate(bases []byte) error {
	for i, b := range bases {
		if !IsValidBase(b) {
			return &InvalidBaseError{Position: i, Found: b}
		}
	}
	return nil
}

// IsValidBase checks if a character is an uppercase IUPAC nucleotide code.
func IsValidBase(c byte) bool {
	switch c {
	case 'A', 'C', 'G', 'T', 'U',
		'W', 'S', 'M', 'K', 'R', 'Y',
		'B', 'D', 'H', 'V', 'N', 'X',
		Placeholder:
		return true
	}
	return false
}

// IsAmbiguous reports whether c stands for more than one base.
func IsAmbiguous(c byte) bool {
	switch c {
	case 'W', 'S', 'M', 'K', 'R', 'Y', 'B', 'D', 'H', 'V', 'N', 'X':
		return true
	}
	return false
}
