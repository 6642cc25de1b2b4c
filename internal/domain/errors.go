package domain

import (
	"errors"
	"strings"
)

var (
	// ErrValidation signals that a required submission field is absent.
	ErrValidation = errors.New("validation failed")
	// ErrAsset signals that a font or image needed by the agreement could not be read.
	ErrAsset = errors.New("asset unavailable")
	// ErrDelivery signals that the mail transport did not accept the agreement.
	ErrDelivery = errors.New("delivery failed")
	// ErrUnsupportedText signals text the agreement fonts cannot print.
	ErrUnsupportedText = errors.New("unsupported characters")
)

// ValidationError lists the submission fields that were missing.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// UnsupportedTextError lists the submission fields holding characters
// that cannot be printed in the agreement.
type UnsupportedTextError struct {
	Fields []string
}

func (e *UnsupportedTextError) Error() string {
	return "unsupported characters in: " + strings.Join(e.Fields, ", ")
}

func (e *UnsupportedTextError) Unwrap() error { return ErrUnsupportedText }
