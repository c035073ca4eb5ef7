// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package radicado normalises and validates Colombian judicial case numbers.
package radicado

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Radicado is the official docket number of a judicial case. Valid values
// contain digits only.
type Radicado string

func (r Radicado) String() string { return string(r) }

// Default length bounds for a radicado. The standard 23-digit number sits
// comfortably inside; older courts issue shorter ones.
const (
	DefaultMinLength = 15
	DefaultMaxLength = 30
)

var (
	ErrEmpty      = errors.New("radicado is empty")
	ErrNotNumeric = errors.New("radicado must contain digits only")
	ErrTooShort   = errors.New("radicado is too short")
	ErrTooLong    = errors.New("radicado is too long")
)

// Rules bounds the accepted length of a radicado.
type Rules struct {
	MinLength int
	MaxLength int
}

// DefaultRules returns the standard 15..30 digit bounds.
func DefaultRules() Rules {
	return Rules{MinLength: DefaultMinLength, MaxLength: DefaultMaxLength}
}

// Normalize trims raw and removes the visual separators people type or paste
// into spreadsheets: hyphens and whitespace. Dots are kept so a decimal cell
// fails validation instead of collapsing into a different number.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
}

// Validate checks that r is numeric and within the length bounds of rules.
func Validate(r Radicado, rules Rules) error {
	s := string(r)
	if s == "" {
		return ErrEmpty
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			if strings.ContainsAny(s, "eE+") {
				return fmt.Errorf("%w: %q looks like scientific notation, store the column as text", ErrNotNumeric, s)
			}
			return fmt.Errorf("%w: %q", ErrNotNumeric, s)
		}
	}
	if rules.MinLength > 0 && len(s) < rules.MinLength {
		return fmt.Errorf("%w: %d digits, minimum %d", ErrTooShort, len(s), rules.MinLength)
	}
	if rules.MaxLength > 0 && len(s) > rules.MaxLength {
		return fmt.Errorf("%w: %d digits, maximum %d", ErrTooLong, len(s), rules.MaxLength)
	}
	return nil
}

// Parse normalises raw and validates the result.
func Parse(raw string, rules Rules) (Radicado, error) {
	r := Radicado(Normalize(raw))
	if err := Validate(r, rules); err != nil {
		return "", err
	}
	return r, nil
}
