// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package radicado

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{in: "  11001310300120190012300 ", want: "11001310300120190012300"},
		{in: "11001-31-03-001-2019-00123-00", want: "11001310300120190012300"},
		{in: "11001 3103 001 2019 00123 00", want: "11001310300120190012300"},
		{in: "05.001.31.03", want: "05.001.31.03"},
		{in: "110013103_001", want: "110013103_001"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestParse(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		name    string
		raw     string
		want    Radicado
		wantErr error
	}{
		{name: "standard 23 digits", raw: "11001310300120190012300", want: "11001310300120190012300"},
		{name: "separators removed", raw: "11001-3103-001-2019-00123-00", want: "11001310300120190012300"},
		{name: "minimum length", raw: "123456789012345", want: "123456789012345"},
		{name: "empty", raw: "   ", wantErr: ErrEmpty},
		{name: "letters", raw: "11001ABC0120190012300", wantErr: ErrNotNumeric},
		{name: "scientific notation", raw: "1.10013103E+22", wantErr: ErrNotNumeric},
		{name: "decimal cell", raw: "11001310300.1201", wantErr: ErrNotNumeric},
		{name: "dotted groups", raw: "11001.3103.001.2019.00123", wantErr: ErrNotNumeric},
		{name: "underscore", raw: "11001310300_120190012300", wantErr: ErrNotNumeric},
		{name: "too short", raw: "12345678901234", wantErr: ErrTooShort},
		{name: "too long", raw: "1234567890123456789012345678901", wantErr: ErrTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw, rules)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateScientificNotationHint(t *testing.T) {
	err := Validate("11001E22", DefaultRules())
	require.ErrorIs(t, err, ErrNotNumeric)
	assert.Contains(t, err.Error(), "scientific notation")
}

func TestValidateUnboundedRules(t *testing.T) {
	assert.NoError(t, Validate("1", Rules{}))
}
