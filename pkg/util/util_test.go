package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompanionCoeff(t *testing.T) {
	assert.Equal(t, 1e6, CompanionCoeff(BackwardEuler, 1e-6))
	assert.Equal(t, 2e6, CompanionCoeff(Trapezoidal, 1e-6))

	// Degenerate step sizes fall back instead of dividing by zero.
	assert.Equal(t, 1e9, CompanionCoeff(BackwardEuler, 0))
	assert.Equal(t, 1e9, CompanionCoeff(BackwardEuler, -1))
}

func TestFormatValueFactor(t *testing.T) {
	assert.Equal(t, "5.000 V", FormatValueFactor(5.0, "V"))
	assert.Equal(t, "1.500 mV", FormatValueFactor(1.5e-3, "V"))
	assert.Equal(t, "2.200 uA", FormatValueFactor(2.2e-6, "A"))
	assert.Equal(t, "100.000 ns", FormatValueFactor(100e-9, "s"))
	assert.Equal(t, "3.300 pF", FormatValueFactor(3.3e-12, "F"))
}

func TestFormatFrequency(t *testing.T) {
	assert.Contains(t, FormatFrequency(2.5e6), "MHz")
	assert.Contains(t, FormatFrequency(3.3e3), "kHz")
	assert.Contains(t, FormatFrequency(60), "Hz")
}

func TestFormatMagnitude(t *testing.T) {
	assert.Equal(t, "1.23e+04", FormatMagnitude(12300))
	assert.Contains(t, FormatMagnitude(0.5), "0.5")
}
