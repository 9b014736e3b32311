package device

import (
	"math"

	"github.com/nanospice/nanospice/pkg/matrix"
)

type CurrentSource struct {
	BaseDevice
	wave    Waveform
	acMag   float64
	acPhase float64
}

func NewDCCurrentSource(name string, nodeNames []string, value float64) *CurrentSource {
	return &CurrentSource{
		BaseDevice: newBaseDevice(name, value, nodeNames),
		wave:       Waveform{Shape: DC, DC: value},
	}
}

func NewSinCurrentSource(name string, nodeNames []string, offset, amplitude, freq, phase float64) *CurrentSource {
	return &CurrentSource{
		BaseDevice: newBaseDevice(name, offset, nodeNames),
		wave:       Waveform{Shape: SIN, DC: offset, Amplitude: amplitude, Freq: freq, Phase: phase},
	}
}

func NewPulseCurrentSource(name string, nodeNames []string, i1, i2, delay, rise, fall, width, period float64) *CurrentSource {
	return &CurrentSource{
		BaseDevice: newBaseDevice(name, i1, nodeNames),
		wave: Waveform{
			Shape: PULSE, Low: i1, High: i2,
			Delay: delay, Rise: rise, Fall: fall, Width: width, Period: period,
		},
	}
}

func NewPWLCurrentSource(name string, nodeNames []string, times, values []float64) *CurrentSource {
	return &CurrentSource{
		BaseDevice: newBaseDevice(name, values[0], nodeNames),
		wave:       Waveform{Shape: PWL, Times: times, Values: values},
	}
}

func NewACCurrentSource(name string, nodeNames []string, dcValue, acMag, acPhase float64) *CurrentSource {
	return &CurrentSource{
		BaseDevice: newBaseDevice(name, dcValue, nodeNames),
		wave:       Waveform{Shape: DC, DC: dcValue},
		acMag:      acMag,
		acPhase:    acPhase,
	}
}

func (i *CurrentSource) GetType() string { return "I" }

// Current returns the instantaneous source current at time t.
func (i *CurrentSource) Current(t float64) float64 {
	return i.wave.At(t)
}

func (i *CurrentSource) Stamp(mat matrix.DeviceMatrix, status *CircuitStatus) error {
	if status.Mode == ACAnalysis {
		return i.stampAC(mat)
	}

	n1, n2 := i.Nodes[0], i.Nodes[1]
	current := i.Current(status.Time)

	// KCL: current flows into n1, out of n2
	if n1 != 0 {
		mat.AddRHS(n1, current)
	}
	if n2 != 0 {
		mat.AddRHS(n2, -current)
	}

	return nil
}

func (i *CurrentSource) stampAC(mat matrix.DeviceMatrix) error {
	n1, n2 := i.Nodes[0], i.Nodes[1]

	phaseRad := i.acPhase * math.Pi / 180.0
	currentReal := i.acMag * math.Cos(phaseRad)
	currentImag := i.acMag * math.Sin(phaseRad)

	if n1 != 0 {
		mat.AddComplexRHS(n1, currentReal, currentImag)
	}
	if n2 != 0 {
		mat.AddComplexRHS(n2, -currentReal, -currentImag)
	}

	return nil
}

// SetValue overrides the DC level; used by DC sweeps.
func (i *CurrentSource) SetValue(value float64) {
	i.Value = value
	i.wave.DC = value
}
