package device

import (
	"math"

	"github.com/nanospice/nanospice/pkg/matrix"
)

// VoltageSource adds one branch unknown carrying its current.
type VoltageSource struct {
	BaseDevice
	wave      Waveform
	acMag     float64
	acPhase   float64
	branchIdx int
}

func NewDCVoltageSource(name string, nodeNames []string, value float64) *VoltageSource {
	return &VoltageSource{
		BaseDevice: newBaseDevice(name, value, nodeNames),
		wave:       Waveform{Shape: DC, DC: value},
	}
}

func NewSinVoltageSource(name string, nodeNames []string, offset, amplitude, freq, phase float64) *VoltageSource {
	return &VoltageSource{
		BaseDevice: newBaseDevice(name, offset, nodeNames),
		wave:       Waveform{Shape: SIN, DC: offset, Amplitude: amplitude, Freq: freq, Phase: phase},
	}
}

func NewPulseVoltageSource(name string, nodeNames []string, v1, v2, delay, rise, fall, width, period float64) *VoltageSource {
	return &VoltageSource{
		BaseDevice: newBaseDevice(name, v1, nodeNames),
		wave: Waveform{
			Shape: PULSE, Low: v1, High: v2,
			Delay: delay, Rise: rise, Fall: fall, Width: width, Period: period,
		},
	}
}

func NewPWLVoltageSource(name string, nodeNames []string, times, values []float64) *VoltageSource {
	return &VoltageSource{
		BaseDevice: newBaseDevice(name, values[0], nodeNames),
		wave:       Waveform{Shape: PWL, Times: times, Values: values},
	}
}

func NewACVoltageSource(name string, nodeNames []string, dcValue, acMag, acPhase float64) *VoltageSource {
	return &VoltageSource{
		BaseDevice: newBaseDevice(name, dcValue, nodeNames),
		wave:       Waveform{Shape: DC, DC: dcValue},
		acMag:      acMag,
		acPhase:    acPhase,
	}
}

func (v *VoltageSource) GetType() string { return "V" }

// Voltage returns the instantaneous source voltage at time t.
func (v *VoltageSource) Voltage(t float64) float64 {
	return v.wave.At(t)
}

func (v *VoltageSource) Stamp(mat matrix.DeviceMatrix, status *CircuitStatus) error {
	if status.Mode == ACAnalysis {
		return v.stampAC(mat)
	}

	n1, n2 := v.Nodes[0], v.Nodes[1]
	bIdx := v.branchIdx

	// Branch equation: v(n1) - v(n2) = V(t)
	if n1 != 0 {
		mat.AddElement(bIdx, n1, 1)
		mat.AddElement(n1, bIdx, 1)
	}
	if n2 != 0 {
		mat.AddElement(bIdx, n2, -1)
		mat.AddElement(n2, bIdx, -1)
	}

	mat.AddRHS(bIdx, v.Voltage(status.Time))
	return nil
}

func (v *VoltageSource) stampAC(mat matrix.DeviceMatrix) error {
	n1, n2 := v.Nodes[0], v.Nodes[1]
	bIdx := v.branchIdx

	phaseRad := v.acPhase * math.Pi / 180.0
	excitationReal := v.acMag * math.Cos(phaseRad)
	excitationImag := v.acMag * math.Sin(phaseRad)

	if n1 != 0 {
		mat.AddComplexElement(bIdx, n1, 1.0, 0.0)
		mat.AddComplexElement(n1, bIdx, 1.0, 0.0)
	}
	if n2 != 0 {
		mat.AddComplexElement(bIdx, n2, -1.0, 0.0)
		mat.AddComplexElement(n2, bIdx, -1.0, 0.0)
	}

	mat.AddComplexRHS(bIdx, excitationReal, excitationImag)
	return nil
}

func (v *VoltageSource) BranchIndex() int {
	return v.branchIdx
}

func (v *VoltageSource) SetBranchIndex(idx int) {
	v.branchIdx = idx
}

// SetValue overrides the DC level; used by DC sweeps.
func (v *VoltageSource) SetValue(value float64) {
	v.Value = value
	v.wave.DC = value
}
