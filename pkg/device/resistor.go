package device

import (
	"fmt"

	"github.com/nanospice/nanospice/pkg/matrix"
)

type Resistor struct {
	BaseDevice
	Tc1  float64
	Tc2  float64
	Tnom float64
}

func NewResistor(name string, nodeNames []string, value float64) *Resistor {
	return &Resistor{
		BaseDevice: newBaseDevice(name, value, nodeNames),
		Tc1:        0.0,
		Tc2:        0.0,
		Tnom:       300.15,
	}
}

func (r *Resistor) GetType() string { return "R" }

func (r *Resistor) Stamp(mat matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(r.Nodes) != 2 {
		return fmt.Errorf("resistor %s: requires exactly 2 nodes", r.Name)
	}

	n1, n2 := r.Nodes[0], r.Nodes[1]
	g := 1.0 / r.temperatureAdjustedValue(status.Temp)

	if status.Mode == ACAnalysis {
		if n1 != 0 {
			mat.AddComplexElement(n1, n1, g, 0)
			if n2 != 0 {
				mat.AddComplexElement(n1, n2, -g, 0)
			}
		}
		if n2 != 0 {
			if n1 != 0 {
				mat.AddComplexElement(n2, n1, -g, 0)
			}
			mat.AddComplexElement(n2, n2, g, 0)
		}
		return nil
	}

	if n1 != 0 {
		mat.AddElement(n1, n1, g)
		if n2 != 0 {
			mat.AddElement(n1, n2, -g)
		}
	}
	if n2 != 0 {
		if n1 != 0 {
			mat.AddElement(n2, n1, -g)
		}
		mat.AddElement(n2, n2, g)
	}

	return nil
}

// First and second order temperature coefficients relative to Tnom.
func (r *Resistor) temperatureAdjustedValue(temp float64) float64 {
	if temp <= 0 {
		temp = r.Tnom
	}
	dt := temp - r.Tnom
	return r.Value * (1.0 + r.Tc1*dt + r.Tc2*dt*dt)
}
