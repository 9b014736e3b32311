package device

import (
	"math"

	"github.com/nanospice/nanospice/pkg/matrix"
	"github.com/nanospice/nanospice/pkg/util"
)

type Capacitor struct {
	BaseDevice
	voltage0 float64 // voltage at the accepted time point
	voltage1 float64 // voltage one step back
	current0 float64
	current1 float64
}

var _ TimeDependent = (*Capacitor)(nil)

func NewCapacitor(name string, nodeNames []string, value float64) *Capacitor {
	return &Capacitor{BaseDevice: newBaseDevice(name, value, nodeNames)}
}

func (c *Capacitor) GetType() string { return "C" }

func (c *Capacitor) Stamp(mat matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := c.Nodes[0], c.Nodes[1]

	switch status.Mode {
	case ACAnalysis:
		// Y = jwC
		susceptance := 2 * math.Pi * status.Frequency * c.Value
		if n1 != 0 {
			mat.AddComplexElement(n1, n1, 0, susceptance)
			if n2 != 0 {
				mat.AddComplexElement(n1, n2, 0, -susceptance)
			}
		}
		if n2 != 0 {
			mat.AddComplexElement(n2, n2, 0, susceptance)
			if n1 != 0 {
				mat.AddComplexElement(n2, n1, 0, -susceptance)
			}
		}

	case TransientAnalysis:
		// Companion model: geq in parallel with a history current source.
		geq := util.CompanionCoeff(integrationMethod(status), status.TimeStep) * c.Value
		ieq := geq * c.voltage0
		if status.Method == TR {
			ieq += c.current0
		}

		if n1 != 0 {
			mat.AddElement(n1, n1, geq)
			if n2 != 0 {
				mat.AddElement(n1, n2, -geq)
			}
			mat.AddRHS(n1, ieq)
		}
		if n2 != 0 {
			mat.AddElement(n2, n2, geq)
			if n1 != 0 {
				mat.AddElement(n2, n1, -geq)
			}
			mat.AddRHS(n2, -ieq)
		}

	default:
		// DC: open circuit, kept barely conductive for matrix regularity.
		gmin := status.Gmin
		if gmin < 1e-12 {
			gmin = 1e-12
		}
		if n1 != 0 {
			mat.AddElement(n1, n1, gmin)
			if n2 != 0 {
				mat.AddElement(n1, n2, -gmin)
			}
		}
		if n2 != 0 {
			mat.AddElement(n2, n2, gmin)
			if n1 != 0 {
				mat.AddElement(n2, n1, -gmin)
			}
		}
	}

	return nil
}

func (c *Capacitor) SetTimeStep(dt float64) {}

func (c *Capacitor) UpdateState(voltages []float64, status *CircuitStatus) {
	v1 := 0.0
	if c.Nodes[0] != 0 {
		v1 = voltages[c.Nodes[0]]
	}
	v2 := 0.0
	if c.Nodes[1] != 0 {
		v2 = voltages[c.Nodes[1]]
	}
	vd := v1 - v2

	c.voltage1 = c.voltage0
	c.current1 = c.current0
	c.voltage0 = vd
	if status.TimeStep > 0 {
		c.current0 = c.Value * (vd - c.voltage1) / status.TimeStep
	}
}

func (c *Capacitor) CalculateLTE(voltages map[string]float64, status *CircuitStatus) float64 {
	qNew := c.Value * c.voltage0
	qOld := c.Value * c.voltage1
	return math.Abs(qNew-qOld) / (2.0 * status.TimeStep)
}
