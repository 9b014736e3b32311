package device

import (
	"math"

	"github.com/nanospice/nanospice/pkg/matrix"
	"github.com/nanospice/nanospice/pkg/util"
)

// Inductor uses a branch-current formulation: the inductor current is an
// extra MNA unknown, like a voltage source branch.
type Inductor struct {
	BaseDevice
	current0  float64
	current1  float64
	voltage0  float64
	voltage1  float64
	branchIdx int
}

var _ TimeDependent = (*Inductor)(nil)

func NewInductor(name string, nodeNames []string, value float64) *Inductor {
	return &Inductor{BaseDevice: newBaseDevice(name, value, nodeNames)}
}

func (l *Inductor) GetType() string { return "L" }

func (l *Inductor) Stamp(mat matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := l.Nodes[0], l.Nodes[1]

	if status.Mode == ACAnalysis {
		// Y = 1/(jwL), stamped as a nodal admittance
		omega := 2 * math.Pi * status.Frequency
		reactance := omega * l.Value
		if reactance == 0 {
			reactance = 1e-12
		}
		b := -1.0 / reactance
		if n1 != 0 {
			mat.AddComplexElement(n1, n1, 0, b)
			if n2 != 0 {
				mat.AddComplexElement(n1, n2, 0, -b)
			}
		}
		if n2 != 0 {
			mat.AddComplexElement(n2, n2, 0, b)
			if n1 != 0 {
				mat.AddComplexElement(n2, n1, 0, -b)
			}
		}
		return nil
	}

	bIdx := l.branchIdx
	if n1 != 0 {
		mat.AddElement(n1, bIdx, 1)
		mat.AddElement(bIdx, n1, 1)
	}
	if n2 != 0 {
		mat.AddElement(n2, bIdx, -1)
		mat.AddElement(bIdx, n2, -1)
	}

	// Companion: v = coeff*L*(i - i_prev) [- v_prev for trapezoidal]
	req := util.CompanionCoeff(integrationMethod(status), status.TimeStep) * l.Value
	mat.AddElement(bIdx, bIdx, -req)
	rhs := -req * l.current0
	if status.Method == TR {
		rhs -= l.voltage0
	}
	mat.AddRHS(bIdx, rhs)

	return nil
}

func (l *Inductor) SetTimeStep(dt float64) {}

func (l *Inductor) UpdateState(voltages []float64, status *CircuitStatus) {
	v1 := 0.0
	if l.Nodes[0] != 0 {
		v1 = voltages[l.Nodes[0]]
	}
	v2 := 0.0
	if l.Nodes[1] != 0 {
		v2 = voltages[l.Nodes[1]]
	}

	l.voltage1 = l.voltage0
	l.voltage0 = v1 - v2
	l.current1 = l.current0
	if l.branchIdx > 0 && l.branchIdx < len(voltages) {
		l.current0 = voltages[l.branchIdx]
	}
}

func (l *Inductor) CalculateLTE(voltages map[string]float64, status *CircuitStatus) float64 {
	currentLTE := math.Abs(l.current0-l.current1) / (2.0 * status.TimeStep)
	voltageLTE := math.Abs(l.voltage0-l.voltage1) / (2.0 * status.TimeStep)
	return math.Max(currentLTE, voltageLTE)
}

func (l *Inductor) Current() float64 {
	return l.current0
}

func (l *Inductor) BranchIndex() int {
	return l.branchIdx
}

func (l *Inductor) SetBranchIndex(idx int) {
	l.branchIdx = idx
}
