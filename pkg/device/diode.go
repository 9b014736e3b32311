package device

import (
	"fmt"
	"math"

	"github.com/nanospice/nanospice/internal/consts"
	"github.com/nanospice/nanospice/pkg/matrix"
)

// Diode implements the Shockley junction model with NR linearization around
// the last computed junction voltage.
type Diode struct {
	BaseDevice
	// Model parameters
	Is   float64 // saturation current
	N    float64 // emission coefficient
	Cj0  float64 // zero-bias junction capacitance
	M    float64 // grading coefficient
	Vj   float64 // junction potential
	Bv   float64 // breakdown voltage
	Eg   float64 // energy gap (eV)
	Xti  float64 // saturation current temperature exponent
	Tt   float64 // transit time
	Gmin float64

	// Linearization point
	vd float64
	id float64
	gd float64

	// Transient history
	vdOld      float64
	idOld      float64
	capCurrent float64
}

var (
	_ NonLinear     = (*Diode)(nil)
	_ TimeDependent = (*Diode)(nil)
)

func NewDiode(name string, nodeNames []string) (*Diode, error) {
	if len(nodeNames) != 2 {
		return nil, fmt.Errorf("diode %s: requires exactly 2 nodes", name)
	}

	d := &Diode{BaseDevice: newBaseDevice(name, 0, nodeNames)}
	d.setDefaultParameters()
	return d, nil
}

func (d *Diode) GetType() string { return "D" }

func (d *Diode) setDefaultParameters() {
	d.Is = 1e-14
	d.N = 1.0
	d.Cj0 = 0.0
	d.M = 0.5
	d.Vj = 1.0
	d.Bv = 100.0
	d.Eg = 1.11 // silicon
	d.Xti = 3.0
	d.Tt = 0.0
	d.Gmin = 1e-12
}

// SetModelParameters applies a .model card over the defaults.
func (d *Diode) SetModelParameters(params map[string]float64) {
	assign := map[string]*float64{
		"is":  &d.Is,
		"n":   &d.N,
		"cj0": &d.Cj0,
		"m":   &d.M,
		"vj":  &d.Vj,
		"bv":  &d.Bv,
		"eg":  &d.Eg,
		"xti": &d.Xti,
		"tt":  &d.Tt,
	}
	for key, dst := range assign {
		if v, ok := params[key]; ok {
			*dst = v
		}
	}
}

func thermalVoltage(temp float64) float64 {
	if temp <= 0 {
		temp = 300.15
	}
	return consts.BOLTZMANN * temp / consts.CHARGE
}

func (d *Diode) temperatureAdjustedIs(temp float64) float64 {
	const refTemp = 300.15
	vt := thermalVoltage(temp)

	// is(T2) = is(T1) * (T2/T1)^(XTI/N) * exp(-(Eg/vt)*(T2/T1 - 1)/2)
	ratio := temp / refTemp
	egfact := -d.Eg / (2 * vt) * (ratio - 1.0)
	return d.Is * math.Pow(ratio, d.Xti/d.N) * math.Exp(egfact)
}

func (d *Diode) current(vd, temp float64) float64 {
	nvt := d.N * thermalVoltage(temp)
	is := d.temperatureAdjustedIs(temp)

	switch {
	case vd > -3.0*nvt:
		arg := vd / nvt
		if arg > 40.0 { // exp overflow guard
			arg = 40.0
		}
		return is * (math.Exp(arg) - 1.0)

	case d.Bv > 0 && vd < -d.Bv:
		// Reverse breakdown: current grows exponentially past -Bv,
		// continuous with the saturation region at vd = -Bv.
		arg := -(d.Bv + vd) / nvt
		if arg > 40.0 {
			arg = 40.0
		}
		return -is * math.Exp(arg)
	}

	return -is
}

func (d *Diode) conductance(vd, id, temp float64) float64 {
	nvt := d.N * thermalVoltage(temp)

	switch {
	case vd > -3.0*nvt:
		return (math.Abs(id)+d.temperatureAdjustedIs(temp))/nvt + d.Gmin
	case d.Bv > 0 && vd < -d.Bv:
		return math.Abs(id)/nvt + d.Gmin
	}
	return d.Gmin
}

func (d *Diode) junctionCap(vd float64) float64 {
	if d.Cj0 == 0 {
		return 0
	}

	if vd < 0 {
		arg := 1 - vd/d.Vj
		if arg < 0.1 {
			arg = 0.1
		}
		return d.Cj0 / math.Pow(arg, d.M)
	}
	return d.Cj0 * (1 + d.M*vd/d.Vj)
}

func (d *Diode) Stamp(mat matrix.DeviceMatrix, status *CircuitStatus) error {
	if status.Mode == ACAnalysis {
		return d.stampAC(mat, status)
	}

	n1, n2 := d.Nodes[0], d.Nodes[1]

	d.id = d.current(d.vd, status.Temp)
	d.gd = d.conductance(d.vd, d.id, status.Temp)

	// Transit-time charge storage contributes a capacitive current.
	if status.Mode == TransientAnalysis && status.TimeStep > 0 && d.Tt > 0 {
		didt := (d.id - d.idOld) / status.TimeStep
		cd := d.Tt * didt
		d.capCurrent = cd * (d.vd - d.vdOld) / status.TimeStep
		d.id += d.capCurrent
	}

	ieq := d.id - d.gd*d.vd
	if n1 != 0 {
		mat.AddElement(n1, n1, d.gd)
		if n2 != 0 {
			mat.AddElement(n1, n2, -d.gd)
		}
		mat.AddRHS(n1, -ieq)
	}
	if n2 != 0 {
		if n1 != 0 {
			mat.AddElement(n2, n1, -d.gd)
		}
		mat.AddElement(n2, n2, d.gd)
		mat.AddRHS(n2, ieq)
	}

	return nil
}

// AC small-signal: admittance G + jwC at the operating point.
func (d *Diode) stampAC(mat matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := d.Nodes[0], d.Nodes[1]
	omega := 2 * math.Pi * status.Frequency

	g := d.gd
	b := omega * d.junctionCap(d.vd)

	if n1 != 0 {
		mat.AddComplexElement(n1, n1, g, b)
		if n2 != 0 {
			mat.AddComplexElement(n1, n2, -g, -b)
		}
	}
	if n2 != 0 {
		if n1 != 0 {
			mat.AddComplexElement(n2, n1, -g, -b)
		}
		mat.AddComplexElement(n2, n2, g, b)
	}

	return nil
}

func (d *Diode) SetTimeStep(dt float64) {}

func (d *Diode) UpdateState(voltages []float64, status *CircuitStatus) {
	d.vdOld = d.vd
	d.idOld = d.id - d.capCurrent // DC current only
	d.capCurrent = 0.0
}

func (d *Diode) CalculateLTE(voltages map[string]float64, status *CircuitStatus) float64 {
	return math.Abs(d.vd - d.vdOld)
}

// UpdateVoltages moves the linearization point to the latest NR solution.
func (d *Diode) UpdateVoltages(voltages []float64) error {
	n1, n2 := d.Nodes[0], d.Nodes[1]

	var v1, v2 float64
	if n1 != 0 {
		v1 = voltages[n1]
	}
	if n2 != 0 {
		v2 = voltages[n2]
	}

	d.vd = v1 - v2
	return nil
}
