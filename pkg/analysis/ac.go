package analysis

import (
	"fmt"
	"math"

	"github.com/nanospice/nanospice/pkg/circuit"
	"github.com/nanospice/nanospice/pkg/device"
	"github.com/nanospice/nanospice/pkg/quantity"
	"github.com/nanospice/nanospice/pkg/result"
)

type ACAnalysis struct {
	BaseAnalysis
	op          *OperatingPoint
	startFreq   float64
	stopFreq    float64
	numPoints   int
	sweepType   string // "DEC", "OCT", "LIN"
	frequencies []float64
}

func NewAC(opts Options, fStart, fStop float64, nPoints int, sweepType string) *ACAnalysis {
	return &ACAnalysis{
		BaseAnalysis: *NewBaseAnalysis(opts),
		op:           NewOP(opts),
		startFreq:    fStart,
		stopFreq:     fStop,
		numPoints:    nPoints,
		sweepType:    sweepType,
	}
}

func (ac *ACAnalysis) Setup(ckt *circuit.Circuit) error {
	ac.Circuit = ckt

	// Bias point first: nonlinear devices are linearized around it.
	if err := ac.op.Setup(ckt); err != nil {
		return fmt.Errorf("operating point setup error: %v", err)
	}
	if err := ac.op.Execute(); err != nil {
		return fmt.Errorf("operating point analysis error: %v", err)
	}

	return ac.generateFrequencyPoints()
}

func (ac *ACAnalysis) Execute() error {
	if ac.Circuit == nil {
		return fmt.Errorf("circuit not set")
	}
	if ac.frequencies == nil {
		return fmt.Errorf("analysis not set up")
	}

	set, err := newOutputSet(ac.Circuit, "AC Analysis", "frequency", quantity.Frequency, true)
	if err != nil {
		return err
	}

	mat := ac.Circuit.Matrix()
	for _, freq := range ac.frequencies {
		status := &device.CircuitStatus{
			Frequency: freq,
			Mode:      device.ACAnalysis,
			Temp:      ac.opts.Temp,
		}
		ac.Circuit.Status = status

		mat.Clear()
		if err := ac.Circuit.Stamp(status); err != nil {
			return fmt.Errorf("stamping error at f=%g: %v", freq, err)
		}

		if err := mat.Solve(); err != nil {
			return fmt.Errorf("matrix solve error at f=%g: %v", freq, err)
		}

		if err := ac.appendPoint(set, freq); err != nil {
			return err
		}
	}

	ac.set = set
	return nil
}

func (ac *ACAnalysis) appendPoint(set *result.Set, freq float64) error {
	ckt := ac.Circuit
	mat := ckt.Matrix()

	if err := set.Get("frequency").AppendReal(freq); err != nil {
		return err
	}

	for node, idx := range ckt.NodeMap() {
		re, im := mat.GetComplexSolution(idx)
		name := fmt.Sprintf("V(%s)", node)
		if err := set.Get(name).AppendComplex(complex(re, im)); err != nil {
			return err
		}
	}

	for branch, idx := range ckt.BranchMap() {
		re, im := mat.GetComplexSolution(idx)
		name := fmt.Sprintf("I(%s)", branch)
		if err := set.Get(name).AppendComplex(complex(-re, -im)); err != nil {
			return err
		}
	}

	for _, dev := range ckt.Devices() {
		if dev.GetType() != "R" {
			continue
		}
		nodes := dev.GetNodes()
		var v1, v2 complex128
		if nodes[0] > 0 {
			re, im := mat.GetComplexSolution(nodes[0])
			v1 = complex(re, im)
		}
		if nodes[1] > 0 {
			re, im := mat.GetComplexSolution(nodes[1])
			v2 = complex(re, im)
		}
		current := (v1 - v2) / complex(dev.GetValue(), 0)
		name := fmt.Sprintf("I(%s)", dev.GetName())
		if err := set.Get(name).AppendComplex(current); err != nil {
			return err
		}
	}

	return nil
}

func (ac *ACAnalysis) generateFrequencyPoints() error {
	if ac.numPoints < 1 {
		return fmt.Errorf("AC sweep needs at least one point")
	}
	if ac.startFreq <= 0 || ac.stopFreq < ac.startFreq {
		return fmt.Errorf("invalid AC frequency range %g to %g", ac.startFreq, ac.stopFreq)
	}

	if ac.numPoints == 1 || ac.startFreq == ac.stopFreq {
		ac.frequencies = []float64{ac.startFreq}
		return nil
	}

	ac.frequencies = make([]float64, ac.numPoints)
	switch ac.sweepType {
	case "DEC":
		logStart := math.Log10(ac.startFreq)
		logStop := math.Log10(ac.stopFreq)
		step := (logStop - logStart) / float64(ac.numPoints-1)
		for i := range ac.frequencies {
			ac.frequencies[i] = math.Pow(10, logStart+float64(i)*step)
		}

	case "OCT":
		logStart := math.Log2(ac.startFreq)
		logStop := math.Log2(ac.stopFreq)
		step := (logStop - logStart) / float64(ac.numPoints-1)
		for i := range ac.frequencies {
			ac.frequencies[i] = math.Pow(2, logStart+float64(i)*step)
		}

	case "LIN":
		step := (ac.stopFreq - ac.startFreq) / float64(ac.numPoints-1)
		for i := range ac.frequencies {
			ac.frequencies[i] = ac.startFreq + float64(i)*step
		}

	default:
		return fmt.Errorf("unknown AC sweep type: %s", ac.sweepType)
	}

	return nil
}
