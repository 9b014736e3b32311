package analysis

import (
	"fmt"

	"github.com/nanospice/nanospice/pkg/circuit"
	"github.com/nanospice/nanospice/pkg/device"
	"github.com/nanospice/nanospice/pkg/quantity"
	"github.com/nanospice/nanospice/pkg/result"
)

// sweepSource is the part of a source the sweep drives.
type sweepSource interface {
	GetName() string
	GetType() string
	GetValue() float64
	SetValue(value float64)
}

type sweepVar struct {
	source   sweepSource
	name     string
	start    float64
	stop     float64
	step     float64
	values   []float64
	original float64
}

type DCSweep struct {
	BaseAnalysis
	sweeps []sweepVar
}

// NewDCSweep sweeps one source, or two nested when source2 is non-empty. The
// second source is the outer loop, matching the SPICE .dc card.
func NewDCSweep(opts Options, source1 string, start1, stop1, step1 float64,
	source2 string, start2, stop2, step2 float64) (*DCSweep, error) {

	dc := &DCSweep{BaseAnalysis: *NewBaseAnalysis(opts)}

	if source1 == "" {
		return nil, fmt.Errorf("dc sweep needs a source")
	}
	dc.sweeps = append(dc.sweeps, sweepVar{name: source1, start: start1, stop: stop1, step: step1})
	if source2 != "" {
		dc.sweeps = append(dc.sweeps, sweepVar{name: source2, start: start2, stop: stop2, step: step2})
	}

	for i := range dc.sweeps {
		sw := &dc.sweeps[i]
		if sw.step == 0 || (sw.stop-sw.start)*sw.step < 0 {
			return nil, fmt.Errorf("sweep %s: step %g cannot reach %g from %g",
				sw.name, sw.step, sw.stop, sw.start)
		}
		if sw.step > 0 {
			for v := sw.start; v <= sw.stop+sw.step/2; v += sw.step {
				sw.values = append(sw.values, v)
			}
		} else {
			for v := sw.start; v >= sw.stop+sw.step/2; v += sw.step {
				sw.values = append(sw.values, v)
			}
		}
	}

	return dc, nil
}

func (dc *DCSweep) Setup(ckt *circuit.Circuit) error {
	dc.Circuit = ckt

	for i := range dc.sweeps {
		sw := &dc.sweeps[i]
		dev := ckt.FindDevice(sw.name)
		if dev == nil {
			return fmt.Errorf("sweep source %s not found", sw.name)
		}
		src, ok := dev.(sweepSource)
		if !ok || (dev.GetType() != "V" && dev.GetType() != "I") {
			return fmt.Errorf("device %s is not a sweepable source", sw.name)
		}
		sw.source = src
		sw.original = src.GetValue()
	}

	return nil
}

func (dc *DCSweep) Execute() error {
	if dc.Circuit == nil {
		return fmt.Errorf("circuit not set")
	}

	set, err := dc.newSweepSet()
	if err != nil {
		return err
	}

	defer func() {
		for i := range dc.sweeps {
			dc.sweeps[i].source.SetValue(dc.sweeps[i].original)
		}
	}()

	inner := &dc.sweeps[0]
	if len(dc.sweeps) == 1 {
		for _, val := range inner.values {
			if err := dc.solveAt(set, val, 0); err != nil {
				return err
			}
		}
		dc.set = set
		return nil
	}

	outer := &dc.sweeps[1]
	for _, outerVal := range outer.values {
		outer.source.SetValue(outerVal)
		for _, innerVal := range inner.values {
			if err := dc.solveAt(set, innerVal, outerVal); err != nil {
				return err
			}
		}
	}
	dc.set = set
	return nil
}

func (dc *DCSweep) solveAt(set *result.Set, innerVal, outerVal float64) error {
	inner := &dc.sweeps[0]
	inner.source.SetValue(innerVal)

	if err := dc.doNRiter(0, dc.opts.MaxIter); err != nil {
		if len(dc.sweeps) > 1 {
			return fmt.Errorf("convergence error at %s=%g, %s=%g: %v",
				inner.name, innerVal, dc.sweeps[1].name, outerVal, err)
		}
		return fmt.Errorf("convergence error at %s=%g: %v", inner.name, innerVal, err)
	}

	if err := set.Get(sweepScaleName(inner)).AppendReal(innerVal); err != nil {
		return err
	}
	if len(dc.sweeps) > 1 {
		if err := set.Get(sweepScaleName(&dc.sweeps[1])).AppendReal(outerVal); err != nil {
			return err
		}
	}
	return appendSolution(set, dc.Circuit)
}

func (dc *DCSweep) doNRiter(gmin float64, maxIter int) error {
	ckt := dc.Circuit
	mat := ckt.Matrix()
	var oldSolution []float64

	status := &device.CircuitStatus{
		Mode: device.OperatingPointAnalysis,
		Temp: dc.opts.Temp,
		Gmin: gmin,
	}

	for iter := 0; iter < maxIter; iter++ {
		mat.Clear()
		if iter > 0 {
			if err := ckt.UpdateNonlinearVoltages(oldSolution); err != nil {
				return err
			}
		}

		if err := ckt.Stamp(status); err != nil {
			return fmt.Errorf("stamping error: %v", err)
		}
		mat.LoadGmin(gmin)

		if err := mat.Solve(); err != nil {
			return fmt.Errorf("matrix solve error: %v", err)
		}

		solution := mat.Solution()
		if iter > 0 && dc.converged(oldSolution, solution) {
			return nil
		}

		if oldSolution == nil {
			oldSolution = make([]float64, len(solution))
		}
		copy(oldSolution, solution)
	}

	return fmt.Errorf("failed to converge in %d iterations", maxIter)
}

func (dc *DCSweep) newSweepSet() (*result.Set, error) {
	inner := &dc.sweeps[0]
	set, err := newOutputSet(dc.Circuit, "DC transfer characteristic",
		sweepScaleName(inner), sweepKind(inner), false)
	if err != nil {
		return nil, err
	}

	if len(dc.sweeps) > 1 {
		outer := &dc.sweeps[1]
		if err := set.Add(result.NewRealVector(sweepScaleName(outer), sweepKind(outer))); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func sweepScaleName(sw *sweepVar) string {
	if sw.source.GetType() == "I" {
		return fmt.Sprintf("i-sweep(%s)", sw.name)
	}
	return fmt.Sprintf("v-sweep(%s)", sw.name)
}

func sweepKind(sw *sweepVar) quantity.Kind {
	if sw.source.GetType() == "I" {
		return quantity.Current
	}
	return quantity.Voltage
}
