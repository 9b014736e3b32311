package analysis

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nanospice/nanospice/pkg/circuit"
	"github.com/nanospice/nanospice/pkg/device"
	"github.com/nanospice/nanospice/pkg/quantity"
	"github.com/nanospice/nanospice/pkg/result"
)

type Transient struct {
	BaseAnalysis
	op        *OperatingPoint
	time      float64
	startTime float64
	stopTime  float64
	timeStep  float64
	maxStep   float64
	minStep   float64
	useUIC    bool

	// Integration order (1=BE, 2=TR) and truncation error control.
	order     int
	trtol     float64 // SPICE3F5 default: 7
	firstTime bool
}

func NewTransient(opts Options, tStart, tStop, tStep, tMax float64, uic bool) *Transient {
	if tMax == 0 {
		tMax = tStep
	}

	return &Transient{
		BaseAnalysis: *NewBaseAnalysis(opts),
		op:           NewOP(opts),
		startTime:    tStart,
		stopTime:     tStop,
		timeStep:     tStep,
		maxStep:      tMax,
		minStep:      tStep / 50.0,
		useUIC:       uic,
		order:        1,
		trtol:        7.0,
		firstTime:    true,
	}
}

func (tr *Transient) Setup(ckt *circuit.Circuit) error {
	tr.Circuit = ckt

	if !tr.useUIC {
		if err := tr.op.Setup(ckt); err != nil {
			return fmt.Errorf("operating point setup error: %v", err)
		}
		if err := tr.op.Execute(); err != nil {
			return fmt.Errorf("operating point analysis error: %v", err)
		}
		// Seed device history with the bias solution.
		ckt.Update(&device.CircuitStatus{
			TimeStep: tr.timeStep,
			Mode:     device.TransientAnalysis,
			Temp:     tr.opts.Temp,
		})
	}

	ckt.SetTimeStep(tr.timeStep)
	return nil
}

func (tr *Transient) Execute() error {
	if tr.Circuit == nil {
		return fmt.Errorf("circuit not set")
	}

	set, err := newOutputSet(tr.Circuit, "Transient Analysis", "time", quantity.Time, false)
	if err != nil {
		return err
	}

	accepted := 0
	for tr.time < tr.stopTime {
		if tr.time+tr.timeStep > tr.stopTime {
			tr.timeStep = tr.stopTime - tr.time
		}

		// step may shrink timeStep; the accepted point is time+timeStep as
		// left by the retry loop.
		if err := tr.step(); err != nil {
			return err
		}

		status := &device.CircuitStatus{
			Time:     tr.time,
			TimeStep: tr.timeStep,
			Mode:     device.TransientAnalysis,
			Method:   tr.order,
			Temp:     tr.opts.Temp,
		}
		tr.Circuit.Status = status
		tr.Circuit.Update(status)
		tr.time += tr.timeStep
		accepted++

		if tr.time >= tr.startTime {
			if err := tr.appendPoint(set); err != nil {
				return err
			}
		}

		// Grow the step back after a successful point.
		if tr.time < tr.stopTime && tr.timeStep < tr.maxStep {
			tr.timeStep *= 1.2
			if tr.timeStep > tr.maxStep {
				tr.timeStep = tr.maxStep
			}
			tr.order = device.TR
		}
	}

	logrus.Debugf("transient finished: %d accepted time points", accepted)
	tr.set = set
	return nil
}

// step solves one time point, halving the step on convergence failure and
// falling back from trapezoidal to backward Euler when the truncation error
// estimate is too large.
func (tr *Transient) step() error {
	for {
		tr.Circuit.SetTimeStep(tr.timeStep)

		err := tr.doNRiter(0, tr.opts.MaxIter)
		if err != nil {
			if tr.timeStep > tr.minStep {
				tr.timeStep /= 2
				logrus.Debugf("t=%g: convergence failed, halving step to %g", tr.time, tr.timeStep)
				continue
			}
			return fmt.Errorf("failed to converge at t=%g: %v", tr.time, err)
		}

		if tr.firstTime {
			tr.firstTime = false
			tr.order = device.TR
			if tr.truncError() > tr.trtol {
				tr.order = device.BE
			}
			return nil
		}

		if tr.order == device.TR && tr.truncError() >= 1.0 {
			tr.order = device.BE
			if tr.timeStep > tr.minStep {
				oldStep := tr.timeStep
				tr.timeStep /= 8
				if tr.timeStep < tr.minStep {
					tr.timeStep = oldStep / 2
				}
				continue
			}
		}
		return nil
	}
}

func (tr *Transient) doNRiter(gmin float64, maxIter int) error {
	ckt := tr.Circuit
	mat := ckt.Matrix()
	var oldSolution []float64

	status := &device.CircuitStatus{
		Time:     tr.time,
		TimeStep: tr.timeStep,
		Gmin:     gmin,
		Mode:     device.TransientAnalysis,
		Method:   tr.order,
		Temp:     tr.opts.Temp,
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
		if iter > 0 && tr.converged(oldSolution, solution) {
			return nil
		}

		if oldSolution == nil {
			oldSolution = make([]float64, len(solution))
		}
		copy(oldSolution, solution)
	}

	return fmt.Errorf("failed to converge in %d iterations", maxIter)
}

func (tr *Transient) truncError() float64 {
	status := &device.CircuitStatus{
		Time:     tr.time,
		TimeStep: tr.timeStep,
		Mode:     device.TransientAnalysis,
		Method:   tr.order,
		Temp:     tr.opts.Temp,
	}

	maxLTE := 0.0
	solution := tr.Circuit.Solution()
	for _, dev := range tr.Circuit.Devices() {
		if td, ok := dev.(device.TimeDependent); ok {
			if lte := td.CalculateLTE(solution, status); lte > maxLTE {
				maxLTE = lte
			}
		}
	}
	return maxLTE
}

func (tr *Transient) appendPoint(set *result.Set) error {
	if err := set.Get("time").AppendReal(tr.time); err != nil {
		return err
	}
	return appendSolution(set, tr.Circuit)
}
