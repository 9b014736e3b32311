package analysis

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/nanospice/nanospice/pkg/circuit"
	"github.com/nanospice/nanospice/pkg/device"
)

type OperatingPoint struct {
	BaseAnalysis
}

func NewOP(opts Options) *OperatingPoint {
	return &OperatingPoint{BaseAnalysis: *NewBaseAnalysis(opts)}
}

func (op *OperatingPoint) Setup(ckt *circuit.Circuit) error {
	op.Circuit = ckt
	return nil
}

func (op *OperatingPoint) Execute() error {
	if op.Circuit == nil {
		return fmt.Errorf("circuit not set")
	}

	if err := op.solve(); err != nil {
		return err
	}

	set, err := newOutputSet(op.Circuit, "Operating Point", "", 0, false)
	if err != nil {
		return err
	}
	if err := appendSolution(set, op.Circuit); err != nil {
		return err
	}
	op.set = set

	return nil
}

// solve finds the DC operating point, falling back to gmin stepping when the
// plain Newton-Raphson loop fails to converge.
func (op *OperatingPoint) solve() error {
	err := op.doNRiter(0, op.opts.MaxIter)
	if err == nil {
		return nil
	}

	logrus.Debugf("operating point did not converge directly, starting gmin stepping: %v", err)

	numGminSteps := 10
	startGmin := float64(op.Circuit.Matrix().Size) * 0.001
	gmin := startGmin * math.Pow(10, float64(numGminSteps))

	for i := 0; i <= numGminSteps; i++ {
		if err := op.doNRiter(gmin, op.opts.MaxIter); err != nil {
			return fmt.Errorf("gmin stepping failed at %g: %v", gmin, err)
		}
		gmin /= 10
	}

	if err := op.doNRiter(0, op.opts.MaxIter); err != nil {
		return fmt.Errorf("final solution failed with zero gmin: %v", err)
	}
	return nil
}

func (op *OperatingPoint) doNRiter(gmin float64, maxIter int) error {
	ckt := op.Circuit
	mat := ckt.Matrix()
	var oldSolution []float64

	status := &device.CircuitStatus{
		Time: 0,
		Mode: device.OperatingPointAnalysis,
		Temp: op.opts.Temp,
		Gmin: gmin,
	}

	for iter := 0; iter < maxIter; iter++ {
		mat.Clear()

		// The first iteration has no previous solution to linearize around.
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
		if iter > 0 && op.converged(oldSolution, solution) {
			return nil
		}

		if oldSolution == nil {
			oldSolution = make([]float64, len(solution))
		}
		copy(oldSolution, solution)
	}

	return fmt.Errorf("failed to converge in %d iterations", maxIter)
}
