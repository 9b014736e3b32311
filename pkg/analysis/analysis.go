// Package analysis runs the supported simulation modes over an assembled
// circuit. Every analysis produces a result.Set whose vectors are tagged with
// the physical quantity they carry.
package analysis

import (
	"fmt"
	"math"

	"github.com/nanospice/nanospice/pkg/circuit"
	"github.com/nanospice/nanospice/pkg/quantity"
	"github.com/nanospice/nanospice/pkg/result"
)

type Analysis interface {
	Setup(ckt *circuit.Circuit) error
	Execute() error
	Results() *result.Set
}

// Options are the simulator knobs shared by all analyses. Zero values are
// replaced by SPICE defaults, so a partially filled options file works.
type Options struct {
	AbsTol  float64 `yaml:"abstol"`
	RelTol  float64 `yaml:"reltol"`
	MaxIter int     `yaml:"maxiter"`
	Gmin    float64 `yaml:"gmin"`
	Temp    float64 `yaml:"temp"`
}

func DefaultOptions() Options {
	return Options{
		AbsTol:  1e-12,
		RelTol:  1e-6,
		MaxIter: 100,
		Gmin:    1e-12,
		Temp:    300.15,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.AbsTol <= 0 {
		o.AbsTol = def.AbsTol
	}
	if o.RelTol <= 0 {
		o.RelTol = def.RelTol
	}
	if o.MaxIter <= 0 {
		o.MaxIter = def.MaxIter
	}
	if o.Gmin <= 0 {
		o.Gmin = def.Gmin
	}
	if o.Temp <= 0 {
		o.Temp = def.Temp
	}
	return o
}

type BaseAnalysis struct {
	Circuit *circuit.Circuit
	opts    Options
	set     *result.Set
}

func NewBaseAnalysis(opts Options) *BaseAnalysis {
	return &BaseAnalysis{opts: opts.withDefaults()}
}

func (a *BaseAnalysis) Options() Options {
	return a.opts
}

func (a *BaseAnalysis) Results() *result.Set {
	return a.set
}

func (a *BaseAnalysis) converged(oldSol, newSol []float64) bool {
	if oldSol == nil || len(oldSol) != len(newSol) {
		return false
	}
	for i := 1; i < len(newSol); i++ {
		diff := math.Abs(newSol[i] - oldSol[i])
		tol := a.opts.RelTol*math.Max(math.Abs(newSol[i]), math.Abs(oldSol[i])) + a.opts.AbsTol
		if diff > tol {
			return false
		}
	}
	return true
}

// outputLabel names one column of the solution and its quantity tag.
type outputLabel struct {
	name string
	kind quantity.Kind
}

// outputLabels lists the solution columns in a stable order: node voltages by
// matrix index, then branch currents, then derived resistor currents.
func outputLabels(ckt *circuit.Circuit) []outputLabel {
	var labels []outputLabel
	for _, node := range ckt.NodeNames() {
		labels = append(labels, outputLabel{
			name: fmt.Sprintf("V(%s)", node),
			kind: quantity.Voltage,
		})
	}
	for _, branch := range ckt.BranchNames() {
		labels = append(labels, outputLabel{
			name: fmt.Sprintf("I(%s)", branch),
			kind: quantity.Current,
		})
	}
	for _, dev := range ckt.Devices() {
		if dev.GetType() == "R" {
			labels = append(labels, outputLabel{
				name: fmt.Sprintf("I(%s)", dev.GetName()),
				kind: quantity.Current,
			})
		}
	}
	return labels
}

// newOutputSet builds an empty result set with one vector per solution column,
// preceded by a scale vector when scaleName is non-empty.
func newOutputSet(ckt *circuit.Circuit, plotname, scaleName string, scaleKind quantity.Kind, isComplex bool) (*result.Set, error) {
	set := result.NewSet(ckt.Name(), plotname)

	if scaleName != "" {
		if err := set.Add(result.NewRealVector(scaleName, scaleKind)); err != nil {
			return nil, err
		}
		if err := set.SetScale(scaleName); err != nil {
			return nil, err
		}
	}

	for _, label := range outputLabels(ckt) {
		var vec *result.Vector
		if isComplex {
			vec = result.NewComplexVector(label.name, label.kind)
		} else {
			vec = result.NewRealVector(label.name, label.kind)
		}
		if err := set.Add(vec); err != nil {
			return nil, err
		}
	}

	return set, nil
}

// appendSolution appends one real solution point to every output vector.
func appendSolution(set *result.Set, ckt *circuit.Circuit) error {
	solution := ckt.Solution()
	for _, label := range outputLabels(ckt) {
		if err := set.Get(label.name).AppendReal(solution[label.name]); err != nil {
			return err
		}
	}
	return nil
}
