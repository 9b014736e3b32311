// Package result holds the tagged output vectors produced by an analysis run.
// A Set corresponds to what ngspice calls a plot: an ordered group of named
// vectors sharing one scale (time, frequency, or a sweep variable), each vector
// tagged with the physical quantity kind it carries.
package result

import (
	"fmt"
	"time"

	"github.com/nanospice/nanospice/pkg/quantity"
)

// Vector is a single named result column. It stores either real or complex
// samples, never both.
type Vector struct {
	Name string
	Kind quantity.Kind

	real     []float64
	complx   []complex128
	isComplx bool
}

// NewRealVector creates an empty real-valued vector.
func NewRealVector(name string, kind quantity.Kind) *Vector {
	return &Vector{Name: name, Kind: kind}
}

// NewComplexVector creates an empty complex-valued vector.
func NewComplexVector(name string, kind quantity.Kind) *Vector {
	return &Vector{Name: name, Kind: kind, isComplx: true}
}

func (v *Vector) IsComplex() bool { return v.isComplx }

func (v *Vector) Len() int {
	if v.isComplx {
		return len(v.complx)
	}
	return len(v.real)
}

// AppendReal adds a sample to a real vector.
func (v *Vector) AppendReal(x float64) error {
	if v.isComplx {
		return fmt.Errorf("vector %s: appending real sample to complex vector", v.Name)
	}
	v.real = append(v.real, x)
	return nil
}

// AppendComplex adds a sample to a complex vector.
func (v *Vector) AppendComplex(x complex128) error {
	if !v.isComplx {
		return fmt.Errorf("vector %s: appending complex sample to real vector", v.Name)
	}
	v.complx = append(v.complx, x)
	return nil
}

// Real returns the i-th sample of a real vector.
func (v *Vector) Real(i int) float64 {
	if v.isComplx {
		return real(v.complx[i])
	}
	return v.real[i]
}

// Complex returns the i-th sample. Real vectors are widened with zero
// imaginary part.
func (v *Vector) Complex(i int) complex128 {
	if v.isComplx {
		return v.complx[i]
	}
	return complex(v.real[i], 0)
}

// Reals returns the backing real slice. Nil for complex vectors.
func (v *Vector) Reals() []float64 { return v.real }

// Complexes returns the backing complex slice. Nil for real vectors.
func (v *Vector) Complexes() []complex128 { return v.complx }

// Set is one analysis run's worth of vectors.
type Set struct {
	Title    string
	Plotname string
	Date     time.Time

	scaleName string
	order     []string
	vectors   map[string]*Vector
}

// NewSet creates an empty result set.
func NewSet(title, plotname string) *Set {
	return &Set{
		Title:    title,
		Plotname: plotname,
		Date:     time.Now(),
		vectors:  make(map[string]*Vector),
	}
}

// Add registers a vector. Names must be unique within a set.
func (s *Set) Add(v *Vector) error {
	if _, exists := s.vectors[v.Name]; exists {
		return fmt.Errorf("duplicate vector name: %s", v.Name)
	}
	s.vectors[v.Name] = v
	s.order = append(s.order, v.Name)
	return nil
}

// Get returns the named vector, or nil if absent.
func (s *Set) Get(name string) *Vector {
	return s.vectors[name]
}

// Names returns vector names in insertion order. Rawfile variable indices
// follow this order.
func (s *Set) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of vectors in the set.
func (s *Set) Len() int { return len(s.order) }

// SetScale marks the named vector as the independent variable.
func (s *Set) SetScale(name string) error {
	if _, exists := s.vectors[name]; !exists {
		return fmt.Errorf("scale vector %s not in set", name)
	}
	s.scaleName = name
	return nil
}

// Scale returns the independent-variable vector, or nil if none was set.
func (s *Set) Scale() *Vector {
	if s.scaleName == "" {
		return nil
	}
	return s.vectors[s.scaleName]
}

// Points returns the number of samples per vector, taken from the scale
// vector, falling back to the first vector for scalar sets.
func (s *Set) Points() int {
	if sc := s.Scale(); sc != nil {
		return sc.Len()
	}
	if len(s.order) > 0 {
		return s.vectors[s.order[0]].Len()
	}
	return 0
}

// Complex reports whether any vector in the set is complex-valued.
func (s *Set) Complex() bool {
	for _, name := range s.order {
		if s.vectors[name].IsComplex() {
			return true
		}
	}
	return false
}
