// Package matrix wraps the sparse LU solver behind the small stamping surface
// the devices need. Indices are 1-based; row/column 0 is ground and is never
// stored.
package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"
	"github.com/sirupsen/logrus"
)

type CircuitMatrix struct {
	Size         int
	matrix       *sparse.Matrix
	rhs          []float64
	rhsImag      []float64
	solution     []float64
	solutionImag []float64
	config       *sparse.Configuration
}

func NewMatrix(size int, isComplex bool) (*CircuitMatrix, error) {
	config := &sparse.Configuration{
		Real:                    true,
		Complex:                 isComplex,
		SeparatedComplexVectors: false,
		Expandable:              true,
		Translate:               true,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %v", err)
	}

	// Interleaved complex vectors double the backing storage.
	vectorSize := size + 1
	vectorSizeImag := size + 1
	if isComplex && !config.SeparatedComplexVectors {
		vectorSize *= 2
		vectorSizeImag = 1
	}

	return &CircuitMatrix{
		Size:         size,
		matrix:       mat,
		rhs:          make([]float64, vectorSize),
		rhsImag:      make([]float64, vectorSizeImag),
		solution:     make([]float64, vectorSize),
		solutionImag: make([]float64, vectorSizeImag),
		config:       config,
	}, nil
}

// SetupElements touches every element once so the fill-in pattern is allocated
// before the first factorization.
func (m *CircuitMatrix) SetupElements() {
	for i := 1; i <= m.Size; i++ {
		for j := 1; j <= m.Size; j++ {
			m.matrix.GetElement(int64(i), int64(j))
		}
	}
}

func (m *CircuitMatrix) inBounds(i, j int) bool {
	if i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		logrus.Warnf("matrix stamp out of bounds (i=%d, j=%d, size=%d)", i, j, m.Size)
		return false
	}
	return true
}

func (m *CircuitMatrix) AddElement(i, j int, value float64) {
	if !m.inBounds(i, j) {
		return
	}
	m.matrix.GetElement(int64(i), int64(j)).Real += value
}

func (m *CircuitMatrix) AddComplexElement(i, j int, real, imag float64) {
	if !m.inBounds(i, j) {
		return
	}
	element := m.matrix.GetElement(int64(i), int64(j))
	element.Real += real
	element.Imag += imag
}

func (m *CircuitMatrix) AddRHS(i int, value float64) {
	if !m.inBounds(i, i) {
		return
	}
	m.rhs[i] += value
}

func (m *CircuitMatrix) AddComplexRHS(i int, real, imag float64) {
	if !m.inBounds(i, i) {
		return
	}
	if m.config.SeparatedComplexVectors {
		m.rhs[i] += real
		m.rhsImag[i] += imag
	} else {
		m.rhs[2*i] += real
		m.rhs[2*i+1] += imag
	}
}

// LoadGmin adds a small conductance on every diagonal to aid convergence.
func (m *CircuitMatrix) LoadGmin(gmin float64) {
	for i := 1; i <= m.Size; i++ {
		if diag := m.GetDiagElement(i); diag != nil {
			diag.Real += gmin
		}
	}
}

func (m *CircuitMatrix) Clear() {
	m.matrix.Clear()
	for i := range m.rhs {
		m.rhs[i] = 0
	}
	for i := range m.rhsImag {
		m.rhsImag[i] = 0
	}
}

func (m *CircuitMatrix) Solve() error {
	var err error

	err = m.matrix.Factor()
	if err != nil {
		return fmt.Errorf("matrix factorization failed: %v", err)
	}

	if m.config.Complex {
		m.solution, m.solutionImag, err = m.matrix.SolveComplex(m.rhs, m.rhsImag)
	} else {
		m.solution, err = m.matrix.Solve(m.rhs)
	}
	if err != nil {
		return fmt.Errorf("matrix solve failed: %v", err)
	}

	return nil
}

func (m *CircuitMatrix) GetDiagElement(i int) *sparse.Element {
	if i <= 0 || i > m.Size {
		logrus.Warnf("diagonal index out of bounds (i=%d, size=%d)", i, m.Size)
		return nil
	}
	return m.matrix.Diags[i]
}

func (m *CircuitMatrix) RHS() []float64 {
	return m.rhs
}

func (m *CircuitMatrix) Solution() []float64 {
	return m.solution
}

// GetComplexSolution returns the real and imaginary parts of unknown i from an
// interleaved complex solution.
func (m *CircuitMatrix) GetComplexSolution(i int) (float64, float64) {
	if !m.config.Complex || i <= 0 || i > m.Size {
		return 0, 0
	}
	return m.solution[i], m.solution[i+m.Size]
}

func (m *CircuitMatrix) Destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
	}
}
