package device

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stampRecorder captures stamp calls for assertions.
type stampRecorder struct {
	elements map[[2]int]float64
	rhs      map[int]float64
	imag     map[[2]int]float64
	rhsImag  map[int]float64
}

func newStampRecorder() *stampRecorder {
	return &stampRecorder{
		elements: make(map[[2]int]float64),
		rhs:      make(map[int]float64),
		imag:     make(map[[2]int]float64),
		rhsImag:  make(map[int]float64),
	}
}

func (r *stampRecorder) AddElement(i, j int, value float64) {
	r.elements[[2]int{i, j}] += value
}

func (r *stampRecorder) AddRHS(i int, value float64) {
	r.rhs[i] += value
}

func (r *stampRecorder) AddComplexElement(i, j int, real, imag float64) {
	r.elements[[2]int{i, j}] += real
	r.imag[[2]int{i, j}] += imag
}

func (r *stampRecorder) AddComplexRHS(i int, real, imag float64) {
	r.rhs[i] += real
	r.rhsImag[i] += imag
}

func TestResistorStamp(t *testing.T) {
	r := NewResistor("R1", []string{"1", "2"}, 1000.0)
	r.SetNodes([]int{1, 2})

	rec := newStampRecorder()
	status := &CircuitStatus{Mode: OperatingPointAnalysis, Temp: 300.15}
	require.NoError(t, r.Stamp(rec, status))

	g := 1.0 / 1000.0
	assert.InDelta(t, g, rec.elements[[2]int{1, 1}], 1e-15)
	assert.InDelta(t, g, rec.elements[[2]int{2, 2}], 1e-15)
	assert.InDelta(t, -g, rec.elements[[2]int{1, 2}], 1e-15)
	assert.InDelta(t, -g, rec.elements[[2]int{2, 1}], 1e-15)
}

func TestResistorStampGroundedNode(t *testing.T) {
	r := NewResistor("R1", []string{"1", "0"}, 500.0)
	r.SetNodes([]int{1, 0})

	rec := newStampRecorder()
	require.NoError(t, r.Stamp(rec, &CircuitStatus{Temp: 300.15}))

	assert.InDelta(t, 2e-3, rec.elements[[2]int{1, 1}], 1e-15)
	assert.Len(t, rec.elements, 1, "no stamps on the ground row or column")
}

func TestResistorTemperatureCoefficients(t *testing.T) {
	r := NewResistor("R1", []string{"1", "0"}, 1000.0)
	r.Tc1 = 0.001
	r.SetNodes([]int{1, 0})

	rec := newStampRecorder()
	require.NoError(t, r.Stamp(rec, &CircuitStatus{Temp: 350.15}))

	// R(350.15K) = 1000 * (1 + 0.001*50) = 1050
	assert.InDelta(t, 1.0/1050.0, rec.elements[[2]int{1, 1}], 1e-12)
}

func TestCapacitorTransientCompanionBE(t *testing.T) {
	c := NewCapacitor("C1", []string{"1", "0"}, 1e-6)
	c.SetNodes([]int{1, 0})

	rec := newStampRecorder()
	status := &CircuitStatus{
		Mode:     TransientAnalysis,
		Method:   BE,
		TimeStep: 1e-6,
		Temp:     300.15,
	}
	require.NoError(t, c.Stamp(rec, status))

	// geq = C/dt = 1
	assert.InDelta(t, 1.0, rec.elements[[2]int{1, 1}], 1e-12)
	assert.InDelta(t, 0.0, rec.rhs[1], 1e-12, "zero history at t=0")
}

func TestCapacitorDCStampIsOpen(t *testing.T) {
	c := NewCapacitor("C1", []string{"1", "2"}, 1e-6)
	c.SetNodes([]int{1, 2})

	rec := newStampRecorder()
	require.NoError(t, c.Stamp(rec, &CircuitStatus{Mode: OperatingPointAnalysis, Gmin: 1e-12}))

	assert.InDelta(t, 1e-12, rec.elements[[2]int{1, 1}], 1e-24)
	assert.Empty(t, rec.rhs)
}

func TestCapacitorACStamp(t *testing.T) {
	c := NewCapacitor("C1", []string{"1", "0"}, 1e-6)
	c.SetNodes([]int{1, 0})

	rec := newStampRecorder()
	status := &CircuitStatus{Mode: ACAnalysis, Frequency: 1000.0}
	require.NoError(t, c.Stamp(rec, status))

	b := 2 * math.Pi * 1000.0 * 1e-6
	assert.InDelta(t, b, rec.imag[[2]int{1, 1}], 1e-12)
	assert.InDelta(t, 0.0, rec.elements[[2]int{1, 1}], 1e-15)
}

func TestInductorBranchStamp(t *testing.T) {
	l := NewInductor("L1", []string{"1", "0"}, 1e-3)
	l.SetNodes([]int{1, 0})
	l.SetBranchIndex(2)

	rec := newStampRecorder()
	status := &CircuitStatus{
		Mode:     TransientAnalysis,
		Method:   BE,
		TimeStep: 1e-6,
	}
	require.NoError(t, l.Stamp(rec, status))

	assert.Equal(t, 1.0, rec.elements[[2]int{1, 2}])
	assert.Equal(t, 1.0, rec.elements[[2]int{2, 1}])

	// req = L/dt = 1e3 on the branch diagonal, negative
	assert.InDelta(t, -1e3, rec.elements[[2]int{2, 2}], 1e-9)
}

func TestVoltageSourceStamp(t *testing.T) {
	v := NewDCVoltageSource("V1", []string{"1", "0"}, 5.0)
	v.SetNodes([]int{1, 0})
	v.SetBranchIndex(2)

	rec := newStampRecorder()
	require.NoError(t, v.Stamp(rec, &CircuitStatus{Mode: OperatingPointAnalysis}))

	assert.Equal(t, 1.0, rec.elements[[2]int{1, 2}])
	assert.Equal(t, 1.0, rec.elements[[2]int{2, 1}])
	assert.Equal(t, 5.0, rec.rhs[2])
}

func TestVoltageSourceACStamp(t *testing.T) {
	v := NewACVoltageSource("V1", []string{"1", "0"}, 0, 1.0, 90.0)
	v.SetNodes([]int{1, 0})
	v.SetBranchIndex(2)

	rec := newStampRecorder()
	require.NoError(t, v.Stamp(rec, &CircuitStatus{Mode: ACAnalysis, Frequency: 50}))

	assert.InDelta(t, 0.0, rec.rhs[2], 1e-12)
	assert.InDelta(t, 1.0, rec.rhsImag[2], 1e-12)
}

func TestCurrentSourceStamp(t *testing.T) {
	i := NewDCCurrentSource("I1", []string{"1", "2"}, 1e-3)
	i.SetNodes([]int{1, 2})

	rec := newStampRecorder()
	require.NoError(t, i.Stamp(rec, &CircuitStatus{Mode: OperatingPointAnalysis}))

	assert.InDelta(t, 1e-3, rec.rhs[1], 1e-15)
	assert.InDelta(t, -1e-3, rec.rhs[2], 1e-15)
	assert.Empty(t, rec.elements, "ideal current source stamps only the RHS")
}

func TestWaveformShapes(t *testing.T) {
	dc := Waveform{Shape: DC, DC: 5}
	assert.Equal(t, 5.0, dc.At(0))
	assert.Equal(t, 5.0, dc.At(1))

	sin := Waveform{Shape: SIN, DC: 1, Amplitude: 2, Freq: 1000}
	assert.InDelta(t, 1.0, sin.At(0), 1e-12)
	assert.InDelta(t, 3.0, sin.At(0.25e-3), 1e-9, "peak at quarter period")
	assert.InDelta(t, -1.0, sin.At(0.75e-3), 1e-9)

	pulse := Waveform{
		Shape: PULSE, Low: 0, High: 5,
		Delay: 1e-6, Rise: 1e-6, Fall: 1e-6, Width: 10e-6, Period: 20e-6,
	}
	assert.Equal(t, 0.0, pulse.At(0))
	assert.InDelta(t, 2.5, pulse.At(1.5e-6), 1e-9, "mid rise")
	assert.Equal(t, 5.0, pulse.At(5e-6))
	assert.InDelta(t, 2.5, pulse.At(12.5e-6), 1e-9, "mid fall")
	assert.Equal(t, 0.0, pulse.At(18e-6))
	assert.Equal(t, 5.0, pulse.At(25e-6), "second period")

	pwl := Waveform{Shape: PWL, Times: []float64{0, 1e-3, 2e-3}, Values: []float64{0, 1, 1}}
	assert.Equal(t, 0.0, pwl.At(-1))
	assert.InDelta(t, 0.5, pwl.At(0.5e-3), 1e-12)
	assert.Equal(t, 1.0, pwl.At(5e-3), "holds last value")
}

func TestDiodeCurrentAndConductance(t *testing.T) {
	d, err := NewDiode("D1", []string{"1", "0"})
	require.NoError(t, err)

	// Forward bias: exponential region
	idFwd := d.current(0.6, 300.15)
	assert.Greater(t, idFwd, 1e-6)

	// Reverse bias saturates at -Is
	idRev := d.current(-1.0, 300.15)
	assert.InDelta(t, -d.Is, idRev, 1e-20)

	gFwd := d.conductance(0.6, idFwd, 300.15)
	assert.Greater(t, gFwd, 1e-3)
	gRev := d.conductance(-1.0, idRev, 300.15)
	assert.InDelta(t, d.Gmin, gRev, 1e-18)
}

func TestDiodeReverseBreakdown(t *testing.T) {
	d, err := NewDiode("D1", []string{"1", "0"})
	require.NoError(t, err)
	d.SetModelParameters(map[string]float64{"bv": 5.0})

	// Saturation region: flat at -Is down to the breakdown knee.
	assert.InDelta(t, -d.Is, d.current(-1.0, 300.15), 1e-20)
	assert.InDelta(t, -d.Is, d.current(-5.0, 300.15), 1e-20)

	// Past -Bv the reverse current grows exponentially.
	idBreak := d.current(-5.5, 300.15)
	assert.Less(t, idBreak, -1e-7)
	assert.Less(t, d.current(-6.0, 300.15), idBreak, "more negative deeper into breakdown")

	// Conductance follows the exponential instead of collapsing to Gmin.
	gBreak := d.conductance(-5.5, idBreak, 300.15)
	assert.Greater(t, gBreak, 1e-6)
	assert.InDelta(t, d.Gmin, d.conductance(-1.0, -d.Is, 300.15), 1e-18)
}

func TestDiodeNodeCountValidation(t *testing.T) {
	_, err := NewDiode("D1", []string{"1"})
	assert.Error(t, err)
}

func TestDiodeModelParameters(t *testing.T) {
	d, err := NewDiode("D1", []string{"1", "0"})
	require.NoError(t, err)

	d.SetModelParameters(map[string]float64{"is": 1e-12, "n": 2.0, "unknown": 5})
	assert.Equal(t, 1e-12, d.Is)
	assert.Equal(t, 2.0, d.N)
}

func TestDiodeStampLinearization(t *testing.T) {
	d, err := NewDiode("D1", []string{"1", "0"})
	require.NoError(t, err)
	d.SetNodes([]int{1, 0})
	require.NoError(t, d.UpdateVoltages([]float64{0, 0.6}))

	rec := newStampRecorder()
	require.NoError(t, d.Stamp(rec, &CircuitStatus{Mode: OperatingPointAnalysis, Temp: 300.15}))

	id := d.current(0.6, 300.15)
	gd := d.conductance(0.6, id, 300.15)
	ieq := id - gd*0.6

	assert.InDelta(t, gd, rec.elements[[2]int{1, 1}], 1e-12)
	assert.InDelta(t, -ieq, rec.rhs[1], 1e-12)
}
