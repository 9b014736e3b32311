package analysis

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanospice/nanospice/pkg/circuit"
	"github.com/nanospice/nanospice/pkg/netlist"
	"github.com/nanospice/nanospice/pkg/quantity"
	"github.com/nanospice/nanospice/pkg/result"
)

func mustCircuit(t *testing.T, deck *netlist.Deck, isComplex bool) *circuit.Circuit {
	t.Helper()
	ckt, err := circuit.FromDeck(deck, isComplex)
	require.NoError(t, err)
	return ckt
}

func runDeck(t *testing.T, deckText string) *result.Set {
	t.Helper()

	deck, err := netlist.Parse(deckText)
	require.NoError(t, err)

	set, err := Run(deck, DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, set)
	return set
}

func TestOperatingPointVoltageDivider(t *testing.T) {
	set := runDeck(t, `voltage divider
V1 in 0 DC 10
R1 in out 1k
R2 out 0 1k
.op
`)

	assert.Equal(t, "Operating Point", set.Plotname)
	assert.Equal(t, "voltage divider", set.Title)
	assert.Equal(t, 1, set.Points())

	vOut := set.Get("V(out)")
	require.NotNil(t, vOut)
	assert.Equal(t, quantity.Voltage, vOut.Kind)
	assert.InDelta(t, 5.0, vOut.Real(0), 1e-6)

	vIn := set.Get("V(in)")
	require.NotNil(t, vIn)
	assert.InDelta(t, 10.0, vIn.Real(0), 1e-6)

	// 10V over 2k total: 5mA out of the source
	iV1 := set.Get("I(V1)")
	require.NotNil(t, iV1)
	assert.Equal(t, quantity.Current, iV1.Kind)
	assert.InDelta(t, 5e-3, math.Abs(iV1.Real(0)), 1e-9)
}

func TestOperatingPointDiodeClamp(t *testing.T) {
	set := runDeck(t, `diode clamp
V1 in 0 DC 5
R1 in out 1k
D1 out 0 DMOD
.model DMOD D(is=1e-14)
.op
`)

	vOut := set.Get("V(out)")
	require.NotNil(t, vOut)
	// Forward drop of a silicon junction at a few mA
	assert.Greater(t, vOut.Real(0), 0.4)
	assert.Less(t, vOut.Real(0), 0.9)
}

func TestDCSweepDivider(t *testing.T) {
	set := runDeck(t, `swept divider
V1 in 0 DC 0
R1 in out 2k
R2 out 0 2k
.dc V1 0 4 1
`)

	assert.Equal(t, "DC transfer characteristic", set.Plotname)

	scale := set.Scale()
	require.NotNil(t, scale)
	assert.Equal(t, quantity.Voltage, scale.Kind)
	require.Equal(t, 5, scale.Len())

	vOut := set.Get("V(out)")
	require.NotNil(t, vOut)
	for i := 0; i < scale.Len(); i++ {
		assert.InDelta(t, scale.Real(i), float64(i), 1e-9)
		assert.InDelta(t, float64(i)/2, vOut.Real(i), 1e-6, "point %d", i)
	}
}

func TestDCSweepRestoresSourceValue(t *testing.T) {
	deck, err := netlist.Parse(`swept
V1 in 0 DC 3
R1 in 0 1k
.dc V1 0 1 0.5
`)
	require.NoError(t, err)

	ckt := mustCircuit(t, deck, false)
	defer ckt.Destroy()

	dc, err := NewDCSweep(DefaultOptions(), "V1", 0, 1, 0.5, "", 0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, dc.Setup(ckt))
	require.NoError(t, dc.Execute())

	assert.Equal(t, 3.0, ckt.FindDevice("V1").GetValue())
}

func TestTransientRCCharge(t *testing.T) {
	// tau = 100us, simulated to 5 tau
	set := runDeck(t, `rc charge
V1 in 0 PULSE(0 5 0 1u 1u 1 2)
R1 in out 1k
C1 out 0 100n
.tran 1u 500u uic
`)

	assert.Equal(t, "Transient Analysis", set.Plotname)

	scale := set.Scale()
	require.NotNil(t, scale)
	assert.Equal(t, "time", scale.Name)
	assert.Equal(t, quantity.Time, scale.Kind)
	require.Greater(t, scale.Len(), 10)

	// Time strictly increases and ends at tstop.
	for i := 1; i < scale.Len(); i++ {
		assert.Greater(t, scale.Real(i), scale.Real(i-1))
	}
	assert.InDelta(t, 500e-6, scale.Real(scale.Len()-1), 1e-9)

	vOut := set.Get("V(out)")
	require.NotNil(t, vOut)
	last := vOut.Real(vOut.Len() - 1)
	assert.Greater(t, last, 4.5, "capacitor nearly charged after 5 tau")
	assert.LessOrEqual(t, last, 5.01)
}

func TestTransientSinSteadyState(t *testing.T) {
	set := runDeck(t, `sin follower
V1 in 0 SIN(0 1 1k)
R1 in out 1k
R2 out 0 1k
.tran 10u 2m
`)

	vOut := set.Get("V(out)")
	require.NotNil(t, vOut)

	// Resistive divider halves the sine everywhere.
	vIn := set.Get("V(in)")
	for i := 0; i < vOut.Len(); i++ {
		assert.InDelta(t, vIn.Real(i)/2, vOut.Real(i), 1e-6)
	}
}

func TestACLowpassCorner(t *testing.T) {
	// fc = 1/(2 pi RC) with R=1k, C=1u is ~159.155 Hz
	set := runDeck(t, `rc lowpass
V1 in 0 AC 1
R1 in out 1k
C1 out 0 1u
.ac LIN 1 159.1549 159.1549
`)

	assert.Equal(t, "AC Analysis", set.Plotname)
	assert.True(t, set.Complex())
	require.Equal(t, 1, set.Points())

	scale := set.Scale()
	require.NotNil(t, scale)
	assert.Equal(t, quantity.Frequency, scale.Kind)
	assert.InDelta(t, 159.1549, scale.Real(0), 1e-3)

	vOut := set.Get("V(out)")
	require.NotNil(t, vOut)
	require.True(t, vOut.IsComplex())

	h := vOut.Complex(0)
	assert.InDelta(t, 1.0/math.Sqrt2, cmplx.Abs(h), 1e-3, "-3dB at the corner")
	assert.InDelta(t, -45.0, cmplx.Phase(h)*180/math.Pi, 0.1)
}

func TestACFrequencyPointGeneration(t *testing.T) {
	ac := NewAC(DefaultOptions(), 1, 1000, 4, "DEC")
	require.NoError(t, ac.generateFrequencyPoints())
	require.Len(t, ac.frequencies, 4)
	assert.InDelta(t, 1.0, ac.frequencies[0], 1e-9)
	assert.InDelta(t, 10.0, ac.frequencies[1], 1e-6)
	assert.InDelta(t, 1000.0, ac.frequencies[3], 1e-6)

	lin := NewAC(DefaultOptions(), 0, 100, 3, "LIN")
	assert.Error(t, lin.generateFrequencyPoints(), "zero start frequency")

	bad := NewAC(DefaultOptions(), 1, 100, 3, "LOG")
	assert.Error(t, bad.generateFrequencyPoints())
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.Equal(t, DefaultOptions(), opts)

	custom := Options{RelTol: 1e-4}.withDefaults()
	assert.Equal(t, 1e-4, custom.RelTol)
	assert.Equal(t, 1e-12, custom.AbsTol)
	assert.Equal(t, 100, custom.MaxIter)
}

func TestRunRejectsUnknownSweepSource(t *testing.T) {
	deck, err := netlist.Parse(`bad sweep
V1 in 0 DC 1
R1 in 0 1k
.dc VX 0 1 0.5
`)
	require.NoError(t, err)

	_, err = Run(deck, DefaultOptions())
	assert.Error(t, err)
}
