package netlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValueSuffixes(t *testing.T) {
	cases := map[string]float64{
		"100":    100,
		"4.7k":   4700,
		"4.7K":   4700,
		"1meg":   1e6,
		"2.2u":   2.2e-6,
		"100n":   1e-7,
		"10p":    1e-11,
		"1f":     1e-15,
		"1.5e-3": 1.5e-3,
		"-12m":   -12e-3,
		"10ms":   10e-3,
		"1G":     1e9,
		"2T":     2e12,
	}

	for input, want := range cases {
		got, err := ParseValue(input)
		require.NoError(t, err, "input %q", input)
		assert.InEpsilon(t, want, got, 1e-12, "input %q", input)
	}
}

func TestParseValueRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "abc", "1.2.3", "k4", "1x"} {
		_, err := ParseValue(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestParseRCDeck(t *testing.T) {
	deck, err := Parse(`Simple RC lowpass
V1 in 0 DC 5
R1 in out 1k
C1 out 0 1u
.tran 1u 1m
.end
`)
	require.NoError(t, err)

	assert.Equal(t, "Simple RC lowpass", deck.Title)
	require.Len(t, deck.Elements, 3)

	v1 := deck.Elements[0]
	assert.Equal(t, "V", v1.Type)
	assert.Equal(t, []string{"in", "0"}, v1.Nodes)
	assert.Equal(t, 5.0, v1.Value)
	assert.Equal(t, "dc", v1.Params["type"])

	r1 := deck.Elements[1]
	assert.Equal(t, "R", r1.Type)
	assert.Equal(t, 1000.0, r1.Value)

	c1 := deck.Elements[2]
	assert.Equal(t, "C", c1.Type)
	assert.InDelta(t, 1e-6, c1.Value, 1e-18)

	assert.Equal(t, AnalysisTRAN, deck.Analysis)
	assert.InDelta(t, 1e-6, deck.Tran.TStep, 1e-18)
	assert.InDelta(t, 1e-3, deck.Tran.TStop, 1e-15)
	assert.InDelta(t, 1e-6, deck.Tran.TMax, 1e-18)
	assert.False(t, deck.Tran.UIC)
}

func TestParseContinuationAndComments(t *testing.T) {
	deck, err := Parse(`Pulse with continuation
* a full-line comment
V1 in 0 PULSE(0 5
+ 1u 1u 1u
+ 10u 20u)
R1 in 0 1k * trailing comment
.op
`)
	require.NoError(t, err)
	require.Len(t, deck.Elements, 2)

	v1 := deck.Elements[0]
	assert.Equal(t, "pulse", v1.Params["type"])
	assert.Equal(t, "0 5 1u 1u 1u 10u 20u", v1.Params["pulse"])
	assert.Equal(t, AnalysisOP, deck.Analysis)
}

func TestParseSourceVariants(t *testing.T) {
	deck, err := Parse(`sources
V1 a 0 12
V2 b 0 SIN(0 1 1k)
V3 c 0 AC 1 45
I1 d 0 DC 1m
I2 e 0 PWL(0 0 1m 1)
.op
`)
	require.NoError(t, err)
	require.Len(t, deck.Elements, 5)

	assert.Equal(t, "dc", deck.Elements[0].Params["type"])
	assert.Equal(t, 12.0, deck.Elements[0].Value)

	assert.Equal(t, "sin", deck.Elements[1].Params["type"])
	assert.Equal(t, "0 1 1k", deck.Elements[1].Params["sin"])

	assert.Equal(t, "ac", deck.Elements[2].Params["type"])
	assert.Equal(t, 1.0, deck.Elements[2].Value)
	assert.Equal(t, "45", deck.Elements[2].Params["phase"])

	assert.Equal(t, "dc", deck.Elements[3].Params["type"])
	assert.InDelta(t, 1e-3, deck.Elements[3].Value, 1e-15)

	assert.Equal(t, "pwl", deck.Elements[4].Params["type"])
}

func TestParseModelCard(t *testing.T) {
	deck, err := Parse(`diode deck
D1 a 0 DMOD
.model DMOD D(is=1e-14 n=1.2)
.op
`)
	require.NoError(t, err)

	model, ok := deck.Models["DMOD"]
	require.True(t, ok)
	assert.Equal(t, "D", model.Type)
	assert.InDelta(t, 1e-14, model.Params["is"], 1e-26)
	assert.InDelta(t, 1.2, model.Params["n"], 1e-12)

	assert.Equal(t, "DMOD", deck.Elements[0].Params["model"])
}

func TestParseACCard(t *testing.T) {
	deck, err := Parse(`ac deck
V1 in 0 AC 1
R1 in out 1k
C1 out 0 1u
.ac DEC 10 1 100k
`)
	require.NoError(t, err)
	assert.Equal(t, AnalysisAC, deck.Analysis)
	assert.Equal(t, "DEC", deck.AC.Sweep)
	assert.Equal(t, 10, deck.AC.Points)
	assert.Equal(t, 1.0, deck.AC.FStart)
	assert.Equal(t, 1e5, deck.AC.FStop)
}

func TestParseDCCard(t *testing.T) {
	deck, err := Parse(`dc deck
V1 in 0 DC 0
R1 in 0 1k
.dc V1 0 5 0.5
`)
	require.NoError(t, err)
	assert.Equal(t, AnalysisDC, deck.Analysis)
	assert.Equal(t, "V1", deck.DC.Source1)
	assert.Equal(t, 0.0, deck.DC.Start1)
	assert.Equal(t, 5.0, deck.DC.Stop1)
	assert.Equal(t, 0.5, deck.DC.Increment1)
	assert.Empty(t, deck.DC.Source2)
}

func TestParseRejectsBadCards(t *testing.T) {
	cases := []string{
		"bad\nR1 a 0\n",
		"bad\nX1 a b 1k\n",
		"bad\n.tran 1u\n",
		"bad\n.ac LOG 10 1 1k\n",
		"bad\n+ orphan continuation\n",
	}
	for _, input := range cases {
		_, err := Parse(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestCreateDeviceFromDeck(t *testing.T) {
	deck, err := Parse(`factory deck
R1 a b 1k
L1 b 0 10m
C1 a 0 1u
V1 a 0 SIN(0 5 60)
I1 b 0 DC 1m
D1 a 0 DMOD
.model DMOD D(is=1e-15)
.op
`)
	require.NoError(t, err)

	for _, elem := range deck.Elements {
		dev, err := CreateDevice(elem, deck.Models)
		require.NoError(t, err, "element %s", elem.Name)
		assert.Equal(t, elem.Name, dev.GetName())
		assert.Equal(t, elem.Type, dev.GetType())
	}
}

func TestCreateDeviceUnknownModel(t *testing.T) {
	elem := Element{
		Type:   "D",
		Name:   "D1",
		Nodes:  []string{"a", "0"},
		Params: map[string]string{"model": "MISSING"},
	}
	_, err := CreateDevice(elem, nil)
	assert.Error(t, err)
}

func TestParsePulseParamsValidation(t *testing.T) {
	_, err := parsePulseParams("0 5 1u")
	assert.Error(t, err)

	p, err := parsePulseParams("0 5 1u 2u 3u 10u 20u")
	require.NoError(t, err)
	assert.Equal(t, 5.0, p.high)
	assert.InDelta(t, 2e-5, p.period, 1e-17)
}

func TestParsePWLParamsValidation(t *testing.T) {
	_, _, err := parsePWLParams("0 0 1m")
	assert.Error(t, err)

	_, _, err = parsePWLParams("1m 1 0 0")
	assert.Error(t, err, "times must increase")

	times, values, err := parsePWLParams("0 0 1m 1")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1e-3}, times)
	assert.Equal(t, []float64{0, 1}, values)
}
