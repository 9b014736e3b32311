package device

import "math"

// Waveform describes the time dependence shared by independent voltage and
// current sources.
type Waveform struct {
	Shape SourceType

	// DC level, also the SIN offset
	DC float64

	// SIN
	Amplitude float64
	Freq      float64
	Phase     float64 // degrees

	// PULSE
	Low    float64
	High   float64
	Delay  float64
	Rise   float64
	Fall   float64
	Width  float64
	Period float64

	// PWL breakpoints, times strictly increasing
	Times  []float64
	Values []float64
}

// At evaluates the waveform at time t.
func (w *Waveform) At(t float64) float64 {
	switch w.Shape {
	case DC:
		return w.DC
	case SIN:
		phaseRad := w.Phase * math.Pi / 180.0
		return w.DC + w.Amplitude*math.Sin(2.0*math.Pi*w.Freq*t+phaseRad)
	case PULSE:
		return w.pulseAt(t)
	case PWL:
		return w.pwlAt(t)
	default:
		return 0
	}
}

func (w *Waveform) pulseAt(t float64) float64 {
	if t < w.Delay {
		return w.Low
	}

	t -= w.Delay
	if w.Period > 0 {
		t = math.Mod(t, w.Period)
	}

	if t < w.Rise {
		if w.Rise == 0 {
			return w.High
		}
		return w.Low + (w.High-w.Low)*t/w.Rise
	}

	if t < w.Rise+w.Width {
		return w.High
	}

	fallStart := w.Rise + w.Width
	if t < fallStart+w.Fall {
		if w.Fall == 0 {
			return w.Low
		}
		return w.High - (w.High-w.Low)*(t-fallStart)/w.Fall
	}

	return w.Low
}

func (w *Waveform) pwlAt(t float64) float64 {
	if t <= w.Times[0] {
		return w.Values[0]
	}

	lastIdx := len(w.Times) - 1
	if t >= w.Times[lastIdx] {
		return w.Values[lastIdx]
	}

	for i := 1; i < len(w.Times); i++ {
		if t <= w.Times[i] {
			t1, t2 := w.Times[i-1], w.Times[i]
			y1, y2 := w.Values[i-1], w.Values[i]
			return y1 + (y2-y1)*(t-t1)/(t2-t1)
		}
	}

	return w.Values[lastIdx] // unreachable: breakpoints cover the range
}
