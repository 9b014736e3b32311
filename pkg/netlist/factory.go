package netlist

import (
	"fmt"
	"strings"

	"github.com/nanospice/nanospice/pkg/device"
)

// CreateDevice instantiates the device for a parsed element card.
func CreateDevice(elem Element, models map[string]device.ModelParam) (device.Device, error) {
	switch elem.Type {
	case "R":
		return device.NewResistor(elem.Name, elem.Nodes, elem.Value), nil

	case "L":
		return device.NewInductor(elem.Name, elem.Nodes, elem.Value), nil

	case "C":
		return device.NewCapacitor(elem.Name, elem.Nodes, elem.Value), nil

	case "D":
		diode, err := device.NewDiode(elem.Name, elem.Nodes)
		if err != nil {
			return nil, err
		}
		if modelName, ok := elem.Params["model"]; ok {
			model, exists := models[modelName]
			if !exists {
				return nil, fmt.Errorf("diode %s: undefined model %s", elem.Name, modelName)
			}
			diode.SetModelParameters(model.Params)
		}
		return diode, nil

	case "V":
		return createVoltageSource(elem)

	case "I":
		return createCurrentSource(elem)
	}

	return nil, fmt.Errorf("unsupported device type: %s", elem.Type)
}

func createVoltageSource(elem Element) (device.Device, error) {
	switch elem.Params["type"] {
	case "dc":
		return device.NewDCVoltageSource(elem.Name, elem.Nodes, elem.Value), nil

	case "sin":
		offset, amplitude, freq, phase, err := parseSinParams(elem.Params["sin"])
		if err != nil {
			return nil, fmt.Errorf("%s: %v", elem.Name, err)
		}
		return device.NewSinVoltageSource(elem.Name, elem.Nodes, offset, amplitude, freq, phase), nil

	case "pulse":
		p, err := parsePulseParams(elem.Params["pulse"])
		if err != nil {
			return nil, fmt.Errorf("%s: %v", elem.Name, err)
		}
		return device.NewPulseVoltageSource(elem.Name, elem.Nodes,
			p.low, p.high, p.delay, p.rise, p.fall, p.width, p.period), nil

	case "pwl":
		times, values, err := parsePWLParams(elem.Params["pwl"])
		if err != nil {
			return nil, fmt.Errorf("%s: %v", elem.Name, err)
		}
		return device.NewPWLVoltageSource(elem.Name, elem.Nodes, times, values), nil

	case "ac":
		phase, err := ParseValue(elem.Params["phase"])
		if err != nil {
			return nil, fmt.Errorf("%s: invalid AC phase: %v", elem.Name, err)
		}
		return device.NewACVoltageSource(elem.Name, elem.Nodes, 0, elem.Value, phase), nil
	}

	return nil, fmt.Errorf("%s: unsupported voltage source type: %s", elem.Name, elem.Params["type"])
}

func createCurrentSource(elem Element) (device.Device, error) {
	switch elem.Params["type"] {
	case "dc":
		return device.NewDCCurrentSource(elem.Name, elem.Nodes, elem.Value), nil

	case "sin":
		offset, amplitude, freq, phase, err := parseSinParams(elem.Params["sin"])
		if err != nil {
			return nil, fmt.Errorf("%s: %v", elem.Name, err)
		}
		return device.NewSinCurrentSource(elem.Name, elem.Nodes, offset, amplitude, freq, phase), nil

	case "pulse":
		p, err := parsePulseParams(elem.Params["pulse"])
		if err != nil {
			return nil, fmt.Errorf("%s: %v", elem.Name, err)
		}
		return device.NewPulseCurrentSource(elem.Name, elem.Nodes,
			p.low, p.high, p.delay, p.rise, p.fall, p.width, p.period), nil

	case "pwl":
		times, values, err := parsePWLParams(elem.Params["pwl"])
		if err != nil {
			return nil, fmt.Errorf("%s: %v", elem.Name, err)
		}
		return device.NewPWLCurrentSource(elem.Name, elem.Nodes, times, values), nil

	case "ac":
		phase, err := ParseValue(elem.Params["phase"])
		if err != nil {
			return nil, fmt.Errorf("%s: invalid AC phase: %v", elem.Name, err)
		}
		return device.NewACCurrentSource(elem.Name, elem.Nodes, 0, elem.Value, phase), nil
	}

	return nil, fmt.Errorf("%s: unsupported current source type: %s", elem.Name, elem.Params["type"])
}

func parseSinParams(params string) (offset, amplitude, freq, phase float64, err error) {
	fields := strings.Fields(params)
	if len(fields) < 3 {
		return 0, 0, 0, 0, fmt.Errorf("SIN needs offset, amplitude, and frequency")
	}

	if offset, err = ParseValue(fields[0]); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid SIN offset: %v", err)
	}
	if amplitude, err = ParseValue(fields[1]); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid SIN amplitude: %v", err)
	}
	if freq, err = ParseValue(fields[2]); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid SIN frequency: %v", err)
	}
	if len(fields) > 3 {
		if phase, err = ParseValue(fields[3]); err != nil {
			return 0, 0, 0, 0, fmt.Errorf("invalid SIN phase: %v", err)
		}
	}

	return offset, amplitude, freq, phase, nil
}

type pulseParams struct {
	low, high, delay, rise, fall, width, period float64
}

func parsePulseParams(params string) (pulseParams, error) {
	fields := strings.Fields(params)
	if len(fields) < 7 {
		return pulseParams{}, fmt.Errorf("PULSE needs v1 v2 delay rise fall width period")
	}

	var p pulseParams
	targets := []*float64{&p.low, &p.high, &p.delay, &p.rise, &p.fall, &p.width, &p.period}
	labels := []string{"v1", "v2", "delay", "rise", "fall", "width", "period"}
	for i, dst := range targets {
		value, err := ParseValue(fields[i])
		if err != nil {
			return pulseParams{}, fmt.Errorf("invalid PULSE %s: %v", labels[i], err)
		}
		*dst = value
	}
	return p, nil
}

func parsePWLParams(params string) (times, values []float64, err error) {
	fields := strings.Fields(params)
	if len(fields) < 4 || len(fields)%2 != 0 {
		return nil, nil, fmt.Errorf("PWL needs time-value pairs")
	}

	numPoints := len(fields) / 2
	times = make([]float64, numPoints)
	values = make([]float64, numPoints)

	for i := 0; i < numPoints; i++ {
		if times[i], err = ParseValue(fields[2*i]); err != nil {
			return nil, nil, fmt.Errorf("invalid PWL time[%d]: %v", i, err)
		}
		if values[i], err = ParseValue(fields[2*i+1]); err != nil {
			return nil, nil, fmt.Errorf("invalid PWL value[%d]: %v", i, err)
		}
		if i > 0 && times[i] <= times[i-1] {
			return nil, nil, fmt.Errorf("PWL time points must be strictly increasing")
		}
	}

	return times, values, nil
}
