// Package device implements the circuit elements and their MNA stamps.
package device

import (
	"github.com/nanospice/nanospice/pkg/matrix"
	"github.com/nanospice/nanospice/pkg/util"
)

type Device interface {
	GetName() string
	GetType() string
	GetNodeNames() []string
	GetNodes() []int
	SetNodes(nodes []int)
	GetValue() float64
	Stamp(mat matrix.DeviceMatrix, status *CircuitStatus) error
}

// TimeDependent devices carry state between transient steps.
type TimeDependent interface {
	SetTimeStep(dt float64)
	UpdateState(voltages []float64, status *CircuitStatus)
	CalculateLTE(voltages map[string]float64, status *CircuitStatus) float64
}

// NonLinear devices are re-linearized around the previous solution on each
// Newton-Raphson iteration.
type NonLinear interface {
	UpdateVoltages(voltages []float64) error
}

type SourceType int

const (
	DC SourceType = iota
	SIN
	PULSE
	PWL
)

type AnalysisMode int

const (
	OperatingPointAnalysis AnalysisMode = iota
	TransientAnalysis
	ACAnalysis
	DCSweepAnalysis
)

// Transient integration method.
const (
	BE = iota // backward Euler
	TR        // trapezoidal
)

type CircuitStatus struct {
	Time      float64
	TimeStep  float64
	Gmin      float64
	Mode      AnalysisMode
	Method    int // BE or TR
	Temp      float64
	Frequency float64 // AC analysis point
}

type BaseDevice struct {
	Name      string
	Nodes     []int
	Value     float64
	NodeNames []string
}

func (d *BaseDevice) GetName() string {
	return d.Name
}

func (d *BaseDevice) GetNodes() []int {
	return d.Nodes
}

func (d *BaseDevice) GetNodeNames() []string {
	return d.NodeNames
}

func (d *BaseDevice) GetValue() float64 {
	return d.Value
}

func (d *BaseDevice) SetNodes(nodes []int) {
	d.Nodes = nodes
}

func newBaseDevice(name string, value float64, nodeNames []string) BaseDevice {
	return BaseDevice{
		Name:      name,
		Value:     value,
		NodeNames: nodeNames,
		Nodes:     make([]int, len(nodeNames)),
	}
}

func integrationMethod(status *CircuitStatus) util.IntegrationMethod {
	if status.Method == TR {
		return util.Trapezoidal
	}
	return util.BackwardEuler
}

// ModelParam is a parsed .model card.
type ModelParam struct {
	Type   string
	Name   string
	Params map[string]float64
}
