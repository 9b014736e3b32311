// Package circuit assembles parsed netlist elements into an MNA system:
// node and branch numbering, device construction, and stamping.
package circuit

import (
	"fmt"

	"github.com/nanospice/nanospice/pkg/device"
	"github.com/nanospice/nanospice/pkg/matrix"
	"github.com/nanospice/nanospice/pkg/netlist"
)

type Circuit struct {
	name             string
	nodeMap          map[string]int
	nodeOrder        []string
	branchMap        map[string]int
	branchOrder      []string
	devices          []device.Device
	matrix           *matrix.CircuitMatrix
	Status           *device.CircuitStatus
	Time             float64
	timeStep         float64
	isComplex        bool
	nonlinearDevices []device.NonLinear
	models           map[string]device.ModelParam
}

func New(name string) *Circuit {
	return NewWithComplex(name, false)
}

func NewWithComplex(name string, isComplex bool) *Circuit {
	return &Circuit{
		name:      name,
		nodeMap:   make(map[string]int),
		branchMap: make(map[string]int),
		Status:    &device.CircuitStatus{},
		isComplex: isComplex,
		models:    make(map[string]device.ModelParam),
	}
}

// FromDeck builds a ready-to-solve circuit from a parsed deck.
func FromDeck(deck *netlist.Deck, isComplex bool) (*Circuit, error) {
	ckt := NewWithComplex(deck.Title, isComplex)
	ckt.SetModels(deck.Models)
	if err := ckt.AssignNodeBranchMaps(deck.Elements); err != nil {
		return nil, err
	}
	if err := ckt.CreateMatrix(); err != nil {
		return nil, err
	}
	if err := ckt.SetupDevices(deck.Elements); err != nil {
		ckt.Destroy()
		return nil, err
	}
	return ckt, nil
}

func (c *Circuit) SetModels(models map[string]device.ModelParam) {
	c.models = models
}

// AssignNodeBranchMaps numbers the nodes in first-appearance order, then
// appends one branch unknown for every voltage source and inductor.
func (c *Circuit) AssignNodeBranchMaps(elements []netlist.Element) error {
	for _, elem := range elements {
		for _, nodeName := range elem.Nodes {
			if isGround(nodeName) {
				continue
			}
			if _, exists := c.nodeMap[nodeName]; !exists {
				c.nodeMap[nodeName] = len(c.nodeMap) + 1
				c.nodeOrder = append(c.nodeOrder, nodeName)
			}
		}
	}

	branchStart := len(c.nodeMap) + 1
	for _, elem := range elements {
		if elem.Type == "V" || elem.Type == "L" {
			c.branchMap[elem.Name] = branchStart
			c.branchOrder = append(c.branchOrder, elem.Name)
			branchStart++
		}
	}

	if len(c.nodeMap) == 0 {
		return fmt.Errorf("circuit has no non-ground nodes")
	}
	return nil
}

func (c *Circuit) CreateMatrix() error {
	matrixSize := len(c.nodeMap) + len(c.branchMap)
	mat, err := matrix.NewMatrix(matrixSize, c.isComplex)
	if err != nil {
		return fmt.Errorf("creating circuit matrix: %v", err)
	}
	c.matrix = mat
	return nil
}

func (c *Circuit) SetupDevices(elements []netlist.Element) error {
	for _, elem := range elements {
		dev, err := netlist.CreateDevice(elem, c.models)
		if err != nil {
			return fmt.Errorf("creating device %s: %v", elem.Name, err)
		}

		nodeIndices := make([]int, len(elem.Nodes))
		for i, nodeName := range elem.Nodes {
			if isGround(nodeName) {
				continue
			}
			nodeIndices[i] = c.nodeMap[nodeName]
		}
		dev.SetNodes(nodeIndices)

		switch d := dev.(type) {
		case *device.VoltageSource:
			d.SetBranchIndex(c.branchMap[elem.Name])
		case *device.Inductor:
			d.SetBranchIndex(c.branchMap[elem.Name])
		}

		if nl, ok := dev.(device.NonLinear); ok {
			c.nonlinearDevices = append(c.nonlinearDevices, nl)
		}

		c.devices = append(c.devices, dev)
	}

	// Stamp once so the fill-in pattern exists before the first factorization.
	if err := c.Stamp(&device.CircuitStatus{Time: 0, TimeStep: 1e-9}); err != nil {
		return fmt.Errorf("initial stamping failed: %v", err)
	}
	c.matrix.SetupElements()

	return nil
}

func (c *Circuit) Stamp(status *device.CircuitStatus) error {
	for _, dev := range c.devices {
		if err := dev.Stamp(c.matrix, status); err != nil {
			return fmt.Errorf("stamping device %s: %v", dev.GetName(), err)
		}
	}
	return nil
}

func (c *Circuit) SetTimeStep(dt float64) {
	c.timeStep = dt
	for _, dev := range c.devices {
		if td, ok := dev.(device.TimeDependent); ok {
			td.SetTimeStep(dt)
		}
	}
}

// Update commits the current solution as the devices' accepted state.
func (c *Circuit) Update(status *device.CircuitStatus) {
	solution := c.matrix.Solution()
	for _, dev := range c.devices {
		if td, ok := dev.(device.TimeDependent); ok {
			td.UpdateState(solution, status)
		}
	}
}

func (c *Circuit) UpdateNonlinearVoltages(solution []float64) error {
	for _, dev := range c.nonlinearDevices {
		if err := dev.UpdateVoltages(solution); err != nil {
			return fmt.Errorf("updating nonlinear voltages: %v", err)
		}
	}
	return nil
}

func (c *Circuit) HasNonlinearDevices() bool {
	return len(c.nonlinearDevices) > 0
}

func (c *Circuit) Matrix() *matrix.CircuitMatrix {
	return c.matrix
}

func (c *Circuit) NodeMap() map[string]int {
	return c.nodeMap
}

// NodeNames returns the non-ground node names in matrix-index order.
func (c *Circuit) NodeNames() []string {
	return c.nodeOrder
}

func (c *Circuit) BranchMap() map[string]int {
	return c.branchMap
}

// BranchNames returns the branch unknown owners in matrix-index order.
func (c *Circuit) BranchNames() []string {
	return c.branchOrder
}

func (c *Circuit) Devices() []device.Device {
	return c.devices
}

func (c *Circuit) FindDevice(name string) device.Device {
	for _, dev := range c.devices {
		if dev.GetName() == name {
			return dev
		}
	}
	return nil
}

func (c *Circuit) NumNodes() int {
	return len(c.nodeMap)
}

func (c *Circuit) MatrixSize() int {
	return len(c.nodeMap) + len(c.branchMap)
}

func (c *Circuit) NodeVoltage(nodeIdx int) float64 {
	if nodeIdx <= 0 {
		return 0
	}
	solution := c.matrix.Solution()
	if nodeIdx >= len(solution) {
		return 0
	}
	return solution[nodeIdx]
}

// Solution maps "V(node)" and "I(name)" labels to the latest solve. Branch
// currents follow the source convention: positive current flows out of the
// positive terminal. Resistor currents are derived from Ohm's law.
func (c *Circuit) Solution() map[string]float64 {
	solution := make(map[string]float64)
	matrixSolution := c.matrix.Solution()

	for name, idx := range c.nodeMap {
		solution[fmt.Sprintf("V(%s)", name)] = matrixSolution[idx]
	}

	for name, idx := range c.branchMap {
		solution[fmt.Sprintf("I(%s)", name)] = -matrixSolution[idx]
	}

	for _, dev := range c.devices {
		if dev.GetType() == "R" {
			nodes := dev.GetNodes()
			v1, v2 := 0.0, 0.0
			if nodes[0] > 0 {
				v1 = matrixSolution[nodes[0]]
			}
			if nodes[1] > 0 {
				v2 = matrixSolution[nodes[1]]
			}
			solution[fmt.Sprintf("I(%s)", dev.GetName())] = (v1 - v2) / dev.GetValue()
		}
	}

	return solution
}

func (c *Circuit) Name() string {
	return c.name
}

func (c *Circuit) Destroy() {
	if c.matrix != nil {
		c.matrix.Destroy()
	}
}

func isGround(nodeName string) bool {
	return nodeName == "0" || nodeName == "gnd"
}
