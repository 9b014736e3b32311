package matrix

// DeviceMatrix is the stamping surface devices see. All indices are 1-based;
// contributions accumulate.
type DeviceMatrix interface {
	AddElement(i, j int, value float64)
	AddRHS(i int, value float64)
	AddComplexElement(i, j int, real, imag float64)
	AddComplexRHS(i int, real, imag float64)
}
