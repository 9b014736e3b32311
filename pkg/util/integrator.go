package util

// Companion-model coefficients for the implicit integrators used in transient
// analysis. For a capacitor, geq = CompanionCoeff(method, dt) * C; the inductor
// branch equation uses the same factor with L.
type IntegrationMethod int

const (
	BackwardEuler IntegrationMethod = iota
	Trapezoidal
)

// CompanionCoeff returns 1/dt for backward Euler, 2/dt for trapezoidal.
func CompanionCoeff(method IntegrationMethod, dt float64) float64 {
	if dt <= 0 {
		dt = 1e-9
	}
	if method == Trapezoidal {
		return 2.0 / dt
	}
	return 1.0 / dt
}
