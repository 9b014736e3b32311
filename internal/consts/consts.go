package consts

// Physical constants used by the device models.
const (
	CHARGE    = 1.6021918e-19 // elementary charge (C)
	BOLTZMANN = 1.3806226e-23 // Boltzmann constant (J/K)
	KELVIN    = 273.15        // 0 degC in K
)
