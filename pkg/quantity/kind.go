// Package quantity defines the closed set of physical quantity kinds used to
// tag simulation output vectors. The set and its ordinal order mirror the
// simulation_types enumeration shipped with ngspice (sim.h), which external
// tools encode numerically in rawfiles and result streams. Do not reorder or
// insert values.
package quantity

import "fmt"

// Kind classifies the physical dimension of a simulated quantity.
type Kind int

const (
	NoType Kind = iota // unknown or unset
	Time
	Frequency
	Voltage
	Current
	VoltageDensity
	CurrentDensity
	SqrVoltageDensity
	SqrCurrentDensity
	SqrVoltage
	SqrCurrent
	Pole
	Zero
	SParam
	Temperature
	Resistance
	Impedance
	Admittance
	Power
	Phase
	Decibel
	Capacitance
	Charge

	numKinds
)

// kindNames holds the canonical names, indexed by ordinal.
var kindNames = [numKinds]string{
	NoType:            "NO_TYPE",
	Time:              "TIME",
	Frequency:         "FREQUENCY",
	Voltage:           "VOLTAGE",
	Current:           "CURRENT",
	VoltageDensity:    "VOLTAGE_DENSITY",
	CurrentDensity:    "CURRENT_DENSITY",
	SqrVoltageDensity: "SQR_VOLTAGE_DENSITY",
	SqrCurrentDensity: "SQR_CURRENT_DENSITY",
	SqrVoltage:        "SQR_VOLTAGE",
	SqrCurrent:        "SQR_CURRENT",
	Pole:              "POLE",
	Zero:              "ZERO",
	SParam:            "SPARAM",
	Temperature:       "TEMPERATURE",
	Resistance:        "RESISTANCE",
	Impedance:         "IMPEDANCE",
	Admittance:        "ADMITTANCE",
	Power:             "POWER",
	Phase:             "PHASE",
	Decibel:           "DECIBEL",
	Capacitance:       "CAPACITANCE",
	Charge:            "CHARGE",
}

// rawNames holds the lowercase variable type names as they appear in ngspice
// rawfile "Variables:" sections.
var rawNames = [numKinds]string{
	NoType:            "notype",
	Time:              "time",
	Frequency:         "frequency",
	Voltage:           "voltage",
	Current:           "current",
	VoltageDensity:    "voltage-density",
	CurrentDensity:    "current-density",
	SqrVoltageDensity: "voltage^2-density",
	SqrCurrentDensity: "current^2-density",
	SqrVoltage:        "voltage^2",
	SqrCurrent:        "current^2",
	Pole:              "pole",
	Zero:              "zero",
	SParam:            "s-param",
	Temperature:       "temperature",
	Resistance:        "resistance",
	Impedance:         "impedance",
	Admittance:        "admittance",
	Power:             "power",
	Phase:             "phase",
	Decibel:           "decibel",
	Capacitance:       "capacitance",
	Charge:            "charge",
}

// kindUnits holds display units. Dimensionless kinds keep an empty string.
var kindUnits = [numKinds]string{
	Time:              "s",
	Frequency:         "Hz",
	Voltage:           "V",
	Current:           "A",
	VoltageDensity:    "V/sqrt(Hz)",
	CurrentDensity:    "A/sqrt(Hz)",
	SqrVoltageDensity: "V^2/Hz",
	SqrCurrentDensity: "A^2/Hz",
	SqrVoltage:        "V^2",
	SqrCurrent:        "A^2",
	Temperature:       "K",
	Resistance:        "Ohm",
	Impedance:         "Ohm",
	Admittance:        "Mho",
	Power:             "W",
	Phase:             "deg",
	Decibel:           "dB",
	Capacitance:       "F",
	Charge:            "C",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		m[kindNames[k]] = k
	}
	return m
}()

var kindsByRawName = func() map[string]Kind {
	m := make(map[string]Kind, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		m[rawNames[k]] = k
	}
	return m
}()

// Valid reports whether k is one of the defined quantity kinds.
func (k Kind) Valid() bool {
	return k >= 0 && k < numKinds
}

// String returns the canonical upper-snake name, e.g. "VOLTAGE".
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// RawName returns the lowercase variable type name used in rawfiles.
func (k Kind) RawName() string {
	if !k.Valid() {
		return rawNames[NoType]
	}
	return rawNames[k]
}

// Unit returns the display unit for k, or "" for dimensionless kinds.
func (k Kind) Unit() string {
	if !k.Valid() {
		return ""
	}
	return kindUnits[k]
}

// ParseKind maps a canonical name back to its Kind.
func ParseKind(name string) (Kind, error) {
	if k, ok := kindsByName[name]; ok {
		return k, nil
	}
	return NoType, fmt.Errorf("unknown quantity kind: %q", name)
}

// KindFromRawName maps a rawfile variable type name to its Kind. Unrecognized
// names map to NoType without error, matching ngspice's tolerant reader.
func KindFromRawName(name string) Kind {
	if k, ok := kindsByRawName[name]; ok {
		return k
	}
	return NoType
}

// Kinds returns all defined kinds in ordinal order.
func Kinds() []Kind {
	out := make([]Kind, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		out[k] = k
	}
	return out
}

// MarshalText encodes k as its canonical name.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid quantity kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText decodes a canonical name.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
