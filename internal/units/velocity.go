// Package units provides shared constants and validation for speed units
package units

// Unit constants
const (
	MPS     = "mps"
	KMPH    = "kmph"
	KPH     = "kph"
	MPERMIN = "mpermin"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, KMPH, KPH, MPERMIN}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "mps, kmph, kph, mpermin"
}

// ConvertSpeed converts a speed from meters per second to the target units.
// All computed intensities are stored in m/s; m/min is the unit sports
// scientists report peak locomotor demands in.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPS:
		return speedMPS
	case KMPH, KPH:
		return speedMPS * 3.6
	case MPERMIN:
		return speedMPS * 60.0
	default:
		return speedMPS
	}
}
