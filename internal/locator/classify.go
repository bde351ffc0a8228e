package locator

import "strings"

// FacilityType is the badge shown for a facility.
type FacilityType string

const (
	TypePHC      FacilityType = "PHC"
	TypeCHC      FacilityType = "CHC"
	TypeHospital FacilityType = "Hospital"
)

// Classify derives the facility type from its display name. The checks run
// in fixed order, so a name mentioning both "phc" and "chc" is a PHC.
// Only the name is consulted; amenity tags are ignored.
func Classify(name string) FacilityType {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "phc"):
		return TypePHC
	case strings.Contains(n, "chc"):
		return TypeCHC
	default:
		return TypeHospital
	}
}
