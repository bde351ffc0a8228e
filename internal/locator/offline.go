package locator

// OfflineFacility is a bundled reference entry shown when live lookup is
// not possible. DistanceLabel is authored text, never computed.
type OfflineFacility struct {
	Name          string       `json:"name"`
	Type          FacilityType `json:"type"`
	DistanceLabel string       `json:"distance_label"`
}

// offlineFacilities is read-only; callers receive copies via OfflineTable.
var offlineFacilities = []OfflineFacility{
	{Name: "Primary Health Centre (PHC) - Nearest Block", Type: TypePHC, DistanceLabel: "2-5 km"},
	{Name: "Community Health Centre (CHC) - Tehsil HQ", Type: TypeCHC, DistanceLabel: "8-15 km"},
	{Name: "District Government Hospital", Type: TypeHospital, DistanceLabel: "15-30 km"},
	{Name: "Sub-District Hospital", Type: TypeHospital, DistanceLabel: "10-20 km"},
	{Name: "Ayushman Arogya Mandir (Health & Wellness Centre)", Type: TypePHC, DistanceLabel: "1-3 km"},
}

// OfflineTable returns a copy of the bundled offline dataset in authored order.
func OfflineTable() []OfflineFacility {
	out := make([]OfflineFacility, len(offlineFacilities))
	copy(out, offlineFacilities)
	return out
}
