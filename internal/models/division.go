package models

// Division partitions teams and matches into competition pools. Matches are
// always played inside one division; refereeing may cross divisions.
type Division string

const (
	DivisionMixed    Division = "mixed"
	DivisionGendered Division = "gendered"
	DivisionCloth    Division = "cloth"
)

// Divisions lists every known division in display order.
var Divisions = []Division{DivisionMixed, DivisionGendered, DivisionCloth}

// Valid reports whether the division is one of the known pools.
func (d Division) Valid() bool {
	switch d {
	case DivisionMixed, DivisionGendered, DivisionCloth:
		return true
	}
	return false
}

// ActivityType distinguishes real fixtures from administrative activities.
type ActivityType string

const (
	ActivityRegular     ActivityType = "REGULAR"
	ActivitySetup       ActivityType = "SETUP"
	ActivityPackingDown ActivityType = "PACKING_DOWN"
)

// Special reports whether the activity anchors the start or end of the day.
// Special activities are implicitly locked and never moved by the optimizer.
func (a ActivityType) Special() bool {
	return a == ActivitySetup || a == ActivityPackingDown
}
