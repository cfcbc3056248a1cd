package model

// Status is the lifecycle state of an assignment.
type Status string

// Assignment statuses.
const (
	StatusPending  Status = "pending"
	StatusAssigned Status = "assigned"
	StatusReturned Status = "returned"
	StatusFaulty   Status = "faulty"
	StatusScrapped Status = "scrapped"
)

// Statuses lists every assignment status.
var Statuses = []Status{StatusPending, StatusAssigned, StatusReturned, StatusFaulty, StatusScrapped}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Active reports whether an assignment in status s still holds its item and
// personnel: such references block deletion of either.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusAssigned || s == StatusFaulty
}

// DisplayStatus is the status shown for an item, derived from its assignments.
type DisplayStatus string

// Display statuses. DisplayIdle covers items without an active assignment.
const (
	DisplayAssigned DisplayStatus = DisplayStatus(StatusAssigned)
	DisplayFaulty   DisplayStatus = DisplayStatus(StatusFaulty)
	DisplayPending  DisplayStatus = DisplayStatus(StatusPending)
	DisplayScrapped DisplayStatus = DisplayStatus(StatusScrapped)
	DisplayIdle     DisplayStatus = "idle"
)

// Label returns the user-facing label of a display status.
func (d DisplayStatus) Label() string {
	switch d {
	case DisplayAssigned:
		return "Zimmetli"
	case DisplayFaulty:
		return "Arızalı"
	case DisplayPending:
		return "Onay Bekliyor"
	case DisplayScrapped:
		return "Hurda"
	default:
		return "Boşta"
	}
}
