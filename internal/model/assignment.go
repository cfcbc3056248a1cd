package model

import "time"

// Assignment links one item to one person. History is append-only.
type Assignment struct {
	ID             int64          `json:"id"`
	ItemID         int64          `json:"itemId"`
	PersonnelID    int64          `json:"personnelId"`
	Status         Status         `json:"status"`
	AssignmentDate Date           `json:"assignmentDate"`
	ReturnDate     Date           `json:"returnDate"`
	Notes          string         `json:"notes,omitempty"`
	SignedForm     string         `json:"signedForm,omitempty"`
	Version        int64          `json:"version"`
	CreatedBy      *int64         `json:"createdBy,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	History        []HistoryEntry `json:"history,omitempty"`

	// Joined fields (not always populated).
	Item      *Item      `json:"item,omitempty"`
	Personnel *Personnel `json:"personnel,omitempty"`
}

// History actions.
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionApproved = "approved"
)

// HistoryEntry is one committed change set of an assignment.
type HistoryEntry struct {
	Seq             int       `json:"seq"`
	Action          string    `json:"action"`
	At              time.Time `json:"at"`
	ActorID         *int64    `json:"actorId,omitempty"`
	ActorName       string    `json:"actorName,omitempty"`
	RegistryVersion int       `json:"registryVersion"`
	Changes         []Change  `json:"changes"`
}

// Change events that replace a plain from/to pair.
const (
	EventFormAttached = "formAttached"
)

// Change is a single field difference. From and To are canonical values:
// a string, or nil when the field was empty.
type Change struct {
	Field string `json:"field"`
	From  any    `json:"from"`
	To    any    `json:"to"`
	Event string `json:"event,omitempty"`
}

// PersonnelGroup is a computed view of one person's assignments. It is never
// stored.
type PersonnelGroup struct {
	Personnel   Personnel    `json:"personnel"`
	Assignments []Assignment `json:"assignments"`
}

// PendingGroup is a PersonnelGroup holding only pending assignments.
type PendingGroup = PersonnelGroup

// Actor identifies who performs an operation.
type Actor struct {
	ID   *int64
	Name string
}
