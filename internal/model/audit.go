package model

import "time"

// AuditEvent is an action-level record of who did what.
type AuditEvent struct {
	ID         string    `json:"id"`
	At         time.Time `json:"at"`
	ActorID    *int64    `json:"actorId,omitempty"`
	ActorName  string    `json:"actorName,omitempty"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityIDs  []int64   `json:"entityIds"`
	Detail     string    `json:"detail,omitempty"`
}

// Audit actions.
const (
	AuditAssignmentCreated  = "assignment.created"
	AuditAssignmentUpdated  = "assignment.updated"
	AuditAssignmentDeleted  = "assignment.deleted"
	AuditAssignmentApproved = "assignment.approved"
	AuditAssignmentRejected = "assignment.rejected"
	AuditItemCreated        = "item.created"
	AuditItemUpdated        = "item.updated"
	AuditItemDeleted        = "item.deleted"
	AuditPersonnelCreated   = "personnel.created"
	AuditPersonnelUpdated   = "personnel.updated"
	AuditPersonnelDeleted   = "personnel.deleted"
	AuditFormUploaded       = "form.uploaded"
)
