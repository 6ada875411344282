package models

import "time"

// ComplaintEventKind classifies an accepted mutation.
type ComplaintEventKind string

const (
	EventComplaintCreated  ComplaintEventKind = "created"
	EventComplaintUpdated  ComplaintEventKind = "updated"
	EventStatusChanged     ComplaintEventKind = "status_changed"
	EventAssigned          ComplaintEventKind = "assigned"
	EventUnassigned        ComplaintEventKind = "unassigned"
	EventNoteAdded         ComplaintEventKind = "note_added"
	EventFeedbackSubmitted ComplaintEventKind = "feedback_submitted"
)

// FieldChange is one entry of a field-level diff.
type FieldChange struct {
	Field ComplaintField `json:"field"`
	From  interface{}    `json:"from,omitempty"`
	To    interface{}    `json:"to,omitempty"`
}

// ComplaintEvent is handed to the side-effect dispatcher after a mutation commits.
type ComplaintEvent struct {
	Kinds      []ComplaintEventKind `json:"kinds"`
	ActorID    string               `json:"actorId"`
	Complaint  *Complaint           `json:"complaint"`
	Changes    []FieldChange        `json:"changes"`
	Assignment *AssignmentRecord    `json:"assignment,omitempty"`
	OccurredAt time.Time            `json:"occurredAt"`
}

// Has reports whether the event includes the given kind.
func (e ComplaintEvent) Has(kind ComplaintEventKind) bool {
	for _, k := range e.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Change returns the diff entry for the field, if any.
func (e ComplaintEvent) Change(field ComplaintField) (FieldChange, bool) {
	for _, c := range e.Changes {
		if c.Field == field {
			return c, true
		}
	}
	return FieldChange{}, false
}

// RealtimeMessage is the payload published on a complaint's live topic.
type RealtimeMessage struct {
	Type      ComplaintEventKind   `json:"type"`
	Kinds     []ComplaintEventKind `json:"kinds"`
	Version   int64                `json:"version"`
	Complaint *Complaint           `json:"complaint"`
	Changes   []FieldChange        `json:"changes"`
	SentAt    time.Time            `json:"sentAt"`
}

// ComplaintTopic names the real-time topic of a complaint.
func ComplaintTopic(prefix, complaintID string) string {
	if prefix == "" {
		return complaintID
	}
	return prefix + ":" + complaintID
}
