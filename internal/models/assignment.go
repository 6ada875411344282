package models

import "time"

// AssignmentStatus tracks an assignment record independently of complaint status.
type AssignmentStatus string

const (
	AssignmentStatusActive    AssignmentStatus = "active"
	AssignmentStatusCompleted AssignmentStatus = "completed"
	AssignmentStatusCancelled AssignmentStatus = "cancelled"
)

// AssignmentRecord is an append-only history entry binding a complaint to a staff member.
// The complaint's AssigneeID remains the source of truth for the current owner.
type AssignmentRecord struct {
	ID          string           `db:"id" json:"id"`
	ComplaintID string           `db:"complaint_id" json:"complaintId"`
	AssigneeID  string           `db:"assignee_id" json:"assigneeId"`
	AssignerID  string           `db:"assigner_id" json:"assignerId"`
	AssignedAt  time.Time        `db:"assigned_at" json:"assignedAt"`
	DueDate     *time.Time       `db:"due_date" json:"dueDate,omitempty"`
	Status      AssignmentStatus `db:"status" json:"status"`
	Note        string           `db:"note" json:"note,omitempty"`
}
