package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ComplaintStatus captures the lifecycle state of a complaint.
type ComplaintStatus string

const (
	ComplaintStatusPending    ComplaintStatus = "pending"
	ComplaintStatusInProgress ComplaintStatus = "in_progress"
	ComplaintStatusResolved   ComplaintStatus = "resolved"
	ComplaintStatusCancelled  ComplaintStatus = "cancelled"
)

// ComplaintStatuses lists every known status in lifecycle order.
var ComplaintStatuses = []ComplaintStatus{
	ComplaintStatusPending,
	ComplaintStatusInProgress,
	ComplaintStatusResolved,
	ComplaintStatusCancelled,
}

// Valid reports whether the status is one of the known values.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintStatusPending, ComplaintStatusInProgress, ComplaintStatusResolved, ComplaintStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further status transitions are permitted.
func (s ComplaintStatus) Terminal() bool {
	return s == ComplaintStatusResolved || s == ComplaintStatusCancelled
}

// ComplaintPriority ranks complaint urgency.
type ComplaintPriority string

const (
	PriorityLow    ComplaintPriority = "low"
	PriorityMedium ComplaintPriority = "medium"
	PriorityHigh   ComplaintPriority = "high"
	PriorityUrgent ComplaintPriority = "urgent"
)

// Valid reports whether the priority is one of the known values.
func (p ComplaintPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ComplaintCategory groups complaints by subject area.
type ComplaintCategory string

const (
	CategoryMaintenance ComplaintCategory = "maintenance"
	CategoryNoise       ComplaintCategory = "noise"
	CategorySecurity    ComplaintCategory = "security"
	CategoryCleanliness ComplaintCategory = "cleanliness"
	CategoryParking     ComplaintCategory = "parking"
	CategoryUtilities   ComplaintCategory = "utilities"
	CategoryOther       ComplaintCategory = "other"
)

// Valid reports whether the category is one of the known values.
func (c ComplaintCategory) Valid() bool {
	switch c {
	case CategoryMaintenance, CategoryNoise, CategorySecurity, CategoryCleanliness,
		CategoryParking, CategoryUtilities, CategoryOther:
		return true
	}
	return false
}

// Note is a comment appended to a complaint. Internal notes are hidden from residents.
type Note struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"authorId"`
	Internal  bool      `json:"internal"`
	CreatedAt time.Time `json:"createdAt"`
}

// Feedback is the submitter's rating of a resolved complaint.
type Feedback struct {
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Complaint is the central work item tracked from submission to resolution.
type Complaint struct {
	ID          string            `db:"id" json:"id"`
	Title       string            `db:"title" json:"title"`
	Description string            `db:"description" json:"description"`
	Category    ComplaintCategory `db:"category" json:"category"`
	Priority    ComplaintPriority `db:"priority" json:"priority"`
	Status      ComplaintStatus   `db:"status" json:"status"`
	SubmitterID string            `db:"submitter_id" json:"submitterId"`
	AssigneeID  *string           `db:"assignee_id" json:"assigneeId,omitempty"`
	Notes       Notes             `db:"notes" json:"notes"`
	Attachments Attachments       `db:"attachments" json:"attachments"`
	ResolvedAt  *time.Time        `db:"resolved_at" json:"resolvedAt,omitempty"`
	Feedback    *Feedback         `db:"feedback" json:"feedback,omitempty"`
	Version     int64             `db:"version" json:"version"`
	CreatedAt   time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updatedAt"`
}

// Assignee returns the current assignee or an empty string.
func (c *Complaint) Assignee() string {
	if c == nil || c.AssigneeID == nil {
		return ""
	}
	return *c.AssigneeID
}

// ReadableBy reports whether actor may read the complaint: admins always, staff while
// they hold the assignment, residents when they submitted it.
func (c *Complaint) ReadableBy(actor Actor) bool {
	if c == nil || actor.ID == "" {
		return false
	}
	switch actor.Role {
	case RoleAdmin:
		return true
	case RoleStaff:
		return actor.ID == c.Assignee()
	case RoleResident:
		return actor.ID == c.SubmitterID
	}
	return false
}

// Clone returns a deep copy so callers can build the next state without touching the loaded one.
func (c *Complaint) Clone() *Complaint {
	if c == nil {
		return nil
	}
	out := *c
	if c.AssigneeID != nil {
		v := *c.AssigneeID
		out.AssigneeID = &v
	}
	if c.ResolvedAt != nil {
		v := *c.ResolvedAt
		out.ResolvedAt = &v
	}
	if c.Feedback != nil {
		v := *c.Feedback
		out.Feedback = &v
	}
	out.Notes = append(Notes(nil), c.Notes...)
	out.Attachments = append(Attachments(nil), c.Attachments...)
	return &out
}

// VisibleTo returns the snapshot as seen by the given role; residents never see internal notes.
func (c *Complaint) VisibleTo(role UserRole) *Complaint {
	if c == nil {
		return nil
	}
	out := c.Clone()
	if role != RoleResident {
		return out
	}
	public := make(Notes, 0, len(out.Notes))
	for _, n := range out.Notes {
		if !n.Internal {
			public = append(public, n)
		}
	}
	out.Notes = public
	return out
}

// Notes is stored as a JSONB array.
type Notes []Note

// Value implements driver.Valuer.
func (n Notes) Value() (driver.Value, error) {
	if n == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(n)
}

// Scan implements sql.Scanner.
func (n *Notes) Scan(src interface{}) error {
	return scanJSON(src, n)
}

// Attachments holds opaque references produced by the attachment store.
type Attachments []string

// Value implements driver.Valuer.
func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner.
func (a *Attachments) Scan(src interface{}) error {
	return scanJSON(src, a)
}

// Value implements driver.Valuer.
func (f Feedback) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// Scan implements sql.Scanner.
func (f *Feedback) Scan(src interface{}) error {
	return scanJSON(src, f)
}

func scanJSON(src interface{}, dest interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
}
