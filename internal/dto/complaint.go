package dto

import (
	"time"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
)

// CreateComplaintRequest is the payload for filing a complaint.
type CreateComplaintRequest struct {
	Title       string                   `json:"title" validate:"required,min=3,max=200"`
	Description string                   `json:"description" validate:"required,min=10,max=5000"`
	Category    models.ComplaintCategory `json:"category" validate:"required,oneof=maintenance noise security cleanliness parking utilities other"`
	Priority    models.ComplaintPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Attachments []string                 `json:"attachments" validate:"max=10,dive,required,max=512"`
	// SubmitterID lets an admin file on behalf of a resident. Residents always file as themselves.
	SubmitterID string `json:"submitterId,omitempty"`
}

// AssigneePatch changes the assignee. A null assigneeId unassigns.
type AssigneePatch struct {
	AssigneeID *string    `json:"assigneeId"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
	Note       string     `json:"note,omitempty" validate:"max=1000"`
}

// NotePatch appends a note.
type NotePatch struct {
	Content  string `json:"content" validate:"required,min=1,max=2000"`
	Internal bool   `json:"internal"`
}

// FeedbackPatch records the submitter's rating.
type FeedbackPatch struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=1000"`
}

// UpdateComplaintRequest is a partial update. Absent fields are left untouched.
type UpdateComplaintRequest struct {
	ExpectedVersion *int64                    `json:"expectedVersion,omitempty" validate:"omitempty,min=0"`
	Title           *string                   `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description     *string                   `json:"description,omitempty" validate:"omitempty,min=10,max=5000"`
	Category        *models.ComplaintCategory `json:"category,omitempty" validate:"omitempty,oneof=maintenance noise security cleanliness parking utilities other"`
	Priority        *models.ComplaintPriority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	Attachments     *[]string                 `json:"attachments,omitempty" validate:"omitempty,max=10,dive,required,max=512"`
	Status          *models.ComplaintStatus   `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress resolved cancelled"`
	Assignee        *AssigneePatch            `json:"assignee,omitempty"`
	Note            *NotePatch                `json:"note,omitempty"`
	Feedback        *FeedbackPatch            `json:"feedback,omitempty"`
}

// Fields returns the complaint fields the request touches.
func (r UpdateComplaintRequest) Fields() models.FieldSet {
	set := models.FieldSet{}
	add := func(present bool, f models.ComplaintField) {
		if present {
			set[f] = struct{}{}
		}
	}
	add(r.Title != nil, models.FieldTitle)
	add(r.Description != nil, models.FieldDescription)
	add(r.Category != nil, models.FieldCategory)
	add(r.Priority != nil, models.FieldPriority)
	add(r.Attachments != nil, models.FieldAttachments)
	add(r.Status != nil, models.FieldStatus)
	add(r.Assignee != nil, models.FieldAssignee)
	add(r.Note != nil, models.FieldNotes)
	add(r.Feedback != nil, models.FieldFeedback)
	return set
}

// AssignComplaintRequest assigns a complaint to a staff member.
type AssignComplaintRequest struct {
	ExpectedVersion *int64     `json:"expectedVersion,omitempty" validate:"omitempty,min=0"`
	AssigneeID      string     `json:"assigneeId" validate:"required"`
	DueDate         *time.Time `json:"dueDate,omitempty"`
	Note            string     `json:"note,omitempty" validate:"max=1000"`
}

// UnassignComplaintRequest clears the assignee.
type UnassignComplaintRequest struct {
	ExpectedVersion *int64 `json:"expectedVersion,omitempty" validate:"omitempty,min=0"`
}

// AddNoteRequest appends a note.
type AddNoteRequest struct {
	ExpectedVersion *int64 `json:"expectedVersion,omitempty" validate:"omitempty,min=0"`
	Content         string `json:"content" validate:"required,min=1,max=2000"`
	Internal        bool   `json:"internal"`
}

// SubmitFeedbackRequest rates a resolved complaint.
type SubmitFeedbackRequest struct {
	ExpectedVersion *int64 `json:"expectedVersion,omitempty" validate:"omitempty,min=0"`
	Rating          int    `json:"rating" validate:"required,min=1,max=5"`
	Comment         string `json:"comment,omitempty" validate:"max=1000"`
}

// AssignmentResult is returned by assignment operations.
type AssignmentResult struct {
	Complaint  *models.Complaint        `json:"complaint"`
	Assignment *models.AssignmentRecord `json:"assignment,omitempty"`
}
