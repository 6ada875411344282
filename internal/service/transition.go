package service

import (
	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
	appErrors "github.com/SadmanHussainChowdhury/community-complaint-api/pkg/errors"
)

// TransitionActor describes how the acting user relates to the complaint.
type TransitionActor struct {
	IsAdmin     bool
	IsAssignee  bool
	IsSubmitter bool
	// Unassigned is true when the complaint has no current assignee.
	Unassigned bool
}

// RelationOf derives the transition relation for actor on complaint.
func RelationOf(actor models.Actor, complaint *models.Complaint) TransitionActor {
	return TransitionActor{
		IsAdmin:     actor.Role == models.RoleAdmin,
		IsAssignee:  actor.ID != "" && actor.ID == complaint.Assignee(),
		IsSubmitter: actor.ID != "" && actor.ID == complaint.SubmitterID,
		Unassigned:  complaint.AssigneeID == nil,
	}
}

// TransitionEffect lists what must happen alongside an accepted transition.
type TransitionEffect struct {
	NoOp            bool
	StampResolvedAt bool
	// CloseAssignment is the status the active assignment record moves to, if any.
	CloseAssignment models.AssignmentStatus
}

type transitionGuard func(TransitionActor) bool

var transitionEdges = map[models.ComplaintStatus]map[models.ComplaintStatus]transitionGuard{
	models.ComplaintStatusPending: {
		models.ComplaintStatusInProgress: assigneeOrAdmin,
		models.ComplaintStatusCancelled: func(a TransitionActor) bool {
			return a.IsAdmin || (a.IsSubmitter && a.Unassigned)
		},
	},
	models.ComplaintStatusInProgress: {
		models.ComplaintStatusResolved: assigneeOrAdmin,
		models.ComplaintStatusPending:  func(a TransitionActor) bool { return a.IsAdmin },
	},
}

func assigneeOrAdmin(a TransitionActor) bool {
	return a.IsAdmin || a.IsAssignee
}

// IsLegalTransition reports whether from -> to is an edge of the state machine,
// ignoring who performs it. Same-status resubmission is always legal.
func IsLegalTransition(from, to models.ComplaintStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	_, ok := transitionEdges[from][to]
	return ok
}

// ValidateTransition checks that actor may move a complaint from one status to another.
// Illegal edges yield INVALID_TRANSITION; legal edges the actor may not take yield FORBIDDEN.
func ValidateTransition(from, to models.ComplaintStatus, actor TransitionActor) (TransitionEffect, error) {
	if !to.Valid() {
		return TransitionEffect{}, appErrors.WithFields(appErrors.ErrValidation, "unknown status",
			appErrors.FieldError{Field: string(models.FieldStatus), Reason: "must be one of pending, in_progress, resolved, cancelled"})
	}
	if from == to {
		return TransitionEffect{NoOp: true}, nil
	}

	guard, ok := transitionEdges[from][to]
	if !ok {
		return TransitionEffect{}, appErrors.InvalidTransition(string(from), string(to))
	}
	if !guard(actor) {
		return TransitionEffect{}, appErrors.WithFields(appErrors.ErrForbidden, "not permitted to perform this transition",
			appErrors.FieldError{Field: string(models.FieldStatus), Reason: string(from) + " -> " + string(to) + " requires a different role"})
	}

	effect := TransitionEffect{}
	switch to {
	case models.ComplaintStatusResolved:
		effect.StampResolvedAt = true
		effect.CloseAssignment = models.AssignmentStatusCompleted
	case models.ComplaintStatusCancelled:
		effect.CloseAssignment = models.AssignmentStatusCancelled
	}
	return effect, nil
}
