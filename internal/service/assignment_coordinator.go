package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
	appErrors "github.com/SadmanHussainChowdhury/community-complaint-api/pkg/errors"
)

type userDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type assignmentHistoryReader interface {
	ListByComplaint(ctx context.Context, complaintID string) ([]models.AssignmentRecord, error)
}

// AssignmentPlan describes the writes an assignment change needs. It is applied by the
// orchestrator inside the same compare-and-swap write as the complaint itself.
type AssignmentPlan struct {
	Changed     bool
	AssigneeID  *string
	CloseActive models.AssignmentStatus
	Record      *models.AssignmentRecord
}

// AssignmentCoordinator owns the complaint-to-staff relationship and its history.
type AssignmentCoordinator struct {
	users   userDirectory
	history assignmentHistoryReader
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
}

// NewAssignmentCoordinator constructs the coordinator.
func NewAssignmentCoordinator(users userDirectory, history assignmentHistoryReader, logger *zap.Logger) *AssignmentCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentCoordinator{
		users:   users,
		history: history,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// Plan computes an assignment (assigneeID set) or unassignment (assigneeID nil).
// Re-assigning the current assignee and unassigning an unassigned complaint are no-ops.
func (c *AssignmentCoordinator) Plan(ctx context.Context, actor models.Actor, complaint *models.Complaint, assigneeID *string, dueDate *time.Time, note string) (AssignmentPlan, error) {
	if actor.Role != models.RoleAdmin {
		return AssignmentPlan{}, appErrors.Clone(appErrors.ErrForbidden, "only admins can change assignments")
	}
	if complaint.Status.Terminal() {
		return AssignmentPlan{}, appErrors.Clone(appErrors.ErrComplaintClosed, "cannot change the assignment of a "+string(complaint.Status)+" complaint")
	}

	if assigneeID == nil {
		if complaint.AssigneeID == nil {
			return AssignmentPlan{}, nil
		}
		return AssignmentPlan{Changed: true, CloseActive: models.AssignmentStatusCancelled}, nil
	}

	if *assigneeID == complaint.Assignee() {
		return AssignmentPlan{}, nil
	}

	now := c.now()
	if dueDate != nil && !dueDate.After(now) {
		return AssignmentPlan{}, appErrors.WithFields(appErrors.ErrValidation, "invalid assignment",
			appErrors.FieldError{Field: "dueDate", Reason: "must be in the future"})
	}
	if err := c.ensureAssignable(ctx, *assigneeID); err != nil {
		return AssignmentPlan{}, err
	}

	id := *assigneeID
	var due *time.Time
	if dueDate != nil {
		d := dueDate.UTC()
		due = &d
	}
	return AssignmentPlan{
		Changed:     true,
		AssigneeID:  &id,
		CloseActive: models.AssignmentStatusCancelled,
		Record: &models.AssignmentRecord{
			ID:          c.newID(),
			ComplaintID: complaint.ID,
			AssigneeID:  id,
			AssignerID:  actor.ID,
			AssignedAt:  now,
			DueDate:     due,
			Status:      models.AssignmentStatusActive,
			Note:        note,
		},
	}, nil
}

func (c *AssignmentCoordinator) ensureAssignable(ctx context.Context, userID string) error {
	user, err := c.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.WithFields(appErrors.ErrValidation, "invalid assignee",
				appErrors.FieldError{Field: "assigneeId", Reason: "user does not exist"})
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignee")
	}
	if user.Role != models.RoleStaff || !user.Active {
		return appErrors.WithFields(appErrors.ErrValidation, "invalid assignee",
			appErrors.FieldError{Field: "assigneeId", Reason: "must be an active staff member"})
	}
	return nil
}

// History returns the append-only assignment log; visible to admins and the current assignee.
func (c *AssignmentCoordinator) History(ctx context.Context, actor models.Actor, complaint *models.Complaint) ([]models.AssignmentRecord, error) {
	if actor.Role != models.RoleAdmin && (actor.ID == "" || actor.ID != complaint.Assignee()) {
		return nil, appErrors.ErrForbidden
	}
	records, err := c.history.ListByComplaint(ctx, complaint.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	if records == nil {
		records = []models.AssignmentRecord{}
	}
	return records, nil
}
