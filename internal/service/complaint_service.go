package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/dto"
	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/repository"
	appErrors "github.com/SadmanHussainChowdhury/community-complaint-api/pkg/errors"
	applog "github.com/SadmanHussainChowdhury/community-complaint-api/pkg/logger"
)

const (
	opCreate   = "create"
	opApply    = "apply"
	opAssign   = "assign"
	opUnassign = "unassign"
	opNote     = "add_note"
	opFeedback = "submit_feedback"

	outcomeCommitted = "committed"
	outcomeNoop      = "noop"
	outcomeConflict  = "conflict"
	outcomeRejected  = "rejected"
	outcomeFailed    = "failed"
)

type complaintStore interface {
	Create(ctx context.Context, complaint *models.Complaint) error
	GetByID(ctx context.Context, id string) (*models.Complaint, error)
	Write(ctx context.Context, w repository.ComplaintWrite) error
}

// SideEffectDispatcher receives committed mutations. Implementations must not block.
type SideEffectDispatcher interface {
	Dispatch(event models.ComplaintEvent)
}

// ComplaintServiceOption configures the service.
type ComplaintServiceOption func(*ComplaintService)

// WithComplaintClock overrides the time source.
func WithComplaintClock(now func() time.Time) ComplaintServiceOption {
	return func(s *ComplaintService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithComplaintIDGenerator overrides id generation for complaints and notes.
func WithComplaintIDGenerator(newID func() string) ComplaintServiceOption {
	return func(s *ComplaintService) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithComplaintMetrics attaches Prometheus counters.
func WithComplaintMetrics(metrics *MetricsService) ComplaintServiceOption {
	return func(s *ComplaintService) {
		s.metrics = metrics
	}
}

// ComplaintService is the single entry point for complaint mutations. Every accepted
// change is written with a version compare-and-swap and then handed to the dispatcher.
type ComplaintService struct {
	store       complaintStore
	assignments *AssignmentCoordinator
	dispatcher  SideEffectDispatcher
	validator   *validator.Validate
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
	newID       func() string
}

// NewComplaintService wires the orchestrator.
func NewComplaintService(store complaintStore, assignments *AssignmentCoordinator, dispatcher SideEffectDispatcher, validate *validator.Validate, logger *zap.Logger, opts ...ComplaintServiceOption) *ComplaintService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ComplaintService{
		store:       store,
		assignments: assignments,
		dispatcher:  dispatcher,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create files a new complaint in pending state at version 0.
func (s *ComplaintService) Create(ctx context.Context, actor models.Actor, req dto.CreateComplaintRequest) (*models.Complaint, error) {
	if actor.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleResident && actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only residents and admins can file complaints")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid complaint payload")
	}

	submitter := actor.ID
	if req.SubmitterID != "" && req.SubmitterID != actor.ID {
		if actor.Role != models.RoleAdmin {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "residents can only file complaints for themselves")
		}
		submitter = req.SubmitterID
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	now := s.now()
	complaint := &models.Complaint{
		ID:          s.newID(),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    priority,
		Status:      models.ComplaintStatusPending,
		SubmitterID: submitter,
		Notes:       models.Notes{},
		Attachments: append(models.Attachments{}, req.Attachments...),
		Version:     0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, complaint); err != nil {
		s.metrics.RecordMutation(opCreate, outcomeFailed)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create complaint")
	}
	s.metrics.RecordMutation(opCreate, outcomeCommitted)

	s.dispatch(models.ComplaintEvent{
		Kinds:      []models.ComplaintEventKind{models.EventComplaintCreated},
		ActorID:    actor.ID,
		Complaint:  complaint.Clone(),
		Changes:    []models.FieldChange{},
		OccurredAt: now,
	})
	return complaint.VisibleTo(actor.Role), nil
}

// Get returns the complaint as the actor is allowed to see it.
func (s *ComplaintService) Get(ctx context.Context, actor models.Actor, id string) (*models.Complaint, error) {
	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, complaint) {
		return nil, appErrors.ErrForbidden
	}
	return complaint.VisibleTo(actor.Role), nil
}

// Assignments returns the assignment history of a complaint.
func (s *ComplaintService) Assignments(ctx context.Context, actor models.Actor, id string) ([]models.AssignmentRecord, error) {
	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.assignments.History(ctx, actor, complaint)
}

// Apply validates and commits a partial update. A patch that changes nothing is
// acknowledged without a write, a version bump, or side effects.
func (s *ComplaintService) Apply(ctx context.Context, actor models.Actor, id string, req dto.UpdateComplaintRequest) (*models.Complaint, error) {
	res, err := s.mutate(ctx, opApply, actor, id, req)
	if err != nil {
		return nil, err
	}
	return res.complaint, nil
}

// Assign hands the complaint to a staff member, superseding any active assignment.
func (s *ComplaintService) Assign(ctx context.Context, actor models.Actor, id string, req dto.AssignComplaintRequest) (*dto.AssignmentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid assignment payload")
	}
	assignee := req.AssigneeID
	res, err := s.mutate(ctx, opAssign, actor, id, dto.UpdateComplaintRequest{
		ExpectedVersion: req.ExpectedVersion,
		Assignee:        &dto.AssigneePatch{AssigneeID: &assignee, DueDate: req.DueDate, Note: req.Note},
	})
	if err != nil {
		return nil, err
	}
	return &dto.AssignmentResult{Complaint: res.complaint, Assignment: res.assignment}, nil
}

// Unassign clears the assignee and cancels the active assignment record.
func (s *ComplaintService) Unassign(ctx context.Context, actor models.Actor, id string, req dto.UnassignComplaintRequest) (*models.Complaint, error) {
	res, err := s.mutate(ctx, opUnassign, actor, id, dto.UpdateComplaintRequest{
		ExpectedVersion: req.ExpectedVersion,
		Assignee:        &dto.AssigneePatch{},
	})
	if err != nil {
		return nil, err
	}
	return res.complaint, nil
}

// AddNote appends a note to the complaint.
func (s *ComplaintService) AddNote(ctx context.Context, actor models.Actor, id string, req dto.AddNoteRequest) (*models.Complaint, error) {
	res, err := s.mutate(ctx, opNote, actor, id, dto.UpdateComplaintRequest{
		ExpectedVersion: req.ExpectedVersion,
		Note:            &dto.NotePatch{Content: req.Content, Internal: req.Internal},
	})
	if err != nil {
		return nil, err
	}
	return res.complaint, nil
}

// SubmitFeedback records the submitter's rating once the complaint is resolved.
func (s *ComplaintService) SubmitFeedback(ctx context.Context, actor models.Actor, id string, req dto.SubmitFeedbackRequest) (*models.Complaint, error) {
	res, err := s.mutate(ctx, opFeedback, actor, id, dto.UpdateComplaintRequest{
		ExpectedVersion: req.ExpectedVersion,
		Feedback:        &dto.FeedbackPatch{Rating: req.Rating, Comment: req.Comment},
	})
	if err != nil {
		return nil, err
	}
	return res.complaint, nil
}

type mutationResult struct {
	complaint  *models.Complaint
	assignment *models.AssignmentRecord
}

// changeSet accumulates the next state and the diff that produced it.
type changeSet struct {
	next        *models.Complaint
	kinds       []models.ComplaintEventKind
	changes     []models.FieldChange
	closeActive models.AssignmentStatus
	record      *models.AssignmentRecord
}

func (c *changeSet) diff(field models.ComplaintField, from, to interface{}) {
	c.changes = append(c.changes, models.FieldChange{Field: field, From: from, To: to})
}

func (c *changeSet) addKind(kind models.ComplaintEventKind) {
	for _, k := range c.kinds {
		if k == kind {
			return
		}
	}
	c.kinds = append(c.kinds, kind)
}

func (s *ComplaintService) mutate(ctx context.Context, op string, actor models.Actor, id string, req dto.UpdateComplaintRequest) (*mutationResult, error) {
	res, err := s.mutateOnce(ctx, op, actor, id, req)
	switch {
	case err == nil:
	case errors.Is(err, appErrors.ErrVersionConflict):
		s.metrics.RecordMutation(op, outcomeConflict)
	case appErrors.FromError(err).Status >= http.StatusInternalServerError:
		s.metrics.RecordMutation(op, outcomeFailed)
	default:
		s.metrics.RecordMutation(op, outcomeRejected)
	}
	return res, err
}

func (s *ComplaintService) mutateOnce(ctx context.Context, op string, actor models.Actor, id string, req dto.UpdateComplaintRequest) (*mutationResult, error) {
	if actor.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid complaint update")
	}
	requested := req.Fields()
	if len(requested) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no changes requested")
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ExpectedVersion != nil && *req.ExpectedVersion != current.Version {
		return nil, appErrors.Clone(appErrors.ErrVersionConflict, "")
	}

	// Resubmitting the current status is always a no-op for anyone who may read it.
	if req.Status != nil && *req.Status == current.Status && CanView(actor, current) {
		delete(requested, models.FieldStatus)
	}

	decision := ResolvePolicy(actor, current, requested)
	if !decision.Permits() {
		return nil, forbiddenFields(decision)
	}

	cs, err := s.buildChanges(ctx, actor, current, req)
	if err != nil {
		return nil, err
	}
	if len(cs.kinds) == 0 {
		s.metrics.RecordMutation(op, outcomeNoop)
		return &mutationResult{complaint: current.VisibleTo(actor.Role)}, nil
	}

	// A request cancelled before the write commits leaves no trace.
	if err := ctx.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRequestCancelled.Code, appErrors.ErrRequestCancelled.Status, appErrors.ErrRequestCancelled.Message)
	}

	now := s.now()
	cs.next.Version = current.Version + 1
	cs.next.UpdatedAt = now
	if err := s.store.Write(ctx, repository.ComplaintWrite{
		Complaint:       cs.next,
		ExpectedVersion: current.Version,
		CloseActive:     cs.closeActive,
		NewAssignment:   cs.record,
	}); err != nil {
		if errors.Is(err, repository.ErrVersionMismatch) {
			return nil, appErrors.Clone(appErrors.ErrVersionConflict, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save complaint")
	}

	s.metrics.RecordMutation(op, outcomeCommitted)
	if change, ok := findChange(cs.changes, models.FieldStatus); ok {
		s.metrics.RecordTransition(change.From.(models.ComplaintStatus), change.To.(models.ComplaintStatus))
	}
	applog.FromContext(ctx, s.logger).Info("complaint mutated",
		zap.String("complaint_id", current.ID),
		zap.String("operation", op),
		zap.String("actor_id", actor.ID),
		zap.Int64("version", cs.next.Version),
	)

	s.dispatch(models.ComplaintEvent{
		Kinds:      cs.kinds,
		ActorID:    actor.ID,
		Complaint:  cs.next.Clone(),
		Changes:    cs.changes,
		Assignment: cs.record,
		OccurredAt: now,
	})
	return &mutationResult{complaint: cs.next.VisibleTo(actor.Role), assignment: cs.record}, nil
}

// buildChanges derives the next state from current. Only fields whose value actually
// differs produce a diff entry.
func (s *ComplaintService) buildChanges(ctx context.Context, actor models.Actor, current *models.Complaint, req dto.UpdateComplaintRequest) (*changeSet, error) {
	cs := &changeSet{next: current.Clone()}
	next := cs.next

	if req.Title != nil && *req.Title != next.Title {
		cs.diff(models.FieldTitle, next.Title, *req.Title)
		next.Title = *req.Title
		cs.addKind(models.EventComplaintUpdated)
	}
	if req.Description != nil && *req.Description != next.Description {
		cs.diff(models.FieldDescription, next.Description, *req.Description)
		next.Description = *req.Description
		cs.addKind(models.EventComplaintUpdated)
	}
	if req.Category != nil && *req.Category != next.Category {
		cs.diff(models.FieldCategory, next.Category, *req.Category)
		next.Category = *req.Category
		cs.addKind(models.EventComplaintUpdated)
	}
	if req.Priority != nil && *req.Priority != next.Priority {
		cs.diff(models.FieldPriority, next.Priority, *req.Priority)
		next.Priority = *req.Priority
		cs.addKind(models.EventComplaintUpdated)
	}
	if req.Attachments != nil && !sameStrings(next.Attachments, *req.Attachments) {
		updated := append(models.Attachments{}, (*req.Attachments)...)
		cs.diff(models.FieldAttachments, next.Attachments, updated)
		next.Attachments = updated
		cs.addKind(models.EventComplaintUpdated)
	}

	if req.Status != nil {
		effect, err := ValidateTransition(current.Status, *req.Status, RelationOf(actor, current))
		if err != nil {
			return nil, err
		}
		if !effect.NoOp {
			cs.diff(models.FieldStatus, current.Status, *req.Status)
			next.Status = *req.Status
			if effect.StampResolvedAt {
				at := s.now()
				next.ResolvedAt = &at
			} else {
				next.ResolvedAt = nil
			}
			cs.closeActive = effect.CloseAssignment
			cs.addKind(models.EventStatusChanged)
		}
	}

	if req.Assignee != nil {
		// Planned against the post-transition state so a patch cannot assign a complaint it is closing.
		plan, err := s.assignments.Plan(ctx, actor, next, req.Assignee.AssigneeID, req.Assignee.DueDate, req.Assignee.Note)
		if err != nil {
			return nil, err
		}
		if plan.Changed {
			cs.diff(models.FieldAssignee, next.Assignee(), derefString(plan.AssigneeID))
			next.AssigneeID = plan.AssigneeID
			cs.closeActive = plan.CloseActive
			cs.record = plan.Record
			if plan.AssigneeID != nil {
				cs.addKind(models.EventAssigned)
			} else {
				cs.addKind(models.EventUnassigned)
			}
		}
	}

	if req.Note != nil {
		note := models.Note{
			ID:        s.newID(),
			Content:   req.Note.Content,
			AuthorID:  actor.ID,
			Internal:  req.Note.Internal,
			CreatedAt: s.now(),
		}
		next.Notes = append(next.Notes, note)
		cs.diff(models.FieldNotes, nil, note)
		cs.addKind(models.EventNoteAdded)
	}

	if req.Feedback != nil {
		if next.Status != models.ComplaintStatusResolved {
			return nil, appErrors.WithFields(appErrors.ErrValidation, "feedback not accepted",
				appErrors.FieldError{Field: string(models.FieldFeedback), Reason: "complaint must be resolved first"})
		}
		if next.Feedback != nil {
			return nil, appErrors.WithFields(appErrors.ErrValidation, "feedback not accepted",
				appErrors.FieldError{Field: string(models.FieldFeedback), Reason: "feedback was already submitted"})
		}
		fb := &models.Feedback{Rating: req.Feedback.Rating, Comment: req.Feedback.Comment, SubmittedAt: s.now()}
		next.Feedback = fb
		cs.diff(models.FieldFeedback, nil, *fb)
		cs.addKind(models.EventFeedbackSubmitted)
	}

	return cs, nil
}

func (s *ComplaintService) load(ctx context.Context, id string) (*models.Complaint, error) {
	complaint, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load complaint")
	}
	return complaint, nil
}

func (s *ComplaintService) dispatch(event models.ComplaintEvent) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Dispatch(event)
}

func forbiddenFields(decision PolicyDecision) error {
	reason := "not permitted for this actor"
	if decision.Reason == PolicyReasonClosed {
		reason = "complaint is closed"
	}
	fields := make([]appErrors.FieldError, 0, len(decision.Denied))
	for _, f := range decision.Denied {
		fields = append(fields, appErrors.FieldError{Field: string(f), Reason: reason})
	}
	return appErrors.WithFields(appErrors.ErrForbidden, "not permitted to change one or more fields", fields...)
}

func findChange(changes []models.FieldChange, field models.ComplaintField) (models.FieldChange, bool) {
	return models.ComplaintEvent{Changes: changes}.Change(field)
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
