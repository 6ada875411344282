package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/dto"
	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
	appErrors "github.com/SadmanHussainChowdhury/community-complaint-api/pkg/errors"
	"github.com/SadmanHussainChowdhury/community-complaint-api/pkg/response"
)

type complaintService interface {
	Create(ctx context.Context, actor models.Actor, req dto.CreateComplaintRequest) (*models.Complaint, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.Complaint, error)
	Apply(ctx context.Context, actor models.Actor, id string, req dto.UpdateComplaintRequest) (*models.Complaint, error)
	Assign(ctx context.Context, actor models.Actor, id string, req dto.AssignComplaintRequest) (*dto.AssignmentResult, error)
	Unassign(ctx context.Context, actor models.Actor, id string, req dto.UnassignComplaintRequest) (*models.Complaint, error)
	Assignments(ctx context.Context, actor models.Actor, id string) ([]models.AssignmentRecord, error)
	AddNote(ctx context.Context, actor models.Actor, id string, req dto.AddNoteRequest) (*models.Complaint, error)
	SubmitFeedback(ctx context.Context, actor models.Actor, id string, req dto.SubmitFeedbackRequest) (*models.Complaint, error)
}

// ComplaintHandler exposes the complaint lifecycle over REST.
type ComplaintHandler struct {
	service complaintService
}

// NewComplaintHandler constructs the handler.
func NewComplaintHandler(service complaintService) *ComplaintHandler {
	return &ComplaintHandler{service: service}
}

func (h *ComplaintHandler) ready(c *gin.Context) (models.Actor, bool) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "complaint service not configured"))
		return models.Actor{}, false
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Actor{}, false
	}
	return actor, true
}

// Create godoc
// @Summary File a complaint
// @Tags Complaints
// @Accept json
// @Produce json
// @Param payload body dto.CreateComplaintRequest true "Complaint payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /complaints [post]
func (h *ComplaintHandler) Create(c *gin.Context) {
	actor, ok := h.ready(c)
	if !ok {
		return
	}
	var req dto.CreateComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err))
		return
	}
	complaint, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusCreated, complaint, complaint.Version)
}

// Get godoc
// @Summary Get a complaint
// @Description Residents never see internal notes. The ETag header carries the version.
// @Tags Complaints
// @Produce json
// @Param id path string true "Complaint ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /complaints/{id} [get]
func (h *ComplaintHandler) Get(c *gin.Context) {
	actor, ok := h.ready(c)
	if !ok {
		return
	}
	complaint, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, complaint, complaint.Version)
}

// Update godoc
// @Summary Apply a partial update
// @Description Only fields present in the body are changed. Send the version you read in If-Match or expectedVersion.
// @Tags Complaints
// @Accept json
// @Produce json
// @Param id path string true "Complaint ID"
// @Param If-Match header string false "Expected complaint version"
// @Param payload body dto.UpdateComplaintRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /complaints/{id} [patch]
func (h *ComplaintHandler) Update(c *gin.Context) {
	actor, ok := h.ready(c)
	if !ok {
		return
	}
	var req dto.UpdateComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err))
		return
	}
	version, err := expectedVersion(c, req.ExpectedVersion)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.ExpectedVersion = version
	complaint, err := h.service.Apply(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, complaint, complaint.Version)
}

// Assign godoc
// @Summary Assign a complaint to a staff member
// @Tags Complaints
// @Accept json
// @Produce json
// @Param id path string true "Complaint ID"
// @Param If-Match header string false "Expected complaint version"
// @Param payload body dto.AssignComplaintRequest true "Assignment"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /complaints/{id}/assignment [put]
func (h *ComplaintHandler) Assign(c *gin.Context) {
	actor, ok := h.ready(c)
	if !ok {
		return
	}
	var req dto.AssignComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err))
		return
	}
	version, err := expectedVersion(c, req.ExpectedVersion)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.ExpectedVersion = version
	result, err := h.service.Assign(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, result, result.Complaint.Version)
}

// Unassign godoc
// @Summary Remove the current assignee
// @Tags Complaints
// @Produce json
// @Param id path string true "Complaint ID"
// @Param If-Match header string false "Expected complaint version"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /complaints/{id}/assignment [delete]
func (h *ComplaintHandler) Unassign(c *gin.Context) {
	actor, ok := h.ready(c)
	if !ok {
		return
	}
	var req dto.UnassignComplaintRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	version, err := expectedVersion(c, req.ExpectedVersion)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.ExpectedVersion = version
	complaint, err := h.service.Unassign(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, complaint, complaint.Version)
}

// Assignments godoc
// @Summary List the assignment history of a complaint
// @Tags Complaints
// @Produce json
// @Param id path string true "Complaint ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /complaints/{id}/assignments [get]
func (h *ComplaintHandler) Assignments(c *gin.Context) {
	actor, ok := h.ready(c)
	if !ok {
		return
	}
	records, err := h.service.Assignments(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, records)
}

// AddNote godoc
// @Summary Add a note
// @Tags Complaints
// @Accept json
// @Produce json
// @Param id path string true "Complaint ID"
// @Param If-Match header string false "Expected complaint version"
// @Param payload body dto.AddNoteRequest true "Note"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /complaints/{id}/notes [post]
func (h *ComplaintHandler) AddNote(c *gin.Context) {
	actor, ok := h.ready(c)
	if !ok {
		return
	}
	var req dto.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err))
		return
	}
	version, err := expectedVersion(c, req.ExpectedVersion)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.ExpectedVersion = version
	complaint, err := h.service.AddNote(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusCreated, complaint, complaint.Version)
}

// SubmitFeedback godoc
// @Summary Rate a resolved complaint
// @Tags Complaints
// @Accept json
// @Produce json
// @Param id path string true "Complaint ID"
// @Param If-Match header string false "Expected complaint version"
// @Param payload body dto.SubmitFeedbackRequest true "Feedback"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /complaints/{id}/feedback [post]
func (h *ComplaintHandler) SubmitFeedback(c *gin.Context) {
	actor, ok := h.ready(c)
	if !ok {
		return
	}
	var req dto.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err))
		return
	}
	version, err := expectedVersion(c, req.ExpectedVersion)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.ExpectedVersion = version
	complaint, err := h.service.SubmitFeedback(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusCreated, complaint, complaint.Version)
}
