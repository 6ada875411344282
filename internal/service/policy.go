package service

import "github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"

// PolicyReason explains which rule produced a policy decision.
type PolicyReason string

const (
	PolicyReasonAdmin     PolicyReason = "admin"
	PolicyReasonAssignee  PolicyReason = "assignee"
	PolicyReasonSubmitter PolicyReason = "submitter"
	PolicyReasonClosed    PolicyReason = "complaint_closed"
	PolicyReasonForbidden PolicyReason = "forbidden"
)

var (
	staffFields            = models.NewFieldSet(models.FieldStatus, models.FieldNotes)
	// The submitter may also request a status change while the complaint is unassigned;
	// ValidateTransition narrows that to cancellation.
	residentPendingFields = models.NewFieldSet(models.FieldTitle, models.FieldDescription, models.FieldCategory, models.FieldPriority, models.FieldAttachments, models.FieldStatus)
	residentResolvedField = models.NewFieldSet(models.FieldFeedback)
)

// PolicyDecision is the outcome of ResolvePolicy.
type PolicyDecision struct {
	// Allowed holds the permitted subset of the requested fields, or every
	// permitted field when nothing specific was requested.
	Allowed models.FieldSet
	// Denied lists requested fields outside the permitted set, sorted.
	Denied []models.ComplaintField
	Reason PolicyReason
}

// Permits reports whether every requested field was allowed.
func (d PolicyDecision) Permits() bool {
	return len(d.Denied) == 0
}

// ResolvePolicy decides which complaint fields actor may write. It never fails;
// callers turn a non-empty Denied list into a Forbidden error.
func ResolvePolicy(actor models.Actor, complaint *models.Complaint, requested models.FieldSet) PolicyDecision {
	permitted, reason := permittedFields(actor, complaint)

	if requested == nil {
		return PolicyDecision{Allowed: copyFields(permitted), Reason: reason}
	}

	allowed := make(models.FieldSet, len(requested))
	for f := range requested {
		if permitted.Has(f) {
			allowed[f] = struct{}{}
		}
	}
	return PolicyDecision{Allowed: allowed, Denied: permitted.Missing(requested), Reason: reason}
}

func permittedFields(actor models.Actor, complaint *models.Complaint) (models.FieldSet, PolicyReason) {
	if complaint == nil || actor.ID == "" {
		return models.FieldSet{}, PolicyReasonForbidden
	}

	switch actor.Role {
	case models.RoleAdmin:
		return models.NewFieldSet(models.AllComplaintFields...), PolicyReasonAdmin
	case models.RoleStaff:
		if actor.ID != complaint.Assignee() {
			return models.FieldSet{}, PolicyReasonForbidden
		}
		if complaint.Status.Terminal() {
			return models.FieldSet{}, PolicyReasonClosed
		}
		return staffFields, PolicyReasonAssignee
	case models.RoleResident:
		if actor.ID != complaint.SubmitterID {
			return models.FieldSet{}, PolicyReasonForbidden
		}
		switch {
		case complaint.Status == models.ComplaintStatusPending && complaint.AssigneeID == nil:
			return residentPendingFields, PolicyReasonSubmitter
		case complaint.Status == models.ComplaintStatusResolved:
			return residentResolvedField, PolicyReasonSubmitter
		}
		return models.FieldSet{}, PolicyReasonForbidden
	}
	return models.FieldSet{}, PolicyReasonForbidden
}

func copyFields(in models.FieldSet) models.FieldSet {
	out := make(models.FieldSet, len(in))
	for f := range in {
		out[f] = struct{}{}
	}
	return out
}

// CanView reports whether actor may read the complaint.
func CanView(actor models.Actor, complaint *models.Complaint) bool {
	return complaint.ReadableBy(actor)
}
