package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
	appErrors "github.com/SadmanHussainChowdhury/community-complaint-api/pkg/errors"
)

func TestIsLegalTransition(t *testing.T) {
	legal := map[[2]models.ComplaintStatus]bool{
		{models.ComplaintStatusPending, models.ComplaintStatusInProgress}: true,
		{models.ComplaintStatusPending, models.ComplaintStatusCancelled}:  true,
		{models.ComplaintStatusInProgress, models.ComplaintStatusResolved}: true,
		{models.ComplaintStatusInProgress, models.ComplaintStatusPending}:  true,
	}
	for _, from := range models.ComplaintStatuses {
		for _, to := range models.ComplaintStatuses {
			want := from == to || legal[[2]models.ComplaintStatus{from, to}]
			assert.Equal(t, want, IsLegalTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, IsLegalTransition("archived", models.ComplaintStatusPending))
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, from := range []models.ComplaintStatus{models.ComplaintStatusResolved, models.ComplaintStatusCancelled} {
		for _, to := range models.ComplaintStatuses {
			if to == from {
				continue
			}
			_, err := ValidateTransition(from, to, TransitionActor{IsAdmin: true})
			require.ErrorIs(t, err, appErrors.ErrInvalidTransition, "%s -> %s", from, to)
		}
	}
}

func TestValidateTransitionGuards(t *testing.T) {
	tests := []struct {
		name    string
		from    models.ComplaintStatus
		to      models.ComplaintStatus
		actor   TransitionActor
		wantErr error
		effect  TransitionEffect
	}{
		{
			name:  "assignee starts work",
			from:  models.ComplaintStatusPending,
			to:    models.ComplaintStatusInProgress,
			actor: TransitionActor{IsAssignee: true},
		},
		{
			name:    "submitter cannot start work",
			from:    models.ComplaintStatusPending,
			to:      models.ComplaintStatusInProgress,
			actor:   TransitionActor{IsSubmitter: true, Unassigned: true},
			wantErr: appErrors.ErrForbidden,
		},
		{
			name:   "submitter cancels unassigned complaint",
			from:   models.ComplaintStatusPending,
			to:     models.ComplaintStatusCancelled,
			actor:  TransitionActor{IsSubmitter: true, Unassigned: true},
			effect: TransitionEffect{CloseAssignment: models.AssignmentStatusCancelled},
		},
		{
			name:    "submitter cannot cancel once assigned",
			from:    models.ComplaintStatusPending,
			to:      models.ComplaintStatusCancelled,
			actor:   TransitionActor{IsSubmitter: true},
			wantErr: appErrors.ErrForbidden,
		},
		{
			name:    "assignee cannot cancel",
			from:    models.ComplaintStatusPending,
			to:      models.ComplaintStatusCancelled,
			actor:   TransitionActor{IsAssignee: true},
			wantErr: appErrors.ErrForbidden,
		},
		{
			name:   "assignee resolves",
			from:   models.ComplaintStatusInProgress,
			to:     models.ComplaintStatusResolved,
			actor:  TransitionActor{IsAssignee: true},
			effect: TransitionEffect{StampResolvedAt: true, CloseAssignment: models.AssignmentStatusCompleted},
		},
		{
			name:    "only admin reopens",
			from:    models.ComplaintStatusInProgress,
			to:      models.ComplaintStatusPending,
			actor:   TransitionActor{IsAssignee: true},
			wantErr: appErrors.ErrForbidden,
		},
		{
			name:  "admin reopens",
			from:  models.ComplaintStatusInProgress,
			to:    models.ComplaintStatusPending,
			actor: TransitionActor{IsAdmin: true},
		},
		{
			name:    "skipping in_progress is illegal",
			from:    models.ComplaintStatusPending,
			to:      models.ComplaintStatusResolved,
			actor:   TransitionActor{IsAdmin: true},
			wantErr: appErrors.ErrInvalidTransition,
		},
		{
			name:   "same status is a no-op for anyone",
			from:   models.ComplaintStatusResolved,
			to:     models.ComplaintStatusResolved,
			effect: TransitionEffect{NoOp: true},
		},
		{
			name:    "unknown target",
			from:    models.ComplaintStatusPending,
			to:      "archived",
			actor:   TransitionActor{IsAdmin: true},
			wantErr: appErrors.ErrValidation,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			effect, err := ValidateTransition(tc.from, tc.to, tc.actor)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.effect, effect)
		})
	}
}

func TestRelationOf(t *testing.T) {
	c := policyComplaint(models.ComplaintStatusPending, "")
	rel := RelationOf(resident, c)
	assert.True(t, rel.IsSubmitter)
	assert.True(t, rel.Unassigned)
	assert.False(t, rel.IsAdmin)

	c = policyComplaint(models.ComplaintStatusInProgress, "staff-x")
	rel = RelationOf(staffX, c)
	assert.True(t, rel.IsAssignee)
	assert.False(t, rel.Unassigned)
}
