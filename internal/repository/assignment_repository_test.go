package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
)

func TestListAssignmentsOldestFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	assigned := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	due := assigned.Add(48 * time.Hour)
	rows := sqlmock.NewRows([]string{"id", "complaint_id", "assignee_id", "assigner_id", "assigned_at", "due_date", "status", "note"}).
		AddRow("a-1", "c-1", "staff-x", "admin-1", assigned, nil, "cancelled", "").
		AddRow("a-2", "c-1", "staff-y", "admin-1", assigned.Add(time.Hour), due, "active", "handover")
	mock.ExpectQuery(`FROM complaint_assignments WHERE complaint_id = \$1 ORDER BY assigned_at ASC`).
		WithArgs("c-1").
		WillReturnRows(rows)

	records, err := repo.ListByComplaint(context.Background(), "c-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.AssignmentStatusCancelled, records[0].Status)
	assert.Nil(t, records[0].DueDate)
	assert.Equal(t, models.AssignmentStatusActive, records[1].Status)
	require.NotNil(t, records[1].DueDate)
	assert.True(t, due.Equal(*records[1].DueDate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAssignmentsWrapsErrors(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("FROM complaint_assignments").WillReturnError(errors.New("connection reset"))

	_, err := repo.ListByComplaint(context.Background(), "c-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list assignments")
}
