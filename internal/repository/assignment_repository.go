package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
)

// AssignmentRepository reads assignment history. Writes go through ComplaintRepository.Write.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListByComplaint returns every assignment record of a complaint, oldest first.
func (r *AssignmentRepository) ListByComplaint(ctx context.Context, complaintID string) ([]models.AssignmentRecord, error) {
	const query = `SELECT id, complaint_id, assignee_id, assigner_id, assigned_at, due_date, status, note FROM complaint_assignments WHERE complaint_id = $1 ORDER BY assigned_at ASC, id ASC`
	var records []models.AssignmentRecord
	if err := r.db.SelectContext(ctx, &records, query, complaintID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return records, nil
}
