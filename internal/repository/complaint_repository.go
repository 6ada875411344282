package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
)

// ErrVersionMismatch signals that the stored version no longer matches the caller's expectation.
var ErrVersionMismatch = errors.New("complaint version mismatch")

const complaintColumns = `id, title, description, category, priority, status, submitter_id, assignee_id, notes, attachments, resolved_at, feedback, version, created_at, updated_at`

// ComplaintWrite is a compare-and-swap write of a complaint together with its assignment history.
type ComplaintWrite struct {
	// Complaint is the next state; its Version must be ExpectedVersion+1.
	Complaint       *models.Complaint
	ExpectedVersion int64
	// CloseActive, when set, moves the currently active assignment record to this status.
	CloseActive   models.AssignmentStatus
	NewAssignment *models.AssignmentRecord
}

// ComplaintRepository persists complaints in PostgreSQL.
type ComplaintRepository struct {
	db *sqlx.DB
}

// NewComplaintRepository constructs the repository.
func NewComplaintRepository(db *sqlx.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

// Create inserts a new complaint.
func (r *ComplaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	const query = `INSERT INTO complaints (` + complaintColumns + `)
VALUES (:id, :title, :description, :category, :priority, :status, :submitter_id, :assignee_id, :notes, :attachments, :resolved_at, :feedback, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, complaint); err != nil {
		return fmt.Errorf("create complaint: %w", err)
	}
	return nil
}

// GetByID fetches a complaint. It returns sql.ErrNoRows when absent.
func (r *ComplaintRepository) GetByID(ctx context.Context, id string) (*models.Complaint, error) {
	const query = `SELECT ` + complaintColumns + ` FROM complaints WHERE id = $1`
	var complaint models.Complaint
	if err := r.db.GetContext(ctx, &complaint, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get complaint: %w", err)
	}
	return &complaint, nil
}

// Write stores the next complaint state only if the row still carries ExpectedVersion.
// Assignment history changes commit in the same transaction.
func (r *ComplaintRepository) Write(ctx context.Context, w ComplaintWrite) (err error) {
	if w.Complaint == nil {
		return fmt.Errorf("write complaint: nil complaint")
	}
	if w.Complaint.Version != w.ExpectedVersion+1 {
		return fmt.Errorf("write complaint: version %d does not follow %d", w.Complaint.Version, w.ExpectedVersion)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin complaint transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	c := w.Complaint
	const update = `UPDATE complaints SET title = $3, description = $4, category = $5, priority = $6, status = $7, assignee_id = $8, notes = $9, attachments = $10, resolved_at = $11, feedback = $12, version = $13, updated_at = $14 WHERE id = $1 AND version = $2`
	res, err := tx.ExecContext(ctx, update,
		c.ID, w.ExpectedVersion,
		c.Title, c.Description, c.Category, c.Priority, c.Status, c.AssigneeID,
		c.Notes, c.Attachments, c.ResolvedAt, c.Feedback, c.Version, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update complaint: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check complaint update rows: %w", err)
	}
	if affected == 0 {
		err = ErrVersionMismatch
		return err
	}

	if w.CloseActive != "" {
		const closeActive = `UPDATE complaint_assignments SET status = $2 WHERE complaint_id = $1 AND status = 'active'`
		if _, err = tx.ExecContext(ctx, closeActive, c.ID, w.CloseActive); err != nil {
			return fmt.Errorf("close active assignment: %w", err)
		}
	}

	if a := w.NewAssignment; a != nil {
		const insert = `INSERT INTO complaint_assignments (id, complaint_id, assignee_id, assigner_id, assigned_at, due_date, status, note) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		if _, err = tx.ExecContext(ctx, insert, a.ID, a.ComplaintID, a.AssigneeID, a.AssignerID, a.AssignedAt, a.DueDate, a.Status, a.Note); err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit complaint transaction: %w", err)
	}
	return nil
}
