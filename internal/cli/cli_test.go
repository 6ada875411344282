package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
)

type forgetfulCache struct {
	deleted []string
	err     error
}

func (f *forgetfulCache) Get(ctx context.Context, userID string) (models.Contact, error) {
	return models.Contact{}, errors.New("not used")
}

func (f *forgetfulCache) Put(ctx context.Context, contact models.Contact, ttl time.Duration) error {
	return nil
}

func (f *forgetfulCache) Delete(ctx context.Context, userIDs ...string) error {
	f.deleted = append(f.deleted, userIDs...)
	return f.err
}

func mockOpener(t *testing.T) (Opener, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return func(ctx context.Context) (*sqlx.DB, error) {
		return sqlx.NewDb(db, "sqlmock"), nil
	}, mock
}

func run(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	open, mock := mockOpener(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	out, err := run(t, open, "migrate")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"migrated":true}}`, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShowHidesInternalNotesForResidents(t *testing.T) {
	open, mock := mockOpener(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "title", "description", "category", "priority", "status", "submitter_id", "assignee_id", "notes", "attachments", "resolved_at", "feedback", "version", "created_at", "updated_at"}).
		AddRow("c-1", "Broken lift", "The lift in block B is stuck", "maintenance", "high", "in_progress", "res-1", "staff-1",
			[]byte(`[{"id":"n-1","content":"vendor quote 400","authorId":"staff-1","internal":true,"createdAt":"2026-03-01T10:00:00Z"},{"id":"n-2","content":"technician booked","authorId":"staff-1","internal":false,"createdAt":"2026-03-01T11:00:00Z"}]`),
			[]byte(`[]`), nil, nil, int64(3), now, now)
	mock.ExpectQuery(`FROM complaints WHERE id = \$1`).WithArgs("c-1").WillReturnRows(rows)
	mock.ExpectClose()

	out, err := run(t, open, "show", "c-1", "--as", "resident")
	require.NoError(t, err)

	var body struct {
		Data struct {
			Notes []struct {
				ID string `json:"id"`
			} `json:"notes"`
			Version int64 `json:"version"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	require.Len(t, body.Data.Notes, 1)
	assert.Equal(t, "n-2", body.Data.Notes[0].ID)
	assert.Equal(t, int64(3), body.Data.Version)
}

func TestShowRejectsUnknownRole(t *testing.T) {
	open, _ := mockOpener(t)
	_, err := run(t, open, "show", "c-1", "--as", "janitor")
	require.Error(t, err)
}

func TestHistory(t *testing.T) {
	open, mock := mockOpener(t)
	assigned := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "complaint_id", "assignee_id", "assigner_id", "assigned_at", "due_date", "status", "note"}).
		AddRow("a-1", "c-1", "staff-x", "admin-1", assigned, nil, "cancelled", "").
		AddRow("a-2", "c-1", "staff-y", "admin-1", assigned.Add(time.Hour), nil, "active", "")
	mock.ExpectQuery("FROM complaint_assignments").WithArgs("c-1").WillReturnRows(rows)
	mock.ExpectClose()

	out, err := run(t, open, "history", "c-1")
	require.NoError(t, err)
	var body struct {
		Data []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
		Meta map[string]int `json:"meta"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "cancelled", body.Data[0].Status)
	assert.Equal(t, 2, body.Meta["count"])
}

func TestUsersUpsert(t *testing.T) {
	open, mock := mockOpener(t)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "ops@example.com", "Ops Desk", "staff", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u-9"))
	mock.ExpectClose()

	out, err := run(t, open, "users", "upsert", "--email", " Ops@Example.com ", "--name", "Ops Desk", "--role", "staff")
	require.NoError(t, err)
	assert.Contains(t, out, `"id":"u-9"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersUpsertInvalidatesCachedContact(t *testing.T) {
	open, mock := mockOpener(t)
	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("staff-1"))
	mock.ExpectClose()
	contacts := &forgetfulCache{err: errors.New("redis: connection refused")}

	cmd := NewRootCmd(open, WithContactCache(contacts))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"users", "upsert", "--id", "staff-1", "--email", "sam@example.com", "--name", "Sam", "--role", "staff", "--inactive"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, []string{"staff-1"}, contacts.deleted)
}

func TestUsersUpsertValidatesFlags(t *testing.T) {
	open, _ := mockOpener(t)
	_, err := run(t, open, "users", "upsert", "--email", "a@example.com", "--name", "A", "--role", "janitor")
	require.Error(t, err)

	_, err = run(t, open, "users", "upsert", "--role", "staff")
	require.Error(t, err)
}

func TestConnectFailure(t *testing.T) {
	open := func(ctx context.Context) (*sqlx.DB, error) { return nil, errors.New("dial tcp: refused") }
	_, err := run(t, open, "history", "c-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect database")
}
