package users

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/seatrack/seatrack/backend/go-services/internal/models"
	"github.com/stretchr/testify/require"
)

var allColumns = []string{"id", "name", "email", "password_hash", "role", "status", "provider", "provider_id", "avatar", "avatar_key", "joined_at", "updated_at"}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(sqlx.NewDb(db, "sqlmock")), mock
}

func TestPostgresStore_Insert(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (name, email, password_hash, role, status, provider, provider_id, avatar, avatar_key, joined_at, updated_at)`)).
		WithArgs("Ana", "ana@x.com", "hash", "user", "active", "", "", "", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	u, err := s.Insert(context.Background(), &models.User{Name: "Ana", Email: "ANA@x.com", PasswordHash: "hash"})
	require.NoError(t, err)
	require.Equal(t, int64(7), u.ID)
	require.Equal(t, models.RoleUser, u.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertDuplicate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err := s.Insert(context.Background(), &models.User{Name: "Ana", Email: "ana@x.com"})
	require.ErrorIs(t, err, ErrDuplicateEmail)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindByEmail(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(allColumns).AddRow(int64(1), "Ana", "ana@x.com", "hash", "admin", "active", "", "", "", "", now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).WithArgs("ana@x.com").WillReturnRows(rows)

	u, err := s.FindByEmail(context.Background(), " Ana@x.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	require.Equal(t, models.RoleAdmin, u.Role)
	require.Equal(t, "hash", u.PasswordHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindByIDMissing(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

	u, err := s.FindByID(context.Background(), 9)
	require.NoError(t, err)
	require.Nil(t, u)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateBuildsSetClause(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	role := models.RoleEmployee

	rows := sqlmock.NewRows(allColumns).AddRow(int64(3), "Bo", "bo@x.com", "", "employee", "active", "", "", "", "", now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET name = $1, role = $2, updated_at = $3 WHERE id = $4 RETURNING`)).
		WithArgs("Bo", "employee", sqlmock.AnyArg(), int64(3)).
		WillReturnRows(rows)

	u, err := s.Update(context.Background(), 3, Patch{Name: strPtr("Bo"), Role: &role})
	require.NoError(t, err)
	require.Equal(t, models.RoleEmployee, u.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateMissing(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET`)).WillReturnError(sql.ErrNoRows)

	_, err := s.Update(context.Background(), 3, Patch{Name: strPtr("Bo")})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_Delete(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(allColumns).AddRow(int64(4), "Cy", "cy@x.com", "", "user", "inactive", "", "", "", "", now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1 RETURNING`)).WithArgs(int64(4)).WillReturnRows(rows)

	u, err := s.Delete(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, models.StatusInactive, u.Status)

	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM users`)).WithArgs(int64(5)).WillReturnError(sql.ErrNoRows)
	_, err = s.Delete(context.Background(), 5)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListEmpty(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users ORDER BY id`)).WillReturnRows(sqlmock.NewRows(allColumns))

	list, err := s.List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)
}
