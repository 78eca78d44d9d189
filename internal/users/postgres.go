package users

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/seatrack/seatrack/backend/go-services/internal/models"
)

const userColumns = `id, name, email, password_hash, role, status, provider, provider_id, avatar, avatar_key, joined_at, updated_at`

// PostgresStore implements Store on a users table (see internal/database/migrations).
// The BIGSERIAL id sequence guarantees ids are not reused.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *PostgresStore) get(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var u models.User
	if err := s.db.GetContext(ctx, &u, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.get(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, models.NormalizeEmail(email))
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return s.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) FindByProvider(ctx context.Context, provider, providerID string) (*models.User, error) {
	if provider == "" || providerID == "" {
		return nil, nil
	}
	return s.get(ctx, `SELECT `+userColumns+` FROM users WHERE provider = $1 AND provider_id = $2`, provider, providerID)
}

func (s *PostgresStore) Insert(ctx context.Context, u *models.User) (*models.User, error) {
	rec := *u
	prepareInsert(&rec, time.Now().UTC())
	query := `INSERT INTO users (name, email, password_hash, role, status, provider, provider_id, avatar, avatar_key, joined_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	err := s.db.QueryRowxContext(ctx, query,
		rec.Name, rec.Email, rec.PasswordHash, rec.Role, rec.Status,
		rec.Provider, rec.ProviderID, rec.Avatar, rec.AvatarKey, rec.JoinedAt, rec.UpdatedAt,
	).Scan(&rec.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return &rec, nil
}

func (s *PostgresStore) Update(ctx context.Context, id int64, p Patch) (*models.User, error) {
	sets := []string{}
	args := []interface{}{}
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Email != nil {
		add("email", models.NormalizeEmail(*p.Email))
	}
	if p.Role != nil {
		add("role", string(*p.Role))
	}
	if p.Status != nil {
		add("status", string(*p.Status))
	}
	if p.Provider != nil {
		add("provider", *p.Provider)
	}
	if p.ProviderID != nil {
		add("provider_id", *p.ProviderID)
	}
	if p.Avatar != nil {
		add("avatar", *p.Avatar)
	}
	if p.AvatarKey != nil {
		add("avatar_key", *p.AvatarKey)
	}
	add("updated_at", time.Now().UTC())
	args = append(args, id)
	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = $` + strconv.Itoa(len(args)) + ` RETURNING ` + userColumns

	var u models.User
	if err := s.db.QueryRowxContext(ctx, query, args...).StructScan(&u); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowxContext(ctx, `DELETE FROM users WHERE id = $1 RETURNING `+userColumns, id).StructScan(&u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.User, error) {
	var rows []*models.User
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+userColumns+` FROM users ORDER BY id`); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*models.User{}
	}
	return rows, nil
}

// Ping reports whether the database answers.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
