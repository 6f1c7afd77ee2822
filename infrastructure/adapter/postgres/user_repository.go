package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/portinscan/portinscan/application/port/outbound"
	"github.com/portinscan/portinscan/domain/entity"
	"github.com/portinscan/portinscan/domain/valueobject"
)

const uniqueViolation = "23505"

// UserRepositoryAdapter stores users in PostgreSQL. Refresh tokens are kept as a
// salted sha256 hash; equal tokens hash equally, so lookups stay exact-match.
type UserRepositoryAdapter struct {
	db   *sql.DB
	salt string
}

var _ outbound.UserRepository = (*UserRepositoryAdapter)(nil)

func NewUserRepositoryAdapter(db *sql.DB, salt string) *UserRepositoryAdapter {
	return &UserRepositoryAdapter{
		db:   db,
		salt: salt,
	}
}

const selectUser = `
	SELECT id, email, username, password, role, created_at, updated_at
	FROM users
`

func (r *UserRepositoryAdapter) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if email == "" {
		return nil, outbound.ErrUserNotFound
	}

	user, err := r.scanUser(r.db.QueryRowContext(ctx, selectUser+`WHERE email = $1 LIMIT 1`, email))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepositoryAdapter) FindByRefreshToken(ctx context.Context, refreshToken string) (*entity.User, error) {
	if refreshToken == "" {
		return nil, outbound.ErrUserNotFound
	}

	user, err := r.scanUser(r.db.QueryRowContext(ctx, selectUser+`WHERE refresh_token_hash = $1 LIMIT 1`, r.hashToken(refreshToken)))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by refresh token: %w", err)
	}
	// the table only keeps the hash
	user.RefreshToken = refreshToken
	return user, nil
}

func (r *UserRepositoryAdapter) Create(ctx context.Context, user *entity.User) error {
	if user == nil {
		return fmt.Errorf("user cannot be nil")
	}
	if user.ID == "" || user.Email == "" || user.PasswordHash == "" {
		return fmt.Errorf("user ID, email, and password are required")
	}

	query := `
		INSERT INTO users (id, email, username, password, role, refresh_token_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Role.String(),
		r.nullableHash(user.RefreshToken),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return outbound.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepositoryAdapter) SaveRefreshToken(ctx context.Context, email, refreshToken string) error {
	query := `
		UPDATE users
		SET refresh_token_hash = $1, updated_at = NOW()
		WHERE email = $2
	`

	result, err := r.db.ExecContext(ctx, query, r.nullableHash(refreshToken), email)
	if err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return outbound.ErrUserNotFound
	}
	return nil
}

// SwapRefreshToken is a single conditional UPDATE, so two rotations of the same
// token cannot both succeed.
func (r *UserRepositoryAdapter) SwapRefreshToken(ctx context.Context, email, previous, next string) (bool, error) {
	if previous == "" {
		return false, nil
	}

	query := `
		UPDATE users
		SET refresh_token_hash = $1, updated_at = NOW()
		WHERE email = $2 AND refresh_token_hash = $3
	`

	result, err := r.db.ExecContext(ctx, query, r.nullableHash(next), email, r.hashToken(previous))
	if err != nil {
		return false, fmt.Errorf("failed to swap refresh token: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

func (r *UserRepositoryAdapter) scanUser(row *sql.Row) (*entity.User, error) {
	var (
		user entity.User
		role string
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrUserNotFound
		}
		return nil, err
	}

	parsed, err := valueobject.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", user.ID, err)
	}
	user.Role = parsed
	return &user, nil
}

func (r *UserRepositoryAdapter) hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw + r.salt))
	return hex.EncodeToString(sum[:])
}

func (r *UserRepositoryAdapter) nullableHash(raw string) sql.NullString {
	if raw == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: r.hashToken(raw), Valid: true}
}
