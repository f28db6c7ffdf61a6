package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pizza-backend/internal/models"
)

type userRepo struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	if u.Name == "" {
		return fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	if u.Email == "" {
		return fmt.Errorf("%w: email required", ErrInvalidInput)
	}
	if u.PasswordHash == "" {
		return fmt.Errorf("%w: password hash required", ErrInvalidInput)
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Role != models.RoleUser && u.Role != models.RoleAdmin {
		return fmt.Errorf("%w: invalid role '%s'", ErrInvalidInput, u.Role)
	}

	sql := `
		INSERT INTO users (
			name,
			email,
			password_hash,
			role,
			is_verified,
			created_at
	) VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING user_id
	`

	now := time.Now()
	u.Email = strings.ToLower(u.Email)
	u.CreatedAt = now

	err := r.db.QueryRow(ctx, sql,
		u.Name,
		u.Email,
		u.PasswordHash,
		u.Role,
		u.IsVerified,
		u.CreatedAt,
	).Scan(&u.UserID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: email already exists", ErrUserExists)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

const userColumns = `
		user_id,
		name,
		email,
		password_hash,
		role,
		is_verified,
		created_at
`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User

	err := row.Scan(
		&u.UserID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.IsVerified,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return &u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: ID must be positive", ErrInvalidInput)
	}

	sql := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	return scanUser(r.db.QueryRow(ctx, sql, id))
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email required", ErrInvalidInput)
	}

	sql := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	return scanUser(r.db.QueryRow(ctx, sql, strings.ToLower(email)))
}

func (r *userRepo) SetVerificationToken(ctx context.Context, userID int, tokenHash string, expire time.Time) error {
	sql := `UPDATE users
		SET verification_token_hash = $1,
			verification_token_expire = $2
		WHERE user_id = $3
	`

	result, err := r.db.Exec(ctx, sql, tokenHash, expire, userID)
	if err != nil {
		return fmt.Errorf("failed to set verification token for user %d: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *userRepo) ClearVerificationToken(ctx context.Context, userID int) error {
	sql := `UPDATE users
		SET verification_token_hash = NULL,
			verification_token_expire = NULL
		WHERE user_id = $1
	`

	result, err := r.db.Exec(ctx, sql, userID)
	if err != nil {
		return fmt.Errorf("failed to clear verification token for user %d: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// VerifyByToken consumes an unexpired verification token: the matched user is
// marked verified and the token cleared in the same statement, so a second
// call with the same token finds nothing.
func (r *userRepo) VerifyByToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	if tokenHash == "" {
		return nil, fmt.Errorf("%w: token required", ErrInvalidInput)
	}

	sql := `UPDATE users
		SET is_verified = TRUE,
			verification_token_hash = NULL,
			verification_token_expire = NULL
		WHERE verification_token_hash = $1
			AND verification_token_expire > $2
		RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRow(ctx, sql, tokenHash, now))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrTokenExpired
		}
		return nil, err
	}

	return u, nil
}

func (r *userRepo) SetResetToken(ctx context.Context, userID int, tokenHash string, expire time.Time) error {
	sql := `UPDATE users
		SET reset_token_hash = $1,
			reset_token_expire = $2
		WHERE user_id = $3
	`

	result, err := r.db.Exec(ctx, sql, tokenHash, expire, userID)
	if err != nil {
		return fmt.Errorf("failed to set reset token for user %d: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ResetPasswordByToken consumes an unexpired reset token and installs the new
// password hash. Single-use: the token is cleared atomically with the update.
func (r *userRepo) ResetPasswordByToken(ctx context.Context, tokenHash, newPasswordHash string, now time.Time) (*models.User, error) {
	if tokenHash == "" {
		return nil, fmt.Errorf("%w: token required", ErrInvalidInput)
	}
	if newPasswordHash == "" {
		return nil, fmt.Errorf("%w: password hash required", ErrInvalidInput)
	}

	sql := `UPDATE users
		SET password_hash = $1,
			reset_token_hash = NULL,
			reset_token_expire = NULL
		WHERE reset_token_hash = $2
			AND reset_token_expire > $3
		RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRow(ctx, sql, newPasswordHash, tokenHash, now))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrTokenExpired
		}
		return nil, err
	}

	return u, nil
}
