package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/Haisyam/SiMETA/internal/models"
)

var (
	// ErrEmailTaken is returned by Create when the email is already
	// registered.
	ErrEmailTaken = errors.New("email sudah terdaftar")

	// ErrInvalidCredentials covers both unknown email and wrong
	// password so login failures do not reveal which one it was.
	ErrInvalidCredentials = errors.New("email atau password salah")

	// ErrNotConfirmed is returned when the account exists but the
	// confirmation link has not been opened yet.
	ErrNotConfirmed = errors.New("email belum dikonfirmasi, cek inbox kamu")
)

const uniqueViolation = "23505"

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) (*UserRepo, error) {
	repo := &UserRepo{db: db}

	if err := repo.createTable(); err != nil {
		return nil, fmt.Errorf("could not initialize users table: %w", err)
	}

	return repo, nil
}

func (r *UserRepo) createTable() error {
	query := `CREATE TABLE IF NOT EXISTS users(
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`
	_, err := r.db.Exec(query)
	return err
}

// Create registers a new unconfirmed account. The password is stored
// as a bcrypt hash.
func (r *UserRepo) Create(ctx context.Context, email, password string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	u := models.User{
		ID:    uuid.New(),
		Email: normalizeEmail(email),
	}
	query := `INSERT INTO users (id, email, password_hash) VALUES ($1, $2, $3)`
	_, err = r.db.ExecContext(ctx, query, u.ID, u.Email, string(hash))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	return u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT id, email, password_hash, confirmed, created_at FROM users WHERE email = $1`
	var u models.User
	err := r.db.QueryRowContext(ctx, query, normalizeEmail(email)).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Confirmed, &u.CreatedAt)
	return u, err
}

// Authenticate verifies email+password for login. Unknown accounts and
// wrong passwords both come back as ErrInvalidCredentials.
func (r *UserRepo) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	u, err := r.GetByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}
	if !u.Confirmed {
		return models.User{}, ErrNotConfirmed
	}
	return u, nil
}

func (r *UserRepo) Confirm(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET confirmed = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, string(hash), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// EnsureOAuthUser finds or creates a confirmed account for an email
// that arrived through an OAuth provider. OAuth accounts get a random
// unusable password; password login for them requires a reset first.
func (r *UserRepo) EnsureOAuthUser(ctx context.Context, email string) (models.User, error) {
	u, err := r.GetByEmail(ctx, email)
	if err == nil {
		if !u.Confirmed {
			if err := r.Confirm(ctx, u.ID); err != nil {
				return models.User{}, err
			}
			u.Confirmed = true
		}
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.User{}, err
	}

	u, err = r.Create(ctx, email, uuid.NewString())
	if err != nil {
		return models.User{}, err
	}
	if err := r.Confirm(ctx, u.ID); err != nil {
		return models.User{}, err
	}
	u.Confirmed = true
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
