package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Token purposes.
const (
	PurposeConfirm = "confirm"
	PurposeReset   = "reset"
)

// TokenRepo stores single-use expiring tokens for email confirmation
// and password-reset links.
type TokenRepo struct {
	db *sql.DB
}

func NewTokenRepo(db *sql.DB) (*TokenRepo, error) {
	repo := &TokenRepo{db: db}

	if err := repo.createTable(); err != nil {
		return nil, fmt.Errorf("could not initialize auth_tokens table: %w", err)
	}

	return repo, nil
}

func (r *TokenRepo) createTable() error {
	query := `CREATE TABLE IF NOT EXISTS auth_tokens(
		token TEXT PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		purpose TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	);`
	_, err := r.db.Exec(query)
	return err
}

// Issue creates a fresh token for the user and returns its value.
func (r *TokenRepo) Issue(ctx context.Context, userID uuid.UUID, purpose string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	query := `INSERT INTO auth_tokens (token, user_id, purpose, expires_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, token, userID, purpose, time.Now().Add(ttl))
	if err != nil {
		return "", err
	}
	return token, nil
}

// Peek returns the owner of a live token without redeeming it. Used
// by the reset-password page to decide which state to render.
func (r *TokenRepo) Peek(ctx context.Context, token, purpose string) (uuid.UUID, error) {
	query := `SELECT user_id FROM auth_tokens
		WHERE token = $1 AND purpose = $2 AND expires_at > NOW()`
	var userID uuid.UUID
	err := r.db.QueryRowContext(ctx, query, token, purpose).Scan(&userID)
	if err != nil {
		return uuid.Nil, err
	}
	return userID, nil
}

// Consume deletes the token and returns its owner. Expired, already
// used and unknown tokens all come back as sql.ErrNoRows.
func (r *TokenRepo) Consume(ctx context.Context, token, purpose string) (uuid.UUID, error) {
	query := `DELETE FROM auth_tokens
		WHERE token = $1 AND purpose = $2 AND expires_at > NOW()
		RETURNING user_id`
	var userID uuid.UUID
	err := r.db.QueryRowContext(ctx, query, token, purpose).Scan(&userID)
	if err != nil {
		return uuid.Nil, err
	}
	return userID, nil
}
