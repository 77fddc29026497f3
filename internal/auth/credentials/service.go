package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sso-connect/internal/db"

	"github.com/google/uuid"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	db *db.DB
}

func NewService(db *db.DB) *Service {
	return &Service{db: db}
}

// Create stores a password for userID inside tx.
func Create(ctx context.Context, tx *sql.Tx, userID uuid.UUID, password string) error {
	hash, version, err := HashPassword(password)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO credentials (user_id, password_hash, hash_version)
		VALUES ($1, $2, $3)
	`, userID, hash, version)
	if err != nil {
		return fmt.Errorf("credentials: insert: %w", err)
	}
	return nil
}

// Authenticate returns the user id for a matching email and password.
func (s *Service) Authenticate(ctx context.Context, email string, password string) (string, error) {
	var cred Credential
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, c.password_hash
		FROM users u
		JOIN credentials c ON c.user_id = u.id
		WHERE LOWER(u.email) = LOWER($1)
		  AND u.status = 'active'
	`, email).Scan(&cred.UserID, &cred.PasswordHash)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		// hide whether the user exists
		return "", ErrInvalidCredentials
	}

	if err := VerifyPassword(cred.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}
	return cred.UserID, nil
}
