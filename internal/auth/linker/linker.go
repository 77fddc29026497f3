// Package linker creates a local account for an external identity and
// links the two in a single transaction.
package linker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"sso-connect/internal/auth"
	"sso-connect/internal/auth/credentials"
	"sso-connect/internal/auth/resolver"
	"sso-connect/internal/db"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrNameRequired       = errors.New("linker: name required")
	ErrInvalidEmail       = errors.New("linker: invalid email")
	ErrPasswordTooShort   = errors.New("linker: password too short")
	ErrTermsNotAccepted   = errors.New("linker: terms of service not accepted")
	ErrEmailTaken         = errors.New("linker: email already in use")
	ErrIdentityLinked     = errors.New("linker: identity already linked")
	ErrNameEditForbidden  = errors.New("linker: name may not be changed")
	ErrEmailEditForbidden = errors.New("linker: email may not be changed")
)

// Request is a submitted registration form.
type Request struct {
	SSOUser      auth.Identity
	Name         string
	Email        string
	Password     string
	AgreeToTerms bool
}

type Service struct {
	db *db.DB
}

func NewService(db *db.DB) *Service {
	return &Service{db: db}
}

// Validate checks req against the form configuration and returns the
// normalized request.
func Validate(req Request, cfg auth.RegistrationConfig) (Request, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	if req.Name == "" {
		req.Name = req.SSOUser.Name
	}
	if req.Email == "" {
		req.Email = req.SSOUser.Email
	}

	if !cfg.AllowNameEdit && req.SSOUser.Name != "" && req.Name != req.SSOUser.Name {
		return req, ErrNameEditForbidden
	}
	if !cfg.AllowEmailEdit && req.SSOUser.Email != "" && !strings.EqualFold(req.Email, req.SSOUser.Email) {
		return req, ErrEmailEditForbidden
	}
	if req.Name == "" {
		return req, ErrNameRequired
	}
	if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		return req, ErrInvalidEmail
	}
	if cfg.RequirePassword || req.Password != "" {
		minLen := max(cfg.PasswordMinLength, credentials.MinPasswordLength)
		if len(req.Password) < minLen {
			return req, ErrPasswordTooShort
		}
	}
	if cfg.RequireTermsOfService && !req.AgreeToTerms {
		return req, ErrTermsNotAccepted
	}
	return req, nil
}

// RegisterAndLink creates the user, its optional password and the
// identity link. Nothing is written when any step fails.
func (s *Service) RegisterAndLink(ctx context.Context, req Request, cfg auth.RegistrationConfig) (string, error) {
	req, err := Validate(req, cfg)
	if err != nil {
		return "", err
	}

	// The email is only trusted as verified when it is the provider's.
	verified := req.SSOUser.EmailVerified && strings.EqualFold(req.Email, req.SSOUser.Email)

	var userID uuid.UUID
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM identities
				WHERE provider = $1 AND provider_user_id = $2
			)
		`, req.SSOUser.Provider, req.SSOUser.ProviderUserID).Scan(&exists); err != nil {
			return fmt.Errorf("linker: identity check: %w", err)
		}
		if exists {
			return ErrIdentityLinked
		}

		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM users WHERE LOWER(email) = LOWER($1)
			)
		`, req.Email).Scan(&exists); err != nil {
			return fmt.Errorf("linker: email check: %w", err)
		}
		if exists {
			return ErrEmailTaken
		}

		if err := tx.QueryRowContext(ctx, `
			INSERT INTO users (email, email_verified, name, photo_url)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, req.Email, verified, req.Name, req.SSOUser.PhotoURL).Scan(&userID); err != nil {
			return fmt.Errorf("linker: create user: %w", err)
		}

		if req.Password != "" {
			if err := credentials.Create(ctx, tx, userID, req.Password); err != nil {
				return err
			}
		}

		return resolver.Link(ctx, tx, userID, &req.SSOUser)
	})
	if err != nil {
		return "", uniqueViolation(err)
	}
	return userID.String(), nil
}

const pqUniqueViolation = "23505"

// uniqueViolation maps a lost race on the users and identities unique
// constraints to the errors the existence checks would have returned.
func uniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != pqUniqueViolation {
		return err
	}
	switch pqErr.Constraint {
	case "identities_provider_unique":
		return fmt.Errorf("%w: %w", ErrIdentityLinked, err)
	case "users_email_lower_unique":
		return fmt.Errorf("%w: %w", ErrEmailTaken, err)
	default:
		return err
	}
}
