package resolver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sso-connect/internal/auth"
	"sso-connect/internal/db"
	"sso-connect/internal/logger"

	"github.com/google/uuid"
)

// DBResolver resolves identities using the identities table.
type DBResolver struct {
	db *db.DB

	// autoLinkVerifiedEmail links an unknown identity to the existing
	// user with the same email when the provider verified that email.
	autoLinkVerifiedEmail bool
}

func NewDBResolver(db *db.DB, autoLinkVerifiedEmail bool) *DBResolver {
	return &DBResolver{db: db, autoLinkVerifiedEmail: autoLinkVerifiedEmail}
}

func (r *DBResolver) Resolve(ctx context.Context, identity *auth.Identity) (string, error) {
	if identity == nil {
		return "", errors.New("resolver: identity is nil")
	}

	// 1. Identity lookup (provider + provider_user_id)
	var userID uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id
		FROM identities
		WHERE provider = $1
		  AND provider_user_id = $2
	`,
		identity.Provider,
		identity.ProviderUserID,
	).Scan(&userID)

	if err == nil {
		return userID.String(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("resolver: identity lookup: %w", err)
	}

	if !r.autoLinkVerifiedEmail || !identity.EmailVerified || identity.Email == "" {
		return "", ErrNotLinked
	}

	// 2. Email-based linking (existing user, new provider)
	err = r.db.QueryRowContext(ctx, `
		SELECT id
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`,
		identity.Email,
	).Scan(&userID)

	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotLinked
	}
	if err != nil {
		return "", fmt.Errorf("resolver: email lookup: %w", err)
	}

	if err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		return Link(ctx, tx, userID, identity)
	}); err != nil {
		return "", err
	}

	logger.Info("identity auto-linked by verified email", map[string]any{
		"provider": identity.Provider,
		"user_id":  userID.String(),
	})
	return userID.String(), nil
}

// Link records that identity belongs to userID.
func Link(ctx context.Context, tx *sql.Tx, userID uuid.UUID, identity *auth.Identity) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO identities (user_id, provider, provider_user_id)
		VALUES ($1, $2, $3)
	`,
		userID,
		identity.Provider,
		identity.ProviderUserID,
	)
	if err != nil {
		return fmt.Errorf("resolver: link identity: %w", err)
	}
	return nil
}
