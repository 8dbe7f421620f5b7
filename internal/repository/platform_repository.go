package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edurun/lti-gateway/internal/models"
)

// PlatformRepository provides database access to registered LMS platforms.
type PlatformRepository struct {
	db *sqlx.DB
}

// NewPlatformRepository creates a new instance of PlatformRepository.
func NewPlatformRepository(db *sqlx.DB) *PlatformRepository {
	return &PlatformRepository{db: db}
}

// FindByIssuerClient returns the registration for an issuer/client pair.
func (r *PlatformRepository) FindByIssuerClient(ctx context.Context, issuer, clientID string) (*models.PlatformRegistration, error) {
	const query = `SELECT id, issuer, name, client_id, auth_endpoint, token_endpoint, keyset_url, public_key, created_at, updated_at FROM platforms WHERE issuer = $1 AND client_id = $2 LIMIT 1`
	var platform models.PlatformRegistration
	if err := r.db.GetContext(ctx, &platform, query, issuer, clientID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find platform by issuer/client: %w", err)
	}
	return &platform, nil
}

// List returns every registered platform.
func (r *PlatformRepository) List(ctx context.Context) ([]models.PlatformRegistration, error) {
	const query = `SELECT id, issuer, name, client_id, auth_endpoint, token_endpoint, keyset_url, public_key, created_at, updated_at FROM platforms ORDER BY created_at`
	var platforms []models.PlatformRegistration
	if err := r.db.SelectContext(ctx, &platforms, query); err != nil {
		return nil, fmt.Errorf("list platforms: %w", err)
	}
	return platforms, nil
}

// Upsert inserts or refreshes a registration keyed by (issuer, client_id).
func (r *PlatformRepository) Upsert(ctx context.Context, platform *models.PlatformRegistration) error {
	if platform.ID == "" {
		platform.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	const query = `INSERT INTO platforms (id, issuer, name, client_id, auth_endpoint, token_endpoint, keyset_url, public_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (issuer, client_id) DO UPDATE SET
			name = EXCLUDED.name,
			auth_endpoint = EXCLUDED.auth_endpoint,
			token_endpoint = EXCLUDED.token_endpoint,
			keyset_url = EXCLUDED.keyset_url,
			public_key = EXCLUDED.public_key,
			updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query,
		platform.ID,
		platform.Issuer,
		platform.Name,
		platform.ClientID,
		platform.AuthEndpoint,
		platform.TokenEndpoint,
		platform.KeysetURL,
		platform.PublicKeyPEM,
		now,
	); err != nil {
		return fmt.Errorf("upsert platform: %w", err)
	}
	return nil
}

// Delete removes a registration by issuer/client pair.
func (r *PlatformRepository) Delete(ctx context.Context, issuer, clientID string) error {
	const query = `DELETE FROM platforms WHERE issuer = $1 AND client_id = $2`
	if _, err := r.db.ExecContext(ctx, query, issuer, clientID); err != nil {
		return fmt.Errorf("delete platform: %w", err)
	}
	return nil
}
