// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	uuid "github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/qolzam/imagehost/internal/database/postgres"
	tierErrors "github.com/qolzam/imagehost/tiers/errors"
	"github.com/qolzam/imagehost/tiers/models"
)

// foreign_key_violation
const pqForeignKeyViolation = "23503"

type postgresRepository struct {
	client *postgres.Client
	schema string
}

// NewPostgresRepository creates a repository using the default schema.
func NewPostgresRepository(client *postgres.Client) Repository {
	return &postgresRepository{client: client, schema: ""}
}

// NewPostgresRepositoryWithSchema creates a repository using a specific schema.
func NewPostgresRepositoryWithSchema(client *postgres.Client, schema string) Repository {
	return &postgresRepository{client: client, schema: schema}
}

func (r *postgresRepository) getExecutor(ctx context.Context) sqlx.ExtContext {
	return r.client.Executor(ctx)
}

func (r *postgresRepository) ListTiers(ctx context.Context) ([]models.Tier, error) {
	query := `
		SELECT t.id, t.name, t.expose_original, t.can_issue_temp_links,
		       COALESCE(array_agg(s.size_px ORDER BY s.size_px) FILTER (WHERE s.size_px IS NOT NULL), '{}') AS sizes
		FROM %stiers t
		LEFT JOIN %stier_sizes s ON s.tier_id = t.id
		GROUP BY t.id, t.name, t.expose_original, t.can_issue_temp_links
		ORDER BY t.name
	`

	rows, err := r.getExecutor(ctx).QueryxContext(ctx, r.prefixSchema(query))
	if err != nil {
		return nil, fmt.Errorf("%w: list tiers: %v", tierErrors.ErrDatabaseOperation, err)
	}
	defer rows.Close()

	var tiers []models.Tier
	for rows.Next() {
		var (
			tier  models.Tier
			sizes pq.Int64Array
		)
		if err := rows.Scan(&tier.ID, &tier.Name, &tier.ExposeOriginal, &tier.CanIssueTempLinks, &sizes); err != nil {
			return nil, fmt.Errorf("%w: scan tier: %v", tierErrors.ErrDatabaseOperation, err)
		}
		tier.AllowedSizes = make([]int, len(sizes))
		for i, s := range sizes {
			tier.AllowedSizes[i] = int(s)
		}
		tiers = append(tiers, tier)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate tiers: %v", tierErrors.ErrDatabaseOperation, err)
	}
	return tiers, nil
}

func (r *postgresRepository) FindUserTierID(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	query := `SELECT tier_id FROM %suser_tiers WHERE user_id = $1`

	var tierID uuid.NullUUID
	err := sqlx.GetContext(ctx, r.getExecutor(ctx), &tierID, r.prefixSchema(query), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: find user tier: %v", tierErrors.ErrDatabaseOperation, err)
	}
	if !tierID.Valid {
		return nil, nil
	}
	return &tierID.UUID, nil
}

func (r *postgresRepository) AssignTier(ctx context.Context, userID uuid.UUID, tierID *uuid.UUID) error {
	if tierID == nil {
		query := `DELETE FROM %suser_tiers WHERE user_id = $1`
		if _, err := r.getExecutor(ctx).ExecContext(ctx, r.prefixSchema(query), userID); err != nil {
			return fmt.Errorf("%w: clear user tier: %v", tierErrors.ErrDatabaseOperation, err)
		}
		return nil
	}

	query := `
		INSERT INTO %suser_tiers (user_id, tier_id, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET tier_id = EXCLUDED.tier_id, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.getExecutor(ctx).ExecContext(ctx, r.prefixSchema(query), userID, *tierID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return fmt.Errorf("%w: %s", tierErrors.ErrTierNotFound, tierID)
		}
		return fmt.Errorf("%w: assign user tier: %v", tierErrors.ErrDatabaseOperation, err)
	}
	return nil
}

// prefixSchema fills every %s table prefix in query
func (r *postgresRepository) prefixSchema(query string) string {
	prefix := ""
	if r.schema != "" {
		prefix = r.schema + "."
	}
	return strings.ReplaceAll(query, "%s", prefix)
}
