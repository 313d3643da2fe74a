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

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/qolzam/imagehost/internal/database/postgres"
	linkErrors "github.com/qolzam/imagehost/templinks/errors"
	"github.com/qolzam/imagehost/templinks/models"
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

func (r *postgresRepository) Create(ctx context.Context, link *models.TempLink) error {
	query := `
		INSERT INTO %stemp_links (token_digest, image_id, owner_user_id, expires_at, created_at)
		VALUES (:token_digest, :image_id, :owner_user_id, :expires_at, :created_at)
	`
	if _, err := sqlx.NamedExecContext(ctx, r.getExecutor(ctx), r.prefixSchema(query), link); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return fmt.Errorf("%w: %s", linkErrors.ErrImageNotFound, link.ImageID)
		}
		return fmt.Errorf("%w: insert temp link: %v", linkErrors.ErrDatabaseOperation, err)
	}
	return nil
}

func (r *postgresRepository) FindByDigest(ctx context.Context, digest []byte) (*models.TempLink, error) {
	query := `
		SELECT token_digest, image_id, owner_user_id, expires_at, created_at
		FROM %stemp_links
		WHERE token_digest = $1
	`

	var link models.TempLink
	if err := sqlx.GetContext(ctx, r.getExecutor(ctx), &link, r.prefixSchema(query), digest); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, linkErrors.ErrLinkNotFound
		}
		return nil, fmt.Errorf("%w: find temp link: %v", linkErrors.ErrDatabaseOperation, err)
	}
	return &link, nil
}

// prefixSchema fills every %s table prefix in query
func (r *postgresRepository) prefixSchema(query string) string {
	prefix := ""
	if r.schema != "" {
		prefix = r.schema + "."
	}
	return strings.ReplaceAll(query, "%s", prefix)
}
