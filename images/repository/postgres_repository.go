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
	imageErrors "github.com/qolzam/imagehost/images/errors"
	"github.com/qolzam/imagehost/images/models"
	"github.com/qolzam/imagehost/internal/database/postgres"
)

const imageColumns = `id, owner_user_id, object_key, content_type, file_name, size_bytes, width, height, created_at`

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

func (r *postgresRepository) Create(ctx context.Context, image *models.Image) error {
	query := `
		INSERT INTO %simages (` + imageColumns + `)
		VALUES (:id, :owner_user_id, :object_key, :content_type, :file_name, :size_bytes, :width, :height, :created_at)
	`
	if _, err := sqlx.NamedExecContext(ctx, r.getExecutor(ctx), r.prefixSchema(query), image); err != nil {
		return fmt.Errorf("%w: insert image: %v", imageErrors.ErrDatabaseOperation, err)
	}
	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM %simages WHERE id = $1`

	var image models.Image
	if err := sqlx.GetContext(ctx, r.getExecutor(ctx), &image, r.prefixSchema(query), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, imageErrors.ErrImageNotFound
		}
		return nil, fmt.Errorf("%w: find image: %v", imageErrors.ErrDatabaseOperation, err)
	}
	return &image, nil
}

func (r *postgresRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Image, error) {
	query := `
		SELECT ` + imageColumns + `
		FROM %simages
		WHERE owner_user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	images := []models.Image{}
	if err := sqlx.SelectContext(ctx, r.getExecutor(ctx), &images, r.prefixSchema(query), ownerID, limit, offset); err != nil {
		return nil, fmt.Errorf("%w: list images: %v", imageErrors.ErrDatabaseOperation, err)
	}
	return images, nil
}

func (r *postgresRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM %simages WHERE owner_user_id = $1`

	var count int64
	if err := sqlx.GetContext(ctx, r.getExecutor(ctx), &count, r.prefixSchema(query), ownerID); err != nil {
		return 0, fmt.Errorf("%w: count images: %v", imageErrors.ErrDatabaseOperation, err)
	}
	return count, nil
}

// prefixSchema fills every %s table prefix in query
func (r *postgresRepository) prefixSchema(query string) string {
	prefix := ""
	if r.schema != "" {
		prefix = r.schema + "."
	}
	return strings.ReplaceAll(query, "%s", prefix)
}
