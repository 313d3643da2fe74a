// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package models

import (
	"time"

	uuid "github.com/gofrs/uuid"
)

// Image is an uploaded original. Images are immutable after creation.
type Image struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OwnerUserID uuid.UUID `json:"ownerUserId" db:"owner_user_id"`
	ObjectKey   string    `json:"objectKey" db:"object_key"`
	ContentType string    `json:"contentType" db:"content_type"`
	FileName    string    `json:"fileName" db:"file_name"`
	SizeBytes   int64     `json:"sizeBytes" db:"size_bytes"`
	Width       int       `json:"width" db:"width"`
	Height      int       `json:"height" db:"height"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// ImageResponse is an image shaped by the caller's tier.
// OriginalImageURL is omitted entirely when the tier hides originals.
type ImageResponse struct {
	ID               uuid.UUID         `json:"id"`
	Thumbnails       map[string]string `json:"thumbnails"`
	OriginalImageURL string            `json:"original_image_url,omitempty"`
	FileName         string            `json:"file_name,omitempty"`
	Width            int               `json:"width"`
	Height           int               `json:"height"`
	CreatedAt        time.Time         `json:"created_at"`
}

// ListQuery is decoded from GET /images query parameters
type ListQuery struct {
	Limit  int `schema:"limit"`
	Offset int `schema:"offset"`
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Normalize clamps the query to supported bounds
func (q *ListQuery) Normalize() {
	if q.Limit <= 0 {
		q.Limit = DefaultListLimit
	}
	if q.Limit > MaxListLimit {
		q.Limit = MaxListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}

// ListResponse is returned by GET /images
type ListResponse struct {
	Images []ImageResponse `json:"images"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// BinaryResponse carries the original bytes, standard base64 encoded
type BinaryResponse struct {
	BinaryImage string `json:"binary_image"`
}
