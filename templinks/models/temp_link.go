// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package models

import (
	"time"

	uuid "github.com/gofrs/uuid"
)

// Lifetime bounds for a temporary link, in seconds, inclusive
const (
	MinTTLSeconds = 300
	MaxTTLSeconds = 30000
)

// TempLink grants anonymous read access to one original until ExpiresAt.
// Only a digest of the bearer token is stored.
type TempLink struct {
	TokenDigest []byte    `db:"token_digest"`
	ImageID     uuid.UUID `db:"image_id"`
	OwnerUserID uuid.UUID `db:"owner_user_id"`
	ExpiresAt   time.Time `db:"expires_at"`
	CreatedAt   time.Time `db:"created_at"`
}

// ExpiredAt reports whether the link is no longer valid at now.
// A link is expired from the instant now reaches ExpiresAt.
func (l TempLink) ExpiredAt(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// IssueRequest is the body of POST /images/temp-links
type IssueRequest struct {
	ImageID         uuid.UUID `json:"image_id"`
	SecondsToExpire int       `json:"seconds_to_expire"`
}

// IssueResponse is returned on successful issuance
type IssueResponse struct {
	TempLink  string    `json:"temp_link"`
	ExpiresAt time.Time `json:"expires_at"`
}
