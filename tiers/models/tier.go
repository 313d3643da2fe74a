// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package models

import (
	"sort"

	uuid "github.com/gofrs/uuid"
)

const (
	// DefaultTierName is the tier every untiered user resolves to
	DefaultTierName = "Basic"
	// MaxNameLength bounds tier display names
	MaxNameLength = 25
)

// Seeded tier ids, shared by the SQL seed migration and the memory store
var (
	BasicTierID      = uuid.Must(uuid.FromString("00000000-0000-4000-8000-000000000001"))
	PremiumTierID    = uuid.Must(uuid.FromString("00000000-0000-4000-8000-000000000002"))
	EnterpriseTierID = uuid.Must(uuid.FromString("00000000-0000-4000-8000-000000000003"))
)

// Tier is a named bundle of capabilities. AllowedSizes are thumbnail heights in pixels.
type Tier struct {
	ID                uuid.UUID `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	AllowedSizes      []int     `json:"allowedSizes" db:"-"`
	ExposeOriginal    bool      `json:"exposeOriginal" db:"expose_original"`
	CanIssueTempLinks bool      `json:"canIssueTempLinks" db:"can_issue_temp_links"`
}

// Sizes returns AllowedSizes deduplicated in ascending order
func (t Tier) Sizes() []int {
	seen := make(map[int]bool, len(t.AllowedSizes))
	sizes := make([]int, 0, len(t.AllowedSizes))
	for _, s := range t.AllowedSizes {
		if s > 0 && !seen[s] {
			seen[s] = true
			sizes = append(sizes, s)
		}
	}
	sort.Ints(sizes)
	return sizes
}

// User is the part of a principal that tier resolution needs.
// A nil TierID means no tier has been assigned.
type User struct {
	ID     uuid.UUID
	TierID *uuid.UUID
}

// RenderDecision says which representations of an image a caller may see
type RenderDecision struct {
	ThumbnailSizes    []int `json:"thumbnailSizes"`
	IncludeOriginal   bool  `json:"includeOriginal"`
	CanIssueTempLinks bool  `json:"canIssueTempLinks"`
}

// BuiltinBasic is used when the store has no tier named DefaultTierName
func BuiltinBasic() Tier {
	return Tier{
		ID:           BasicTierID,
		Name:         DefaultTierName,
		AllowedSizes: []int{200},
	}
}

// SeedTiers returns the tiers created on first start
func SeedTiers() []Tier {
	return []Tier{
		BuiltinBasic(),
		{ID: PremiumTierID, Name: "Premium", AllowedSizes: []int{200, 400}, ExposeOriginal: true},
		{ID: EnterpriseTierID, Name: "Enterprise", AllowedSizes: []int{200, 400}, ExposeOriginal: true, CanIssueTempLinks: true},
	}
}

// TierResponse is the wire shape of a tier
type TierResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Sizes             []int     `json:"sizes"`
	ExposeOriginal    bool      `json:"expose_original"`
	CanIssueTempLinks bool      `json:"can_issue_temp_links"`
}

// ToResponse converts a tier to its wire shape
func (t Tier) ToResponse() TierResponse {
	return TierResponse{
		ID:                t.ID,
		Name:              t.Name,
		Sizes:             t.Sizes(),
		ExposeOriginal:    t.ExposeOriginal,
		CanIssueTempLinks: t.CanIssueTempLinks,
	}
}

// MyTierResponse is returned by GET /tiers/me
type MyTierResponse struct {
	Tier TierResponse `json:"tier"`
	// Assigned is false when the caller is on the default tier by fallback
	Assigned bool `json:"assigned"`
}

// AssignTierRequest is the body of PUT /admin/users/:userId/tier. A null tier_id clears the assignment.
type AssignTierRequest struct {
	TierID *uuid.UUID `json:"tier_id"`
}
