// Package listing defines room and roommate ads as stored and matched.
package listing

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/matchmate/internal/domain/geo"
)

// Type tags what a listing offers; it decides which structural fields mean anything.
type Type string

const (
	// TypeRoom is a room offered for rent.
	TypeRoom Type = "room"
	// TypeRoommate is a person looking for a roommate.
	TypeRoommate Type = "roommate"
)

// IsValid reports whether t is a known listing type.
func (t Type) IsValid() bool {
	return t == TypeRoom || t == TypeRoommate
}

// ParseType parses a listing type, case-insensitively.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("invalid listing type %q (want room or roommate)", s)
	}
	return t, nil
}

// Content limits.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MaxKeywords          = 50
	MaxImages            = 20
)

// Structured holds the room-only attributes compared by structured scoring.
// Nil means the poster did not say.
type Structured struct {
	Bedrooms  *int       `json:"bedrooms,omitempty"`
	Bathrooms *float64   `json:"bathrooms,omitempty"`
	Furnished *bool      `json:"furnished,omitempty"`
	Location  *geo.Point `json:"location,omitempty"`
}

// Listing is a posted room or roommate-seeking ad.
type Listing struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	Type           Type       `json:"type"`
	Title          string     `json:"title,omitempty"`
	Description    string     `json:"description"`
	Address        string     `json:"address,omitempty"`
	Images         []string   `json:"images,omitempty"`
	Keywords       []string   `json:"keywords,omitempty"`
	Price          *float64   `json:"price,omitempty"`
	Structured     Structured `json:"structured"`
	SearchRadiusKm float64    `json:"search_radius_km,omitempty"`
	Closed         bool       `json:"closed"`
	Embedding      []float32  `json:"embedding,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsRoom reports whether room-only attributes apply.
func (l *Listing) IsRoom() bool { return l.Type == TypeRoom }

// EmbeddingText is the text whose embedding represents the listing:
// title, description and address joined, skipping empty parts.
func (l *Listing) EmbeddingText() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.Title, l.Description, l.Address} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n")
}

// HasUsableEmbedding reports whether the stored embedding can be compared
// against a vector of width dim without regenerating it.
func (l *Listing) HasUsableEmbedding(dim int) bool {
	if len(l.Embedding) == 0 || len(l.Embedding) != dim {
		return false
	}
	for _, f := range l.Embedding {
		if f != 0 {
			return true
		}
	}
	return false
}

// Validate checks required fields and limits.
func (l *Listing) Validate() error {
	if !l.Type.IsValid() {
		return fmt.Errorf("invalid listing type %q", l.Type)
	}
	if strings.TrimSpace(l.UserID) == "" {
		return fmt.Errorf("user_id is required")
	}
	if strings.TrimSpace(l.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if len(l.Title) > MaxTitleLength {
		return fmt.Errorf("title too long (max %d chars)", MaxTitleLength)
	}
	if len(l.Description) > MaxDescriptionLength {
		return fmt.Errorf("description too long (max %d chars)", MaxDescriptionLength)
	}
	if len(l.Keywords) > MaxKeywords {
		return fmt.Errorf("too many keywords (max %d)", MaxKeywords)
	}
	if len(l.Images) > MaxImages {
		return fmt.Errorf("too many images (max %d)", MaxImages)
	}
	if l.Price != nil && *l.Price < 0 {
		return fmt.Errorf("price must be non-negative")
	}
	if l.SearchRadiusKm < 0 {
		return fmt.Errorf("search_radius_km must be non-negative")
	}
	if s := l.Structured; s.Location != nil && !s.Location.Valid() {
		return fmt.Errorf("invalid location coordinates")
	}
	if b := l.Structured.Bedrooms; b != nil && *b < 0 {
		return fmt.Errorf("bedrooms must be non-negative")
	}
	if b := l.Structured.Bathrooms; b != nil && *b < 0 {
		return fmt.Errorf("bathrooms must be non-negative")
	}
	return nil
}

// Normalize drops attributes that carry no meaning for the listing type.
// Roommate posts have no title, address, price or room structure; location stays.
func (l *Listing) Normalize() {
	l.Title = strings.TrimSpace(l.Title)
	l.Description = strings.TrimSpace(l.Description)
	l.Address = strings.TrimSpace(l.Address)
	if l.Type == TypeRoommate {
		l.Title = ""
		l.Address = ""
		l.Price = nil
		l.Structured.Bedrooms = nil
		l.Structured.Bathrooms = nil
		l.Structured.Furnished = nil
	}
}
