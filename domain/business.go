package domain

import "time"

// Business is a directory listing for a local business.
type Business struct {
	ID          string     `bson:"_id,omitempty" json:"id"`
	OwnerID     string     `bson:"owner_id,omitempty" json:"owner_id,omitempty"`
	Name        string     `bson:"name" json:"name"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	Category    string     `bson:"category,omitempty" json:"category,omitempty"`
	City        string     `bson:"city,omitempty" json:"city,omitempty"`
	Address     string     `bson:"address,omitempty" json:"address,omitempty"`
	Phone       string     `bson:"phone,omitempty" json:"phone,omitempty"`
	Website     string     `bson:"website,omitempty" json:"website,omitempty"`
	VerifiedAt  *time.Time `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// BusinessFilter narrows a directory listing query. Zero values mean
// "no constraint".
type BusinessFilter struct {
	Query        string // free-text search over name and description
	Category     string
	City         string
	VerifiedOnly bool
}
