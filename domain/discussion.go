package domain

import "time"

// Discussion is a threaded post attached to a business listing. A reply
// carries the ID of its parent post in ParentID; top-level posts leave it
// empty.
type Discussion struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	BusinessID string    `bson:"business_id" json:"business_id"`
	AuthorID   string    `bson:"author_id" json:"author_id"`
	ParentID   string    `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	Title      string    `bson:"title,omitempty" json:"title,omitempty"`
	Body       string    `bson:"body" json:"body"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

// Favorite marks a business as saved by a user. One row per (user, business)
// pair; the repository enforces uniqueness.
type Favorite struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	UserID     string    `bson:"user_id" json:"user_id"`
	BusinessID string    `bson:"business_id" json:"business_id"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}
