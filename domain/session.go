package domain

import "time"

// SessionBundle is the payload handed to a client after authentication
// completes: the identity plus the issued credential. It is what the
// exchange token store holds between the OAuth callback and the client's
// exchange call.
type SessionBundle struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	Role        string    `json:"role"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SessionToken is an opaque server-side access token. The raw value is only
// ever returned to the client at issuance; requests are validated by looking
// the value up.
type SessionToken struct {
	ID         string    `bson:"_id,omitempty"`
	TokenValue string    `bson:"token_value"`
	UserID     string    `bson:"user_id"`
	Role       string    `bson:"role"`
	ExpiresAt  time.Time `bson:"expires_at"`
	CreatedAt  time.Time `bson:"created_at"`
	LastUsedAt time.Time `bson:"last_used_at"`
	Revoked    bool      `bson:"revoked"`
}

// Principal is the authenticated identity attached to a request after
// credential validation.
type Principal struct {
	ID   string
	Role string
}
