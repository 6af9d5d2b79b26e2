package domain

import "time"

// UserStatus defines the possible statuses of a user account.
type UserStatus string

const (
	UserStatusActive UserStatus = "ACTIVE"
	UserStatusLocked UserStatus = "LOCKED"
)

// User represents a registered account: a regular member, a vendor who owns
// business listings, or an administrator.
type User struct {
	ID              string     `bson:"_id,omitempty" json:"id"`
	Email           string     `bson:"email" json:"email"`
	PasswordHash    string     `bson:"password_hash,omitempty" json:"-"`
	DisplayName     string     `bson:"display_name,omitempty" json:"display_name,omitempty"`
	Role            string     `bson:"role" json:"role"`
	Status          UserStatus `bson:"status" json:"status"`
	EmailVerifiedAt *time.Time `bson:"email_verified_at,omitempty" json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at" json:"updated_at"`
	LastLoginAt     *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
}

// IsVerified reports whether the account has a recorded email verification
// timestamp. Verification is one-way: once set it is never cleared by normal
// operation.
func (u *User) IsVerified() bool {
	return u.EmailVerifiedAt != nil
}

// MarkVerified records the verification timestamp. Re-verifying an already
// verified account is a no-op, keeping the original timestamp.
func (u *User) MarkVerified(now time.Time) {
	if u.EmailVerifiedAt != nil {
		return
	}
	t := now.UTC()
	u.EmailVerifiedAt = &t
}
