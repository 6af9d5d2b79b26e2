package domain

import "time"

// VerificationRequestStatus tracks the lifecycle of a vendor's claim on a
// business listing.
type VerificationRequestStatus string

const (
	VerificationPending  VerificationRequestStatus = "PENDING"
	VerificationApproved VerificationRequestStatus = "APPROVED"
	VerificationRejected VerificationRequestStatus = "REJECTED"
)

// VerificationRequest is a vendor's request to have a business listing
// verified (and ownership attributed). Admins approve or reject it.
type VerificationRequest struct {
	ID         string                    `bson:"_id,omitempty" json:"id"`
	BusinessID string                    `bson:"business_id" json:"business_id"`
	VendorID   string                    `bson:"vendor_id" json:"vendor_id"`
	Status     VerificationRequestStatus `bson:"status" json:"status"`
	Note       string                    `bson:"note,omitempty" json:"note,omitempty"`
	DecidedBy  string                    `bson:"decided_by,omitempty" json:"decided_by,omitempty"`
	DecidedAt  *time.Time                `bson:"decided_at,omitempty" json:"decided_at,omitempty"`
	CreatedAt  time.Time                 `bson:"created_at" json:"created_at"`
}

// EmailVerificationToken is a single-use, expiring token mailed to a user at
// signup (or on demand). Consuming it marks the account verified.
type EmailVerificationToken struct {
	ID        string    `bson:"_id,omitempty" json:"-"`
	Token     string    `bson:"token" json:"-"`
	UserID    string    `bson:"user_id" json:"-"`
	ExpiresAt time.Time `bson:"expires_at" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"-"`
}
