package services

import "context"

// PasswordHasher abstracts credential hashing.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify returns nil when the password matches the stored hash.
	Verify(hashedPassword, password string) error
}

// Mailer abstracts outbound email delivery.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
