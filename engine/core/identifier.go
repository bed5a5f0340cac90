package core

import "github.com/google/uuid"

// IdentifierAcquireNewID returns a fresh identifier for subscriptions and handles.
func IdentifierAcquireNewID() string {
	return uuid.NewString()
}

// IdentifierShort returns the first block of an identifier, handy in log lines.
func IdentifierShort(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
