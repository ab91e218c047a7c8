package models

import "time"

// Secret is a named credential owned by exactly one user. Ciphertext is the
// opaque output of the layered encryption engine; plaintext never touches
// the store.
type Secret struct {
	ID         string
	UserID     string
	Name       string
	Ciphertext string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SecretSummary is the listing projection: metadata only, never ciphertext.
type SecretSummary struct {
	ID   string `json:"id"`
	Name string `json:"account_name"`
}
