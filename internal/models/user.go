package models

import "time"

// User is a registered identity. Email is stored lower-cased and is unique.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
