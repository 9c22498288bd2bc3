package db

import (
	"time"

	"gorm.io/datatypes"
)

// API key status values. A key is created active and can only move to
// revoked; there is no un-revoke.
const (
	KeyStatusActive  = "active"
	KeyStatusRevoked = "revoked"
)

// User is a developer account that registers applications and reads
// aggregates. Accounts are provisioned through the Google OAuth callback
// or created with a password for local sign-in.
type User struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// GoogleID links the account to its Google identity. Empty for
	// accounts that only sign in locally.
	GoogleID string `gorm:"index;size:64"`

	Email string `gorm:"uniqueIndex;size:255;not null"`
	Name  string `gorm:"size:128"`

	// PasswordHash is a bcrypt hash. Empty disables local sign-in.
	PasswordHash string `gorm:"size:255"`
}

// Application is a registered client that emits events under an issued
// API key. Ownership is fixed at creation.
type Application struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time

	// UserID is the owning developer. Every aggregate query is scoped
	// through this column, never by application id alone.
	UserID uint `gorm:"index;not null"`

	Name   string `gorm:"size:128;not null"`
	Domain string `gorm:"size:255"`

	User User `gorm:"foreignKey:UserID"`
}

// APIKey stores the SHA-256 hash of an issued key. The plaintext is shown
// to the owner exactly once at issuance and never persisted. Rows are
// never deleted; revocation flips Status.
type APIKey struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	ApplicationID uint `gorm:"index;not null"`

	KeyHash string `gorm:"index;size:64;not null"`

	Status string `gorm:"size:16;not null;default:active"`

	Application Application `gorm:"foreignKey:ApplicationID"`
}

// Event is a single behavioral event collected from an application.
// Append-only; never mutated after insert.
type Event struct {
	ID uint `gorm:"primaryKey"`

	ApplicationID uint `gorm:"index;not null"`

	EventName string `gorm:"size:128;index;not null"`

	// UserID identifies the application's end user (e.g. "user789"),
	// not a row in the users table. Optional.
	UserID string `gorm:"size:128;index"`

	URL       string `gorm:"size:2048"`
	Referrer  string `gorm:"size:2048"`
	Device    string `gorm:"size:64"`
	IPAddress string `gorm:"size:64"`

	// Metadata holds arbitrary key/value pairs (browser, os, ...) so
	// callers can attach detail without schema changes.
	Metadata datatypes.JSONMap `gorm:"type:json"`

	Timestamp time.Time `gorm:"index"`
}
