package models

import "time"

// Company is a registered tenant.
type Company struct {
	ID        int64     `json:"id" db:"id"`
	ShortName string    `json:"short_name" db:"short_name"`
	Name      string    `json:"name" db:"name"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// User is a local (email/password) user of one or more companies.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Verified     bool      `json:"verified" db:"verified"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// APIKey binds a secret key to a company. It authenticates the company only.
type APIKey struct {
	ID         int64      `json:"id" db:"id"`
	CompanyID  int64      `json:"company_id" db:"company_id"`
	Key        string     `json:"-" db:"key"`
	Active     bool       `json:"active" db:"active"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
}
