// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is the identity record and the root of all ownership graphs.
// MasterPassword holds the argon2id PHC-encoded hash, never a plaintext;
// it stays empty until the user sets one.
type User struct {
	ID             string
	UserName       string
	Email          string
	MasterPassword string

	// Third-party identity linkage. At most one non-empty value per
	// provider; each is globally unique when set.
	Facebook string
	Google   string
	GitHub   string
	LinkedIn string
	Twitter  string

	JoinDate time.Time
	IsActive bool
}

// PublicUser is the externally visible view of a User. The master-password
// hash and provider linkage values are deliberately absent.
type PublicUser struct {
	ID       string    `json:"id"`
	UserName string    `json:"username"`
	Email    string    `json:"email"`
	JoinDate time.Time `json:"join_date"`
	IsActive bool      `json:"is_active"`
}

// Public returns the serializable view of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		UserName: u.UserName,
		Email:    u.Email,
		JoinDate: u.JoinDate,
		IsActive: u.IsActive,
	}
}
