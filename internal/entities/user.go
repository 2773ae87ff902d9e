package entities

import "time"

// User represents a user account in the database
type User struct {
	ID           string    `json:"id"` // UUID
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Fullname     string    `json:"fullname"`
	PasswordHash string    `json:"-"` // Never leaves the service
	CreatedAt    time.Time `json:"created_at"`
}
