package models

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	UserID string `json:"user_id"` // UUID
	Email  string `json:"email"`
	Token  string `json:"token"` // JWT token
}
