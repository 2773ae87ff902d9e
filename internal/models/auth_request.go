package models

// RegisterRequest represents the request body for user registration.
// Required fields are checked by the user service so every missing field maps to the same error.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Password string `json:"password"`
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
