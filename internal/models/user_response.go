package models

import "users-be/internal/entities"

// UserResponse is the externally visible projection of a user. It never carries the password.
type UserResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
}

// UserListResponse wraps the GET /api/users result
type UserListResponse struct {
	Users []UserResponse `json:"users"`
}

func NewUserResponse(user *entities.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Fullname: user.Fullname,
	}
}
