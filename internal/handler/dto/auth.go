// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import "github.com/authgate/authgate/internal/model"

// RegisterRequest represents the request body for registering a user.
type RegisterRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Password    string `json:"password"`
	Plan        string `json:"plan,omitempty"`
	Role        string `json:"role,omitempty"`
	CompanyID   string `json:"company_id,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}

// LoginRequest represents the request body for logging in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Success     bool              `json:"success"`
	Token       string            `json:"token"`
	UserContext model.UserContext `json:"userContext"`
}

// MeResponse is returned by me.
type MeResponse struct {
	Success     bool              `json:"success"`
	UserContext model.UserContext `json:"userContext"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
}
