// Package model defines domain entities for the application.
package model

import (
	"strconv"
	"time"
)

// Default values applied to new users.
const (
	DefaultPlan = "free"
	DefaultRole = "user"
)

// User represents a registered account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Never serialize
	Plan         string    `json:"plan"`
	Role         string    `json:"role"`
	CompanyID    *string   `json:"company_id,omitempty"`
	CompanyName  *string   `json:"company_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasCompany reports whether the user belongs to a company.
func (u *User) HasCompany() bool {
	return u.CompanyID != nil && *u.CompanyID != ""
}

// CustomFields carries plan and role for widget personalization.
type CustomFields struct {
	Plan string `json:"plan"`
	Role string `json:"role"`
}

// Company is the optional company attached to a user context.
type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserContext is the client-facing projection of a user.
// It is returned by every auth endpoint and handed to the widget SDK.
type UserContext struct {
	UserID       string       `json:"user_id"`
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	CustomFields CustomFields `json:"custom_fields"`
	Company      *Company     `json:"company,omitempty"`
}

// ToContext converts a User to its UserContext projection.
// Company is only set when the user has a company ID.
func (u *User) ToContext() UserContext {
	uc := UserContext{
		UserID: strconv.FormatInt(u.ID, 10),
		Email:  u.Email,
		Name:   u.Name,
		CustomFields: CustomFields{
			Plan: u.Plan,
			Role: u.Role,
		},
	}

	if u.HasCompany() {
		company := &Company{ID: *u.CompanyID}
		if u.CompanyName != nil {
			company.Name = *u.CompanyName
		}
		uc.Company = company
	}

	return uc
}
