package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Address      string    `json:"address"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// PublicUser is the user shape returned by the auth endpoints.
type PublicUser struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	Role     Role   `json:"role"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Address:  u.Address,
		Role:     u.Role,
	}
}

// Identity is what the authorization gate attaches to a request.
type Identity struct {
	UserID int64
	Email  string
	Role   Role
}

type RegisterRequest struct {
	FullName string `json:"fullName" validate:"min=20,max=60" msg:"Name must be between 20 and 60 characters"`
	Email    string `json:"email" validate:"required,email" msg:"Invalid email format"`
	Password string `json:"password" validate:"strong_password" msg:"Password must be 8-16 chars, include 1 uppercase and 1 special character"`
	Address  string `json:"address" validate:"max=400" msg:"Address must be maximum 400 characters"`
	Role     string `json:"role" validate:"omitempty,role" msg:"Invalid role"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required" msg:"Email is required"`
	Password string `json:"password" validate:"required" msg:"Password is required"`
	Role     string `json:"role"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required" msg:"Current password is required"`
	NewPassword     string `json:"newPassword" validate:"min=6,max=50,password_strength" msg:"New password must be 6-50 characters and include at least one uppercase letter and one special character"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email" msg:"Please provide a valid email address"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required" msg:"Reset token is required"`
	NewPassword string `json:"newPassword" validate:"min=6,max=50,password_strength" msg:"New password must be 6-50 characters and include at least one uppercase letter and one special character"`
}
