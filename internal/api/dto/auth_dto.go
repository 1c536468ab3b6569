package dto

import (
	"time"

	"github.com/spec-kit/notes-service/internal/domain"
)

// SignupRequest payload for requesting a sign-up code.
type SignupRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	DOB   string `json:"dob"`
}

// LoginRequest payload for requesting a sign-in code.
type LoginRequest struct {
	Email string `json:"email"`
}

// VerifyOTPRequest payload for submitting a code.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the client-visible identity shape. OTP fields never leave
// the server.
type UserResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	DOB       *time.Time `json:"dob,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewUserResponse maps a domain user to its response shape.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		DOB:       user.DateOfBirth,
		CreatedAt: user.CreatedAt,
	}
}
