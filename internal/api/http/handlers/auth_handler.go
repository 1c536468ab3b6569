package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/notes-service/internal/api/dto"
	"github.com/spec-kit/notes-service/internal/auth"
	"github.com/spec-kit/notes-service/internal/service"
)

// AuthHandler exposes the OTP and federated login endpoints.
type AuthHandler struct {
	auth               *service.AuthService
	successRedirectURL string
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, successRedirectURL string) *AuthHandler {
	return &AuthHandler{auth: authService, successRedirectURL: successRedirectURL}
}

// Signup handles POST /user/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "email required")
	}

	var dob *time.Time
	if req.DOB != "" {
		parsed, err := time.Parse("2006-01-02", req.DOB)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "dob must be YYYY-MM-DD")
		}
		dob = &parsed
	}

	if err := h.auth.RequestSignupCode(c.Context(), req.Email, req.Name, dob); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "OTP sent to email"})
}

// VerifyOTP handles POST /user/verify-otp.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	return h.verify(c)
}

// Login handles POST /user/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "email required")
	}

	if err := h.auth.RequestLoginCode(c.Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "OTP sent to email"})
}

// VerifyLoginOTP handles POST /user/verify-login-otp. Sign-up and sign-in
// verification share one gate.
func (h *AuthHandler) VerifyLoginOTP(c *fiber.Ctx) error {
	return h.verify(c)
}

func (h *AuthHandler) verify(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.OTP == "" {
		return fiber.NewError(http.StatusBadRequest, "email and otp required")
	}

	user, token, exp, err := h.auth.VerifyCode(c.Context(), req.Email, req.OTP)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// GoogleLogin handles GET /user/google.
func (h *AuthHandler) GoogleLogin(c *fiber.Ctx) error {
	loginURL, err := h.auth.GoogleLoginURL(c.Context())
	if err != nil {
		return err
	}
	return c.Redirect(loginURL, http.StatusTemporaryRedirect)
}

// GoogleCallback handles GET /user/google/callback and redirects to the
// frontend carrying the session token.
func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		return fiber.NewError(http.StatusBadRequest, "state and code required")
	}

	_, token, _, err := h.auth.HandleGoogleCallback(c.Context(), state, code)
	if err != nil {
		return err
	}

	redirect := h.successRedirectURL + "?token=" + url.QueryEscape(token)
	return c.Redirect(redirect, http.StatusTemporaryRedirect)
}

// Profile handles GET /user/profile.
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	user, err := h.auth.GetProfile(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
