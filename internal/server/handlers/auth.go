package handlers

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	apierrors "github.com/mdvault/mdvault/internal/errors"
)

// AuthHandler issues edit session tokens.
type AuthHandler struct {
	jwtSecret    []byte
	passwordHash string
}

// NewAuthHandler creates a new auth handler. An empty passwordHash disables
// authentication entirely.
func NewAuthHandler(jwtSecret []byte, passwordHash string) *AuthHandler {
	return &AuthHandler{jwtSecret: jwtSecret, passwordHash: passwordHash}
}

// Enabled reports whether an edit password is configured.
func (h *AuthHandler) Enabled() bool {
	return h.passwordHash != ""
}

// LoginRequest is a request to obtain an edit session token.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse carries the session token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login verifies the edit password and returns a signed session token.
func (h *AuthHandler) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if !h.Enabled() {
		return nil, apierrors.BadRequest("authentication is not enabled")
	}
	if req.Password == "" {
		return nil, apierrors.MissingField("password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(req.Password)); err != nil {
		return nil, apierrors.Unauthorized()
	}

	expiresAt := time.Now().Add(24 * time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "editor",
		"iat": time.Now().Unix(),
		"exp": expiresAt.Unix(),
	})
	signed, err := token.SignedString(h.jwtSecret)
	if err != nil {
		return nil, apierrors.InternalWithError("Failed to sign token", err)
	}
	return &LoginResponse{Token: signed, ExpiresAt: expiresAt}, nil
}
