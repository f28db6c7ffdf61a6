package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"pizza-backend/internal/api/middleware"
	"pizza-backend/internal/auth"
	"pizza-backend/internal/mailer"
	"pizza-backend/internal/models"
	"pizza-backend/internal/repository"
)

var validate = validator.New()

const (
	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = 1 * time.Hour
)

type AuthHandler struct {
	users       repository.UserRepository
	tokens      *auth.TokenManager
	sender      mailer.Sender
	frontendURL string
}

func NewAuthHandler(users repository.UserRepository, tokens *auth.TokenManager, sender mailer.Sender, frontendURL string) *AuthHandler {
	return &AuthHandler{
		users:       users,
		tokens:      tokens,
		sender:      sender,
		frontendURL: frontendURL,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

func (h *AuthHandler) sendTokenResponse(w http.ResponseWriter, status int, user *models.User) {
	token, err := h.tokens.Issue(user.UserID, user.Role)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, status, tokenResponse{
		Success: true,
		Token:   token,
		User:    user,
	})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "please provide a valid name, email and password (min 6 characters)", nil)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		writeRepoError(w, err)
		return
	}

	token, tokenHash, err := auth.NewOneTimeToken()
	if err != nil {
		writeRepoError(w, err)
		return
	}

	if err := h.users.SetVerificationToken(r.Context(), user.UserID, tokenHash, time.Now().Add(verificationTokenTTL)); err != nil {
		writeRepoError(w, err)
		return
	}

	verificationURL := fmt.Sprintf("%s/verify-email/%s", h.frontendURL, token)

	html, err := mailer.VerificationEmail(user.Name, verificationURL)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	err = h.sender.Send(r.Context(), mailer.Message{
		To:      user.Email,
		Subject: "Verify Your Email - Pizza App",
		HTML:    html,
	})
	if err != nil {
		// The account exists but cannot be verified; clear the token so a
		// later re-registration attempt surfaces a clean error.
		log.Printf("verification email to %s failed: %v", user.Email, err)
		if clearErr := h.users.ClearVerificationToken(context.WithoutCancel(r.Context()), user.UserID); clearErr != nil {
			log.Printf("failed to clear verification token: %v", clearErr)
		}
		writeError(w, http.StatusInternalServerError, "email_failed",
			"registration succeeded, but the verification email could not be sent, please contact support", nil)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "registration successful, please check your email to verify your account",
	})
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "verification token is required", nil)
		return
	}

	user, err := h.users.VerifyByToken(r.Context(), auth.HashToken(req.Token), time.Now())
	if err != nil {
		writeRepoError(w, err)
		return
	}

	h.sendTokenResponse(w, http.StatusOK, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "please provide email and password", nil)
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials", nil)
			return
		}
		writeRepoError(w, err)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials", nil)
		return
	}

	h.sendTokenResponse(w, http.StatusOK, user)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "user not authenticated", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    user,
	})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "please provide an email address", nil)
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "there is no user with that email", nil)
			return
		}
		writeRepoError(w, err)
		return
	}

	token, tokenHash, err := auth.NewOneTimeToken()
	if err != nil {
		writeRepoError(w, err)
		return
	}

	if err := h.users.SetResetToken(r.Context(), user.UserID, tokenHash, time.Now().Add(resetTokenTTL)); err != nil {
		writeRepoError(w, err)
		return
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", h.frontendURL, token)

	html, err := mailer.ResetPasswordEmail(user.Name, resetURL)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	err = h.sender.Send(r.Context(), mailer.Message{
		To:      user.Email,
		Subject: "Reset Your Password - Pizza App",
		HTML:    html,
	})
	if err != nil {
		log.Printf("reset email to %s failed: %v", user.Email, err)
		writeError(w, http.StatusInternalServerError, "email_failed", "email could not be sent", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "email sent",
	})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Token == "" || len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "bad_request", "please provide the reset token and a new password (min 6 characters)", nil)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	user, err := h.users.ResetPasswordByToken(r.Context(), auth.HashToken(req.Token), hash, time.Now())
	if err != nil {
		writeRepoError(w, err)
		return
	}

	h.sendTokenResponse(w, http.StatusOK, user)
}
