package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/imagehub/backend/internal/models"
	"github.com/imagehub/backend/internal/response"
)

const (
	msgInternal        = "Some error occured"
	msgPasswordTooLong = "Password is too long"
)

// UserStore defines the interface for user persistence. Lookups return
// models.ErrNotFound when no record matches; Create returns
// models.ErrAlreadyExists when username or email is taken.
type UserStore interface {
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users  UserStore
	hasher Hasher
	tokens *TokenIssuer
	log    logrus.FieldLogger
}

func NewHandler(users UserStore, hasher Hasher, tokens *TokenIssuer, log logrus.FieldLogger) *Handler {
	return &Handler{users: users, hasher: hasher, tokens: tokens, log: log}
}

// Register creates a new user unless the username or email is taken.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		response.Fail(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	if !req.Role.Valid() {
		response.Fail(w, http.StatusBadRequest, "Invalid role")
		return
	}

	existing, err := h.users.FindByUsernameOrEmail(r.Context(), req.Username, req.Email)
	switch {
	case err == nil && existing != nil:
		response.Fail(w, http.StatusBadRequest, "User already exists")
		return
	case err != nil && !errors.Is(err, models.ErrNotFound):
		h.internal(w, err, "register: lookup existing user")
		return
	}

	hashed, err := h.hasher.Hash(req.Password)
	if errors.Is(err, ErrPasswordTooLong) {
		response.Fail(w, http.StatusBadRequest, msgPasswordTooLong)
		return
	}
	if err != nil {
		h.internal(w, err, "register: hash password")
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		Role:         req.Role,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		// a concurrent registration can still win the unique index
		if errors.Is(err, models.ErrAlreadyExists) {
			response.Fail(w, http.StatusBadRequest, "User already exists")
			return
		}
		h.internal(w, err, "register: create user")
		return
	}

	h.log.WithField("user_id", user.ID).Info("user registered")
	response.OK(w, http.StatusOK, "User registered successfully!")
}

// Login verifies credentials and returns a signed access token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.FindByUsername(r.Context(), strings.TrimSpace(req.Username))
	if errors.Is(err, models.ErrNotFound) {
		response.Fail(w, http.StatusBadRequest, "User is not registered")
		return
	}
	if err != nil {
		h.internal(w, err, "login: find user")
		return
	}

	if err := h.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			response.Fail(w, http.StatusBadRequest, "Incorrect Password")
			return
		}
		h.internal(w, err, "login: compare password")
		return
	}

	token, err := h.tokens.Issue(Identity{UserID: user.ID, Username: user.Username, Role: string(user.Role)})
	if err != nil {
		h.internal(w, err, "login: issue token")
		return
	}

	response.JSON(w, http.StatusOK, response.Envelope{
		Success:     true,
		Message:     "Log In Successful",
		AccessToken: token,
	})
}

// ChangePassword replaces the caller's password after checking the old one.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	caller, ok := IdentityFrom(r.Context())
	if !ok {
		response.Fail(w, http.StatusUnauthorized, "Access denied. No token provided. Please login to continue")
		return
	}

	var req models.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		response.Fail(w, http.StatusBadRequest, "Old and new password are required")
		return
	}

	user, err := h.users.FindByID(r.Context(), caller.UserID)
	if errors.Is(err, models.ErrNotFound) {
		response.Fail(w, http.StatusBadRequest, "User not found")
		return
	}
	if err != nil {
		h.internal(w, err, "change password: find user", "user_id", caller.UserID)
		return
	}

	if err := h.hasher.Compare(user.PasswordHash, req.OldPassword); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			response.Fail(w, http.StatusBadRequest, "Incorrect old password")
			return
		}
		h.internal(w, err, "change password: compare password", "user_id", caller.UserID)
		return
	}

	hashed, err := h.hasher.Hash(req.NewPassword)
	if errors.Is(err, ErrPasswordTooLong) {
		response.Fail(w, http.StatusBadRequest, msgPasswordTooLong)
		return
	}
	if err != nil {
		h.internal(w, err, "change password: hash password", "user_id", caller.UserID)
		return
	}
	if err := h.users.UpdatePassword(r.Context(), user.ID, hashed); err != nil {
		h.internal(w, err, "change password: update user", "user_id", caller.UserID)
		return
	}

	response.OK(w, http.StatusOK, "Password changed successfully")
}

// internal logs err with optional key/value fields and answers with the
// generic server error.
func (h *Handler) internal(w http.ResponseWriter, err error, msg string, kv ...string) {
	entry := h.log.WithError(err)
	for i := 0; i+1 < len(kv); i += 2 {
		entry = entry.WithField(kv[i], kv[i+1])
	}
	entry.Error(msg)
	response.Fail(w, http.StatusInternalServerError, msgInternal)
}
