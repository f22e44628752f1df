package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mohamadaskravi2050-crypto/Muzic56/core/auth"
	"github.com/mohamadaskravi2050-crypto/Muzic56/logger"
	"github.com/mohamadaskravi2050-crypto/Muzic56/model"
	"github.com/mohamadaskravi2050-crypto/Muzic56/repository"
)

type contextKey string

const (
	ctxKeyUserID   contextKey = "userID"
	ctxKeyUsername contextKey = "username"
)

// credentialsRequest is the register/login request body.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterHandler creates a new account and returns an access token.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password required")
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("[Register] failed to hash password", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	user := &model.User{
		Username:     req.Username,
		PasswordHash: hashedPassword,
	}

	userID, err := h.userRepo.CreateUser(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			logger.Warn("[Register] username already exists", logger.String("username", req.Username))
			writeError(w, http.StatusBadRequest, "Username already exists")
			return
		}
		logger.Error("[Register] failed to create user", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := auth.GenerateToken(userID, user.Username)
	if err != nil {
		logger.Error("[Register] failed to generate token", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("[Register] user created",
		logger.Int64("userId", userID), logger.String("username", user.Username))

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":      "User created successfully",
		"access_token": token,
		"username":     user.Username,
	})
}

// LoginHandler authenticates a user and returns an access token.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password required")
		return
	}

	user, err := h.userRepo.GetUserByUsername(req.Username)
	if err != nil {
		logger.Error("[Login] failed to query user", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		logger.Warn("[Login] invalid credentials", logger.String("username", req.Username))
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		logger.Error("[Login] failed to generate token", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("[Login] login successful", logger.String("username", user.Username))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": token,
		"username":     user.Username,
	})
}

// LogoutHandler acknowledges a logout. Tokens are stateless, so there is
// nothing to revoke server-side.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

// AuthMiddleware requires a valid bearer token and stores the identity in
// the request context.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := bearerClaims(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxKeyUsername, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// OptionalAuthMiddleware attaches the identity when a valid bearer token is
// present and lets anonymous requests through untouched. Used by public
// listing endpoints whose is_liked field depends on the caller.
func (h *APIHandler) OptionalAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := bearerClaims(r); ok {
			ctx := context.WithValue(r.Context(), ctxKeyUserID, claims.UserID)
			ctx = context.WithValue(ctx, ctxKeyUsername, claims.Username)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	}
}

func bearerClaims(r *http.Request) (*auth.Claims, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}
	claims, err := auth.ParseToken(parts[1])
	if err != nil {
		return nil, false
	}
	return claims, true
}

// GetUserIDFromContext extracts the authenticated user ID.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(ctxKeyUserID).(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// GetUsernameFromContext extracts the authenticated username.
func GetUsernameFromContext(ctx context.Context) (string, error) {
	username, ok := ctx.Value(ctxKeyUsername).(string)
	if !ok {
		return "", fmt.Errorf("username not found in context")
	}
	return username, nil
}

// viewerID returns the authenticated user ID, or 0 for anonymous callers.
func viewerID(ctx context.Context) int64 {
	if id, err := GetUserIDFromContext(ctx); err == nil {
		return id
	}
	return 0
}
