package httpapi

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"vistagram.app/internal/audit"
	"vistagram.app/internal/auth"
	"vistagram.app/internal/social"
)

const refreshCookieName = "refreshToken"

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	switch {
	case username == "":
		writeError(w, r, http.StatusBadRequest, "username is required")
		return
	case email == "":
		writeError(w, r, http.StatusBadRequest, "email is required")
		return
	case req.Password == "":
		writeError(w, r, http.StatusBadRequest, "password is required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	user := &social.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	users := a.store.Users(r.Context())
	if err := users.Create(r.Context(), user); err != nil {
		handleStoreError(w, r, err, "User not found")
		return
	}
	created, err := users.Find(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.user.registered", map[string]any{
		"user_id":  created.ID,
		"username": created.Username,
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    created.Public(),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	users := a.store.Users(r.Context())
	user, err := users.FindByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, social.ErrNotFound) {
			// Same response as a wrong password, so the endpoint cannot be
			// used to enumerate accounts.
			writeError(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	accessToken, err := a.tokens.IssueAccess(user.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	refreshToken, err := a.tokens.IssueRefresh(user.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	// Single-slot session: storing the new token invalidates any previously
	// issued refresh token for this user.
	if err := users.SetRefreshToken(r.Context(), user.ID, refreshToken); err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	a.setRefreshCookie(w, refreshToken)

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id": user.ID,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Login successful",
		"accessToken": accessToken,
		"user":        user.Public(),
	})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, r, http.StatusUnauthorized, "Refresh token required")
		return
	}

	userID, err := a.tokens.VerifyRefresh(cookie.Value)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	user, err := a.store.Users(r.Context()).Find(r.Context(), userID)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	// The presented token must match the single stored slot; a token that
	// verifies but was since replaced by a newer login is rejected.
	if subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(cookie.Value)) != 1 {
		writeError(w, r, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	accessToken, err := a.tokens.IssueAccess(user.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Access token refreshed",
		"accessToken": accessToken,
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	// Best effort: the session ends for the client even if the store write
	// fails, so the cookie is always cleared.
	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		_ = a.store.Users(r.Context()).ClearRefreshToken(r.Context(), userID)
		_ = audit.LogEvent(r.Context(), "auth.logout", map[string]any{
			"user_id": userID,
		})
	}

	a.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Logged out successfully",
	})
}

func (a *API) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.tokens.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   !a.cfg.DevMode,
		SameSite: http.SameSiteStrictMode,
	})
}

func (a *API) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !a.cfg.DevMode,
		SameSite: http.SameSiteStrictMode,
	})
}
