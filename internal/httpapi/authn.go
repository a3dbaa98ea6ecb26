package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"vistagram.app/internal/auth"
	"vistagram.app/internal/social"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// requireAuth rejects requests without a valid access token belonging to an
// existing user.
func (a *API) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "Access token required")
			return
		}
		userID, err := a.tokens.VerifyAccess(token)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if _, err := a.store.Users(r.Context()).Find(r.Context(), userID); err != nil {
			if errors.Is(err, social.ErrNotFound) {
				writeError(w, r, http.StatusUnauthorized, "Invalid token")
				return
			}
			writeError(w, r, http.StatusInternalServerError, err.Error())
			return
		}
		next(w, r.WithContext(auth.ContextWithUser(r.Context(), userID)))
	}
}

// optionalAuth attaches the caller identity when a valid access token is
// presented and proceeds anonymously on any failure. Read paths degrade
// gracefully for anonymous traffic instead of rejecting it.
func (a *API) optionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			next(w, r)
			return
		}
		userID, err := a.tokens.VerifyAccess(token)
		if err != nil {
			next(w, r)
			return
		}
		if _, err := a.store.Users(r.Context()).Find(r.Context(), userID); err != nil {
			next(w, r)
			return
		}
		next(w, r.WithContext(auth.ContextWithUser(r.Context(), userID)))
	}
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
