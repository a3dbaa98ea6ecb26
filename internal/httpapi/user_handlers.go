package httpapi

import (
	"net/http"
	"strings"
)

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/users/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	user, err := a.store.Users(r.Context()).Find(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}
