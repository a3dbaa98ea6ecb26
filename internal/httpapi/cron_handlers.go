package httpapi

import (
	"net/http"
)

func (a *API) handleCronStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"jobs":     a.scheduler.Status(),
		"enabled":  a.scheduler.Enabled(),
		"schedule": a.scheduler.Schedule(),
	})
}

func (a *API) handleCronTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if err := a.scheduler.Trigger(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Database population triggered successfully",
	})
}
