package controller

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/givehub/escrow-backend/internal/auth"
	apperrors "github.com/givehub/escrow-backend/internal/errors"
	"github.com/givehub/escrow-backend/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	writeJSON(w, httpStatus(code), map[string]any{
		"error":   code,
		"message": err.Error(),
	})
}

func httpStatus(code apperrors.Code) int {
	switch code {
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.CodeUnauthorized:
		return http.StatusForbidden
	case apperrors.CodeInvalidState:
		return http.StatusConflict
	case apperrors.CodeInsufficientFunds:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// callerPrincipal reads the caller identity declared on the request. The
// actual proof is the Authenticator's job; this only names the principal
// the proof must bind to.
func callerPrincipal(r *http.Request) auth.Principal {
	return auth.Principal(r.Header.Get("X-Principal"))
}

func campaignIDParam(w http.ResponseWriter, r *http.Request) (model.CampaignID, bool) {
	id, err := model.ParseCampaignID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.InvalidInput("invalid campaign id: %v", err))
		return model.CampaignID{}, false
	}
	return id, true
}
