package controller

import (
	"encoding/json"
	"net/http"

	"github.com/givehub/escrow-backend/internal/auth"
	apperrors "github.com/givehub/escrow-backend/internal/errors"
	"github.com/givehub/escrow-backend/internal/service"
)

type DonationController struct {
	DonationService *service.DonationService
}

func (c *DonationController) Donate(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Amount int64  `json:"amount"`
		Note   string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperrors.InvalidInput("invalid body: %v", err))
		return
	}

	donation, err := c.DonationService.Donate(r.Context(), callerPrincipal(r), id, body.Amount, body.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, donation)
}

func (c *DonationController) GetDonations(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	donor := auth.Principal(r.URL.Query().Get("donor"))
	if donor == "" {
		donor = callerPrincipal(r)
	}

	donations, err := c.DonationService.GetDonations(r.Context(), id, donor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"campaign_id": id,
		"donor":       donor,
		"donations":   donations,
	})
}

func (c *DonationController) GetTotalDonated(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	total, err := c.DonationService.GetTotalDonated(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"campaign_id":   id,
		"total_donated": total,
	})
}
