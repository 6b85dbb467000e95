package controller

import (
	"crypto/rand"
	"encoding/json"
	"net/http"

	"github.com/givehub/escrow-backend/internal/auth"
	apperrors "github.com/givehub/escrow-backend/internal/errors"
	"github.com/givehub/escrow-backend/internal/model"
	"github.com/givehub/escrow-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
}

func (c *CampaignController) Initialize(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID           string `json:"id"`
		Title        string `json:"title"`
		Description  string `json:"description"`
		TargetAmount int64  `json:"target_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperrors.InvalidInput("invalid body: %v", err))
		return
	}

	var id model.CampaignID
	if body.ID != "" {
		parsed, err := model.ParseCampaignID(body.ID)
		if err != nil {
			writeError(w, apperrors.InvalidInput("invalid campaign id: %v", err))
			return
		}
		id = parsed
	} else {
		if _, err := rand.Read(id[:]); err != nil {
			writeError(w, apperrors.Internal("failed to generate campaign id: %v", err))
			return
		}
	}

	campaign, err := c.CampaignService.Initialize(r.Context(), callerPrincipal(r), id, body.Title, body.Description, body.TargetAmount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) Activate(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	campaign, err := c.CampaignService.Activate(r.Context(), callerPrincipal(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) SetAuthorizedComponents(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	var body struct {
		DonationAuthority string `json:"donation_authority"`
		ReleaseAuthority  string `json:"release_authority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperrors.InvalidInput("invalid body: %v", err))
		return
	}

	campaign, err := c.CampaignService.SetAuthorizedComponents(
		r.Context(),
		callerPrincipal(r),
		id,
		auth.Principal(body.DonationAuthority),
		auth.Principal(body.ReleaseAuthority),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	campaign, err := c.CampaignService.Cancel(r.Context(), callerPrincipal(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	campaign, err := c.CampaignService.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) AvailableFunds(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	available, err := c.CampaignService.AvailableFunds(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"campaign_id":     id,
		"available_funds": available,
	})
}
