package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/givehub/escrow-backend/internal/auth"
	apperrors "github.com/givehub/escrow-backend/internal/errors"
	"github.com/givehub/escrow-backend/internal/service"
)

type VerificationController struct {
	VerificationService *service.VerificationService
}

func milestoneIndexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, apperrors.InvalidInput("invalid milestone index: %v", err))
		return 0, false
	}
	return index, true
}

func (c *VerificationController) ConfigureCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Verifier string `json:"verifier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperrors.InvalidInput("invalid body: %v", err))
		return
	}

	cfg, err := c.VerificationService.ConfigureCampaign(r.Context(), callerPrincipal(r), id, auth.Principal(body.Verifier))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

func (c *VerificationController) GetConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	cfg, err := c.VerificationService.GetConfig(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (c *VerificationController) CreateMilestone(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Description string `json:"description"`
		Amount      int64  `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperrors.InvalidInput("invalid body: %v", err))
		return
	}

	milestone, err := c.VerificationService.CreateMilestone(r.Context(), callerPrincipal(r), id, body.Description, body.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, milestone)
}

func (c *VerificationController) GetMilestones(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	milestones, err := c.VerificationService.GetMilestones(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"campaign_id": id,
		"milestones":  milestones,
	})
}

func (c *VerificationController) GetMilestone(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	index, ok := milestoneIndexParam(w, r)
	if !ok {
		return
	}
	milestone, err := c.VerificationService.GetMilestone(r.Context(), id, index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, milestone)
}

func (c *VerificationController) VerifyMilestone(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	index, ok := milestoneIndexParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Docs []string `json:"docs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperrors.InvalidInput("invalid body: %v", err))
		return
	}

	milestone, err := c.VerificationService.VerifyMilestone(r.Context(), callerPrincipal(r), id, index, body.Docs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, milestone)
}

func (c *VerificationController) FailMilestone(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	index, ok := milestoneIndexParam(w, r)
	if !ok {
		return
	}
	milestone, err := c.VerificationService.FailMilestone(r.Context(), callerPrincipal(r), id, index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, milestone)
}

func (c *VerificationController) CompleteMilestone(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	index, ok := milestoneIndexParam(w, r)
	if !ok {
		return
	}
	milestone, err := c.VerificationService.CompleteMilestone(r.Context(), callerPrincipal(r), id, index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, milestone)
}
