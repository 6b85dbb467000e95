package controller_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/givehub/escrow-backend/internal/auth"
	"github.com/givehub/escrow-backend/internal/clock"
	"github.com/givehub/escrow-backend/internal/controller"
	"github.com/givehub/escrow-backend/internal/repository"
	"github.com/givehub/escrow-backend/internal/service"
	"github.com/givehub/escrow-backend/internal/store"
)

func newTestRouter() chi.Router {
	st := store.NewMemoryStore()
	authenticator := auth.StaticAuthenticator{}
	clk := clock.NewManualClock(1700000000)
	logger := zerolog.Nop()

	campaignService := &service.CampaignService{
		Repo:   &repository.CampaignRepository{Store: st},
		Auth:   authenticator,
		Clock:  clk,
		Logger: logger,
	}
	donationService := &service.DonationService{
		Repo:     &repository.DonationRepository{Store: st},
		Campaign: campaignService,
		Auth:     authenticator,
		Clock:    clk,
		Logger:   logger,
	}
	verificationService := &service.VerificationService{
		Repo:     &repository.MilestoneRepository{Store: st},
		Campaign: campaignService,
		Auth:     authenticator,
		Clock:    clk,
		Logger:   logger,
	}

	campaignController := &controller.CampaignController{CampaignService: campaignService}
	donationController := &controller.DonationController{DonationService: donationService}
	verificationController := &controller.VerificationController{VerificationService: verificationService}

	r := chi.NewRouter()
	r.Post("/campaigns", campaignController.Initialize)
	r.Get("/campaigns/{id}", campaignController.Get)
	r.Post("/campaigns/{id}/activate", campaignController.Activate)
	r.Post("/campaigns/{id}/authorities", campaignController.SetAuthorizedComponents)
	r.Post("/campaigns/{id}/cancel", campaignController.Cancel)
	r.Get("/campaigns/{id}/available-funds", campaignController.AvailableFunds)
	r.Post("/campaigns/{id}/donations", donationController.Donate)
	r.Get("/campaigns/{id}/donations", donationController.GetDonations)
	r.Get("/campaigns/{id}/donations/total", donationController.GetTotalDonated)
	r.Post("/campaigns/{id}/verification/config", verificationController.ConfigureCampaign)
	r.Post("/campaigns/{id}/milestones", verificationController.CreateMilestone)
	r.Post("/campaigns/{id}/milestones/{index}/verify", verificationController.VerifyMilestone)
	r.Post("/campaigns/{id}/milestones/{index}/complete", verificationController.CompleteMilestone)
	return r
}

func doRequest(t *testing.T, r chi.Router, method, path, principal string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if principal != "" {
		req.Header.Set("X-Principal", principal)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}

func TestCampaignLifecycleOverHTTP(t *testing.T) {
	r := newTestRouter()
	id := strings.Repeat("0a", 32)

	w := doRequest(t, r, "POST", "/campaigns", "creator-1", map[string]any{
		"id":            id,
		"title":         "Build wells",
		"description":   "Provide clean water",
		"target_amount": 1000,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody(t, w)
	assert.Equal(t, "draft", created["status"])
	assert.Equal(t, id, created["id"])

	w = doRequest(t, r, "POST", "/campaigns/"+id+"/authorities", "creator-1", map[string]any{
		"donation_authority": "donation-ledger",
		"release_authority":  "verification-engine",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, r, "POST", "/campaigns/"+id+"/verification/config", "creator-1", map[string]any{
		"verifier": "verifier-1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, r, "POST", "/campaigns/"+id+"/activate", "creator-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "active", decodeBody(t, w)["status"])

	w = doRequest(t, r, "POST", "/campaigns/"+id+"/donations", "donor-1", map[string]any{
		"amount": 600,
		"note":   "first tranche",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, r, "POST", "/campaigns/"+id+"/donations", "donor-1", map[string]any{"amount": 500})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, r, "GET", "/campaigns/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	campaign := decodeBody(t, w)
	assert.Equal(t, "funded", campaign["status"])
	assert.Equal(t, float64(1100), campaign["current_amount"])

	w = doRequest(t, r, "POST", "/campaigns/"+id+"/milestones", "creator-1", map[string]any{
		"description": "Drill first well",
		"amount":      400,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, r, "POST", "/campaigns/"+id+"/milestones/0/verify", "verifier-1", map[string]any{
		"docs": []string{"report.pdf"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, r, "POST", "/campaigns/"+id+"/milestones/0/complete", "verifier-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", decodeBody(t, w)["status"])

	w = doRequest(t, r, "GET", "/campaigns/"+id+"/available-funds", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(700), decodeBody(t, w)["available_funds"])

	w = doRequest(t, r, "GET", "/campaigns/"+id+"/donations/total", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1100), decodeBody(t, w)["total_donated"])
}

func TestErrorMapping(t *testing.T) {
	r := newTestRouter()
	id := strings.Repeat("0b", 32)

	// Unknown campaign.
	w := doRequest(t, r, "GET", "/campaigns/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeBody(t, w)["error"])

	// Malformed id.
	w = doRequest(t, r, "GET", "/campaigns/nothex", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Non-positive target.
	w = doRequest(t, r, "POST", "/campaigns", "creator-1", map[string]any{
		"id":            id,
		"title":         "Build wells",
		"target_amount": 0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_input", decodeBody(t, w)["error"])

	// Activation by a stranger.
	w = doRequest(t, r, "POST", "/campaigns", "creator-1", map[string]any{
		"id":            id,
		"title":         "Build wells",
		"target_amount": 1000,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, r, "POST", "/campaigns/"+id+"/activate", "stranger", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "unauthorized", decodeBody(t, w)["error"])

	// Donation before activation is a state conflict.
	w = doRequest(t, r, "POST", "/campaigns/"+id+"/authorities", "creator-1", map[string]any{
		"donation_authority": "donation-ledger",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, r, "POST", "/campaigns/"+id+"/donations", "donor-1", map[string]any{"amount": 100})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_state_transition", decodeBody(t, w)["error"])
}

func TestInsufficientFundsOverHTTP(t *testing.T) {
	r := newTestRouter()
	id := strings.Repeat("0c", 32)

	doRequest(t, r, "POST", "/campaigns", "creator-1", map[string]any{
		"id": id, "title": "Build wells", "target_amount": 2000,
	})
	doRequest(t, r, "POST", "/campaigns/"+id+"/authorities", "creator-1", map[string]any{
		"donation_authority": "donation-ledger",
		"release_authority":  "verification-engine",
	})
	doRequest(t, r, "POST", "/campaigns/"+id+"/verification/config", "creator-1", map[string]any{"verifier": "verifier-1"})
	doRequest(t, r, "POST", "/campaigns/"+id+"/activate", "creator-1", nil)
	doRequest(t, r, "POST", "/campaigns/"+id+"/donations", "donor-1", map[string]any{"amount": 1100})
	doRequest(t, r, "POST", "/campaigns/"+id+"/milestones", "creator-1", map[string]any{
		"description": "Too big", "amount": 1200,
	})
	doRequest(t, r, "POST", "/campaigns/"+id+"/milestones/0/verify", "verifier-1", map[string]any{})

	w := doRequest(t, r, "POST", "/campaigns/"+id+"/milestones/0/complete", "verifier-1", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "insufficient_funds", decodeBody(t, w)["error"])
}
