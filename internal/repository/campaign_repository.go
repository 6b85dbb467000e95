package repository

import (
	"context"
	"encoding/json"

	apperrors "github.com/givehub/escrow-backend/internal/errors"
	"github.com/givehub/escrow-backend/internal/model"
	"github.com/givehub/escrow-backend/internal/store"
)

type CampaignRepositoryInterface interface {
	Get(ctx context.Context, id model.CampaignID) (*model.Campaign, error)
	Save(ctx context.Context, c *model.Campaign) error
	Exists(ctx context.Context, id model.CampaignID) (bool, error)
}

// CampaignRepository persists one campaign record per key. The store has
// no uniqueness primitive, so callers that need create-only semantics
// check Exists before the first Save.
type CampaignRepository struct {
	Store store.Store
}

const campaignKeyPrefix = "campaign/"

func campaignKey(id model.CampaignID) string {
	return campaignKeyPrefix + id.String()
}

func (r *CampaignRepository) Get(ctx context.Context, id model.CampaignID) (*model.Campaign, error) {
	raw, ok, err := r.Store.Get(ctx, campaignKey(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NotFound("campaign %s not found", id)
	}
	var c model.Campaign
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, apperrors.Internal("corrupt campaign record %s: %v", id, err)
	}
	return &c, nil
}

func (r *CampaignRepository) Save(ctx context.Context, c *model.Campaign) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return apperrors.Internal("failed to encode campaign %s: %v", c.ID, err)
	}
	return r.Store.Set(ctx, campaignKey(c.ID), raw)
}

func (r *CampaignRepository) Exists(ctx context.Context, id model.CampaignID) (bool, error) {
	return r.Store.Has(ctx, campaignKey(id))
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
