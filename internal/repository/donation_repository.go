package repository

import (
	"context"
	"encoding/json"

	"github.com/givehub/escrow-backend/internal/auth"
	apperrors "github.com/givehub/escrow-backend/internal/errors"
	"github.com/givehub/escrow-backend/internal/model"
	"github.com/givehub/escrow-backend/internal/store"
)

type DonationRepositoryInterface interface {
	Append(ctx context.Context, d model.Donation) error
	ListByDonor(ctx context.Context, id model.CampaignID, donor auth.Principal) ([]model.Donation, error)
	All(ctx context.Context, id model.CampaignID) (map[auth.Principal][]model.Donation, error)
}

// DonationRepository keeps the whole donor→donations map of a campaign
// under one key, so an append is a single-key read-modify-write.
type DonationRepository struct {
	Store store.Store
}

const donationKeyPrefix = "donation/"

func donationKey(id model.CampaignID) string {
	return donationKeyPrefix + id.String()
}

func (r *DonationRepository) load(ctx context.Context, id model.CampaignID) (map[auth.Principal][]model.Donation, error) {
	raw, ok, err := r.Store.Get(ctx, donationKey(id))
	if err != nil {
		return nil, err
	}
	donations := make(map[auth.Principal][]model.Donation)
	if !ok {
		return donations, nil
	}
	if err := json.Unmarshal(raw, &donations); err != nil {
		return nil, apperrors.Internal("corrupt donation records for campaign %s: %v", id, err)
	}
	return donations, nil
}

func (r *DonationRepository) Append(ctx context.Context, d model.Donation) error {
	donations, err := r.load(ctx, d.CampaignID)
	if err != nil {
		return err
	}
	donations[d.Donor] = append(donations[d.Donor], d)

	raw, err := json.Marshal(donations)
	if err != nil {
		return apperrors.Internal("failed to encode donation records for campaign %s: %v", d.CampaignID, err)
	}
	return r.Store.Set(ctx, donationKey(d.CampaignID), raw)
}

func (r *DonationRepository) ListByDonor(ctx context.Context, id model.CampaignID, donor auth.Principal) ([]model.Donation, error) {
	donations, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return donations[donor], nil
}

func (r *DonationRepository) All(ctx context.Context, id model.CampaignID) (map[auth.Principal][]model.Donation, error) {
	return r.load(ctx, id)
}

var _ DonationRepositoryInterface = (*DonationRepository)(nil)
