package repository

import (
	"context"
	"encoding/json"

	apperrors "github.com/givehub/escrow-backend/internal/errors"
	"github.com/givehub/escrow-backend/internal/model"
	"github.com/givehub/escrow-backend/internal/store"
)

type MilestoneRepositoryInterface interface {
	List(ctx context.Context, id model.CampaignID) ([]model.Milestone, error)
	SaveList(ctx context.Context, id model.CampaignID, milestones []model.Milestone) error
	GetConfig(ctx context.Context, id model.CampaignID) (*model.VerificationConfig, error)
	SaveConfig(ctx context.Context, id model.CampaignID, cfg *model.VerificationConfig) error
	HasConfig(ctx context.Context, id model.CampaignID) (bool, error)
}

// MilestoneRepository stores a campaign's ordered milestone list under one
// key and its verification config under a namespaced key next to it.
type MilestoneRepository struct {
	Store store.Store
}

const (
	milestoneKeyPrefix = "milestone/"
	configKeyPrefix    = "cfg/"
)

func milestoneKey(id model.CampaignID) string {
	return milestoneKeyPrefix + id.String()
}

func configKey(id model.CampaignID) string {
	return configKeyPrefix + id.String()
}

func (r *MilestoneRepository) List(ctx context.Context, id model.CampaignID) ([]model.Milestone, error) {
	raw, ok, err := r.Store.Get(ctx, milestoneKey(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return []model.Milestone{}, nil
	}
	var milestones []model.Milestone
	if err := json.Unmarshal(raw, &milestones); err != nil {
		return nil, apperrors.Internal("corrupt milestone records for campaign %s: %v", id, err)
	}
	return milestones, nil
}

func (r *MilestoneRepository) SaveList(ctx context.Context, id model.CampaignID, milestones []model.Milestone) error {
	raw, err := json.Marshal(milestones)
	if err != nil {
		return apperrors.Internal("failed to encode milestones for campaign %s: %v", id, err)
	}
	return r.Store.Set(ctx, milestoneKey(id), raw)
}

func (r *MilestoneRepository) GetConfig(ctx context.Context, id model.CampaignID) (*model.VerificationConfig, error) {
	raw, ok, err := r.Store.Get(ctx, configKey(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NotFound("campaign %s has no verification config", id)
	}
	var cfg model.VerificationConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, apperrors.Internal("corrupt verification config for campaign %s: %v", id, err)
	}
	return &cfg, nil
}

func (r *MilestoneRepository) SaveConfig(ctx context.Context, id model.CampaignID, cfg *model.VerificationConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return apperrors.Internal("failed to encode verification config for campaign %s: %v", id, err)
	}
	return r.Store.Set(ctx, configKey(id), raw)
}

func (r *MilestoneRepository) HasConfig(ctx context.Context, id model.CampaignID) (bool, error) {
	return r.Store.Has(ctx, configKey(id))
}

var _ MilestoneRepositoryInterface = (*MilestoneRepository)(nil)
