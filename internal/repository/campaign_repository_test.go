package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/givehub/escrow-backend/internal/auth"
	apperrors "github.com/givehub/escrow-backend/internal/errors"
	"github.com/givehub/escrow-backend/internal/model"
	"github.com/givehub/escrow-backend/internal/repository"
	"github.com/givehub/escrow-backend/internal/store"
)

func testID(b byte) model.CampaignID {
	var id model.CampaignID
	for i := range id {
		id[i] = b
	}
	return id
}

func TestCampaignRepository_SaveGetExists(t *testing.T) {
	repo := &repository.CampaignRepository{Store: store.NewMemoryStore()}
	ctx := context.Background()
	id := testID(1)

	exists, err := repo.Exists(ctx, id)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.Get(ctx, id)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))

	c := &model.Campaign{
		ID:           id,
		Title:        "Build wells",
		TargetAmount: 1000,
		Creator:      auth.Principal("creator-1"),
		Status:       model.StatusDraft,
		CreatedAt:    1700000000,
	}
	require.NoError(t, repo.Save(ctx, c))

	exists, err = repo.Exists(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}

func TestDonationRepository_AppendPreservesOrder(t *testing.T) {
	repo := &repository.DonationRepository{Store: store.NewMemoryStore()}
	ctx := context.Background()
	id := testID(2)
	donor := auth.Principal("donor-1")

	amounts := []int64{100, 250, 50}
	for i, amount := range amounts {
		d := model.Donation{
			CampaignID: id,
			Donor:      donor,
			Amount:     amount,
			Timestamp:  int64(1700000000 + i),
		}
		require.NoError(t, repo.Append(ctx, d))
	}

	list, err := repo.ListByDonor(ctx, id, donor)
	require.NoError(t, err)
	require.Len(t, list, len(amounts))
	for i, amount := range amounts {
		assert.Equal(t, amount, list[i].Amount)
	}

	// A donor with no donations gets an empty list, not an error.
	other, err := repo.ListByDonor(ctx, id, auth.Principal("donor-2"))
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMilestoneRepository_ConfigLifecycle(t *testing.T) {
	repo := &repository.MilestoneRepository{Store: store.NewMemoryStore()}
	ctx := context.Background()
	id := testID(3)

	_, err := repo.GetConfig(ctx, id)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))

	has, err := repo.HasConfig(ctx, id)
	require.NoError(t, err)
	assert.False(t, has)

	cfg := &model.VerificationConfig{
		CampaignTarget: "campaign-ledger",
		Owner:          auth.Principal("creator-1"),
		Verifier:       auth.Principal("verifier-1"),
	}
	require.NoError(t, repo.SaveConfig(ctx, id, cfg))

	has, err = repo.HasConfig(ctx, id)
	require.NoError(t, err)
	assert.True(t, has)

	loaded, err := repo.GetConfig(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	// Milestone list starts empty and round-trips.
	list, err := repo.List(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, list)

	milestones := []model.Milestone{
		{Description: "Drill first well", Amount: 400, Status: model.MilestonePending, VerificationDocs: []string{}},
	}
	require.NoError(t, repo.SaveList(ctx, id, milestones))

	list, err = repo.List(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, milestones, list)
}
