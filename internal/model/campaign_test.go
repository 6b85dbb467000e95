package model_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/givehub/escrow-backend/internal/model"
)

func TestParseCampaignID(t *testing.T) {
	raw := strings.Repeat("ab", 32)
	id, err := model.ParseCampaignID(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, id.String())

	_, err = model.ParseCampaignID("zz")
	require.Error(t, err)

	_, err = model.ParseCampaignID("abcd")
	require.Error(t, err)
}

func TestCampaignID_JSONRoundtrip(t *testing.T) {
	raw := strings.Repeat("01", 32)
	id, err := model.ParseCampaignID(raw)
	require.NoError(t, err)

	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"`+raw+`"`, string(data))

	var restored model.CampaignID
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, id, restored)
}

func TestCampaign_IsFundable(t *testing.T) {
	c := &model.Campaign{Status: model.StatusDraft}
	assert.False(t, c.IsFundable())

	c.Status = model.StatusActive
	assert.True(t, c.IsFundable())

	// Over-funding is permitted: funded campaigns keep accepting donations.
	c.Status = model.StatusFunded
	assert.True(t, c.IsFundable())

	c.Status = model.StatusCompleted
	assert.False(t, c.IsFundable())

	c.Status = model.StatusCancelled
	assert.False(t, c.IsFundable())
}

func TestCampaignStatus_Terminal(t *testing.T) {
	assert.False(t, model.StatusDraft.Terminal())
	assert.False(t, model.StatusActive.Terminal())
	assert.False(t, model.StatusFunded.Terminal())
	assert.True(t, model.StatusCompleted.Terminal())
	assert.True(t, model.StatusCancelled.Terminal())
}

func TestCampaign_AvailableFunds(t *testing.T) {
	c := &model.Campaign{CurrentAmount: 1100, ReleasedAmount: 400}
	assert.Equal(t, int64(700), c.AvailableFunds())
}
