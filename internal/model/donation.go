package model

import "github.com/givehub/escrow-backend/internal/auth"

// Donation is an immutable contribution record, append-only per
// (campaign, donor) pair.
type Donation struct {
	CampaignID CampaignID     `json:"campaign_id"`
	Donor      auth.Principal `json:"donor"`
	Amount     int64          `json:"amount"`
	Timestamp  int64          `json:"timestamp"`
	Note       string         `json:"note,omitempty"`
}
