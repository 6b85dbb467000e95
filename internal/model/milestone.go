package model

import "github.com/givehub/escrow-backend/internal/auth"

type MilestoneStatus string

const (
	MilestonePending   MilestoneStatus = "pending"
	MilestoneVerified  MilestoneStatus = "verified"
	MilestoneCompleted MilestoneStatus = "completed"
	MilestoneFailed    MilestoneStatus = "failed"
)

// Milestone is one tranche of a campaign's target, identified by its index
// in the campaign's ordered milestone list.
type Milestone struct {
	Description      string          `json:"description"`
	Amount           int64           `json:"amount"`
	Status           MilestoneStatus `json:"status"`
	VerificationDocs []string        `json:"verification_docs"`
	VerifiedBy       auth.Principal  `json:"verified_by,omitempty"`
	CompletedAt      *int64          `json:"completed_at,omitempty"`
}

// VerificationConfig binds a campaign to its owner and designated verifier.
// Written once per campaign, immutable thereafter.
type VerificationConfig struct {
	CampaignTarget string         `json:"campaign_target"`
	Owner          auth.Principal `json:"owner"`
	Verifier       auth.Principal `json:"verifier"`
}
