package events

// Topic is the single domain-event stream all components publish to.
const Topic = "escrow_events"

const (
	TypeCampaignActivated  = "campaign.activated"
	TypeCampaignCancelled  = "campaign.cancelled"
	TypeCampaignCompleted  = "campaign.completed"
	TypeDonationRecorded   = "donation.recorded"
	TypeMilestoneVerified  = "milestone.verified"
	TypeMilestoneFailed    = "milestone.failed"
	TypeMilestoneCompleted = "milestone.completed"
)

// Event is published after a mutation commits. It is a notification, not
// part of the ledger state; consumers must treat it as best-effort.
type Event struct {
	Type           string `json:"type"`
	CampaignID     string `json:"campaign_id"`
	Principal      string `json:"principal,omitempty"`
	Amount         int64  `json:"amount,omitempty"`
	MilestoneIndex *int   `json:"milestone_index,omitempty"`
	Timestamp      int64  `json:"timestamp"`
}
