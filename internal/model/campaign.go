package model

import (
	"encoding/hex"
	"fmt"

	"github.com/givehub/escrow-backend/internal/auth"
)

// CampaignID is a 32-byte opaque campaign identifier, hex-encoded on the wire.
type CampaignID [32]byte

func ParseCampaignID(s string) (CampaignID, error) {
	var id CampaignID
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("campaign id is not valid hex: %w", err)
	}
	if len(raw) != len(id) {
		return id, fmt.Errorf("campaign id must be %d bytes, got %d", len(id), len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

func (id CampaignID) String() string {
	return hex.EncodeToString(id[:])
}

func (id CampaignID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *CampaignID) UnmarshalText(text []byte) error {
	parsed, err := ParseCampaignID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

type CampaignStatus string

const (
	StatusDraft     CampaignStatus = "draft"
	StatusActive    CampaignStatus = "active"
	StatusFunded    CampaignStatus = "funded"
	StatusCompleted CampaignStatus = "completed"
	StatusCancelled CampaignStatus = "cancelled"
)

// Terminal reports whether no further status transition is allowed.
func (s CampaignStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Campaign struct {
	ID             CampaignID     `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	TargetAmount   int64          `json:"target_amount"`
	CurrentAmount  int64          `json:"current_amount"`
	ReleasedAmount int64          `json:"released_amount"`
	Creator        auth.Principal `json:"creator"`
	Status         CampaignStatus `json:"status"`
	CreatedAt      int64          `json:"created_at"`

	// Components allowed to invoke the privileged mutators. Empty means no
	// component has been registered for that role yet.
	DonationAuthority auth.Principal `json:"donation_authority,omitempty"`
	ReleaseAuthority  auth.Principal `json:"release_authority,omitempty"`
}

// IsFundable reports whether the campaign still accepts donations. Funded
// campaigns keep accepting them (over-funding is permitted).
func (c *Campaign) IsFundable() bool {
	return c.Status == StatusActive || c.Status == StatusFunded
}

// AvailableFunds is the unreleased, still-escrowed balance.
func (c *Campaign) AvailableFunds() int64 {
	return c.CurrentAmount - c.ReleasedAmount
}
