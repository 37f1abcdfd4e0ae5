package telemetry

import (
	"fmt"
	"time"
)

// Batch is one ingested telemetry batch: a content-addressed bundle of
// sensor points, optionally anchored on-chain.
type Batch struct {
	ID          string    `json:"id"`
	CID         string    `json:"cid"`
	TxSignature string    `json:"txSignature,omitempty"`
	SHA256      string    `json:"sha256,omitempty"`
	TeamID      string    `json:"teamId"`
	Source      string    `json:"source"`
	Points      int       `json:"points"`
	Status      string    `json:"status"`
	RecordedAt  time.Time `json:"recordedAt"`
}

// Item converts a stored batch into a feed row.
func (b Batch) Item() Item {
	status := b.Status
	if status == "" {
		status = "indexed"
	}
	return Item{
		CID:        b.CID,
		Tx:         b.TxSignature,
		File:       "batch:" + b.ID,
		SHA256:     b.SHA256,
		TS:         b.RecordedAt.UTC().Format(time.RFC3339),
		Status:     status,
		Slot:       nil,
		Source:     b.Source,
		Team:       b.TeamID,
		RecordType: "on-chain (store)",
		Count:      b.Points,
		Points:     b.Points,
	}
}

// Validate rejects batches the store should never hold.
func (b Batch) Validate() error {
	if b.CID == "" {
		return fmt.Errorf("batch cid is required")
	}
	if b.TeamID == "" {
		return fmt.Errorf("batch team id is required")
	}
	if b.Points < 0 {
		return fmt.Errorf("batch points must not be negative")
	}
	return nil
}
