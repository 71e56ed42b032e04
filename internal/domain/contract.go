package domain

import (
	"github.com/google/uuid"
)

// ContractStatus is the lifecycle state of a delivery contract.
type ContractStatus string

const (
	ContractActive    ContractStatus = "active"
	ContractCompleted ContractStatus = "completed"
	ContractFailed    ContractStatus = "failed"
)

// Contract is a firm's delivery request: move quantity units of a commodity to
// the destination venue before the deadline. Reward on fulfilment; penalty
// plus a trade ban on the destination on breach.
type Contract struct {
	ID               uuid.UUID      `json:"id"`
	Firm             string         `json:"firm"`
	Commodity        string         `json:"commodity"`
	Quantity         int            `json:"quantity"`
	DestinationIndex int            `json:"destination_index"`
	Reward           int64          `json:"reward"`
	Penalty          int64          `json:"penalty"` // 50% of reward
	DaysRemaining    int            `json:"days_remaining"`
	Status           ContractStatus `json:"status"`
	DayCompleted     int            `json:"day_completed,omitempty"` // set on completion/failure
}

// IsActive reports whether the contract still awaits fulfilment.
func (c *Contract) IsActive() bool {
	return c.Status == ContractActive
}
