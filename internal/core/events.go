package core

import "time"

type EventAction string

const (
	ActionCreated EventAction = "created"
	ActionUpdated EventAction = "updated"
	ActionDeleted EventAction = "deleted"
)

// RecordEvent describes one mutation of a stored record. It carries enough
// data for an audit trail without the consumer reading the record back.
type RecordEvent struct {
	ID        string      `json:"id"`
	Action    EventAction `json:"action"`
	Kind      RecordKind  `json:"kind"`
	RecordID  string      `json:"record_id"`
	OwnerID   string      `json:"owner_id"`
	Category  string      `json:"category"`
	Amount    float64     `json:"amount"`
	Timestamp time.Time   `json:"timestamp"`
}

func (a EventAction) IsValid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return true
	default:
		return false
	}
}
