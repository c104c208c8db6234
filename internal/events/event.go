// AngelaMos | 2026
// event.go

// Package events publishes ledger state changes to downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeInvestmentPurchased = "investment.purchased"
	TypeInvestmentCancelled = "investment.cancelled"
	TypeWithdrawalRequested = "withdrawal.requested"
	TypeWithdrawalApproved  = "withdrawal.approved"
	TypeWithdrawalRejected  = "withdrawal.rejected"
	TypeReturnsProcessed    = "returns.processed"
	TypeWalletCredited      = "wallet.credited"
)

type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     string    `json:"user_id,omitempty"`
	EntityID   string    `json:"entity_id,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func New(eventType, userID, entityID string, amount int64) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		UserID:     userID,
		EntityID:   entityID,
		Amount:     amount,
		OccurredAt: time.Now().UTC(),
	}
}

// Key partitions events by user so one user's events stay ordered.
func (e Event) Key() string {
	if e.UserID != "" {
		return e.UserID
	}
	return e.ID
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that drops every event.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, Event) error { return nil }

func (noopPublisher) Close() error { return nil }
