// internal/trading/service.go
package trading

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tradenexus/internal/models"
)

// TradeProposal carries the terms of a new trade request. A nil second
// meeting time makes the trade permanent; a nil offer id means that side
// offers nothing.
type TradeProposal struct {
	FirstTraderID     uuid.UUID  `json:"first_trader_id"`
	SecondTraderID    uuid.UUID  `json:"second_trader_id"`
	MeetingTime       time.Time  `json:"meeting_time"`
	SecondMeetingTime *time.Time `json:"second_meeting_time,omitempty"`
	MeetingLocation   string     `json:"meeting_location"`
	FirstOffer        uuid.UUID  `json:"first_offer"`
	SecondOffer       uuid.UUID  `json:"second_offer"`
	AllowedEdits      int        `json:"allowed_edits"`
	Message           string     `json:"message"`
}

// CounterProposal carries revised terms from one side of an existing trade.
type CounterProposal struct {
	TraderID          uuid.UUID  `json:"trader_id"`
	TradeID           uuid.UUID  `json:"trade_id"`
	MeetingTime       time.Time  `json:"meeting_time"`
	SecondMeetingTime *time.Time `json:"second_meeting_time,omitempty"`
	MeetingLocation   string     `json:"meeting_location"`
	OwnOffer          uuid.UUID  `json:"own_offer"`
	OtherOffer        uuid.UUID  `json:"other_offer"`
	Message           string     `json:"message"`
}

// Service defines the interface for the trade coordinator.
type Service interface {
	// RequestTrade validates a proposal, creates the trade and registers
	// it with both traders.
	RequestTrade(ctx context.Context, proposal TradeProposal) (uuid.UUID, error)

	// AcceptRequest records one side's acceptance. It returns true when
	// this call completed mutual acceptance and committed the items.
	AcceptRequest(ctx context.Context, traderID, tradeID uuid.UUID) (bool, error)

	// ConfirmMeeting records one side's confirmation that a physical
	// meeting took place, routing to the first or second meeting.
	ConfirmMeeting(ctx context.Context, traderID, tradeID uuid.UUID) error

	// CounterOffer replaces the trade terms and restarts acceptance.
	CounterOffer(ctx context.Context, proposal CounterProposal) (uuid.UUID, error)

	// RescindRequest cancels a trade that has not been mutually accepted.
	RescindRequest(ctx context.Context, tradeID uuid.UUID) error

	// RescindOngoing reverses an accepted but uncompleted trade,
	// returning items to their owners. Administrative use only.
	RescindOngoing(ctx context.Context, tradeID uuid.UUID) error

	// RemoveInvalidRequests drops pending requests whose items or
	// traders are no longer eligible. Best effort.
	RemoveInvalidRequests(ctx context.Context) error

	// GetTrade returns a trade snapshot.
	GetTrade(ctx context.Context, tradeID uuid.UUID) (*models.Trade, error)

	// FrequentTradePartners returns up to three counterparts this trader
	// has completed the most trades with, most frequent first.
	FrequentTradePartners(ctx context.Context, traderID uuid.UUID) ([]uuid.UUID, error)

	// RecentTradeItems returns the items from this trader's completed
	// trades, most recent first, without duplicates.
	RecentTradeItems(ctx context.Context, traderID uuid.UUID) ([]uuid.UUID, error)
}
