// Package suggest recommends trade partners and items from wishlists.
// Two interchangeable strategies scan all traders: an exact wishlist
// match and a fuzzy name-similarity match.
package suggest

import (
	"context"

	"github.com/google/uuid"
)

// LendSuggestion recommends lending ItemID from Lender to Receiver.
type LendSuggestion struct {
	LenderID   uuid.UUID `json:"lender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	ItemID     uuid.UUID `json:"item_id"`
}

// TradeSuggestion recommends a two-way exchange: TraderID gives
// GiveItemID and receives ReceiveItemID from Partner.
type TradeSuggestion struct {
	TraderID      uuid.UUID `json:"trader_id"`
	PartnerID     uuid.UUID `json:"partner_id"`
	GiveItemID    uuid.UUID `json:"give_item_id"`
	ReceiveItemID uuid.UUID `json:"receive_item_id"`
}

// Strategy is a suggestion algorithm. Both methods return a nil
// suggestion when no eligible match exists. When inCity is set, only
// traders in the caller's city are considered.
type Strategy interface {
	SuggestLend(ctx context.Context, traderID uuid.UUID, inCity bool) (*LendSuggestion, error)
	SuggestTrade(ctx context.Context, traderID uuid.UUID, inCity bool) (*TradeSuggestion, error)
}
