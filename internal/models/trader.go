// Package models holds the persistent entities of the trade system and the
// pure rules defined over them: the trader eligibility policy and the trade
// negotiation state machine.
package models

import (
	"github.com/google/uuid"
)

// TradableItem is a physical item offered for trade. Items have identity
// only; there is no price or valuation.
type TradableItem struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

// NewTradableItem creates an item pending approval.
func NewTradableItem(name, description string) *TradableItem {
	return &TradableItem{ID: uuid.New(), Name: name, Description: description}
}

// Trader is a registered participant's mutable trading state.
//
// An item id appears in at most one trader's AvailableItems or OngoingItems
// at any time. AvailableItems are items the trader can offer right now;
// OngoingItems are items committed to an in-flight trade, either given up
// pending a physical handoff or held temporarily pending return.
type Trader struct {
	ID                uuid.UUID `json:"id"`
	Username          string    `json:"username"`
	PasswordHash      string    `json:"password_hash"`
	Salt              string    `json:"salt"`
	Frozen            bool      `json:"frozen"`
	UnfreezeRequested bool      `json:"unfreeze_requested"`
	Idle              bool      `json:"idle"`
	City              string    `json:"city"`

	Wishlist       []uuid.UUID `json:"wishlist"`
	AvailableItems []uuid.UUID `json:"available_items"`
	RequestedItems []uuid.UUID `json:"requested_items"`
	OngoingItems   []uuid.UUID `json:"ongoing_items"`

	RequestedTrades []uuid.UUID `json:"requested_trades"`
	AcceptedTrades  []uuid.UUID `json:"accepted_trades"`
	CompletedTrades []uuid.UUID `json:"completed_trades"`

	TradeLimit           int `json:"trade_limit"`
	IncompleteTradeLimit int `json:"incomplete_trade_limit"`
	TradeCount           int `json:"trade_count"`
	TotalItemsLent       int `json:"total_items_lent"`
	TotalItemsBorrowed   int `json:"total_items_borrowed"`
	TotalAcceptedBorrows int `json:"total_accepted_borrows"`
	MinimumToBorrow      int `json:"minimum_to_borrow"`
}

// NewTrader creates a trader with the given limits and no inventory.
func NewTrader(username, passwordHash, salt, city string, tradeLimit, incompleteTradeLimit, minimumToBorrow int) *Trader {
	return &Trader{
		ID:                   uuid.New(),
		Username:             username,
		PasswordHash:         passwordHash,
		Salt:                 salt,
		City:                 city,
		TradeLimit:           tradeLimit,
		IncompleteTradeLimit: incompleteTradeLimit,
		MinimumToBorrow:      minimumToBorrow,
	}
}

// CanTrade reports whether the trader may take part in any trade: not
// frozen, not idle, and under the weekly trade limit.
func (t *Trader) CanTrade() bool {
	return !t.Frozen && t.TradeCount < t.TradeLimit && !t.Idle
}

// CanBorrow reports whether the trader may request a pure borrow. The
// trader must have lent at least MinimumToBorrow more items than it has
// borrowed.
func (t *Trader) CanBorrow() bool {
	return t.CanTrade() && t.TotalItemsLent-t.TotalItemsBorrowed >= t.MinimumToBorrow
}

// CanAcceptBorrow reports whether the trader may have its pending borrow
// accepted; borrows already accepted but not yet completed count against
// the lending surplus.
func (t *Trader) CanAcceptBorrow() bool {
	return t.CanTrade() && t.TotalItemsLent-t.TotalAcceptedBorrows-t.TotalItemsBorrowed >= t.MinimumToBorrow
}

// OverIncompleteLimit reports whether the trader has more accepted,
// unfinished trades than allowed.
func (t *Trader) OverIncompleteLimit() bool {
	return len(t.AcceptedTrades) > t.IncompleteTradeLimit
}

// HasAvailable reports whether the trader can supply the offer. The nil
// id denotes "nothing offered" and is always available.
func (t *Trader) HasAvailable(item uuid.UUID) bool {
	return item == uuid.Nil || ContainsID(t.AvailableItems, item)
}

// ContainsID reports whether list holds id.
func ContainsID(list []uuid.UUID, id uuid.UUID) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

// RemoveID deletes the first occurrence of id from list, reporting whether
// it was present. The nil id is never present.
func RemoveID(list []uuid.UUID, id uuid.UUID) ([]uuid.UUID, bool) {
	if id == uuid.Nil {
		return list, false
	}
	for i, v := range list {
		if v == id {
			return append(list[:i], list[i+1:]...), true
		}
	}
	return list, false
}

// AppendID appends id to list unless id is nil.
func AppendID(list []uuid.UUID, id uuid.UUID) []uuid.UUID {
	if id == uuid.Nil {
		return list
	}
	return append(list, id)
}
