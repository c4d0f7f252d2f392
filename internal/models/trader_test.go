package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCanTrade(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Trader)
		want   bool
	}{
		{"fresh trader", func(tr *Trader) {}, true},
		{"frozen", func(tr *Trader) { tr.Frozen = true }, false},
		{"idle", func(tr *Trader) { tr.Idle = true }, false},
		{"at weekly limit", func(tr *Trader) { tr.TradeCount = tr.TradeLimit }, false},
		{"just under limit", func(tr *Trader) { tr.TradeCount = tr.TradeLimit - 1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trader := NewTrader("ida", "", "", "oslo", 10, 3, 1)
			tt.mutate(trader)
			assert.Equal(t, tt.want, trader.CanTrade())
		})
	}
}

func TestBorrowEligibility(t *testing.T) {
	trader := NewTrader("ida", "", "", "oslo", 10, 3, 1)
	trader.TotalItemsLent = 5
	trader.TotalItemsBorrowed = 2
	trader.TotalAcceptedBorrows = 3

	// Lending surplus 3 allows a new borrow request, but the three
	// accepted borrows already consume it.
	assert.True(t, trader.CanBorrow())
	assert.False(t, trader.CanAcceptBorrow())

	trader.TotalAcceptedBorrows = 2
	assert.True(t, trader.CanAcceptBorrow())
}

func TestBorrowRequiresTradeEligibility(t *testing.T) {
	trader := NewTrader("ida", "", "", "oslo", 10, 3, 0)
	trader.TotalItemsLent = 5
	trader.Frozen = true

	assert.False(t, trader.CanBorrow())
	assert.False(t, trader.CanAcceptBorrow())
}

func TestOverIncompleteLimit(t *testing.T) {
	trader := NewTrader("ida", "", "", "oslo", 10, 2, 1)
	trader.AcceptedTrades = []uuid.UUID{uuid.New(), uuid.New()}
	assert.False(t, trader.OverIncompleteLimit(), "at the limit is still allowed")

	trader.AcceptedTrades = append(trader.AcceptedTrades, uuid.New())
	assert.True(t, trader.OverIncompleteLimit())
}

func TestHasAvailable(t *testing.T) {
	item := uuid.New()
	trader := NewTrader("ida", "", "", "oslo", 10, 3, 1)
	trader.AvailableItems = []uuid.UUID{item}

	assert.True(t, trader.HasAvailable(item))
	assert.True(t, trader.HasAvailable(uuid.Nil), "offering nothing is always possible")
	assert.False(t, trader.HasAvailable(uuid.New()))
}

func TestIDListHelpers(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	list := []uuid.UUID{a, b}

	list, removed := RemoveID(list, a)
	assert.True(t, removed)
	assert.Equal(t, []uuid.UUID{b}, list)

	list, removed = RemoveID(list, a)
	assert.False(t, removed)

	_, removed = RemoveID([]uuid.UUID{uuid.Nil}, uuid.Nil)
	assert.False(t, removed, "the nil id is never considered present")

	list = AppendID(list, uuid.Nil)
	assert.Equal(t, []uuid.UUID{b}, list, "the nil id is never appended")
	list = AppendID(list, a)
	assert.Len(t, list, 2)
}
