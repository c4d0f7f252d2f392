package trading

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradenexus/internal/apperr"
	"tradenexus/internal/models"
	"tradenexus/internal/registry"
	"tradenexus/internal/store"
)

var testNow = time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) (*registry.Registry, *service) {
	t.Helper()
	reg := registry.New(store.NewMemStore())
	return reg, &service{reg: reg, now: func() time.Time { return testNow }}
}

func seedTrader(t *testing.T, reg *registry.Registry, username string) *models.Trader {
	t.Helper()
	trader := models.NewTrader(username, "", "", "oslo", 10, 3, 1)
	require.NoError(t, reg.SaveTrader(context.Background(), trader))
	return trader
}

func seedItem(t *testing.T, reg *registry.Registry, owner *models.Trader, name string) uuid.UUID {
	t.Helper()
	item := models.NewTradableItem(name, "")
	require.NoError(t, reg.SaveItem(context.Background(), item))
	owner.AvailableItems = append(owner.AvailableItems, item.ID)
	require.NoError(t, reg.SaveTrader(context.Background(), owner))
	return item.ID
}

func proposal(first, second *models.Trader, firstOffer, secondOffer uuid.UUID) TradeProposal {
	return TradeProposal{
		FirstTraderID:   first.ID,
		SecondTraderID:  second.ID,
		MeetingTime:     testNow.Add(24 * time.Hour),
		MeetingLocation: "central station",
		FirstOffer:      firstOffer,
		SecondOffer:     secondOffer,
		AllowedEdits:    3,
	}
}

func reload(t *testing.T, reg *registry.Registry, id uuid.UUID) *models.Trader {
	t.Helper()
	trader, err := reg.Trader(context.Background(), id)
	require.NoError(t, err)
	return trader
}

func TestRequestTradeRegistersBothSides(t *testing.T) {
	ctx := context.Background()
	reg, svc := newFixture(t)
	alice := seedTrader(t, reg, "alice")
	bob := seedTrader(t, reg, "bob")
	hat := seedItem(t, reg, alice, "hat")
	scarf := seedItem(t, reg, bob, "scarf")

	tradeID, err := svc.RequestTrade(ctx, proposal(alice, bob, hat, scarf))
	require.NoError(t, err)

	assert.Contains(t, reload(t, reg, alice.ID).RequestedTrades, tradeID)
	assert.Contains(t, reload(t, reg, bob.ID).RequestedTrades, tradeID)

	trade, err := svc.GetTrade(ctx, tradeID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeRequested, trade.State)
	assert.True(t, trade.FirstConfirmedRequest)
	assert.Equal(t, bob.ID, trade.TurnToEdit)
}

func TestRequestTradeValidation(t *testing.T) {
	ctx := context.Background()
	reg, svc := newFixture(t)
	alice := seedTrader(t, reg, "alice")
	bob := seedTrader(t, reg, "bob")
	hat := seedItem(t, reg, alice, "hat")
	scarf := seedItem(t, reg, bob, "scarf")

	t.Run("with yourself", func(t *testing.T) {
		_, err := svc.RequestTrade(ctx, proposal(alice, alice, hat, uuid.Nil))
		assert.True(t, apperr.IsCannotTrade(err))
	})

	t.Run("no items at all", func(t *testing.T) {
		_, err := svc.RequestTrade(ctx, proposal(alice, bob, uuid.Nil, uuid.Nil))
		assert.True(t, apperr.IsCannotTrade(err))
	})

	t.Run("meeting in the past", func(t *testing.T) {
		p := proposal(alice, bob, hat, scarf)
		p.MeetingTime = testNow.Add(-time.Hour)
		_, err := svc.RequestTrade(ctx, p)
		assert.True(t, apperr.IsCannotTrade(err))
	})

	t.Run("second meeting before the first", func(t *testing.T) {
		p := proposal(alice, bob, hat, scarf)
		earlier := p.MeetingTime.Add(-time.Hour)
		p.SecondMeetingTime = &earlier
		_, err := svc.RequestTrade(ctx, p)
		assert.True(t, apperr.IsCannotTrade(err))
	})

	t.Run("item not owned", func(t *testing.T) {
		_, err := svc.RequestTrade(ctx, proposal(alice, bob, scarf, hat))
		assert.True(t, apperr.IsAuthorization(err))
	})

	t.Run("borrow without lending surplus", func(t *testing.T) {
		_, err := svc.RequestTrade(ctx, proposal(alice, bob, uuid.Nil, scarf))
		assert.True(t, apperr.IsCannotTrade(err))
	})

	t.Run("frozen counterpart", func(t *testing.T) {
		frozen := seedTrader(t, reg, "carol")
		frozen.Frozen = true
		require.NoError(t, reg.SaveTrader(ctx, frozen))
		_, err := svc.RequestTrade(ctx, proposal(alice, frozen, hat, uuid.Nil))
		assert.True(t, apperr.IsCannotTrade(err))
	})

	// None of the rejected proposals may have touched the records.
	assert.Empty(t, reload(t, reg, alice.ID).RequestedTrades)
	assert.Empty(t, reload(t, reg, bob.ID).RequestedTrades)
}

func TestAcceptRequestCommitsItems(t *testing.T) {
	ctx := context.Background()
	reg, svc := newFixture(t)
	alice := seedTrader(t, reg, "alice")
	bob := seedTrader(t, reg, "bob")
	hat := seedItem(t, reg, alice, "hat")
	scarf := seedItem(t, reg, bob, "scarf")

	tradeID, err := svc.RequestTrade(ctx, proposal(alice, bob, hat, scarf))
	require.NoError(t, err)

	completed, err := svc.AcceptRequest(ctx, bob.ID, tradeID)
	require.NoError(t, err)
	assert.True(t, completed, "the requester had already confirmed")

	alice = reload(t, reg, alice.ID)
	bob = reload(t, reg, bob.ID)
	assert.NotContains(t, alice.AvailableItems, hat)
	assert.Contains(t, alice.OngoingItems, hat)
	assert.NotContains(t, bob.AvailableItems, scarf)
	assert.Contains(t, bob.OngoingItems, scarf)
	assert.Contains(t, alice.AcceptedTrades, tradeID)
	assert.Contains(t, bob.AcceptedTrades, tradeID)
	assert.Empty(t, alice.RequestedTrades)
	assert.Equal(t, 1, alice.TradeCount)
	assert.Equal(t, 1, bob.TradeCount)

	trade, err := svc.GetTrade(ctx, tradeID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeAccepted, trade.State)
}

func TestAcceptRequestRejectsOutsider(t *testing.T) {
	ctx := context.Background()
	reg, svc := newFixture(t)
	alice := seedTrader(t, reg, "alice")
	bob := seedTrader(t, reg, "bob")
	carol := seedTrader(t, reg, "carol")
	hat := seedItem(t, reg, alice, "hat")

	tradeID, err := svc.RequestTrade(ctx, proposal(alice, bob, hat, uuid.Nil))
	require.NoError(t, err)

	_, err = svc.AcceptRequest(ctx, carol.ID, tradeID)
	assert.True(t, apperr.IsAuthorization(err))
}

func TestAcceptBorrowIncrementsCounter(t *testing.T) {
	ctx := context.Background()
	reg, svc := newFixture(t)
	alice := seedTrader(t, reg, "alice")
	bob := seedTrader(t, reg, "bob")
	scarf := seedItem(t, reg, bob, "scarf")

	alice = reload(t, reg, alice.ID)
	alice.TotalItemsLent = 2
	require.NoError(t, reg.SaveTrader(ctx, alice))

	tradeID, err := svc.RequestTrade(ctx, proposal(alice, bob, uuid.Nil, scarf))
	require.NoError(t, err)

	completed, err := svc.AcceptRequest(ctx, bob.ID, tradeID)
	require.NoError(t, err)
	require.True(t, completed)

	alice = reload(t, reg, alice.ID)
	assert.Equal(t, 1, alice.TotalAcceptedBorrows, "an empty offer books an accepted borrow")
	assert.Empty(t, alice.OngoingItems)
}

func TestPermanentTradeCompletion(t *testing.T) {
	ctx := context.Background()
	reg, svc := newFixture(t)
	alice := seedTrader(t, reg, "alice")
	bob := seedTrader(t, reg, "bob")
	hat := seedItem(t, reg, alice, "hat")
	scarf := seedItem(t, reg, bob, "scarf")

	alice = reload(t, reg, alice.ID)
	alice.Wishlist = []uuid.UUID{scarf}
	require.NoError(t, reg.SaveTrader(ctx, alice))

	tradeID, err := svc.RequestTrade(ctx, proposal(alice, bob, hat, scarf))
	require.NoError(t, err)
	_, err = svc.AcceptRequest(ctx, bob.ID, tradeID)
	require.NoError(t, err)

	require.NoError(t, svc.ConfirmMeeting(ctx, alice.ID, tradeID))
	require.NoError(t, svc.ConfirmMeeting(ctx, bob.ID, tradeID))

	alice = reload(t, reg, alice.ID)
	bob = reload(t, reg, bob.ID)
	assert.Contains(t, alice.AvailableItems, scarf, "ownership transferred")
	assert.Contains(t, bob.AvailableItems, hat)
	assert.Empty(t, alice.OngoingItems)
	assert.Empty(t, bob.OngoingItems)
	assert.Contains(t, alice.CompletedTrades, tradeID)
	assert.Empty(t, alice.AcceptedTrades)
	assert.NotContains(t, alice.Wishlist, scarf, "a received item is no longer wanted")

	trade, err := svc.GetTrade(ctx, tradeID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeCompleted, trade.State)

	// Confirmations on a finished permanent trade change nothing.
	require.NoError(t, svc.ConfirmMeeting(ctx, alice.ID, tradeID))
	assert.Equal(t, reload(t, reg, alice.ID).AvailableItems, alice.AvailableItems)
}

func TestTemporaryLendReturnsItem(t *testing.T) {
	ctx := context.Background()
	reg, svc := newFixture(t)
	alice := seedTrader(t, reg, "alice")
	bob := seedTrader(t, reg, "bob")
	hat := seedItem(t, reg, alice, "hat")

	p := proposal(alice, bob, hat, uuid.Nil)
	ret := p.MeetingTime.Add(7 * 24 * time.Hour)
	p.SecondMeetingTime = &ret

	tradeID, err := svc.RequestTrade(ctx, p)
	require.NoError(t, err)
	_, err = svc.AcceptRequest(ctx, bob.ID, tradeID)
	require.NoError(t, err)

	require.NoError(t, svc.ConfirmMeeting(ctx, alice.ID, tradeID))
	require.NoError(t, svc.ConfirmMeeting(ctx, bob.ID, tradeID))

	// After the handoff the borrower holds the item.
	bob = reload(t, reg, bob.ID)
	assert.Contains(t, bob.OngoingItems, hat)
	assert.NotContains(t, reload(t, reg, alice.ID).AvailableItems, hat)

	require.NoError(t, svc.ConfirmMeeting(ctx, alice.ID, tradeID))
	require.NoError(t, svc.ConfirmMeeting(ctx, bob.ID, tradeID))

	alice = reload(t, reg, alice.ID)
	bob = reload(t, reg, bob.ID)
	assert.Contains(t, alice.AvailableItems, hat, "the item returned to its owner")
	assert.Empty(t, bob.OngoingItems)
	assert.Equal(t, 1, alice.TotalItemsLent)
	assert.Contains(t, alice.CompletedTrades, tradeID)

	trade, err := svc.GetTrade(ctx, tradeID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeCompleted, trade.State)
}

func TestCounterOfferTurnAndEditCap(t *testing.T) {
	ctx := context.Background()
	reg, svc := newFixture(t)
	alice := seedTrader(t, reg, "alice")
	bob := seedTrader(t, reg, "bob")
	hat := seedItem(t, reg, alice, "hat")
	scarf := seedItem(t, reg, bob, "scarf")

	p := proposal(alice, bob, hat, scarf)
	p.AllowedEdits = 1
	tradeID, err := svc.RequestTrade(ctx, p)
	require.NoError(t, err)

	counter := func(trader *models.Trader, own, other uuid.UUID) error {
		_, err := svc.CounterOffer(ctx, CounterProposal{
			TraderID:        trader.ID,
			TradeID:         tradeID,
			MeetingTime:     testNow.Add(48 * time.Hour),
			MeetingLocation: "harbour",
			OwnOffer:        own,
			OtherOffer:      other,
		})
		return err
	}

	// The second trader edits first.
	err = counter(alice, hat, scarf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a previous trade offer has already been sent")

	require.NoError(t, counter(bob, scarf, hat))
	require.NoError(t, counter(alice, hat, scarf))

	// Both sides spent their one edit.
	err = counter(bob, scarf, hat)
	assert.True(t, apperr.IsCannotTrade(err))

	trade, err := svc.GetTrade(ctx, tradeID)
	require.NoError(t, err)
	assert.Equal(t, 2, trade.NumEdits)
	assert.Equal(t, models.TradeRequested, trade.State)
	assert.True(t, trade.FirstConfirmedRequest, "the last editor accepts its own terms")
	assert.False(t, trade.SecondConfirmedRequest)
}

func TestRescindRequest(t *testing.T) {
	ctx := context.Background()
	reg, svc := newFixture(t)
	alice := seedTrader(t, reg, "alice")
	bob := seedTrader(t, reg, "bob")
	hat := seedItem(t, reg, alice, "hat")

	tradeID, err := svc.RequestTrade(ctx, proposal(alice, bob, hat, uuid.Nil))
	require.NoError(t, err)

	require.NoError(t, svc.RescindRequest(ctx, tradeID))
	assert.Empty(t, reload(t, reg, alice.ID).RequestedTrades)
	assert.Empty(t, reload(t, reg, bob.ID).RequestedTrades)

	_, err = svc.GetTrade(ctx, tradeID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestRescindRequestFailsAfterAcceptance(t *testing.T) {
	ctx := context.Background()
	reg, svc := newFixture(t)
	alice := seedTrader(t, reg, "alice")
	bob := seedTrader(t, reg, "bob")
	hat := seedItem(t, reg, alice, "hat")

	tradeID, err := svc.RequestTrade(ctx, proposal(alice, bob, hat, uuid.Nil))
	require.NoError(t, err)
	_, err = svc.AcceptRequest(ctx, bob.ID, tradeID)
	require.NoError(t, err)

	err = svc.RescindRequest(ctx, tradeID)
	assert.True(t, apperr.IsNotFound(err), "an accepted trade is no longer a pending request")
}

func TestRescindOngoingReversesTrade(t *testing.T) {
	ctx := context.Background()
	reg, svc := newFixture(t)
	alice := seedTrader(t, reg, "alice")
	bob := seedTrader(t, reg, "bob")
	hat := seedItem(t, reg, alice, "hat")
	scarf := seedItem(t, reg, bob, "scarf")

	tradeID, err := svc.RequestTrade(ctx, proposal(alice, bob, hat, scarf))
	require.NoError(t, err)
	_, err = svc.AcceptRequest(ctx, bob.ID, tradeID)
	require.NoError(t, err)

	require.NoError(t, svc.RescindOngoing(ctx, tradeID))

	alice = reload(t, reg, alice.ID)
	bob = reload(t, reg, bob.ID)
	assert.Contains(t, alice.AvailableItems, hat)
	assert.Contains(t, bob.AvailableItems, scarf)
	assert.Empty(t, alice.OngoingItems)
	assert.Empty(t, bob.OngoingItems)
	assert.Zero(t, alice.TradeCount)
	assert.Zero(t, bob.TradeCount)

	_, err = svc.GetTrade(ctx, tradeID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestRescindOngoingRejectsPendingTrade(t *testing.T) {
	ctx := context.Background()
	reg, svc := newFixture(t)
	alice := seedTrader(t, reg, "alice")
	bob := seedTrader(t, reg, "bob")
	hat := seedItem(t, reg, alice, "hat")

	tradeID, err := svc.RequestTrade(ctx, proposal(alice, bob, hat, uuid.Nil))
	require.NoError(t, err)

	err = svc.RescindOngoing(ctx, tradeID)
	assert.True(t, apperr.IsCannotTrade(err))
}

func TestRemoveInvalidRequestsDropsStaleOffer(t *testing.T) {
	ctx := context.Background()
	reg, svc := newFixture(t)
	alice := seedTrader(t, reg, "alice")
	bob := seedTrader(t, reg, "bob")
	hat := seedItem(t, reg, alice, "hat")

	tradeID, err := svc.RequestTrade(ctx, proposal(alice, bob, hat, uuid.Nil))
	require.NoError(t, err)

	// The offered item leaves the owner's inventory behind the trade's back.
	alice = reload(t, reg, alice.ID)
	alice.AvailableItems, _ = models.RemoveID(alice.AvailableItems, hat)
	require.NoError(t, reg.SaveTrader(ctx, alice))

	require.NoError(t, svc.RemoveInvalidRequests(ctx))

	assert.Empty(t, reload(t, reg, alice.ID).RequestedTrades)
	assert.Empty(t, reload(t, reg, bob.ID).RequestedTrades)
	_, err = svc.GetTrade(ctx, tradeID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestFrequentTradePartners(t *testing.T) {
	ctx := context.Background()
	reg, svc := newFixture(t)
	alice := seedTrader(t, reg, "alice")
	partners := []*models.Trader{
		seedTrader(t, reg, "bob"),
		seedTrader(t, reg, "carol"),
		seedTrader(t, reg, "dave"),
		seedTrader(t, reg, "erin"),
	}

	// bob 3 trades, carol 2, dave 1, erin 1.
	counts := []int{3, 2, 1, 1}
	for i, partner := range partners {
		for j := 0; j < counts[i]; j++ {
			trade := models.NewTrade(alice.ID, partner.ID, testNow.Add(time.Hour), nil,
				"", uuid.New(), uuid.New(), 1, "")
			trade.State = models.TradeCompleted
			require.NoError(t, reg.SaveTrade(ctx, trade))
			alice.CompletedTrades = append(alice.CompletedTrades, trade.ID)
		}
	}
	require.NoError(t, reg.SaveTrader(ctx, alice))

	top, err := svc.FrequentTradePartners(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, partners[0].ID, top[0])
	assert.Equal(t, partners[1].ID, top[1])
}

func TestRecentTradeItems(t *testing.T) {
	ctx := context.Background()
	reg, svc := newFixture(t)
	alice := seedTrader(t, reg, "alice")
	bob := seedTrader(t, reg, "bob")

	hat, scarf := uuid.New(), uuid.New()
	older := models.NewTrade(alice.ID, bob.ID, testNow.Add(time.Hour), nil, "", hat, uuid.Nil, 1, "")
	newer := models.NewTrade(alice.ID, bob.ID, testNow.Add(time.Hour), nil, "", hat, scarf, 1, "")
	require.NoError(t, reg.SaveTrade(ctx, older))
	require.NoError(t, reg.SaveTrade(ctx, newer))
	alice.CompletedTrades = []uuid.UUID{older.ID, newer.ID}
	require.NoError(t, reg.SaveTrader(ctx, alice))

	items, err := svc.RecentTradeItems(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{hat, scarf}, items, "newest first, no duplicates, no empty offers")
}
