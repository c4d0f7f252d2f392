package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTrade(t *testing.T, allowedEdits int) *Trade {
	t.Helper()
	meeting := time.Now().Add(24 * time.Hour)
	return NewTrade(uuid.New(), uuid.New(), meeting, nil, "central station",
		uuid.New(), uuid.New(), allowedEdits, "hi")
}

func TestNewTradeDefaults(t *testing.T) {
	trade := newTestTrade(t, 3)

	assert.Equal(t, TradeRequested, trade.State)
	assert.True(t, trade.FirstConfirmedRequest, "the requester has confirmed by sending")
	assert.False(t, trade.SecondConfirmedRequest)
	assert.Equal(t, trade.SecondTraderID, trade.TurnToEdit, "the receiving side edits first")
	assert.Equal(t, 6, trade.MaxAllowedEdits)
	assert.Zero(t, trade.NumEdits)
	assert.True(t, trade.IsPermanent())
}

func TestConfirmRequestMovesToAccepted(t *testing.T) {
	trade := newTestTrade(t, 1)

	trade.ConfirmRequest(trade.FirstTraderID)
	assert.Equal(t, TradeRequested, trade.State, "one-sided confirmation is not acceptance")

	trade.ConfirmRequest(trade.SecondTraderID)
	assert.Equal(t, TradeAccepted, trade.State)
	assert.True(t, trade.BothConfirmedRequest())
}

func TestConfirmMeetingRouting(t *testing.T) {
	trade := newTestTrade(t, 1)

	// The second call of one side does not reach meeting two until the
	// other side has confirmed meeting one.
	trade.ConfirmMeeting(trade.FirstTraderID)
	trade.ConfirmMeeting(trade.FirstTraderID)
	assert.Equal(t, 1, trade.FirstMeetingsConfirmed)
	assert.False(t, trade.FirstMeetingDone())

	trade.ConfirmMeeting(trade.SecondTraderID)
	require.True(t, trade.FirstMeetingDone())

	trade.ConfirmMeeting(trade.FirstTraderID)
	trade.ConfirmMeeting(trade.SecondTraderID)
	assert.True(t, trade.SecondMeetingDone())
}

func TestApplyCounterOffer(t *testing.T) {
	trade := newTestTrade(t, 2)
	editor := trade.SecondTraderID
	newOffer := uuid.New()
	otherOffer := trade.FirstOffer
	meeting := time.Now().Add(48 * time.Hour)

	trade.ApplyCounterOffer(editor, meeting, nil, "harbour", newOffer, otherOffer, "better?")

	assert.Equal(t, trade.FirstTraderID, trade.TurnToEdit, "the turn flips to the other side")
	assert.Equal(t, newOffer, trade.SecondOffer)
	assert.Equal(t, otherOffer, trade.FirstOffer)
	assert.True(t, trade.SecondConfirmedRequest, "the editor accepts its own terms")
	assert.False(t, trade.FirstConfirmedRequest, "the other side must accept again")
	assert.Equal(t, TradeRequested, trade.State)
	assert.Equal(t, 1, trade.NumEdits)
}

func TestCounterOfferAfterAcceptanceRestartsNegotiation(t *testing.T) {
	trade := newTestTrade(t, 2)
	trade.ConfirmRequest(trade.SecondTraderID)
	require.Equal(t, TradeAccepted, trade.State)

	trade.ApplyCounterOffer(trade.SecondTraderID, time.Now().Add(time.Hour), nil,
		"harbour", trade.SecondOffer, trade.FirstOffer, "")
	assert.Equal(t, TradeRequested, trade.State)
}

func TestOfferOfAndCounterpart(t *testing.T) {
	trade := newTestTrade(t, 1)

	assert.Equal(t, trade.FirstOffer, trade.OfferOf(trade.FirstTraderID))
	assert.Equal(t, trade.SecondOffer, trade.OfferOf(trade.SecondTraderID))
	assert.Equal(t, trade.SecondTraderID, trade.Counterpart(trade.FirstTraderID))
	assert.Equal(t, trade.FirstTraderID, trade.Counterpart(trade.SecondTraderID))
}

func TestBorrowAndLendClassification(t *testing.T) {
	meeting := time.Now().Add(time.Hour)

	borrow := NewTrade(uuid.New(), uuid.New(), meeting, nil, "", uuid.Nil, uuid.New(), 1, "")
	assert.True(t, borrow.IsBorrow())
	assert.False(t, borrow.IsLend())

	lend := NewTrade(uuid.New(), uuid.New(), meeting, nil, "", uuid.New(), uuid.Nil, 1, "")
	assert.True(t, lend.IsLend())
	assert.False(t, lend.IsBorrow())
}
