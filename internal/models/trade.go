package models

import (
	"time"

	"github.com/google/uuid"
)

// TradeState is the explicit protocol state of a trade. Rescinded trades
// are deleted from the store, so no persisted trade carries that state.
type TradeState string

const (
	// TradeRequested: sent but not yet accepted by both sides. Counter
	// offers keep the trade here.
	TradeRequested TradeState = "requested"
	// TradeAccepted: both sides accepted; one or two physical meetings
	// remain to be confirmed.
	TradeAccepted TradeState = "accepted"
	// TradeCompleted: all required meetings confirmed by both sides.
	TradeCompleted TradeState = "completed"
)

// Trade is the negotiable record of one pairwise exchange.
//
// A nil offer means that side gives nothing: the trade is a pure borrow
// when the first trader's offer is nil and a pure lend when the second
// trader's offer is nil. A nil SecondMeetingTime makes the trade permanent
// (ownership transfers after one meeting); otherwise the items must be
// returned at the second meeting.
type Trade struct {
	ID             uuid.UUID `json:"id"`
	FirstTraderID  uuid.UUID `json:"first_trader_id"`
	SecondTraderID uuid.UUID `json:"second_trader_id"`
	FirstOffer     uuid.UUID `json:"first_offer"`
	SecondOffer    uuid.UUID `json:"second_offer"`

	MeetingTime       time.Time  `json:"meeting_time"`
	SecondMeetingTime *time.Time `json:"second_meeting_time,omitempty"`
	MeetingLocation   string     `json:"meeting_location"`
	Message           string     `json:"message"`

	NumEdits        int       `json:"num_edits"`
	MaxAllowedEdits int       `json:"max_allowed_edits"`
	TurnToEdit      uuid.UUID `json:"turn_to_edit"`

	State TradeState `json:"state"`

	// Per-side acceptance of the current terms. The requester starts
	// confirmed; a counter offer resets the other side.
	FirstConfirmedRequest  bool `json:"first_confirmed_request"`
	SecondConfirmedRequest bool `json:"second_confirmed_request"`

	// Per-side count of meetings confirmed so far (0, 1 or 2).
	FirstMeetingsConfirmed  int `json:"first_meetings_confirmed"`
	SecondMeetingsConfirmed int `json:"second_meetings_confirmed"`
}

// NewTrade creates a trade requested by the first trader. Each side gets
// allowedEdits counter offers, the second trader edits first, and the
// requester has already confirmed the terms.
func NewTrade(first, second uuid.UUID, meeting time.Time, secondMeeting *time.Time,
	location string, firstOffer, secondOffer uuid.UUID, allowedEdits int, message string) *Trade {
	return &Trade{
		ID:                    uuid.New(),
		FirstTraderID:         first,
		SecondTraderID:        second,
		FirstOffer:            firstOffer,
		SecondOffer:           secondOffer,
		MeetingTime:           meeting,
		SecondMeetingTime:     secondMeeting,
		MeetingLocation:       location,
		Message:               message,
		MaxAllowedEdits:       allowedEdits * 2,
		TurnToEdit:            second,
		State:                 TradeRequested,
		FirstConfirmedRequest: true,
	}
}

// IsParty reports whether the trader is one of the two sides.
func (t *Trade) IsParty(traderID uuid.UUID) bool {
	return t.FirstTraderID == traderID || t.SecondTraderID == traderID
}

// IsPermanent reports whether ownership transfers after a single meeting.
func (t *Trade) IsPermanent() bool {
	return t.SecondMeetingTime == nil
}

// IsBorrow reports whether the first trader offers nothing.
func (t *Trade) IsBorrow() bool {
	return t.FirstOffer == uuid.Nil
}

// IsLend reports whether the second trader offers nothing.
func (t *Trade) IsLend() bool {
	return t.SecondOffer == uuid.Nil
}

// ConfirmRequest records traderID's acceptance of the current terms and
// moves the trade to TradeAccepted once both sides have accepted.
func (t *Trade) ConfirmRequest(traderID uuid.UUID) {
	if traderID == t.FirstTraderID {
		t.FirstConfirmedRequest = true
	} else {
		t.SecondConfirmedRequest = true
	}
	if t.BothConfirmedRequest() {
		t.State = TradeAccepted
	}
}

// BothConfirmedRequest reports whether both sides accepted the terms.
func (t *Trade) BothConfirmedRequest() bool {
	return t.FirstConfirmedRequest && t.SecondConfirmedRequest
}

// ConfirmMeeting records one confirmation call from traderID. The side's
// first call confirms meeting one; a further call confirms meeting two,
// but only after the other side has confirmed meeting one.
func (t *Trade) ConfirmMeeting(traderID uuid.UUID) {
	if traderID == t.FirstTraderID {
		if t.FirstMeetingsConfirmed == 0 {
			t.FirstMeetingsConfirmed = 1
		} else if t.SecondMeetingsConfirmed >= 1 {
			t.FirstMeetingsConfirmed = 2
		}
	} else {
		if t.SecondMeetingsConfirmed == 0 {
			t.SecondMeetingsConfirmed = 1
		} else if t.FirstMeetingsConfirmed >= 1 {
			t.SecondMeetingsConfirmed = 2
		}
	}
}

// FirstMeetingDone reports whether both sides confirmed meeting one.
func (t *Trade) FirstMeetingDone() bool {
	return t.FirstMeetingsConfirmed >= 1 && t.SecondMeetingsConfirmed >= 1
}

// SecondMeetingDone reports whether both sides confirmed meeting two.
func (t *Trade) SecondMeetingDone() bool {
	return t.FirstMeetingsConfirmed == 2 && t.SecondMeetingsConfirmed == 2
}

// FlipTurn hands the edit turn to the other side.
func (t *Trade) FlipTurn() {
	if t.TurnToEdit == t.FirstTraderID {
		t.TurnToEdit = t.SecondTraderID
	} else {
		t.TurnToEdit = t.FirstTraderID
	}
}

// ApplyCounterOffer overwrites the negotiable terms on behalf of editor,
// restarting mutual acceptance: the editor has confirmed the new terms and
// the other side has not. The edit turn flips and an edit is consumed.
// The caller checks the edit cap and whose turn it is.
func (t *Trade) ApplyCounterOffer(editor uuid.UUID, meeting time.Time, secondMeeting *time.Time,
	location string, editorOffer, otherOffer uuid.UUID, message string) {
	t.FlipTurn()
	t.MeetingTime = meeting
	t.SecondMeetingTime = secondMeeting
	t.MeetingLocation = location
	t.Message = message
	if editor == t.FirstTraderID {
		t.FirstOffer = editorOffer
		t.SecondOffer = otherOffer
		t.FirstConfirmedRequest = true
		t.SecondConfirmedRequest = false
	} else {
		t.SecondOffer = editorOffer
		t.FirstOffer = otherOffer
		t.FirstConfirmedRequest = false
		t.SecondConfirmedRequest = true
	}
	t.State = TradeRequested
	t.NumEdits++
}

// OfferOf returns the offer made by the given side.
func (t *Trade) OfferOf(traderID uuid.UUID) uuid.UUID {
	if traderID == t.FirstTraderID {
		return t.FirstOffer
	}
	return t.SecondOffer
}

// Counterpart returns the other side of the trade.
func (t *Trade) Counterpart(traderID uuid.UUID) uuid.UUID {
	if traderID == t.FirstTraderID {
		return t.SecondTraderID
	}
	return t.FirstTraderID
}
