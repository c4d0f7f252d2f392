// internal/trading/implementation.go
package trading

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"tradenexus/internal/apperr"
	"tradenexus/internal/models"
	"tradenexus/internal/registry"
)

// service implements the Service interface.
type service struct {
	reg *registry.Registry
	now func() time.Time
}

// NewService creates a new trade coordinator instance.
func NewService(reg *registry.Registry) Service {
	return &service{reg: reg, now: time.Now}
}

// RequestTrade validates the proposal against both traders and creates the
// trade. Validation happens before any write, so a rejected proposal leaves
// every record untouched.
func (s *service) RequestTrade(ctx context.Context, p TradeProposal) (uuid.UUID, error) {
	first, err := s.reg.Trader(ctx, p.FirstTraderID)
	if err != nil {
		return uuid.Nil, err
	}
	second, err := s.reg.Trader(ctx, p.SecondTraderID)
	if err != nil {
		return uuid.Nil, err
	}

	if p.FirstTraderID == p.SecondTraderID {
		return uuid.Nil, apperr.CannotTrade("cannot trade with yourself")
	}
	if p.FirstOffer == uuid.Nil && p.SecondOffer == uuid.Nil {
		return uuid.Nil, apperr.CannotTrade("the trade must include at least one item")
	}
	if !first.CanTrade() {
		return uuid.Nil, apperr.CannotTrade("you cannot trade due to trading restrictions")
	}
	if !second.CanTrade() {
		return uuid.Nil, apperr.CannotTrade("the requested trader cannot trade due to trading restrictions")
	}
	if p.FirstOffer == uuid.Nil && !first.CanBorrow() {
		return uuid.Nil, apperr.CannotTrade("you have not lent enough to borrow")
	}
	if !first.HasAvailable(p.FirstOffer) || !second.HasAvailable(p.SecondOffer) {
		return uuid.Nil, apperr.Unauthorized("the trade offer contains an item the trader does not have")
	}
	if !s.meetingTimesValid(p.MeetingTime, p.SecondMeetingTime) {
		return uuid.Nil, apperr.CannotTrade("the suggested meeting times are not possible")
	}
	if first.OverIncompleteLimit() || second.OverIncompleteLimit() {
		return uuid.Nil, apperr.CannotTrade("one of the two traders has too many active trades")
	}

	trade := models.NewTrade(p.FirstTraderID, p.SecondTraderID, p.MeetingTime, p.SecondMeetingTime,
		p.MeetingLocation, p.FirstOffer, p.SecondOffer, p.AllowedEdits, p.Message)

	first.RequestedTrades = append(first.RequestedTrades, trade.ID)
	second.RequestedTrades = append(second.RequestedTrades, trade.ID)

	if err := s.reg.SaveTrade(ctx, trade); err != nil {
		return uuid.Nil, fmt.Errorf("persist trade: %w", err)
	}
	if err := s.reg.SaveTrader(ctx, first); err != nil {
		return uuid.Nil, fmt.Errorf("persist first trader: %w", err)
	}
	if err := s.reg.SaveTrader(ctx, second); err != nil {
		return uuid.Nil, fmt.Errorf("persist second trader: %w", err)
	}
	return trade.ID, nil
}

// AcceptRequest records the caller's acceptance. Once both sides accept,
// the offered items move into the owners' ongoing lists (an absent offer
// counts as an accepted borrow instead), the trade moves from requested to
// accepted on both sides, and both trade counts increase.
func (s *service) AcceptRequest(ctx context.Context, traderID, tradeID uuid.UUID) (bool, error) {
	trade, err := s.reg.Trade(ctx, tradeID)
	if err != nil {
		return false, err
	}
	if !trade.IsParty(traderID) {
		return false, apperr.Unauthorized("this trader does not belong to this trade")
	}
	first, err := s.reg.Trader(ctx, trade.FirstTraderID)
	if err != nil {
		return false, err
	}
	second, err := s.reg.Trader(ctx, trade.SecondTraderID)
	if err != nil {
		return false, err
	}

	if !first.CanTrade() || !second.CanTrade() {
		return false, apperr.CannotTrade("trade limitations prevent this trade from being accepted")
	}
	if trade.IsBorrow() && !first.CanAcceptBorrow() {
		return false, apperr.CannotTrade("the trader who sent the trade cannot borrow")
	}
	if !first.HasAvailable(trade.FirstOffer) || !second.HasAvailable(trade.SecondOffer) {
		return false, apperr.CannotTrade("a trader no longer has an item required for the trade")
	}

	trade.ConfirmRequest(traderID)

	if !trade.BothConfirmedRequest() {
		if err := s.reg.SaveTrade(ctx, trade); err != nil {
			return false, fmt.Errorf("persist trade: %w", err)
		}
		return false, nil
	}

	first.AvailableItems, _ = models.RemoveID(first.AvailableItems, trade.FirstOffer)
	second.AvailableItems, _ = models.RemoveID(second.AvailableItems, trade.SecondOffer)
	if trade.IsBorrow() {
		first.TotalAcceptedBorrows++
	} else {
		first.OngoingItems = models.AppendID(first.OngoingItems, trade.FirstOffer)
	}
	if !trade.IsLend() {
		second.OngoingItems = models.AppendID(second.OngoingItems, trade.SecondOffer)
	}

	first.RequestedTrades, _ = models.RemoveID(first.RequestedTrades, tradeID)
	second.RequestedTrades, _ = models.RemoveID(second.RequestedTrades, tradeID)
	first.AcceptedTrades = append(first.AcceptedTrades, tradeID)
	second.AcceptedTrades = append(second.AcceptedTrades, tradeID)
	first.TradeCount++
	second.TradeCount++

	if err := s.reg.SaveTrade(ctx, trade); err != nil {
		return false, fmt.Errorf("persist trade: %w", err)
	}
	if err := s.reg.SaveTrader(ctx, first); err != nil {
		return false, fmt.Errorf("persist first trader: %w", err)
	}
	if err := s.reg.SaveTrader(ctx, second); err != nil {
		return false, fmt.Errorf("persist second trader: %w", err)
	}

	// The committed items may have invalidated other pending requests.
	if err := s.RemoveInvalidRequests(ctx); err != nil {
		log.Printf("cleanup after acceptance: %v", err)
	}
	return true, nil
}

// ConfirmMeeting routes the caller's confirmation: once the first meeting
// is mutually confirmed, further calls confirm the second meeting.
func (s *service) ConfirmMeeting(ctx context.Context, traderID, tradeID uuid.UUID) error {
	trade, err := s.reg.Trade(ctx, tradeID)
	if err != nil {
		return err
	}
	if trade.FirstMeetingDone() {
		return s.confirmSecondMeeting(ctx, traderID, trade)
	}
	return s.confirmFirstMeeting(ctx, traderID, trade)
}

func (s *service) confirmFirstMeeting(ctx context.Context, traderID uuid.UUID, trade *models.Trade) error {
	if !trade.IsParty(traderID) {
		return apperr.Unauthorized("this trader does not belong to this trade")
	}
	trade.ConfirmMeeting(traderID)

	if trade.FirstMeetingDone() {
		first, err := s.reg.Trader(ctx, trade.FirstTraderID)
		if err != nil {
			return err
		}
		second, err := s.reg.Trader(ctx, trade.SecondTraderID)
		if err != nil {
			return err
		}

		first.OngoingItems, _ = models.RemoveID(first.OngoingItems, trade.FirstOffer)
		second.OngoingItems, _ = models.RemoveID(second.OngoingItems, trade.SecondOffer)

		// A received item is no longer wanted.
		first.Wishlist, _ = models.RemoveID(first.Wishlist, trade.SecondOffer)
		second.Wishlist, _ = models.RemoveID(second.Wishlist, trade.FirstOffer)

		if trade.IsPermanent() {
			first.AcceptedTrades, _ = models.RemoveID(first.AcceptedTrades, trade.ID)
			second.AcceptedTrades, _ = models.RemoveID(second.AcceptedTrades, trade.ID)
			first.CompletedTrades = append(first.CompletedTrades, trade.ID)
			second.CompletedTrades = append(second.CompletedTrades, trade.ID)
			trade.State = models.TradeCompleted

			// Ownership transfers to the receiving side.
			first.AvailableItems = models.AppendID(first.AvailableItems, trade.SecondOffer)
			second.AvailableItems = models.AppendID(second.AvailableItems, trade.FirstOffer)

			if trade.IsBorrow() {
				first.TotalItemsBorrowed++
				first.TotalAcceptedBorrows--
			}
			if trade.IsLend() {
				first.TotalItemsLent++
			}
		} else {
			// Temporary trade: the receiver holds the item until the
			// second meeting.
			first.OngoingItems = models.AppendID(first.OngoingItems, trade.SecondOffer)
			second.OngoingItems = models.AppendID(second.OngoingItems, trade.FirstOffer)
		}

		if err := s.reg.SaveTrader(ctx, first); err != nil {
			return fmt.Errorf("persist first trader: %w", err)
		}
		if err := s.reg.SaveTrader(ctx, second); err != nil {
			return fmt.Errorf("persist second trader: %w", err)
		}
	}

	if err := s.reg.SaveTrade(ctx, trade); err != nil {
		return fmt.Errorf("persist trade: %w", err)
	}
	return nil
}

func (s *service) confirmSecondMeeting(ctx context.Context, traderID uuid.UUID, trade *models.Trade) error {
	if trade.IsPermanent() {
		return nil
	}
	if !trade.IsParty(traderID) {
		return apperr.Unauthorized("this trader does not belong to this trade")
	}
	if !trade.FirstMeetingDone() {
		return apperr.Unauthorized("the first meeting has not been confirmed")
	}
	trade.ConfirmMeeting(traderID)

	if trade.SecondMeetingDone() {
		first, err := s.reg.Trader(ctx, trade.FirstTraderID)
		if err != nil {
			return err
		}
		second, err := s.reg.Trader(ctx, trade.SecondTraderID)
		if err != nil {
			return err
		}

		first.AcceptedTrades, _ = models.RemoveID(first.AcceptedTrades, trade.ID)
		second.AcceptedTrades, _ = models.RemoveID(second.AcceptedTrades, trade.ID)
		first.CompletedTrades = append(first.CompletedTrades, trade.ID)
		second.CompletedTrades = append(second.CompletedTrades, trade.ID)
		trade.State = models.TradeCompleted

		// Items return to their original owners.
		if trade.IsBorrow() {
			first.TotalItemsBorrowed++
			first.TotalAcceptedBorrows--
		} else {
			first.AvailableItems = models.AppendID(first.AvailableItems, trade.FirstOffer)
			second.OngoingItems, _ = models.RemoveID(second.OngoingItems, trade.FirstOffer)
		}
		if trade.IsLend() {
			first.TotalItemsLent++
		} else {
			second.AvailableItems = models.AppendID(second.AvailableItems, trade.SecondOffer)
			first.OngoingItems, _ = models.RemoveID(first.OngoingItems, trade.SecondOffer)
		}

		first.Wishlist, _ = models.RemoveID(first.Wishlist, trade.FirstOffer)
		second.Wishlist, _ = models.RemoveID(second.Wishlist, trade.SecondOffer)

		if err := s.reg.SaveTrader(ctx, first); err != nil {
			return fmt.Errorf("persist first trader: %w", err)
		}
		if err := s.reg.SaveTrader(ctx, second); err != nil {
			return fmt.Errorf("persist second trader: %w", err)
		}
	}

	if err := s.reg.SaveTrade(ctx, trade); err != nil {
		return fmt.Errorf("persist trade: %w", err)
	}
	return nil
}

// CounterOffer replaces the trade terms, flips the edit turn and restarts
// mutual acceptance. A counter offer identical to the previous terms still
// consumes an edit.
func (s *service) CounterOffer(ctx context.Context, p CounterProposal) (uuid.UUID, error) {
	trade, err := s.reg.Trade(ctx, p.TradeID)
	if err != nil {
		return uuid.Nil, err
	}
	first, err := s.reg.Trader(ctx, trade.FirstTraderID)
	if err != nil {
		return uuid.Nil, err
	}
	second, err := s.reg.Trader(ctx, trade.SecondTraderID)
	if err != nil {
		return uuid.Nil, err
	}

	if !trade.IsParty(p.TraderID) {
		return uuid.Nil, apperr.Unauthorized("this trader does not belong to this trade")
	}
	if !first.CanTrade() || !second.CanTrade() {
		return uuid.Nil, apperr.CannotTrade("one of the two traders cannot trade")
	}
	if p.OwnOffer == uuid.Nil && p.OtherOffer == uuid.Nil {
		return uuid.Nil, apperr.CannotTrade("the trade must include at least one item")
	}
	if trade.NumEdits >= trade.MaxAllowedEdits {
		return uuid.Nil, apperr.CannotTrade("too many edits, the trade is cancelled")
	}
	if !s.meetingTimesValid(p.MeetingTime, p.SecondMeetingTime) {
		return uuid.Nil, apperr.CannotTrade("the suggested meeting times are not possible")
	}

	editor, other := first, second
	if p.TraderID == trade.SecondTraderID {
		editor, other = second, first
	}
	if !editor.HasAvailable(p.OwnOffer) || !other.HasAvailable(p.OtherOffer) {
		return uuid.Nil, apperr.CannotTrade("one of the traders does not have the required item")
	}
	if trade.TurnToEdit != p.TraderID {
		return uuid.Nil, apperr.CannotTrade("a previous trade offer has already been sent")
	}

	trade.ApplyCounterOffer(p.TraderID, p.MeetingTime, p.SecondMeetingTime,
		p.MeetingLocation, p.OwnOffer, p.OtherOffer, p.Message)

	if err := s.reg.SaveTrade(ctx, trade); err != nil {
		return uuid.Nil, fmt.Errorf("persist trade: %w", err)
	}
	return trade.ID, nil
}

// RescindRequest cancels a trade that is still pending for the first
// trader and deletes its record. Removal from the second trader's list is
// best effort.
func (s *service) RescindRequest(ctx context.Context, tradeID uuid.UUID) error {
	trade, err := s.reg.Trade(ctx, tradeID)
	if err != nil {
		return err
	}
	first, err := s.reg.Trader(ctx, trade.FirstTraderID)
	if err != nil {
		return err
	}
	second, err := s.reg.Trader(ctx, trade.SecondTraderID)
	if err != nil {
		return err
	}

	var removed bool
	first.RequestedTrades, removed = models.RemoveID(first.RequestedTrades, tradeID)
	if !removed {
		return apperr.TradeNotFound(tradeID.String())
	}
	second.RequestedTrades, _ = models.RemoveID(second.RequestedTrades, tradeID)

	if err := s.reg.DeleteTrade(ctx, tradeID); err != nil {
		return err
	}
	if err := s.reg.SaveTrader(ctx, first); err != nil {
		return fmt.Errorf("persist first trader: %w", err)
	}
	if err := s.reg.SaveTrader(ctx, second); err != nil {
		return fmt.Errorf("persist second trader: %w", err)
	}
	return nil
}

// RescindOngoing reverses an accepted trade: items go back to their
// owners, borrow counters roll back, both trade counts decrease, and the
// record is deleted. There is no compensation for a meeting that already
// happened physically.
func (s *service) RescindOngoing(ctx context.Context, tradeID uuid.UUID) error {
	trade, err := s.reg.Trade(ctx, tradeID)
	if err != nil {
		return err
	}
	first, err := s.reg.Trader(ctx, trade.FirstTraderID)
	if err != nil {
		return err
	}
	second, err := s.reg.Trader(ctx, trade.SecondTraderID)
	if err != nil {
		return err
	}

	if !models.ContainsID(first.AcceptedTrades, tradeID) {
		return apperr.CannotTrade("the trade is not accepted")
	}

	first.AcceptedTrades, _ = models.RemoveID(first.AcceptedTrades, tradeID)
	second.AcceptedTrades, _ = models.RemoveID(second.AcceptedTrades, tradeID)

	if trade.IsBorrow() {
		first.TotalAcceptedBorrows--
	} else {
		first.AvailableItems = models.AppendID(first.AvailableItems, trade.FirstOffer)
	}
	if !trade.IsLend() {
		second.AvailableItems = models.AppendID(second.AvailableItems, trade.SecondOffer)
	}

	// Either side may be holding either item mid-protocol.
	first.OngoingItems, _ = models.RemoveID(first.OngoingItems, trade.FirstOffer)
	first.OngoingItems, _ = models.RemoveID(first.OngoingItems, trade.SecondOffer)
	second.OngoingItems, _ = models.RemoveID(second.OngoingItems, trade.FirstOffer)
	second.OngoingItems, _ = models.RemoveID(second.OngoingItems, trade.SecondOffer)
	first.TradeCount--
	second.TradeCount--

	if err := s.reg.DeleteTrade(ctx, tradeID); err != nil {
		return err
	}
	if err := s.reg.SaveTrader(ctx, first); err != nil {
		return fmt.Errorf("persist first trader: %w", err)
	}
	if err := s.reg.SaveTrader(ctx, second); err != nil {
		return fmt.Errorf("persist second trader: %w", err)
	}
	return nil
}

// RemoveInvalidRequests scans every trader's pending requests and drops
// the ones whose offers or parties are no longer valid. Per-trade
// failures are logged and skipped; this pass is consistency maintenance,
// not a user-facing operation.
func (s *service) RemoveInvalidRequests(ctx context.Context) error {
	ids, err := s.reg.TraderIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		trader, err := s.reg.Trader(ctx, id)
		if err != nil {
			log.Printf("cleanup: load trader %s: %v", id, err)
			continue
		}
		for _, tradeID := range append([]uuid.UUID(nil), trader.RequestedTrades...) {
			if err := s.dropIfInvalid(ctx, tradeID); err != nil {
				log.Printf("cleanup: trade %s: %v", tradeID, err)
			}
		}
	}
	return nil
}

func (s *service) dropIfInvalid(ctx context.Context, tradeID uuid.UUID) error {
	trade, err := s.reg.Trade(ctx, tradeID)
	if err != nil {
		return err
	}
	first, err := s.reg.Trader(ctx, trade.FirstTraderID)
	if err != nil {
		return err
	}
	second, err := s.reg.Trader(ctx, trade.SecondTraderID)
	if err != nil {
		return err
	}

	valid := first.HasAvailable(trade.FirstOffer) && second.HasAvailable(trade.SecondOffer) &&
		first.CanTrade() && second.CanTrade()
	if trade.IsBorrow() {
		valid = valid && first.CanBorrow()
	}
	if valid {
		return nil
	}

	first.RequestedTrades, _ = models.RemoveID(first.RequestedTrades, tradeID)
	second.RequestedTrades, _ = models.RemoveID(second.RequestedTrades, tradeID)
	if err := s.reg.DeleteTrade(ctx, tradeID); err != nil {
		return err
	}
	if err := s.reg.SaveTrader(ctx, first); err != nil {
		return err
	}
	return s.reg.SaveTrader(ctx, second)
}

// GetTrade returns a trade snapshot.
func (s *service) GetTrade(ctx context.Context, tradeID uuid.UUID) (*models.Trade, error) {
	return s.reg.Trade(ctx, tradeID)
}

// FrequentTradePartners counts counterparts over the trader's completed
// trades and returns up to the top three.
func (s *service) FrequentTradePartners(ctx context.Context, traderID uuid.UUID) ([]uuid.UUID, error) {
	trader, err := s.reg.Trader(ctx, traderID)
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int)
	var order []uuid.UUID
	for _, tradeID := range trader.CompletedTrades {
		trade, err := s.reg.Trade(ctx, tradeID)
		if err != nil {
			log.Printf("partner stats: trade %s: %v", tradeID, err)
			continue
		}
		partner := trade.Counterpart(traderID)
		if counts[partner] == 0 {
			order = append(order, partner)
		}
		counts[partner]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > 3 {
		order = order[:3]
	}
	return order, nil
}

// RecentTradeItems walks completed trades newest first and collects each
// traded item once.
func (s *service) RecentTradeItems(ctx context.Context, traderID uuid.UUID) ([]uuid.UUID, error) {
	trader, err := s.reg.Trader(ctx, traderID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool)
	var items []uuid.UUID
	for i := len(trader.CompletedTrades) - 1; i >= 0; i-- {
		trade, err := s.reg.Trade(ctx, trader.CompletedTrades[i])
		if err != nil {
			log.Printf("recent items: trade %s: %v", trader.CompletedTrades[i], err)
			continue
		}
		for _, item := range []uuid.UUID{trade.FirstOffer, trade.SecondOffer} {
			if item != uuid.Nil && !seen[item] {
				items = append(items, item)
				seen[item] = true
			}
		}
	}
	return items, nil
}

// meetingTimesValid requires the first meeting strictly in the future and
// the second meeting, when present, strictly after the first.
func (s *service) meetingTimesValid(first time.Time, second *time.Time) bool {
	if !s.now().Before(first) {
		return false
	}
	return second == nil || first.Before(*second)
}
