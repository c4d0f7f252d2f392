package suggest

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"tradenexus/internal/apperr"
	"tradenexus/internal/models"
	"tradenexus/internal/registry"
)

// Exact suggests trades whose items appear verbatim in the counterpart's
// wishlist.
type Exact struct {
	reg *registry.Registry
}

// NewExact creates the exact-match strategy.
func NewExact(reg *registry.Registry) *Exact {
	return &Exact{reg: reg}
}

// SuggestLend returns the first item of the caller's inventory that some
// eligible trader has on its wishlist.
func (e *Exact) SuggestLend(ctx context.Context, traderID uuid.UUID, inCity bool) (*LendSuggestion, error) {
	lends, err := e.lendCandidates(ctx, traderID, inCity)
	if err != nil {
		return nil, err
	}
	if len(lends) == 0 {
		return nil, nil
	}
	return &lends[0], nil
}

// SuggestTrade extends a lend candidate into a two-way exchange: the
// receiving trader must have an item from the caller's wishlist available.
func (e *Exact) SuggestTrade(ctx context.Context, traderID uuid.UUID, inCity bool) (*TradeSuggestion, error) {
	trader, err := e.reg.Trader(ctx, traderID)
	if err != nil {
		return nil, err
	}
	if trader.Frozen {
		return nil, apperr.Unauthorized("frozen account")
	}

	lends, err := e.lendCandidates(ctx, traderID, inCity)
	if err != nil {
		return nil, err
	}

	for _, lend := range lends {
		partner, err := e.reg.Trader(ctx, lend.ReceiverID)
		if err != nil {
			log.Printf("exact suggestion: load trader %s: %v", lend.ReceiverID, err)
			continue
		}
		for _, candidate := range partner.AvailableItems {
			if models.ContainsID(trader.Wishlist, candidate) {
				return &TradeSuggestion{
					TraderID:      traderID,
					PartnerID:     lend.ReceiverID,
					GiveItemID:    lend.ItemID,
					ReceiveItemID: candidate,
				}, nil
			}
		}
	}
	return nil, nil
}

func (e *Exact) lendCandidates(ctx context.Context, traderID uuid.UUID, inCity bool) ([]LendSuggestion, error) {
	trader, err := e.reg.Trader(ctx, traderID)
	if err != nil {
		return nil, err
	}
	if trader.Frozen {
		return nil, apperr.Unauthorized("frozen account")
	}

	ids, err := e.reg.TraderIDs(ctx)
	if err != nil {
		return nil, err
	}

	var result []LendSuggestion
	for _, id := range ids {
		if id == traderID {
			continue
		}
		other, err := e.reg.Trader(ctx, id)
		if err != nil {
			log.Printf("exact suggestion: load trader %s: %v", id, err)
			continue
		}
		if !other.CanTrade() {
			continue
		}
		if inCity && !strings.EqualFold(other.City, trader.City) {
			continue
		}
		for _, wanted := range other.Wishlist {
			if models.ContainsID(trader.AvailableItems, wanted) {
				result = append(result, LendSuggestion{
					LenderID:   traderID,
					ReceiverID: id,
					ItemID:     wanted,
				})
			}
		}
	}
	return result, nil
}
