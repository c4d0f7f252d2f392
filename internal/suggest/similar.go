package suggest

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"tradenexus/internal/apperr"
	"tradenexus/internal/registry"
)

// Similar suggests trades whose item names are close, not identical, to
// wishlist entries, so both sides stay more or less content with what
// they receive.
type Similar struct {
	reg *registry.Registry
}

// NewSimilar creates the similarity-match strategy.
func NewSimilar(reg *registry.Registry) *Similar {
	return &Similar{reg: reg}
}

// SuggestLend returns the caller's inventory item whose name scores
// highest against any eligible trader's wishlist.
func (s *Similar) SuggestLend(ctx context.Context, traderID uuid.UUID, inCity bool) (*LendSuggestion, error) {
	trader, err := s.reg.Trader(ctx, traderID)
	if err != nil {
		return nil, err
	}

	ids, err := s.reg.TraderIDs(ctx)
	if err != nil {
		return nil, err
	}

	var (
		bestItem   uuid.UUID
		bestTrader uuid.UUID
		bestScore  int
	)
	for _, id := range ids {
		if id == traderID {
			continue
		}
		other, err := s.reg.Trader(ctx, id)
		if err != nil {
			log.Printf("similarity suggestion: load trader %s: %v", id, err)
			continue
		}
		if !other.CanTrade() || (inCity && !strings.EqualFold(other.City, trader.City)) {
			continue
		}
		for _, item := range trader.AvailableItems {
			candidate, score, err := s.bestSimilar(ctx, item, other.Wishlist)
			if err != nil {
				return nil, err
			}
			if candidate != uuid.Nil && score > bestScore {
				bestItem = item
				bestTrader = id
				bestScore = score
			}
		}
	}

	if bestItem == uuid.Nil || bestTrader == uuid.Nil {
		return nil, nil
	}
	return &LendSuggestion{LenderID: traderID, ReceiverID: bestTrader, ItemID: bestItem}, nil
}

// SuggestTrade scores both directions for every eligible trader: what the
// caller wants most from the candidate's inventory and what the candidate
// wants most from the caller's. The candidate with the highest combined
// score wins; both directions must score.
func (s *Similar) SuggestTrade(ctx context.Context, traderID uuid.UUID, inCity bool) (*TradeSuggestion, error) {
	trader, err := s.reg.Trader(ctx, traderID)
	if err != nil {
		return nil, err
	}

	ids, err := s.reg.TraderIDs(ctx)
	if err != nil {
		return nil, err
	}

	var (
		bestTotal   int
		bestPartner uuid.UUID
		bestGive    uuid.UUID
		bestReceive uuid.UUID
	)
	for _, id := range ids {
		if id == traderID {
			continue
		}
		other, err := s.reg.Trader(ctx, id)
		if err != nil {
			log.Printf("similarity suggestion: load trader %s: %v", id, err)
			continue
		}
		if !other.CanTrade() || (inCity && !strings.EqualFold(other.City, trader.City)) {
			continue
		}

		var receive, give uuid.UUID
		var receiveScore, giveScore int
		for _, wanted := range trader.Wishlist {
			candidate, score, err := s.bestSimilar(ctx, wanted, other.AvailableItems)
			if err != nil {
				return nil, err
			}
			if candidate != uuid.Nil && score > receiveScore {
				receive = candidate
				receiveScore = score
			}
		}
		for _, wanted := range other.Wishlist {
			candidate, score, err := s.bestSimilar(ctx, wanted, trader.AvailableItems)
			if err != nil {
				return nil, err
			}
			if candidate != uuid.Nil && score > giveScore {
				give = candidate
				giveScore = score
			}
		}

		if receiveScore != 0 && giveScore != 0 && receiveScore+giveScore > bestTotal {
			bestTotal = receiveScore + giveScore
			bestPartner = id
			bestGive = give
			bestReceive = receive
		}
	}

	if bestPartner == uuid.Nil || bestGive == uuid.Nil || bestReceive == uuid.Nil {
		return nil, nil
	}
	return &TradeSuggestion{
		TraderID:      traderID,
		PartnerID:     bestPartner,
		GiveItemID:    bestGive,
		ReceiveItemID: bestReceive,
	}, nil
}

// bestSimilar finds the candidate item whose name is most similar to the
// query item's name. It returns the nil id when no candidate passes the
// adaptive threshold or when the query item no longer exists. Candidates
// identical to the query item are skipped; an exact copy would trivially
// win every search.
func (s *Similar) bestSimilar(ctx context.Context, queryID uuid.UUID, candidates []uuid.UUID) (uuid.UUID, int, error) {
	if len(candidates) == 0 {
		return uuid.Nil, 0, nil
	}
	query, err := s.reg.Item(ctx, queryID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return uuid.Nil, 0, nil
		}
		return uuid.Nil, 0, err
	}

	var (
		bestID     uuid.UUID
		bestName   string
		bestScore  int
		longestLen int
	)
	for _, candidateID := range candidates {
		if candidateID == queryID {
			continue
		}
		candidate, err := s.reg.Item(ctx, candidateID)
		if err != nil {
			if apperr.IsNotFound(err) {
				continue
			}
			return uuid.Nil, 0, err
		}

		score := nameSimilarity(query.Name, candidate.Name, &longestLen)
		if score > bestScore ||
			(score == bestScore && abs(len(candidate.Name)-len(query.Name)) < abs(len(bestName)-len(query.Name))) {
			bestScore = score
			bestID = candidateID
			bestName = candidate.Name
		}
	}

	// Adaptive threshold: the score must reach 80% of the longest word
	// length seen during the search.
	if bestScore >= int(float64(longestLen)*0.8) {
		return bestID, bestScore, nil
	}
	return uuid.Nil, 0, nil
}

// nameSimilarity scores two full item names: every word of one name is
// compared against every word of the other and the best word-pair score
// wins. longestLen is updated with the longest word encountered, which
// feeds the caller's threshold.
func nameSimilarity(queryName, candidateName string, longestLen *int) int {
	best := 0
	for _, cw := range strings.Fields(candidateName) {
		for _, qw := range strings.Fields(queryName) {
			shorter, longer := []rune(strings.ToLower(qw)), []rune(strings.ToLower(cw))
			if len(longer) < len(shorter) {
				shorter, longer = longer, shorter
			}
			if len(longer) > *longestLen {
				*longestLen = len(longer)
			}
			if score := wordSimilarity(shorter, longer); score > best {
				best = score
			}
		}
	}
	return best
}

// wordSimilarity compares a word pair, case already folded, shorter first.
// Two passes: the offset scan slides the shorter word along the longer one
// and counts positional matches; the prefix+suffix pass handles a single
// inserted or deleted character, which breaks the offset scan (for
// "apple" vs "appxle" the scan gives 3 but the intended score is 4). The
// larger of the two wins.
func wordSimilarity(shorter, longer []rune) int {
	if len(shorter) == 0 {
		return 0
	}

	best := 0
	for k := range longer {
		matches := 0
		for l, k2 := 0, k; l < len(shorter) && k2 < len(longer); l, k2 = l+1, k2+1 {
			if shorter[l] == longer[k2] {
				matches++
			}
		}
		if matches > best {
			best = matches
		}
	}

	correction := 0
	for k := 0; k < len(shorter) && shorter[k] == longer[k]; k++ {
		correction++
	}
	for i, j := len(shorter)-1, len(longer)-1; shorter[i] == longer[j]; i, j = i-1, j-1 {
		correction++
		if i <= 0 {
			break
		}
	}
	// Identical words double-count every rune across the two runs.
	if correction > len(shorter) {
		correction = len(shorter)
	}
	correction -= len(longer) - len(shorter)

	if correction > best {
		best = correction
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
