// internal/traders/implementation.go
package traders

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"tradenexus/internal/apperr"
	"tradenexus/internal/models"
	"tradenexus/internal/registry"
)

// TradeCleanup is the slice of the trade coordinator the account service
// needs: sweeping pending requests after an inventory change.
type TradeCleanup interface {
	RemoveInvalidRequests(ctx context.Context) error
}

// Defaults are the limits applied to newly registered traders.
type Defaults struct {
	TradeLimit           int
	IncompleteTradeLimit int
	MinimumToBorrow      int
}

// service implements the Service interface.
type service struct {
	reg         *registry.Registry
	trades      TradeCleanup
	defaults    Defaults
	rateLimiter *rate.Limiter
}

// NewService creates a new trader account service instance.
func NewService(reg *registry.Registry, trades TradeCleanup, defaults Defaults) Service {
	return &service{
		reg:         reg,
		trades:      trades,
		defaults:    defaults,
		rateLimiter: rate.NewLimiter(rate.Every(1*time.Minute), 5), // 5 requests per minute
	}
}

// Register creates a new trader account.
func (s *service) Register(ctx context.Context, username, password, city string) (*models.Trader, error) {
	if !s.rateLimiter.Allow() {
		return nil, apperr.RateLimited()
	}

	if username == "" {
		return nil, apperr.Conflict("username must not be empty")
	}
	if _, err := s.reg.TraderByUsername(ctx, username); err == nil {
		return nil, apperr.Conflict("username already taken")
	} else if !apperr.IsNotFound(err) {
		return nil, err
	}

	if err := checkPasswordPolicy(password); err != nil {
		return nil, err
	}
	passwordHash, salt, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	trader := models.NewTrader(username, passwordHash, salt, city,
		s.defaults.TradeLimit, s.defaults.IncompleteTradeLimit, s.defaults.MinimumToBorrow)
	if err := s.reg.SaveTrader(ctx, trader); err != nil {
		return nil, err
	}
	return trader, nil
}

// Authenticate verifies a trader's credentials and returns the trader if
// successful.
func (s *service) Authenticate(ctx context.Context, username, password string) (*models.Trader, error) {
	if !s.rateLimiter.Allow() {
		return nil, apperr.RateLimited()
	}

	trader, err := s.reg.TraderByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	ok, err := verifyPassword(password, trader.Salt, trader.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("authentication failed: invalid credentials")
	}

	return trader, nil
}

// GetTrader retrieves a trader by their ID.
func (s *service) GetTrader(ctx context.Context, id uuid.UUID) (*models.Trader, error) {
	return s.reg.Trader(ctx, id)
}

func (s *service) AddToWishlist(ctx context.Context, traderID, itemID uuid.UUID) error {
	trader, err := s.reg.Trader(ctx, traderID)
	if err != nil {
		return err
	}
	if trader.Frozen {
		return apperr.Unauthorized("frozen account")
	}
	if _, err := s.reg.Item(ctx, itemID); err != nil {
		return err
	}
	if models.ContainsID(trader.Wishlist, itemID) {
		return nil
	}
	trader.Wishlist = models.AppendID(trader.Wishlist, itemID)
	return s.reg.SaveTrader(ctx, trader)
}

func (s *service) RemoveFromWishlist(ctx context.Context, traderID, itemID uuid.UUID) error {
	trader, err := s.reg.Trader(ctx, traderID)
	if err != nil {
		return err
	}
	wishlist, ok := models.RemoveID(trader.Wishlist, itemID)
	if !ok {
		return apperr.ItemNotFound(itemID.String())
	}
	trader.Wishlist = wishlist
	return s.reg.SaveTrader(ctx, trader)
}

// RemoveFromInventory takes an item out of the trader's available
// inventory, deletes its record and sweeps the pending requests and
// wishlists that referenced it. The sweeps are best effort.
func (s *service) RemoveFromInventory(ctx context.Context, traderID, itemID uuid.UUID) error {
	trader, err := s.reg.Trader(ctx, traderID)
	if err != nil {
		return err
	}
	available, ok := models.RemoveID(trader.AvailableItems, itemID)
	if !ok {
		return apperr.ItemNotFound(itemID.String())
	}
	trader.AvailableItems = available
	if err := s.reg.SaveTrader(ctx, trader); err != nil {
		return err
	}
	if err := s.reg.DeleteItem(ctx, itemID); err != nil {
		return err
	}

	if err := s.trades.RemoveInvalidRequests(ctx); err != nil {
		log.Printf("inventory removal: sweep trade requests: %v", err)
	}
	if err := s.RemoveInvalidWishlistItems(ctx); err != nil {
		log.Printf("inventory removal: sweep wishlists: %v", err)
	}
	return nil
}

// RemoveInvalidWishlistItems drops wishlist entries whose item record no
// longer exists.
func (s *service) RemoveInvalidWishlistItems(ctx context.Context) error {
	ids, err := s.reg.TraderIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		trader, err := s.reg.Trader(ctx, id)
		if err != nil {
			log.Printf("wishlist sweep: load trader %s: %v", id, err)
			continue
		}
		kept := trader.Wishlist[:0]
		for _, itemID := range trader.Wishlist {
			if _, err := s.reg.Item(ctx, itemID); err != nil {
				if apperr.IsNotFound(err) {
					continue
				}
				return err
			}
			kept = append(kept, itemID)
		}
		if len(kept) == len(trader.Wishlist) {
			continue
		}
		trader.Wishlist = kept
		if err := s.reg.SaveTrader(ctx, trader); err != nil {
			log.Printf("wishlist sweep: save trader %s: %v", id, err)
		}
	}
	return nil
}

// RequestItem creates an item pending approval and queues it on the
// trader.
func (s *service) RequestItem(ctx context.Context, traderID uuid.UUID, name, description string) (*models.TradableItem, error) {
	trader, err := s.reg.Trader(ctx, traderID)
	if err != nil {
		return nil, err
	}
	item := models.NewTradableItem(name, description)
	if err := s.reg.SaveItem(ctx, item); err != nil {
		return nil, err
	}
	trader.RequestedItems = models.AppendID(trader.RequestedItems, item.ID)
	if err := s.reg.SaveTrader(ctx, trader); err != nil {
		return nil, err
	}
	return item, nil
}

// ProcessItemRequest approves or rejects a queued item. Rejection deletes
// the item record so nothing can reference it.
func (s *service) ProcessItemRequest(ctx context.Context, traderID, itemID uuid.UUID, accept bool) error {
	trader, err := s.reg.Trader(ctx, traderID)
	if err != nil {
		return err
	}
	requested, ok := models.RemoveID(trader.RequestedItems, itemID)
	if !ok {
		return apperr.ItemNotFound(itemID.String())
	}
	trader.RequestedItems = requested
	if accept {
		trader.AvailableItems = models.AppendID(trader.AvailableItems, itemID)
	}
	if err := s.reg.SaveTrader(ctx, trader); err != nil {
		return err
	}
	if !accept {
		return s.reg.DeleteItem(ctx, itemID)
	}
	return nil
}

func (s *service) AcceptAllItemRequests(ctx context.Context) error {
	ids, err := s.reg.TraderIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		trader, err := s.reg.Trader(ctx, id)
		if err != nil {
			log.Printf("item approval sweep: load trader %s: %v", id, err)
			continue
		}
		if len(trader.RequestedItems) == 0 {
			continue
		}
		trader.AvailableItems = append(trader.AvailableItems, trader.RequestedItems...)
		trader.RequestedItems = nil
		if err := s.reg.SaveTrader(ctx, trader); err != nil {
			log.Printf("item approval sweep: save trader %s: %v", id, err)
		}
	}
	return nil
}

func (s *service) AllItemRequests(ctx context.Context) (map[uuid.UUID][]uuid.UUID, error) {
	ids, err := s.reg.TraderIDs(ctx)
	if err != nil {
		return nil, err
	}
	requests := make(map[uuid.UUID][]uuid.UUID)
	for _, id := range ids {
		trader, err := s.reg.Trader(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(trader.RequestedItems) > 0 {
			requests[id] = trader.RequestedItems
		}
	}
	return requests, nil
}

func (s *service) RequestUnfreeze(ctx context.Context, traderID uuid.UUID) error {
	trader, err := s.reg.Trader(ctx, traderID)
	if err != nil {
		return err
	}
	if !trader.Frozen {
		return apperr.Unauthorized("account is not frozen")
	}
	trader.UnfreezeRequested = true
	return s.reg.SaveTrader(ctx, trader)
}

func (s *service) SetFrozen(ctx context.Context, traderID uuid.UUID, frozen bool) error {
	trader, err := s.reg.Trader(ctx, traderID)
	if err != nil {
		return err
	}
	trader.Frozen = frozen
	if !frozen {
		trader.UnfreezeRequested = false
	}
	return s.reg.SaveTrader(ctx, trader)
}

func (s *service) ShouldBeFrozen(ctx context.Context, traderID uuid.UUID) (bool, error) {
	trader, err := s.reg.Trader(ctx, traderID)
	if err != nil {
		return false, err
	}
	return !trader.Frozen && trader.OverIncompleteLimit(), nil
}

// FreezeAllOverLimit freezes every trader holding more accepted,
// unfinished trades than their limit allows.
func (s *service) FreezeAllOverLimit(ctx context.Context) error {
	ids, err := s.reg.TraderIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		trader, err := s.reg.Trader(ctx, id)
		if err != nil {
			log.Printf("freeze sweep: load trader %s: %v", id, err)
			continue
		}
		if trader.Frozen || !trader.OverIncompleteLimit() {
			continue
		}
		trader.Frozen = true
		if err := s.reg.SaveTrader(ctx, trader); err != nil {
			log.Printf("freeze sweep: save trader %s: %v", id, err)
		}
	}
	return nil
}

func (s *service) UnfreezeAllRequested(ctx context.Context) error {
	ids, err := s.reg.TraderIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		trader, err := s.reg.Trader(ctx, id)
		if err != nil {
			log.Printf("unfreeze sweep: load trader %s: %v", id, err)
			continue
		}
		if !trader.Frozen || !trader.UnfreezeRequested {
			continue
		}
		trader.Frozen = false
		trader.UnfreezeRequested = false
		if err := s.reg.SaveTrader(ctx, trader); err != nil {
			log.Printf("unfreeze sweep: save trader %s: %v", id, err)
		}
	}
	return nil
}

func (s *service) SetCity(ctx context.Context, traderID uuid.UUID, city string) error {
	trader, err := s.reg.Trader(ctx, traderID)
	if err != nil {
		return err
	}
	trader.City = city
	return s.reg.SaveTrader(ctx, trader)
}

func (s *service) SetIdle(ctx context.Context, traderID uuid.UUID, idle bool) error {
	trader, err := s.reg.Trader(ctx, traderID)
	if err != nil {
		return err
	}
	if idle && len(trader.AcceptedTrades) > 0 {
		return apperr.CannotTrade("accepted trades still in progress")
	}
	trader.Idle = idle
	return s.reg.SaveTrader(ctx, trader)
}

func (s *service) ChangeUsername(ctx context.Context, traderID uuid.UUID, username string) error {
	if username == "" {
		return apperr.Conflict("username must not be empty")
	}
	if existing, err := s.reg.TraderByUsername(ctx, username); err == nil {
		if existing.ID != traderID {
			return apperr.Conflict("username already taken")
		}
	} else if !apperr.IsNotFound(err) {
		return err
	}
	trader, err := s.reg.Trader(ctx, traderID)
	if err != nil {
		return err
	}
	trader.Username = username
	return s.reg.SaveTrader(ctx, trader)
}

func (s *service) ChangePassword(ctx context.Context, traderID uuid.UUID, password string) error {
	if err := checkPasswordPolicy(password); err != nil {
		return err
	}
	trader, err := s.reg.Trader(ctx, traderID)
	if err != nil {
		return err
	}
	passwordHash, salt, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	trader.PasswordHash = passwordHash
	trader.Salt = salt
	return s.reg.SaveTrader(ctx, trader)
}

func (s *service) SetTradeLimit(ctx context.Context, traderID uuid.UUID, limit int) error {
	trader, err := s.reg.Trader(ctx, traderID)
	if err != nil {
		return err
	}
	trader.TradeLimit = limit
	return s.reg.SaveTrader(ctx, trader)
}

func (s *service) SetIncompleteTradeLimit(ctx context.Context, traderID uuid.UUID, limit int) error {
	trader, err := s.reg.Trader(ctx, traderID)
	if err != nil {
		return err
	}
	trader.IncompleteTradeLimit = limit
	return s.reg.SaveTrader(ctx, trader)
}

func (s *service) SetMinimumToBorrow(ctx context.Context, traderID uuid.UUID, minimum int) error {
	trader, err := s.reg.Trader(ctx, traderID)
	if err != nil {
		return err
	}
	trader.MinimumToBorrow = minimum
	return s.reg.SaveTrader(ctx, trader)
}

// ResetTradeCounts zeroes every trader's weekly trade count. Traders
// already at zero are left untouched, so running the sweep twice on one
// boundary changes nothing.
func (s *service) ResetTradeCounts(ctx context.Context) error {
	ids, err := s.reg.TraderIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		trader, err := s.reg.Trader(ctx, id)
		if err != nil {
			log.Printf("trade count reset: load trader %s: %v", id, err)
			continue
		}
		if trader.TradeCount == 0 {
			continue
		}
		trader.TradeCount = 0
		if err := s.reg.SaveTrader(ctx, trader); err != nil {
			log.Printf("trade count reset: save trader %s: %v", id, err)
		}
	}
	return nil
}

// SearchTraders returns traders whose username contains the query,
// case-insensitively.
func (s *service) SearchTraders(ctx context.Context, query string) ([]*models.Trader, error) {
	ids, err := s.reg.TraderIDs(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(query)
	var matches []*models.Trader
	for _, id := range ids {
		trader, err := s.reg.Trader(ctx, id)
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(trader.Username), query) {
			matches = append(matches, trader)
		}
	}
	return matches, nil
}

// ItemsWithName returns items whose name contains the query,
// case-insensitively.
func (s *service) ItemsWithName(ctx context.Context, query string) ([]*models.TradableItem, error) {
	ids, err := s.reg.ItemIDs(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(query)
	var matches []*models.TradableItem
	for _, id := range ids {
		item, err := s.reg.Item(ctx, id)
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(item.Name), query) {
			matches = append(matches, item)
		}
	}
	return matches, nil
}
