// internal/traders/service.go
package traders

import (
	"context"

	"github.com/google/uuid"

	"tradenexus/internal/models"
)

// Service defines the interface for the trader account service.
type Service interface {
	// Register creates a trader account. Usernames are unique and the
	// password must satisfy the account password rules.
	Register(ctx context.Context, username, password, city string) (*models.Trader, error)
	// Authenticate verifies a trader's credentials.
	Authenticate(ctx context.Context, username, password string) (*models.Trader, error)
	GetTrader(ctx context.Context, id uuid.UUID) (*models.Trader, error)

	// AddToWishlist records interest in an existing item. Frozen traders
	// cannot change their wishlist.
	AddToWishlist(ctx context.Context, traderID, itemID uuid.UUID) error
	RemoveFromWishlist(ctx context.Context, traderID, itemID uuid.UUID) error
	// RemoveFromInventory takes an item out of the trader's available
	// inventory and sweeps requests and wishlists that referenced it.
	RemoveFromInventory(ctx context.Context, traderID, itemID uuid.UUID) error
	// RemoveInvalidWishlistItems drops wishlist entries whose item record
	// no longer exists. Best effort.
	RemoveInvalidWishlistItems(ctx context.Context) error

	// RequestItem creates an item pending admin approval and queues it on
	// the trader. Only approved items become available for trade.
	RequestItem(ctx context.Context, traderID uuid.UUID, name, description string) (*models.TradableItem, error)
	// ProcessItemRequest approves or rejects a queued item. Rejection
	// deletes the item record.
	ProcessItemRequest(ctx context.Context, traderID, itemID uuid.UUID, accept bool) error
	AcceptAllItemRequests(ctx context.Context) error
	// AllItemRequests lists pending item ids per requesting trader.
	AllItemRequests(ctx context.Context) (map[uuid.UUID][]uuid.UUID, error)

	RequestUnfreeze(ctx context.Context, traderID uuid.UUID) error
	SetFrozen(ctx context.Context, traderID uuid.UUID, frozen bool) error
	// ShouldBeFrozen reports whether the trader is over the incomplete
	// trade limit and not yet frozen.
	ShouldBeFrozen(ctx context.Context, traderID uuid.UUID) (bool, error)
	FreezeAllOverLimit(ctx context.Context) error
	UnfreezeAllRequested(ctx context.Context) error

	SetCity(ctx context.Context, traderID uuid.UUID, city string) error
	// SetIdle marks the trader inactive. A trader with accepted trades in
	// flight cannot go idle.
	SetIdle(ctx context.Context, traderID uuid.UUID, idle bool) error
	ChangeUsername(ctx context.Context, traderID uuid.UUID, username string) error
	ChangePassword(ctx context.Context, traderID uuid.UUID, password string) error
	SetTradeLimit(ctx context.Context, traderID uuid.UUID, limit int) error
	SetIncompleteTradeLimit(ctx context.Context, traderID uuid.UUID, limit int) error
	SetMinimumToBorrow(ctx context.Context, traderID uuid.UUID, minimum int) error

	// ResetTradeCounts zeroes every trader's weekly trade count. Safe to
	// run more than once per boundary.
	ResetTradeCounts(ctx context.Context) error

	SearchTraders(ctx context.Context, query string) ([]*models.Trader, error)
	ItemsWithName(ctx context.Context, query string) ([]*models.TradableItem, error)
}
