// Package registry provides typed access to the record store: JSON
// snapshots in, entities out, with store misses mapped into the shared
// error taxonomy.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tradenexus/internal/apperr"
	"tradenexus/internal/models"
	"tradenexus/internal/store"
)

// Registry wraps a Store with per-kind entity marshalling.
type Registry struct {
	store store.Store
}

// New creates a registry over the given store.
func New(s store.Store) *Registry {
	return &Registry{store: s}
}

// Trader loads a trader snapshot.
func (r *Registry) Trader(ctx context.Context, id uuid.UUID) (*models.Trader, error) {
	snapshot, err := r.store.Get(ctx, store.KindTrader, id.String())
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.TraderNotFound(id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("load trader: %w", err)
	}
	trader := &models.Trader{}
	if err := json.Unmarshal(snapshot, trader); err != nil {
		return nil, fmt.Errorf("decode trader snapshot: %w", err)
	}
	return trader, nil
}

// SaveTrader overwrites a trader snapshot.
func (r *Registry) SaveTrader(ctx context.Context, trader *models.Trader) error {
	snapshot, err := json.Marshal(trader)
	if err != nil {
		return fmt.Errorf("encode trader snapshot: %w", err)
	}
	if _, err := r.store.Upsert(ctx, store.KindTrader, trader.ID.String(), snapshot); err != nil {
		return fmt.Errorf("save trader: %w", err)
	}
	return nil
}

// Item loads a tradable item snapshot.
func (r *Registry) Item(ctx context.Context, id uuid.UUID) (*models.TradableItem, error) {
	snapshot, err := r.store.Get(ctx, store.KindTradableItem, id.String())
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.ItemNotFound(id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("load item: %w", err)
	}
	item := &models.TradableItem{}
	if err := json.Unmarshal(snapshot, item); err != nil {
		return nil, fmt.Errorf("decode item snapshot: %w", err)
	}
	return item, nil
}

// SaveItem overwrites a tradable item snapshot.
func (r *Registry) SaveItem(ctx context.Context, item *models.TradableItem) error {
	snapshot, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode item snapshot: %w", err)
	}
	if _, err := r.store.Upsert(ctx, store.KindTradableItem, item.ID.String(), snapshot); err != nil {
		return fmt.Errorf("save item: %w", err)
	}
	return nil
}

// DeleteItem removes a tradable item record.
func (r *Registry) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if err := r.store.Delete(ctx, store.KindTradableItem, id.String()); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// Trade loads a trade snapshot.
func (r *Registry) Trade(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	snapshot, err := r.store.Get(ctx, store.KindTrade, id.String())
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.TradeNotFound(id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("load trade: %w", err)
	}
	trade := &models.Trade{}
	if err := json.Unmarshal(snapshot, trade); err != nil {
		return nil, fmt.Errorf("decode trade snapshot: %w", err)
	}
	return trade, nil
}

// SaveTrade overwrites a trade snapshot.
func (r *Registry) SaveTrade(ctx context.Context, trade *models.Trade) error {
	snapshot, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("encode trade snapshot: %w", err)
	}
	if _, err := r.store.Upsert(ctx, store.KindTrade, trade.ID.String(), snapshot); err != nil {
		return fmt.Errorf("save trade: %w", err)
	}
	return nil
}

// DeleteTrade removes a trade record.
func (r *Registry) DeleteTrade(ctx context.Context, id uuid.UUID) error {
	if err := r.store.Delete(ctx, store.KindTrade, id.String()); err != nil {
		return fmt.Errorf("delete trade: %w", err)
	}
	return nil
}

// TraderIDs enumerates every trader id in the store. Snapshot ids that do
// not parse as UUIDs are skipped.
func (r *Registry) TraderIDs(ctx context.Context) ([]uuid.UUID, error) {
	raw, err := r.store.ListIDs(ctx, store.KindTrader)
	if err != nil {
		return nil, fmt.Errorf("list trader ids: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ItemIDs enumerates every tradable item id in the store.
func (r *Registry) ItemIDs(ctx context.Context) ([]uuid.UUID, error) {
	raw, err := r.store.ListIDs(ctx, store.KindTradableItem)
	if err != nil {
		return nil, fmt.Errorf("list item ids: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// TraderByUsername scans all traders for an exact username match.
func (r *Registry) TraderByUsername(ctx context.Context, username string) (*models.Trader, error) {
	ids, err := r.TraderIDs(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		trader, err := r.Trader(ctx, id)
		if err != nil {
			continue
		}
		if trader.Username == username {
			return trader, nil
		}
	}
	return nil, apperr.TraderNotFound("")
}
