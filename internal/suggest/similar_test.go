package suggest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradenexus/internal/registry"
	"tradenexus/internal/store"
)

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate string
		score     int
	}{
		{"identical", "apple", "apple", 5},
		{"one inserted character", "apple", "appxle", 4},
		{"unrelated", "apple", "banana", 1},
		{"case folded", "Apple", "APPLE", 5},
		{"best word pair wins", "wool scarf", "wool blanket", 4},
		{"single character", "a", "ab", 1},
		{"empty candidate", "apple", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			longest := 0
			assert.Equal(t, tt.score, nameSimilarity(tt.query, tt.candidate, &longest))
		})
	}
}

func TestNameSimilarityTracksLongestWord(t *testing.T) {
	longest := 0
	nameSimilarity("apple", "appxle", &longest)
	assert.Equal(t, 6, longest)

	nameSimilarity("hat", "cap", &longest)
	assert.Equal(t, 6, longest, "a shorter pair does not shrink the running maximum")
}

func TestBestSimilarPicksClosestName(t *testing.T) {
	ctx := context.Background()
	reg := registry.New(store.NewMemStore())

	apple := seedItem(t, reg, "apple")
	appxle := seedItem(t, reg, "appxle")
	banana := seedItem(t, reg, "banana")

	s := NewSimilar(reg)
	id, score, err := s.bestSimilar(ctx, apple, []uuid.UUID{appxle, banana})
	require.NoError(t, err)
	assert.Equal(t, appxle, id)
	assert.Equal(t, 4, score)
}

func TestBestSimilarRejectsBelowThreshold(t *testing.T) {
	ctx := context.Background()
	reg := registry.New(store.NewMemStore())

	apple := seedItem(t, reg, "apple")
	banana := seedItem(t, reg, "banana")

	s := NewSimilar(reg)
	id, score, err := s.bestSimilar(ctx, apple, []uuid.UUID{banana})
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, id)
	assert.Zero(t, score)
}

func TestBestSimilarSkipsMissingAndIdentical(t *testing.T) {
	ctx := context.Background()
	reg := registry.New(store.NewMemStore())

	apple := seedItem(t, reg, "apple")

	s := NewSimilar(reg)
	// The query item itself and a deleted record are not candidates.
	id, _, err := s.bestSimilar(ctx, apple, []uuid.UUID{apple, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, id)
}

func TestSimilarSuggestLend(t *testing.T) {
	ctx := context.Background()
	reg := registry.New(store.NewMemStore())

	apple := seedItem(t, reg, "apple")
	appxle := seedItem(t, reg, "appxle")

	alice := seedTrader(t, reg, "alice", "oslo")
	alice.AvailableItems = []uuid.UUID{apple}
	save(t, reg, alice)

	bob := seedTrader(t, reg, "bob", "oslo")
	bob.Wishlist = []uuid.UUID{appxle}
	save(t, reg, bob)

	s, err := NewSimilar(reg).SuggestLend(ctx, alice.ID, false)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, bob.ID, s.ReceiverID)
	assert.Equal(t, apple, s.ItemID)
}

func TestSimilarSuggestLendNoMatch(t *testing.T) {
	ctx := context.Background()
	reg := registry.New(store.NewMemStore())

	apple := seedItem(t, reg, "apple")
	banana := seedItem(t, reg, "banana")

	alice := seedTrader(t, reg, "alice", "oslo")
	alice.AvailableItems = []uuid.UUID{apple}
	save(t, reg, alice)

	bob := seedTrader(t, reg, "bob", "oslo")
	bob.Wishlist = []uuid.UUID{banana}
	save(t, reg, bob)

	s, err := NewSimilar(reg).SuggestLend(ctx, alice.ID, false)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSimilarSuggestTrade(t *testing.T) {
	ctx := context.Background()
	reg := registry.New(store.NewMemStore())

	apple := seedItem(t, reg, "apple")
	appxle := seedItem(t, reg, "appxle")
	scarf := seedItem(t, reg, "wool scarf")
	scxarf := seedItem(t, reg, "wool scxarf")

	alice := seedTrader(t, reg, "alice", "oslo")
	alice.AvailableItems = []uuid.UUID{apple}
	alice.Wishlist = []uuid.UUID{scarf}
	save(t, reg, alice)

	bob := seedTrader(t, reg, "bob", "oslo")
	bob.AvailableItems = []uuid.UUID{scxarf}
	bob.Wishlist = []uuid.UUID{appxle}
	save(t, reg, bob)

	s, err := NewSimilar(reg).SuggestTrade(ctx, alice.ID, false)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, bob.ID, s.PartnerID)
	assert.Equal(t, apple, s.GiveItemID)
	assert.Equal(t, scxarf, s.ReceiveItemID)
}
