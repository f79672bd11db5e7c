package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/callegarimattia/battleship-core/internal/events"
	"github.com/callegarimattia/battleship-core/internal/model"
	"github.com/callegarimattia/battleship-core/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameStore_CreateAndGet(t *testing.T) {
	t.Parallel()

	s := store.NewGameStore()
	ctx := context.Background()
	game := model.NewGame("g1", model.DefaultConfiguration())

	require.NoError(t, s.Create(ctx, game))

	got, err := s.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Same(t, game, got)

	require.Error(t, s.Create(ctx, game), "creating the same code twice should fail")

	_, err = s.Get(ctx, "missing")
	assert.Error(t, err)
}

func TestGameStore_WithLock_SerializesConcurrentMutations(t *testing.T) {
	t.Parallel()

	s := store.NewGameStore()
	ctx := context.Background()
	game := model.NewGame("g1", model.DefaultConfiguration())
	require.NoError(t, s.Create(ctx, game))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.WithLock(ctx, "g1", func(g *model.Game) ([]events.Event, error) {
				g.Messages = append(g.Messages, model.ChatMessage{Text: "x"})
				return nil, nil
			})
		}()
	}
	wg.Wait()

	snap, err := s.Snapshot(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, snap.Messages, 50, "every concurrent WithLock call should have applied exactly once")
}

func TestGameStore_WithLock_UnknownGame(t *testing.T) {
	t.Parallel()

	s := store.NewGameStore()
	_, err := s.WithLock(context.Background(), "missing", func(g *model.Game) ([]events.Event, error) {
		return nil, nil
	})
	assert.Error(t, err)
}
