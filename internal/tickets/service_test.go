package tickets

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatepasshq/gatepass-backend/pkg/enums"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/logger"
)

type memoryListCache struct {
	values map[string]string
	sets   int
	gets   int
}

func newMemoryListCache() *memoryListCache {
	return &memoryListCache{values: map[string]string{}}
}

func (c *memoryListCache) Get(_ context.Context, key string) (string, error) {
	c.gets++
	return c.values[key], nil
}

func (c *memoryListCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.sets++
	c.values[key] = value.(string)
	return nil
}

func (c *memoryListCache) UserTicketsKey(ext string) string { return "view:tickets:" + ext }

func TestListMine_ReturnsSettledTicketsOnly(t *testing.T) {
	db := setupTicketsTestDB(t)
	cache := newMemoryListCache()
	svc := NewService(NewRepository(db), cache, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	ctx := context.Background()

	active := newTicket(t, db, enums.TicketStatusActive)

	views, err := svc.ListMine(ctx, active.ExternalUserID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, active.ID, views[0].ID)
	assert.Equal(t, enums.TicketStatusActive, views[0].Status)
}

func TestListMine_ServesFromCacheOnRepeat(t *testing.T) {
	db := setupTicketsTestDB(t)
	cache := newMemoryListCache()
	svc := NewService(NewRepository(db), cache, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	ctx := context.Background()

	ticket := newTicket(t, db, enums.TicketStatusActive)

	first, err := svc.ListMine(ctx, ticket.ExternalUserID)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	// Remove the row behind the cache; the cached view must still serve.
	require.NoError(t, db.Exec("DELETE FROM tickets").Error)

	second, err := svc.ListMine(ctx, ticket.ExternalUserID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.sets)
}

func TestListMine_EmptyWallet(t *testing.T) {
	db := setupTicketsTestDB(t)
	svc := NewService(NewRepository(db), newMemoryListCache(), logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))

	views, err := svc.ListMine(context.Background(), "ext_nobody")
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestListMine_RequiresIdentity(t *testing.T) {
	db := setupTicketsTestDB(t)
	svc := NewService(NewRepository(db), nil, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))

	_, err := svc.ListMine(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
