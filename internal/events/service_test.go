package events

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gatepasshq/gatepass-backend/internal/tickets"
	"github.com/gatepasshq/gatepass-backend/pkg/db/models"
	"github.com/gatepasshq/gatepass-backend/pkg/enums"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/logger"
	"github.com/gatepasshq/gatepass-backend/pkg/pagination"
	"github.com/gatepasshq/gatepass-backend/pkg/types"
)

type memoryViewCache struct {
	values map[string]string
	sets   int
}

func newMemoryViewCache() *memoryViewCache {
	return &memoryViewCache{values: map[string]string{}}
}

func (c *memoryViewCache) Get(_ context.Context, key string) (string, error) {
	return c.values[key], nil
}

func (c *memoryViewCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.sets++
	c.values[key] = value.(string)
	return nil
}

func (c *memoryViewCache) EventViewKey(eventID string) string { return "view:event:" + eventID }

func setupEventsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	usersTable := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  external_id TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  image_url TEXT,
  role TEXT NOT NULL DEFAULT 'user',
  created_at DATETIME,
  updated_at DATETIME
);`
	eventsTable := `
CREATE TABLE IF NOT EXISTS events (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  location TEXT NOT NULL,
  start_date DATETIME NOT NULL,
  end_date DATETIME NOT NULL,
  image_urls TEXT,
  tiers TEXT,
  is_published INTEGER NOT NULL DEFAULT 0,
  category TEXT NOT NULL,
  organizer_id TEXT NOT NULL,
  external_organizer_id TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	ticketsTable := `
CREATE TABLE IF NOT EXISTS tickets (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  external_user_id TEXT NOT NULL,
  tier_id TEXT NOT NULL,
  tier_name TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  amount NUMERIC NOT NULL DEFAULT 0,
  payment_id TEXT,
  purchase_date DATETIME,
  is_scanned INTEGER NOT NULL DEFAULT 0,
  scanned_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(usersTable).Error)
	require.NoError(t, db.Exec(eventsTable).Error)
	require.NoError(t, db.Exec(ticketsTable).Error)
	return db
}

func seedEventWithSales(t *testing.T, db *gorm.DB) *models.Event {
	t.Helper()

	organizer := &models.User{
		ID:         uuid.New(),
		ExternalID: "org_view",
		Email:      "organizer@example.com",
		Name:       "Organizer",
	}
	require.NoError(t, db.Create(organizer).Error)

	event := &models.Event{
		ID:          uuid.New(),
		Title:       "Summer Fest",
		Description: "Music all day",
		Location:    "Riverside Park",
		StartDate:   time.Now().Add(48 * time.Hour),
		EndDate:     time.Now().Add(56 * time.Hour),
		Tiers: types.EventTiers{
			{ID: "ga", Name: "General Admission", Price: decimal.NewFromInt(25), Capacity: 2},
			{ID: "vip", Name: "VIP", Price: decimal.NewFromInt(90), Capacity: 0},
		},
		IsPublished:         true,
		Category:            "music",
		OrganizerID:         organizer.ID,
		ExternalOrganizerID: organizer.ExternalID,
	}
	require.NoError(t, db.Create(event).Error)

	buyer := &models.User{
		ID:         uuid.New(),
		ExternalID: "ext_buyer",
		Email:      "buyer@example.com",
		Name:       "Buyer",
	}
	require.NoError(t, db.Create(buyer).Error)

	ticket := &models.Ticket{
		ID:             uuid.New(),
		EventID:        event.ID,
		UserID:         buyer.ID,
		ExternalUserID: buyer.ExternalID,
		TierID:         "ga",
		TierName:       "General Admission",
		Status:         enums.TicketStatusActive,
		Amount:         decimal.NewFromInt(25),
		PurchaseDate:   time.Now().UTC(),
	}
	require.NoError(t, db.Create(ticket).Error)
	return event
}

func newEventsService(t *testing.T, db *gorm.DB, cache ViewCache) *Service {
	t.Helper()

	return NewService(
		NewRepository(db),
		tickets.NewRepository(db),
		cache,
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	)
}

func TestGetView_ComputesAvailability(t *testing.T) {
	db := setupEventsTestDB(t)
	svc := newEventsService(t, db, newMemoryViewCache())
	event := seedEventWithSales(t, db)

	view, err := svc.GetView(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Summer Fest", view.Title)
	require.Len(t, view.Tiers, 2)

	ga := view.Tiers[0]
	assert.Equal(t, "ga", ga.ID)
	assert.Equal(t, int64(1), ga.Sold)
	require.NotNil(t, ga.Remaining)
	assert.Equal(t, int64(1), *ga.Remaining)

	// Uncapped tiers report no remaining figure.
	vip := view.Tiers[1]
	assert.Nil(t, vip.Remaining)
}

func TestGetView_ServesFromCache(t *testing.T) {
	db := setupEventsTestDB(t)
	cache := newMemoryViewCache()
	svc := newEventsService(t, db, cache)
	event := seedEventWithSales(t, db)
	ctx := context.Background()

	first, err := svc.GetView(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	require.NoError(t, db.Exec("DELETE FROM events").Error)

	second, err := svc.GetView(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, 1, cache.sets)
}

func TestGetView_UnknownEvent(t *testing.T) {
	db := setupEventsTestDB(t)
	svc := newEventsService(t, db, newMemoryViewCache())

	_, err := svc.GetView(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func seedCatalog(t *testing.T, db *gorm.DB) []*models.Event {
	t.Helper()

	organizer := &models.User{
		ID:         uuid.New(),
		ExternalID: "org_catalog",
		Email:      "catalog@example.com",
		Name:       "Organizer",
	}
	require.NoError(t, db.Create(organizer).Error)

	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	published := []*models.Event{}
	for i, title := range []string{"First", "Second", "Third"} {
		event := &models.Event{
			ID:                  uuid.New(),
			Title:               title,
			Description:         "desc",
			Location:            "Hall " + title,
			StartDate:           base.AddDate(0, 1, i),
			EndDate:             base.AddDate(0, 1, i+1),
			IsPublished:         true,
			Category:            "music",
			OrganizerID:         organizer.ID,
			ExternalOrganizerID: organizer.ExternalID,
			CreatedAt:           base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, db.Create(event).Error)
		published = append(published, event)
	}

	draft := &models.Event{
		ID:                  uuid.New(),
		Title:               "Draft",
		Description:         "desc",
		Location:            "Backstage",
		StartDate:           base,
		EndDate:             base.Add(time.Hour),
		IsPublished:         false,
		Category:            "music",
		OrganizerID:         organizer.ID,
		ExternalOrganizerID: organizer.ExternalID,
		CreatedAt:           base.Add(10 * time.Hour),
	}
	require.NoError(t, db.Create(draft).Error)
	return published
}

func TestListPublished_PagesNewestFirst(t *testing.T) {
	db := setupEventsTestDB(t)
	svc := newEventsService(t, db, newMemoryViewCache())
	seedCatalog(t, db)
	ctx := context.Background()

	first, err := svc.ListPublished(ctx, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, "Third", first.Items[0].Title)
	assert.Equal(t, "Second", first.Items[1].Title)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListPublished(ctx, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "First", second.Items[0].Title)
	assert.Empty(t, second.NextCursor)
}

func TestListPublished_ExcludesDrafts(t *testing.T) {
	db := setupEventsTestDB(t)
	svc := newEventsService(t, db, newMemoryViewCache())
	seedCatalog(t, db)

	page, err := svc.ListPublished(context.Background(), pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	for _, item := range page.Items {
		assert.NotEqual(t, "Draft", item.Title)
	}
}

func TestListPublished_InvalidCursor(t *testing.T) {
	db := setupEventsTestDB(t)
	svc := newEventsService(t, db, newMemoryViewCache())

	_, err := svc.ListPublished(context.Background(), pagination.Params{Cursor: "%%%not-base64%%%"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
