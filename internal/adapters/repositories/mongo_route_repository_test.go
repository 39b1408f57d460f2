package repositories

import (
	"context"
	"os"
	"testing"
	"time"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a live server when TEST_MONGO_URI is set.
func TestMongoRouteRepository(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbName := "trip_test_" + uuid.NewString()[:8]
	client, repo, err := OpenMongo(ctx, uri, dbName)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Database(dbName).Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	base := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	require.NoError(t, repo.AppendHistory(ctx, historyEntry("h1", base, "Home", "Bakery")))
	require.NoError(t, repo.AppendHistory(ctx, historyEntry("h2", base.Add(time.Hour), "Home")))

	list, err := repo.ListHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "h2", list[0].ID)

	got, err := repo.GetHistory(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "Bakery", got.Stops[1].Stop.Name)

	require.NoError(t, repo.RecordDailyStats(ctx, "2026-03-14", 1, 60))
	require.NoError(t, repo.RecordDailyStats(ctx, "2026-03-14", 2, 120))
	st, err := repo.GetStats(ctx, "2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, 2, st.RoutesCompleted)
	assert.InDelta(t, 3.0, st.TotalDistanceKm, 1e-9)

	b := domain.RouteBookmark{Name: "errands", CreatedAt: base, Stops: []domain.Stop{{ID: "s1", Name: "Shop"}}}
	require.NoError(t, repo.SaveBookmark(ctx, b))
	assert.ErrorIs(t, repo.SaveBookmark(ctx, b), ports.ErrBookmarkExists)
	require.NoError(t, repo.DeleteBookmark(ctx, "errands"))
	_, err = repo.GetBookmark(ctx, "errands")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}
