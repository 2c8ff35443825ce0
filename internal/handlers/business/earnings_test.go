package business

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestEarnings(t *testing.T) {
	t.Run("inserts new days", func(t *testing.T) {
		setupTestDB(t)
		u := createTestUser(t, "u")

		count, err := IngestEarnings([]EarningInput{
			{UserID: u.ID, StatDate: "2026-08-02", CoinsTotal: 100, CoinsFromBox: 60, CoinsFromLook: 40},
			{UserID: u.ID, StatDate: "2026-08-03", CoinsTotal: 200},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("resending a day replaces it", func(t *testing.T) {
		setupTestDB(t)
		u := createTestUser(t, "u")

		_, err := IngestEarnings([]EarningInput{{UserID: u.ID, StatDate: "2026-08-02", CoinsTotal: 100}})
		require.NoError(t, err)
		_, err = IngestEarnings([]EarningInput{{UserID: u.ID, StatDate: "2026-08-02", CoinsTotal: 150}})
		require.NoError(t, err)

		from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		stats, err := UserEarningStats(u.ID, from, from.AddDate(0, 0, 7))
		require.NoError(t, err)
		assert.Equal(t, int64(150), stats.CoinsTotal)
		assert.Equal(t, 1, stats.Days)
	})

	t.Run("separate env rows accumulate", func(t *testing.T) {
		setupTestDB(t)
		u := createTestUser(t, "u")

		_, err := IngestEarnings([]EarningInput{
			{UserID: u.ID, EnvID: 1, StatDate: "2026-08-02", CoinsTotal: 100},
			{UserID: u.ID, EnvID: 2, StatDate: "2026-08-02", CoinsTotal: 50},
		})
		require.NoError(t, err)

		from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		stats, err := UserEarningStats(u.ID, from, from.AddDate(0, 0, 7))
		require.NoError(t, err)
		assert.Equal(t, int64(150), stats.CoinsTotal)
	})

	t.Run("rejects negative totals and bad dates", func(t *testing.T) {
		setupTestDB(t)
		u := createTestUser(t, "u")

		_, err := IngestEarnings([]EarningInput{{UserID: u.ID, StatDate: "2026-08-02", CoinsTotal: -1}})
		require.Error(t, err)
		_, err = IngestEarnings([]EarningInput{{UserID: u.ID, StatDate: "not-a-date", CoinsTotal: 1}})
		require.Error(t, err)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		setupTestDB(t)
		count, err := IngestEarnings(nil)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestUserEarnings(t *testing.T) {
	setupTestDB(t)
	u := createTestUser(t, "u")
	addEarning(t, u.ID, "2026-08-02", 100)
	addEarning(t, u.ID, "2026-08-04", 300)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	records, err := UserEarnings(u.ID, from, from.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(300), records[0].CoinsTotal, "newest first")
}
