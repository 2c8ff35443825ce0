package business

import (
	"errors"
	"testing"

	"settlecontrol/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotPeriod(t *testing.T) {
	t.Run("copies the live graph including empty rows", func(t *testing.T) {
		setupTestDB(t)
		a := createTestUser(t, "a")
		b := createTestUser(t, "b")
		c := createTestUser(t, "c")
		_, err := BindReferral(b.ID, a.ID)
		require.NoError(t, err)
		_, err = BindReferral(c.ID, b.ID)
		require.NoError(t, err)

		period := createTestPeriod(t)
		_, err = ClosePeriod(period.ID)
		require.NoError(t, err)

		snapshots, err := SnapshotPeriod(period.ID)
		require.NoError(t, err)
		require.Len(t, snapshots, 3)

		byUser := make(map[uint]models.ReferralSnapshot)
		for _, s := range snapshots {
			byUser[s.UserID] = s
		}
		assert.Nil(t, byUser[a.ID].InviterLevel1)
		require.NotNil(t, byUser[b.ID].InviterLevel1)
		assert.Equal(t, a.ID, *byUser[b.ID].InviterLevel1)
		require.NotNil(t, byUser[c.ID].InviterLevel1)
		assert.Equal(t, b.ID, *byUser[c.ID].InviterLevel1)
		require.NotNil(t, byUser[c.ID].InviterLevel2)
		assert.Equal(t, a.ID, *byUser[c.ID].InviterLevel2)

		p, err := GetPeriod(period.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PeriodStatusSnapshotted, p.Status)
	})

	t.Run("requires a closed period", func(t *testing.T) {
		setupTestDB(t)
		createTestUser(t, "a")
		period := createTestPeriod(t)

		_, err := SnapshotPeriod(period.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidStateTransition))
	})

	t.Run("re-invocation returns existing rows unchanged", func(t *testing.T) {
		setupTestDB(t)
		createTestUser(t, "a")
		period := createTestPeriod(t)
		_, err := ClosePeriod(period.ID)
		require.NoError(t, err)

		first, err := SnapshotPeriod(period.ID)
		require.NoError(t, err)

		again, err := SnapshotPeriod(period.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDuplicateOperation))
		assert.Len(t, again, len(first))
	})

	t.Run("later rebinding does not leak into the snapshot", func(t *testing.T) {
		setupTestDB(t)
		a := createTestUser(t, "a")
		b := createTestUser(t, "b")
		newcomer := createTestUser(t, "late")
		_, err := BindReferral(b.ID, a.ID)
		require.NoError(t, err)

		period := createTestPeriod(t)
		_, err = ClosePeriod(period.ID)
		require.NoError(t, err)
		_, err = SnapshotPeriod(period.ID)
		require.NoError(t, err)

		// A relation written after the freeze must not appear.
		_, err = BindReferral(newcomer.ID, b.ID)
		require.NoError(t, err)

		snapshots, err := PeriodSnapshots(period.ID)
		require.NoError(t, err)
		for _, s := range snapshots {
			if s.UserID == newcomer.ID {
				assert.Nil(t, s.InviterLevel1)
				assert.Nil(t, s.InviterLevel2)
			}
		}
	})
}
