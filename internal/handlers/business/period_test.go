package business

import (
	"errors"
	"testing"
	"time"

	"settlecontrol/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePeriod(t *testing.T) {
	t.Run("creates an open period", func(t *testing.T) {
		setupTestDB(t)
		period := createTestPeriod(t)
		assert.Equal(t, models.PeriodStatusOpen, period.Status)
	})

	t.Run("identical interval is idempotent", func(t *testing.T) {
		setupTestDB(t)
		first := createTestPeriod(t)

		again, created, err := CreatePeriod(defaultPeriodInput())
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, again.ID)
	})

	t.Run("second active period is rejected", func(t *testing.T) {
		setupTestDB(t)
		createTestPeriod(t)

		in := defaultPeriodInput()
		in.PeriodStart = in.PeriodStart.AddDate(0, 0, 7)
		in.PeriodEnd = in.PeriodEnd.AddDate(0, 0, 7)
		_, _, err := CreatePeriod(in)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidStateTransition))
	})

	t.Run("ratios must sum to 10000", func(t *testing.T) {
		setupTestDB(t)
		in := defaultPeriodInput()
		in.PlatformBps = 1500
		_, _, err := CreatePeriod(in)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidStateTransition))
	})

	t.Run("interval must be ordered", func(t *testing.T) {
		setupTestDB(t)
		in := defaultPeriodInput()
		in.PeriodEnd = in.PeriodStart
		_, _, err := CreatePeriod(in)
		require.Error(t, err)
	})
}

func TestPeriodStateMachine(t *testing.T) {
	t.Run("advances strictly in order", func(t *testing.T) {
		setupTestDB(t)
		u := createTestUser(t, "solo")
		period := createTestPeriod(t)
		addEarning(t, u.ID, "2026-08-02", 1000)

		p, err := ClosePeriod(period.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PeriodStatusClosed, p.Status)

		_, err = SnapshotPeriod(period.ID)
		require.NoError(t, err)

		_, err = GenerateObligations(period.ID)
		require.NoError(t, err)

		p, err = OpenPaymentWindow(period.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PeriodStatusPaymentWindow, p.Status)
	})

	t.Run("cannot skip the snapshot", func(t *testing.T) {
		setupTestDB(t)
		period := createTestPeriod(t)

		_, err := GenerateObligations(period.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSnapshotMissing))
	})

	t.Run("closing twice fails", func(t *testing.T) {
		setupTestDB(t)
		period := createTestPeriod(t)

		_, err := ClosePeriod(period.ID)
		require.NoError(t, err)
		_, err = ClosePeriod(period.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidStateTransition))
	})

	t.Run("payment window requires generated obligations", func(t *testing.T) {
		setupTestDB(t)
		period := createTestPeriod(t)
		_, err := OpenPaymentWindow(period.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidStateTransition))
	})
}

func TestCurrentPeriod(t *testing.T) {
	setupTestDB(t)

	current, err := CurrentPeriod()
	require.NoError(t, err)
	assert.Nil(t, current, "no period yet")

	period := createTestPeriod(t)
	current, err = CurrentPeriod()
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, period.ID, current.ID)
}

func TestReconcilePeriod(t *testing.T) {
	setup := func(t *testing.T) (*models.SettlementPeriod, *models.User) {
		setupTestDB(t)
		u := createTestUser(t, "payer")
		period := createTestPeriod(t)
		addEarning(t, u.ID, "2026-08-02", 1000)
		advanceToGenerated(t, period.ID)
		_, err := OpenPaymentWindow(period.ID)
		require.NoError(t, err)
		return period, u
	}

	t.Run("blocked before deadline with outstanding dues", func(t *testing.T) {
		period, _ := setup(t)

		_, err := ReconcilePeriod(period.ID, period.PayEnd.Add(-time.Hour))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidStateTransition))
	})

	t.Run("passes after deadline and reports unpaid", func(t *testing.T) {
		period, u := setup(t)

		report, err := ReconcilePeriod(period.ID, period.PayEnd.Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, report.DeadlinePassed)
		require.Len(t, report.UnpaidObligations, 1)
		assert.Equal(t, u.ID, report.UnpaidObligations[0].UserID)
		assert.Equal(t, models.PeriodStatusReconciled, report.Period.Status)
	})

	t.Run("passes before deadline once everyone settled", func(t *testing.T) {
		period, u := setup(t)
		admin := createTestAdmin(t)

		_, err := SubmitObligationProof(period.ID, u.ID, "https://pay.example/p1", "")
		require.NoError(t, err)
		_, err = ConfirmObligation(period.ID, u.ID, admin.ID)
		require.NoError(t, err)

		report, err := ReconcilePeriod(period.ID, period.PayEnd.Add(-time.Hour))
		require.NoError(t, err)
		assert.False(t, report.DeadlinePassed)
		assert.Empty(t, report.UnpaidObligations)
	})
}
