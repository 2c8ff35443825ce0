package business

import (
	"errors"
	"testing"

	"settlecontrol/internal/models"
	dbconfig "settlecontrol/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referredPair sets up A inviting B, a generated period where B earned
// 1000, and an open payment window. A holds 200 locked commission coins.
func referredPair(t *testing.T) (periodID uint, a, b *models.User) {
	t.Helper()
	setupTestDB(t)
	a = createTestUser(t, "a")
	b = createTestUser(t, "b")
	_, err := BindReferral(b.ID, a.ID)
	require.NoError(t, err)

	period := createTestPeriod(t)
	addEarning(t, b.ID, "2026-08-02", 1000)
	advanceToGenerated(t, period.ID)
	_, err = OpenPaymentWindow(period.ID)
	require.NoError(t, err)
	return period.ID, a, b
}

func TestSubmitObligationProof(t *testing.T) {
	t.Run("records the voucher", func(t *testing.T) {
		periodID, _, b := referredPair(t)

		ob, err := SubmitObligationProof(periodID, b.ID, "https://pay.example/v1", "bank transfer")
		require.NoError(t, err)
		assert.Equal(t, models.ObligationStatusProofSubmitted, ob.Status)
		assert.Equal(t, "https://pay.example/v1", ob.ProofURL)
		require.NotNil(t, ob.SubmittedAt)
	})

	t.Run("requires the payment window", func(t *testing.T) {
		setupTestDB(t)
		u := createTestUser(t, "u")
		period := createTestPeriod(t)
		addEarning(t, u.ID, "2026-08-02", 1000)
		advanceToGenerated(t, period.ID)

		_, err := SubmitObligationProof(period.ID, u.ID, "https://pay.example/v1", "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidStateTransition))
	})

	t.Run("resubmission allowed after rejection", func(t *testing.T) {
		periodID, _, b := referredPair(t)
		admin := createTestAdmin(t)

		_, err := SubmitObligationProof(periodID, b.ID, "https://pay.example/v1", "")
		require.NoError(t, err)
		_, err = RejectObligation(periodID, b.ID, admin.ID, "screenshot unreadable")
		require.NoError(t, err)

		ob, err := SubmitObligationProof(periodID, b.ID, "https://pay.example/v2", "")
		require.NoError(t, err)
		assert.Equal(t, "https://pay.example/v2", ob.ProofURL)
	})
}

func TestConfirmObligation(t *testing.T) {
	t.Run("unlocks commissions coin for coin", func(t *testing.T) {
		periodID, a, b := referredPair(t)
		admin := createTestAdmin(t)

		before := walletOf(t, a.ID)
		assert.Equal(t, int64(200), before.LockedCoins)
		assert.Equal(t, int64(0), before.AvailableCoins)

		_, err := SubmitObligationProof(periodID, b.ID, "https://pay.example/v1", "")
		require.NoError(t, err)

		result, err := ConfirmObligation(periodID, b.ID, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, result.EntryCount)
		assert.Equal(t, int64(200), result.UnlockedCoins)

		after := walletOf(t, a.ID)
		assert.Equal(t, int64(200), after.AvailableCoins)
		assert.Equal(t, int64(0), after.LockedCoins)
		assert.Equal(t, before.AvailableCoins+before.LockedCoins,
			after.AvailableCoins+after.LockedCoins, "unlock moves, never mints")

		var entry models.CommissionEntry
		require.NoError(t, dbconfig.DB.Where("period_id = ? AND beneficiary_id = ?", periodID, a.ID).
			First(&entry).Error)
		assert.Equal(t, models.CommissionStateAvailable, entry.State)
		require.NotNil(t, entry.UnlockedAt)
	})

	t.Run("second confirmation is rejected", func(t *testing.T) {
		periodID, a, b := referredPair(t)
		admin := createTestAdmin(t)

		_, err := SubmitObligationProof(periodID, b.ID, "https://pay.example/v1", "")
		require.NoError(t, err)
		_, err = ConfirmObligation(periodID, b.ID, admin.ID)
		require.NoError(t, err)

		_, err = ConfirmObligation(periodID, b.ID, admin.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDuplicateOperation))
		assert.Equal(t, int64(200), walletOf(t, a.ID).AvailableCoins, "no double unlock")
	})

	t.Run("confirmation without proof is rejected", func(t *testing.T) {
		periodID, _, b := referredPair(t)
		admin := createTestAdmin(t)

		_, err := ConfirmObligation(periodID, b.ID, admin.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidStateTransition))
	})
}

func TestRejectObligation(t *testing.T) {
	t.Run("keeps commissions locked", func(t *testing.T) {
		periodID, a, b := referredPair(t)
		admin := createTestAdmin(t)

		_, err := SubmitObligationProof(periodID, b.ID, "https://pay.example/v1", "")
		require.NoError(t, err)

		ob, err := RejectObligation(periodID, b.ID, admin.ID, "amount mismatch")
		require.NoError(t, err)
		assert.Equal(t, models.ObligationStatusRejected, ob.Status)
		assert.Equal(t, "amount mismatch", ob.RejectReason)

		wallet := walletOf(t, a.ID)
		assert.Equal(t, int64(0), wallet.AvailableCoins)
		assert.Equal(t, int64(200), wallet.LockedCoins)
	})

	t.Run("cannot reject a confirmed obligation", func(t *testing.T) {
		periodID, _, b := referredPair(t)
		admin := createTestAdmin(t)

		_, err := SubmitObligationProof(periodID, b.ID, "https://pay.example/v1", "")
		require.NoError(t, err)
		_, err = ConfirmObligation(periodID, b.ID, admin.ID)
		require.NoError(t, err)

		_, err = RejectObligation(periodID, b.ID, admin.ID, "too late")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidStateTransition))
	})
}
