package business

import (
	"errors"
	"testing"

	"settlecontrol/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standardPeriod() *models.SettlementPeriod {
	return &models.SettlementPeriod{SelfBps: 6000, L1Bps: 2000, L2Bps: 400, PlatformBps: 1600}
}

func TestBpsShare(t *testing.T) {
	t.Run("truncates toward zero", func(t *testing.T) {
		assert.Equal(t, int64(1), bpsShare(333, 40))   // 1.332
		assert.Equal(t, int64(0), bpsShare(24, 400))   // 0.96
		assert.Equal(t, int64(200), bpsShare(1000, 2000))
	})

	t.Run("exact multiples lose nothing", func(t *testing.T) {
		assert.Equal(t, int64(600), bpsShare(1000, 6000))
		assert.Equal(t, int64(160), bpsShare(1000, 1600))
	})
}

func TestSplitEarnings(t *testing.T) {
	period := standardPeriod()

	t.Run("round gross splits cleanly", func(t *testing.T) {
		s, err := splitEarnings(1000, period)
		require.NoError(t, err)
		assert.Equal(t, int64(600), s.SelfKeep)
		assert.Equal(t, int64(200), s.L1)
		assert.Equal(t, int64(40), s.L2)
		assert.Equal(t, int64(160), s.Platform)
		assert.Equal(t, int64(0), s.Residual)
	})

	t.Run("residual stays under four", func(t *testing.T) {
		for gross := int64(0); gross < 500; gross++ {
			s, err := splitEarnings(gross, period)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, s.Residual, int64(0), "gross %d", gross)
			assert.Less(t, s.Residual, int64(4), "gross %d", gross)
		}
	})

	t.Run("shares plus residual equal gross", func(t *testing.T) {
		for _, gross := range []int64{1, 7, 99, 333, 1234567, 987654321} {
			s, err := splitEarnings(gross, period)
			require.NoError(t, err)
			assert.Equal(t, gross, s.SelfKeep+s.L1+s.L2+s.Platform+s.Residual, "gross %d", gross)
		}
	})

	t.Run("zero gross yields all zero shares", func(t *testing.T) {
		s, err := splitEarnings(0, period)
		require.NoError(t, err)
		assert.Zero(t, s.SelfKeep)
		assert.Zero(t, s.Residual)
	})

	t.Run("broken ratios overflow the residual bound", func(t *testing.T) {
		bad := &models.SettlementPeriod{SelfBps: 100, L1Bps: 100, L2Bps: 100, PlatformBps: 100}
		_, err := splitEarnings(1000, bad)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRoundingResidualOverflow))
	})
}
