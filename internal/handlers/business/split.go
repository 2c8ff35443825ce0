package business

import (
	"fmt"

	"settlecontrol/internal/models"
)

// bpsShare computes amount*bps/10000, truncated. All splitting in the
// service goes through this so rounding behaves the same everywhere.
func bpsShare(amount int64, bps int) int64 {
	return amount * int64(bps) / 10000
}

// earningsSplit is the truncated four-way split of one user's gross period
// earnings. Residual is what truncation left over; it is folded into the
// payer's obligation so no coin leaks.
type earningsSplit struct {
	SelfKeep int64
	L1       int64
	L2       int64
	Platform int64
	Residual int64
}

// splitEarnings splits gross by the period's bps ratios. The residual bound
// is structural: four truncations can each lose less than one coin, so a
// residual of 4 or more means the ratios or the math are broken.
func splitEarnings(gross int64, p *models.SettlementPeriod) (earningsSplit, error) {
	s := earningsSplit{
		SelfKeep: bpsShare(gross, p.SelfBps),
		L1:       bpsShare(gross, p.L1Bps),
		L2:       bpsShare(gross, p.L2Bps),
		Platform: bpsShare(gross, p.PlatformBps),
	}
	s.Residual = gross - s.SelfKeep - s.L1 - s.L2 - s.Platform
	if s.Residual < 0 || s.Residual >= 4 {
		return s, fmt.Errorf("%w: gross=%d residual=%d", ErrRoundingResidualOverflow, gross, s.Residual)
	}
	return s, nil
}
