package service

import (
	"math"

	"github.com/forkmarkets/relayd/internal/domain"
)

// round6 rounds to 6 decimal places, the ledger's money precision.
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// ComputeFeeSplit derives the fee breakdown for one order. The affiliate
// share is rounded first and the fork fee is the remainder, so the two legs
// always sum back to the total at 6 decimal places. Without an attributed
// affiliate the whole fee goes to the fork side.
func ComputeFeeSplit(amount float64, tradeFeeBps, affiliateShareBps int, hasAffiliate bool) domain.FeeSplit {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) || tradeFeeBps <= 0 {
		return domain.FeeSplit{}
	}

	total := round6(amount * float64(tradeFeeBps) / 10_000)

	var affiliateFee float64
	if hasAffiliate && affiliateShareBps > 0 {
		affiliateFee = round6(total * float64(affiliateShareBps) / 10_000)
		if affiliateFee > total {
			affiliateFee = total
		}
	}

	forkFee := round6(total - affiliateFee)
	if forkFee < 0 {
		forkFee = 0
	}

	return domain.FeeSplit{
		TotalFee:     total,
		ForkFee:      forkFee,
		AffiliateFee: affiliateFee,
	}
}
