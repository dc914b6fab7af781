// Package report derives the performance summary of a finished run from its
// snapshot and trade ledgers.
package report

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/quantmill/mlbacktest/internal/types"
	"github.com/quantmill/mlbacktest/pkg/errors"
)

// daysPerYear is the annualization basis, calendar days with leap years.
const daysPerYear = 365.25

// Compute builds the report for one run. The final portfolio value is the
// last snapshot's value; end-of-period liquidation executes at that same
// close, so it never changes the total.
func Compute(strategyName string, initialCapital float64, snapshots []types.PortfolioSnapshot, trades []types.Trade) (types.Report, error) {
	if len(snapshots) == 0 {
		return types.Report{}, errors.New(errors.ErrCodeReportNoSnapshots, "no snapshots to report on")
	}

	finalValue := snapshots[len(snapshots)-1].PortfolioValue

	rep := types.Report{
		ID:                  uuid.New().String(),
		Timestamp:           time.Now(),
		StrategyName:        strategyName,
		InitialCapital:      initialCapital,
		FinalValue:          finalValue,
		TotalReturnPct:      (finalValue - initialCapital) / initialCapital * 100,
		AnnualizedReturnPct: annualizedReturn(initialCapital, finalValue, snapshots),
		MaxDrawdownPct:      maxDrawdown(snapshots),
		DailyReturnStdDev:   dailyReturnStdDev(snapshots),
	}

	var sells, winners, losers int

	var winSum, lossSum float64

	for i := range trades {
		trade := &trades[i]

		switch trade.Action {
		case types.TradeActionBuy:
			rep.TotalTrades++
		case types.TradeActionSell:
			sells++

			profit := trade.Profit.TakeOr(0)
			if profit > 0 {
				winners++
				winSum += profit
			} else {
				losers++
				lossSum += profit
			}
		}
	}

	rep.WinningTrades = winners
	rep.LosingTrades = losers

	if sells > 0 {
		rep.WinRate = float64(winners) / float64(sells) * 100
	}

	if winners > 0 {
		rep.AvgProfit = winSum / float64(winners)
	}

	if losers > 0 {
		rep.AvgLoss = lossSum / float64(losers)
	}

	return rep, nil
}

// annualizedReturn compounds the total return over the calendar span of the
// run. A run spanning zero days has no meaningful annualization.
func annualizedReturn(initial, final float64, snapshots []types.PortfolioSnapshot) float64 {
	days := snapshots[len(snapshots)-1].Date.Sub(snapshots[0].Date).Hours() / 24
	if days <= 0 || initial <= 0 || final <= 0 {
		return 0
	}

	return (math.Pow(final/initial, daysPerYear/days) - 1) * 100
}

// maxDrawdown is the most negative percentage decline from the running peak
// of the portfolio value. It is zero for a monotonically rising run and never
// below -100 for non-negative values.
func maxDrawdown(snapshots []types.PortfolioSnapshot) float64 {
	peak := snapshots[0].PortfolioValue

	var worst float64

	for i := range snapshots {
		v := snapshots[i].PortfolioValue
		if v > peak {
			peak = v
		}

		if peak <= 0 {
			continue
		}

		dd := (v - peak) / peak * 100
		if dd < worst {
			worst = dd
		}
	}

	return worst
}

// dailyReturnStdDev is the sample standard deviation of day-over-day
// portfolio percentage changes. The first snapshot has no return; fewer than
// two returns yield zero.
func dailyReturnStdDev(snapshots []types.PortfolioSnapshot) float64 {
	returns := make([]float64, 0, len(snapshots)-1)

	for i := 1; i < len(snapshots); i++ {
		prev := snapshots[i-1].PortfolioValue
		if prev == 0 {
			continue
		}

		returns = append(returns, (snapshots[i].PortfolioValue/prev-1)*100)
	}

	n := len(returns)
	if n < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}

	mean := sum / float64(n)

	var sq float64
	for _, r := range returns {
		d := r - mean
		sq += d * d
	}

	return math.Sqrt(sq / float64(n-1))
}
