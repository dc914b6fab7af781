// Package engine runs a strategy preset over a validated bar feed in one
// deterministic pass, producing the trade ledger, the daily portfolio
// history, and the performance report.
package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantmill/mlbacktest/internal/backtest/report"
	"github.com/quantmill/mlbacktest/internal/logger"
	"github.com/quantmill/mlbacktest/internal/strategy"
	"github.com/quantmill/mlbacktest/internal/types"
)

// Engine evaluates one strategy preset against a bar feed. It holds no state
// between runs; every Run starts from the configured initial capital.
type Engine struct {
	cfg      Config
	strategy strategy.Config
	log      *logger.Logger
}

// RunResult bundles everything one run produces.
type RunResult struct {
	StrategyName string
	Trades       []types.Trade
	Snapshots    []types.PortfolioSnapshot
	Report       types.Report
}

// NewEngine validates both configurations and returns a ready engine.
func NewEngine(cfg Config, strat strategy.Config, log *logger.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := strat.Validate(); err != nil {
		return nil, err
	}

	return &Engine{
		cfg:      cfg,
		strategy: strat,
		log:      log,
	}, nil
}

// Run executes the strategy over the bar feed. The feed must already carry
// the indicator columns the preset reads; bars in the warm-up window simply
// produce no signals. A snapshot of the portfolio is taken on every bar
// before that bar's decision, and any position still open after the final
// bar is liquidated at its close.
func (e *Engine) Run(bars []types.Bar) (*RunResult, error) {
	if err := types.ValidateBarFeed(bars); err != nil {
		return nil, err
	}

	if !anyPrediction(bars) {
		e.log.Warn("no prediction data in feed; the model vote blocks every trade",
			zap.String("strategy", e.strategy.Name))
	}

	var bar *progressbar.ProgressBar
	if e.cfg.ShowProgress {
		bar = progressbar.Default(int64(len(bars)))
		bar.Describe(fmt.Sprintf("Backtesting %s", e.strategy.Name))
	}

	capital := e.cfg.InitialCapital

	var (
		shares     int64
		entryPrice float64
		trades     []types.Trade
	)

	snapshots := make([]types.PortfolioSnapshot, 0, len(bars))

	for i := range bars {
		current := bars[i]

		positionValue := float64(shares) * current.Close
		snapshots = append(snapshots, types.PortfolioSnapshot{
			Date:           current.Date,
			Capital:        capital,
			Shares:         shares,
			PositionValue:  positionValue,
			PortfolioValue: capital + positionValue,
		})

		if bar != nil {
			_ = bar.Add(1)
		}

		// The first bar only seeds the previous-bar context.
		if i == 0 {
			continue
		}

		previous := bars[i-1]

		if shares == 0 {
			fired, reason := strategy.EvaluateEntry(current, previous, e.strategy)
			if !fired {
				continue
			}

			bought := int64(math.Floor(capital * e.strategy.PositionSizeFraction / current.Close))
			if bought <= 0 {
				e.log.Debug("entry fired but sized to zero shares",
					zap.Time("date", current.Date),
					zap.Float64("capital", capital),
					zap.Float64("price", current.Close))

				continue
			}

			capital -= float64(bought) * current.Close
			shares = bought
			entryPrice = current.Close

			trades = append(trades, types.Trade{
				Date:         current.Date,
				Action:       types.TradeActionBuy,
				Price:        current.Close,
				Shares:       bought,
				Capital:      capital,
				Position:     shares,
				Reason:       reason,
				StrategyName: e.strategy.Name,
			})

			e.log.Info("opened position",
				zap.Time("date", current.Date),
				zap.Float64("price", current.Close),
				zap.Int64("shares", bought),
				zap.String("reason", reason))

			continue
		}

		if fired, reason := strategy.EvaluateExit(current, previous, entryPrice, e.strategy); fired {
			trades = append(trades, e.closePosition(current.Date, current.Close, &capital, &shares, entryPrice, reason))
		}
	}

	// Forced liquidation of any position still open after the final bar.
	if shares > 0 {
		last := bars[len(bars)-1]
		trades = append(trades, e.closePosition(last.Date, last.Close, &capital, &shares, entryPrice, types.ForcedCloseReason))
	}

	rep, err := report.Compute(e.strategy.Name, e.cfg.InitialCapital, snapshots, trades)
	if err != nil {
		return nil, err
	}

	return &RunResult{
		StrategyName: e.strategy.Name,
		Trades:       trades,
		Snapshots:    snapshots,
		Report:       rep,
	}, nil
}

// closePosition sells the whole open lot at the given price. PnL is computed
// in decimal arithmetic so large share counts do not accumulate float error.
func (e *Engine) closePosition(date time.Time, price float64, capital *float64, shares *int64, entryPrice float64, reason string) types.Trade {
	sold := *shares
	*capital += float64(sold) * price
	*shares = 0

	profit := decimal.NewFromFloat(price).
		Sub(decimal.NewFromFloat(entryPrice)).
		Mul(decimal.NewFromInt(sold)).
		InexactFloat64()
	profitPct := (price/entryPrice - 1) * 100

	e.log.Info("closed position",
		zap.Time("date", date),
		zap.Float64("price", price),
		zap.Int64("shares", sold),
		zap.Float64("profit", profit),
		zap.String("reason", reason))

	return types.Trade{
		Date:         date,
		Action:       types.TradeActionSell,
		Price:        price,
		Shares:       sold,
		Capital:      *capital,
		Position:     0,
		Reason:       reason,
		StrategyName: e.strategy.Name,
		Profit:       optional.Some(profit),
		ProfitPct:    optional.Some(profitPct),
	}
}

func anyPrediction(bars []types.Bar) bool {
	for i := range bars {
		if bars[i].HasPrediction() {
			return true
		}
	}

	return false
}
