package types

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quantmill/mlbacktest/pkg/errors"
)

// Report aggregates one finished run. It is derived from the snapshot and
// trade ledgers and carries no state of its own.
type Report struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// StrategyName is the preset this run used.
	StrategyName string `yaml:"strategy_name" json:"strategy_name"`

	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
	FinalValue     float64 `yaml:"final_value" json:"final_value"`
	// TotalReturnPct is the total return over the run, in percent.
	TotalReturnPct float64 `yaml:"total_return_pct" json:"total_return_pct"`
	// AnnualizedReturnPct is (final/initial)^(365.25/days)-1 in percent,
	// zero when the run spans no elapsed days.
	AnnualizedReturnPct float64 `yaml:"annualized_return_pct" json:"annualized_return_pct"`
	// MaxDrawdownPct is the most negative decline from the running portfolio
	// peak, in percent. Always in [-100, 0].
	MaxDrawdownPct float64 `yaml:"max_drawdown_pct" json:"max_drawdown_pct"`
	// DailyReturnStdDev is the sample standard deviation of day-over-day
	// portfolio percentage changes. The first day has no return.
	DailyReturnStdDev float64 `yaml:"daily_return_std_dev" json:"daily_return_std_dev"`

	// TotalTrades counts buys.
	TotalTrades   int `yaml:"total_trades" json:"total_trades"`
	WinningTrades int `yaml:"winning_trades" json:"winning_trades"`
	LosingTrades  int `yaml:"losing_trades" json:"losing_trades"`
	// WinRate is winners over closed trades, in percent. Zero when no sells.
	WinRate float64 `yaml:"win_rate" json:"win_rate"`
	// AvgProfit is the mean profit of winning sells, zero when none.
	AvgProfit float64 `yaml:"avg_profit" json:"avg_profit"`
	// AvgLoss is the mean profit of losing sells, zero when none.
	AvgLoss float64 `yaml:"avg_loss" json:"avg_loss"`
}

// WriteReport marshals the report to YAML at the given path.
func WriteReport(path string, report Report) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to marshal report to YAML", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to write report file", err)
	}

	return nil
}
