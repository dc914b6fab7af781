// Package writer persists run results as CSV and YAML files under a
// timestamped run directory.
package writer

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/quantmill/mlbacktest/internal/types"
	"github.com/quantmill/mlbacktest/pkg/errors"
)

// ResultWriter defines the interface for writing backtest results.
type ResultWriter interface {
	// WriteTrades writes the trade ledger of one strategy.
	WriteTrades(strategyName string, trades []types.Trade) error

	// WritePortfolioHistory writes the daily snapshot ledger of one strategy.
	WritePortfolioHistory(strategyName string, snapshots []types.PortfolioSnapshot) error

	// WriteReport writes the performance summary of one strategy.
	WriteReport(strategyName string, report types.Report) error

	// WriteComparison writes the cross-strategy comparison table.
	WriteComparison(reports []types.Report) error

	// Dir returns the run directory everything is written into.
	Dir() string
}

// CSVWriter implements ResultWriter with one subdirectory per strategy.
type CSVWriter struct {
	runDir string
}

// NewCSVWriter creates the timestamped run directory under baseDir.
func NewCSVWriter(baseDir string) (*CSVWriter, error) {
	runDir := filepath.Join(baseDir, time.Now().Format("2006-01-02_15-04-05"))
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to create run directory", err)
	}

	return &CSVWriter{runDir: runDir}, nil
}

// Dir implements ResultWriter.
func (w *CSVWriter) Dir() string {
	return w.runDir
}

func (w *CSVWriter) strategyDir(strategyName string) (string, error) {
	dir := filepath.Join(w.runDir, strategyName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to create strategy directory", err)
	}

	return dir, nil
}

func writeCSV(path string, header []string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to create %s", path)
	}
	defer file.Close()

	cw := csv.NewWriter(file)

	if err := cw.Write(header); err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to write header of %s", path)
	}

	for _, record := range records {
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to write record of %s", path)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to flush %s", path)
	}

	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteTrades implements ResultWriter.
func (w *CSVWriter) WriteTrades(strategyName string, trades []types.Trade) error {
	dir, err := w.strategyDir(strategyName)
	if err != nil {
		return err
	}

	header := []string{
		"date", "action", "price", "shares", "capital", "position",
		"reason", "strategy_name", "profit", "profit_pct",
	}

	records := make([][]string, 0, len(trades))

	for i := range trades {
		trade := &trades[i]

		profit, profitPct := "", ""
		if trade.Profit.IsSome() {
			profit = formatFloat(trade.Profit.Unwrap())
		}

		if trade.ProfitPct.IsSome() {
			profitPct = formatFloat(trade.ProfitPct.Unwrap())
		}

		records = append(records, []string{
			trade.Date.Format("2006-01-02"),
			string(trade.Action),
			formatFloat(trade.Price),
			strconv.FormatInt(trade.Shares, 10),
			formatFloat(trade.Capital),
			strconv.FormatInt(trade.Position, 10),
			trade.Reason,
			trade.StrategyName,
			profit,
			profitPct,
		})
	}

	return writeCSV(filepath.Join(dir, "trades.csv"), header, records)
}

// WritePortfolioHistory implements ResultWriter.
func (w *CSVWriter) WritePortfolioHistory(strategyName string, snapshots []types.PortfolioSnapshot) error {
	dir, err := w.strategyDir(strategyName)
	if err != nil {
		return err
	}

	header := []string{"date", "portfolio_value", "capital", "position_value", "shares"}

	records := make([][]string, 0, len(snapshots))

	for i := range snapshots {
		snapshot := &snapshots[i]
		records = append(records, []string{
			snapshot.Date.Format("2006-01-02"),
			formatFloat(snapshot.PortfolioValue),
			formatFloat(snapshot.Capital),
			formatFloat(snapshot.PositionValue),
			strconv.FormatInt(snapshot.Shares, 10),
		})
	}

	return writeCSV(filepath.Join(dir, "portfolio_history.csv"), header, records)
}

// WriteReport implements ResultWriter.
func (w *CSVWriter) WriteReport(strategyName string, report types.Report) error {
	dir, err := w.strategyDir(strategyName)
	if err != nil {
		return err
	}

	return types.WriteReport(filepath.Join(dir, "summary.yaml"), report)
}

// WriteComparison implements ResultWriter.
func (w *CSVWriter) WriteComparison(reports []types.Report) error {
	header := []string{
		"strategy_name", "initial_capital", "final_value", "total_return_pct",
		"annualized_return_pct", "max_drawdown_pct", "total_trades",
		"winning_trades", "losing_trades", "win_rate",
	}

	records := make([][]string, 0, len(reports))

	for i := range reports {
		report := &reports[i]
		records = append(records, []string{
			report.StrategyName,
			formatFloat(report.InitialCapital),
			formatFloat(report.FinalValue),
			formatFloat(report.TotalReturnPct),
			formatFloat(report.AnnualizedReturnPct),
			formatFloat(report.MaxDrawdownPct),
			strconv.Itoa(report.TotalTrades),
			strconv.Itoa(report.WinningTrades),
			strconv.Itoa(report.LosingTrades),
			formatFloat(report.WinRate),
		})
	}

	return writeCSV(filepath.Join(w.runDir, "comparison.csv"), header, records)
}
