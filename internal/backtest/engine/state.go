package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/quantmill/mlbacktest/internal/logger"
	"github.com/quantmill/mlbacktest/pkg/errors"
)

// ResultStore persists run results in an in-memory DuckDB database so they
// can be queried across strategies and exported to Parquet. It is not safe
// for concurrent use.
type ResultStore struct {
	db  *sql.DB
	log *logger.Logger
	sq  squirrel.StatementBuilderType
}

// NewResultStore opens the backing database.
func NewResultStore(log *logger.Logger) (*ResultStore, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestStateError, "failed to open result database", err)
	}

	return &ResultStore{
		db:  db,
		log: log,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the trade and portfolio history tables.
func (s *ResultStore) Initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			trade_id TEXT PRIMARY KEY,
			strategy_name TEXT,
			date TIMESTAMP,
			action TEXT,
			price DOUBLE,
			shares BIGINT,
			capital DOUBLE,
			position BIGINT,
			reason TEXT,
			profit DOUBLE,
			profit_pct DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestStateError, "failed to create trades table", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS portfolio_history (
			snapshot_id TEXT PRIMARY KEY,
			strategy_name TEXT,
			date TIMESTAMP,
			portfolio_value DOUBLE,
			capital DOUBLE,
			position_value DOUBLE,
			shares BIGINT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestStateError, "failed to create portfolio_history table", err)
	}

	return nil
}

// RecordRun inserts one run's ledgers in a single transaction.
func (s *ResultStore) RecordRun(result *RunResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestStateError, "failed to begin transaction", err)
	}

	for i := range result.Trades {
		trade := &result.Trades[i]

		var profit, profitPct any
		if trade.Profit.IsSome() {
			profit = trade.Profit.Unwrap()
		}

		if trade.ProfitPct.IsSome() {
			profitPct = trade.ProfitPct.Unwrap()
		}

		_, err := s.sq.
			Insert("trades").
			Columns(
				"trade_id", "strategy_name", "date", "action", "price", "shares",
				"capital", "position", "reason", "profit", "profit_pct",
			).
			Values(
				uuid.New().String(), trade.StrategyName, trade.Date, string(trade.Action),
				trade.Price, trade.Shares, trade.Capital, trade.Position, trade.Reason,
				profit, profitPct,
			).
			RunWith(tx).
			Exec()
		if err != nil {
			_ = tx.Rollback()

			return errors.Wrap(errors.ErrCodeBacktestStateError, "failed to insert trade", err)
		}
	}

	for i := range result.Snapshots {
		snapshot := &result.Snapshots[i]

		_, err := s.sq.
			Insert("portfolio_history").
			Columns(
				"snapshot_id", "strategy_name", "date", "portfolio_value",
				"capital", "position_value", "shares",
			).
			Values(
				uuid.New().String(), result.StrategyName, snapshot.Date,
				snapshot.PortfolioValue, snapshot.Capital, snapshot.PositionValue,
				snapshot.Shares,
			).
			RunWith(tx).
			Exec()
		if err != nil {
			_ = tx.Rollback()

			return errors.Wrap(errors.ErrCodeBacktestStateError, "failed to insert snapshot", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestStateError, "failed to commit run", err)
	}

	s.log.Debug("recorded run",
		zap.String("strategy", result.StrategyName),
		zap.Int("trades", len(result.Trades)),
		zap.Int("snapshots", len(result.Snapshots)))

	return nil
}

// TradeCount returns the number of persisted trades for one strategy.
func (s *ResultStore) TradeCount(strategyName string) (int, error) {
	var count int

	err := s.sq.
		Select("COUNT(*)").
		From("trades").
		Where(squirrel.Eq{"strategy_name": strategyName}).
		RunWith(s.db).
		QueryRow().
		Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeBacktestStateError, "failed to count trades", err)
	}

	return count, nil
}

// Write exports both tables to Parquet files in the given directory.
func (s *ResultStore) Write(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to create results directory", err)
	}

	// COPY has no placeholder support in DuckDB.
	tradesPath := filepath.Join(path, "trades.parquet")
	if _, err := s.db.Exec(fmt.Sprintf(`COPY trades TO '%s' (FORMAT PARQUET)`, tradesPath)); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to export trades to Parquet", err)
	}

	historyPath := filepath.Join(path, "portfolio_history.parquet")
	if _, err := s.db.Exec(fmt.Sprintf(`COPY portfolio_history TO '%s' (FORMAT PARQUET)`, historyPath)); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to export portfolio history to Parquet", err)
	}

	s.log.Info("exported run results", zap.String("path", path))

	return nil
}

// Cleanup drops and recreates both tables.
func (s *ResultStore) Cleanup() error {
	_, err := s.db.Exec(`
		DROP TABLE IF EXISTS trades;
		DROP TABLE IF EXISTS portfolio_history;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestStateError, "failed to drop tables", err)
	}

	return s.Initialize()
}

// Close releases the backing database.
func (s *ResultStore) Close() error {
	return s.db.Close()
}
