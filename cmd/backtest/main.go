// Command backtest runs the rule-based strategies over a daily price file,
// optionally joined with model prediction files, and writes the trade ledger,
// portfolio history, and performance report for each.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/moznion/go-optional"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/quantmill/mlbacktest/internal/backtest/engine"
	"github.com/quantmill/mlbacktest/internal/backtest/engine/datasource"
	"github.com/quantmill/mlbacktest/internal/backtest/writer"
	"github.com/quantmill/mlbacktest/internal/indicator"
	"github.com/quantmill/mlbacktest/internal/logger"
	"github.com/quantmill/mlbacktest/internal/strategy"
	"github.com/quantmill/mlbacktest/internal/types"
)

// strategiesFor resolves the --strategy and --strategy-config flags into the
// list of presets to run. A config file overrides the preset selection.
func strategiesFor(name, configPath string) ([]strategy.Config, error) {
	if configPath != "" {
		cfg, err := strategy.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}

		return []strategy.Config{cfg}, nil
	}

	if name == "both" {
		return []strategy.Config{strategy.Conservative(), strategy.Aggressive()}, nil
	}

	cfg, err := strategy.Presets(name)
	if err != nil {
		return nil, err
	}

	return []strategy.Config{cfg}, nil
}

func optionalTime(t time.Time) optional.Option[time.Time] {
	if t.IsZero() {
		return optional.None[time.Time]()
	}

	return optional.Some(t)
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	strategies, err := strategiesFor(cmd.String("strategy"), cmd.String("strategy-config"))
	if err != nil {
		return err
	}

	engineConfig := engine.Config{
		InitialCapital: cmd.Float("capital"),
		ShowProgress:   !cmd.Bool("no-progress"),
	}

	source, err := datasource.NewDuckDBDataSource(log)
	if err != nil {
		return err
	}
	defer source.Close()

	if err := source.Initialize(cmd.String("data")); err != nil {
		return err
	}

	if err := source.AttachPredictions(cmd.String("trend"), cmd.String("price")); err != nil {
		return err
	}

	bars, err := datasource.Collect(source, optionalTime(cmd.Timestamp("start")), optionalTime(cmd.Timestamp("end")))
	if err != nil {
		return err
	}

	if err := types.ValidateBarFeed(bars); err != nil {
		return err
	}

	indicator.Enrich(bars, log)

	resultWriter, err := writer.NewCSVWriter(cmd.String("output"))
	if err != nil {
		return err
	}

	store, err := engine.NewResultStore(log)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Initialize(); err != nil {
		return err
	}

	reports := make([]types.Report, 0, len(strategies))

	for _, strat := range strategies {
		eng, err := engine.NewEngine(engineConfig, strat, log)
		if err != nil {
			return err
		}

		result, err := eng.Run(bars)
		if err != nil {
			return err
		}

		if err := resultWriter.WriteTrades(result.StrategyName, result.Trades); err != nil {
			return err
		}

		if err := resultWriter.WritePortfolioHistory(result.StrategyName, result.Snapshots); err != nil {
			return err
		}

		if err := resultWriter.WriteReport(result.StrategyName, result.Report); err != nil {
			return err
		}

		if err := store.RecordRun(result); err != nil {
			return err
		}

		log.Info("strategy finished",
			zap.String("strategy", result.StrategyName),
			zap.Float64("final_value", result.Report.FinalValue),
			zap.Float64("total_return_pct", result.Report.TotalReturnPct),
			zap.Int("trades", result.Report.TotalTrades),
			zap.Float64("win_rate", result.Report.WinRate))

		reports = append(reports, result.Report)
	}

	if len(reports) > 1 {
		if err := resultWriter.WriteComparison(reports); err != nil {
			return err
		}
	}

	if err := store.Write(filepath.Join(resultWriter.Dir(), "parquet")); err != nil {
		return err
	}

	log.Info("backtest complete", zap.String("results", resultWriter.Dir()))

	return nil
}

func schemaAction(ctx context.Context, cmd *cli.Command) error {
	schema, err := strategy.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run rule-based trading strategies over daily price data with model predictions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the daily price file (CSV or Parquet)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "trend",
				Usage: "Path to the trend prediction CSV (date, trend_prediction)",
			},
			&cli.StringFlag{
				Name:  "price",
				Usage: "Path to the price prediction CSV (date, price_prediction)",
			},
			&cli.StringFlag{
				Name:    "strategy",
				Aliases: []string{"s"},
				Usage:   "Strategy preset to run: conservative, aggressive, or both",
				Value:   "both",
			},
			&cli.StringFlag{
				Name:  "strategy-config",
				Usage: "Path to a custom strategy YAML, overriding --strategy",
			},
			&cli.FloatFlag{
				Name:    "capital",
				Aliases: []string{"c"},
				Usage:   "Initial capital",
				Value:   100000,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory results are written into",
				Value:   "results",
			},
			&cli.TimestampFlag{
				Name:  "start",
				Usage: "First date to include, in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.TimestampFlag{
				Name:  "end",
				Usage: "Last date to include, in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Disable the progress bar",
			},
		},
		Action: backtestAction,
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "Print the JSON schema for strategy config files",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
