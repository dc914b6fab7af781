package writer

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"

	"github.com/quantmill/mlbacktest/internal/types"
)

type CSVWriterTestSuite struct {
	suite.Suite
	writer *CSVWriter
}

func TestCSVWriterSuite(t *testing.T) {
	suite.Run(t, new(CSVWriterTestSuite))
}

func (suite *CSVWriterTestSuite) SetupTest() {
	writer, err := NewCSVWriter(suite.T().TempDir())
	suite.Require().NoError(err)
	suite.writer = writer
}

func (suite *CSVWriterTestSuite) readCSV(path string) [][]string {
	file, err := os.Open(path)
	suite.Require().NoError(err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	suite.Require().NoError(err)

	return records
}

func (suite *CSVWriterTestSuite) TestWriteTrades() {
	date := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	trades := []types.Trade{
		{
			Date:         date,
			Action:       types.TradeActionBuy,
			Price:        100,
			Shares:       500,
			Capital:      50000,
			Position:     500,
			Reason:       "conservative entry: Trend, ML_bullish",
			StrategyName: "conservative",
		},
		{
			Date:         date.AddDate(0, 0, 3),
			Action:       types.TradeActionSell,
			Price:        110,
			Shares:       500,
			Capital:      105000,
			Position:     0,
			Reason:       types.ForcedCloseReason,
			StrategyName: "conservative",
			Profit:       optional.Some(5000.0),
			ProfitPct:    optional.Some(10.0),
		},
	}

	suite.Require().NoError(suite.writer.WriteTrades("conservative", trades))

	records := suite.readCSV(filepath.Join(suite.writer.Dir(), "conservative", "trades.csv"))
	suite.Require().Len(records, 3)

	suite.Equal("date", records[0][0])
	suite.Equal("profit", records[0][8])

	buy := records[1]
	suite.Equal("2023-06-01", buy[0])
	suite.Equal("BUY", buy[1])
	suite.Equal("500", buy[3])
	suite.Equal("", buy[8], "open trades have no profit")

	sell := records[2]
	suite.Equal("SELL", sell[1])
	suite.Equal("End of Period", sell[6])
	suite.Equal("5000", sell[8])
	suite.Equal("10", sell[9])
}

func (suite *CSVWriterTestSuite) TestWritePortfolioHistory() {
	date := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	snapshots := []types.PortfolioSnapshot{
		{Date: date, PortfolioValue: 100000, Capital: 100000},
		{Date: date.AddDate(0, 0, 1), PortfolioValue: 100500, Capital: 50000, PositionValue: 50500, Shares: 500},
	}

	suite.Require().NoError(suite.writer.WritePortfolioHistory("aggressive", snapshots))

	records := suite.readCSV(filepath.Join(suite.writer.Dir(), "aggressive", "portfolio_history.csv"))
	suite.Require().Len(records, 3)
	suite.Equal([]string{"date", "portfolio_value", "capital", "position_value", "shares"}, records[0])
	suite.Equal([]string{"2023-06-02", "100500", "50000", "50500", "500"}, records[2])
}

func (suite *CSVWriterTestSuite) TestWriteReportRoundTrip() {
	report := types.Report{
		ID:             "run-1",
		StrategyName:   "conservative",
		InitialCapital: 100000,
		FinalValue:     105000,
		TotalReturnPct: 5,
		TotalTrades:    1,
		WinningTrades:  1,
		WinRate:        100,
	}

	suite.Require().NoError(suite.writer.WriteReport("conservative", report))

	data, err := os.ReadFile(filepath.Join(suite.writer.Dir(), "conservative", "summary.yaml"))
	suite.Require().NoError(err)

	var got types.Report

	suite.Require().NoError(yaml.Unmarshal(data, &got))
	suite.Equal(report.StrategyName, got.StrategyName)
	suite.InDelta(report.FinalValue, got.FinalValue, 1e-9)
	suite.Equal(report.TotalTrades, got.TotalTrades)
}

func (suite *CSVWriterTestSuite) TestWriteComparison() {
	reports := []types.Report{
		{StrategyName: "conservative", InitialCapital: 100000, FinalValue: 105000, TotalReturnPct: 5, TotalTrades: 1, WinningTrades: 1, WinRate: 100},
		{StrategyName: "aggressive", InitialCapital: 100000, FinalValue: 96500, TotalReturnPct: -3.5, TotalTrades: 1, LosingTrades: 1},
	}

	suite.Require().NoError(suite.writer.WriteComparison(reports))

	records := suite.readCSV(filepath.Join(suite.writer.Dir(), "comparison.csv"))
	suite.Require().Len(records, 3)
	suite.Equal("conservative", records[1][0])
	suite.Equal("aggressive", records[2][0])
	suite.Equal("-3.5", records[2][3])
}
