package report

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/quantmill/mlbacktest/internal/types"
	"github.com/quantmill/mlbacktest/pkg/errors"
)

type ReportTestSuite struct {
	suite.Suite
}

func TestReportSuite(t *testing.T) {
	suite.Run(t, new(ReportTestSuite))
}

func snapshotSeries(start time.Time, values ...float64) []types.PortfolioSnapshot {
	snapshots := make([]types.PortfolioSnapshot, len(values))
	for i, v := range values {
		snapshots[i] = types.PortfolioSnapshot{
			Date:           start.AddDate(0, 0, i),
			PortfolioValue: v,
			Capital:        v,
		}
	}

	return snapshots
}

func (suite *ReportTestSuite) TestComputeRequiresSnapshots() {
	_, err := Compute("conservative", 100000, nil, nil)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeReportNoSnapshots))
}

func (suite *ReportTestSuite) TestComputeFlatRun() {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	snapshots := snapshotSeries(start, 100000, 100000, 100000)

	rep, err := Compute("conservative", 100000, snapshots, nil)
	suite.NoError(err)

	suite.Equal("conservative", rep.StrategyName)
	suite.NotEmpty(rep.ID)
	suite.InDelta(100000, rep.FinalValue, 1e-9)
	suite.InDelta(0, rep.TotalReturnPct, 1e-9)
	suite.InDelta(0, rep.AnnualizedReturnPct, 1e-9)
	suite.InDelta(0, rep.MaxDrawdownPct, 1e-9)
	suite.InDelta(0, rep.DailyReturnStdDev, 1e-9)
	suite.Zero(rep.TotalTrades)
	suite.Zero(rep.WinRate)
}

func (suite *ReportTestSuite) TestMaxDrawdownAndStdDev() {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	snapshots := snapshotSeries(start, 100, 110, 99, 108)

	rep, err := Compute("aggressive", 100, snapshots, nil)
	suite.NoError(err)

	// The peak is 110; the trough at 99 is a 10% decline.
	suite.InDelta(-10.0, rep.MaxDrawdownPct, 1e-9)
	suite.LessOrEqual(rep.MaxDrawdownPct, 0.0)
	suite.GreaterOrEqual(rep.MaxDrawdownPct, -100.0)

	// Sample standard deviation of the daily returns 10%, -10%, 100/11 %.
	suite.InDelta(11.2937, rep.DailyReturnStdDev, 1e-3)

	suite.InDelta(8.0, rep.TotalReturnPct, 1e-9)
}

func (suite *ReportTestSuite) TestAnnualizedReturn() {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	// Exactly one annualization year: 365.25 days is 8766 hours.
	snapshots := []types.PortfolioSnapshot{
		{Date: start, PortfolioValue: 100000},
		{Date: start.Add(8766 * time.Hour), PortfolioValue: 110000},
	}

	rep, err := Compute("conservative", 100000, snapshots, nil)
	suite.NoError(err)
	suite.InDelta(10.0, rep.AnnualizedReturnPct, 1e-9)
}

func (suite *ReportTestSuite) TestAnnualizedReturnZeroSpan() {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	snapshots := snapshotSeries(start, 120000)

	rep, err := Compute("conservative", 100000, snapshots, nil)
	suite.NoError(err)
	suite.InDelta(0, rep.AnnualizedReturnPct, 1e-9)
	suite.InDelta(20.0, rep.TotalReturnPct, 1e-9)
}

func (suite *ReportTestSuite) TestTradeStatistics() {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	snapshots := snapshotSeries(start, 100000, 100050)

	sell := func(profit float64) types.Trade {
		return types.Trade{
			Action: types.TradeActionSell,
			Profit: optional.Some(profit),
		}
	}

	trades := []types.Trade{
		{Action: types.TradeActionBuy},
		sell(100),
		{Action: types.TradeActionBuy},
		sell(-50),
		{Action: types.TradeActionBuy},
		sell(0), // break-even sells count as losses
	}

	rep, err := Compute("aggressive", 100000, snapshots, trades)
	suite.NoError(err)

	suite.Equal(3, rep.TotalTrades)
	suite.Equal(1, rep.WinningTrades)
	suite.Equal(2, rep.LosingTrades)
	suite.InDelta(100.0/3.0, rep.WinRate, 1e-9)
	suite.InDelta(100.0, rep.AvgProfit, 1e-9)
	suite.InDelta(-25.0, rep.AvgLoss, 1e-9)
}
