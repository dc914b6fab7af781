package types

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type TradeTestSuite struct {
	suite.Suite
}

func TestTradeSuite(t *testing.T) {
	suite.Run(t, new(TradeTestSuite))
}

func (suite *TradeTestSuite) TestIsWin() {
	tests := []struct {
		name  string
		trade Trade
		want  bool
	}{
		{
			name:  "buy is never a win",
			trade: Trade{Action: TradeActionBuy, Profit: optional.Some(100.0)},
			want:  false,
		},
		{
			name:  "sell with positive profit",
			trade: Trade{Action: TradeActionSell, Profit: optional.Some(250.0)},
			want:  true,
		},
		{
			name:  "sell with zero profit",
			trade: Trade{Action: TradeActionSell, Profit: optional.Some(0.0)},
			want:  false,
		},
		{
			name:  "sell with negative profit",
			trade: Trade{Action: TradeActionSell, Profit: optional.Some(-50.0)},
			want:  false,
		},
		{
			name:  "sell without profit recorded",
			trade: Trade{Action: TradeActionSell},
			want:  false,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.want, tc.trade.IsWin())
		})
	}
}

func (suite *TradeTestSuite) TestWriteReport() {
	report := Report{
		ID:             "run-1",
		Timestamp:      time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC),
		StrategyName:   "conservative",
		InitialCapital: 100000,
		FinalValue:     105000,
		TotalReturnPct: 5,
		TotalTrades:    1,
		WinningTrades:  1,
		WinRate:        100,
	}

	path := filepath.Join(suite.T().TempDir(), "summary.yaml")
	suite.NoError(WriteReport(path, report))

	data, err := os.ReadFile(path)
	suite.NoError(err)

	var loaded Report
	suite.NoError(yaml.Unmarshal(data, &loaded))
	suite.Equal(report.StrategyName, loaded.StrategyName)
	suite.Equal(report.FinalValue, loaded.FinalValue)
	suite.Equal(report.WinRate, loaded.WinRate)
}
