package types

import (
	"time"

	"github.com/moznion/go-optional"
)

type TradeAction string

const (
	TradeActionBuy  TradeAction = "BUY"
	TradeActionSell TradeAction = "SELL"
)

// ForcedCloseReason is recorded on the sell that liquidates an open position
// at the last bar of a run.
const ForcedCloseReason = "End of Period"

// Trade is one executed buy or sell. Records are append-only: once a trade is
// in the ledger it is never mutated.
type Trade struct {
	Date   time.Time   `yaml:"date" json:"date" csv:"date"`
	Action TradeAction `yaml:"action" json:"action" csv:"action"`
	Price  float64     `yaml:"price" json:"price" csv:"price"`
	Shares int64       `yaml:"shares" json:"shares" csv:"shares"`
	// Capital is the cash balance after this trade executed.
	Capital float64 `yaml:"capital" json:"capital" csv:"capital"`
	// Position is the share count held after this trade executed.
	Position int64 `yaml:"position" json:"position" csv:"position"`
	// Reason summarizes the signals that fired this trade.
	Reason string `yaml:"reason" json:"reason" csv:"reason"`
	// StrategyName is the preset that produced this trade.
	StrategyName string `yaml:"strategy_name" json:"strategy_name" csv:"strategy_name"`

	// Profit and ProfitPct are set on sells only.
	Profit    optional.Option[float64] `yaml:"profit" json:"profit" csv:"profit"`
	ProfitPct optional.Option[float64] `yaml:"profit_pct" json:"profit_pct" csv:"profit_pct"`
}

// IsWin reports whether this is a closed trade with positive profit.
func (t *Trade) IsWin() bool {
	return t.Action == TradeActionSell && t.Profit.IsSome() && t.Profit.Unwrap() > 0
}

// PortfolioSnapshot is the per-bar valuation of the account, taken at that
// bar's close before its decision executes. Exactly one snapshot is produced
// per bar, whether or not a trade occurred.
type PortfolioSnapshot struct {
	Date           time.Time `yaml:"date" json:"date" csv:"date"`
	PortfolioValue float64   `yaml:"portfolio_value" json:"portfolio_value" csv:"portfolio_value"`
	Capital        float64   `yaml:"capital" json:"capital" csv:"capital"`
	PositionValue  float64   `yaml:"position_value" json:"position_value" csv:"position_value"`
	Shares         int64     `yaml:"shares" json:"shares" csv:"shares"`
}
