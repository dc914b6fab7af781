package strategy

import (
	"fmt"
	"strings"

	"github.com/quantmill/mlbacktest/internal/types"
)

// Signal labels as they appear in trade reasons.
const (
	SignalTrend         = "Trend"
	SignalMACD          = "MACD"
	SignalRSIOversold   = "RSI_oversold"
	SignalBBOversold    = "BB_oversold"
	SignalMLBullish     = "ML_bullish"
	SignalStopLoss      = "Stop_Loss"
	SignalTrailingStop  = "Trailing_Stop"
	SignalRSIOverbought = "RSI_overbought"
	SignalBBUpper       = "BB_upper"
	SignalMACDBearish   = "MACD_bearish"
	SignalBBLower       = "BB_lower"
	SignalMLBearish     = "ML_bearish"
)

// rsiOverboughtThreshold is fixed across variants.
const rsiOverboughtThreshold = 70.0

// FusedBullish combines the available prediction sources into one directional
// vote for entry. With both sources present they must agree; with one source
// its vote passes through; with none the vote is false, which makes entry
// unreachable on that bar since the fused vote is mandatory.
func FusedBullish(bar types.Bar, prevClose float64) bool {
	trendBullish := false
	priceBullish := false
	available := 0

	if bar.TrendPrediction.IsSome() {
		available++
		trendBullish = bar.TrendPrediction.Unwrap() > 0
	}

	if bar.PricePrediction.IsSome() {
		available++
		priceBullish = bar.PricePrediction.Unwrap() > prevClose
	}

	switch available {
	case 2:
		return trendBullish && priceBullish
	case 1:
		return trendBullish || priceBullish
	default:
		return false
	}
}

// FusedBearish is the exit-side counterpart of FusedBullish. The price vote
// compares against the current close rather than the previous one.
func FusedBearish(bar types.Bar, currentClose float64) bool {
	trendBearish := false
	priceBearish := false
	available := 0

	if bar.TrendPrediction.IsSome() {
		available++
		trendBearish = bar.TrendPrediction.Unwrap() < 0
	}

	if bar.PricePrediction.IsSome() {
		available++
		priceBearish = bar.PricePrediction.Unwrap() < currentClose
	}

	switch available {
	case 2:
		return trendBearish && priceBearish
	case 1:
		return trendBearish || priceBearish
	default:
		return false
	}
}

// EvaluateEntry decides whether to open a position on the current bar. It is
// a pure function: no state is read beyond the two bars and the config.
// Both SMA200 and SMA50 must be present or no decision is made.
func EvaluateEntry(current, previous types.Bar, cfg Config) (bool, string) {
	if current.SMA200.IsNone() || current.SMA50.IsNone() {
		return false, ""
	}

	var signals []string

	// Trend: price above both the long and medium moving averages.
	if current.Close > current.SMA200.Unwrap() && current.Close > current.SMA50.Unwrap() {
		signals = append(signals, SignalTrend)
	}

	// MACD bullish crossover with positive histogram.
	if macdCross(previous, current, false) {
		signals = append(signals, SignalMACD)
	}

	// Oversold: RSI below the preset cutoff, else close within the proximity
	// band of the lower Bollinger band.
	if current.RSI.IsSome() && current.RSI.Unwrap() < cfg.RSIOversoldThreshold {
		signals = append(signals, SignalRSIOversold)
	} else if current.BBLower.IsSome() && current.Close <= current.BBLower.Unwrap()*(1+cfg.BBProximityFactor) {
		signals = append(signals, SignalBBOversold)
	}

	mlVote := FusedBullish(current, previous.Close)
	if mlVote {
		signals = append(signals, SignalMLBullish)
	}

	if len(signals) >= cfg.MinEntrySignals && mlVote {
		return true, fmt.Sprintf("%s entry: %s", cfg.Name, strings.Join(signals, ", "))
	}

	return false, ""
}

// EvaluateExit decides whether to close the open position on the current bar.
// Signals are evaluated independently; a missing indicator simply removes its
// vote. entryPrice is the fill price of the open lot.
func EvaluateExit(current, previous types.Bar, entryPrice float64, cfg Config) (bool, string) {
	var signals []string

	// Stop loss against the entry price.
	if current.Close <= entryPrice*(1-cfg.StopLossFraction) {
		signals = append(signals, SignalStopLoss)
	}

	// Trailing stop: close below the configured moving-average floor.
	if ref := current.Indicator(cfg.TrailingStopReference); ref.IsSome() && current.Close < ref.Unwrap() {
		signals = append(signals, SignalTrailingStop)
	}

	// Overbought.
	if current.RSI.IsSome() && current.RSI.Unwrap() > rsiOverboughtThreshold {
		signals = append(signals, SignalRSIOverbought)
	}

	if cfg.LowerBandExit {
		if macdCross(previous, current, true) {
			signals = append(signals, SignalMACDBearish)
		}

		// Unconditional lower-band breach.
		if current.BBLower.IsSome() && current.Close < current.BBLower.Unwrap() {
			signals = append(signals, SignalBBLower)
		}
	} else {
		// Upper-band proximity.
		if current.BBUpper.IsSome() && current.Close >= current.BBUpper.Unwrap()*(1-cfg.BBProximityFactor) {
			signals = append(signals, SignalBBUpper)
		}

		if macdCross(previous, current, true) {
			signals = append(signals, SignalMACDBearish)
		}
	}

	mlVote := FusedBearish(current, current.Close)
	if mlVote {
		signals = append(signals, SignalMLBearish)
	}

	if len(signals) >= cfg.MinExitSignals && mlVote {
		return true, fmt.Sprintf("%s exit: %s", cfg.Name, strings.Join(signals, ", "))
	}

	return false, ""
}

// macdCross detects a MACD/signal-line crossover between the previous and
// current bar. The bullish cross additionally requires a positive histogram.
func macdCross(previous, current types.Bar, bearish bool) bool {
	if previous.MACD.IsNone() || previous.MACDSignal.IsNone() ||
		current.MACD.IsNone() || current.MACDSignal.IsNone() {
		return false
	}

	prevMACD := previous.MACD.Unwrap()
	prevSignal := previous.MACDSignal.Unwrap()
	curMACD := current.MACD.Unwrap()
	curSignal := current.MACDSignal.Unwrap()

	if bearish {
		return prevMACD >= prevSignal && curMACD < curSignal
	}

	return prevMACD <= prevSignal && curMACD > curSignal &&
		current.MACDHist.IsSome() && current.MACDHist.Unwrap() > 0
}
