package indicator

import (
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/quantmill/mlbacktest/internal/logger"
	"github.com/quantmill/mlbacktest/internal/types"
)

// smaPeriods maps each moving-average column to its window.
var smaPeriods = map[types.IndicatorName]int{
	types.IndicatorSMA10:  10,
	types.IndicatorSMA20:  20,
	types.IndicatorSMA50:  50,
	types.IndicatorSMA100: 100,
	types.IndicatorSMA200: 200,
}

// Enrich fills in every indicator column the feed does not already carry.
// A column is considered provided when at least one bar has a value in it;
// provided columns are left untouched so upstream data always wins. Bars are
// modified in place.
func Enrich(bars []types.Bar, log *logger.Logger) {
	if len(bars) == 0 {
		return
	}

	closes := make([]float64, len(bars))
	for i := range bars {
		closes[i] = bars[i].Close
	}

	var computed []string

	for name, period := range smaPeriods {
		if columnProvided(bars, name) {
			continue
		}

		setColumn(bars, name, SMA(closes, period))
		computed = append(computed, string(name))
	}

	if !columnProvided(bars, types.IndicatorMACD) &&
		!columnProvided(bars, types.IndicatorMACDSig) &&
		!columnProvided(bars, types.IndicatorMACDHist) {
		line, signal, hist := MACD(closes, macdFastPeriod, macdSlowPeriod, macdSignalPeriod)
		setColumn(bars, types.IndicatorMACD, line)
		setColumn(bars, types.IndicatorMACDSig, signal)
		setColumn(bars, types.IndicatorMACDHist, hist)
		computed = append(computed, string(types.IndicatorMACD))
	}

	if !columnProvided(bars, types.IndicatorRSI) {
		setColumn(bars, types.IndicatorRSI, RSI(closes, rsiPeriod))
		computed = append(computed, string(types.IndicatorRSI))
	}

	if !columnProvided(bars, types.IndicatorBBUpper) &&
		!columnProvided(bars, types.IndicatorBBMiddle) &&
		!columnProvided(bars, types.IndicatorBBLower) {
		upper, middle, lower := Bollinger(closes, bollingerPeriod, bollingerWidth)
		setColumn(bars, types.IndicatorBBUpper, upper)
		setColumn(bars, types.IndicatorBBMiddle, middle)
		setColumn(bars, types.IndicatorBBLower, lower)
		computed = append(computed, string(types.IndicatorBBUpper))
	}

	if len(computed) > 0 && log != nil {
		log.Debug("computed missing indicator columns", zap.Strings("columns", computed))
	}
}

func columnProvided(bars []types.Bar, name types.IndicatorName) bool {
	for i := range bars {
		if bars[i].Indicator(name).IsSome() {
			return true
		}
	}

	return false
}

func setColumn(bars []types.Bar, name types.IndicatorName, values []optional.Option[float64]) {
	for i := range bars {
		bars[i].SetIndicator(name, values[i])
	}
}
