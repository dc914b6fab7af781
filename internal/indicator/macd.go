package indicator

import "github.com/moznion/go-optional"

// Default MACD periods.
const (
	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	macdSignalPeriod = 9
)

// MACD computes the MACD line, its signal line, and the histogram over the
// close series. The MACD line is the fast EMA minus the slow EMA and becomes
// defined once the slow EMA is; the signal line is an EMA of the MACD line
// seeded the same way, so it lags by another signalPeriod-1 positions. The
// histogram is defined wherever both lines are.
func MACD(closes []float64, fast, slow, signalPeriod int) (line, signal, hist []optional.Option[float64]) {
	n := len(closes)
	line = make([]optional.Option[float64], n)
	signal = make([]optional.Option[float64], n)
	hist = make([]optional.Option[float64], n)

	if fast <= 0 || slow <= 0 || signalPeriod <= 0 || fast >= slow || n < slow {
		return line, signal, hist
	}

	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	macdValues := make([]float64, 0, n-slow+1)

	for i := slow - 1; i < n; i++ {
		v := fastEMA[i].Unwrap() - slowEMA[i].Unwrap()
		line[i] = optional.Some(v)
		macdValues = append(macdValues, v)
	}

	signalValues := EMA(macdValues, signalPeriod)
	for j, v := range signalValues {
		if v.IsNone() {
			continue
		}

		i := slow - 1 + j
		signal[i] = v
		hist[i] = optional.Some(line[i].Unwrap() - v.Unwrap())
	}

	return line, signal, hist
}
