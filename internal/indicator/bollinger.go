package indicator

import "github.com/moznion/go-optional"

// Default Bollinger band parameters.
const (
	bollingerPeriod = 20
	bollingerWidth  = 2.0
)

// Bollinger computes the middle, upper, and lower Bollinger bands over the
// close series. The middle band is the simple moving average; the upper and
// lower bands sit width sample standard deviations above and below it.
func Bollinger(closes []float64, period int, width float64) (upper, middle, lower []optional.Option[float64]) {
	n := len(closes)
	upper = make([]optional.Option[float64], n)
	middle = SMA(closes, period)
	lower = make([]optional.Option[float64], n)

	if period <= 1 || n < period {
		return upper, middle, lower
	}

	for i := period - 1; i < n; i++ {
		sd := stdDev(closes[i-period+1 : i+1])
		mid := middle[i].Unwrap()
		upper[i] = optional.Some(mid + width*sd)
		lower[i] = optional.Some(mid - width*sd)
	}

	return upper, middle, lower
}
