package indicator

import "github.com/moznion/go-optional"

// Default RSI period.
const rsiPeriod = 14

// RSI computes the Wilder relative strength index over the close series. The
// first value appears at index period: the initial average gain and loss are
// simple means of the first period changes, and every later value applies
// Wilder smoothing. A zero average loss yields 100.
func RSI(closes []float64, period int) []optional.Option[float64] {
	out := make([]optional.Option[float64], len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	var avgGain, avgLoss float64

	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}

	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = optional.Some(rsiFrom(avgGain, avgLoss))

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]

		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = optional.Some(rsiFrom(avgGain, avgLoss))
	}

	return out
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss

	return 100 - 100/(1+rs)
}
