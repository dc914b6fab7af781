// Package indicator computes the technical columns a bar feed may be missing:
// simple and exponential moving averages, MACD, Wilder RSI, and Bollinger
// bands. All functions are batch computations over the full close series;
// warm-up positions where a value is not yet defined are returned as None.
package indicator

import (
	"math"

	"github.com/moznion/go-optional"
)

// SMA returns the simple moving average of values with the given period.
// Positions before period-1 are None.
func SMA(values []float64, period int) []optional.Option[float64] {
	out := make([]optional.Option[float64], len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}

		if i >= period-1 {
			out[i] = optional.Some(sum / float64(period))
		}
	}

	return out
}

// EMA returns the exponential moving average of values with the given period.
// The series is seeded with the simple average of the first period values,
// so positions before period-1 are None.
func EMA(values []float64, period int) []optional.Option[float64] {
	out := make([]optional.Option[float64], len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	var seed float64
	for _, v := range values[:period] {
		seed += v
	}

	ema := seed / float64(period)
	out[period-1] = optional.Some(ema)

	k := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*k + ema
		out[i] = optional.Some(ema)
	}

	return out
}

// stdDev returns the sample standard deviation of values.
func stdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	mean := sum / float64(n)

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}

	return math.Sqrt(sq / float64(n-1))
}
