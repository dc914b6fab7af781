package types

import (
	"math"
	"time"

	"github.com/moznion/go-optional"
	"github.com/quantmill/mlbacktest/pkg/errors"
)

// IndicatorName identifies a per-bar indicator column.
type IndicatorName string

const (
	IndicatorSMA10    IndicatorName = "SMA10"
	IndicatorSMA20    IndicatorName = "SMA20"
	IndicatorSMA50    IndicatorName = "SMA50"
	IndicatorSMA100   IndicatorName = "SMA100"
	IndicatorSMA200   IndicatorName = "SMA200"
	IndicatorMACD     IndicatorName = "MACD"
	IndicatorMACDSig  IndicatorName = "MACD_signal"
	IndicatorMACDHist IndicatorName = "MACD_hist"
	IndicatorRSI      IndicatorName = "RSI"
	IndicatorBBUpper  IndicatorName = "BB_upper"
	IndicatorBBMiddle IndicatorName = "BB_middle"
	IndicatorBBLower  IndicatorName = "BB_lower"
)

// AllIndicators lists every indicator column a bar may carry.
var AllIndicators = []IndicatorName{
	IndicatorSMA10, IndicatorSMA20, IndicatorSMA50, IndicatorSMA100, IndicatorSMA200,
	IndicatorMACD, IndicatorMACDSig, IndicatorMACDHist,
	IndicatorRSI,
	IndicatorBBUpper, IndicatorBBMiddle, IndicatorBBLower,
}

// Bar is one trading day: close/high/low prices, the precomputed indicator
// columns, and up to two optional model prediction values aligned to the same
// date. Missing indicator or prediction values are explicit (None), never zero.
type Bar struct {
	Date  time.Time `yaml:"date" json:"date" csv:"date" validate:"required"`
	Close float64   `yaml:"close" json:"close" csv:"close" validate:"required,gt=0"`
	High  float64   `yaml:"high" json:"high" csv:"high" validate:"required,gt=0"`
	Low   float64   `yaml:"low" json:"low" csv:"low" validate:"required,gt=0"`

	SMA10  optional.Option[float64] `yaml:"sma10" json:"sma10" csv:"sma10"`
	SMA20  optional.Option[float64] `yaml:"sma20" json:"sma20" csv:"sma20"`
	SMA50  optional.Option[float64] `yaml:"sma50" json:"sma50" csv:"sma50"`
	SMA100 optional.Option[float64] `yaml:"sma100" json:"sma100" csv:"sma100"`
	SMA200 optional.Option[float64] `yaml:"sma200" json:"sma200" csv:"sma200"`

	MACD       optional.Option[float64] `yaml:"macd" json:"macd" csv:"macd"`
	MACDSignal optional.Option[float64] `yaml:"macd_signal" json:"macd_signal" csv:"macd_signal"`
	MACDHist   optional.Option[float64] `yaml:"macd_hist" json:"macd_hist" csv:"macd_hist"`

	RSI optional.Option[float64] `yaml:"rsi" json:"rsi" csv:"rsi"`

	BBUpper  optional.Option[float64] `yaml:"bb_upper" json:"bb_upper" csv:"bb_upper"`
	BBMiddle optional.Option[float64] `yaml:"bb_middle" json:"bb_middle" csv:"bb_middle"`
	BBLower  optional.Option[float64] `yaml:"bb_lower" json:"bb_lower" csv:"bb_lower"`

	// TrendPrediction is the model-predicted next-day delta of the smoothed
	// trend indicator. Positive means bullish.
	TrendPrediction optional.Option[float64] `yaml:"trend_prediction" json:"trend_prediction" csv:"trend_prediction"`
	// PricePrediction is the model-predicted absolute next-day price.
	PricePrediction optional.Option[float64] `yaml:"price_prediction" json:"price_prediction" csv:"price_prediction"`
}

// Indicator returns the named indicator column of the bar. Unknown names
// return None, the same as a missing value.
func (b *Bar) Indicator(name IndicatorName) optional.Option[float64] {
	switch name {
	case IndicatorSMA10:
		return b.SMA10
	case IndicatorSMA20:
		return b.SMA20
	case IndicatorSMA50:
		return b.SMA50
	case IndicatorSMA100:
		return b.SMA100
	case IndicatorSMA200:
		return b.SMA200
	case IndicatorMACD:
		return b.MACD
	case IndicatorMACDSig:
		return b.MACDSignal
	case IndicatorMACDHist:
		return b.MACDHist
	case IndicatorRSI:
		return b.RSI
	case IndicatorBBUpper:
		return b.BBUpper
	case IndicatorBBMiddle:
		return b.BBMiddle
	case IndicatorBBLower:
		return b.BBLower
	default:
		return optional.None[float64]()
	}
}

// SetIndicator assigns the named indicator column of the bar. Unknown names
// are ignored.
func (b *Bar) SetIndicator(name IndicatorName, value optional.Option[float64]) {
	switch name {
	case IndicatorSMA10:
		b.SMA10 = value
	case IndicatorSMA20:
		b.SMA20 = value
	case IndicatorSMA50:
		b.SMA50 = value
	case IndicatorSMA100:
		b.SMA100 = value
	case IndicatorSMA200:
		b.SMA200 = value
	case IndicatorMACD:
		b.MACD = value
	case IndicatorMACDSig:
		b.MACDSignal = value
	case IndicatorMACDHist:
		b.MACDHist = value
	case IndicatorRSI:
		b.RSI = value
	case IndicatorBBUpper:
		b.BBUpper = value
	case IndicatorBBMiddle:
		b.BBMiddle = value
	case IndicatorBBLower:
		b.BBLower = value
	}
}

// HasPrediction reports whether at least one prediction source is present.
func (b *Bar) HasPrediction() bool {
	return b.TrendPrediction.IsSome() || b.PricePrediction.IsSome()
}

// ValidateBarFeed checks the contract of an assembled bar sequence: non-empty,
// strictly ascending dates with no duplicates, and finite positive prices on
// every bar. It fails fast with the offending date so no partial run is ever
// produced from a malformed feed.
func ValidateBarFeed(bars []Bar) error {
	if len(bars) == 0 {
		return errors.New(errors.ErrCodeEmptyBarFeed, "bar feed is empty")
	}

	for i := range bars {
		bar := &bars[i]
		if bar.Date.IsZero() {
			return errors.Newf(errors.ErrCodeMissingPrice, "bar %d has no date", i)
		}

		if !validPrice(bar.Close) || !validPrice(bar.High) || !validPrice(bar.Low) {
			return errors.Newf(errors.ErrCodeMissingPrice,
				"bar %s has a missing or non-positive price field", bar.Date.Format("2006-01-02"))
		}

		if i == 0 {
			continue
		}

		prev := bars[i-1].Date
		if bar.Date.Equal(prev) {
			return errors.Newf(errors.ErrCodeDuplicateBarDate,
				"duplicate bar date %s", bar.Date.Format("2006-01-02"))
		}

		if bar.Date.Before(prev) {
			return errors.Newf(errors.ErrCodeUnorderedBarFeed,
				"bar %s out of order after %s",
				bar.Date.Format("2006-01-02"), prev.Format("2006-01-02"))
		}
	}

	return nil
}

func validPrice(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
