package types

import (
	"math"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/quantmill/mlbacktest/pkg/errors"
)

type BarTestSuite struct {
	suite.Suite
}

func TestBarSuite(t *testing.T) {
	suite.Run(t, new(BarTestSuite))
}

func day(d int) time.Time {
	return time.Date(2023, 1, d, 0, 0, 0, 0, time.UTC)
}

func validBar(d int) Bar {
	return Bar{
		Date:  day(d),
		Close: 100,
		High:  101,
		Low:   99,
	}
}

func (suite *BarTestSuite) TestIndicatorAccessor() {
	bar := validBar(1)
	bar.SMA50 = optional.Some(95.0)
	bar.RSI = optional.Some(38.5)

	suite.Equal(95.0, bar.Indicator(IndicatorSMA50).Unwrap())
	suite.Equal(38.5, bar.Indicator(IndicatorRSI).Unwrap())
	suite.True(bar.Indicator(IndicatorSMA200).IsNone())
	suite.True(bar.Indicator(IndicatorName("bogus")).IsNone())
}

func (suite *BarTestSuite) TestSetIndicatorRoundTrip() {
	bar := validBar(1)

	for _, name := range AllIndicators {
		suite.True(bar.Indicator(name).IsNone())
		bar.SetIndicator(name, optional.Some(42.0))
		suite.Equal(42.0, bar.Indicator(name).Unwrap(), string(name))
	}
}

func (suite *BarTestSuite) TestHasPrediction() {
	bar := validBar(1)
	suite.False(bar.HasPrediction())

	bar.TrendPrediction = optional.Some(0.5)
	suite.True(bar.HasPrediction())

	bar = validBar(1)
	bar.PricePrediction = optional.Some(105.0)
	suite.True(bar.HasPrediction())
}

func (suite *BarTestSuite) TestValidateBarFeed() {
	nan := math.NaN()

	tests := []struct {
		name     string
		bars     []Bar
		wantCode errors.ErrorCode
	}{
		{
			name:     "empty feed",
			bars:     nil,
			wantCode: errors.ErrCodeEmptyBarFeed,
		},
		{
			name:     "single valid bar",
			bars:     []Bar{validBar(1)},
			wantCode: 0,
		},
		{
			name:     "ascending dates",
			bars:     []Bar{validBar(1), validBar(2), validBar(3)},
			wantCode: 0,
		},
		{
			name:     "duplicate date",
			bars:     []Bar{validBar(1), validBar(1)},
			wantCode: errors.ErrCodeDuplicateBarDate,
		},
		{
			name:     "descending date",
			bars:     []Bar{validBar(2), validBar(1)},
			wantCode: errors.ErrCodeUnorderedBarFeed,
		},
		{
			name:     "missing close",
			bars:     []Bar{{Date: day(1), Close: nan, High: 101, Low: 99}},
			wantCode: errors.ErrCodeMissingPrice,
		},
		{
			name:     "non-positive low",
			bars:     []Bar{{Date: day(1), Close: 100, High: 101, Low: 0}},
			wantCode: errors.ErrCodeMissingPrice,
		},
		{
			name:     "zero date",
			bars:     []Bar{{Close: 100, High: 101, Low: 99}},
			wantCode: errors.ErrCodeMissingPrice,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			err := ValidateBarFeed(tc.bars)
			if tc.wantCode == 0 {
				suite.NoError(err)
			} else {
				suite.Error(err)
				suite.True(errors.HasCode(err, tc.wantCode), "got %v", err)
				suite.True(errors.IsInputError(err))
			}
		})
	}
}

func (suite *BarTestSuite) TestValidateBarFeedReportsOffendingDate() {
	bars := []Bar{validBar(1), validBar(5), validBar(3)}
	err := ValidateBarFeed(bars)
	suite.Error(err)
	suite.Contains(err.Error(), "2023-01-03")
	suite.Contains(err.Error(), "2023-01-05")
}
