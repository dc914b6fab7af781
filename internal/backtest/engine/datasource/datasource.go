// Package datasource loads the daily bar feed and the optional model
// prediction files, joining them by date into one stream of bars.
package datasource

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/quantmill/mlbacktest/internal/types"
)

type DataSource interface {
	// Initialize loads the price file. CSV and Parquet are supported; the
	// file must carry date, close, high, and low columns, and may carry any
	// of the indicator columns.
	Initialize(path string) error
	// AttachPredictions loads the model prediction files. Either path may be
	// empty to skip that source.
	AttachPredictions(trendPath, pricePath string) error
	// ReadAll yields every bar in date order, predictions joined in.
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool)
	// Count returns the number of bars in the range.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close releases the data source.
	Close() error
}

// Collect drains ReadAll into a slice.
func Collect(ds DataSource, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error) {
	var (
		bars    []types.Bar
		iterErr error
	)

	ds.ReadAll(start, end)(func(bar types.Bar, err error) bool {
		if err != nil {
			iterErr = err

			return false
		}

		bars = append(bars, bar)

		return true
	})

	if iterErr != nil {
		return nil, iterErr
	}

	return bars, nil
}
