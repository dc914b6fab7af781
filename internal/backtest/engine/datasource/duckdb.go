package datasource

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/quantmill/mlbacktest/internal/logger"
	"github.com/quantmill/mlbacktest/internal/types"
	"github.com/quantmill/mlbacktest/pkg/errors"
)

// requiredColumns must all be present in the price file.
var requiredColumns = []string{"date", "close", "high", "low"}

// DuckDBDataSource reads the price and prediction files through DuckDB views,
// which gives CSV and Parquet support and the date join for free.
type DuckDBDataSource struct {
	db  *sql.DB
	log *logger.Logger

	// indicatorCols are the indicator columns the price file carries.
	indicatorCols []types.IndicatorName
	hasTrend      bool
	hasPrice      bool
}

// NewDuckDBDataSource opens an in-memory database.
func NewDuckDBDataSource(log *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBarFeedUnavailable, "failed to open database", err)
	}

	return &DuckDBDataSource{
		db:  db,
		log: log,
	}, nil
}

// readerFor picks the DuckDB table function for a data file by extension.
func readerFor(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".parquet") {
		return fmt.Sprintf("read_parquet('%s')", path)
	}

	return fmt.Sprintf("read_csv_auto('%s', header=true)", path)
}

// Initialize implements DataSource.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.log.Debug("initializing bar feed", zap.String("path", path))

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS bars_source;`); err != nil {
		return errors.Wrap(errors.ErrCodeBarFeedUnavailable, "failed to drop existing view", err)
	}

	// CREATE VIEW has no placeholder support.
	query := fmt.Sprintf(`CREATE VIEW bars_source AS SELECT * FROM %s;`, readerFor(path))
	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeBarFeedUnavailable, err, "failed to load price file %s", path)
	}

	columns, err := d.viewColumns("bars_source")
	if err != nil {
		return err
	}

	for _, required := range requiredColumns {
		if !columns[required] {
			return errors.Newf(errors.ErrCodeBarFeedUnavailable,
				"price file %s lacks required column %q", path, required)
		}
	}

	d.indicatorCols = d.indicatorCols[:0]

	for _, name := range types.AllIndicators {
		if columns[strings.ToLower(string(name))] {
			d.indicatorCols = append(d.indicatorCols, name)
		}
	}

	d.log.Debug("detected indicator columns", zap.Int("count", len(d.indicatorCols)))

	return nil
}

// AttachPredictions implements DataSource.
func (d *DuckDBDataSource) AttachPredictions(trendPath, pricePath string) error {
	var err error

	d.hasTrend, err = d.attachPrediction("trend_predictions", trendPath, "trend_prediction")
	if err != nil {
		return err
	}

	d.hasPrice, err = d.attachPrediction("price_predictions", pricePath, "price_prediction")
	if err != nil {
		return err
	}

	return nil
}

func (d *DuckDBDataSource) attachPrediction(view, path, valueColumn string) (bool, error) {
	if _, err := d.db.Exec(fmt.Sprintf(`DROP VIEW IF EXISTS %s;`, view)); err != nil {
		return false, errors.Wrap(errors.ErrCodePredictionLoadFailed, "failed to drop existing view", err)
	}

	if path == "" {
		return false, nil
	}

	query := fmt.Sprintf(`CREATE VIEW %s AS SELECT * FROM %s;`, view, readerFor(path))
	if _, err := d.db.Exec(query); err != nil {
		return false, errors.Wrapf(errors.ErrCodePredictionLoadFailed, err, "failed to load prediction file %s", path)
	}

	columns, err := d.viewColumns(view)
	if err != nil {
		return false, err
	}

	if !columns["date"] || !columns[valueColumn] {
		return false, errors.Newf(errors.ErrCodePredictionLoadFailed,
			"prediction file %s must carry date and %s columns", path, valueColumn)
	}

	d.log.Debug("attached prediction source", zap.String("path", path), zap.String("column", valueColumn))

	return true, nil
}

func (d *DuckDBDataSource) viewColumns(view string) (map[string]bool, error) {
	rows, err := d.db.Query(
		`SELECT column_name FROM information_schema.columns WHERE table_name = ?`, view)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBarFeedQueryFailed, "failed to inspect columns", err)
	}
	defer rows.Close()

	columns := make(map[string]bool)

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeBarFeedQueryFailed, "failed to scan column name", err)
		}

		columns[strings.ToLower(name)] = true
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBarFeedQueryFailed, "failed to list columns", err)
	}

	return columns, nil
}

// barQuery builds the join query and the date-range predicate arguments.
func (d *DuckDBDataSource) barQuery(selectList string, start, end optional.Option[time.Time]) (string, []any) {
	var sb strings.Builder

	sb.WriteString("SELECT ")
	sb.WriteString(selectList)
	sb.WriteString(" FROM bars_source b")

	if d.hasTrend {
		sb.WriteString(" LEFT JOIN trend_predictions t ON CAST(b.date AS TIMESTAMP) = CAST(t.date AS TIMESTAMP)")
	}

	if d.hasPrice {
		sb.WriteString(" LEFT JOIN price_predictions p ON CAST(b.date AS TIMESTAMP) = CAST(p.date AS TIMESTAMP)")
	}

	var (
		conditions []string
		args       []any
	)

	if start.IsSome() {
		conditions = append(conditions, "CAST(b.date AS TIMESTAMP) >= ?")
		args = append(args, start.Unwrap())
	}

	if end.IsSome() {
		conditions = append(conditions, "CAST(b.date AS TIMESTAMP) <= ?")
		args = append(args, end.Unwrap())
	}

	if len(conditions) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conditions, " AND "))
	}

	return sb.String(), args
}

// ReadAll implements DataSource.
func (d *DuckDBDataSource) ReadAll(start, end optional.Option[time.Time]) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		selectList := "CAST(b.date AS TIMESTAMP), b.close, b.high, b.low"
		for _, name := range d.indicatorCols {
			selectList += ", b." + string(name)
		}

		if d.hasTrend {
			selectList += ", t.trend_prediction"
		}

		if d.hasPrice {
			selectList += ", p.price_prediction"
		}

		query, args := d.barQuery(selectList, start, end)
		query += " ORDER BY b.date ASC"

		rows, err := d.db.Query(query, args...)
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeBarFeedQueryFailed, "failed to query bars", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			bar, err := d.scanBar(rows)
			if err != nil {
				yield(types.Bar{}, err)

				return
			}

			if !yield(bar, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeBarFeedQueryFailed, "failed to iterate bars", err))
		}
	}
}

func (d *DuckDBDataSource) scanBar(rows *sql.Rows) (types.Bar, error) {
	var bar types.Bar

	dest := []any{&bar.Date, &bar.Close, &bar.High, &bar.Low}

	optionals := make([]sql.NullFloat64, len(d.indicatorCols)+2)
	for i := range d.indicatorCols {
		dest = append(dest, &optionals[i])
	}

	next := len(d.indicatorCols)
	if d.hasTrend {
		dest = append(dest, &optionals[next])
	}

	if d.hasPrice {
		dest = append(dest, &optionals[next+1])
	}

	if err := rows.Scan(dest...); err != nil {
		return types.Bar{}, errors.Wrap(errors.ErrCodeBarFeedQueryFailed, "failed to scan bar", err)
	}

	for i, name := range d.indicatorCols {
		if optionals[i].Valid {
			bar.SetIndicator(name, optional.Some(optionals[i].Float64))
		}
	}

	if d.hasTrend && optionals[next].Valid {
		bar.TrendPrediction = optional.Some(optionals[next].Float64)
	}

	if d.hasPrice && optionals[next+1].Valid {
		bar.PricePrediction = optional.Some(optionals[next+1].Float64)
	}

	return bar, nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start, end optional.Option[time.Time]) (int, error) {
	query, args := d.barQuery("COUNT(*)", start, end)

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeBarFeedQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}
