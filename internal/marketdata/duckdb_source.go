package marketdata

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/xwinwin/SimTradeLab/internal/logger"
	"github.com/xwinwin/SimTradeLab/internal/types"
	"github.com/xwinwin/SimTradeLab/pkg/errors"
	"go.uber.org/zap"
)

// priceBandRatio is the daily price band of a linear A-share instrument.
// A close at or beyond the rounded band boundary counts as pinned.
const priceBandRatio = 0.10

// DuckDBSource serves daily bars and dividend events from DuckDB views over
// parquet files.
type DuckDBSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBSource opens a DuckDB database at the given path. Use ":memory:"
// or the empty string for an in-memory database. Call LoadMarketData (and
// optionally LoadDividends) before serving queries.
func NewDuckDBSource(path string, logger *logger.Logger) (*DuckDBSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// LoadMarketData (re)creates the market_data view over the given parquet
// file. The file must carry time, symbol, open, high, low, close and volume
// columns.
func (d *DuckDBSource) LoadMarketData(path string) error {
	d.logger.Debug("Loading market data", zap.String("path", path))

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS market_data;`); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop market_data view", err)
	}

	// Squirrel has no CREATE VIEW support, raw SQL here.
	query := fmt.Sprintf(`
		CREATE VIEW market_data AS
		SELECT time, symbol, open, high, low, close, volume FROM read_parquet('%s');
	`, path)

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to create market_data view", err)
	}

	return nil
}

// LoadDividends (re)creates the dividends view over the given parquet file.
// The file must carry symbol, ex_date and per_share columns; per_share is the
// pre-tax cash amount.
func (d *DuckDBSource) LoadDividends(path string) error {
	d.logger.Debug("Loading dividends", zap.String("path", path))

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS dividends;`); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop dividends view", err)
	}

	query := fmt.Sprintf(`
		CREATE VIEW dividends AS
		SELECT symbol, ex_date, per_share FROM read_parquet('%s');
	`, path)

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to create dividends view", err)
	}

	return nil
}

// Bar implements PriceSource.
func (d *DuckDBSource) Bar(symbol string, date time.Time) (types.Bar, error) {
	query, args, err := d.sq.
		Select("time", "symbol", "open", "high", "low", "close", "volume").
		From("market_data").
		Where(squirrel.And{
			squirrel.Eq{"symbol": symbol},
			squirrel.Eq{"time": date},
		}).
		ToSql()
	if err != nil {
		return types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build bar query", err)
	}

	bar, err := scanBar(d.db.QueryRow(query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return types.Bar{}, errors.Newf(errors.ErrCodeDataNotFound,
				"no bar for symbol %s on %s", symbol, date.Format("2006-01-02"))
		}

		return types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err)
	}

	return bar, nil
}

// History implements PriceSource. Returns fewer than count bars when the data
// starts late; that is not an error.
func (d *DuckDBSource) History(symbol string, end time.Time, count int) ([]types.Bar, error) {
	query, args, err := d.sq.
		Select("time", "symbol", "open", "high", "low", "close", "volume").
		From("market_data").
		Where(squirrel.And{
			squirrel.Eq{"symbol": symbol},
			squirrel.LtOrEq{"time": end},
		}).
		OrderBy("time DESC").
		Limit(uint64(count)).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build history query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query history", err)
	}
	defer rows.Close()

	result := make([]types.Bar, 0, count)

	for rows.Next() {
		bar, err := scanBar(rows)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan history row", err)
		}

		result = append(result, bar)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating history rows", err)
	}

	// Chronological order, oldest first.
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return result, nil
}

// LimitStatus implements PriceSource. The band is computed against the
// previous trading day's close, rounded to two decimals the way exchange
// price limits are published. The first bar of a symbol has no reference
// close and is never pinned.
func (d *DuckDBSource) LimitStatus(symbol string, date time.Time) (types.LimitStatus, error) {
	bars, err := d.History(symbol, date, 2)
	if err != nil {
		return types.LimitStatusNone, err
	}

	if len(bars) < 2 {
		return types.LimitStatusNone, nil
	}

	if !bars[1].Time.Equal(date) {
		return types.LimitStatusNone, errors.Newf(errors.ErrCodeDataNotFound,
			"no bar for symbol %s on %s", symbol, date.Format("2006-01-02"))
	}

	prevClose := bars[0].Close
	current := bars[1].Close

	upLimit := roundToCents(prevClose * (1 + priceBandRatio))
	downLimit := roundToCents(prevClose * (1 - priceBandRatio))

	switch {
	case current >= upLimit:
		return types.LimitStatusUp, nil
	case current <= downLimit:
		return types.LimitStatusDown, nil
	default:
		return types.LimitStatusNone, nil
	}
}

// DividendsOn implements DividendCalendar. Returns nil when no dividends view
// is loaded.
func (d *DuckDBSource) DividendsOn(date time.Time) ([]types.DividendEvent, error) {
	if !d.hasDividends() {
		return nil, nil
	}

	query, args, err := d.sq.
		Select("symbol", "ex_date", "per_share").
		From("dividends").
		Where(squirrel.Eq{"ex_date": date}).
		OrderBy("symbol ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build dividends query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query dividends", err)
	}
	defer rows.Close()

	var events []types.DividendEvent

	for rows.Next() {
		var event types.DividendEvent
		if err := rows.Scan(&event.Symbol, &event.ExDate, &event.PerShare); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan dividend row", err)
		}

		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating dividend rows", err)
	}

	return events, nil
}

// TradingDays implements TradingCalendar.
func (d *DuckDBSource) TradingDays(start, end time.Time) ([]time.Time, error) {
	query, args, err := d.sq.
		Select("DISTINCT time").
		From("market_data").
		Where(squirrel.And{
			squirrel.GtOrEq{"time": start},
			squirrel.LtOrEq{"time": end},
		}).
		OrderBy("time ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build trading days query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trading days", err)
	}
	defer rows.Close()

	var days []time.Time

	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trading day", err)
		}

		days = append(days, day)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating trading days", err)
	}

	return days, nil
}

// PreviousTradingDay implements TradingCalendar.
func (d *DuckDBSource) PreviousTradingDay(date time.Time) (optional.Option[time.Time], error) {
	query, args, err := d.sq.
		Select("MAX(time)").
		From("market_data").
		Where(squirrel.Lt{"time": date}).
		ToSql()
	if err != nil {
		return optional.None[time.Time](), errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var prev sql.NullTime
	if err := d.db.QueryRow(query, args...).Scan(&prev); err != nil {
		return optional.None[time.Time](), errors.Wrap(errors.ErrCodeQueryFailed, "failed to query previous trading day", err)
	}

	if !prev.Valid {
		return optional.None[time.Time](), nil
	}

	return optional.Some(prev.Time), nil
}

// AllSymbols implements Source.
func (d *DuckDBSource) AllSymbols() ([]string, error) {
	rows, err := d.db.Query("SELECT DISTINCT symbol FROM market_data ORDER BY symbol")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query symbols", err)
	}
	defer rows.Close()

	var symbols []string

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol", err)
		}

		symbols = append(symbols, symbol)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating symbols", err)
	}

	return symbols, nil
}

// Shutdown implements Source.
func (d *DuckDBSource) Shutdown() error {
	if d.db != nil {
		return d.db.Close()
	}

	return nil
}

func (d *DuckDBSource) hasDividends() bool {
	var name string

	err := d.db.QueryRow(
		`SELECT view_name FROM duckdb_views() WHERE view_name = 'dividends'`,
	).Scan(&name)

	return err == nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBar(row rowScanner) (types.Bar, error) {
	var bar types.Bar

	err := row.Scan(&bar.Time, &bar.Symbol, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume)
	if err != nil {
		return types.Bar{}, err
	}

	return bar, nil
}

func roundToCents(v float64) float64 {
	return math.Round(v*100) / 100
}
