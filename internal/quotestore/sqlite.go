package quotestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/models"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// tsLayout is the on-disk timestamp format for quote rows.
const tsLayout = "2006-01-02 15:04:05"

// SQLiteStore implements Interface on an embedded SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *logrus.Logger
}

// Ensure SQLiteStore implements Interface at compile time.
var _ Interface = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the quote database at dbPath.
func NewSQLiteStore(dbPath string, logger *logrus.Logger) (*SQLiteStore, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for the sqlite quote store")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory %q: %w", filepath.Dir(dbPath), err)
	}

	// WAL mode for concurrent readers during the per-date fan-out.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening quote database at %q: %w", dbPath, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging quote database at %q: %w", dbPath, err)
	}

	// The Go driver benefits from a single connection; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.initializeSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing quote schema: %w", err)
	}

	logger.WithField("path", dbPath).Info("Quote database opened")
	return s, nil
}

func (s *SQLiteStore) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS option_quotes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticker TEXT NOT NULL,
		trade_date TEXT NOT NULL,
		data_timestamp TEXT NOT NULL,
		contract_right TEXT NOT NULL,
		contract_strike REAL NOT NULL,
		data_bid REAL NOT NULL,
		data_ask REAL NOT NULL,
		data_delta REAL NOT NULL,
		data_underlying_price REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_option_quotes_lookup
		ON option_quotes (ticker, trade_date, data_timestamp);
	CREATE INDEX IF NOT EXISTS idx_option_quotes_strike
		ON option_quotes (ticker, trade_date, contract_strike);`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// TradeDates returns all distinct trade dates for the ticker, ascending,
// excluding the given weekdays.
func (s *SQLiteStore) TradeDates(ctx context.Context, ticker string, excluded []time.Weekday) ([]string, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT DISTINCT trade_date FROM option_quotes WHERE ticker = ?`)
	args := []interface{}{ticker}
	for _, wd := range excluded {
		// strftime('%w') matches time.Weekday numbering (Sunday = 0)
		sb.WriteString(` AND strftime('%w', trade_date) != ?`)
		args = append(args, fmt.Sprintf("%d", int(wd)))
	}
	sb.WriteString(` ORDER BY trade_date`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying trade dates for %s: %w", ticker, err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scanning trade date: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trade dates: %w", err)
	}
	return dates, nil
}

// EntrySnapshot returns the quotes in the 5-minute window ending at entryTime.
func (s *SQLiteStore) EntrySnapshot(ctx context.Context, ticker, tradeDate, entryTime string) ([]models.Quote, error) {
	end, err := time.Parse(ClockLayout, entryTime)
	if err != nil {
		return nil, fmt.Errorf("parsing entry time %q: %w", entryTime, err)
	}
	start := end.Add(-EntryWindow)

	const q = `
	SELECT data_timestamp, contract_right, contract_strike,
	       data_bid, data_ask, data_delta, data_underlying_price
	FROM option_quotes
	WHERE ticker = ? AND trade_date = ?
	  AND strftime('%H:%M:%S', data_timestamp) BETWEEN ? AND ?
	  AND data_bid > 0 AND data_ask > 0
	ORDER BY data_timestamp`

	return s.queryQuotes(ctx, q, ticker, tradeDate,
		start.Format("15:04:05"), end.Format("15:04:05"))
}

// ExitWindow returns quotes for the four selected strikes strictly after the
// entry timestamp and at-or-before the hard-exit time.
func (s *SQLiteStore) ExitWindow(ctx context.Context, ticker, tradeDate string, strikes []float64,
	afterTS time.Time, hardExitTime string) ([]models.Quote, error) {
	if len(strikes) == 0 {
		return nil, fmt.Errorf("exit window requires at least one strike")
	}
	if _, err := time.Parse(ClockLayout, hardExitTime); err != nil {
		return nil, fmt.Errorf("parsing hard exit time %q: %w", hardExitTime, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(strikes)), ",")
	q := fmt.Sprintf(`
	SELECT data_timestamp, contract_right, contract_strike,
	       data_bid, data_ask, data_delta, data_underlying_price
	FROM option_quotes
	WHERE ticker = ? AND trade_date = ?
	  AND contract_strike IN (%s)
	  AND strftime('%%H:%%M:%%S', data_timestamp) > ?
	  AND strftime('%%H:%%M:%%S', data_timestamp) <= ?
	  AND data_bid > 0 AND data_ask > 0
	ORDER BY data_timestamp`, placeholders)

	args := []interface{}{ticker, tradeDate}
	for _, strike := range strikes {
		args = append(args, strike)
	}
	args = append(args, afterTS.Format("15:04:05"), hardExitTime+":00")

	return s.queryQuotes(ctx, q, args...)
}

func (s *SQLiteStore) queryQuotes(ctx context.Context, query string, args ...interface{}) ([]models.Quote, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying quotes: %w", err)
	}
	defer rows.Close()

	var quotes []models.Quote
	for rows.Next() {
		var (
			ts    string
			right string
			q     models.Quote
		)
		if err := rows.Scan(&ts, &right, &q.Strike, &q.Bid, &q.Ask, &q.Delta, &q.Underlying); err != nil {
			return nil, fmt.Errorf("scanning quote row: %w", err)
		}
		q.Timestamp, err = time.Parse(tsLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing quote timestamp %q: %w", ts, err)
		}
		q.Right = models.Right(right)
		// Validate at the store boundary so the engine never sees a malformed row.
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("invalid quote row at %s: %w", ts, err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating quote rows: %w", err)
	}
	return quotes, nil
}

// InsertQuotes bulk-loads quotes for a ticker. The trade date is derived
// from each quote's timestamp. Used by ingestion tooling and tests; not
// part of the read Interface.
func (s *SQLiteStore) InsertQuotes(ctx context.Context, ticker string, quotes []models.Quote) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning insert transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO option_quotes
		(ticker, trade_date, data_timestamp, contract_right, contract_strike,
		 data_bid, data_ask, data_delta, data_underlying_price)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, q := range quotes {
		if err := q.Validate(); err != nil {
			tx.Rollback()
			return fmt.Errorf("refusing to insert invalid quote: %w", err)
		}
		_, err := stmt.ExecContext(ctx,
			ticker,
			q.Timestamp.Format(models.TradeDateLayout),
			q.Timestamp.Format(tsLayout),
			string(q.Right),
			q.Strike,
			q.Bid,
			q.Ask,
			q.Delta,
			q.Underlying,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting quote: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing quote insert: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"ticker": ticker, "count": len(quotes)}).Debug("Inserted quotes")
	return nil
}
