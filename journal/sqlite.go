package journal

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id      TEXT PRIMARY KEY,
	symbol        TEXT NOT NULL,
	side          TEXT NOT NULL,
	contracts     INTEGER NOT NULL,
	entry_time    TIMESTAMP NOT NULL,
	exit_time     TIMESTAMP NOT NULL,
	entry_price   REAL NOT NULL,
	exit_price    REAL NOT NULL,
	stop_points   REAL NOT NULL,
	take_points   REAL NOT NULL,
	result_points REAL NOT NULL,
	result_reais  REAL NOT NULL,
	regime        TEXT NOT NULL,
	exit_reason   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_exit_time ON trades(exit_time);

CREATE TABLE IF NOT EXISTS equity (
	time             TIMESTAMP NOT NULL,
	equity_reais     REAL NOT NULL,
	expectancy_reais REAL NOT NULL
);
`

// SQLiteJournal stores trades and equity in a local SQLite database so
// the report command can rebuild any day after the fact.
type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, symbol, side, contracts, entry_time, exit_time,
		 entry_price, exit_price, stop_points, take_points,
		 result_points, result_reais, regime, exit_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Symbol, t.Side, t.Contracts, t.EntryTime, t.ExitTime,
		t.EntryPrice, t.ExitPrice, t.StopPoints, t.TakePoints,
		t.ResultPoints, t.ResultReais, t.Regime, t.ExitReason,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquityPoint) error {
	_, err := j.db.Exec(`
		INSERT INTO equity (time, equity_reais, expectancy_reais)
		VALUES (?, ?, ?)`,
		e.Time, e.EquityReais, e.ExpectancyReais,
	)
	return err
}

// ListTradesClosedBetween returns trades with exit_time in [from, to),
// ordered by exit time.
func (j *SQLiteJournal) ListTradesClosedBetween(from, to time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, symbol, side, contracts, entry_time, exit_time,
		       entry_price, exit_price, stop_points, take_points,
		       result_points, result_reais, regime, exit_reason
		FROM trades
		WHERE exit_time >= ? AND exit_time < ?
		ORDER BY exit_time`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(
			&t.TradeID, &t.Symbol, &t.Side, &t.Contracts,
			&t.EntryTime, &t.ExitTime, &t.EntryPrice, &t.ExitPrice,
			&t.StopPoints, &t.TakePoints, &t.ResultPoints, &t.ResultReais,
			&t.Regime, &t.ExitReason,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
