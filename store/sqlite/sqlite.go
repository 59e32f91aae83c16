// Package sqlite keeps candles, fills and sweep results in a single SQLite
// file so a sweep can be replayed offline and compared across runs.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/evdnx/gridbt/tradelog"
	"github.com/evdnx/gridbt/types"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps a SQLite connection with the gridbt schema.
type Store struct {
	db *sql.DB
}

var _ tradelog.Sink = (*TradeSink)(nil)

// Open creates or opens the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// Single writer; readers share the same connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS candles (
			symbol   TEXT    NOT NULL,
			interval TEXT    NOT NULL,
			ts       INTEGER NOT NULL,
			open     REAL    NOT NULL,
			high     REAL    NOT NULL,
			low      REAL    NOT NULL,
			close    REAL    NOT NULL,
			volume   REAL,
			PRIMARY KEY (symbol, interval, ts)
		);

		CREATE TABLE IF NOT EXISTS trades (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id   TEXT    NOT NULL,
			ts       INTEGER NOT NULL,
			side     TEXT    NOT NULL,
			price    REAL    NOT NULL,
			quantity REAL    NOT NULL,
			fee      REAL    NOT NULL,
			reason   TEXT
		);

		CREATE TABLE IF NOT EXISTS sweep_results (
			run_id           TEXT    NOT NULL,
			buy_threshold    REAL    NOT NULL,
			sell_threshold   REAL    NOT NULL,
			final_balance    REAL    NOT NULL,
			profit_pct       REAL    NOT NULL,
			max_drawdown_pct REAL    NOT NULL,
			trades_count     INTEGER NOT NULL,
			equity_curve     TEXT    NOT NULL,
			PRIMARY KEY (run_id, buy_threshold, sell_threshold)
		);
	`)
	return err
}

// SaveBars upserts candles in one transaction.
func (s *Store) SaveBars(symbol, interval string, bars []types.Bar) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO candles (symbol, interval, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.Exec(symbol, interval, b.Timestamp, b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite insert candle: %w", err)
		}
	}
	return tx.Commit()
}

// Bars reads every stored candle for symbol/interval, oldest first.
func (s *Store) Bars(symbol, interval string) ([]types.Bar, error) {
	rows, err := s.db.Query(`
		SELECT ts, open, high, low, close, COALESCE(volume, 0)
		FROM candles
		WHERE symbol = ? AND interval = ?
		ORDER BY ts ASC
	`, symbol, interval)
	if err != nil {
		return nil, fmt.Errorf("sqlite query candles: %w", err)
	}
	defer rows.Close()

	var bars []types.Bar
	for rows.Next() {
		var b types.Bar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("sqlite scan candle: %w", err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// SaveResults stores every grid point of a sweep under runID.
func (s *Store) SaveResults(runID string, results []types.SweepResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO sweep_results
			(run_id, buy_threshold, sell_threshold, final_balance, profit_pct, max_drawdown_pct, trades_count, equity_curve)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range results {
		curve, err := json.Marshal(r.EquityCurve)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("marshal equity curve: %w", err)
		}
		if _, err := stmt.Exec(runID, r.BuyThreshold, r.SellThreshold, r.FinalBalance,
			r.ProfitPct, r.MaxDrawdownPct, r.TradesCount, string(curve)); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite insert result: %w", err)
		}
	}
	return tx.Commit()
}

// Results loads a stored sweep ordered like the grid (buy, then sell).
func (s *Store) Results(runID string) ([]types.SweepResult, error) {
	rows, err := s.db.Query(`
		SELECT buy_threshold, sell_threshold, final_balance, profit_pct, max_drawdown_pct, trades_count, equity_curve
		FROM sweep_results
		WHERE run_id = ?
		ORDER BY buy_threshold ASC, sell_threshold ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("sqlite query results: %w", err)
	}
	defer rows.Close()

	var out []types.SweepResult
	for rows.Next() {
		var r types.SweepResult
		var curve string
		if err := rows.Scan(&r.BuyThreshold, &r.SellThreshold, &r.FinalBalance, &r.ProfitPct,
			&r.MaxDrawdownPct, &r.TradesCount, &curve); err != nil {
			return nil, fmt.Errorf("sqlite scan result: %w", err)
		}
		if err := json.Unmarshal([]byte(curve), &r.EquityCurve); err != nil {
			return nil, fmt.Errorf("unmarshal equity curve: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunIDs lists every sweep stored so far.
func (s *Store) RunIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT run_id FROM sweep_results ORDER BY run_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query run ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TradeSink returns a trade log bound to runID.
func (s *Store) TradeSink(runID string) *TradeSink {
	return &TradeSink{db: s.db, runID: runID}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// TradeSink appends fills to the trades table for one run id.
type TradeSink struct {
	db    *sql.DB
	runID string
}

// Reset drops every fill previously logged under the same run id.
func (t *TradeSink) Reset() error {
	_, err := t.db.Exec(`DELETE FROM trades WHERE run_id = ?`, t.runID)
	if err != nil {
		return fmt.Errorf("sqlite reset trades: %w", err)
	}
	return nil
}

func (t *TradeSink) Append(recs ...types.TradeRecord) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := t.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO trades (run_id, ts, side, price, quantity, fee, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range recs {
		if _, err := stmt.Exec(t.runID, r.Timestamp, string(r.Side), r.Price, r.Quantity, r.Fee, r.Reason); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite insert trade: %w", err)
		}
	}
	return tx.Commit()
}

// Trades returns the fills logged under the sink's run id in insert order.
func (t *TradeSink) Trades() ([]types.TradeRecord, error) {
	rows, err := t.db.Query(`
		SELECT ts, side, price, quantity, fee, COALESCE(reason, '')
		FROM trades WHERE run_id = ? ORDER BY id ASC
	`, t.runID)
	if err != nil {
		return nil, fmt.Errorf("sqlite query trades: %w", err)
	}
	defer rows.Close()

	var out []types.TradeRecord
	for rows.Next() {
		var r types.TradeRecord
		var side string
		if err := rows.Scan(&r.Timestamp, &side, &r.Price, &r.Quantity, &r.Fee, &r.Reason); err != nil {
			return nil, fmt.Errorf("sqlite scan trade: %w", err)
		}
		r.Side = types.Side(side)
		out = append(out, r)
	}
	return out, rows.Err()
}
