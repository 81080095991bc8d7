package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"InvestorHelper/internal/model"
)

// SQLiteRecorder stores wallets, holdings and valuation history in a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
// ":memory:" opens a private in-memory database.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	// WAL mode for concurrent reads while valuations are recorded.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS wallets (
			id         TEXT PRIMARY KEY,
			name       TEXT,
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS holdings (
			wallet_id           TEXT NOT NULL REFERENCES wallets(id),
			symbol              TEXT NOT NULL,
			quantity            REAL NOT NULL,
			cost_basis_per_unit REAL NOT NULL,
			acquired_at         INTEGER,
			currency_code       TEXT,
			sector              TEXT,
			display_name        TEXT,
			PRIMARY KEY (wallet_id, symbol)
		)`,

		`CREATE TABLE IF NOT EXISTS valuation_snapshots (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			wallet_id       TEXT NOT NULL,
			timeframe       TEXT,
			total_value     REAL,
			total_net_value REAL,
			performance     REAL,
			holdings        INTEGER,
			failed_symbols  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_valuation_wallet_ts ON valuation_snapshots(wallet_id, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// CreateWallet registers a wallet; existing wallets keep their name.
func (r *SQLiteRecorder) CreateWallet(ctx context.Context, id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO wallets (id, name, created_at) VALUES (?,?,?)
		ON CONFLICT(id) DO NOTHING`, id, name, time.Now().Unix())
	return err
}

// UpsertHolding creates the wallet if needed and replaces the holding for its symbol.
func (r *SQLiteRecorder) UpsertHolding(ctx context.Context, walletID string, h model.Holding) error {
	if err := r.CreateWallet(ctx, walletID, walletID); err != nil {
		return fmt.Errorf("create wallet: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var acquired int64
	if !h.AcquiredAt.IsZero() {
		acquired = h.AcquiredAt.Unix()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO holdings
		(wallet_id, symbol, quantity, cost_basis_per_unit, acquired_at, currency_code, sector, display_name)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(wallet_id, symbol) DO UPDATE SET
			quantity = excluded.quantity,
			cost_basis_per_unit = excluded.cost_basis_per_unit,
			acquired_at = excluded.acquired_at,
			currency_code = excluded.currency_code,
			sector = excluded.sector,
			display_name = excluded.display_name`,
		walletID, h.Symbol, h.Quantity, h.CostBasisPerUnit, acquired,
		h.CurrencyCode, h.Sector, h.DisplayName,
	)
	return err
}

// Holdings returns the holdings of a wallet ordered by symbol.
func (r *SQLiteRecorder) Holdings(ctx context.Context, walletID string) ([]model.Holding, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM wallets WHERE id = ?`, walletID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("lookup wallet: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%s: %w", walletID, ErrWalletNotFound)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT symbol, quantity, cost_basis_per_unit, acquired_at,
			COALESCE(currency_code, ''), COALESCE(sector, ''), COALESCE(display_name, '')
		FROM holdings WHERE wallet_id = ? ORDER BY symbol`, walletID)
	if err != nil {
		return nil, fmt.Errorf("query holdings: %w", err)
	}
	defer rows.Close()

	holdings := []model.Holding{}
	for rows.Next() {
		var (
			h        model.Holding
			acquired sql.NullInt64
		)
		if err := rows.Scan(&h.Symbol, &h.Quantity, &h.CostBasisPerUnit, &acquired,
			&h.CurrencyCode, &h.Sector, &h.DisplayName); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		if acquired.Valid && acquired.Int64 > 0 {
			h.AcquiredAt = time.Unix(acquired.Int64, 0).UTC()
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

func (r *SQLiteRecorder) RecordValuation(ctx context.Context, snap *ValuationSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := snap.RecordedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO valuation_snapshots
		(timestamp, wallet_id, timeframe, total_value, total_net_value, performance, holdings, failed_symbols)
		VALUES (?,?,?,?,?,?,?,?)`,
		ts.Unix(), snap.WalletID, snap.Timeframe,
		snap.TotalValue, snap.TotalNetValue, snap.Performance,
		snap.Holdings, snap.FailedSymbols,
	)
	return err
}

// ValuationHistory returns the most recent snapshots of a wallet, newest first.
func (r *SQLiteRecorder) ValuationHistory(ctx context.Context, walletID string, limit int) ([]ValuationSnapshot, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `SELECT timestamp, wallet_id, COALESCE(timeframe, ''),
			total_value, total_net_value, performance, holdings, failed_symbols
		FROM valuation_snapshots WHERE wallet_id = ?
		ORDER BY timestamp DESC, id DESC LIMIT ?`, walletID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := []ValuationSnapshot{}
	for rows.Next() {
		var (
			s  ValuationSnapshot
			ts int64
		)
		if err := rows.Scan(&ts, &s.WalletID, &s.Timeframe, &s.TotalValue, &s.TotalNetValue,
			&s.Performance, &s.Holdings, &s.FailedSymbols); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.RecordedAt = time.Unix(ts, 0).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
