package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/bookstore-lab/bookstore/internal/inventory"
	"github.com/google/uuid"
	_ "github.com/lib/pq" // Register postgres driver
)

const connectPingTimeout = 5 * time.Second

// Adapter implements inventory.Store for PostgreSQL. The inventory table is
// keyed by product_id, so per-key atomicity and last-write-wins come from the
// database's row-level locking on the upsert.
type Adapter struct {
	db         *sql.DB
	stmtUpsert *sql.Stmt
	stmtGet    *sql.Stmt
	stmtList   *sql.Stmt
}

// NewAdapter opens a connection pool against the given DSN and prepares the
// projection statements. The inventory table must exist; run migrations
// before starting the service.
func NewAdapter(dsn string, maxOpenConns, maxIdleConns int) (*Adapter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), connectPingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}

	stmtUpsert, err := db.Prepare(queryUpsertRecord)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare upsert statement: %w", err)
	}

	stmtGet, err := db.Prepare(queryGetByProductID)
	if err != nil {
		stmtUpsert.Close()
		db.Close()
		return nil, fmt.Errorf("failed to prepare get statement: %w", err)
	}

	stmtList, err := db.Prepare(queryListRecords)
	if err != nil {
		stmtUpsert.Close()
		stmtGet.Close()
		db.Close()
		return nil, fmt.Errorf("failed to prepare list statement: %w", err)
	}

	slog.Info("[Postgres] Inventory adapter initialized",
		"max_open_conns", maxOpenConns,
		"max_idle_conns", maxIdleConns)

	return &Adapter{
		db:         db,
		stmtUpsert: stmtUpsert,
		stmtGet:    stmtGet,
		stmtList:   stmtList,
	}, nil
}

func (a *Adapter) Upsert(ctx context.Context, productID string, quantity int) error {
	_, err := a.stmtUpsert.ExecContext(ctx,
		uuid.NewString(),
		productID,
		quantity,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert inventory record: %w", err)
	}

	slog.Debug("[Postgres] Upserted inventory record",
		"product_id", productID,
		"quantity", quantity)
	return nil
}

func (a *Adapter) GetByProductID(ctx context.Context, productID string) (*inventory.Record, error) {
	rec, err := scanRecord(a.stmtGet.QueryRowContext(ctx, productID))
	if err == sql.ErrNoRows {
		return nil, inventory.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory record: %w", err)
	}
	return rec, nil
}

func (a *Adapter) List(ctx context.Context) ([]*inventory.Record, error) {
	rows, err := a.stmtList.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory records: %w", err)
	}
	defer rows.Close()

	var records []*inventory.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory records: %w", err)
	}

	return records, nil
}

// DB returns the underlying *sql.DB for health checks and migrations.
func (a *Adapter) DB() *sql.DB {
	return a.db
}

// Close closes the prepared statements and the connection pool.
func (a *Adapter) Close() error {
	var firstErr error

	if err := a.stmtUpsert.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close upsert statement: %w", err)
	}
	if err := a.stmtGet.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close get statement: %w", err)
	}
	if err := a.stmtList.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close list statement: %w", err)
	}
	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close database: %w", err)
	}

	return firstErr
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*inventory.Record, error) {
	var rec inventory.Record
	if err := row.Scan(&rec.ID, &rec.ProductID, &rec.Quantity, &rec.LastUpdated); err != nil {
		return nil, err
	}
	return &rec, nil
}
