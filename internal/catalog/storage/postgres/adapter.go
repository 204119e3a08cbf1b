package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/bookstore-lab/bookstore/internal/catalog"
	_ "github.com/lib/pq" // Register postgres driver
)

const connectPingTimeout = 5 * time.Second

// Adapter implements catalog.Repository for PostgreSQL.
type Adapter struct {
	db         *sql.DB
	stmtCreate *sql.Stmt
	stmtGet    *sql.Stmt
	stmtGetAll *sql.Stmt
	stmtUpdate *sql.Stmt
	stmtDelete *sql.Stmt
}

// NewAdapter opens a connection pool against the given DSN and prepares the
// catalog statements. The products table must exist; run migrations before
// starting the service.
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

	a := &Adapter{db: db}
	for _, stmt := range []struct {
		target **sql.Stmt
		query  string
		name   string
	}{
		{&a.stmtCreate, queryCreateProduct, "create"},
		{&a.stmtGet, queryGetProductByID, "get"},
		{&a.stmtGetAll, queryGetAllProducts, "getAll"},
		{&a.stmtUpdate, queryUpdateProduct, "update"},
		{&a.stmtDelete, queryDeleteProduct, "delete"},
	} {
		prepared, err := db.Prepare(stmt.query)
		if err != nil {
			a.closeStatements()
			db.Close()
			return nil, fmt.Errorf("failed to prepare %s statement: %w", stmt.name, err)
		}
		*stmt.target = prepared
	}

	slog.Info("[Postgres] Catalog adapter initialized",
		"max_open_conns", maxOpenConns,
		"max_idle_conns", maxIdleConns)

	return a, nil
}

func (a *Adapter) Create(ctx context.Context, p *catalog.Product) error {
	_, err := a.stmtCreate.ExecContext(ctx,
		p.ID, p.Name, p.Description, p.Price, p.Quantity, p.Category)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (a *Adapter) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	p, err := scanProduct(a.stmtGet.QueryRowContext(ctx, id))
	if err == sql.ErrNoRows {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (a *Adapter) GetAll(ctx context.Context) ([]*catalog.Product, error) {
	rows, err := a.stmtGetAll.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

func (a *Adapter) Update(ctx context.Context, p *catalog.Product) (*catalog.Product, error) {
	result, err := a.stmtUpdate.ExecContext(ctx,
		p.ID, p.Name, p.Description, p.Price, p.Quantity, p.Category)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return nil, catalog.ErrNotFound
	}

	copy := *p
	return &copy, nil
}

func (a *Adapter) Delete(ctx context.Context, id string) error {
	result, err := a.stmtDelete.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return catalog.ErrNotFound
	}

	return nil
}

// DB returns the underlying *sql.DB for health checks and migrations.
func (a *Adapter) DB() *sql.DB {
	return a.db
}

// Close closes the prepared statements and the connection pool.
func (a *Adapter) Close() error {
	firstErr := a.closeStatements()

	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close database: %w", err)
	}

	return firstErr
}

func (a *Adapter) closeStatements() error {
	var firstErr error
	for _, stmt := range []*sql.Stmt{a.stmtCreate, a.stmtGet, a.stmtGetAll, a.stmtUpdate, a.stmtDelete} {
		if stmt == nil {
			continue
		}
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close statement: %w", err)
		}
	}
	return firstErr
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row scanner) (*catalog.Product, error) {
	var p catalog.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity, &p.Category); err != nil {
		return nil, err
	}
	return &p, nil
}
