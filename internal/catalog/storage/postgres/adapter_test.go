package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bookstore-lab/bookstore/internal/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestAdapter_CreateAndGet(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	p := &catalog.Product{
		ID:          "p1",
		Name:        "Go Guide",
		Description: "A practical guide",
		Price:       decimal.RequireFromString("29.99"),
		Quantity:    10,
		Category:    "books",
	}

	mock.ExpectExec(regexp.QuoteMeta(queryCreateProduct)).
		WithArgs(p.ID, p.Name, p.Description, p.Price, p.Quantity, p.Category).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, adapter.Create(context.Background(), p))

	mock.ExpectQuery(regexp.QuoteMeta(queryGetProductByID)).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(productColumns()).
			AddRow("p1", "Go Guide", "A practical guide", "29.99", 10, "books"))

	got, err := adapter.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, "Go Guide", got.Name)
	require.Equal(t, 10, got.Quantity)
	require.True(t, p.Price.Equal(got.Price))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_GetByID_NotFound(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryGetProductByID)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(productColumns()))

	_, err := adapter.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, catalog.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_UpdateMissingProduct(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	p := &catalog.Product{ID: "missing", Name: "Ghost", Quantity: 1}

	mock.ExpectExec(regexp.QuoteMeta(queryUpdateProduct)).
		WithArgs(p.ID, p.Name, p.Description, p.Price, p.Quantity, p.Category).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := adapter.Update(context.Background(), p)
	require.ErrorIs(t, err, catalog.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_Delete(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "existing product", affected: 1},
		{name: "missing product", affected: 0, wantErr: catalog.ErrNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adapter, mock, db := newMockAdapter(t)
			defer db.Close()

			mock.ExpectExec(regexp.QuoteMeta(queryDeleteProduct)).
				WithArgs("p1").
				WillReturnResult(sqlmock.NewResult(0, tc.affected))

			err := adapter.Delete(context.Background(), "p1")
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAdapter_GetAll(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryGetAllProducts)).
		WillReturnRows(sqlmock.NewRows(productColumns()).
			AddRow("p1", "A", "", "1.50", 2, "").
			AddRow("p2", "B", "", "3.00", 4, "books"),
		).RowsWillBeClosed()

	products, err := adapter.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.Equal(t, "A", products[0].Name)
	require.Equal(t, 4, products[1].Quantity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	adapter := &Adapter{
		db:         db,
		stmtCreate: mustPrepareStmt(t, db, mock, queryCreateProduct),
		stmtGet:    mustPrepareStmt(t, db, mock, queryGetProductByID),
		stmtGetAll: mustPrepareStmt(t, db, mock, queryGetAllProducts),
		stmtUpdate: mustPrepareStmt(t, db, mock, queryUpdateProduct),
		stmtDelete: mustPrepareStmt(t, db, mock, queryDeleteProduct),
	}

	return adapter, mock, db
}

func mustPrepareStmt(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock, query string) *sql.Stmt {
	t.Helper()

	mock.ExpectPrepare(regexp.QuoteMeta(query))
	stmt, err := db.Prepare(query)
	require.NoError(t, err)

	return stmt
}

func productColumns() []string {
	return []string{"id", "name", "description", "price", "quantity", "category"}
}
