package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/rl1809/warehouse-inventory/internal/core/domain"
)

// mysqlCheckViolation is ER_CHECK_CONSTRAINT_VIOLATED.
const mysqlCheckViolation = 3819

type Option func(*SQLAdapter)

// WithClock replaces the source of created_at/updated_at values.
func WithClock(now func() time.Time) Option {
	return func(a *SQLAdapter) {
		a.now = now
	}
}

type SQLAdapter struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func NewSQLAdapter(db *sql.DB, dialect Dialect, opts ...Option) *SQLAdapter {
	a := &SQLAdapter{db: db, dialect: dialect, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *SQLAdapter) Dialect() Dialect {
	return a.dialect
}

// Migrate creates the inventory table and its indexes if they are missing.
func (a *SQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range a.dialect.schema() {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func (a *SQLAdapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *SQLAdapter) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *SQLAdapter) List(ctx context.Context, filter domain.Filter) ([]domain.Item, error) {
	items, err := a.queryItems(ctx, listStatement(filter))
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (a *SQLAdapter) Get(ctx context.Context, id int64) (*domain.Item, error) {
	stmt := getStatement(id)
	item, err := scanItem(a.db.QueryRowContext(ctx, stmt.query, stmt.args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return item, nil
}

func (a *SQLAdapter) Insert(ctx context.Context, item domain.NewItem) (*domain.Item, error) {
	if item.Price.IsNegative() || item.Stock < 0 {
		return nil, fmt.Errorf("insert item: negative price or stock: %w", domain.ErrConstraintViolation)
	}

	stmt := insertStatement(item, a.timestamp())
	result, err := a.db.ExecContext(ctx, stmt.query, stmt.args...)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", translateError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert item: last insert id: %w", err)
	}

	stored, err := a.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("insert item: row %d vanished after insert", id)
	}
	return stored, nil
}

func (a *SQLAdapter) Update(ctx context.Context, id int64, patch domain.ItemPatch) (bool, error) {
	if (patch.Price != nil && patch.Price.IsNegative()) || (patch.Stock != nil && *patch.Stock < 0) {
		return false, fmt.Errorf("update item: negative price or stock: %w", domain.ErrConstraintViolation)
	}

	stmt, ok := updateStatement(id, patch, a.timestamp())
	if !ok {
		return false, nil
	}

	result, err := a.db.ExecContext(ctx, stmt.query, stmt.args...)
	if err != nil {
		return false, fmt.Errorf("update item: %w", translateError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update item: rows affected: %w", err)
	}
	return rows > 0, nil
}

func (a *SQLAdapter) Delete(ctx context.Context, id int64) (bool, error) {
	stmt := deleteStatement(id)
	result, err := a.db.ExecContext(ctx, stmt.query, stmt.args...)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete item: rows affected: %w", err)
	}
	return rows > 0, nil
}

func (a *SQLAdapter) Categories(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT DISTINCT category FROM inventory ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	return categories, nil
}

// TotalValue sums in decimal arithmetic on the client so that REAL columns
// in SQLite do not accumulate float error.
func (a *SQLAdapter) TotalValue(ctx context.Context) (decimal.Decimal, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT price, stock FROM inventory`)
	if err != nil {
		return decimal.Zero, fmt.Errorf("query total value: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var (
			price decimal.Decimal
			stock int64
		)
		if err := rows.Scan(&price, &stock); err != nil {
			return decimal.Zero, fmt.Errorf("scan total value: %w", err)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(stock)))
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("query total value: %w", err)
	}
	return total.Round(2), nil
}

func (a *SQLAdapter) LowStock(ctx context.Context, threshold int) ([]domain.Item, error) {
	items, err := a.queryItems(ctx, lowStockStatement(threshold))
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	return items, nil
}

func (a *SQLAdapter) Count(ctx context.Context) (int, error) {
	var n int
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM inventory`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

func (a *SQLAdapter) queryItems(ctx context.Context, stmt statement) ([]domain.Item, error) {
	rows, err := a.db.QueryContext(ctx, stmt.query, stmt.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// timestamp is UTC with microsecond precision so that values round-trip
// through DATETIME(6) unchanged.
func (a *SQLAdapter) timestamp() time.Time {
	return a.now().UTC().Truncate(time.Microsecond)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var item domain.Item
	err := row.Scan(&item.ID, &item.Name, &item.Category, &item.Price, &item.Stock, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return &item, nil
}

// translateError maps CHECK constraint failures of either driver onto
// domain.ErrConstraintViolation.
func translateError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %v", domain.ErrConstraintViolation, err)
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlCheckViolation {
		return fmt.Errorf("%w: %v", domain.ErrConstraintViolation, err)
	}

	return err
}
