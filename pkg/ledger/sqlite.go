package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteStore persists the ledger in a local SQLite file. The order append
// and every inventory decrement share one transaction, so a crash can never
// leave an order without its decrements or vice versa.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the ledger database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite supports one writer; the Service serializes writes anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS inventory (
		product_id INTEGER PRIMARY KEY,
		quantity INTEGER NOT NULL CHECK (quantity >= 0)
	);
	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_name TEXT NOT NULL,
		total_amount REAL NOT NULL,
		order_date TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS order_items (
		order_id INTEGER NOT NULL REFERENCES orders(id),
		position INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		PRIMARY KEY (order_id, position)
	);
	`
	_, err := db.Exec(query)
	return err
}

// Seed populates inventory and fixture orders only when the ledger is empty,
// so restarts never reset committed state.
func (s *SQLiteStore) Seed(ctx context.Context, inventory []InventoryRecord, orders []Order) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM inventory`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, rec := range inventory {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO inventory (product_id, quantity) VALUES (?, ?)`,
			rec.ProductID, rec.Quantity); err != nil {
			return err
		}
	}
	for _, o := range orders {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO orders (id, customer_name, total_amount, order_date) VALUES (?, ?, ?, ?)`,
			o.ID, o.CustomerName, o.TotalAmount, o.OrderDate.UTC().Format(time.RFC3339Nano)); err != nil {
			return err
		}
		for pos, item := range o.Items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO order_items (order_id, position, product_id, quantity) VALUES (?, ?, ?, ?)`,
				o.ID, pos, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Inventory(ctx context.Context) ([]InventoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT product_id, quantity FROM inventory ORDER BY product_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []InventoryRecord
	for rows.Next() {
		var rec InventoryRecord
		if err := rows.Scan(&rec.ProductID, &rec.Quantity); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Orders(ctx context.Context) ([]Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, customer_name, total_amount, order_date FROM orders ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	index := make(map[int64]int)
	for rows.Next() {
		var o Order
		var date string
		if err := rows.Scan(&o.ID, &o.CustomerName, &o.TotalAmount, &date); err != nil {
			return nil, err
		}
		if o.OrderDate, err = time.Parse(time.RFC3339Nano, date); err != nil {
			return nil, fmt.Errorf("parse order date for order %d: %w", o.ID, err)
		}
		index[o.ID] = len(out)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	itemRows, err := s.db.QueryContext(ctx,
		`SELECT order_id, product_id, quantity FROM order_items ORDER BY order_id, position`)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var orderID int64
		var item OrderItem
		if err := itemRows.Scan(&orderID, &item.ProductID, &item.Quantity); err != nil {
			return nil, err
		}
		if i, ok := index[orderID]; ok {
			out[i].Items = append(out[i].Items, item)
		}
	}
	return out, itemRows.Err()
}

func (s *SQLiteStore) CommitPurchase(ctx context.Context, order Order) (Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Order{}, err
	}
	defer tx.Rollback()

	for _, item := range order.Items {
		res, err := tx.ExecContext(ctx,
			`UPDATE inventory SET quantity = quantity - ? WHERE product_id = ? AND quantity >= ?`,
			item.Quantity, item.ProductID, item.Quantity)
		if err != nil {
			return Order{}, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return Order{}, err
		}
		if affected != 1 {
			// The Service validates under its lock; hitting this means a
			// second writer bypassed it. Abort the whole transaction.
			return Order{}, &InsufficientStockError{ProductID: item.ProductID}
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (customer_name, total_amount, order_date) VALUES (?, ?, ?)`,
		order.CustomerName, order.TotalAmount, order.OrderDate.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return Order{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Order{}, err
	}
	for pos, item := range order.Items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, position, product_id, quantity) VALUES (?, ?, ?, ?)`,
			id, pos, item.ProductID, item.Quantity); err != nil {
			return Order{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Order{}, err
	}
	order.ID = id
	return order, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
