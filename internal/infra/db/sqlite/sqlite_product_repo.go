package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"telegram-expiry-reminder/internal/domain"
	"telegram-expiry-reminder/internal/domain/model"
	"telegram-expiry-reminder/internal/domain/ports/repository"

	_ "modernc.org/sqlite"
)

// Ensure interface compliance
var _ repository.ProductRepository = (*SQLiteProductRepo)(nil)

// SQLiteProductRepo is the single-file product store. Writes go through one
// connection guarded by a mutex to avoid SQLITE_BUSY.
type SQLiteProductRepo struct {
	db  *sql.DB
	mu  sync.Mutex
	loc *time.Location
}

// Open creates the database file (and its directory) when missing and applies the schema.
func Open(ctx context.Context, dbPath string, loc *time.Location) (*SQLiteProductRepo, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	if loc == nil {
		loc = time.UTC
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &SQLiteProductRepo{db: db, loc: loc}
	if err := r.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return r, nil
}

func (r *SQLiteProductRepo) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS products (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT    NOT NULL,
		date INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_products_date ON products(date);
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (r *SQLiteProductRepo) Close() error {
	return r.db.Close()
}

func (r *SQLiteProductRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteProductRepo) Insert(ctx context.Context, name string, expiresOn time.Time) (int64, error) {
	if name == "" || expiresOn.IsZero() {
		return 0, domain.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `INSERT INTO products (name, date) VALUES (?, ?)`, name, model.DateOf(expiresOn).Unix())
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	return id, nil
}

func (r *SQLiteProductRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (r *SQLiteProductRepo) ListAll(ctx context.Context) ([]*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, `SELECT id, name, date FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []*model.Product
	for rows.Next() {
		var (
			p     model.Product
			epoch int64
		)
		if err := rows.Scan(&p.ID, &p.Name, &epoch); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		p.ExpiresOn = model.DateOf(time.Unix(epoch, 0).In(r.loc))
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}
