package postgres

import (
	"context"
	"fmt"
	"time"

	"telegram-expiry-reminder/internal/domain"
	"telegram-expiry-reminder/internal/domain/model"
	"telegram-expiry-reminder/internal/domain/ports/repository"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Ensure interface compliance
var _ repository.ProductRepository = (*PostgresProductRepo)(nil)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// PostgresProductRepo stores products with the date as epoch seconds of
// midnight in loc.
type PostgresProductRepo struct {
	db  querier
	loc *time.Location
}

func NewPostgresProductRepo(pool *pgxpool.Pool, loc *time.Location) *PostgresProductRepo {
	if loc == nil {
		loc = time.UTC
	}
	return &PostgresProductRepo{db: pool, loc: loc}
}

func (r *PostgresProductRepo) Insert(ctx context.Context, name string, expiresOn time.Time) (int64, error) {
	if name == "" || expiresOn.IsZero() {
		return 0, domain.ErrInvalidArgument
	}
	const sql = `INSERT INTO products (name, date) VALUES ($1, $2) RETURNING id;`
	var id int64
	if err := r.db.QueryRow(ctx, sql, name, model.DateOf(expiresOn).Unix()).Scan(&id); err != nil {
		return 0, fmt.Errorf("Insert product: %w", err)
	}
	return id, nil
}

func (r *PostgresProductRepo) Delete(ctx context.Context, id int64) error {
	const sql = `DELETE FROM products WHERE id = $1;`
	if _, err := r.db.Exec(ctx, sql, id); err != nil {
		return fmt.Errorf("Delete product: %w", err)
	}
	return nil
}

func (r *PostgresProductRepo) ListAll(ctx context.Context) ([]*model.Product, error) {
	const sql = `SELECT id, name, date FROM products ORDER BY id;`
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("ListAll products: %w", err)
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
		return nil, fmt.Errorf("ListAll products: %w", err)
	}
	return out, nil
}
