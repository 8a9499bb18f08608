package repository

import (
	"context"
	"time"

	"telegram-expiry-reminder/internal/domain/model"
)

// ProductRepository is the durable keyed store for tracked products.
// Implementations must serialize concurrent calls.
type ProductRepository interface {
	// Insert stores a new product and returns its freshly assigned id.
	Insert(ctx context.Context, name string, expiresOn time.Time) (int64, error)
	// Delete removes the product. A missing id is not an error.
	Delete(ctx context.Context, id int64) error
	// ListAll returns a snapshot of every product, ordered by id.
	ListAll(ctx context.Context) ([]*model.Product, error)
}
