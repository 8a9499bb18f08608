package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"telegram-expiry-reminder/internal/domain"
	"telegram-expiry-reminder/internal/domain/model"
	"telegram-expiry-reminder/internal/domain/ports/repository"
)

// Compile-time check
var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo keeps products in process memory. Contents vanish on restart.
type ProductRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]model.Product
}

func NewProductRepo() *ProductRepo {
	return &ProductRepo{items: make(map[int64]model.Product)}
}

func (r *ProductRepo) Insert(ctx context.Context, name string, expiresOn time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if name == "" || expiresOn.IsZero() {
		return 0, domain.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.items[r.nextID] = model.Product{ID: r.nextID, Name: name, ExpiresOn: model.DateOf(expiresOn)}
	return r.nextID, nil
}

func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *ProductRepo) ListAll(ctx context.Context) ([]*model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]*model.Product, 0, len(r.items))
	for _, p := range r.items {
		cp := p
		out = append(out, &cp)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
