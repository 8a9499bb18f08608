package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"telegram-expiry-reminder/internal/domain"
	"telegram-expiry-reminder/internal/domain/model"
	"telegram-expiry-reminder/internal/domain/ports/repository"
	"telegram-expiry-reminder/internal/infra/logging"
	"telegram-expiry-reminder/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ ProductUseCase = (*productUC)(nil)

// ProductUseCase covers the add grammar, listing and token-driven deletion.
type ProductUseCase interface {
	// Add parses "<name...> <day> <month>" and stores the product.
	Add(ctx context.Context, text string) (*model.Product, error)
	// ListByExpiry returns all products, soonest expiry first.
	ListByExpiry(ctx context.Context) ([]*model.Product, error)
	// DeleteByToken decodes a delete token and removes the product it names.
	DeleteByToken(ctx context.Context, token string) (int64, error)
}

type productUC struct {
	products repository.ProductRepository
	clock    func() time.Time
	log      *zerolog.Logger
}

// NewProductUseCase builds the use case. clock must return "now" in the
// location whose calendar defines expiry dates.
func NewProductUseCase(products repository.ProductRepository, clock func() time.Time, logger *zerolog.Logger) *productUC {
	if clock == nil {
		clock = time.Now
	}
	compLog := logger.With().Str("component", "ProductUC").Logger()
	return &productUC{products: products, clock: clock, log: &compLog}
}

// ParseAddMessage splits text into a name and a date in today's year.
// Fewer than three tokens is ErrFormat; a day/month that is not a number
// or not a real date is ErrInvalidDate.
func ParseAddMessage(text string, today time.Time) (string, time.Time, error) {
	parts := strings.Fields(text)
	if len(parts) < 3 {
		return "", time.Time{}, domain.ErrFormat
	}
	n := len(parts)
	day, errDay := strconv.Atoi(parts[n-2])
	month, errMonth := strconv.Atoi(parts[n-1])
	if errDay != nil || errMonth != nil {
		return "", time.Time{}, domain.ErrInvalidDate
	}
	date, err := model.NewCalendarDate(today.Year(), month, day, today.Location())
	if err != nil {
		return "", time.Time{}, err
	}
	return strings.Join(parts[:n-2], " "), date, nil
}

func (u *productUC) Add(ctx context.Context, text string) (*model.Product, error) {
	defer logging.TraceDuration(u.log, "ProductUC.Add")()

	name, date, err := ParseAddMessage(text, u.clock())
	if err != nil {
		return nil, err
	}
	p, err := model.NewProduct(name, date)
	if err != nil {
		return nil, domain.ErrFormat
	}
	id, err := u.products.Insert(ctx, p.Name, p.ExpiresOn)
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	p.ID = id
	metrics.IncProductsAdded()
	u.log.Debug().Int64("product_id", id).Time("expires_on", p.ExpiresOn).Msg("product added")
	return p, nil
}

func (u *productUC) ListByExpiry(ctx context.Context) ([]*model.Product, error) {
	defer logging.TraceDuration(u.log, "ProductUC.ListByExpiry")()

	items, err := u.products.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	SortByExpiry(items)
	return items, nil
}

func (u *productUC) DeleteByToken(ctx context.Context, token string) (int64, error) {
	defer logging.TraceDuration(u.log, "ProductUC.DeleteByToken")()

	id, err := DecodeDeleteToken(token)
	if err != nil {
		return 0, err
	}
	if err := u.products.Delete(ctx, id); err != nil {
		return 0, fmt.Errorf("delete product %d: %w", id, err)
	}
	metrics.IncProductsDeleted()
	u.log.Debug().Int64("product_id", id).Msg("product deleted")
	return id, nil
}

// SortByExpiry orders products soonest first; ties keep id order.
func SortByExpiry(items []*model.Product) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].ExpiresOn.Equal(items[j].ExpiresOn) {
			return items[i].ExpiresOn.Before(items[j].ExpiresOn)
		}
		return items[i].ID < items[j].ID
	})
}
