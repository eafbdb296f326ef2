package catalog

import (
	"context"
	"fmt"

	domain "github.com/brewline/brewline/internal/domain/catalog"
	"github.com/brewline/brewline/internal/observability"
	"github.com/brewline/brewline/internal/observability/logctx"
)

const componentCatalogView = "catalog_view"

// Page is one slice of the catalog.
type Page struct {
	Items []domain.Item
	// Index is the effective page index after clamping.
	Index int
	// Count is ceil(Total/pageSize), at least 1.
	Count int
	Total int
}

// View paginates the catalog. Read-only; every call re-fetches from the record
// store, so there is no cache to invalidate.
type View struct {
	repo     domain.Repository
	pageSize int
	log      observability.Logger
}

func NewView(repo domain.Repository, pageSize int, logger observability.Logger) *View {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &View{
		repo:     repo,
		pageSize: pageSize,
		log:      logger.With(observability.F("component", componentCatalogView)),
	}
}

func (v *View) PageSize() int { return v.pageSize }

// ListPage fetches the catalog and returns the requested page. Out-of-range
// indexes clamp to [0, Count-1].
func (v *View) ListPage(ctx context.Context, page int) (Page, error) {
	items, err := v.repo.ListMenu(ctx)
	if err != nil {
		logctx.FromOr(ctx, v.log).Error("catalog_fetch_failed", observability.F("error", err.Error()))
		return Page{}, fmt.Errorf("catalog: list menu: %w", err)
	}

	total := len(items)
	count := (total + v.pageSize - 1) / v.pageSize
	if count < 1 {
		count = 1
	}
	if page < 0 {
		page = 0
	}
	if page > count-1 {
		page = count - 1
	}

	start := page * v.pageSize
	end := start + v.pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{Items: items[start:end], Index: page, Count: count, Total: total}, nil
}

// FindByItemID resolves one item by business key with a fresh fetch, the same
// way a browse does. Returns catalog.ErrNotFound when the key is absent.
func (v *View) FindByItemID(ctx context.Context, itemID string) (domain.Item, error) {
	items, err := v.repo.ListMenu(ctx)
	if err != nil {
		return domain.Item{}, fmt.Errorf("catalog: list menu: %w", err)
	}
	for _, it := range items {
		if it.ItemID == itemID {
			return it, nil
		}
	}
	return domain.Item{}, domain.ErrNotFound
}
