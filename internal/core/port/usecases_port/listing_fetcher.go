package usecases_port

import (
	"context"
	"listings-agent/internal/core/domain"
)

// ListingFetcherPort - окно выдачи одного экрана.
type ListingFetcherPort interface {
	Fetch(ctx context.Context, page int, filters domain.FilterState, isInitialLoad bool) error
	ApplyFilters(ctx context.Context, filters domain.FilterState) error
	// OnFilterChange не блокирует: запрос уйдет после паузы во вводе.
	OnFilterChange(filters domain.FilterState)
	OnFilterApply(ctx context.Context, filters domain.FilterState) error
	LoadMore(ctx context.Context) error
	ClearOneFilter(ctx context.Context, key string) error
	Retry(ctx context.Context) error
	Snapshot() domain.ListingsState
}

// ViewRegistryPort выдает окно выдачи по имени экрана.
type ViewRegistryPort interface {
	View(name string) (ListingFetcherPort, error)
}
