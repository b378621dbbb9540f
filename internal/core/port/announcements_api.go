package port

import (
	"context"
	"listings-agent/internal/core/domain"
)

// ListingsAPIPort - контракт клиента бэкенда для объявлений.
type ListingsAPIPort interface {
	// ListAnnouncements возвращает страницу выдачи (page начинается с 1).
	ListAnnouncements(ctx context.Context, page, pageSize int, filters domain.FilterState, fixed map[string]string) (*domain.ListingPage, error)
	ListFeatured(ctx context.Context) ([]domain.Listing, error)
	GetAnnouncement(ctx context.Context, id string) (*domain.Listing, error)
}

// FavoritesAPIPort - контракт клиента бэкенда для избранного.
type FavoritesAPIPort interface {
	ListFavorites(ctx context.Context) ([]domain.FavoriteRecord, error)
	// AddFavorite возвращает ID созданной записи избранного.
	AddFavorite(ctx context.Context, listingID string) (string, error)
	RemoveFavorite(ctx context.Context, favoriteRecordID string) error
}

// DistrictsAPIPort нужен только для подписей фильтров.
type DistrictsAPIPort interface {
	ListDistricts(ctx context.Context) ([]domain.District, error)
}
