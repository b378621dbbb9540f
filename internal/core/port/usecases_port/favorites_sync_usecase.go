package usecases_port

import (
	"context"
	"listings-agent/internal/core/domain"
)

// FavoritesSyncPort - хранилище избранного с оптимистичными изменениями.
type FavoritesSyncPort interface {
	LoadFavorites(ctx context.Context) error
	// AddFavorite: payload может быть nil, тогда кэш экрана "Избранное" не пополняется.
	AddFavorite(ctx context.Context, listingID string, payload *domain.Listing) error
	RemoveFavorite(ctx context.Context, listingID, favoriteRecordID string) error
	SetLikedListings(ctx context.Context, listings []domain.Listing)
	// Reset забывает избранное текущего пользователя (выход, смена аккаунта).
	Reset(ctx context.Context)
	Snapshot() domain.FavoritesState
	IsLiked(listingID string) bool
	FavoriteRecordID(listingID string) (string, bool)
}
