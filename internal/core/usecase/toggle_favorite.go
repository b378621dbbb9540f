package usecase

import (
	"context"
	"listings-agent/internal/contextkeys"
	"listings-agent/internal/core/domain"
	"listings-agent/internal/core/port"
	"listings-agent/internal/core/port/usecases_port"
)

// RemoveFavoriteUseCase - удаление с проверкой на месте вызова: без ID записи избранного
// удалять нечего, синхронизатор в этом случае не вызывается.
type RemoveFavoriteUseCase struct {
	favorites usecases_port.FavoritesSyncPort
}

func NewRemoveFavoriteUseCase(favorites usecases_port.FavoritesSyncPort) *RemoveFavoriteUseCase {
	return &RemoveFavoriteUseCase{favorites: favorites}
}

func (uc *RemoveFavoriteUseCase) Execute(ctx context.Context, listingID string) error {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":   "RemoveFavorite",
		"listing_id": listingID,
	})

	recordID, ok := uc.favorites.FavoriteRecordID(listingID)
	if !ok {
		// Добавление еще не подтверждено сервером, либо объявления нет в избранном
		ucLogger.Warn("Favorite record id is unknown, skipping remove", port.Fields{
			"is_liked": uc.favorites.IsLiked(listingID),
		})
		return domain.ErrFavoriteRecordUnknown
	}

	return uc.favorites.RemoveFavorite(ctx, listingID, recordID)
}

// ToggleFavoriteUseCase - действие "сердечка" на карточке.
type ToggleFavoriteUseCase struct {
	favorites usecases_port.FavoritesSyncPort
	remove    usecases_port.RemoveFavoriteUseCasePort
}

func NewToggleFavoriteUseCase(favorites usecases_port.FavoritesSyncPort, remove usecases_port.RemoveFavoriteUseCasePort) *ToggleFavoriteUseCase {
	return &ToggleFavoriteUseCase{favorites: favorites, remove: remove}
}

func (uc *ToggleFavoriteUseCase) Execute(ctx context.Context, listingID string, payload *domain.Listing) (bool, error) {
	if uc.favorites.IsLiked(listingID) {
		if err := uc.remove.Execute(ctx, listingID); err != nil {
			return uc.favorites.IsLiked(listingID), err
		}
		return false, nil
	}

	if err := uc.favorites.AddFavorite(ctx, listingID, payload); err != nil {
		return false, err
	}
	return true, nil
}
