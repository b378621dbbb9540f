package usecase

import (
	"context"
	"fmt"
	"listings-agent/internal/contextkeys"
	"listings-agent/internal/core/domain"
	"listings-agent/internal/core/port"
	"listings-agent/internal/core/port/usecases_port"

	"golang.org/x/sync/errgroup"
)

const defaultLikedFetchConcurrency = 8

// LikedListingsUseCase наполняет экран "Избранное": загружает записи избранного,
// затем параллельно запрашивает детали каждого объявления.
// Все или ничего: если хотя бы один запрос упал, экран не перерисовывается.
type LikedListingsUseCase struct {
	favorites   usecases_port.FavoritesSyncPort
	listings    port.ListingsAPIPort
	concurrency int
}

func NewLikedListingsUseCase(favorites usecases_port.FavoritesSyncPort, listings port.ListingsAPIPort, concurrency int) *LikedListingsUseCase {
	if concurrency <= 0 {
		concurrency = defaultLikedFetchConcurrency
	}
	return &LikedListingsUseCase{
		favorites:   favorites,
		listings:    listings,
		concurrency: concurrency,
	}
}

func (uc *LikedListingsUseCase) Execute(ctx context.Context) ([]domain.Listing, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "LikedListings",
	})
	ucLogger.Info("Use case started", nil)

	if err := uc.favorites.LoadFavorites(ctx); err != nil {
		return nil, err
	}

	ids := uc.favorites.Snapshot().LikedIDs
	results := make([]domain.Listing, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			listing, err := uc.listings.GetAnnouncement(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to get announcement %s: %w", id, err)
			}
			results[i] = *listing
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		ucLogger.Error("Failed to hydrate liked listings, skipping render", err, port.Fields{"liked_count": len(ids)})
		return nil, err
	}

	uc.favorites.SetLikedListings(ctx, results)

	ucLogger.Info("Use case finished successfully", port.Fields{"liked_count": len(results)})
	return results, nil
}
