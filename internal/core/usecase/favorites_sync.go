package usecase

import (
	"context"
	"fmt"
	"listings-agent/internal/contextkeys"
	"listings-agent/internal/core/domain"
	"listings-agent/internal/core/port"
	"sync"
)

// FavoritesSync держит likedIDs/favoriteMap в согласии с записями избранного на сервере.
// Изменения применяются оптимистично до ответа сервера.
//
// Откат асимметричный:
//   - неудачное добавление откатывается (объявление исчезает из likedIDs и кэша);
//   - неудачное удаление НЕ откатывается, состояние поправит следующий LoadFavorites.
//
// Операции над одним и тем же ID не сериализуются: быстрый add+remove может оставить
// favoriteMap несогласованной до следующего LoadFavorites.
type FavoritesSync struct {
	api      port.FavoritesAPIPort
	notifier port.NotifierPort

	mu      sync.Mutex
	index   *domain.FavoritesIndex
	display []domain.Listing
	loading bool
	lastErr string
	// epoch растет при каждом Reset; ответы, начатые до сброса, не применяются
	epoch uint64
}

func NewFavoritesSync(api port.FavoritesAPIPort, notifier port.NotifierPort) *FavoritesSync {
	return &FavoritesSync{
		api:      api,
		notifier: notifier,
		index:    domain.NewFavoritesIndex(),
	}
}

// LoadFavorites полностью заменяет индекс списком с сервера.
// При ошибке существующее состояние не трогается.
func (s *FavoritesSync) LoadFavorites(ctx context.Context) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "FavoritesSync",
		"method":    "LoadFavorites",
	})

	s.mu.Lock()
	s.loading = true
	epoch := s.epoch
	s.mu.Unlock()

	records, err := s.api.ListFavorites(ctx)

	s.mu.Lock()
	s.loading = false
	if epoch != s.epoch {
		s.mu.Unlock()
		logger.Info("Session changed while loading favorites, result discarded", nil)
		return nil
	}
	if err != nil {
		s.lastErr = fmt.Sprintf("failed to load favorites: %v", err)
		s.mu.Unlock()
		logger.Error("Failed to load favorites", err, nil)
		s.notifier.Notify(ctx, port.StateEvent{Type: port.EventFavoritesChanged})
		return fmt.Errorf("failed to load favorites: %w", err)
	}
	s.index.Replace(records)
	s.display = s.likedOnlyLocked(s.display)
	s.lastErr = ""
	s.mu.Unlock()

	logger.Info("Favorites loaded", port.Fields{"count": len(records)})
	s.notifier.Notify(ctx, port.StateEvent{Type: port.EventFavoritesChanged})
	return nil
}

// AddFavorite: pending -> ID сразу в likedIDs; fulfilled -> запись в favoriteMap и payload в кэш;
// rejected -> откат из likedIDs и кэша.
func (s *FavoritesSync) AddFavorite(ctx context.Context, listingID string, payload *domain.Listing) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":  "FavoritesSync",
		"method":     "AddFavorite",
		"listing_id": listingID,
	})

	s.mu.Lock()
	s.index.MarkLiked(listingID)
	epoch := s.epoch
	s.mu.Unlock()
	s.notifier.Notify(ctx, port.StateEvent{Type: port.EventFavoritesChanged, ListingID: listingID})

	recordID, err := s.api.AddFavorite(ctx, listingID)

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		logger.Info("Session changed while adding favorite, result discarded", nil)
		if err != nil {
			return fmt.Errorf("failed to add listing %s to favorites: %w", listingID, err)
		}
		return nil
	}
	s.mu.Unlock()

	if err != nil {
		s.mu.Lock()
		s.index.Forget(listingID)
		s.display = removeListing(s.display, listingID)
		s.lastErr = fmt.Sprintf("failed to add listing %s to favorites: %v", listingID, err)
		s.mu.Unlock()

		logger.Warn("Add to favorites failed, optimistic state rolled back", port.Fields{"error": err.Error()})
		s.notifier.Notify(ctx, port.StateEvent{Type: port.EventFavoriteRolledBack, ListingID: listingID})
		return fmt.Errorf("failed to add listing %s to favorites: %w", listingID, err)
	}

	s.mu.Lock()
	s.index.Confirm(listingID, recordID)
	if payload != nil && !containsListing(s.display, listingID) {
		s.display = append(s.display, *payload)
	}
	s.lastErr = ""
	s.mu.Unlock()

	logger.Info("Listing added to favorites", port.Fields{"favorite_record_id": recordID})
	s.notifier.Notify(ctx, port.StateEvent{Type: port.EventFavoriteAdded, ListingID: listingID, Data: recordID})
	return nil
}

// RemoveFavorite: pending -> ID сразу удаляется из likedIDs, favoriteMap и кэша.
// При ошибке сервера удаленное НЕ возвращается.
func (s *FavoritesSync) RemoveFavorite(ctx context.Context, listingID, favoriteRecordID string) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":          "FavoritesSync",
		"method":             "RemoveFavorite",
		"listing_id":         listingID,
		"favorite_record_id": favoriteRecordID,
	})

	s.mu.Lock()
	s.index.Forget(listingID)
	s.display = removeListing(s.display, listingID)
	s.mu.Unlock()
	s.notifier.Notify(ctx, port.StateEvent{Type: port.EventFavoriteRemoved, ListingID: listingID})

	if err := s.api.RemoveFavorite(ctx, favoriteRecordID); err != nil {
		s.mu.Lock()
		s.lastErr = fmt.Sprintf("failed to remove listing %s from favorites: %v", listingID, err)
		s.mu.Unlock()

		logger.Warn("Remove from favorites failed, state will be corrected on next load", port.Fields{"error": err.Error()})
		s.notifier.Notify(ctx, port.StateEvent{Type: port.EventFavoritesChanged, ListingID: listingID})
		return fmt.Errorf("failed to remove listing %s from favorites: %w", listingID, err)
	}

	logger.Info("Listing removed from favorites", nil)
	return nil
}

// Reset очищает индекс и кэш экрана "Избранное" при выходе или смене пользователя.
func (s *FavoritesSync) Reset(ctx context.Context) {
	s.mu.Lock()
	s.epoch++
	s.index = domain.NewFavoritesIndex()
	s.display = nil
	s.loading = false
	s.lastErr = ""
	s.mu.Unlock()

	contextkeys.LoggerFromContext(ctx).Info("Favorites state reset", port.Fields{"component": "FavoritesSync"})
	s.notifier.Notify(ctx, port.StateEvent{Type: port.EventFavoritesChanged})
}

// SetLikedListings заменяет кэш экрана "Избранное" полностью загруженными объявлениями.
func (s *FavoritesSync) SetLikedListings(ctx context.Context, listings []domain.Listing) {
	s.mu.Lock()
	s.display = s.likedOnlyLocked(listings)
	s.mu.Unlock()
	s.notifier.Notify(ctx, port.StateEvent{Type: port.EventFavoritesChanged})
}

func (s *FavoritesSync) Snapshot() domain.FavoritesState {
	s.mu.Lock()
	defer s.mu.Unlock()

	display := make([]domain.Listing, len(s.display))
	copy(display, s.display)
	return domain.FavoritesState{
		LikedIDs:      s.index.LikedIDs(),
		FavoriteMap:   s.index.FavoriteMap(),
		LikedListings: display,
		Loading:       s.loading,
		Error:         s.lastErr,
	}
}

func (s *FavoritesSync) IsLiked(listingID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.IsLiked(listingID)
}

func (s *FavoritesSync) FavoriteRecordID(listingID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.RecordID(listingID)
}

// likedOnlyLocked оставляет в кэше только то, что еще в избранном. Вызывать под s.mu.
func (s *FavoritesSync) likedOnlyLocked(listings []domain.Listing) []domain.Listing {
	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if s.index.IsLiked(l.ID) {
			out = append(out, l)
		}
	}
	return out
}

func containsListing(listings []domain.Listing, id string) bool {
	for _, l := range listings {
		if l.ID == id {
			return true
		}
	}
	return false
}

func removeListing(listings []domain.Listing, id string) []domain.Listing {
	out := listings[:0:0]
	for _, l := range listings {
		if l.ID != id {
			out = append(out, l)
		}
	}
	return out
}
