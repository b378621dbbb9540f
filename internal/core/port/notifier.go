package port

import "context"

// Типы событий состояния.
const (
	EventFavoritesChanged   = "favorites.changed"
	EventFavoriteAdded      = "favorite.added"
	EventFavoriteRolledBack = "favorite.rolled_back"
	EventFavoriteRemoved    = "favorite.removed"
	EventListingsChanged    = "listings.changed"
	EventFiltersApplied     = "filters.applied"
)

// StateEvent - событие, по которому UI перерисовывает экран.
type StateEvent struct {
	Type      string      `json:"type"`
	View      string      `json:"view,omitempty"`
	ListingID string      `json:"listing_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// NotifierPort - контракт для рассылки событий изменения состояния.
type NotifierPort interface {
	// Notify не должен блокировать вызывающего надолго.
	Notify(ctx context.Context, event StateEvent)
}
