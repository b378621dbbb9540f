package rest

import (
	"errors"
	"listings-agent/internal/contextkeys"
	"listings-agent/internal/core/domain"
	"listings-agent/internal/core/port"
	"listings-agent/internal/core/port/usecases_port"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type FavoritesHandler struct {
	favorites usecases_port.FavoritesSyncPort
	toggleUC  usecases_port.ToggleFavoriteUseCasePort
	removeUC  usecases_port.RemoveFavoriteUseCasePort
	likedUC   usecases_port.LikedListingsUseCasePort
}

// NewFavoritesHandler - конструктор
func NewFavoritesHandler(
	favorites usecases_port.FavoritesSyncPort,
	toggleUC usecases_port.ToggleFavoriteUseCasePort,
	removeUC usecases_port.RemoveFavoriteUseCasePort,
	likedUC usecases_port.LikedListingsUseCasePort,
) *FavoritesHandler {
	return &FavoritesHandler{
		favorites: favorites,
		toggleUC:  toggleUC,
		removeUC:  removeUC,
		likedUC:   likedUC,
	}
}

// respondState отдает свежий снимок. Ошибка операции идет в поле error, статус всегда 200.
func (h *FavoritesHandler) respondState(w http.ResponseWriter, opErr error) {
	resp := toFavoritesStateResponse(h.favorites.Snapshot())
	if opErr != nil {
		resp.Error = opErr.Error()
	}
	RespondWithJSON(w, http.StatusOK, resp)
}

// GetFavorites - GET /api/v1/favorites
func (h *FavoritesHandler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	h.respondState(w, nil)
}

// LoadFavorites - POST /api/v1/favorites/load
func (h *FavoritesHandler) LoadFavorites(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "LoadFavorites"})

	err := h.favorites.LoadFavorites(r.Context())
	if err != nil {
		logger.Warn("Favorites load failed", port.Fields{"error": err.Error()})
	}
	h.respondState(w, err)
}

// AddFavorite - POST /api/v1/favorites
func (h *FavoritesHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "AddFavorite"})

	var req AddFavoriteRequest
	if err := decodeJSON(r, &req, false); err != nil {
		logger.Warn("Failed to decode add favorite request body", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.ListingID = strings.TrimSpace(req.ListingID)
	if req.ListingID == "" {
		WriteJSONError(w, http.StatusBadRequest, "Field 'listing_id' is required")
		return
	}

	var payload *domain.Listing
	if req.Listing != nil {
		if req.Listing.ID != "" && req.Listing.ID != req.ListingID {
			WriteJSONError(w, http.StatusBadRequest, "Field 'listing.id' does not match 'listing_id'")
			return
		}
		l := req.Listing.toDomain()
		l.ID = req.ListingID
		payload = &l
	}

	err := h.favorites.AddFavorite(r.Context(), req.ListingID, payload)
	if err != nil {
		logger.Warn("Add favorite failed", port.Fields{"listing_id": req.ListingID, "error": err.Error()})
	}
	h.respondState(w, err)
}

// RemoveFavorite - DELETE /api/v1/favorites/{listingID}
func (h *FavoritesHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "RemoveFavorite"})
	listingID := chi.URLParam(r, "listingID")

	err := h.removeUC.Execute(r.Context(), listingID)
	if err != nil && !errors.Is(err, domain.ErrFavoriteRecordUnknown) {
		logger.Warn("Remove favorite failed", port.Fields{"listing_id": listingID, "error": err.Error()})
	}
	h.respondState(w, err)
}

// ToggleFavorite - POST /api/v1/favorites/{listingID}/toggle
func (h *FavoritesHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "ToggleFavorite"})
	listingID := chi.URLParam(r, "listingID")

	var req ToggleFavoriteRequest
	if err := decodeJSON(r, &req, true); err != nil {
		logger.Warn("Failed to decode toggle favorite request body", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var payload *domain.Listing
	if req.Listing != nil {
		l := req.Listing.toDomain()
		l.ID = listingID
		payload = &l
	}

	liked, err := h.toggleUC.Execute(r.Context(), listingID, payload)
	if err != nil {
		logger.Warn("Toggle favorite failed", port.Fields{"listing_id": listingID, "error": err.Error()})
	}

	resp := ToggleFavoriteResponse{Liked: liked, State: toFavoritesStateResponse(h.favorites.Snapshot())}
	if err != nil {
		resp.State.Error = err.Error()
	}
	RespondWithJSON(w, http.StatusOK, resp)
}

// GetLikedListings - GET /api/v1/favorites/listings, экран "Избранное"
func (h *FavoritesHandler) GetLikedListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.likedUC.Execute(r.Context())
	if err != nil {
		// Use case уже залогировал ошибку; отдаем то, что было в кэше
		RespondWithJSON(w, http.StatusOK, LikedListingsResponse{
			Results: toListingDTOs(h.favorites.Snapshot().LikedListings),
			Error:   err.Error(),
		})
		return
	}
	RespondWithJSON(w, http.StatusOK, LikedListingsResponse{Results: toListingDTOs(listings)})
}
