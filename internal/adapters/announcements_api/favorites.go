package announcements_api

import (
	"context"
	"fmt"
	"listings-agent/internal/contracts"
	"listings-agent/internal/core/domain"
	"net/http"
	"net/url"
)

// ListFavorites - GET /favorites
func (c *Client) ListFavorites(ctx context.Context) ([]domain.FavoriteRecord, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	var dto favoritesListDTO
	if err := c.call(ctx, http.MethodGet, "/favorites", nil, nil, contracts.FavoritesList, &dto); err != nil {
		return nil, err
	}

	records := make([]domain.FavoriteRecord, len(dto.Results))
	for i, r := range dto.Results {
		records[i] = domain.FavoriteRecord{ID: string(r.ID), ListingID: string(r.Announcement)}
	}
	return records, nil
}

// AddFavorite - POST /favorites {announcement}. Возвращает ID новой записи избранного.
func (c *Client) AddFavorite(ctx context.Context, listingID string) (string, error) {
	if err := c.requireSession(); err != nil {
		return "", err
	}

	var dto favoriteCreatedDTO
	req := addFavoriteRequest{Announcement: listingID}
	if err := c.call(ctx, http.MethodPost, "/favorites", nil, req, contracts.FavoriteCreated, &dto); err != nil {
		return "", err
	}
	if dto.ID == "" {
		return "", fmt.Errorf("favorite created without id for announcement %s", listingID)
	}
	return string(dto.ID), nil
}

// RemoveFavorite - DELETE /favorites/{favoriteRecordId}
func (c *Client) RemoveFavorite(ctx context.Context, favoriteRecordID string) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	return c.call(ctx, http.MethodDelete, "/favorites/"+url.PathEscape(favoriteRecordID), nil, nil, "", nil)
}
