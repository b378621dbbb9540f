package announcements_api

import (
	"context"
	"listings-agent/internal/contracts"
	"listings-agent/internal/core/domain"
	"net/http"
	"net/url"
	"strconv"
)

// ListAnnouncements - GET /announcements?page&page_size&<filters>
func (c *Client) ListAnnouncements(ctx context.Context, page, pageSize int, filters domain.FilterState, fixed map[string]string) (*domain.ListingPage, error) {
	query := filters.Query()
	// Фиксированные параметры экрана (например, owner=me для профиля) важнее пользовательских
	for k, v := range fixed {
		query.Set(k, v)
	}
	query.Set("page", strconv.Itoa(page))
	if pageSize > 0 {
		query.Set("page_size", strconv.Itoa(pageSize))
	}

	var dto announcementPageDTO
	if err := c.call(ctx, http.MethodGet, "/announcements", query, nil, contracts.ListingPage, &dto); err != nil {
		return nil, err
	}

	return &domain.ListingPage{
		Results:    toDomainListings(dto.Results),
		TotalCount: dto.Count,
		HasNext:    dto.Next != nil && *dto.Next != "",
	}, nil
}

// ListFeatured - GET /announcements/featured
func (c *Client) ListFeatured(ctx context.Context) ([]domain.Listing, error) {
	var dto featuredDTO
	if err := c.call(ctx, http.MethodGet, "/announcements/featured", nil, nil, contracts.FeaturedList, &dto); err != nil {
		return nil, err
	}
	return toDomainListings(dto.Results), nil
}

// GetAnnouncement - GET /announcements/{id}
func (c *Client) GetAnnouncement(ctx context.Context, id string) (*domain.Listing, error) {
	var dto announcementDTO
	if err := c.call(ctx, http.MethodGet, "/announcements/"+url.PathEscape(id), nil, nil, contracts.Listing, &dto); err != nil {
		return nil, err
	}
	listing := toDomainListing(dto)
	return &listing, nil
}
