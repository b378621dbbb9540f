package rest

import (
	"listings-agent/internal/core/domain"
	"time"
)

type SessionRequest struct {
	Token string `json:"token"`
}

type SessionResponse struct {
	Authenticated  bool   `json:"authenticated"`
	UserID         string `json:"user_id,omitempty"`
	FavoritesError string `json:"favorites_error,omitempty"`
}

type LanguageRequest struct {
	Language string `json:"language"`
}

type LanguageResponse struct {
	Language string `json:"language"`
}

// ListingDTO - объявление в ответах и в теле POST /favorites (кэш экрана "Избранное")
type ListingDTO struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	PropertyType   string     `json:"property_type"`
	ListingType    string     `json:"listing_type"`
	Price          string     `json:"price"`
	Currency       string     `json:"currency"`
	Area           string     `json:"area"`
	AreaUnit       string     `json:"area_unit"`
	RoomCount      *int       `json:"room_count"`
	Floor          *int       `json:"floor"`
	TotalFloors    *int       `json:"total_floors"`
	District       string     `json:"district"`
	MainImage      *string    `json:"main_image"`
	ViewsCount     int        `json:"views_count"`
	FavoritesCount int        `json:"favorites_count"`
	CreatedAt      time.Time  `json:"created_at"`
	PostedAt       *time.Time `json:"posted_at,omitempty"`
	IsFeatured     bool       `json:"is_featured"`
}

// ListingCardDTO - карточка: is_featured здесь уже итоговый бейдж, а не флаг сервера
type ListingCardDTO struct {
	ListingDTO
	IsFeatured bool `json:"is_featured"`
	IsLiked    bool `json:"is_liked"`
}

type FavoritesStateResponse struct {
	LikedIDs      []string          `json:"liked_ids"`
	FavoriteMap   map[string]string `json:"favorite_map"`
	LikedListings []ListingDTO      `json:"liked_listings"`
	Loading       bool              `json:"loading"`
	Error         string            `json:"error,omitempty"`
}

type AddFavoriteRequest struct {
	ListingID string      `json:"listing_id"`
	Listing   *ListingDTO `json:"listing,omitempty"`
}

type ToggleFavoriteRequest struct {
	Listing *ListingDTO `json:"listing,omitempty"`
}

type ToggleFavoriteResponse struct {
	Liked bool                   `json:"liked"`
	State FavoritesStateResponse `json:"state"`
}

type LikedListingsResponse struct {
	Results []ListingDTO `json:"results"`
	Error   string       `json:"error,omitempty"`
}

type ListingsStateResponse struct {
	View              string             `json:"view"`
	Items             []ListingCardDTO   `json:"items"`
	Featured          []ListingCardDTO   `json:"featured"`
	CurrentPage       int                `json:"current_page"`
	HasNextPage       bool               `json:"has_next_page"`
	TotalCount        int                `json:"total_count"`
	Loading           bool               `json:"loading"`
	Refreshing        bool               `json:"refreshing"`
	Filters           domain.FilterState `json:"filters"`
	ActiveFilterCount int                `json:"active_filter_count"`
	Error             string             `json:"error,omitempty"`
}

type FetchRequest struct {
	Page    int               `json:"page"`
	Filters map[string]string `json:"filters"`
	Initial bool              `json:"initial"`
}

type FiltersRequest struct {
	Filters map[string]string `json:"filters"`
}

type FilterPillDTO struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Label string `json:"label"`
}

type FilterPillsResponse struct {
	Results     []FilterPillDTO `json:"results"`
	ActiveCount int             `json:"active_count"`
}

func toListingDTO(l domain.Listing) ListingDTO {
	return ListingDTO{
		ID:             l.ID,
		Title:          l.Title,
		PropertyType:   string(l.PropertyType),
		ListingType:    string(l.ListingType),
		Price:          l.Price,
		Currency:       string(l.Currency),
		Area:           l.Area,
		AreaUnit:       l.AreaUnit,
		RoomCount:      l.RoomCount,
		Floor:          l.Floor,
		TotalFloors:    l.TotalFloors,
		District:       l.DistrictID,
		MainImage:      l.MainImageURL,
		ViewsCount:     l.ViewsCount,
		FavoritesCount: l.FavoritesCount,
		CreatedAt:      l.CreatedAt,
		PostedAt:       l.PostedAt,
		IsFeatured:     l.IsFeatured,
	}
}

func toListingDTOs(listings []domain.Listing) []ListingDTO {
	out := make([]ListingDTO, len(listings))
	for i, l := range listings {
		out[i] = toListingDTO(l)
	}
	return out
}

func (d ListingDTO) toDomain() domain.Listing {
	return domain.Listing{
		ID:             d.ID,
		Title:          d.Title,
		PropertyType:   domain.PropertyType(d.PropertyType),
		ListingType:    domain.ListingType(d.ListingType),
		Price:          d.Price,
		Currency:       domain.Currency(d.Currency),
		Area:           d.Area,
		AreaUnit:       d.AreaUnit,
		RoomCount:      d.RoomCount,
		Floor:          d.Floor,
		TotalFloors:    d.TotalFloors,
		DistrictID:     d.District,
		MainImageURL:   d.MainImage,
		ViewsCount:     d.ViewsCount,
		FavoritesCount: d.FavoritesCount,
		CreatedAt:      d.CreatedAt,
		PostedAt:       d.PostedAt,
		IsFeatured:     d.IsFeatured,
	}
}

func toListingCardDTOs(cards []domain.ListingCard) []ListingCardDTO {
	out := make([]ListingCardDTO, len(cards))
	for i, c := range cards {
		out[i] = ListingCardDTO{
			ListingDTO: toListingDTO(c.Listing),
			IsFeatured: c.IsFeatured,
			IsLiked:    c.IsLiked,
		}
	}
	return out
}

func toFavoritesStateResponse(state domain.FavoritesState) FavoritesStateResponse {
	resp := FavoritesStateResponse{
		LikedIDs:      state.LikedIDs,
		FavoriteMap:   state.FavoriteMap,
		LikedListings: toListingDTOs(state.LikedListings),
		Loading:       state.Loading,
		Error:         state.Error,
	}
	if resp.LikedIDs == nil {
		resp.LikedIDs = []string{}
	}
	if resp.FavoriteMap == nil {
		resp.FavoriteMap = map[string]string{}
	}
	return resp
}

func toListingsStateResponse(state domain.ListingsState) ListingsStateResponse {
	return ListingsStateResponse{
		View:              state.View,
		Items:             toListingCardDTOs(state.Items),
		Featured:          toListingCardDTOs(state.Featured),
		CurrentPage:       state.CurrentPage,
		HasNextPage:       state.HasNextPage,
		TotalCount:        state.TotalCount,
		Loading:           state.Loading,
		Refreshing:        state.Refreshing,
		Filters:           state.Filters,
		ActiveFilterCount: state.ActiveFilterCount,
		Error:             state.Error,
	}
}

func toFilterPillDTOs(pills []domain.FilterPill) []FilterPillDTO {
	out := make([]FilterPillDTO, len(pills))
	for i, p := range pills {
		out[i] = FilterPillDTO{Key: p.Key, Value: p.Value, Label: p.Label}
	}
	return out
}
