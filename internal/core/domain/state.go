package domain

// FavoritesState - снимок состояния избранного для отрисовки.
type FavoritesState struct {
	LikedIDs      []string
	FavoriteMap   map[string]string
	LikedListings []Listing // кэш для экрана "Избранное"
	Loading       bool
	Error         string
}

// ListingsState - снимок окна выдачи одного экрана.
type ListingsState struct {
	View              string
	Items             []ListingCard
	Featured          []ListingCard
	CurrentPage       int
	HasNextPage       bool
	TotalCount        int
	Loading           bool // полноэкранный спиннер
	Refreshing        bool // ненавязчивый индикатор обновления
	Filters           FilterState
	ActiveFilterCount int
	Error             string
}
