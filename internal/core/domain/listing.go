package domain

import "time"

// PropertyType - тип недвижимости
type PropertyType string

const (
	PropertyApartment  PropertyType = "apartment"
	PropertyHouse      PropertyType = "house"
	PropertyCommercial PropertyType = "commercial"
	PropertyLand       PropertyType = "land"
)

// ListingType - тип сделки
type ListingType string

const (
	ListingSale      ListingType = "sale"
	ListingRent      ListingType = "rent"
	ListingRentDaily ListingType = "rent_daily"
)

type Currency string

const (
	CurrencyUSD Currency = "usd"
	CurrencyUZS Currency = "uzs"
)

// Listing - объявление, полученное от бэкенда.
// Клиент никогда не изменяет его, только перезапрашивает.
type Listing struct {
	ID             string
	Title          string
	PropertyType   PropertyType
	ListingType    ListingType
	Price          string // десятичная строка, как её отдает API
	Currency       Currency
	Area           string
	AreaUnit       string
	RoomCount      *int
	Floor          *int
	TotalFloors    *int
	DistrictID     string
	MainImageURL   *string
	ViewsCount     int
	FavoritesCount int
	CreatedAt      time.Time
	PostedAt       *time.Time
	IsFeatured     bool // флаг сервера; итоговый бейдж считается в NewListingCard
}

// ListingCard - представление объявления для карточки в UI.
type ListingCard struct {
	Listing
	IsFeatured bool
	IsLiked    bool
}

// NewListingCard формирует карточку. Объявление помечается как "featured",
// если сервер выставил флаг, ИЛИ если оно пришло в отдельной подборке featured.
func NewListingCard(l Listing, featuredIDs map[string]struct{}, liked func(id string) bool) ListingCard {
	_, inFeatured := featuredIDs[l.ID]
	card := ListingCard{
		Listing:    l,
		IsFeatured: l.IsFeatured || inFeatured,
	}
	if liked != nil {
		card.IsLiked = liked(l.ID)
	}
	return card
}

// ListingPage - одна страница выдачи от API.
type ListingPage struct {
	Results    []Listing
	TotalCount int
	HasNext    bool
}
