package announcements_api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// flexString принимает и строку, и число: бэкенд отдает id и десятичные значения по-разному
// в зависимости от эндпоинта.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flexString: expected string or number, got %s", string(data))
	}
	*f = flexString(n.String())
	return nil
}

// DTO объявления - должен совпадать с сериализатором бэкенда.
type announcementDTO struct {
	ID             flexString `json:"id"`
	Title          string     `json:"title"`
	PropertyType   string     `json:"property_type"`
	ListingType    string     `json:"listing_type"`
	Price          flexString `json:"price"`
	Currency       string     `json:"currency"`
	Area           flexString `json:"area"`
	AreaUnit       string     `json:"area_unit"`
	RoomCount      *int       `json:"room_count"`
	Floor          *int       `json:"floor"`
	TotalFloors    *int       `json:"total_floors"`
	District       flexString `json:"district"`
	MainImage      *string    `json:"main_image"`
	ViewsCount     int        `json:"views_count"`
	FavoritesCount int        `json:"favorites_count"`
	CreatedAt      time.Time  `json:"created_at"`
	PostedAt       *time.Time `json:"posted_at"`
	IsFeatured     bool       `json:"is_featured"`
}

type announcementPageDTO struct {
	Results []announcementDTO `json:"results"`
	Count   int               `json:"count"`
	Next    *string           `json:"next"`
}

type featuredDTO struct {
	Results []announcementDTO `json:"results"`
}

type favoriteRecordDTO struct {
	ID           flexString `json:"id"`
	Announcement flexString `json:"announcement"`
}

type favoritesListDTO struct {
	Results []favoriteRecordDTO `json:"results"`
}

type addFavoriteRequest struct {
	Announcement string `json:"announcement"`
}

type favoriteCreatedDTO struct {
	ID flexString `json:"id"`
}

type districtDTO struct {
	ID   flexString `json:"id"`
	Name string     `json:"name"`
}
