package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// Ключи фильтров совпадают с именами query-параметров API.
const (
	FilterPropertyType = "property_type"
	FilterListingType  = "listing_type"
	FilterBuildingType = "building_type"
	FilterCondition    = "condition"
	FilterCurrency     = "currency"
	FilterPriceMin     = "price_min"
	FilterPriceMax     = "price_max"
	FilterAreaMin      = "area_min"
	FilterAreaMax      = "area_max"
	FilterRoomsMin     = "rooms_min"
	FilterRoomsMax     = "rooms_max"
	FilterFloorMin     = "floor_min"
	FilterFloorMax     = "floor_max"
	FilterDistrict     = "district"
	FilterOrdering     = "ordering"
)

// FilterKeys - все ключи в порядке отображения.
var FilterKeys = []string{
	FilterPropertyType,
	FilterListingType,
	FilterBuildingType,
	FilterCondition,
	FilterCurrency,
	FilterPriceMin,
	FilterPriceMax,
	FilterAreaMin,
	FilterAreaMax,
	FilterRoomsMin,
	FilterRoomsMax,
	FilterFloorMin,
	FilterFloorMax,
	FilterDistrict,
	FilterOrdering,
}

// FilterState - плоский набор необязательных критериев.
// Пустая строка означает "без ограничения".
type FilterState struct {
	PropertyType string `json:"property_type"`
	ListingType  string `json:"listing_type"`
	BuildingType string `json:"building_type"`
	Condition    string `json:"condition"`
	Currency     string `json:"currency"`
	PriceMin     string `json:"price_min"`
	PriceMax     string `json:"price_max"`
	AreaMin      string `json:"area_min"`
	AreaMax      string `json:"area_max"`
	RoomsMin     string `json:"rooms_min"`
	RoomsMax     string `json:"rooms_max"`
	FloorMin     string `json:"floor_min"`
	FloorMax     string `json:"floor_max"`
	District     string `json:"district"`
	Ordering     string `json:"ordering"`
}

// EmptyFilters - начальное состояние фильтров.
var EmptyFilters = FilterState{}

func (f *FilterState) field(key string) (*string, error) {
	switch key {
	case FilterPropertyType:
		return &f.PropertyType, nil
	case FilterListingType:
		return &f.ListingType, nil
	case FilterBuildingType:
		return &f.BuildingType, nil
	case FilterCondition:
		return &f.Condition, nil
	case FilterCurrency:
		return &f.Currency, nil
	case FilterPriceMin:
		return &f.PriceMin, nil
	case FilterPriceMax:
		return &f.PriceMax, nil
	case FilterAreaMin:
		return &f.AreaMin, nil
	case FilterAreaMax:
		return &f.AreaMax, nil
	case FilterRoomsMin:
		return &f.RoomsMin, nil
	case FilterRoomsMax:
		return &f.RoomsMax, nil
	case FilterFloorMin:
		return &f.FloorMin, nil
	case FilterFloorMax:
		return &f.FloorMax, nil
	case FilterDistrict:
		return &f.District, nil
	case FilterOrdering:
		return &f.Ordering, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFilterKey, key)
}

// Get возвращает значение фильтра по ключу.
func (f FilterState) Get(key string) (string, error) {
	p, err := f.field(key)
	if err != nil {
		return "", err
	}
	return *p, nil
}

// Set возвращает копию с измененным значением.
func (f FilterState) Set(key, value string) (FilterState, error) {
	p, err := f.field(key)
	if err != nil {
		return f, err
	}
	*p = value
	return f, nil
}

// Clear сбрасывает один фильтр в "".
func (f FilterState) Clear(key string) (FilterState, error) {
	return f.Set(key, "")
}

// ActiveCount - количество непустых полей (число на бейдже фильтров).
func (f FilterState) ActiveCount() int {
	count := 0
	for _, key := range FilterKeys {
		if v, _ := f.Get(key); v != "" {
			count++
		}
	}
	return count
}

// Active возвращает непустые фильтры в порядке FilterKeys.
func (f FilterState) Active() [][2]string {
	active := make([][2]string, 0, len(FilterKeys))
	for _, key := range FilterKeys {
		if v, _ := f.Get(key); v != "" {
			active = append(active, [2]string{key, v})
		}
	}
	return active
}

// Normalized обрезает пробелы: значение из одних пробелов считается пустым.
func (f FilterState) Normalized() FilterState {
	out := f
	for _, key := range FilterKeys {
		p, _ := out.field(key)
		*p = strings.TrimSpace(*p)
	}
	return out
}

// Query формирует query-параметры только из непустых фильтров.
func (f FilterState) Query() url.Values {
	q := url.Values{}
	for _, kv := range f.Active() {
		q.Set(kv[0], kv[1])
	}
	return q
}

// FilterStateFromMap собирает FilterState из произвольной карты (тело запроса от UI).
func FilterStateFromMap(m map[string]string) (FilterState, error) {
	f := EmptyFilters
	for k, v := range m {
		var err error
		if f, err = f.Set(k, v); err != nil {
			return EmptyFilters, err
		}
	}
	return f, nil
}
