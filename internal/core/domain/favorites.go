package domain

import "sort"

// FavoriteRecord - запись избранного на сервере.
// Для удаления нужен именно ID записи, а не ID объявления.
type FavoriteRecord struct {
	ID        string
	ListingID string
}

// FavoritesIndex хранит две связанные структуры:
//   - likedIDs: множество ID объявлений в избранном;
//   - favoriteMap: ID объявления -> ID записи избранного.
//
// Каждый ключ favoriteMap обязан быть в likedIDs. Обратное может не выполняться,
// пока запрос на добавление еще не вернул ID записи.
// Не потокобезопасен, синхронизация на стороне владельца.
type FavoritesIndex struct {
	likedIDs    map[string]struct{}
	favoriteMap map[string]string
}

func NewFavoritesIndex() *FavoritesIndex {
	return &FavoritesIndex{
		likedIDs:    make(map[string]struct{}),
		favoriteMap: make(map[string]string),
	}
}

// Replace полностью заменяет индекс списком записей с сервера.
func (x *FavoritesIndex) Replace(records []FavoriteRecord) {
	x.likedIDs = make(map[string]struct{}, len(records))
	x.favoriteMap = make(map[string]string, len(records))
	for _, r := range records {
		x.likedIDs[r.ListingID] = struct{}{}
		x.favoriteMap[r.ListingID] = r.ID
	}
}

// MarkLiked добавляет ID в likedIDs без записи (оптимистичное состояние).
func (x *FavoritesIndex) MarkLiked(listingID string) {
	x.likedIDs[listingID] = struct{}{}
}

// Confirm фиксирует подтвержденное сервером добавление.
func (x *FavoritesIndex) Confirm(listingID, recordID string) {
	x.likedIDs[listingID] = struct{}{}
	x.favoriteMap[listingID] = recordID
}

// Forget удаляет ID из обеих структур.
func (x *FavoritesIndex) Forget(listingID string) {
	delete(x.likedIDs, listingID)
	delete(x.favoriteMap, listingID)
}

func (x *FavoritesIndex) IsLiked(listingID string) bool {
	_, ok := x.likedIDs[listingID]
	return ok
}

func (x *FavoritesIndex) RecordID(listingID string) (string, bool) {
	id, ok := x.favoriteMap[listingID]
	return id, ok
}

// LikedIDs возвращает отсортированную копию множества.
func (x *FavoritesIndex) LikedIDs() []string {
	ids := make([]string, 0, len(x.likedIDs))
	for id := range x.likedIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FavoriteMap возвращает копию карты.
func (x *FavoritesIndex) FavoriteMap() map[string]string {
	m := make(map[string]string, len(x.favoriteMap))
	for k, v := range x.favoriteMap {
		m[k] = v
	}
	return m
}

// Consistent проверяет инвариант: все ключи favoriteMap есть в likedIDs.
func (x *FavoritesIndex) Consistent() bool {
	for id := range x.favoriteMap {
		if _, ok := x.likedIDs[id]; !ok {
			return false
		}
	}
	return true
}
