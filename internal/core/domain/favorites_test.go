package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFavoritesIndex(t *testing.T) {
	x := NewFavoritesIndex()

	x.MarkLiked("a")
	assert.True(t, x.IsLiked("a"))
	_, ok := x.RecordID("a")
	assert.False(t, ok, "pending add has no record id yet")
	assert.True(t, x.Consistent())

	x.Confirm("a", "fav-1")
	id, ok := x.RecordID("a")
	assert.True(t, ok)
	assert.Equal(t, "fav-1", id)

	x.Confirm("b", "fav-2")
	assert.Equal(t, []string{"a", "b"}, x.LikedIDs())
	assert.Equal(t, map[string]string{"a": "fav-1", "b": "fav-2"}, x.FavoriteMap())

	x.Forget("a")
	assert.False(t, x.IsLiked("a"))
	assert.Equal(t, map[string]string{"b": "fav-2"}, x.FavoriteMap())
	assert.True(t, x.Consistent())
}

func TestFavoritesIndexReplace(t *testing.T) {
	x := NewFavoritesIndex()
	x.MarkLiked("pending")
	x.Confirm("old", "fav-0")

	x.Replace([]FavoriteRecord{{ID: "fav-9", ListingID: "z"}})

	assert.Equal(t, []string{"z"}, x.LikedIDs())
	assert.Equal(t, map[string]string{"z": "fav-9"}, x.FavoriteMap())
}

func TestFavoritesIndexCopiesAreDetached(t *testing.T) {
	x := NewFavoritesIndex()
	x.Confirm("a", "fav-1")

	m := x.FavoriteMap()
	m["b"] = "fav-2"
	ids := x.LikedIDs()
	ids[0] = "mutated"

	assert.False(t, x.IsLiked("b"))
	assert.Equal(t, []string{"a"}, x.LikedIDs())
}
