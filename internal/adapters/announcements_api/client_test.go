package announcements_api

import (
	"context"
	"errors"
	"io"
	"listings-agent/internal/contextkeys"
	"listings-agent/internal/core/domain"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingJSON = `{"id": 7, "title": "2-room flat", "property_type": "apartment", "listing_type": "sale",
	"price": "52000.00", "currency": "usd", "area": 54.5, "area_unit": "m2", "room_count": 2, "floor": null,
	"district": 3, "main_image": null, "views_count": 10, "favorites_count": 1,
	"created_at": "2024-05-01T10:00:00Z", "posted_at": null, "is_featured": false}`

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 42,
		"exp":     exp.Unix(),
	})
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func newTestClient(t *testing.T, r chi.Router, validate bool) (*Client, *Session) {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	session := NewSession()
	client := NewClient(Config{BaseURL: srv.URL + "/", Timeout: 2 * time.Second, ValidateResponses: validate}, session)
	return client, session
}

func TestListAnnouncementsSendsFiltersAndSessionHeaders(t *testing.T) {
	var gotQuery, gotAuth, gotLang, gotTrace string
	r := chi.NewRouter()
	r.Get("/announcements", func(w http.ResponseWriter, req *http.Request) {
		gotQuery = req.URL.RawQuery
		gotAuth = req.Header.Get("Authorization")
		gotLang = req.Header.Get("Accept-Language")
		gotTrace = req.Header.Get("X-Trace-ID")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"count": 3, "next": "https://api/announcements?page=2", "results": [`+listingJSON+`]}`)
	})

	client, session := newTestClient(t, r, true)
	token := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, session.SetToken(token))
	session.SetLanguage("uz")
	assert.Equal(t, "42", session.UserID())

	filters, err := domain.EmptyFilters.Set(domain.FilterPropertyType, "apartment")
	require.NoError(t, err)
	filters, err = filters.Set(domain.FilterPriceMin, "100")
	require.NoError(t, err)

	ctx := contextkeys.ContextWithTraceID(context.Background(), "trace-1")
	page, err := client.ListAnnouncements(ctx, 1, 20, filters, map[string]string{"owner": "me"})
	require.NoError(t, err)

	assert.Equal(t, "owner=me&page=1&page_size=20&price_min=100&property_type=apartment", gotQuery)
	assert.Equal(t, "Bearer "+token, gotAuth)
	assert.Equal(t, "uz", gotLang)
	assert.Equal(t, "trace-1", gotTrace)

	require.Len(t, page.Results, 1)
	assert.True(t, page.HasNext)
	assert.Equal(t, 3, page.TotalCount)

	l := page.Results[0]
	assert.Equal(t, "7", l.ID)
	assert.Equal(t, "52000.00", l.Price)
	assert.Equal(t, "54.5", l.Area)
	assert.Equal(t, "3", l.DistrictID)
	assert.Equal(t, domain.PropertyApartment, l.PropertyType)
	require.NotNil(t, l.RoomCount)
	assert.Equal(t, 2, *l.RoomCount)
	assert.Nil(t, l.Floor)
	assert.Nil(t, l.MainImageURL)
}

func TestExpiredSessionFailsBeforeNetwork(t *testing.T) {
	var hits atomic.Int32
	r := chi.NewRouter()
	r.Get("/announcements/featured", func(w http.ResponseWriter, req *http.Request) {
		hits.Add(1)
		io.WriteString(w, `{"results": []}`)
	})

	client, session := newTestClient(t, r, false)
	require.NoError(t, session.SetToken(signedToken(t, time.Now().Add(time.Hour))))
	// Токен истек, пока агент работал
	session.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := client.ListFeatured(context.Background())
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Equal(t, int32(0), hits.Load())
}

func TestSetTokenRejectsExpiredTokenAndKeepsSession(t *testing.T) {
	session := NewSession()
	valid := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, session.SetToken(valid))

	err := session.SetToken(signedToken(t, time.Now().Add(-time.Minute)))
	require.ErrorIs(t, err, domain.ErrSessionExpired)

	token, err := session.Token()
	require.NoError(t, err)
	assert.Equal(t, valid, token)
	assert.Equal(t, "42", session.UserID())
}

func TestSetTokenEmptyLogsOut(t *testing.T) {
	session := NewSession()
	require.NoError(t, session.SetToken(signedToken(t, time.Now().Add(time.Hour))))
	require.NoError(t, session.SetToken(""))

	_, err := session.Token()
	assert.ErrorIs(t, err, domain.ErrNoSession)
	assert.Empty(t, session.UserID())
}

func TestFavoritesRequireSession(t *testing.T) {
	client, _ := newTestClient(t, chi.NewRouter(), false)

	_, err := client.ListFavorites(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoSession)

	_, err = client.AddFavorite(context.Background(), "7")
	assert.ErrorIs(t, err, domain.ErrNoSession)

	err = client.RemoveFavorite(context.Background(), "11")
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestFavoritesRoundTrip(t *testing.T) {
	var deleted string
	r := chi.NewRouter()
	r.Get("/favorites", func(w http.ResponseWriter, req *http.Request) {
		io.WriteString(w, `{"results": [{"id": 11, "announcement": 7}, {"id": "12", "announcement": "8"}]}`)
	})
	r.Post("/favorites", func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		assert.JSONEq(t, `{"announcement": "9"}`, string(body))
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id": 13, "announcement": 9}`)
	})
	r.Delete("/favorites/{id}", func(w http.ResponseWriter, req *http.Request) {
		deleted = chi.URLParam(req, "id")
		w.WriteHeader(http.StatusNoContent)
	})

	client, session := newTestClient(t, r, true)
	require.NoError(t, session.SetToken("opaque-token"))

	records, err := client.ListFavorites(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.FavoriteRecord{{ID: "11", ListingID: "7"}, {ID: "12", ListingID: "8"}}, records)

	recordID, err := client.AddFavorite(context.Background(), "9")
	require.NoError(t, err)
	assert.Equal(t, "13", recordID)

	require.NoError(t, client.RemoveFavorite(context.Background(), "13"))
	assert.Equal(t, "13", deleted)
}

func TestNonSuccessStatusReturnsAPIError(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/announcements/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail": "Not found."}`)
	})

	client, _ := newTestClient(t, r, false)
	_, err := client.GetAnnouncement(context.Background(), "404")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Not found")
}

func TestContractViolationIsRejected(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/announcements/featured", func(w http.ResponseWriter, req *http.Request) {
		io.WriteString(w, `{"items": []}`)
	})

	client, _ := newTestClient(t, r, true)
	_, err := client.ListFeatured(context.Background())
	assert.ErrorContains(t, err, "schema validation failed")
}

func TestListDistrictsAcceptsBothShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "array", body: `[{"id": 1, "name": "Yunusobod"}]`},
		{name: "envelope", body: `{"results": [{"id": 1, "name": "Yunusobod"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Get("/districts", func(w http.ResponseWriter, req *http.Request) {
				io.WriteString(w, tt.body)
			})
			client, _ := newTestClient(t, r, true)

			districts, err := client.ListDistricts(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []domain.District{{ID: "1", Name: "Yunusobod"}}, districts)
		})
	}
}
