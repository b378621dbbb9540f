package announcements_api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"listings-agent/internal/contracts"
	"listings-agent/internal/contextkeys"
	"listings-agent/internal/core/domain"
	"listings-agent/internal/core/port"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError - ответ бэкенда с не-2xx статусом.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("announcements api returned status %d: %s", e.StatusCode, e.Body)
}

// Config - настройки клиента бэкенда.
type Config struct {
	BaseURL string // Например, "https://api.example.uz/api/v1"
	Timeout time.Duration
	// ValidateResponses - проверять ли ответы по JSON-схемам из internal/contracts.
	ValidateResponses bool
}

// Client - клиент REST API объявлений. Реализует ListingsAPIPort, FavoritesAPIPort и DistrictsAPIPort.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	validate   bool
}

// NewClient - конструктор. Все запросы идут через один http.Client с sessionTransport.
func NewClient(cfg Config, session *Session) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &sessionTransport{base: http.DefaultTransport, session: session},
		},
		session:  session,
		validate: cfg.ValidateResponses,
	}
}

// doRequest - внутренний хелпер для выполнения запросов
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

// call выполняет запрос, проверяет статус, валидирует и декодирует тело в out (если out != nil).
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body interface{}, contract string, out interface{}) error {
	clientLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "AnnouncementsAPIClient",
		"http_method": method,
		"path":        path,
	})
	clientLogger.Debug("Sending request to announcements api", nil)

	startTime := time.Now()
	resp, err := c.doRequest(ctx, method, path, query, body)
	if err != nil {
		clientLogger.Error("Failed to perform request to announcements api", err, nil)
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		clientLogger.Error("Failed to read response body", err, port.Fields{"status_code": resp.StatusCode})
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
		clientLogger.Error("Received error response from announcements api", apiErr, port.Fields{"status_code": resp.StatusCode})
		return apiErr
	}

	clientLogger.Debug("Received response from announcements api", port.Fields{
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(startTime).Milliseconds(),
	})

	if out == nil {
		return nil
	}

	if c.validate && contract != "" {
		if err := contracts.Validate(contract, respBody); err != nil {
			clientLogger.Error("Response does not match contract", err, port.Fields{"contract": contract})
			return err
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		clientLogger.Error("Failed to decode response from announcements api", err, nil)
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// requireSession - эндпоинты избранного работают только с авторизацией.
func (c *Client) requireSession() error {
	_, err := c.session.Token()
	return err
}

func toDomainListing(dto announcementDTO) domain.Listing {
	return domain.Listing{
		ID:             string(dto.ID),
		Title:          dto.Title,
		PropertyType:   domain.PropertyType(dto.PropertyType),
		ListingType:    domain.ListingType(dto.ListingType),
		Price:          string(dto.Price),
		Currency:       domain.Currency(dto.Currency),
		Area:           string(dto.Area),
		AreaUnit:       dto.AreaUnit,
		RoomCount:      dto.RoomCount,
		Floor:          dto.Floor,
		TotalFloors:    dto.TotalFloors,
		DistrictID:     string(dto.District),
		MainImageURL:   dto.MainImage,
		ViewsCount:     dto.ViewsCount,
		FavoritesCount: dto.FavoritesCount,
		CreatedAt:      dto.CreatedAt,
		PostedAt:       dto.PostedAt,
		IsFeatured:     dto.IsFeatured,
	}
}

func toDomainListings(dtos []announcementDTO) []domain.Listing {
	result := make([]domain.Listing, len(dtos))
	for i, dto := range dtos {
		result[i] = toDomainListing(dto)
	}
	return result
}
