package rabbitmq

import "time"

// FavoriteEventDTO - сообщение в обменник аналитики избранного
type FavoriteEventDTO struct {
	EventID          string    `json:"event_id"`
	Event            string    `json:"event"`
	ListingID        string    `json:"listing_id"`
	FavoriteRecordID string    `json:"favorite_record_id,omitempty"`
	UserID           string    `json:"user_id,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}
