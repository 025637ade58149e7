package reservation

import (
	"time"

	"github.com/google/uuid"
)

// EventType は着席まわりのドメインイベント種別
type EventType string

const (
	EventCreated   EventType = "reservation.created"
	EventUpdated   EventType = "reservation.updated"
	EventSeated    EventType = "reservation.seated"
	EventFinished  EventType = "reservation.finished"
	EventCancelled EventType = "reservation.cancelled"
)

// Event はコミット後に外部へ流すイベント
type Event struct {
	ID              string    `json:"id"`
	Type            EventType `json:"type"`
	ReservationID   int64     `json:"reservation_id"`
	TableID         *int64    `json:"table_id,omitempty"`
	Status          Status    `json:"status"`
	ReservationDate string    `json:"reservation_date"`
	ReservationTime string    `json:"reservation_time"`
	People          int       `json:"people"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// NewEvent は予約の現在状態から一意な ID 付きのイベントを作成する
func NewEvent(t EventType, r *Reservation, tableID *int64, at time.Time) Event {
	return Event{
		ID:              uuid.New().String(),
		Type:            t,
		ReservationID:   r.ID,
		TableID:         tableID,
		Status:          r.Status,
		ReservationDate: r.Date,
		ReservationTime: r.Time,
		People:          r.People,
		OccurredAt:      at.UTC(),
	}
}
