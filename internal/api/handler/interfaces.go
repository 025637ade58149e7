package handler

import (
	"context"

	"github.com/sanosuguru/go-restaurant-seating/internal/application"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/reservation"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/table"
)

// ReservationServiceInterface は予約サービスのインターフェース
type ReservationServiceInterface interface {
	Create(ctx context.Context, p *reservation.Payload) (*reservation.Reservation, error)
	Get(ctx context.Context, id int64) (*reservation.Reservation, error)
	List(ctx context.Context, f application.ListFilter) ([]*reservation.Reservation, error)
	Update(ctx context.Context, id int64, p *reservation.Payload) (*reservation.Reservation, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*reservation.Reservation, error)
}

// TableServiceInterface は卓サービスのインターフェース
type TableServiceInterface interface {
	Create(ctx context.Context, p *table.Payload) (*table.Table, error)
	Get(ctx context.Context, id int64) (*table.Table, error)
	List(ctx context.Context) ([]*table.Table, error)
	Update(ctx context.Context, id int64, p *table.Payload) (*table.Table, error)
	Delete(ctx context.Context, id int64) error
}

// SeatingServiceInterface は着席サービスのインターフェース
type SeatingServiceInterface interface {
	Seat(ctx context.Context, tableID, reservationID int64) (*table.Table, error)
	Finish(ctx context.Context, tableID int64) (*table.Table, error)
}

var (
	_ ReservationServiceInterface = (*application.ReservationService)(nil)
	_ TableServiceInterface       = (*application.TableService)(nil)
	_ SeatingServiceInterface     = (*application.SeatingService)(nil)
)
