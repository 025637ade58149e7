package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-restaurant-seating/internal/domain/reservation"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/table"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/transaction"
	"github.com/sanosuguru/go-restaurant-seating/internal/pkg/logger"
)

// SeatingService は着席と退席を扱う
// 卓と予約の行は常に「卓 → 予約」の順でロックする
type SeatingService struct {
	txManager       transaction.Manager
	tableRepo       table.Repository
	reservationRepo reservation.Repository
	collaborators
}

func NewSeatingService(txm transaction.Manager, tr table.Repository, rr reservation.Repository, opts ...Option) *SeatingService {
	return &SeatingService{
		txManager:       txm,
		tableRepo:       tr,
		reservationRepo: rr,
		collaborators:   newCollaborators(opts),
	}
}

// Seat は予約を卓に着席させ、更新後の卓を返す
func (s *SeatingService) Seat(ctx context.Context, tableID, reservationID int64) (*table.Table, error) {
	t, r, err := s.seat(ctx, tableID, reservationID)
	s.metrics.ObserveOperation("seat", err)
	if err != nil {
		return nil, err
	}

	s.metrics.TableOccupied(1)
	s.invalidateDays(ctx, r.Date)
	s.publish(ctx, reservation.NewEvent(reservation.EventSeated, r, &t.ID, time.Now()))
	logger.Info("着席しました", zap.Int64("table_id", t.ID), zap.Int64("reservation_id", r.ID))
	return t, nil
}

func (s *SeatingService) seat(ctx context.Context, tableID, reservationID int64) (*table.Table, *reservation.Reservation, error) {
	release, err := s.lockTable(ctx, tableID)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	var t *table.Table
	var r *reservation.Reservation
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		var err error
		if t, err = s.tableRepo.GetByIDForUpdate(ctx, tx, tableID); err != nil {
			return err
		}
		if r, err = s.reservationRepo.GetByIDForUpdate(ctx, tx, reservationID); err != nil {
			return err
		}

		// 既に着席済み → 終了済み → 人数 → 空席 の順で判定する
		if err := r.Seat(); err != nil {
			return err
		}
		if !t.CanHold(r.People) {
			return table.CapacityExceeded(t.ID, t.Capacity, r.People)
		}
		if err := t.Occupy(r.ID); err != nil {
			return err
		}

		if err := s.tableRepo.Occupy(ctx, tx, t.ID, r.ID); err != nil {
			return err
		}
		return s.reservationRepo.UpdateStatus(ctx, tx, r.ID, reservation.StatusBooked, reservation.StatusSeated)
	})
	if err != nil {
		return nil, nil, err
	}
	return t, r, nil
}

// Finish は卓を空け、着席していた予約を finished にする
func (s *SeatingService) Finish(ctx context.Context, tableID int64) (*table.Table, error) {
	t, r, err := s.finish(ctx, tableID)
	s.metrics.ObserveOperation("finish", err)
	if err != nil {
		return nil, err
	}

	s.metrics.TableOccupied(-1)
	s.invalidateDays(ctx, r.Date)
	s.publish(ctx, reservation.NewEvent(reservation.EventFinished, r, &t.ID, time.Now()))
	logger.Info("退席しました", zap.Int64("table_id", t.ID), zap.Int64("reservation_id", r.ID))
	return t, nil
}

func (s *SeatingService) finish(ctx context.Context, tableID int64) (*table.Table, *reservation.Reservation, error) {
	release, err := s.lockTable(ctx, tableID)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	var t *table.Table
	var r *reservation.Reservation
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		var err error
		if t, err = s.tableRepo.GetByIDForUpdate(ctx, tx, tableID); err != nil {
			return err
		}
		reservationID, err := t.Release()
		if err != nil {
			return err
		}
		if r, err = s.reservationRepo.GetByIDForUpdate(ctx, tx, reservationID); err != nil {
			return err
		}
		if err := r.Finish(); err != nil {
			return err
		}

		if err := s.tableRepo.Release(ctx, tx, t.ID, reservationID); err != nil {
			return err
		}
		return s.reservationRepo.UpdateStatus(ctx, tx, r.ID, reservation.StatusSeated, reservation.StatusFinished)
	})
	if err != nil {
		return nil, nil, err
	}
	return t, r, nil
}
