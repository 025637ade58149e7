package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-restaurant-seating/internal/domain/calendar"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/reservation"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/table"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-restaurant-seating/internal/infrastructure/redis"
	"github.com/sanosuguru/go-restaurant-seating/internal/pkg/logger"
)

type ReservationService struct {
	txManager       transaction.Manager
	reservationRepo reservation.Repository
	tableRepo       table.Repository
	policy          *calendar.Policy
	validator       *reservation.Validator
	collaborators
}

func NewReservationService(txm transaction.Manager, rr reservation.Repository, tr table.Repository, policy *calendar.Policy, opts ...Option) *ReservationService {
	return &ReservationService{
		txManager:       txm,
		reservationRepo: rr,
		tableRepo:       tr,
		policy:          policy,
		validator:       reservation.NewValidator(policy),
		collaborators:   newCollaborators(opts),
	}
}

// ListFilter は一覧の絞り込み条件。Date が MobileNumber より優先される
type ListFilter struct {
	Date         string
	MobileNumber string
}

func (s *ReservationService) Create(ctx context.Context, p *reservation.Payload) (*reservation.Reservation, error) {
	r, err := s.create(ctx, p)
	s.metrics.ObserveOperation("create", err)
	if err != nil {
		return nil, err
	}
	s.invalidateDays(ctx, r.Date)
	s.publish(ctx, reservation.NewEvent(reservation.EventCreated, r, nil, time.Now()))
	return r, nil
}

func (s *ReservationService) create(ctx context.Context, p *reservation.Payload) (*reservation.Reservation, error) {
	d, err := s.validator.ForCreate(p)
	if err != nil {
		return nil, err
	}
	r := reservation.NewReservation(d)
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		return s.reservationRepo.Create(ctx, tx, r)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ReservationService) Get(ctx context.Context, id int64) (*reservation.Reservation, error) {
	return s.reservationRepo.GetByID(ctx, id)
}

// List は日付・電話番号・全件のいずれかで予約を返す
func (s *ReservationService) List(ctx context.Context, f ListFilter) ([]*reservation.Reservation, error) {
	switch {
	case f.Date != "":
		return s.listByDate(ctx, f.Date)
	case f.MobileNumber != "":
		digits := reservation.NormalizePhone(f.MobileNumber)
		if digits == "" {
			return nil, reservation.ErrInvalidSearch
		}
		return s.reservationRepo.SearchByPhone(ctx, digits)
	default:
		return s.reservationRepo.List(ctx)
	}
}

func (s *ReservationService) listByDate(ctx context.Context, date string) ([]*reservation.Reservation, error) {
	parsed, err := calendar.ParseDate(date)
	if err != nil {
		return nil, reservation.ErrInvalidDate
	}
	date = parsed.Format(calendar.DateLayout)

	version, cached := s.cachedVersion(ctx, date)
	if cached {
		list, err := s.cache.GetDay(ctx, date, version)
		if err == nil {
			return list, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("予約一覧キャッシュの取得に失敗", zap.String("date", date), zap.Error(err))
		}
	}

	list, err := s.reservationRepo.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	// 読み込み中に無効化されていれば古い世代に書かれるだけで、以後は読まれない
	if cached {
		if err := s.cache.SetDay(ctx, date, version, list); err != nil {
			logger.Warn("予約一覧キャッシュの保存に失敗", zap.String("date", date), zap.Error(err))
		}
	}
	return list, nil
}

// cachedVersion はストアを読む前のキャッシュ世代を返す。キャッシュが使えなければ false
func (s *ReservationService) cachedVersion(ctx context.Context, date string) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	version, err := s.cache.Version(ctx, date)
	if err != nil {
		logger.Warn("予約一覧キャッシュの世代を取得できません", zap.String("date", date), zap.Error(err))
		return 0, false
	}
	return version, true
}

// Update は予約項目を再検証して更新する
// 着席中の予約は卓の収容人数を超える人数に変更できない
func (s *ReservationService) Update(ctx context.Context, id int64, p *reservation.Payload) (*reservation.Reservation, error) {
	r, previousDate, err := s.update(ctx, id, p)
	s.metrics.ObserveOperation("update", err)
	if err != nil {
		return nil, err
	}
	s.invalidateDays(ctx, previousDate, r.Date)
	s.publish(ctx, reservation.NewEvent(reservation.EventUpdated, r, nil, time.Now()))
	return r, nil
}

func (s *ReservationService) update(ctx context.Context, id int64, p *reservation.Payload) (*reservation.Reservation, string, error) {
	if _, err := s.reservationRepo.GetByID(ctx, id); err != nil {
		return nil, "", err
	}
	d, err := s.validator.ForUpdate(p)
	if err != nil {
		return nil, "", err
	}

	var r *reservation.Reservation
	var previousDate string
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		t, locked, err := s.lockReservation(ctx, tx, id)
		if err != nil {
			return err
		}
		r = locked
		previousDate = r.Date
		if err := r.Edit(d); err != nil {
			return err
		}
		if t != nil && r.Status == reservation.StatusSeated && !t.CanHold(r.People) {
			return table.CapacityExceeded(t.ID, t.Capacity, r.People)
		}
		return s.reservationRepo.Update(ctx, tx, r)
	})
	if err != nil {
		return nil, "", err
	}
	return r, previousDate, nil
}

// UpdateStatus は状態を直接更新する
// 着席中の予約をキャンセルした場合は同じトランザクションで卓も空ける
func (s *ReservationService) UpdateStatus(ctx context.Context, id int64, status string) (*reservation.Reservation, error) {
	r, freed, err := s.updateStatus(ctx, id, reservation.Status(status))
	s.metrics.ObserveOperation("status", err)
	if err != nil {
		return nil, err
	}

	if freed != nil {
		s.metrics.TableOccupied(-1)
		logger.Info("キャンセルにより卓を空けました", zap.Int64("table_id", *freed), zap.Int64("reservation_id", r.ID))
	}
	if r.Status == reservation.StatusCancelled {
		s.invalidateDays(ctx, r.Date)
		s.publish(ctx, reservation.NewEvent(reservation.EventCancelled, r, freed, time.Now()))
	}
	return r, nil
}

func (s *ReservationService) updateStatus(ctx context.Context, id int64, target reservation.Status) (*reservation.Reservation, *int64, error) {
	if _, err := s.reservationRepo.GetByID(ctx, id); err != nil {
		return nil, nil, err
	}

	var r *reservation.Reservation
	var freed *int64
	err := transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		t, locked, err := s.lockReservation(ctx, tx, id)
		if err != nil {
			return err
		}
		r = locked
		previous := r.Status
		if err := r.ApplyStatus(target); err != nil {
			return err
		}
		if r.Status == previous {
			return nil
		}

		if previous == reservation.StatusSeated && t != nil {
			if err := s.tableRepo.Release(ctx, tx, t.ID, r.ID); err != nil {
				return err
			}
			freed = &t.ID
		}
		return s.reservationRepo.UpdateStatus(ctx, tx, r.ID, previous, r.Status)
	})
	if err != nil {
		return nil, nil, err
	}
	return r, freed, nil
}

// CancelNoShows は開始時刻から grace 以上過ぎても booked のままの予約をキャンセルする
// 1件ずつ別トランザクションで処理し、失敗しても残りを続ける
func (s *ReservationService) CancelNoShows(ctx context.Context, grace time.Duration) (int, error) {
	cutoff := s.policy.Now().Add(-grace)
	candidates, err := s.reservationRepo.ListBookedOnOrBefore(ctx, cutoff.In(s.policy.Location).Format(calendar.DateLayout))
	if err != nil {
		return 0, err
	}

	var errs []error
	cancelled := 0
	for _, c := range candidates {
		date, err := calendar.ParseDate(c.Date)
		if err != nil {
			continue
		}
		tod, err := calendar.ParseTimeOfDay(c.Time)
		if err != nil {
			continue
		}
		if s.policy.Instant(date, tod).After(cutoff) {
			continue
		}

		r, err := s.cancelNoShow(ctx, c.ID)
		if err != nil {
			logger.Error("ノーショーのキャンセルに失敗", zap.Int64("reservation_id", c.ID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		if r == nil {
			continue
		}
		cancelled++
		s.invalidateDays(ctx, r.Date)
		s.publish(ctx, reservation.NewEvent(reservation.EventCancelled, r, nil, time.Now()))
	}

	s.metrics.NoShows(cancelled)
	return cancelled, errors.Join(errs...)
}

// cancelNoShow はまだ booked の場合のみキャンセルする。既に状態が変わっていれば nil を返す
func (s *ReservationService) cancelNoShow(ctx context.Context, id int64) (*reservation.Reservation, error) {
	var r *reservation.Reservation
	err := transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		current, err := s.reservationRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status != reservation.StatusBooked {
			return nil
		}
		if err := current.Cancel(); err != nil {
			return err
		}
		if err := s.reservationRepo.UpdateStatus(ctx, tx, id, reservation.StatusBooked, reservation.StatusCancelled); err != nil {
			return err
		}
		r = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// lockReservation は着席中の卓、予約の順にロックして返す
// 卓を探した時点で未コミットだった着席は、予約のロックを得た後には確定しているので探し直す
func (s *ReservationService) lockReservation(ctx context.Context, tx transaction.Tx, id int64) (*table.Table, *reservation.Reservation, error) {
	t, err := s.seatedTable(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}
	r, err := s.reservationRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}
	if r.Status != reservation.StatusSeated || t != nil {
		return t, r, nil
	}

	if t, err = s.seatedTable(ctx, tx, id); err != nil {
		return nil, nil, err
	}
	if t == nil {
		return nil, nil, reservation.ErrSeatingInProgress.WithMessage("Reservation %d is seated but its table could not be locked. Please retry.", id)
	}
	return t, r, nil
}

// seatedTable は予約が着席している卓をロック付きで返す。着席していなければ nil
func (s *ReservationService) seatedTable(ctx context.Context, tx transaction.Tx, reservationID int64) (*table.Table, error) {
	t, err := s.tableRepo.GetByReservationIDForUpdate(ctx, tx, reservationID)
	if errors.Is(err, table.ErrTableNotFound) {
		return nil, nil
	}
	return t, err
}
