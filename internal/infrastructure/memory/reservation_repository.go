package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sanosuguru/go-restaurant-seating/internal/domain/reservation"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/transaction"
)

type ReservationRepository struct{ store *Store }

func NewReservationRepository(s *Store) *ReservationRepository {
	return &ReservationRepository{store: s}
}

func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	mt, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	res.ID = r.store.allocReservationID()
	mt.reservations[res.ID] = copyReservation(res)
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*reservation.Reservation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	res, ok := r.store.reservations[id]
	if !ok {
		return nil, reservation.NotFound(id)
	}
	return copyReservation(res), nil
}

func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*reservation.Reservation, error) {
	mt, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}
	res, ok := mt.reservation(id)
	if !ok {
		return nil, reservation.NotFound(id)
	}
	return copyReservation(res), nil
}

func (r *ReservationRepository) Update(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	mt, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	if _, ok := mt.reservation(res.ID); !ok {
		return reservation.NotFound(res.ID)
	}
	mt.reservations[res.ID] = copyReservation(res)
	return nil
}

func (r *ReservationRepository) UpdateStatus(ctx context.Context, tx transaction.Tx, id int64, from, to reservation.Status) error {
	mt, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	current, ok := mt.reservation(id)
	if !ok {
		return reservation.NotFound(id)
	}
	if current.Status != from {
		return reservation.ErrTransitionNotAllowed.
			WithMessage("Reservation %d is %s, not %s.", id, current.Status, from).
			AsConflict()
	}
	updated := copyReservation(current)
	updated.Status = to
	updated.UpdatedAt = time.Now()
	mt.reservations[id] = updated
	return nil
}

func (r *ReservationRepository) List(ctx context.Context) ([]*reservation.Reservation, error) {
	result := r.filter(func(*reservation.Reservation) bool { return true })
	sortByDateTime(result)
	return result, nil
}

func (r *ReservationRepository) ListByDate(ctx context.Context, date string) ([]*reservation.Reservation, error) {
	result := r.filter(func(res *reservation.Reservation) bool {
		return res.Date == date && (res.Status == reservation.StatusBooked || res.Status == reservation.StatusSeated)
	})
	sortByDateTime(result)
	return result, nil
}

func (r *ReservationRepository) SearchByPhone(ctx context.Context, digits string) ([]*reservation.Reservation, error) {
	needle := reservation.NormalizePhone(digits)
	result := r.filter(func(res *reservation.Reservation) bool {
		return strings.Contains(reservation.NormalizePhone(res.MobileNumber), needle)
	})
	sortByDateTime(result)
	return result, nil
}

func (r *ReservationRepository) ListBookedOnOrBefore(ctx context.Context, date string) ([]*reservation.Reservation, error) {
	result := r.filter(func(res *reservation.Reservation) bool {
		return res.Status == reservation.StatusBooked && res.Date <= date
	})
	sortByDateTime(result)
	return result, nil
}

func (r *ReservationRepository) filter(keep func(*reservation.Reservation) bool) []*reservation.Reservation {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	result := make([]*reservation.Reservation, 0)
	for _, res := range r.store.reservations {
		if keep(res) {
			result = append(result, copyReservation(res))
		}
	}
	return result
}

// sortByDateTime は日付・時刻・ID の順に並べる
func sortByDateTime(list []*reservation.Reservation) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.ID < b.ID
	})
}

// Put はテスト用に予約を直接保存する（検証や正規化は行わない）
func (r *ReservationRepository) Put(res *reservation.Reservation) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if res.ID == 0 {
		r.store.nextResID++
		res.ID = r.store.nextResID
	} else if res.ID > r.store.nextResID {
		r.store.nextResID = res.ID
	}
	r.store.reservations[res.ID] = copyReservation(res)
}

var _ reservation.Repository = (*ReservationRepository)(nil)
