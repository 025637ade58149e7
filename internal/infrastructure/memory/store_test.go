package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-restaurant-seating/internal/domain/apperr"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/reservation"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/table"
)

func newTestReservation(date, tm, phone string, status reservation.Status) *reservation.Reservation {
	r := reservation.NewReservation(reservation.Details{
		FirstName:    "Rick",
		LastName:     "Sanchez",
		MobileNumber: phone,
		Date:         date,
		Time:         tm,
		People:       2,
	})
	r.Status = status
	return r
}

func TestTx_CommitAppliesStagedWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	txm := NewTxManager(store)
	tables := NewTableRepository(store)

	tx, err := txm.Begin(ctx)
	require.NoError(t, err)
	tb := table.NewTable(table.Details{Name: "#1", Capacity: 4})
	require.NoError(t, tables.Create(ctx, tx, tb))
	assert.NotZero(t, tb.ID)

	// コミット前はトランザクション外から見えない
	_, err = tables.GetByID(ctx, tb.ID)
	assert.ErrorIs(t, err, table.ErrTableNotFound)

	require.NoError(t, tx.Commit())
	got, err := tables.GetByID(ctx, tb.ID)
	require.NoError(t, err)
	assert.Equal(t, "#1", got.Name)

	// コミット後の Rollback は何もしない
	assert.NoError(t, tx.Rollback())
}

func TestTx_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	txm := NewTxManager(store)
	tables := NewTableRepository(store)
	tb := &table.Table{Name: "#1", Capacity: 4}
	tables.Put(tb)

	tx, err := txm.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tables.Occupy(ctx, tx, tb.ID, 1))
	require.NoError(t, tx.Rollback())

	got, err := tables.GetByID(ctx, tb.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFree())

	_, err = tables.GetByIDForUpdate(ctx, tx, tb.ID)
	assert.ErrorIs(t, err, ErrTxClosed)
}

func TestStore_FailNextCommit(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	txm := NewTxManager(store)
	reservations := NewReservationRepository(store)
	res := newTestReservation("2035-01-03", "18:00", "5551234567", reservation.StatusBooked)
	reservations.Put(res)

	boom := errors.New("disk full")
	store.FailNextCommit(boom)

	tx, err := txm.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, reservations.UpdateStatus(ctx, tx, res.ID, reservation.StatusBooked, reservation.StatusSeated))
	assert.ErrorIs(t, tx.Commit(), boom)

	got, err := reservations.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusBooked, got.Status)

	// 障害は一度だけ
	tx, err = txm.Begin(ctx)
	require.NoError(t, err)
	assert.NoError(t, tx.Commit())
}

func TestTxManager_BeginSerializes(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	txm := NewTxManager(store)

	first, err := txm.Begin(ctx)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = txm.Begin(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, first.Rollback())
	second, err := txm.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, second.Rollback())
}

func TestTableRepository_OccupyConcurrently(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	txm := NewTxManager(store)
	tables := NewTableRepository(store)
	tb := &table.Table{Name: "#1", Capacity: 4}
	tables.Put(tb)

	const workers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	success, conflicts := 0, 0
	for i := 1; i <= workers; i++ {
		wg.Add(1)
		go func(resID int64) {
			defer wg.Done()
			tx, err := txm.Begin(ctx)
			require.NoError(t, err)
			defer tx.Rollback()
			err = tables.Occupy(ctx, tx, tb.ID, resID)
			if err == nil {
				err = tx.Commit()
			}
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
			} else if apperr.KindOf(err) == apperr.KindConflict {
				conflicts++
			}
		}(int64(i))
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, workers-1, conflicts)
}

func TestTableRepository_ReleaseRequiresMatchingReservation(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	txm := NewTxManager(store)
	tables := NewTableRepository(store)
	seated := int64(5)
	tb := &table.Table{Name: "#1", Capacity: 4, ReservationID: &seated}
	tables.Put(tb)

	tx, err := txm.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	err = tables.Release(ctx, tx, tb.ID, 6)
	assert.ErrorIs(t, err, table.ErrTableNotOccupied)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	require.NoError(t, tables.Release(ctx, tx, tb.ID, 5))
	got, err := tables.GetByIDForUpdate(ctx, tx, tb.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFree())
}

func TestTableRepository_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	txm := NewTxManager(store)
	tables := NewTableRepository(store)
	seated := int64(5)
	busy := &table.Table{Name: "#1", Capacity: 4, ReservationID: &seated}
	free := &table.Table{Name: "#2", Capacity: 4}
	tables.Put(busy)
	tables.Put(free)

	tx, err := txm.Begin(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, tables.Delete(ctx, tx, busy.ID), table.ErrTableOccupied)
	require.NoError(t, tables.Delete(ctx, tx, free.ID))
	_, err = tables.GetByIDForUpdate(ctx, tx, free.ID)
	assert.ErrorIs(t, err, table.ErrTableNotFound)
	require.NoError(t, tx.Commit())

	list, err := tables.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "#1", list[0].Name)
}

func TestTableRepository_GetByReservationIDForUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	txm := NewTxManager(store)
	tables := NewTableRepository(store)
	seated := int64(9)
	tables.Put(&table.Table{Name: "#1", Capacity: 4})
	tables.Put(&table.Table{Name: "#2", Capacity: 4, ReservationID: &seated})

	tx, err := txm.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	got, err := tables.GetByReservationIDForUpdate(ctx, tx, 9)
	require.NoError(t, err)
	assert.Equal(t, "#2", got.Name)

	_, err = tables.GetByReservationIDForUpdate(ctx, tx, 10)
	assert.ErrorIs(t, err, table.ErrTableNotFound)
}

func TestReservationRepository_Queries(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	reservations := NewReservationRepository(store)
	reservations.Put(newTestReservation("2035-01-03", "19:00", "5551234567", reservation.StatusBooked))
	reservations.Put(newTestReservation("2035-01-03", "12:00", "5559876543", reservation.StatusSeated))
	reservations.Put(newTestReservation("2035-01-03", "13:00", "5551110000", reservation.StatusFinished))
	reservations.Put(newTestReservation("2035-01-04", "12:00", "5551239999", reservation.StatusBooked))

	t.Run("日付指定は booked と seated を時刻順に返す", func(t *testing.T) {
		list, err := reservations.ListByDate(ctx, "2035-01-03")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "12:00", list[0].Time)
		assert.Equal(t, "19:00", list[1].Time)
	})

	t.Run("電話番号の部分一致は状態に関わらず返す", func(t *testing.T) {
		list, err := reservations.SearchByPhone(ctx, "555-123")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "2035-01-03", list[0].Date)
		assert.Equal(t, "2035-01-04", list[1].Date)

		list, err = reservations.SearchByPhone(ctx, "111")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, reservation.StatusFinished, list[0].Status)
	})

	t.Run("指定日以前の booked", func(t *testing.T) {
		list, err := reservations.ListBookedOnOrBefore(ctx, "2035-01-03")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "19:00", list[0].Time)
	})

	t.Run("全件", func(t *testing.T) {
		list, err := reservations.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 4)
	})
}

func TestReservationRepository_UpdateStatusChecksCurrent(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	txm := NewTxManager(store)
	reservations := NewReservationRepository(store)
	res := newTestReservation("2035-01-03", "18:00", "5551234567", reservation.StatusCancelled)
	reservations.Put(res)

	tx, err := txm.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	err = reservations.UpdateStatus(ctx, tx, res.ID, reservation.StatusBooked, reservation.StatusSeated)
	assert.ErrorIs(t, err, reservation.ErrTransitionNotAllowed)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	err = reservations.UpdateStatus(ctx, tx, 999, reservation.StatusBooked, reservation.StatusSeated)
	assert.ErrorIs(t, err, reservation.ErrReservationNotFound)
}

func TestRepositories_ReturnCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	reservations := NewReservationRepository(store)
	res := newTestReservation("2035-01-03", "18:00", "5551234567", reservation.StatusBooked)
	reservations.Put(res)

	got, err := reservations.GetByID(ctx, res.ID)
	require.NoError(t, err)
	got.Status = reservation.StatusCancelled

	again, err := reservations.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusBooked, again.Status)
}
