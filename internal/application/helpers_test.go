package application

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-restaurant-seating/internal/domain/calendar"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/reservation"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/table"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/transaction"
	"github.com/sanosuguru/go-restaurant-seating/internal/infrastructure/memory"
)

// 2023-08-14（月）12:00 UTC を「現在」とする
var testNow = time.Date(2023, 8, 14, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store        *memory.Store
	txm          *memory.TxManager
	reservations *memory.ReservationRepository
	tables       *memory.TableRepository
	policy       *calendar.Policy
}

func newFixture(t testing.TB) *fixture {
	t.Helper()
	store := memory.NewStore()
	return &fixture{
		store:        store,
		txm:          memory.NewTxManager(store),
		reservations: memory.NewReservationRepository(store),
		tables:       memory.NewTableRepository(store),
		policy:       calendar.DefaultPolicy(calendar.FixedClock{At: testNow}),
	}
}

func (f *fixture) seating(opts ...Option) *SeatingService {
	return NewSeatingService(f.txm, f.tables, f.reservations, opts...)
}

func (f *fixture) reservationService(opts ...Option) *ReservationService {
	return NewReservationService(f.txm, f.reservations, f.tables, f.policy, opts...)
}

func (f *fixture) tableService(opts ...Option) *TableService {
	return NewTableService(f.txm, f.tables, f.reservations, opts...)
}

func (f *fixture) addTable(name string, capacity int) *table.Table {
	t := &table.Table{Name: name, Capacity: capacity, CreatedAt: testNow, UpdatedAt: testNow}
	f.tables.Put(t)
	return t
}

func (f *fixture) addReservation(people int, status reservation.Status) *reservation.Reservation {
	r := reservation.NewReservation(reservation.Details{
		FirstName: "Rick", LastName: "Sanchez", MobileNumber: "5551234567",
		Date: "2023-08-16", Time: "18:00", People: people,
	})
	r.Status = status
	f.reservations.Put(r)
	return r
}

// seatDirectly はサービスを通さずに着席状態を作る
func (f *fixture) seatDirectly(t *testing.T, tb *table.Table, r *reservation.Reservation) {
	t.Helper()
	ctx := context.Background()
	err := transaction.Run(ctx, f.txm, func(tx transaction.Tx) error {
		if err := f.tables.Occupy(ctx, tx, tb.ID, r.ID); err != nil {
			return err
		}
		return f.reservations.UpdateStatus(ctx, tx, r.ID, reservation.StatusBooked, reservation.StatusSeated)
	})
	require.NoError(t, err)
}

func (f *fixture) mustTable(t *testing.T, id int64) *table.Table {
	t.Helper()
	tb, err := f.tables.GetByID(context.Background(), id)
	require.NoError(t, err)
	return tb
}

func (f *fixture) mustReservation(t *testing.T, id int64) *reservation.Reservation {
	t.Helper()
	r, err := f.reservations.GetByID(context.Background(), id)
	require.NoError(t, err)
	return r
}

func rawJSON(s string) *json.RawMessage {
	raw := json.RawMessage(s)
	return &raw
}

func validPayload() *reservation.Payload {
	return &reservation.Payload{
		FirstName:       "Rick",
		LastName:        "Sanchez",
		MobileNumber:    "(555) 123-4567",
		ReservationDate: "2023-08-16",
		ReservationTime: "18:00",
		People:          rawJSON("2"),
	}
}

// === Mock implementations ===

// MockTxManager implements transaction.Manager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// MockLocker implements TableLocker
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) LockTable(ctx context.Context, tableID int64) (func(), error) {
	args := m.Called(ctx, tableID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

// MockCache implements ReservationCache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Version(ctx context.Context, date string) (int64, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCache) GetDay(ctx context.Context, date string, version int64) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, date, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockCache) SetDay(ctx context.Context, date string, version int64, list []*reservation.Reservation) error {
	args := m.Called(ctx, date, version, list)
	return args.Error(0)
}

func (m *MockCache) InvalidateDay(ctx context.Context, date string) error {
	args := m.Called(ctx, date)
	return args.Error(0)
}

// MockPublisher implements EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, ev reservation.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}
