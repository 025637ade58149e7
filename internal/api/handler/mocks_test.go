package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-restaurant-seating/internal/application"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/reservation"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/table"
)

// MockReservationService はReservationServiceInterfaceのモック
type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) Create(ctx context.Context, p *reservation.Payload) (*reservation.Reservation, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) Get(ctx context.Context, id int64) (*reservation.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) List(ctx context.Context, f application.ListFilter) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) Update(ctx context.Context, id int64, p *reservation.Payload) (*reservation.Reservation, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) UpdateStatus(ctx context.Context, id int64, status string) (*reservation.Reservation, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

// MockTableService はTableServiceInterfaceのモック
type MockTableService struct {
	mock.Mock
}

func (m *MockTableService) Create(ctx context.Context, p *table.Payload) (*table.Table, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*table.Table), args.Error(1)
}

func (m *MockTableService) Get(ctx context.Context, id int64) (*table.Table, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*table.Table), args.Error(1)
}

func (m *MockTableService) List(ctx context.Context) ([]*table.Table, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*table.Table), args.Error(1)
}

func (m *MockTableService) Update(ctx context.Context, id int64, p *table.Payload) (*table.Table, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*table.Table), args.Error(1)
}

func (m *MockTableService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockSeatingService はSeatingServiceInterfaceのモック
type MockSeatingService struct {
	mock.Mock
}

func (m *MockSeatingService) Seat(ctx context.Context, tableID, reservationID int64) (*table.Table, error) {
	args := m.Called(ctx, tableID, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*table.Table), args.Error(1)
}

func (m *MockSeatingService) Finish(ctx context.Context, tableID int64) (*table.Table, error) {
	args := m.Called(ctx, tableID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*table.Table), args.Error(1)
}

type testServer struct {
	echo         *echo.Echo
	reservations *MockReservationService
	tables       *MockTableService
	seating      *MockSeatingService
}

func newTestServer() *testServer {
	s := &testServer{
		echo:         NewTestEcho(),
		reservations: new(MockReservationService),
		tables:       new(MockTableService),
		seating:      new(MockSeatingService),
	}
	RegisterRoutes(s.echo, Handlers{
		Reservations: NewReservationHandler(s.reservations),
		Tables:       NewTableHandler(s.tables, s.seating),
		Health:       NewHealthHandler(),
	})
	return s
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}
