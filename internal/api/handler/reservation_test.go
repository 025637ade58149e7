package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-restaurant-seating/internal/application"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/apperr"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/reservation"
)

func sampleReservation(id int64, status reservation.Status) *reservation.Reservation {
	now := time.Date(2035, 1, 1, 9, 0, 0, 0, time.UTC)
	return &reservation.Reservation{
		ID: id, FirstName: "Rick", LastName: "Sanchez", MobileNumber: "5551234567",
		Date: "2035-01-03", Time: "18:30", People: 2, Status: status,
		CreatedAt: now, UpdatedAt: now,
	}
}

type reservationEnvelope struct {
	Data ReservationResponse `json:"data"`
}

func TestReservationHandler_Create(t *testing.T) {
	t.Run("正常に予約を作成できる", func(t *testing.T) {
		s := newTestServer()
		s.reservations.On("Create", mock.Anything, mock.MatchedBy(func(p *reservation.Payload) bool {
			return p != nil && p.FirstName == "Rick" && string(*p.People) == "2"
		})).Return(sampleReservation(1, reservation.StatusBooked), nil)

		rec := s.do(http.MethodPost, "/reservations", `{"data":{
			"first_name":"Rick","last_name":"Sanchez","mobile_number":"555-123-4567",
			"reservation_date":"2035-01-03","reservation_time":"18:30","people":2}}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp reservationEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(1), resp.Data.ReservationID)
		assert.Equal(t, "booked", resp.Data.Status)
		assert.Equal(t, "2035-01-03", resp.Data.ReservationDate)
		s.reservations.AssertExpectations(t)
	})

	t.Run("data がなければサービスに nil を渡す", func(t *testing.T) {
		s := newTestServer()
		s.reservations.On("Create", mock.Anything, (*reservation.Payload)(nil)).Return(nil, reservation.ErrMissingData)

		rec := s.do(http.MethodPost, "/reservations", `{}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Body must have data property","code":400,"reason":"missing_data"}`, rec.Body.String())
	})

	t.Run("JSON が壊れている", func(t *testing.T) {
		s := newTestServer()
		rec := s.do(http.MethodPost, "/reservations", `invalid`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"reason":"invalid_body"`)
		s.reservations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("検証エラーは 400", func(t *testing.T) {
		s := newTestServer()
		s.reservations.On("Create", mock.Anything, mock.Anything).
			Return(nil, reservation.ErrClosedDay.WithMessage("The restaurant is closed on Tuesdays."))

		rec := s.do(http.MethodPost, "/reservations", `{"data":{"first_name":"Rick"}}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `closed on Tuesdays`)
	})
}

func TestReservationHandler_List(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		filter application.ListFilter
	}{
		{name: "日付指定", query: "?date=2035-01-03", filter: application.ListFilter{Date: "2035-01-03"}},
		{name: "電話番号検索", query: "?mobile_number=555", filter: application.ListFilter{MobileNumber: "555"}},
		{name: "条件なし", query: "", filter: application.ListFilter{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			s.reservations.On("List", mock.Anything, tt.filter).
				Return([]*reservation.Reservation{sampleReservation(1, reservation.StatusBooked)}, nil)

			rec := s.do(http.MethodGet, "/reservations"+tt.query, "")

			assert.Equal(t, http.StatusOK, rec.Code)
			var resp struct {
				Data []ReservationResponse `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Len(t, resp.Data, 1)
			s.reservations.AssertExpectations(t)
		})
	}

	t.Run("空の一覧は空配列", func(t *testing.T) {
		s := newTestServer()
		s.reservations.On("List", mock.Anything, mock.Anything).Return([]*reservation.Reservation{}, nil)

		rec := s.do(http.MethodGet, "/reservations?date=2035-01-03", "")
		assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
	})
}

func TestReservationHandler_GetByID(t *testing.T) {
	t.Run("正常に取得できる", func(t *testing.T) {
		s := newTestServer()
		s.reservations.On("Get", mock.Anything, int64(7)).Return(sampleReservation(7, reservation.StatusSeated), nil)

		rec := s.do(http.MethodGet, "/reservations/7", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp reservationEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "seated", resp.Data.Status)
	})

	t.Run("存在しない場合404", func(t *testing.T) {
		s := newTestServer()
		s.reservations.On("Get", mock.Anything, int64(99)).Return(nil, reservation.NotFound(99))

		rec := s.do(http.MethodGet, "/reservations/99", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"Reservation 99 cannot be found.","code":404,"reason":"reservation_not_found"}`, rec.Body.String())
	})

	for _, raw := range []string{"abc", "0", "-1", "1.5"} {
		t.Run("不正なID "+raw, func(t *testing.T) {
			s := newTestServer()
			rec := s.do(http.MethodGet, "/reservations/"+raw, "")

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"reason":"invalid_id"`)
			s.reservations.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
		})
	}
}

func TestReservationHandler_Update(t *testing.T) {
	s := newTestServer()
	updated := sampleReservation(3, reservation.StatusBooked)
	updated.People = 4
	s.reservations.On("Update", mock.Anything, int64(3), mock.MatchedBy(func(p *reservation.Payload) bool {
		return p != nil && string(*p.People) == "4"
	})).Return(updated, nil)

	rec := s.do(http.MethodPut, "/reservations/3", `{"data":{"first_name":"Rick","people":4}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp reservationEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Data.People)
}

func TestReservationHandler_UpdateStatus(t *testing.T) {
	t.Run("キャンセルできる", func(t *testing.T) {
		s := newTestServer()
		s.reservations.On("UpdateStatus", mock.Anything, int64(3), "cancelled").
			Return(sampleReservation(3, reservation.StatusCancelled), nil)

		rec := s.do(http.MethodPut, "/reservations/3/status", `{"data":{"status":"cancelled"}}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"cancelled"`)
	})

	t.Run("status がない", func(t *testing.T) {
		s := newTestServer()
		rec := s.do(http.MethodPut, "/reservations/3/status", `{"data":{}}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"A 'status' property is required.","code":400,"reason":"missing_field"}`, rec.Body.String())
	})

	t.Run("data がない", func(t *testing.T) {
		s := newTestServer()
		rec := s.do(http.MethodPut, "/reservations/3/status", `{"status":"cancelled"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"reason":"missing_data"`)
	})

	t.Run("終了済みは変更できない", func(t *testing.T) {
		s := newTestServer()
		s.reservations.On("UpdateStatus", mock.Anything, int64(3), "cancelled").
			Return(nil, reservation.ErrImmutable.WithMessage("A finished reservation cannot be updated."))

		rec := s.do(http.MethodPut, "/reservations/3/status", `{"data":{"status":"cancelled"}}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"reason":"reservation_immutable"`)
	})

	t.Run("ストア障害は 500", func(t *testing.T) {
		s := newTestServer()
		s.reservations.On("UpdateStatus", mock.Anything, int64(3), "cancelled").
			Return(nil, apperr.Store("commit failed", errors.New("connection reset")))

		rec := s.do(http.MethodPut, "/reservations/3/status", `{"data":{"status":"cancelled"}}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection reset")
	})
}
