package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/sanosuguru/go-restaurant-seating/internal/domain/apperr"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/reservation"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/table"
)

func TestCustomHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "入力エラーは 400",
			err:      table.CapacityExceeded(1, 2, 3),
			wantCode: http.StatusBadRequest,
			wantBody: `{"error":"Table 1 has only capacity for 2 not 3 people.","code":400,"reason":"capacity_exceeded"}`,
		},
		{
			name:     "存在しない ID は 404",
			err:      reservation.NotFound(99),
			wantCode: http.StatusNotFound,
			wantBody: `{"error":"Reservation 99 cannot be found.","code":404,"reason":"reservation_not_found"}`,
		},
		{
			name:     "コミット時の競合は 409",
			err:      table.Occupied(1).AsConflict(),
			wantCode: http.StatusConflict,
			wantBody: `{"error":"Table 1 is occupied.","code":409,"reason":"table_occupied"}`,
		},
		{
			name:     "ラップされていても分類を使う",
			err:      fmt.Errorf("seat: %w", table.NotOccupied(3)),
			wantCode: http.StatusBadRequest,
			wantBody: `{"error":"Table 3 is not occupied.","code":400,"reason":"table_not_occupied"}`,
		},
		{
			name:     "ストア障害は詳細を返さない",
			err:      apperr.Store("commit failed", errors.New("pq: connection reset")),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"Internal server error.","code":500,"reason":"internal_error"}`,
		},
		{
			name:     "未分類のエラーは 500",
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"Internal server error.","code":500,"reason":"internal_error"}`,
		},
		{
			name:     "echo の HTTPError",
			err:      echo.NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed"),
			wantCode: http.StatusMethodNotAllowed,
			wantBody: `{"error":"Method Not Allowed","code":405}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/tables/1", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			CustomHTTPErrorHandler(tt.err, c)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(apperr.KindValidation))
	assert.Equal(t, http.StatusNotFound, StatusFor(apperr.KindNotFound))
	assert.Equal(t, http.StatusConflict, StatusFor(apperr.KindConflict))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(apperr.KindStore))
}

func TestCustomValidator(t *testing.T) {
	type body struct {
		ReservationID *int64 `json:"reservation_id" validate:"required"`
	}
	v := NewValidator()

	err := v.Validate(&body{})
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Equal(t, "A 'reservation_id' property is required.", err.Error())

	id := int64(1)
	assert.NoError(t, v.Validate(&body{ReservationID: &id}))
}
