package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-restaurant-seating/internal/api"
	"github.com/sanosuguru/go-restaurant-seating/internal/application"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/reservation"
)

type ReservationHandler struct {
	service ReservationServiceInterface
}

func NewReservationHandler(s ReservationServiceInterface) *ReservationHandler {
	return &ReservationHandler{service: s}
}

// ReservationRequest は作成・更新のリクエスト
// data がなければサービス側で missing_data になる
type ReservationRequest struct {
	Data *reservation.Payload `json:"data"`
}

type StatusRequest struct {
	Data *StatusPayload `json:"data"`
}

type StatusPayload struct {
	Status string `json:"status" validate:"required" example:"cancelled"`
}

type ReservationResponse struct {
	ReservationID   int64     `json:"reservation_id" example:"1"`
	FirstName       string    `json:"first_name" example:"Rick"`
	LastName        string    `json:"last_name" example:"Sanchez"`
	MobileNumber    string    `json:"mobile_number" example:"5551234567"`
	ReservationDate string    `json:"reservation_date" example:"2035-01-03"`
	ReservationTime string    `json:"reservation_time" example:"18:30"`
	People          int       `json:"people" example:"2"`
	Status          string    `json:"status" example:"booked"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toReservationResponse(r *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ReservationID: r.ID, FirstName: r.FirstName, LastName: r.LastName,
		MobileNumber: r.MobileNumber, ReservationDate: r.Date, ReservationTime: r.Time,
		People: r.People, Status: string(r.Status),
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func toReservationResponses(list []*reservation.Reservation) []ReservationResponse {
	resp := make([]ReservationResponse, len(list))
	for i, r := range list {
		resp[i] = toReservationResponse(r)
	}
	return resp
}

// List godoc
// @Summary 予約一覧を取得
// @Description date 指定時はその日の booked / seated、mobile_number 指定時は部分一致検索
// @Tags reservations
// @Produce json
// @Param date query string false "予約日 (YYYY-MM-DD)"
// @Param mobile_number query string false "電話番号の一部"
// @Success 200 {object} dataResponse
// @Failure 400 {object} api.ErrorResponse
// @Router /reservations [get]
func (h *ReservationHandler) List(c echo.Context) error {
	list, err := h.service.List(c.Request().Context(), application.ListFilter{
		Date:         c.QueryParam("date"),
		MobileNumber: c.QueryParam("mobile_number"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dataResponse{Data: toReservationResponses(list)})
}

// Create godoc
// @Summary 予約を作成
// @Tags reservations
// @Accept json
// @Produce json
// @Param request body ReservationRequest true "予約情報"
// @Success 201 {object} dataResponse
// @Failure 400 {object} api.ErrorResponse
// @Router /reservations [post]
func (h *ReservationHandler) Create(c echo.Context) error {
	var req ReservationRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	r, err := h.service.Create(c.Request().Context(), req.Data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dataResponse{Data: toReservationResponse(r)})
}

// GetByID godoc
// @Summary 予約を取得
// @Tags reservations
// @Produce json
// @Param reservation_id path int true "予約ID"
// @Success 200 {object} dataResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /reservations/{reservation_id} [get]
func (h *ReservationHandler) GetByID(c echo.Context) error {
	id, err := parseID(c, "reservation_id")
	if err != nil {
		return err
	}
	r, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dataResponse{Data: toReservationResponse(r)})
}

// Update godoc
// @Summary 予約を更新
// @Description booked / seated の予約のみ更新できる
// @Tags reservations
// @Accept json
// @Produce json
// @Param reservation_id path int true "予約ID"
// @Param request body ReservationRequest true "予約情報"
// @Success 200 {object} dataResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /reservations/{reservation_id} [put]
func (h *ReservationHandler) Update(c echo.Context) error {
	id, err := parseID(c, "reservation_id")
	if err != nil {
		return err
	}
	var req ReservationRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	r, err := h.service.Update(c.Request().Context(), id, req.Data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dataResponse{Data: toReservationResponse(r)})
}

// UpdateStatus godoc
// @Summary 予約の状態を更新
// @Description 着席中の予約をキャンセルすると卓も空く
// @Tags reservations
// @Accept json
// @Produce json
// @Param reservation_id path int true "予約ID"
// @Param request body StatusRequest true "状態"
// @Success 200 {object} dataResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Router /reservations/{reservation_id}/status [put]
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c, "reservation_id")
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Data == nil {
		return api.ErrMissingData
	}
	if err := c.Validate(req.Data); err != nil {
		return err
	}
	r, err := h.service.UpdateStatus(c.Request().Context(), id, req.Data.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dataResponse{Data: toReservationResponse(r)})
}
