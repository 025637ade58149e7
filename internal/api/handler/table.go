package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-restaurant-seating/internal/api"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/table"
)

type TableHandler struct {
	tables  TableServiceInterface
	seating SeatingServiceInterface
}

func NewTableHandler(tables TableServiceInterface, seating SeatingServiceInterface) *TableHandler {
	return &TableHandler{tables: tables, seating: seating}
}

type TableRequest struct {
	Data *table.Payload `json:"data"`
}

type SeatRequest struct {
	Data *SeatPayload `json:"data"`
}

type SeatPayload struct {
	ReservationID *int64 `json:"reservation_id" validate:"required" example:"1"`
}

type TableResponse struct {
	TableID       int64     `json:"table_id" example:"1"`
	TableName     string    `json:"table_name" example:"Bar #1"`
	Capacity      int       `json:"capacity" example:"4"`
	ReservationID *int64    `json:"reservation_id"`
	Occupied      bool      `json:"occupied"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toTableResponse(t *table.Table) TableResponse {
	return TableResponse{
		TableID: t.ID, TableName: t.Name, Capacity: t.Capacity,
		ReservationID: t.ReservationID, Occupied: !t.IsFree(),
		CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt,
	}
}

// List godoc
// @Summary 卓一覧を取得
// @Tags tables
// @Produce json
// @Success 200 {object} dataResponse
// @Router /tables [get]
func (h *TableHandler) List(c echo.Context) error {
	tables, err := h.tables.List(c.Request().Context())
	if err != nil {
		return err
	}
	resp := make([]TableResponse, len(tables))
	for i, t := range tables {
		resp[i] = toTableResponse(t)
	}
	return c.JSON(http.StatusOK, dataResponse{Data: resp})
}

// Create godoc
// @Summary 卓を作成
// @Tags tables
// @Accept json
// @Produce json
// @Param request body TableRequest true "卓情報"
// @Success 201 {object} dataResponse
// @Failure 400 {object} api.ErrorResponse
// @Router /tables [post]
func (h *TableHandler) Create(c echo.Context) error {
	var req TableRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Data == nil {
		return api.ErrMissingData
	}
	t, err := h.tables.Create(c.Request().Context(), req.Data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dataResponse{Data: toTableResponse(t)})
}

// GetByID godoc
// @Summary 卓を取得
// @Tags tables
// @Produce json
// @Param table_id path int true "卓ID"
// @Success 200 {object} dataResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /tables/{table_id} [get]
func (h *TableHandler) GetByID(c echo.Context) error {
	id, err := parseID(c, "table_id")
	if err != nil {
		return err
	}
	t, err := h.tables.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dataResponse{Data: toTableResponse(t)})
}

// Update godoc
// @Summary 卓を更新
// @Tags tables
// @Accept json
// @Produce json
// @Param table_id path int true "卓ID"
// @Param request body TableRequest true "卓情報"
// @Success 200 {object} dataResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /tables/{table_id} [put]
func (h *TableHandler) Update(c echo.Context) error {
	id, err := parseID(c, "table_id")
	if err != nil {
		return err
	}
	var req TableRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Data == nil {
		return api.ErrMissingData
	}
	t, err := h.tables.Update(c.Request().Context(), id, req.Data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dataResponse{Data: toTableResponse(t)})
}

// Delete godoc
// @Summary 空いている卓を削除
// @Tags tables
// @Param table_id path int true "卓ID"
// @Success 204
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /tables/{table_id} [delete]
func (h *TableHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "table_id")
	if err != nil {
		return err
	}
	if err := h.tables.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Seat godoc
// @Summary 予約を卓に着席させる
// @Tags tables
// @Accept json
// @Produce json
// @Param table_id path int true "卓ID"
// @Param request body SeatRequest true "予約ID"
// @Success 200 {object} dataResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "同時に着席された"
// @Router /tables/{table_id}/seat [put]
func (h *TableHandler) Seat(c echo.Context) error {
	id, err := parseID(c, "table_id")
	if err != nil {
		return err
	}
	var req SeatRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Data == nil {
		return api.ErrMissingData
	}
	if err := c.Validate(req.Data); err != nil {
		return err
	}
	t, err := h.seating.Seat(c.Request().Context(), id, *req.Data.ReservationID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dataResponse{Data: toTableResponse(t)})
}

// Finish godoc
// @Summary 卓を空ける
// @Description 着席していた予約は finished になる
// @Tags tables
// @Produce json
// @Param table_id path int true "卓ID"
// @Success 200 {object} dataResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /tables/{table_id}/seat [delete]
func (h *TableHandler) Finish(c echo.Context) error {
	id, err := parseID(c, "table_id")
	if err != nil {
		return err
	}
	t, err := h.seating.Finish(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dataResponse{Data: toTableResponse(t)})
}
