package handler

import "github.com/labstack/echo/v4"

// Handlers はルーティング対象のハンドラー一式
type Handlers struct {
	Reservations *ReservationHandler
	Tables       *TableHandler
	Health       *HealthHandler
}

// RegisterRoutes は API のルートを登録する
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/health", h.Health.Check)

	e.GET("/reservations", h.Reservations.List)
	e.POST("/reservations", h.Reservations.Create)
	e.GET("/reservations/:reservation_id", h.Reservations.GetByID)
	e.PUT("/reservations/:reservation_id", h.Reservations.Update)
	e.PUT("/reservations/:reservation_id/status", h.Reservations.UpdateStatus)

	e.GET("/tables", h.Tables.List)
	e.POST("/tables", h.Tables.Create)
	e.GET("/tables/:table_id", h.Tables.GetByID)
	e.PUT("/tables/:table_id", h.Tables.Update)
	e.DELETE("/tables/:table_id", h.Tables.Delete)
	e.PUT("/tables/:table_id/seat", h.Tables.Seat)
	e.DELETE("/tables/:table_id/seat", h.Tables.Finish)
}
