package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-restaurant-seating/internal/api"
)

// dataResponse はレスポンスの共通エンベロープ
type dataResponse struct {
	Data any `json:"data"`
}

// parseID はパスパラメータを正の整数として読み取る
func parseID(c echo.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, api.ErrInvalidID.WithMessage("The %s must be a positive integer: %s", name, raw)
	}
	return id, nil
}

// bind はリクエストボディを読み込む。JSON として壊れていれば invalid_body
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return api.ErrInvalidBody
	}
	return nil
}
