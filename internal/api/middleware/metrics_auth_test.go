package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/sanosuguru/go-restaurant-seating/internal/config"
)

func serveMetrics(cfg config.MetricsConfig, authorization string) *httptest.ResponseRecorder {
	e := echo.New()
	e.GET("/metrics", func(c echo.Context) error {
		return c.String(http.StatusOK, "metrics")
	}, MetricsBasicAuth(cfg))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func basic(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestMetricsBasicAuth(t *testing.T) {
	enabled := config.MetricsConfig{User: "testuser", Password: "testpass"}

	tests := []struct {
		name          string
		cfg           config.MetricsConfig
		authorization string
		wantCode      int
	}{
		{name: "認証設定なしは素通り", cfg: config.MetricsConfig{}, wantCode: http.StatusOK},
		{name: "ユーザーのみ設定は素通り", cfg: config.MetricsConfig{User: "testuser"}, wantCode: http.StatusOK},
		{name: "正しい認証情報", cfg: enabled, authorization: basic("testuser", "testpass"), wantCode: http.StatusOK},
		{name: "間違った認証情報", cfg: enabled, authorization: basic("wronguser", "wrongpass"), wantCode: http.StatusUnauthorized},
		{name: "ヘッダーなし", cfg: enabled, wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveMetrics(tt.cfg, tt.authorization)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
