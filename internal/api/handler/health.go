package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// PingFunc はバックエンドストレージの疎通確認を行う関数
type PingFunc func(ctx context.Context) error

// HealthHandler はヘルスチェックハンドラー
type HealthHandler struct {
	dbPing PingFunc
}

// NewHealthHandler はHealthHandlerを作成する
func NewHealthHandler(dbPing PingFunc) *HealthHandler {
	return &HealthHandler{dbPing: dbPing}
}

// HealthResponse はヘルスチェックのレスポンス
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

// Check はヘルスチェックを行う
// @Summary ヘルスチェック
// @Description アプリケーションとデータベースの健全性を確認する
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "ok",
		Database:  "up",
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if h.dbPing != nil {
		if err := h.dbPing(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = "down"
			return c.JSON(http.StatusServiceUnavailable, resp)
		}
	}
	return c.JSON(http.StatusOK, resp)
}
