package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-sales/internal/pkg/logger"
)

// CustomValidator はEcho用のカスタムバリデーター
// バリデーションの詳細はログにのみ残し、クライアントには統一コードを返す
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator は新しいバリデーターを作成する
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate はリクエストのバリデーションを実行する
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		logger.Debug("リクエストバリデーション失敗", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "bad_request")
	}
	return nil
}
