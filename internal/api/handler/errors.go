package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/event"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/rank"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/reservation"
)

// toHTTPError は業務エラーをコード文字列つきのHTTPエラーへ変換する
// どの業務エラーにも該当しないものはストレージ障害として 500 にまとめる
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, event.ErrInvalidEvent):
		return echo.NewHTTPError(http.StatusNotFound, "invalid_event")
	case errors.Is(err, event.ErrEventNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not_found")
	case errors.Is(err, rank.ErrInvalidRank):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid_rank")
	case errors.Is(err, rank.ErrInvalidSheet):
		return echo.NewHTTPError(http.StatusNotFound, "invalid_sheet")
	case errors.Is(err, reservation.ErrSoldOut):
		return echo.NewHTTPError(http.StatusConflict, "sold_out")
	case errors.Is(err, reservation.ErrNotReserved):
		return echo.NewHTTPError(http.StatusBadRequest, "not_reserved")
	case errors.Is(err, reservation.ErrNotPermitted):
		return echo.NewHTTPError(http.StatusForbidden, "not_permitted")
	case errors.Is(err, event.ErrCannotEditClosedEvent):
		return echo.NewHTTPError(http.StatusBadRequest, "cannot_edit_closed_event")
	case errors.Is(err, event.ErrCannotClosePublicEvent):
		return echo.NewHTTPError(http.StatusBadRequest, "cannot_close_public_event")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal_error")
	}
}

// userIDFrom は認証済みユーザーIDをヘッダーから取り出す
// 認証そのものは外部コラボレーターの責務
func userIDFrom(c echo.Context) (int64, error) {
	v := c.Request().Header.Get("X-User-ID")
	if v == "" {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "login_required")
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "login_required")
	}
	return id, nil
}

// adminIDFrom は認証済み管理者IDをヘッダーから取り出す
func adminIDFrom(c echo.Context) (int64, error) {
	v := c.Request().Header.Get("X-Admin-ID")
	if v == "" {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "admin_login_required")
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "admin_login_required")
	}
	return id, nil
}

// pathInt64 はパスパラメータを int64 として取り出す
func pathInt64(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusNotFound, "not_found")
	}
	return id, nil
}
