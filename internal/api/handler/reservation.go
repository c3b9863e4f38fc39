package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-ticket-sales/internal/application"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/rank"
)

type ReservationHandler struct {
	service AllocationServiceInterface
}

func NewReservationHandler(s AllocationServiceInterface) *ReservationHandler {
	return &ReservationHandler{service: s}
}

type ReserveRequest struct {
	SheetRank string `json:"sheet_rank" validate:"required" example:"A"`
}

type ReserveResponse struct {
	ID        int64  `json:"id" example:"42"`
	SheetRank string `json:"sheet_rank" example:"A"`
	SheetNum  int    `json:"sheet_num" example:"12"`
}

// Reserve godoc
// @Summary シートを予約
// @Description 指定席種の未予約シートを1つ割り当てます
// @Tags reservations
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param id path int true "イベントID"
// @Param request body ReserveRequest true "席種"
// @Success 202 {object} ReserveResponse
// @Failure 400 {object} map[string]string "invalid_rank"
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string "invalid_event"
// @Failure 409 {object} map[string]string "sold_out"
// @Router /events/{id}/actions/reserve [post]
func (h *ReservationHandler) Reserve(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	eventID, err := pathInt64(c, "id")
	if err != nil {
		return err
	}
	var req ReserveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid_request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	out, err := h.service.Reserve(c.Request().Context(), application.ReserveInput{
		EventID: eventID,
		Rank:    rank.Rank(req.SheetRank),
		UserID:  userID,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusAccepted, ReserveResponse{
		ID:        out.ReservationID,
		SheetRank: string(out.SheetRank),
		SheetNum:  out.SheetNum,
	})
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 保持しているシートの予約を取り消し、空き状態へ戻します
// @Tags reservations
// @Param X-User-ID header string true "ユーザーID"
// @Param id path int true "イベントID"
// @Param rank path string true "席種"
// @Param num path int true "シート番号"
// @Success 204
// @Failure 400 {object} map[string]string "not_reserved"
// @Failure 403 {object} map[string]string "not_permitted"
// @Failure 404 {object} map[string]string
// @Router /events/{id}/sheets/{rank}/{num}/reservation [delete]
func (h *ReservationHandler) Cancel(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	eventID, err := pathInt64(c, "id")
	if err != nil {
		return err
	}
	num, err := strconv.Atoi(c.Param("num"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "invalid_sheet")
	}

	err = h.service.Cancel(c.Request().Context(), application.CancelInput{
		EventID: eventID,
		Rank:    rank.Rank(c.Param("rank")),
		Num:     num,
		UserID:  userID,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
