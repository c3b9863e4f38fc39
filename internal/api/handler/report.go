package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-ticket-sales/internal/application"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/reservation"
)

type ReportHandler struct {
	service ReportServiceInterface
}

func NewReportHandler(s ReportServiceInterface) *ReportHandler {
	return &ReportHandler{service: s}
}

type SalesRecordResponse struct {
	ReservationID int64  `json:"reservation_id" example:"42"`
	EventID       int64  `json:"event_id" example:"7"`
	Rank          string `json:"rank" example:"A"`
	Num           int    `json:"num" example:"12"`
	Price         int    `json:"price" example:"8000"`
	UserID        int64  `json:"user_id" example:"1001"`
	SoldAt        string `json:"sold_at" example:"2026-01-15T09:30:00.000000Z"`
	CanceledAt    string `json:"canceled_at,omitempty"`
}

// RFC3339 マイクロ秒精度。販売レポートの突合に使われるため精度を固定する
const soldAtFormat = "2006-01-02T15:04:05.000000Z"

func toSalesResponse(records []*reservation.SalesRecord) []SalesRecordResponse {
	resp := make([]SalesRecordResponse, len(records))
	for i, r := range records {
		resp[i] = SalesRecordResponse{
			ReservationID: r.ReservationID,
			EventID:       r.EventID,
			Rank:          r.Rank,
			Num:           r.Num,
			Price:         r.Price,
			UserID:        r.UserID,
			SoldAt:        r.SoldAt.UTC().Format(soldAtFormat),
		}
		if r.CanceledAt != nil {
			resp[i].CanceledAt = r.CanceledAt.UTC().Format(soldAtFormat)
		}
	}
	return resp
}

// EventSales godoc
// @Summary イベントの販売実績（管理者）
// @Description キャンセル済みを含む販売行を予約時刻の昇順で返します
// @Tags admin
// @Produce json
// @Param X-Admin-ID header string true "管理者ID"
// @Param id path int true "イベントID"
// @Success 200 {array} SalesRecordResponse
// @Failure 404 {object} map[string]string
// @Router /admin/reports/events/{id}/sales [get]
func (h *ReportHandler) EventSales(c echo.Context) error {
	if _, err := adminIDFrom(c); err != nil {
		return err
	}
	eventID, err := pathInt64(c, "id")
	if err != nil {
		return err
	}
	records, err := h.service.SalesByEvent(c.Request().Context(), eventID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toSalesResponse(records))
}

// AllSales godoc
// @Summary 全イベントの販売実績（管理者）
// @Tags admin
// @Produce json
// @Param X-Admin-ID header string true "管理者ID"
// @Success 200 {array} SalesRecordResponse
// @Router /admin/reports/sales [get]
func (h *ReportHandler) AllSales(c echo.Context) error {
	if _, err := adminIDFrom(c); err != nil {
		return err
	}
	records, err := h.service.SalesAll(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toSalesResponse(records))
}

type UserReservationResponse struct {
	ID         int64  `json:"id"`
	EventID    int64  `json:"event_id"`
	EventTitle string `json:"event_title"`
	SheetRank  string `json:"sheet_rank"`
	SheetNum   int    `json:"sheet_num"`
	Price      int    `json:"price"`
	ReservedAt int64  `json:"reserved_at"`
	CanceledAt *int64 `json:"canceled_at,omitempty"`
}

type UserAccountResponse struct {
	ID                 int64                     `json:"id"`
	RecentReservations []UserReservationResponse `json:"recent_reservations"`
	RecentEvents       []*EventResponse          `json:"recent_events"`
	TotalPrice         int                       `json:"total_price"`
}

// GetUser godoc
// @Summary ユーザーのアカウント情報
// @Description 直近の予約履歴・直近イベント・ACTIVE予約の合計金額を返します。本人のみ閲覧可
// @Tags users
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param id path int true "ユーザーID"
// @Success 200 {object} UserAccountResponse
// @Failure 403 {object} map[string]string "not_permitted"
// @Router /users/{id} [get]
func (h *ReportHandler) GetUser(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	pathID, err := pathInt64(c, "id")
	if err != nil {
		return err
	}
	if pathID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}

	account, err := h.service.GetUserAccount(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toUserAccountResponse(account))
}

func toUserAccountResponse(account *application.UserAccount) *UserAccountResponse {
	resp := &UserAccountResponse{
		ID:                 account.UserID,
		RecentReservations: make([]UserReservationResponse, len(account.RecentReservations)),
		RecentEvents:       make([]*EventResponse, len(account.RecentEvents)),
		TotalPrice:         account.TotalPrice,
	}
	for i, r := range account.RecentReservations {
		resp.RecentReservations[i] = UserReservationResponse{
			ID:         r.ReservationID,
			EventID:    r.EventID,
			EventTitle: r.EventTitle,
			SheetRank:  string(r.Rank),
			SheetNum:   r.Num,
			Price:      r.Price,
			ReservedAt: r.ReservedAt,
			CanceledAt: r.CanceledAt,
		}
	}
	for i, s := range account.RecentEvents {
		resp.RecentEvents[i] = toEventResponse(s)
	}
	return resp
}
