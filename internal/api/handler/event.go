package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-ticket-sales/internal/application"
)

type EventHandler struct {
	eventService  EventServiceInterface
	reportService ReportServiceInterface
}

func NewEventHandler(es EventServiceInterface, rs ReportServiceInterface) *EventHandler {
	return &EventHandler{eventService: es, reportService: rs}
}

type RankSummaryResponse struct {
	Total   int `json:"total" example:"150"`
	Remains int `json:"remains" example:"148"`
	Price   int `json:"price" example:"8000"`
}

type EventResponse struct {
	ID      int64                          `json:"id" example:"7"`
	Title   string                         `json:"title" example:"年末スペシャルライブ"`
	Price   int                            `json:"price" example:"5000"`
	Public  bool                           `json:"public" example:"true"`
	Closed  bool                           `json:"closed" example:"false"`
	Total   int                            `json:"total" example:"1000"`
	Remains int                            `json:"remains" example:"998"`
	Sheets  map[string]RankSummaryResponse `json:"sheets"`
}

func toEventResponse(s *application.EventSummary) *EventResponse {
	resp := &EventResponse{
		ID:      s.Event.ID,
		Title:   s.Event.Title,
		Price:   s.Event.Price,
		Public:  s.Event.Public,
		Closed:  s.Event.Closed,
		Total:   s.Total,
		Remains: s.Remains,
		Sheets:  make(map[string]RankSummaryResponse, len(s.Ranks)),
	}
	for r, v := range s.Ranks {
		resp.Sheets[string(r)] = RankSummaryResponse{Total: v.Total, Remains: v.Remains, Price: v.Price}
	}
	return resp
}

type SheetDetailResponse struct {
	Num        int    `json:"num"`
	Reserved   bool   `json:"reserved"`
	ReservedAt *int64 `json:"reserved_at,omitempty"`
	Mine       bool   `json:"mine,omitempty"`
}

type RankDetailResponse struct {
	RankSummaryResponse
	Detail []SheetDetailResponse `json:"detail"`
}

type EventDetailResponse struct {
	ID      int64                         `json:"id"`
	Title   string                        `json:"title"`
	Price   int                           `json:"price"`
	Public  bool                          `json:"public"`
	Closed  bool                          `json:"closed"`
	Total   int                           `json:"total"`
	Remains int                           `json:"remains"`
	Sheets  map[string]RankDetailResponse `json:"sheets"`
}

func toEventDetailResponse(d *application.EventDetail) *EventDetailResponse {
	s := d.Summary
	resp := &EventDetailResponse{
		ID:      s.Event.ID,
		Title:   s.Event.Title,
		Price:   s.Event.Price,
		Public:  s.Event.Public,
		Closed:  s.Event.Closed,
		Total:   s.Total,
		Remains: s.Remains,
		Sheets:  make(map[string]RankDetailResponse, len(s.Ranks)),
	}
	for r, v := range s.Ranks {
		detail := make([]SheetDetailResponse, 0, len(d.Sheets[r]))
		for _, sd := range d.Sheets[r] {
			detail = append(detail, SheetDetailResponse{
				Num: sd.Num, Reserved: sd.Reserved, ReservedAt: sd.ReservedAt, Mine: sd.Mine,
			})
		}
		resp.Sheets[string(r)] = RankDetailResponse{
			RankSummaryResponse: RankSummaryResponse{Total: v.Total, Remains: v.Remains, Price: v.Price},
			Detail:              detail,
		}
	}
	return resp
}

// ListPublic godoc
// @Summary 公開中イベントの一覧
// @Description 席種別の残席数つきで公開中イベントを返します
// @Tags events
// @Produce json
// @Success 200 {array} EventResponse
// @Router /events [get]
func (h *EventHandler) ListPublic(c echo.Context) error {
	summaries, err := h.reportService.ListPublicEventSummaries(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	resp := make([]*EventResponse, len(summaries))
	for i, s := range summaries {
		resp[i] = toEventResponse(s)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetByID godoc
// @Summary イベント詳細を取得
// @Description シート単位の予約状況つきでイベントを返します（公開中のみ）
// @Tags events
// @Produce json
// @Param id path int true "イベントID"
// @Param X-User-ID header string false "ユーザーID（mine 判定に使用）"
// @Success 200 {object} EventDetailResponse
// @Failure 404 {object} map[string]string
// @Router /events/{id} [get]
func (h *EventHandler) GetByID(c echo.Context) error {
	eventID, err := pathInt64(c, "id")
	if err != nil {
		return err
	}

	// ログインは任意。ヘッダーがあれば mine 判定に使う
	var viewerID int64
	if v := c.Request().Header.Get("X-User-ID"); v != "" {
		viewerID, _ = strconv.ParseInt(v, 10, 64)
	}

	detail, err := h.reportService.GetEventDetail(c.Request().Context(), eventID, viewerID)
	if err != nil {
		return toHTTPError(err)
	}
	if !detail.Summary.Event.Public {
		return echo.NewHTTPError(http.StatusNotFound, "not_found")
	}
	return c.JSON(http.StatusOK, toEventDetailResponse(detail))
}

type CreateEventRequest struct {
	Title  string `json:"title" validate:"required" example:"年末スペシャルライブ"`
	Price  int    `json:"price" validate:"gte=0" example:"5000"`
	Public bool   `json:"public" example:"false"`
}

// Create godoc
// @Summary イベントを作成（管理者）
// @Description イベントと全シート分のインベントリを作成します
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Admin-ID header string true "管理者ID"
// @Param request body CreateEventRequest true "イベント情報"
// @Success 201 {object} EventResponse
// @Failure 400 {object} map[string]string
// @Router /admin/events [post]
func (h *EventHandler) Create(c echo.Context) error {
	if _, err := adminIDFrom(c); err != nil {
		return err
	}
	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid_request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	e, err := h.eventService.CreateEvent(c.Request().Context(), application.CreateEventInput{
		Title: req.Title, Price: req.Price, Public: req.Public,
	})
	if err != nil {
		return toHTTPError(err)
	}

	summary, err := h.reportService.GetEventSummary(c.Request().Context(), e.ID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toEventResponse(summary))
}

type EditEventRequest struct {
	Public bool `json:"public"`
	Closed bool `json:"closed"`
}

// Edit godoc
// @Summary イベントの公開状態を編集（管理者）
// @Description 公開・終了フラグを変更します。終了イベントの再公開はできません
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Admin-ID header string true "管理者ID"
// @Param id path int true "イベントID"
// @Param request body EditEventRequest true "公開・終了フラグ"
// @Success 200 {object} EventResponse
// @Failure 400 {object} map[string]string "cannot_edit_closed_event / cannot_close_public_event"
// @Failure 404 {object} map[string]string
// @Router /admin/events/{id}/actions/edit [post]
func (h *EventHandler) Edit(c echo.Context) error {
	if _, err := adminIDFrom(c); err != nil {
		return err
	}
	eventID, err := pathInt64(c, "id")
	if err != nil {
		return err
	}
	var req EditEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid_request")
	}

	e, err := h.eventService.EditEvent(c.Request().Context(), application.EditEventInput{
		ID: eventID, Public: req.Public, Closed: req.Closed,
	})
	if err != nil {
		return toHTTPError(err)
	}

	summary, err := h.reportService.GetEventSummary(c.Request().Context(), e.ID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toEventResponse(summary))
}

// ListAdmin godoc
// @Summary 全イベントの一覧（管理者）
// @Tags admin
// @Produce json
// @Param X-Admin-ID header string true "管理者ID"
// @Success 200 {array} EventResponse
// @Router /admin/events [get]
func (h *EventHandler) ListAdmin(c echo.Context) error {
	if _, err := adminIDFrom(c); err != nil {
		return err
	}
	summaries, err := h.reportService.ListEventSummaries(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	resp := make([]*EventResponse, len(summaries))
	for i, s := range summaries {
		resp[i] = toEventResponse(s)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetAdmin godoc
// @Summary イベントを取得（管理者）
// @Tags admin
// @Produce json
// @Param X-Admin-ID header string true "管理者ID"
// @Param id path int true "イベントID"
// @Success 200 {object} EventResponse
// @Failure 404 {object} map[string]string
// @Router /admin/events/{id} [get]
func (h *EventHandler) GetAdmin(c echo.Context) error {
	if _, err := adminIDFrom(c); err != nil {
		return err
	}
	eventID, err := pathInt64(c, "id")
	if err != nil {
		return err
	}
	summary, err := h.reportService.GetEventSummary(c.Request().Context(), eventID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toEventResponse(summary))
}
