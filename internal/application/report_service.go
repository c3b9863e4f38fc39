package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/event"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/rank"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/reservation"
	redisinfra "github.com/sanosuguru/go-ticket-sales/internal/infrastructure/redis"
	"github.com/sanosuguru/go-ticket-sales/internal/pkg/logger"
	"github.com/sanosuguru/go-ticket-sales/internal/pkg/metrics"
)

const refreshLockTTL = 5 * time.Second

// ReportService は台帳とイベント・席種カタログから読み取り専用の集計を導出する
// 別カウンタは持たず、必要になった時点で台帳をスキャンする（台帳とのズレを作らないため）
// 残席数のみ Redis に短TTLでキャッシュされるが、権威は常に台帳側にある
type ReportService struct {
	eventRepo       event.Repository
	reservationRepo reservation.Repository
	cache           *redisinfra.VacancyCache
	lockManager     *redisinfra.LockManager
	cacheTTL        time.Duration
	metrics         *metrics.Metrics
}

func NewReportService(
	er event.Repository,
	rr reservation.Repository,
	cache *redisinfra.VacancyCache,
	lm *redisinfra.LockManager,
	cacheTTL time.Duration,
	m *metrics.Metrics,
) *ReportService {
	return &ReportService{
		eventRepo:       er,
		reservationRepo: rr,
		cache:           cache,
		lockManager:     lm,
		cacheTTL:        cacheTTL,
		metrics:         m,
	}
}

// RankVacancy は席種ごとの在庫サマリ
type RankVacancy struct {
	Total   int
	Remains int
	Price   int
}

// EventSummary は一覧ページ向けのイベントサマリ
type EventSummary struct {
	Event   *event.Event
	Total   int
	Remains int
	Ranks   map[rank.Rank]RankVacancy
}

// GetEventSummary はイベントの席種別残席サマリを返す
func (s *ReportService) GetEventSummary(ctx context.Context, eventID int64) (*EventSummary, error) {
	ev, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.buildSummary(ctx, ev)
}

// ListPublicEventSummaries は公開中イベントのサマリ一覧を返す
func (s *ReportService) ListPublicEventSummaries(ctx context.Context) ([]*EventSummary, error) {
	events, err := s.eventRepo.ListPublic(ctx)
	if err != nil {
		return nil, err
	}
	return s.buildSummaries(ctx, events)
}

// ListEventSummaries は全イベントのサマリ一覧を返す（管理者向け）
func (s *ReportService) ListEventSummaries(ctx context.Context) ([]*EventSummary, error) {
	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.buildSummaries(ctx, events)
}

func (s *ReportService) buildSummaries(ctx context.Context, events []*event.Event) ([]*EventSummary, error) {
	summaries := make([]*EventSummary, len(events))
	for i, ev := range events {
		summary, err := s.buildSummary(ctx, ev)
		if err != nil {
			return nil, err
		}
		summaries[i] = summary
	}
	return summaries, nil
}

func (s *ReportService) buildSummary(ctx context.Context, ev *event.Event) (*EventSummary, error) {
	summary := &EventSummary{
		Event: ev,
		Total: rank.TotalSheets,
		Ranks: make(map[rank.Rank]RankVacancy, len(rank.All())),
	}
	for _, def := range rank.All() {
		remains, err := s.rankRemains(ctx, ev.ID, def)
		if err != nil {
			return nil, err
		}
		summary.Ranks[def.Rank] = RankVacancy{
			Total:   def.Capacity,
			Remains: remains,
			Price:   def.Price(ev.Price),
		}
		summary.Remains += remains
	}
	return summary, nil
}

// rankRemains は残席数を返す。キャッシュヒットすれば台帳スキャンを省略する
func (s *ReportService) rankRemains(ctx context.Context, eventID int64, def rank.Definition) (int, error) {
	if s.cache != nil {
		remains, err := s.cache.GetRemains(ctx, eventID, def.Rank)
		if err == nil {
			s.countCacheOp("get", "hit")
			return remains, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("キャッシュ取得エラー", zap.Error(err))
		}
		s.countCacheOp("get", "miss")
	}

	remains, err := s.countRemains(ctx, eventID, def)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetRemains(ctx, eventID, def.Rank, remains, s.cacheTTL); err != nil {
			logger.Warn("キャッシュ保存エラー", zap.Error(err))
			s.countCacheOp("set", "error")
		} else {
			s.countCacheOp("set", "ok")
		}
	}
	return remains, nil
}

// countRemains は台帳の ACTIVE 予約数から残席数を導出する
func (s *ReportService) countRemains(ctx context.Context, eventID int64, def rank.Definition) (int, error) {
	lo, hi := def.SheetRange()
	occupied, err := s.reservationRepo.CountActiveInRange(ctx, eventID, lo, hi)
	if err != nil {
		return 0, fmt.Errorf("予約数集計に失敗: %w", err)
	}
	return def.Capacity - occupied, nil
}

// SheetDetail はイベント詳細ページのシート1席分の表示情報
type SheetDetail struct {
	Num        int
	Reserved   bool
	ReservedAt *int64 // 予約時刻（UNIX秒）。未予約なら nil
	Mine       bool
}

// EventDetail はイベント詳細ページの表示情報
type EventDetail struct {
	Summary *EventSummary
	Sheets  map[rank.Rank][]SheetDetail
}

// GetEventDetail はシート単位の予約状況つきイベント詳細を返す
// viewerID が 0 より大きい場合、そのユーザーが保持するシートに mine を付ける
func (s *ReportService) GetEventDetail(ctx context.Context, eventID int64, viewerID int64) (*EventDetail, error) {
	ev, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	active, err := s.reservationRepo.ListActiveByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	bySheet := make(map[int]*reservation.Reservation, len(active))
	for _, res := range active {
		bySheet[res.SheetID] = res
	}

	detail := &EventDetail{
		Summary: &EventSummary{
			Event: ev,
			Total: rank.TotalSheets,
			Ranks: make(map[rank.Rank]RankVacancy, len(rank.All())),
		},
		Sheets: make(map[rank.Rank][]SheetDetail, len(rank.All())),
	}

	for _, def := range rank.All() {
		sheets := make([]SheetDetail, 0, def.Capacity)
		remains := 0
		for _, sheet := range def.Sheets() {
			sd := SheetDetail{Num: sheet.Num}
			if res, ok := bySheet[sheet.ID]; ok {
				sd.Reserved = true
				reservedAt := res.ReservedAt.Unix()
				sd.ReservedAt = &reservedAt
				sd.Mine = viewerID > 0 && res.UserID == viewerID
			} else {
				remains++
			}
			sheets = append(sheets, sd)
		}
		detail.Sheets[def.Rank] = sheets
		detail.Summary.Ranks[def.Rank] = RankVacancy{
			Total:   def.Capacity,
			Remains: remains,
			Price:   def.Price(ev.Price),
		}
		detail.Summary.Remains += remains
	}
	return detail, nil
}

// UserReservationView はアカウントページの予約履歴1件分
type UserReservationView struct {
	ReservationID int64
	EventID       int64
	EventTitle    string
	Rank          rank.Rank
	Num           int
	Price         int
	ReservedAt    int64
	CanceledAt    *int64
}

// UserAccount はアカウントページの表示情報
type UserAccount struct {
	UserID             int64
	RecentReservations []UserReservationView
	RecentEvents       []*EventSummary
	TotalPrice         int
}

const recentLimit = 5

// GetUserAccount はユーザーの予約履歴・購入合計・直近イベントを返す
func (s *ReportService) GetUserAccount(ctx context.Context, userID int64) (*UserAccount, error) {
	recent, err := s.reservationRepo.ListRecentByUser(ctx, userID, recentLimit)
	if err != nil {
		return nil, err
	}

	account := &UserAccount{UserID: userID}
	seenEvents := make(map[int64]bool)

	for _, res := range recent {
		ev, err := s.eventRepo.GetByID(ctx, res.EventID)
		if err != nil {
			return nil, err
		}
		sheet, err := rank.SheetByID(res.SheetID)
		if err != nil {
			return nil, err
		}
		def, err := rank.Get(sheet.Rank)
		if err != nil {
			return nil, err
		}

		view := UserReservationView{
			ReservationID: res.ID,
			EventID:       ev.ID,
			EventTitle:    ev.Title,
			Rank:          sheet.Rank,
			Num:           sheet.Num,
			Price:         def.Price(ev.Price),
			ReservedAt:    res.ReservedAt.Unix(),
		}
		if res.CanceledAt != nil {
			canceledAt := res.CanceledAt.Unix()
			view.CanceledAt = &canceledAt
		}
		account.RecentReservations = append(account.RecentReservations, view)

		if !seenEvents[ev.ID] && len(account.RecentEvents) < recentLimit {
			seenEvents[ev.ID] = true
			summary, err := s.buildSummary(ctx, ev)
			if err != nil {
				return nil, err
			}
			account.RecentEvents = append(account.RecentEvents, summary)
		}
	}

	total, err := s.reservationRepo.SumActiveAmountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	account.TotalPrice = total
	return account, nil
}

// SalesByEvent はイベントの販売実績行を返す。CSV整形は呼び出し側の責務
func (s *ReportService) SalesByEvent(ctx context.Context, eventID int64) ([]*reservation.SalesRecord, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.reservationRepo.SalesByEvent(ctx, eventID)
}

// SalesAll は全イベントの販売実績行を返す
func (s *ReportService) SalesAll(ctx context.Context) ([]*reservation.SalesRecord, error) {
	return s.reservationRepo.SalesAll(ctx)
}

// RefreshVacancies は公開中イベントの残席数を台帳から再計算してキャッシュへ書き込む
// SetNX のシングルフライトロックで同時リフレッシュを1インスタンスに限定する
// ロックを取れなかった場合は何もせず 0 を返す（次の周期に任せる）
func (s *ReportService) RefreshVacancies(ctx context.Context) (int, error) {
	if s.cache == nil {
		return 0, nil
	}

	if s.lockManager != nil {
		lock, err := s.lockManager.TryAcquire(ctx, "vacancy:refresh", refreshLockTTL)
		if err != nil {
			if errors.Is(err, redisinfra.ErrLockNotAcquired) {
				return 0, nil
			}
			return 0, err
		}
		defer lock.Release(ctx)
	}

	events, err := s.eventRepo.ListPublic(ctx)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, ev := range events {
		for _, def := range rank.All() {
			remains, err := s.countRemains(ctx, ev.ID, def)
			if err != nil {
				s.countCacheOp("refresh", "error")
				return refreshed, err
			}
			if err := s.cache.SetRemains(ctx, ev.ID, def.Rank, remains, s.cacheTTL); err != nil {
				s.countCacheOp("refresh", "error")
				return refreshed, err
			}
			refreshed++
		}
	}
	s.countCacheOp("refresh", "ok")
	return refreshed, nil
}

func (s *ReportService) countCacheOp(operation, result string) {
	if s.metrics != nil {
		s.metrics.VacancyCacheOperationsTotal.WithLabelValues(operation, result).Inc()
	}
}
