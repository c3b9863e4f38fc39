package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/event"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/inventory"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/rank"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/reservation"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/transaction"
	"github.com/sanosuguru/go-ticket-sales/internal/pkg/logger"
	"github.com/sanosuguru/go-ticket-sales/internal/pkg/metrics"
)

// AllocationService はシート割り当てエンジン
// 未予約シートを1つ選んで reserved へフリップし台帳へ追記する Reserve と、
// その逆を行う Cancel を提供する。インベントリと台帳の書き込みはこのサービスのみが行う
type AllocationService struct {
	txManager       transaction.Manager
	eventRepo       event.Repository
	inventoryRepo   inventory.Repository
	reservationRepo reservation.Repository
	metrics         *metrics.Metrics
}

func NewAllocationService(
	tm transaction.Manager,
	er event.Repository,
	ir inventory.Repository,
	rr reservation.Repository,
	m *metrics.Metrics,
) *AllocationService {
	return &AllocationService{
		txManager:       tm,
		eventRepo:       er,
		inventoryRepo:   ir,
		reservationRepo: rr,
		metrics:         m,
	}
}

type ReserveInput struct {
	EventID int64
	Rank    rank.Rank
	UserID  int64
}

type ReserveOutput struct {
	ReservationID int64
	SheetRank     rank.Rank
	SheetNum      int
}

// Reserve は指定席種の未予約シートを1つ割り当てる
//
// 候補集合をランダム順に走査し、各候補に対してインベントリの compare-and-flip と
// 台帳への追記を単一トランザクションで試みる。フリップに競り負けた候補は
// 失敗ではなく次の候補へのリトライとして扱う。全候補を使い切ったら sold_out
func (s *AllocationService) Reserve(ctx context.Context, input ReserveInput) (*ReserveOutput, error) {
	ev, err := s.getOnSaleEvent(ctx, input.EventID)
	if err != nil {
		s.countReservation(reserveOutcome(err))
		return nil, err
	}

	def, err := rank.Get(input.Rank)
	if err != nil {
		s.countReservation("invalid_rank")
		return nil, err
	}

	lo, hi := def.SheetRange()
	candidates, err := s.inventoryRepo.FreeSheetIDs(ctx, ev.ID, lo, hi)
	if err != nil {
		s.countReservation("error")
		return nil, fmt.Errorf("候補シート取得に失敗: %w", err)
	}
	if len(candidates) == 0 {
		s.countReservation("sold_out")
		return nil, reservation.ErrSoldOut
	}

	// 低番号シートへの偏りを避けるため一様ランダムに並べ替える
	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	for _, sheetID := range candidates {
		out, err := s.tryAllocate(ctx, ev.ID, sheetID, input.UserID)
		if err != nil {
			s.countReservation("error")
			return nil, err
		}
		if out == nil {
			// 他のリクエストが先にフリップした。次の候補へ
			if s.metrics != nil {
				s.metrics.AllocationRetriesTotal.Inc()
			}
			continue
		}
		s.countReservation("success")
		logger.Debug("シート割り当て成功",
			zap.Int64("event_id", ev.ID),
			zap.String("rank", string(out.SheetRank)),
			zap.Int("num", out.SheetNum),
		)
		return out, nil
	}

	s.countReservation("sold_out")
	return nil, reservation.ErrSoldOut
}

// tryAllocate は1候補に対するフリップと台帳追記を単一トランザクションで行う
// 競り負けた場合は (nil, nil) を返す
func (s *AllocationService) tryAllocate(ctx context.Context, eventID int64, sheetID int, userID int64) (*ReserveOutput, error) {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	ok, err := s.inventoryRepo.TryReserve(ctx, tx, eventID, sheetID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	res := reservation.NewReservation(eventID, sheetID, userID)
	if err := res.Validate(); err != nil {
		return nil, err
	}
	if err := s.reservationRepo.Create(ctx, tx, res); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	sheet, err := rank.SheetByID(sheetID)
	if err != nil {
		return nil, err
	}
	return &ReserveOutput{ReservationID: res.ID, SheetRank: sheet.Rank, SheetNum: sheet.Num}, nil
}

type CancelInput struct {
	EventID int64
	Rank    rank.Rank
	Num     int
	UserID  int64
}

// Cancel は予約を取り消してシートを空き状態へ戻す
//
// インベントリの解放、ACTIVE 予約の検証、CANCELED への遷移を単一トランザクションで
// 行う。予約が存在しない・保持者が異なる場合は全体をロールバックし、
// インベントリは元の状態のまま残る
func (s *AllocationService) Cancel(ctx context.Context, input CancelInput) error {
	ev, err := s.getOnSaleEvent(ctx, input.EventID)
	if err != nil {
		s.countCancellation(reserveOutcome(err))
		return err
	}

	sheet, err := rank.SheetOf(input.Rank, input.Num)
	if err != nil {
		s.countCancellation("invalid_sheet")
		return err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		s.countCancellation("error")
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.inventoryRepo.Release(ctx, tx, ev.ID, sheet.ID); err != nil {
		s.countCancellation("error")
		return err
	}

	res, err := s.reservationRepo.GetActiveBySheet(ctx, tx, ev.ID, sheet.ID)
	if err != nil {
		if errors.Is(err, reservation.ErrNotReserved) {
			s.countCancellation("not_reserved")
			return reservation.ErrNotReserved
		}
		s.countCancellation("error")
		return err
	}
	if res.UserID != input.UserID {
		s.countCancellation("not_permitted")
		return reservation.ErrNotPermitted
	}

	if err := res.Cancel(); err != nil {
		s.countCancellation("error")
		return err
	}
	if err := s.reservationRepo.MarkCanceled(ctx, tx, res); err != nil {
		s.countCancellation("error")
		return err
	}
	if err := tx.Commit(); err != nil {
		s.countCancellation("error")
		return fmt.Errorf("コミットに失敗: %w", err)
	}

	s.countCancellation("success")
	return nil
}

// getOnSaleEvent は予約・キャンセルの事前条件を検証する
// イベントの公開状態は毎回ストアから読む（エンジン内でのキャッシュ禁止）
func (s *AllocationService) getOnSaleEvent(ctx context.Context, eventID int64) (*event.Event, error) {
	ev, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return nil, event.ErrInvalidEvent
		}
		return nil, fmt.Errorf("イベント取得に失敗: %w", err)
	}
	if !ev.IsOnSale() {
		return nil, event.ErrInvalidEvent
	}
	return ev, nil
}

func (s *AllocationService) countReservation(outcome string) {
	if s.metrics != nil {
		s.metrics.ReservationsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *AllocationService) countCancellation(outcome string) {
	if s.metrics != nil {
		s.metrics.CancellationsTotal.WithLabelValues(outcome).Inc()
	}
}

func reserveOutcome(err error) string {
	switch {
	case errors.Is(err, event.ErrInvalidEvent):
		return "invalid_event"
	case errors.Is(err, rank.ErrInvalidRank):
		return "invalid_rank"
	default:
		return "error"
	}
}
