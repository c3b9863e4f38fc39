package application

import (
	"context"
	"fmt"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/event"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/inventory"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/transaction"
)

// EventService はイベントのライフサイクル（作成・編集・参照）を扱う
type EventService struct {
	txManager     transaction.Manager
	eventRepo     event.Repository
	inventoryRepo inventory.Repository
}

func NewEventService(tm transaction.Manager, er event.Repository, ir inventory.Repository) *EventService {
	return &EventService{txManager: tm, eventRepo: er, inventoryRepo: ir}
}

type CreateEventInput struct {
	Title  string
	Price  int
	Public bool
}

// CreateEvent はイベントを作成し、全シート分のインベントリを free 状態で初期化する
// イベント行とインベントリ行は同一トランザクションでコミットされるため、
// Reserve が合法になる時点で必ず全エントリが存在する
func (s *EventService) CreateEvent(ctx context.Context, input CreateEventInput) (*event.Event, error) {
	e := event.NewEvent(input.Title, input.Price, input.Public)
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.eventRepo.Create(ctx, tx, e); err != nil {
		return nil, err
	}
	if err := s.inventoryRepo.Seed(ctx, tx, e.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	return e, nil
}

type EditEventInput struct {
	ID     int64
	Public bool
	Closed bool
}

// EditEvent は公開・終了フラグを変更する
// 遷移規則（終了イベントは編集不可、公開中は直接終了不可）はエンティティ側で検証する
func (s *EventService) EditEvent(ctx context.Context, input EditEventInput) (*event.Event, error) {
	e, err := s.eventRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if err := e.Edit(input.Public, input.Closed); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EventService) GetEvent(ctx context.Context, id int64) (*event.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

// ListEvents は全イベントを返す（管理者向け）
func (s *EventService) ListEvents(ctx context.Context) ([]*event.Event, error) {
	return s.eventRepo.List(ctx)
}

// ListPublicEvents は公開中のイベントのみを返す
func (s *EventService) ListPublicEvents(ctx context.Context) ([]*event.Event, error) {
	return s.eventRepo.ListPublic(ctx)
}
