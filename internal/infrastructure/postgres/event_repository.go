package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/event"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/transaction"
)

// eventRow はDBの行を表す構造体
type eventRow struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	Price     int       `db:"price"`
	PublicFg  bool      `db:"public_fg"`
	ClosedFg  bool      `db:"closed_fg"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// toEntity はeventRowをEventエンティティに変換する
func (r *eventRow) toEntity() *event.Event {
	return &event.Event{
		ID:        r.ID,
		Title:     r.Title,
		Price:     r.Price,
		Public:    r.PublicFg,
		Closed:    r.ClosedFg,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// EventRepository はイベントリポジトリのPostgreSQL実装
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository はEventRepositoryを作成する
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create は新しいイベントを作成する
// インベントリのシードと同一トランザクションで呼ばれる
func (r *EventRepository) Create(ctx context.Context, tx transaction.Tx, e *event.Event) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("トランザクションが不正です")
	}
	query := `
		INSERT INTO events (title, price, public_fg, closed_fg, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := sqlxTx.QueryRowContext(ctx, query,
		e.Title, e.Price, e.Public, e.Closed, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*event.Event, error) {
	query := `SELECT id, title, price, public_fg, closed_fg, created_at, updated_at FROM events WHERE id = $1`

	var row eventRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// List は全イベントをID昇順で取得する
func (r *EventRepository) List(ctx context.Context) ([]*event.Event, error) {
	query := `SELECT id, title, price, public_fg, closed_fg, created_at, updated_at FROM events ORDER BY id ASC`

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("イベント一覧取得に失敗しました: %w", err)
	}

	events := make([]*event.Event, len(rows))
	for i, row := range rows {
		events[i] = row.toEntity()
	}
	return events, nil
}

// ListPublic は公開中のイベントをID昇順で取得する
func (r *EventRepository) ListPublic(ctx context.Context) ([]*event.Event, error) {
	query := `SELECT id, title, price, public_fg, closed_fg, created_at, updated_at FROM events WHERE public_fg = TRUE ORDER BY id ASC`

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("公開イベント一覧取得に失敗しました: %w", err)
	}

	events := make([]*event.Event, len(rows))
	for i, row := range rows {
		events[i] = row.toEntity()
	}
	return events, nil
}

// Update は公開・終了フラグを更新する
func (r *EventRepository) Update(ctx context.Context, e *event.Event) error {
	query := `UPDATE events SET public_fg = $1, closed_fg = $2, updated_at = $3 WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, e.Public, e.Closed, e.UpdatedAt, e.ID)
	if err != nil {
		return fmt.Errorf("イベント更新に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// インターフェースを満たしているか確認
var _ event.Repository = (*EventRepository)(nil)
