package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/inventory"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/transaction"
)

// InventoryRepository はシートインベントリのPostgreSQL実装
// reserved ビットの compare-and-flip は行単位の UPDATE で行い、
// ブロックするのは同一 (event_id, sheet_id) 行への競合のみ
type InventoryRepository struct {
	db *sqlx.DB
}

func NewInventoryRepository(db *sqlx.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// Seed はイベントの全シート分のエントリを free 状態で生成する
func (r *InventoryRepository) Seed(ctx context.Context, tx transaction.Tx, eventID int64) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("トランザクションが不正です")
	}
	// sheets 参照テーブルから全シートを展開する
	query := `
		INSERT INTO sheet_inventory (event_id, sheet_id, reserved)
		SELECT $1, s.id, FALSE FROM sheets s
	`
	if _, err := sqlxTx.ExecContext(ctx, query, eventID); err != nil {
		return fmt.Errorf("インベントリ初期化に失敗: %w", err)
	}
	return nil
}

// FreeSheetIDs は指定範囲内の未予約シートIDを返す（ロックなしのスナップショット読み）
func (r *InventoryRepository) FreeSheetIDs(ctx context.Context, eventID int64, lo, hi int) ([]int, error) {
	query := `SELECT sheet_id FROM sheet_inventory WHERE event_id = $1 AND reserved = FALSE AND sheet_id BETWEEN $2 AND $3`
	var ids []int
	if err := r.db.SelectContext(ctx, &ids, query, eventID, lo, hi); err != nil {
		return nil, fmt.Errorf("空きシート取得に失敗: %w", err)
	}
	return ids, nil
}

// TryReserve は free → reserved のアトミックな flip を試みる
// reserved = FALSE を条件に含めた UPDATE の影響行数が CAS の結果となる
func (r *InventoryRepository) TryReserve(ctx context.Context, tx transaction.Tx, eventID int64, sheetID int) (bool, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return false, errors.New("トランザクションが不正です")
	}
	query := `UPDATE sheet_inventory SET reserved = TRUE WHERE event_id = $1 AND sheet_id = $2 AND reserved = FALSE`
	result, err := sqlxTx.ExecContext(ctx, query, eventID, sheetID)
	if err != nil {
		return false, fmt.Errorf("シート予約フリップに失敗: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("フリップ結果の確認に失敗: %w", err)
	}
	return rows == 1, nil
}

// Release は reserved → free に戻す。既に free なら何もしない（冪等）
func (r *InventoryRepository) Release(ctx context.Context, tx transaction.Tx, eventID int64, sheetID int) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("トランザクションが不正です")
	}
	query := `UPDATE sheet_inventory SET reserved = FALSE WHERE event_id = $1 AND sheet_id = $2 AND reserved = TRUE`
	if _, err := sqlxTx.ExecContext(ctx, query, eventID, sheetID); err != nil {
		return fmt.Errorf("シート解放に失敗: %w", err)
	}
	return nil
}

// CountFree は指定範囲内の未予約エントリ数を返す
func (r *InventoryRepository) CountFree(ctx context.Context, eventID int64, lo, hi int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM sheet_inventory WHERE event_id = $1 AND reserved = FALSE AND sheet_id BETWEEN $2 AND $3`
	if err := r.db.GetContext(ctx, &count, query, eventID, lo, hi); err != nil {
		return 0, fmt.Errorf("空きシート数取得に失敗: %w", err)
	}
	return count, nil
}

var _ inventory.Repository = (*InventoryRepository)(nil)
