package inventory

import (
	"context"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/transaction"
)

// Entry は (イベント, シート) ごとの予約済みビットを表す
// イベント作成時に全シート分が free で生成される
type Entry struct {
	EventID  int64
	SheetID  int
	Reserved bool
}

// Repository はシートインベントリのインターフェース
// 書き込みは割り当てエンジンのみが行う。他のコンポーネントは読み取り専用
type Repository interface {
	// Seed はイベントの全シート分のエントリを free 状態で生成する（トランザクション必須）
	Seed(ctx context.Context, tx transaction.Tx, eventID int64) error

	// FreeSheetIDs は指定範囲 [lo, hi] 内の未予約シートIDを返す
	// スナップショット読みであり、返却後に他の予約が先行する可能性がある
	FreeSheetIDs(ctx context.Context, eventID int64, lo, hi int) ([]int, error)

	// TryReserve は free → reserved のアトミックな compare-and-flip を試みる
	// 既に reserved の場合は false を返す。ブロックするのは同一エントリへの
	// 競合アクセスのみで、他のシートには影響しない
	TryReserve(ctx context.Context, tx transaction.Tx, eventID int64, sheetID int) (bool, error)

	// Release は reserved → free に戻す。既に free の場合は何もしない（冪等）
	Release(ctx context.Context, tx transaction.Tx, eventID int64, sheetID int) error

	// CountFree は指定範囲 [lo, hi] 内の未予約エントリ数を返す
	CountFree(ctx context.Context, eventID int64, lo, hi int) (int, error)
}
