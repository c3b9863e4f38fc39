package reservation

import (
	"context"
	"time"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/transaction"
)

// SalesRecord は販売実績の1行を表す（レポート抽出用）
// CSV等への整形は外部コンポーネントの責務で、エンジンは行のみを提供する
type SalesRecord struct {
	ReservationID int64
	EventID       int64
	Rank          string
	Num           int
	Price         int
	UserID        int64
	SoldAt        time.Time
	CanceledAt    *time.Time
}

// Repository は予約台帳のインターフェース
// 追記中心のストアで、既存行への更新は ACTIVE→CANCELED の一度きり
type Repository interface {
	// Create は新しい ACTIVE 予約行を追加する（トランザクション必須）
	// インベントリの compare-and-flip と同一トランザクションで実行する
	Create(ctx context.Context, tx transaction.Tx, r *Reservation) error

	// GetActiveBySheet は (イベント, シート) の ACTIVE 予約を行ロック付きで取得する
	// 存在しない場合は ErrNotReserved を返す
	GetActiveBySheet(ctx context.Context, tx transaction.Tx, eventID int64, sheetID int) (*Reservation, error)

	// MarkCanceled は予約を CANCELED に更新する（トランザクション必須）
	// canceled_at 以外の列は変更しない
	MarkCanceled(ctx context.Context, tx transaction.Tx, r *Reservation) error

	// CountActiveInRange はシートID範囲 [lo, hi] 内の ACTIVE 予約数を返す
	CountActiveInRange(ctx context.Context, eventID int64, lo, hi int) (int, error)

	// ListActiveByEvent はイベントの ACTIVE 予約を全件返す
	ListActiveByEvent(ctx context.Context, eventID int64) ([]*Reservation, error)

	// ListRecentByUser はユーザーの予約履歴を新しい順に返す
	// 並び順はキャンセル日時（未キャンセルなら予約日時）の降順
	ListRecentByUser(ctx context.Context, userID int64, limit int) ([]*Reservation, error)

	// SumActiveAmountByUser はユーザーの ACTIVE 予約の販売価格合計を返す
	SumActiveAmountByUser(ctx context.Context, userID int64) (int, error)

	// SalesByEvent はイベントの販売実績を予約日時の昇順で返す
	SalesByEvent(ctx context.Context, eventID int64) ([]*SalesRecord, error)

	// SalesAll は全イベントの販売実績を予約日時の昇順で返す
	SalesAll(ctx context.Context) ([]*SalesRecord, error)
}
