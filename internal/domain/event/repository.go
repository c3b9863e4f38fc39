package event

import (
	"context"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/transaction"
)

// Repository はイベントリポジトリのインターフェース
type Repository interface {
	// Create は新しいイベントを作成する（トランザクション必須）
	// インベントリの初期化と同一トランザクションで実行されることを想定する
	Create(ctx context.Context, tx transaction.Tx, e *Event) error

	// GetByID はIDからイベントを取得する
	// 予約・キャンセルの事前条件は常にこの値を参照する（エンジン側でのキャッシュ禁止）
	GetByID(ctx context.Context, id int64) (*Event, error)

	// List は全イベントをID昇順で取得する
	List(ctx context.Context) ([]*Event, error)

	// ListPublic は公開中のイベントをID昇順で取得する
	ListPublic(ctx context.Context) ([]*Event, error)

	// Update は公開・終了フラグを更新する
	Update(ctx context.Context, e *Event) error
}
