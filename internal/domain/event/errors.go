package event

import "errors"

// Event ドメインのエラー定義
var (
	ErrEventNotFound          = errors.New("イベントが見つかりません")
	ErrInvalidEvent           = errors.New("イベントは予約を受け付けていません")
	ErrTitleRequired          = errors.New("タイトルは必須です")
	ErrInvalidPrice           = errors.New("価格は0以上である必要があります")
	ErrCannotEditClosedEvent  = errors.New("終了したイベントは編集できません")
	ErrCannotClosePublicEvent = errors.New("公開中のイベントは終了できません")
)
