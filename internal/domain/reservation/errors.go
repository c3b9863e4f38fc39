package reservation

import "errors"

// Reservation ドメインのエラー定義
var (
	ErrReservationNotFound = errors.New("予約が見つかりません")
	ErrNotReserved         = errors.New("シートは予約されていません")
	ErrNotPermitted        = errors.New("予約の保持者ではありません")
	ErrSoldOut             = errors.New("空きシートがありません")
	ErrEventIDRequired     = errors.New("イベントIDは必須です")
	ErrSheetIDRequired     = errors.New("シートIDは必須です")
	ErrUserIDRequired      = errors.New("ユーザーIDは必須です")
)
