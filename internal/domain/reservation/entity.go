package reservation

import "time"

// Reservation は1ユーザーによる1シートの予約レコードを表す
// ACTIVE で作成され、キャンセルで一度だけ不可逆に CANCELED へ遷移する
// 行が削除されることはなく、同一シートの CANCELED 行は複数残り得る
type Reservation struct {
	ID         int64
	EventID    int64
	SheetID    int
	UserID     int64
	ReservedAt time.Time
	CanceledAt *time.Time
}

// NewReservation は新しい ACTIVE 予約を作成する
func NewReservation(eventID int64, sheetID int, userID int64) *Reservation {
	return &Reservation{
		EventID:    eventID,
		SheetID:    sheetID,
		UserID:     userID,
		ReservedAt: time.Now().UTC(),
	}
}

// IsActive は予約が有効（未キャンセル）かを返す
func (r *Reservation) IsActive() bool {
	return r.CanceledAt == nil
}

// Cancel は予約を CANCELED に遷移させる
// reserved_at と user_id は作成後変更されない。遷移は一度きり
func (r *Reservation) Cancel() error {
	if !r.IsActive() {
		return ErrNotReserved
	}
	now := time.Now().UTC()
	r.CanceledAt = &now
	return nil
}

// Validate は予約の検証を行う
func (r *Reservation) Validate() error {
	if r.EventID == 0 {
		return ErrEventIDRequired
	}
	if r.SheetID == 0 {
		return ErrSheetIDRequired
	}
	if r.UserID == 0 {
		return ErrUserIDRequired
	}
	return nil
}
