package event

import "time"

// Event はイベントエンティティを表す
type Event struct {
	ID        int64
	Title     string
	Price     int
	Public    bool
	Closed    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewEvent は新しいイベントを作成する。closed は常に false で始まる
func NewEvent(title string, price int, public bool) *Event {
	now := time.Now()
	return &Event{
		Title:     title,
		Price:     price,
		Public:    public,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsOnSale は予約・キャンセルを受け付け可能かを返す
func (e *Event) IsOnSale() bool {
	return e.Public && !e.Closed
}

// Edit は公開・終了フラグを変更する
// 不変条件: 終了したイベントは編集できない / 公開中のイベントは直接終了できない
// （終了するには先に非公開へ戻す必要がある）
func (e *Event) Edit(public, closed bool) error {
	if closed {
		public = false
	}
	if e.Closed {
		return ErrCannotEditClosedEvent
	}
	if e.Public && closed {
		return ErrCannotClosePublicEvent
	}
	e.Public = public
	e.Closed = closed
	e.UpdatedAt = time.Now()
	return nil
}

// Validate はイベントの検証を行う
func (e *Event) Validate() error {
	if e.Title == "" {
		return ErrTitleRequired
	}
	if e.Price < 0 {
		return ErrInvalidPrice
	}
	return nil
}
