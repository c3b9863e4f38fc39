package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/reservation"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/transaction"
)

type reservationRow struct {
	ID         int64      `db:"id"`
	EventID    int64      `db:"event_id"`
	SheetID    int        `db:"sheet_id"`
	UserID     int64      `db:"user_id"`
	ReservedAt time.Time  `db:"reserved_at"`
	CanceledAt *time.Time `db:"canceled_at"`
}

func (r *reservationRow) toEntity() *reservation.Reservation {
	return &reservation.Reservation{
		ID: r.ID, EventID: r.EventID, SheetID: r.SheetID,
		UserID: r.UserID, ReservedAt: r.ReservedAt, CanceledAt: r.CanceledAt,
	}
}

type salesRow struct {
	ReservationID int64      `db:"reservation_id"`
	EventID       int64      `db:"event_id"`
	Rank          string     `db:"rank"`
	Num           int        `db:"num"`
	Price         int        `db:"price"`
	UserID        int64      `db:"user_id"`
	SoldAt        time.Time  `db:"sold_at"`
	CanceledAt    *time.Time `db:"canceled_at"`
}

func (r *salesRow) toRecord() *reservation.SalesRecord {
	return &reservation.SalesRecord{
		ReservationID: r.ReservationID, EventID: r.EventID,
		Rank: r.Rank, Num: r.Num, Price: r.Price,
		UserID: r.UserID, SoldAt: r.SoldAt, CanceledAt: r.CanceledAt,
	}
}

type ReservationRepository struct{ db *sqlx.DB }

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("トランザクションが不正です")
	}
	query := `INSERT INTO reservations (event_id, sheet_id, user_id, reserved_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := sqlxTx.QueryRowContext(ctx, query, res.EventID, res.SheetID, res.UserID, res.ReservedAt).Scan(&res.ID); err != nil {
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

// GetActiveBySheet は ACTIVE 予約を FOR UPDATE で取得する
func (r *ReservationRepository) GetActiveBySheet(ctx context.Context, tx transaction.Tx, eventID int64, sheetID int) (*reservation.Reservation, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, errors.New("トランザクションが不正です")
	}
	var row reservationRow
	query := `SELECT id, event_id, sheet_id, user_id, reserved_at, canceled_at FROM reservations WHERE event_id = $1 AND sheet_id = $2 AND canceled_at IS NULL FOR UPDATE`
	if err := sqlxTx.GetContext(ctx, &row, query, eventID, sheetID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrNotReserved
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// MarkCanceled は予約を CANCELED に更新する。更新対象は canceled_at のみ
func (r *ReservationRepository) MarkCanceled(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("トランザクションが不正です")
	}
	query := `UPDATE reservations SET canceled_at = $1 WHERE id = $2 AND canceled_at IS NULL`
	result, err := sqlxTx.ExecContext(ctx, query, res.CanceledAt, res.ID)
	if err != nil {
		return fmt.Errorf("予約キャンセルに失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return reservation.ErrNotReserved
	}
	return nil
}

func (r *ReservationRepository) CountActiveInRange(ctx context.Context, eventID int64, lo, hi int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM reservations WHERE event_id = $1 AND canceled_at IS NULL AND sheet_id BETWEEN $2 AND $3`
	if err := r.db.GetContext(ctx, &count, query, eventID, lo, hi); err != nil {
		return 0, fmt.Errorf("予約数取得に失敗: %w", err)
	}
	return count, nil
}

func (r *ReservationRepository) ListActiveByEvent(ctx context.Context, eventID int64) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT id, event_id, sheet_id, user_id, reserved_at, canceled_at FROM reservations WHERE event_id = $1 AND canceled_at IS NULL`
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	result := make([]*reservation.Reservation, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

// ListRecentByUser はキャンセル日時（未キャンセルなら予約日時）の降順で返す
func (r *ReservationRepository) ListRecentByUser(ctx context.Context, userID int64, limit int) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT id, event_id, sheet_id, user_id, reserved_at, canceled_at FROM reservations WHERE user_id = $1 ORDER BY COALESCE(canceled_at, reserved_at) DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("予約履歴取得に失敗: %w", err)
	}
	result := make([]*reservation.Reservation, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

func (r *ReservationRepository) SumActiveAmountByUser(ctx context.Context, userID int64) (int, error) {
	var total int
	query := `
		SELECT COALESCE(SUM(e.price + s.price_delta), 0)
		FROM reservations r
		INNER JOIN sheets s ON s.id = r.sheet_id
		INNER JOIN events e ON e.id = r.event_id
		WHERE r.user_id = $1 AND r.canceled_at IS NULL
	`
	if err := r.db.GetContext(ctx, &total, query, userID); err != nil {
		return 0, fmt.Errorf("購入金額合計の取得に失敗: %w", err)
	}
	return total, nil
}

const salesQuery = `
	SELECT
		r.id AS reservation_id,
		e.id AS event_id,
		s."rank" AS rank,
		s.num AS num,
		e.price + s.price_delta AS price,
		r.user_id AS user_id,
		r.reserved_at AS sold_at,
		r.canceled_at AS canceled_at
	FROM reservations r
	INNER JOIN sheets s ON s.id = r.sheet_id
	INNER JOIN events e ON e.id = r.event_id
`

func (r *ReservationRepository) SalesByEvent(ctx context.Context, eventID int64) ([]*reservation.SalesRecord, error) {
	var rows []salesRow
	query := salesQuery + ` WHERE r.event_id = $1 ORDER BY r.reserved_at ASC`
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, fmt.Errorf("販売実績取得に失敗: %w", err)
	}
	records := make([]*reservation.SalesRecord, len(rows))
	for i, row := range rows {
		records[i] = row.toRecord()
	}
	return records, nil
}

func (r *ReservationRepository) SalesAll(ctx context.Context) ([]*reservation.SalesRecord, error) {
	var rows []salesRow
	query := salesQuery + ` ORDER BY r.reserved_at ASC`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("販売実績取得に失敗: %w", err)
	}
	records := make([]*reservation.SalesRecord, len(rows))
	for i, row := range rows {
		records[i] = row.toRecord()
	}
	return records, nil
}

var _ reservation.Repository = (*ReservationRepository)(nil)
