package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/event"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/rank"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/reservation"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/transaction"
)

// fakeStore はテスト用のインメモリストア
// 各リポジトリ操作はストアのミューテックスで直列化され、トランザクション内の
// 書き込みはUNDOジャーナルに記録される。Rollback でジャーナルを逆順に適用する
type fakeStore struct {
	mu           sync.Mutex
	events       map[int64]*event.Event
	nextEventID  int64
	inventory    map[int64]map[int]bool // eventID -> sheetID -> reserved
	reservations map[int64]*reservation.Reservation
	nextResID    int64

	beginErr  error
	commitErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:       make(map[int64]*event.Event),
		inventory:    make(map[int64]map[int]bool),
		reservations: make(map[int64]*reservation.Reservation),
	}
}

// addEvent はイベントとインベントリをまとめてシードするテストヘルパー
func (s *fakeStore) addEvent(title string, price int, public, closed bool) *event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextEventID++
	e := &event.Event{
		ID:        s.nextEventID,
		Title:     title,
		Price:     price,
		Public:    public,
		Closed:    closed,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.events[e.ID] = e

	entries := make(map[int]bool, rank.TotalSheets)
	for id := 1; id <= rank.TotalSheets; id++ {
		entries[id] = false
	}
	s.inventory[e.ID] = entries
	return copyEvent(e)
}

func (s *fakeStore) reservedCount(eventID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, reserved := range s.inventory[eventID] {
		if reserved {
			count++
		}
	}
	return count
}

func (s *fakeStore) activeReservations(eventID int64) []*reservation.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	var active []*reservation.Reservation
	for _, r := range s.reservations {
		if r.EventID == eventID && r.IsActive() {
			active = append(active, copyReservation(r))
		}
	}
	return active
}

func copyEvent(e *event.Event) *event.Event {
	c := *e
	return &c
}

func copyReservation(r *reservation.Reservation) *reservation.Reservation {
	c := *r
	if r.CanceledAt != nil {
		t := *r.CanceledAt
		c.CanceledAt = &t
	}
	return &c
}

// fakeTx はUNDOジャーナル方式のトランザクション
type fakeTx struct {
	store *fakeStore
	undo  []func()
	done  bool
}

func (t *fakeTx) Commit() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.store.commitErr != nil {
		return t.store.commitErr
	}
	t.done = true
	t.undo = nil
	return nil
}

func (t *fakeTx) Rollback() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.done {
		return nil
	}
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.done = true
	return nil
}

type fakeTxManager struct {
	store *fakeStore
}

func (m *fakeTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	if m.store.beginErr != nil {
		return nil, m.store.beginErr
	}
	return &fakeTx{store: m.store}, nil
}

func journal(tx transaction.Tx, undo func()) {
	ft := tx.(*fakeTx)
	ft.undo = append(ft.undo, undo)
}

// fakeEventRepo は event.Repository のインメモリ実装
type fakeEventRepo struct {
	store *fakeStore
}

func (r *fakeEventRepo) Create(ctx context.Context, tx transaction.Tx, e *event.Event) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextEventID++
	e.ID = s.nextEventID
	s.events[e.ID] = copyEvent(e)

	id := e.ID
	journal(tx, func() { delete(s.events, id) })
	return nil
}

func (r *fakeEventRepo) GetByID(ctx context.Context, id int64) (*event.Event, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return nil, event.ErrEventNotFound
	}
	return copyEvent(e), nil
}

func (r *fakeEventRepo) List(ctx context.Context) ([]*event.Event, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]*event.Event, 0, len(s.events))
	for _, e := range s.events {
		events = append(events, copyEvent(e))
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

func (r *fakeEventRepo) ListPublic(ctx context.Context) ([]*event.Event, error) {
	all, _ := r.List(ctx)
	public := make([]*event.Event, 0, len(all))
	for _, e := range all {
		if e.Public {
			public = append(public, e)
		}
	}
	return public, nil
}

func (r *fakeEventRepo) Update(ctx context.Context, e *event.Event) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[e.ID]; !ok {
		return event.ErrEventNotFound
	}
	s.events[e.ID] = copyEvent(e)
	return nil
}

// fakeInventoryRepo は inventory.Repository のインメモリ実装
// TryReserve はストアのミューテックス下で検査と更新を行うため CAS として機能する
type fakeInventoryRepo struct {
	store *fakeStore
}

func (r *fakeInventoryRepo) Seed(ctx context.Context, tx transaction.Tx, eventID int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make(map[int]bool, rank.TotalSheets)
	for id := 1; id <= rank.TotalSheets; id++ {
		entries[id] = false
	}
	s.inventory[eventID] = entries

	journal(tx, func() { delete(s.inventory, eventID) })
	return nil
}

func (r *fakeInventoryRepo) FreeSheetIDs(ctx context.Context, eventID int64, lo, hi int) ([]int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var free []int
	for id := lo; id <= hi; id++ {
		if reserved, ok := s.inventory[eventID][id]; ok && !reserved {
			free = append(free, id)
		}
	}
	return free, nil
}

func (r *fakeInventoryRepo) TryReserve(ctx context.Context, tx transaction.Tx, eventID int64, sheetID int) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inventory[eventID][sheetID] {
		return false, nil
	}
	s.inventory[eventID][sheetID] = true

	journal(tx, func() { s.inventory[eventID][sheetID] = false })
	return true, nil
}

func (r *fakeInventoryRepo) Release(ctx context.Context, tx transaction.Tx, eventID int64, sheetID int) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inventory[eventID][sheetID] {
		return nil // 冪等
	}
	s.inventory[eventID][sheetID] = false

	journal(tx, func() { s.inventory[eventID][sheetID] = true })
	return nil
}

func (r *fakeInventoryRepo) CountFree(ctx context.Context, eventID int64, lo, hi int) (int, error) {
	free, err := r.FreeSheetIDs(ctx, eventID, lo, hi)
	if err != nil {
		return 0, err
	}
	return len(free), nil
}

// fakeReservationRepo は reservation.Repository のインメモリ実装
type fakeReservationRepo struct {
	store *fakeStore
}

func (r *fakeReservationRepo) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextResID++
	res.ID = s.nextResID
	s.reservations[res.ID] = copyReservation(res)

	id := res.ID
	journal(tx, func() { delete(s.reservations, id) })
	return nil
}

func (r *fakeReservationRepo) GetActiveBySheet(ctx context.Context, tx transaction.Tx, eventID int64, sheetID int) (*reservation.Reservation, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, res := range s.reservations {
		if res.EventID == eventID && res.SheetID == sheetID && res.IsActive() {
			return copyReservation(res), nil
		}
	}
	return nil, reservation.ErrNotReserved
}

func (r *fakeReservationRepo) MarkCanceled(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.reservations[res.ID]
	if !ok || !stored.IsActive() {
		return reservation.ErrNotReserved
	}
	canceledAt := *res.CanceledAt
	stored.CanceledAt = &canceledAt

	journal(tx, func() { stored.CanceledAt = nil })
	return nil
}

func (r *fakeReservationRepo) CountActiveInRange(ctx context.Context, eventID int64, lo, hi int) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, res := range s.reservations {
		if res.EventID == eventID && res.IsActive() && res.SheetID >= lo && res.SheetID <= hi {
			count++
		}
	}
	return count, nil
}

func (r *fakeReservationRepo) ListActiveByEvent(ctx context.Context, eventID int64) ([]*reservation.Reservation, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []*reservation.Reservation
	for _, res := range s.reservations {
		if res.EventID == eventID && res.IsActive() {
			active = append(active, copyReservation(res))
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].SheetID < active[j].SheetID })
	return active, nil
}

func (r *fakeReservationRepo) ListRecentByUser(ctx context.Context, userID int64, limit int) ([]*reservation.Reservation, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var mine []*reservation.Reservation
	for _, res := range s.reservations {
		if res.UserID == userID {
			mine = append(mine, copyReservation(res))
		}
	}
	sortKey := func(res *reservation.Reservation) time.Time {
		if res.CanceledAt != nil {
			return *res.CanceledAt
		}
		return res.ReservedAt
	}
	sort.Slice(mine, func(i, j int) bool { return sortKey(mine[i]).After(sortKey(mine[j])) })
	if len(mine) > limit {
		mine = mine[:limit]
	}
	return mine, nil
}

func (r *fakeReservationRepo) SumActiveAmountByUser(ctx context.Context, userID int64) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, res := range s.reservations {
		if res.UserID != userID || !res.IsActive() {
			continue
		}
		price, err := salePrice(s, res)
		if err != nil {
			return 0, err
		}
		total += price
	}
	return total, nil
}

func (r *fakeReservationRepo) SalesByEvent(ctx context.Context, eventID int64) ([]*reservation.SalesRecord, error) {
	return r.sales(func(res *reservation.Reservation) bool { return res.EventID == eventID })
}

func (r *fakeReservationRepo) SalesAll(ctx context.Context) ([]*reservation.SalesRecord, error) {
	return r.sales(func(res *reservation.Reservation) bool { return true })
}

func (r *fakeReservationRepo) sales(match func(*reservation.Reservation) bool) ([]*reservation.SalesRecord, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []*reservation.SalesRecord
	for _, res := range s.reservations {
		if !match(res) {
			continue
		}
		sheet, err := rank.SheetByID(res.SheetID)
		if err != nil {
			return nil, err
		}
		price, err := salePrice(s, res)
		if err != nil {
			return nil, err
		}
		rec := &reservation.SalesRecord{
			ReservationID: res.ID,
			EventID:       res.EventID,
			Rank:          string(sheet.Rank),
			Num:           sheet.Num,
			Price:         price,
			UserID:        res.UserID,
			SoldAt:        res.ReservedAt,
		}
		if res.CanceledAt != nil {
			t := *res.CanceledAt
			rec.CanceledAt = &t
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].SoldAt.Before(records[j].SoldAt) })
	return records, nil
}

func salePrice(s *fakeStore, res *reservation.Reservation) (int, error) {
	e, ok := s.events[res.EventID]
	if !ok {
		return 0, errors.New("event not found")
	}
	sheet, err := rank.SheetByID(res.SheetID)
	if err != nil {
		return 0, err
	}
	def, err := rank.Get(sheet.Rank)
	if err != nil {
		return 0, err
	}
	return def.Price(e.Price), nil
}

// newTestServices はフェイク一式を組んだサービス群を返す
func newTestServices(store *fakeStore) (*AllocationService, *EventService, *ReportService) {
	tm := &fakeTxManager{store: store}
	er := &fakeEventRepo{store: store}
	ir := &fakeInventoryRepo{store: store}
	rr := &fakeReservationRepo{store: store}

	allocation := NewAllocationService(tm, er, ir, rr, nil)
	events := NewEventService(tm, er, ir)
	reports := NewReportService(er, rr, nil, nil, 0, nil)
	return allocation, events, reports
}
