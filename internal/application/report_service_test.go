package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-ticket-sales/internal/domain/event"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/rank"
)

func TestReportService_GetEventSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("全席空きのサマリ", func(t *testing.T) {
		store := newFakeStore()
		ev := store.addEvent("ライブ", 5000, true, false)
		_, _, reports := newTestServices(store)

		summary, err := reports.GetEventSummary(ctx, ev.ID)
		require.NoError(t, err)

		assert.Equal(t, rank.TotalSheets, summary.Total)
		assert.Equal(t, rank.TotalSheets, summary.Remains)

		assert.Equal(t, RankVacancy{Total: 50, Remains: 50, Price: 10000}, summary.Ranks[rank.RankS])
		assert.Equal(t, RankVacancy{Total: 150, Remains: 150, Price: 8000}, summary.Ranks[rank.RankA])
		assert.Equal(t, RankVacancy{Total: 300, Remains: 300, Price: 6000}, summary.Ranks[rank.RankB])
		assert.Equal(t, RankVacancy{Total: 500, Remains: 500, Price: 5000}, summary.Ranks[rank.RankC])
	})

	t.Run("予約が残席に反映され、キャンセルで戻る", func(t *testing.T) {
		store := newFakeStore()
		ev := store.addEvent("ライブ", 5000, true, false)
		allocation, _, reports := newTestServices(store)

		out, err := allocation.Reserve(ctx, ReserveInput{EventID: ev.ID, Rank: rank.RankS, UserID: 1})
		require.NoError(t, err)

		summary, err := reports.GetEventSummary(ctx, ev.ID)
		require.NoError(t, err)
		assert.Equal(t, 49, summary.Ranks[rank.RankS].Remains)
		assert.Equal(t, rank.TotalSheets-1, summary.Remains)

		err = allocation.Cancel(ctx, CancelInput{EventID: ev.ID, Rank: out.SheetRank, Num: out.SheetNum, UserID: 1})
		require.NoError(t, err)

		summary, err = reports.GetEventSummary(ctx, ev.ID)
		require.NoError(t, err)
		assert.Equal(t, 50, summary.Ranks[rank.RankS].Remains, "CANCELED 行は残席に影響しない")
	})

	t.Run("存在しないイベントは not_found", func(t *testing.T) {
		store := newFakeStore()
		_, _, reports := newTestServices(store)

		_, err := reports.GetEventSummary(ctx, 999)
		assert.ErrorIs(t, err, event.ErrEventNotFound)
	})
}

func TestReportService_ListSummaries(t *testing.T) {
	ctx := context.Background()

	store := newFakeStore()
	store.addEvent("公開", 1000, true, false)
	store.addEvent("非公開", 1000, false, false)
	_, _, reports := newTestServices(store)

	public, err := reports.ListPublicEventSummaries(ctx)
	require.NoError(t, err)
	assert.Len(t, public, 1)

	all, err := reports.ListEventSummaries(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestReportService_GetEventDetail(t *testing.T) {
	ctx := context.Background()

	store := newFakeStore()
	ev := store.addEvent("ライブ", 5000, true, false)
	allocation, _, reports := newTestServices(store)

	mine, err := allocation.Reserve(ctx, ReserveInput{EventID: ev.ID, Rank: rank.RankS, UserID: 1001})
	require.NoError(t, err)
	other, err := allocation.Reserve(ctx, ReserveInput{EventID: ev.ID, Rank: rank.RankS, UserID: 2002})
	require.NoError(t, err)

	detail, err := reports.GetEventDetail(ctx, ev.ID, 1001)
	require.NoError(t, err)

	sheets := detail.Sheets[rank.RankS]
	require.Len(t, sheets, 50)

	for _, sd := range sheets {
		switch sd.Num {
		case mine.SheetNum:
			assert.True(t, sd.Reserved)
			assert.True(t, sd.Mine)
			require.NotNil(t, sd.ReservedAt)
		case other.SheetNum:
			assert.True(t, sd.Reserved)
			assert.False(t, sd.Mine, "他人の予約に mine が付かない")
		default:
			assert.False(t, sd.Reserved)
			assert.Nil(t, sd.ReservedAt)
		}
	}

	assert.Equal(t, 48, detail.Summary.Ranks[rank.RankS].Remains)

	t.Run("未ログイン閲覧では mine が付かない", func(t *testing.T) {
		detail, err := reports.GetEventDetail(ctx, ev.ID, 0)
		require.NoError(t, err)
		for _, sd := range detail.Sheets[rank.RankS] {
			assert.False(t, sd.Mine)
		}
	})
}

func TestReportService_GetUserAccount(t *testing.T) {
	ctx := context.Background()

	store := newFakeStore()
	ev := store.addEvent("ライブ", 5000, true, false)
	allocation, _, reports := newTestServices(store)

	// 7件予約して1件キャンセル。履歴は直近5件のみ
	var outs []*ReserveOutput
	for i := 0; i < 7; i++ {
		out, err := allocation.Reserve(ctx, ReserveInput{EventID: ev.ID, Rank: rank.RankC, UserID: 42})
		require.NoError(t, err)
		outs = append(outs, out)
	}
	err := allocation.Cancel(ctx, CancelInput{EventID: ev.ID, Rank: outs[0].SheetRank, Num: outs[0].SheetNum, UserID: 42})
	require.NoError(t, err)

	account, err := reports.GetUserAccount(ctx, 42)
	require.NoError(t, err)

	assert.Equal(t, int64(42), account.UserID)
	assert.Len(t, account.RecentReservations, 5)

	// キャンセルした予約が最新として先頭に来る（キャンセル日時でソート）
	first := account.RecentReservations[0]
	assert.Equal(t, outs[0].SheetNum, first.Num)
	assert.NotNil(t, first.CanceledAt)

	// 合計金額は ACTIVE 予約のみ（C席 6件 × 5000円）
	assert.Equal(t, 6*5000, account.TotalPrice)

	require.Len(t, account.RecentEvents, 1)
	assert.Equal(t, ev.ID, account.RecentEvents[0].Event.ID)

	t.Run("予約のないユーザーは空のアカウント", func(t *testing.T) {
		account, err := reports.GetUserAccount(ctx, 777)
		require.NoError(t, err)
		assert.Empty(t, account.RecentReservations)
		assert.Zero(t, account.TotalPrice)
	})
}

func TestReportService_Sales(t *testing.T) {
	ctx := context.Background()

	store := newFakeStore()
	ev1 := store.addEvent("公演1", 5000, true, false)
	ev2 := store.addEvent("公演2", 3000, true, false)
	allocation, _, reports := newTestServices(store)

	out, err := allocation.Reserve(ctx, ReserveInput{EventID: ev1.ID, Rank: rank.RankS, UserID: 1})
	require.NoError(t, err)
	_, err = allocation.Reserve(ctx, ReserveInput{EventID: ev2.ID, Rank: rank.RankA, UserID: 2})
	require.NoError(t, err)

	err = allocation.Cancel(ctx, CancelInput{EventID: ev1.ID, Rank: out.SheetRank, Num: out.SheetNum, UserID: 1})
	require.NoError(t, err)

	t.Run("イベント別の販売実績にはキャンセル済みも含まれる", func(t *testing.T) {
		records, err := reports.SalesByEvent(ctx, ev1.ID)
		require.NoError(t, err)
		require.Len(t, records, 1)

		rec := records[0]
		assert.Equal(t, "S", rec.Rank)
		assert.Equal(t, 10000, rec.Price, "販売価格は基本価格+席種差分")
		assert.NotNil(t, rec.CanceledAt)
	})

	t.Run("全体の販売実績は全イベント分を返す", func(t *testing.T) {
		records, err := reports.SalesAll(ctx)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("存在しないイベントは not_found", func(t *testing.T) {
		_, err := reports.SalesByEvent(ctx, 999)
		assert.ErrorIs(t, err, event.ErrEventNotFound)
	})
}

func TestReportService_RefreshVacancies(t *testing.T) {
	ctx := context.Background()

	t.Run("キャッシュなしでは何もしない", func(t *testing.T) {
		store := newFakeStore()
		store.addEvent("ライブ", 5000, true, false)
		_, _, reports := newTestServices(store)

		count, err := reports.RefreshVacancies(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}
