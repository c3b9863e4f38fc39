package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-sales/internal/pkg/logger"
)

// VacancyRefresher は残席キャッシュを再計算するインターフェース
type VacancyRefresher interface {
	RefreshVacancies(ctx context.Context) (int, error)
}

// VacancyRefreshWorker は残席キャッシュを周期的にリフレッシュするワーカー
// 複数インスタンスで動いても、実際の再計算はロックを取れた1つだけが行う
type VacancyRefreshWorker struct {
	reportService VacancyRefresher
	interval      time.Duration
	stopCh        chan struct{}
	doneCh        chan struct{}
}

// NewVacancyRefreshWorker は新しいリフレッシュワーカーを作成
func NewVacancyRefreshWorker(rs VacancyRefresher, interval time.Duration) *VacancyRefreshWorker {
	return &VacancyRefreshWorker{
		reportService: rs,
		interval:      interval,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start はワーカーを開始
func (w *VacancyRefreshWorker) Start(ctx context.Context) {
	logger.Info("残席キャッシュリフレッシュワーカー開始",
		zap.Duration("interval", w.interval),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("残席キャッシュリフレッシュワーカー停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			logger.Info("残席キャッシュリフレッシュワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

// Stop はワーカーを停止
func (w *VacancyRefreshWorker) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

// refresh は残席キャッシュの再計算を1回実行する
func (w *VacancyRefreshWorker) refresh(ctx context.Context) {
	log := logger.Get()
	log.Debug("残席キャッシュのリフレッシュ開始")

	count, err := w.reportService.RefreshVacancies(ctx)
	if err != nil {
		log.Error("残席キャッシュのリフレッシュ失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("残席キャッシュをリフレッシュ", zap.Int("count", count))
	} else {
		log.Debug("リフレッシュ対象なし（ロック未取得または公開イベントなし）")
	}
}
