package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-restaurant-seating/internal/pkg/logger"
)

// NoShowCanceller は来店しなかった予約をキャンセルするインターフェース
type NoShowCanceller interface {
	CancelNoShows(ctx context.Context, grace time.Duration) (int, error)
}

// NoShowSweeper は開始時刻を grace 以上過ぎた booked の予約を定期的にキャンセルする
type NoShowSweeper struct {
	reservationService NoShowCanceller
	interval           time.Duration
	grace              time.Duration
	stopOnce           sync.Once
	stopCh             chan struct{}
	doneCh             chan struct{}
}

func NewNoShowSweeper(rs NoShowCanceller, interval, grace time.Duration) *NoShowSweeper {
	return &NoShowSweeper{
		reservationService: rs,
		interval:           interval,
		grace:              grace,
		stopCh:             make(chan struct{}),
		doneCh:             make(chan struct{}),
	}
}

// Start はスイーパーを開始する。ctx のキャンセルか Stop で終了する
func (s *NoShowSweeper) Start(ctx context.Context) {
	logger.Info("ノーショースイーパー開始",
		zap.Duration("interval", s.interval),
		zap.Duration("grace", s.grace),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer close(s.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("ノーショースイーパー停止（コンテキストキャンセル）")
			return
		case <-s.stopCh:
			logger.Info("ノーショースイーパー停止（シグナル受信）")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Stop はスイーパーを停止し、実行中の処理が終わるまで待つ
// Start 済みであること
func (s *NoShowSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.doneCh
}

func (s *NoShowSweeper) sweep(ctx context.Context) {
	log := logger.Get()
	log.Debug("ノーショーの確認開始")

	count, err := s.reservationService.CancelNoShows(ctx, s.grace)
	if err != nil {
		// 一部失敗しても処理済みの件数は返る
		log.Error("ノーショーのキャンセルに失敗", zap.Int("cancelled", count), zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("ノーショーをキャンセル", zap.Int("count", count))
	} else {
		log.Debug("ノーショーなし")
	}
}
