package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-restaurant-seating/internal/domain/apperr"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/reservation"
	redisinfra "github.com/sanosuguru/go-restaurant-seating/internal/infrastructure/redis"
	"github.com/sanosuguru/go-restaurant-seating/internal/pkg/logger"
	"github.com/sanosuguru/go-restaurant-seating/internal/pkg/metrics"
)

// ErrTableBusy は卓ロックを待ちきれなかった
var ErrTableBusy = apperr.Conflict("table_busy", "The table is being updated by another request. Please retry.")

// TableLocker は卓単位の分散ロック
type TableLocker interface {
	LockTable(ctx context.Context, tableID int64) (release func(), err error)
}

// ReservationCache は日付別予約一覧のキャッシュ
// 一覧は Version の世代ごとに保存され、InvalidateDay で世代が進む
type ReservationCache interface {
	Version(ctx context.Context, date string) (int64, error)
	GetDay(ctx context.Context, date string, version int64) ([]*reservation.Reservation, error)
	SetDay(ctx context.Context, date string, version int64, list []*reservation.Reservation) error
	InvalidateDay(ctx context.Context, date string) error
}

// EventPublisher はコミット後のイベントを外部へ送る
type EventPublisher interface {
	Publish(ctx context.Context, ev reservation.Event) error
}

// Option はサービスの任意の依存を設定する
type Option func(*collaborators)

// WithLocker は卓ロックを設定する
func WithLocker(l TableLocker) Option { return func(c *collaborators) { c.locker = l } }

// WithCache は予約一覧キャッシュを設定する
func WithCache(rc ReservationCache) Option { return func(c *collaborators) { c.cache = rc } }

// WithPublisher はイベント送信先を設定する
func WithPublisher(p EventPublisher) Option { return func(c *collaborators) { c.publisher = p } }

// WithMetrics はメトリクスを設定する
func WithMetrics(m *metrics.Metrics) Option { return func(c *collaborators) { c.metrics = m } }

// collaborators は各サービスが共有する任意の依存
// いずれも nil なら何もしない
type collaborators struct {
	locker    TableLocker
	cache     ReservationCache
	publisher EventPublisher
	metrics   *metrics.Metrics
}

func newCollaborators(opts []Option) collaborators {
	var c collaborators
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// lockTable は卓ロックを取得する
// Redis 障害時はロックなしで続行する（整合性はトランザクションで担保される）
func (c *collaborators) lockTable(ctx context.Context, tableID int64) (func(), error) {
	noop := func() {}
	if c.locker == nil {
		return noop, nil
	}
	started := time.Now()
	release, err := c.locker.LockTable(ctx, tableID)
	c.metrics.ObserveLock(started, err)
	if err == nil {
		return release, nil
	}
	if errors.Is(err, redisinfra.ErrLockNotAcquired) {
		return nil, ErrTableBusy.WithMessage("Table %d is being updated by another request. Please retry.", tableID)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	logger.Warn("卓ロックを取得できないためロックなしで続行", zap.Int64("table_id", tableID), zap.Error(err))
	return noop, nil
}

// invalidateDays は日付別キャッシュを破棄する。失敗はログのみ
func (c *collaborators) invalidateDays(ctx context.Context, dates ...string) {
	if c.cache == nil {
		return
	}
	seen := make(map[string]bool, len(dates))
	for _, d := range dates {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		if err := c.cache.InvalidateDay(ctx, d); err != nil {
			logger.Warn("予約一覧キャッシュの無効化に失敗", zap.String("date", d), zap.Error(err))
		}
	}
}

// publish はイベントを送信する。失敗はログのみ
func (c *collaborators) publish(ctx context.Context, events ...reservation.Event) {
	if c.publisher == nil {
		return
	}
	for _, ev := range events {
		if err := c.publisher.Publish(ctx, ev); err != nil {
			logger.Warn("イベント送信に失敗",
				zap.String("type", string(ev.Type)),
				zap.Int64("reservation_id", ev.ReservationID),
				zap.Error(err))
		}
	}
}
