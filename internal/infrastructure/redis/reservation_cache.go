package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-restaurant-seating/internal/domain/reservation"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// cachedReservation はキャッシュに保存する予約の形
type cachedReservation struct {
	ID           int64     `json:"reservation_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	MobileNumber string    `json:"mobile_number"`
	Date         string    `json:"reservation_date"`
	Time         string    `json:"reservation_time"`
	People       int       `json:"people"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ReservationCache は日付別の予約一覧をキャッシュする
// 一覧は日付ごとの世代番号付きのキーに保存する。無効化は世代を進めるだけなので、
// 無効化より前に読んだ一覧を後から SetDay しても新しい世代からは見えない
type ReservationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReservationCache は新しいReservationCacheインスタンスを作成する
func NewReservationCache(client *redis.Client, ttl time.Duration) *ReservationCache {
	return &ReservationCache{client: client, ttl: ttl}
}

// Version は日付の現在の世代を返す。一度も無効化されていなければ 0
func (c *ReservationCache) Version(ctx context.Context, date string) (int64, error) {
	v, err := c.client.Get(ctx, c.versionKey(date)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("キャッシュ世代の取得に失敗: %w", err)
	}
	return v, nil
}

// GetDay は指定世代の予約一覧をキャッシュから取得する
func (c *ReservationCache) GetDay(ctx context.Context, date string, version int64) ([]*reservation.Reservation, error) {
	raw, err := c.client.Get(ctx, c.dayKey(date, version)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}

	var cached []cachedReservation
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, fmt.Errorf("キャッシュの復元に失敗: %w", err)
	}
	list := make([]*reservation.Reservation, len(cached))
	for i, r := range cached {
		list[i] = &reservation.Reservation{
			ID: r.ID, FirstName: r.FirstName, LastName: r.LastName,
			MobileNumber: r.MobileNumber, Date: r.Date, Time: r.Time,
			People: r.People, Status: reservation.Status(r.Status),
			CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
		}
	}
	return list, nil
}

// SetDay は Version で得た世代の予約一覧をキャッシュに保存する
func (c *ReservationCache) SetDay(ctx context.Context, date string, version int64, list []*reservation.Reservation) error {
	cached := make([]cachedReservation, len(list))
	for i, r := range list {
		cached[i] = cachedReservation{
			ID: r.ID, FirstName: r.FirstName, LastName: r.LastName,
			MobileNumber: r.MobileNumber, Date: r.Date, Time: r.Time,
			People: r.People, Status: string(r.Status),
			CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
		}
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("キャッシュのシリアライズに失敗: %w", err)
	}
	if err := c.client.Set(ctx, c.dayKey(date, version), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// InvalidateDay は日付の世代を進め、それまでの一覧を読まれなくする
// 世代キーは一覧より十分長く残し、期限切れで 0 に戻っても古い一覧は既に消えている
func (c *ReservationCache) InvalidateDay(ctx context.Context, date string) error {
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, c.versionKey(date))
	pipe.Expire(ctx, c.versionKey(date), c.ttl+versionRetention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

const versionRetention = 24 * time.Hour

func (c *ReservationCache) versionKey(date string) string {
	return fmt.Sprintf("reservations:day:%s:version", date)
}

func (c *ReservationCache) dayKey(date string, version int64) string {
	return fmt.Sprintf("reservations:day:%s:v%d", date, version)
}
