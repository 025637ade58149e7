package reservation

import (
	"context"

	"github.com/sanosuguru/go-restaurant-seating/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成し ID を設定する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, r *Reservation) error
	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id int64) (*Reservation, error)
	// GetByIDForUpdate はトランザクション内で行ロックを取って予約を取得する
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*Reservation, error)
	// Update は予約の項目を更新する（トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, r *Reservation) error
	// UpdateStatus は状態が from の場合のみ to に更新する（トランザクション必須）
	UpdateStatus(ctx context.Context, tx transaction.Tx, id int64, from, to Status) error
	// List は全予約を日付順に取得する
	List(ctx context.Context) ([]*Reservation, error)
	// ListByDate は指定日の booked/seated の予約を時刻順に取得する
	ListByDate(ctx context.Context, date string) ([]*Reservation, error)
	// SearchByPhone は数字部分が一致する予約を日付順に取得する
	SearchByPhone(ctx context.Context, digits string) ([]*Reservation, error)
	// ListBookedOnOrBefore は指定日以前の booked の予約を取得する
	ListBookedOnOrBefore(ctx context.Context, date string) ([]*Reservation, error)
}
