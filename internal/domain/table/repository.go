package table

import (
	"context"

	"github.com/sanosuguru/go-restaurant-seating/internal/domain/transaction"
)

// Repository は卓リポジトリのインターフェース
type Repository interface {
	// Create は新しい卓を作成し ID を設定する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, t *Table) error
	// GetByID はIDから卓を取得する
	GetByID(ctx context.Context, id int64) (*Table, error)
	// GetByIDForUpdate はトランザクション内で行ロックを取って卓を取得する
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*Table, error)
	// GetByReservationIDForUpdate は予約が着席している卓を行ロック付きで取得する
	GetByReservationIDForUpdate(ctx context.Context, tx transaction.Tx, reservationID int64) (*Table, error)
	// List は全卓を卓名順に取得する
	List(ctx context.Context) ([]*Table, error)
	// Update は卓名と収容人数を更新する（トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, t *Table) error
	// Occupy は空いている卓にのみ予約を紐付ける（トランザクション必須）
	Occupy(ctx context.Context, tx transaction.Tx, tableID, reservationID int64) error
	// Release は指定予約が着席している卓のみ空ける（トランザクション必須）
	Release(ctx context.Context, tx transaction.Tx, tableID, reservationID int64) error
	// Delete は空いている卓のみ削除する（トランザクション必須）
	Delete(ctx context.Context, tx transaction.Tx, id int64) error
}
