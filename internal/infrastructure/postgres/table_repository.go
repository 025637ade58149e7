package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-restaurant-seating/internal/domain/table"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/transaction"
)

const tableColumns = `table_id, table_name, capacity, reservation_id, created_at, updated_at`

// pgUniqueViolation は一意制約違反の SQLSTATE
const pgUniqueViolation = "23505"

type tableRow struct {
	ID            int64         `db:"table_id"`
	Name          string        `db:"table_name"`
	Capacity      int           `db:"capacity"`
	ReservationID sql.NullInt64 `db:"reservation_id"`
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
}

func (r *tableRow) toEntity() *table.Table {
	t := &table.Table{
		ID: r.ID, Name: r.Name, Capacity: r.Capacity,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
	if r.ReservationID.Valid {
		id := r.ReservationID.Int64
		t.ReservationID = &id
	}
	return t
}

type TableRepository struct{ db *sqlx.DB }

func NewTableRepository(db *sqlx.DB) *TableRepository { return &TableRepository{db: db} }

func (r *TableRepository) Create(ctx context.Context, tx transaction.Tx, t *table.Table) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	query := `INSERT INTO tables (table_name, capacity, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING table_id`
	if err := sqlTx.QueryRowContext(ctx, query, t.Name, t.Capacity, t.CreatedAt, t.UpdatedAt).Scan(&t.ID); err != nil {
		return fmt.Errorf("卓作成に失敗: %w", err)
	}
	return nil
}

func (r *TableRepository) GetByID(ctx context.Context, id int64) (*table.Table, error) {
	var row tableRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+tableColumns+` FROM tables WHERE table_id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, table.NotFound(id)
		}
		return nil, fmt.Errorf("卓取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// GetByIDForUpdate は行ロックを取得してから卓を読む
func (r *TableRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*table.Table, error) {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	var row tableRow
	if err := sqlTx.GetContext(ctx, &row, `SELECT `+tableColumns+` FROM tables WHERE table_id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, table.NotFound(id)
		}
		return nil, fmt.Errorf("卓のロック取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *TableRepository) GetByReservationIDForUpdate(ctx context.Context, tx transaction.Tx, reservationID int64) (*table.Table, error) {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	var row tableRow
	if err := sqlTx.GetContext(ctx, &row, `SELECT `+tableColumns+` FROM tables WHERE reservation_id = $1 FOR UPDATE`, reservationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, table.ErrTableNotFound.WithMessage("No table is seated with reservation %d.", reservationID)
		}
		return nil, fmt.Errorf("着席中の卓の取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *TableRepository) List(ctx context.Context) ([]*table.Table, error) {
	var rows []tableRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+tableColumns+` FROM tables ORDER BY table_name, table_id`); err != nil {
		return nil, fmt.Errorf("卓一覧取得に失敗: %w", err)
	}
	tables := make([]*table.Table, len(rows))
	for i := range rows {
		tables[i] = rows[i].toEntity()
	}
	return tables, nil
}

func (r *TableRepository) Update(ctx context.Context, tx transaction.Tx, t *table.Table) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	result, err := sqlTx.ExecContext(ctx,
		`UPDATE tables SET table_name = $1, capacity = $2, updated_at = NOW() WHERE table_id = $3`,
		t.Name, t.Capacity, t.ID)
	if err != nil {
		return fmt.Errorf("卓更新に失敗: %w", err)
	}
	return expectOne(ctx, sqlTx, result, t.ID, table.NotFound(t.ID))
}

// Occupy は空いている卓にのみ予約を紐付ける
// 既に埋まっていれば Conflict を返す
func (r *TableRepository) Occupy(ctx context.Context, tx transaction.Tx, tableID, reservationID int64) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	result, err := sqlTx.ExecContext(ctx,
		`UPDATE tables SET reservation_id = $1, updated_at = NOW() WHERE table_id = $2 AND reservation_id IS NULL`,
		reservationID, tableID)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return table.ErrTableOccupied.
				WithMessage("Reservation %d is already seated at another table.", reservationID).
				AsConflict()
		}
		return fmt.Errorf("着席の書き込みに失敗: %w", err)
	}
	return expectOne(ctx, sqlTx, result, tableID, table.Occupied(tableID).AsConflict())
}

// Release は指定予約が着席している卓のみ空ける
func (r *TableRepository) Release(ctx context.Context, tx transaction.Tx, tableID, reservationID int64) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	result, err := sqlTx.ExecContext(ctx,
		`UPDATE tables SET reservation_id = NULL, updated_at = NOW() WHERE table_id = $1 AND reservation_id = $2`,
		tableID, reservationID)
	if err != nil {
		return fmt.Errorf("退席の書き込みに失敗: %w", err)
	}
	return expectOne(ctx, sqlTx, result, tableID, table.NotOccupied(tableID).AsConflict())
}

// Delete は空いている卓のみ削除する
func (r *TableRepository) Delete(ctx context.Context, tx transaction.Tx, id int64) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	result, err := sqlTx.ExecContext(ctx, `DELETE FROM tables WHERE table_id = $1 AND reservation_id IS NULL`, id)
	if err != nil {
		return fmt.Errorf("卓削除に失敗: %w", err)
	}
	return expectOne(ctx, sqlTx, result, id, table.Occupied(id).AsConflict())
}

// expectOne は1行更新されたかを確認する
// 0行なら卓の有無で NotFound と conflict を区別する
func expectOne(ctx context.Context, sqlTx *sqlx.Tx, result sql.Result, id int64, conflict error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗: %w", err)
	}
	if rows > 0 {
		return nil
	}
	var exists bool
	if err := sqlTx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM tables WHERE table_id = $1)`, id); err != nil {
		return fmt.Errorf("卓の存在確認に失敗: %w", err)
	}
	if !exists {
		return table.NotFound(id)
	}
	return conflict
}

var _ table.Repository = (*TableRepository)(nil)
