package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-restaurant-seating/internal/domain/reservation"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/transaction"
)

// 日付と時刻は文字列で読み出し、ドメインの表現に揃える
const reservationColumns = `reservation_id, first_name, last_name, mobile_number,
	to_char(reservation_date, 'YYYY-MM-DD') AS reservation_date,
	to_char(reservation_time, 'HH24:MI') AS reservation_time,
	people, status, created_at, updated_at`

type reservationRow struct {
	ID              int64     `db:"reservation_id"`
	FirstName       string    `db:"first_name"`
	LastName        string    `db:"last_name"`
	MobileNumber    string    `db:"mobile_number"`
	ReservationDate string    `db:"reservation_date"`
	ReservationTime string    `db:"reservation_time"`
	People          int       `db:"people"`
	Status          string    `db:"status"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r *reservationRow) toEntity() *reservation.Reservation {
	return &reservation.Reservation{
		ID: r.ID, FirstName: r.FirstName, LastName: r.LastName,
		MobileNumber: r.MobileNumber, Date: r.ReservationDate, Time: r.ReservationTime,
		People: r.People, Status: reservation.Status(r.Status),
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func toReservations(rows []reservationRow) []*reservation.Reservation {
	result := make([]*reservation.Reservation, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result
}

type ReservationRepository struct{ db *sqlx.DB }

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	query := `INSERT INTO reservations (first_name, last_name, mobile_number, reservation_date, reservation_time, people, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING reservation_id`
	if err := sqlTx.QueryRowContext(ctx, query,
		res.FirstName, res.LastName, res.MobileNumber, res.Date, res.Time, res.People, string(res.Status), res.CreatedAt, res.UpdatedAt,
	).Scan(&res.ID); err != nil {
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*reservation.Reservation, error) {
	var row reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE reservation_id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.NotFound(id)
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// GetByIDForUpdate は行ロックを取得してから予約を読む
func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*reservation.Reservation, error) {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	var row reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE reservation_id = $1 FOR UPDATE`
	if err := sqlTx.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.NotFound(id)
		}
		return nil, fmt.Errorf("予約のロック取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *ReservationRepository) Update(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	query := `UPDATE reservations
		SET first_name = $1, last_name = $2, mobile_number = $3, reservation_date = $4,
		    reservation_time = $5, people = $6, updated_at = $7
		WHERE reservation_id = $8`
	result, err := sqlTx.ExecContext(ctx, query,
		res.FirstName, res.LastName, res.MobileNumber, res.Date, res.Time, res.People, res.UpdatedAt, res.ID,
	)
	if err != nil {
		return fmt.Errorf("予約更新に失敗: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗: %w", err)
	}
	if rows == 0 {
		return reservation.NotFound(res.ID)
	}
	return nil
}

// UpdateStatus は現在の状態が from の場合のみ to に更新する
func (r *ReservationRepository) UpdateStatus(ctx context.Context, tx transaction.Tx, id int64, from, to reservation.Status) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	query := `UPDATE reservations SET status = $1, updated_at = NOW() WHERE reservation_id = $2 AND status = $3`
	result, err := sqlTx.ExecContext(ctx, query, string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("予約状態の更新に失敗: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var current string
	if err := sqlTx.GetContext(ctx, &current, `SELECT status FROM reservations WHERE reservation_id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return reservation.NotFound(id)
		}
		return fmt.Errorf("予約状態の確認に失敗: %w", err)
	}
	return reservation.ErrTransitionNotAllowed.
		WithMessage("Reservation %d is %s, not %s.", id, current, from).
		AsConflict()
}

func (r *ReservationRepository) List(ctx context.Context) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations ORDER BY reservation_date, reservation_time, reservation_id`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	return toReservations(rows), nil
}

// ListByDate は指定日の booked / seated の予約を時刻順に返す
func (r *ReservationRepository) ListByDate(ctx context.Context, date string) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE reservation_date = $1 AND status IN ('booked', 'seated')
		ORDER BY reservation_time, reservation_id`
	if err := r.db.SelectContext(ctx, &rows, query, date); err != nil {
		return nil, fmt.Errorf("日付別予約一覧取得に失敗: %w", err)
	}
	return toReservations(rows), nil
}

// SearchByPhone は数字以外を除いた電話番号の部分一致で検索する
func (r *ReservationRepository) SearchByPhone(ctx context.Context, digits string) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE regexp_replace(mobile_number, '[^0-9]', '', 'g') LIKE '%' || $1 || '%'
		ORDER BY reservation_date, reservation_time, reservation_id`
	if err := r.db.SelectContext(ctx, &rows, query, reservation.NormalizePhone(digits)); err != nil {
		return nil, fmt.Errorf("電話番号検索に失敗: %w", err)
	}
	return toReservations(rows), nil
}

func (r *ReservationRepository) ListBookedOnOrBefore(ctx context.Context, date string) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE status = 'booked' AND reservation_date <= $1
		ORDER BY reservation_date, reservation_time, reservation_id`
	if err := r.db.SelectContext(ctx, &rows, query, date); err != nil {
		return nil, fmt.Errorf("未着席予約の取得に失敗: %w", err)
	}
	return toReservations(rows), nil
}

var _ reservation.Repository = (*ReservationRepository)(nil)
