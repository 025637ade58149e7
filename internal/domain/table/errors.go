package table

import "github.com/sanosuguru/go-restaurant-seating/internal/domain/apperr"

// Table ドメインのエラー定義
var (
	ErrMissingFields     = apperr.Validation("missing_field", "The table must include a table_name and capacity.")
	ErrNameTooShort      = apperr.Validation("table_name_too_short", "The table_name must be at least 2 characters long.")
	ErrCapacityNotNumber = apperr.Validation("capacity_not_number", "The table capacity must be a number.")
	ErrCapacityTooSmall  = apperr.Validation("capacity_too_small", "The table capacity must be at least 1.")
	ErrCapacityExceeded  = apperr.Validation("capacity_exceeded", "The table does not have enough capacity.")
	ErrTableOccupied     = apperr.Validation("table_occupied", "The table is occupied.")
	ErrTableNotOccupied  = apperr.Validation("table_not_occupied", "The table is not occupied.")
	ErrTableNotFound     = apperr.NotFound("table_not_found", "Table cannot be found.")
)

// NotFound は ID 入りの ErrTableNotFound を返す
func NotFound(id int64) error {
	return ErrTableNotFound.WithMessage("Table %d cannot be found.", id)
}

// Occupied は ID 入りの ErrTableOccupied を返す
func Occupied(id int64) *apperr.Error {
	return ErrTableOccupied.WithMessage("Table %d is occupied.", id)
}

// NotOccupied は ID 入りの ErrTableNotOccupied を返す
func NotOccupied(id int64) *apperr.Error {
	return ErrTableNotOccupied.WithMessage("Table %d is not occupied.", id)
}

// CapacityExceeded は収容人数超過のエラーを返す
func CapacityExceeded(id int64, capacity, people int) error {
	return ErrCapacityExceeded.WithMessage("Table %d has only capacity for %d not %d people.", id, capacity, people)
}
