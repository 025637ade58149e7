package table

import (
	"encoding/json"
	"math"
	"unicode/utf8"

	"github.com/sanosuguru/go-restaurant-seating/internal/pkg/schema"
)

// Payload はリクエストから受け取った未検証の卓データ
type Payload struct {
	TableName string           `json:"table_name" validate:"required"`
	Capacity  *json.RawMessage `json:"capacity" validate:"required"`
}

// Validate は卓データを検証し、最初の失敗で止まる
func Validate(p *Payload) (Details, error) {
	if p == nil {
		return Details{}, ErrMissingFields
	}
	field, err := schema.FirstMissing(p)
	if err != nil {
		return Details{}, err
	}
	if field != "" {
		return Details{}, ErrMissingFields
	}
	if utf8.RuneCountInString(p.TableName) < 2 {
		return Details{}, ErrNameTooShort
	}

	var capacity float64
	if err := json.Unmarshal(*p.Capacity, &capacity); err != nil {
		return Details{}, ErrCapacityNotNumber
	}
	if capacity != math.Trunc(capacity) || math.IsInf(capacity, 0) || capacity > math.MaxInt32 {
		return Details{}, ErrCapacityNotNumber
	}
	if capacity < 1 {
		return Details{}, ErrCapacityTooSmall
	}
	return Details{Name: p.TableName, Capacity: int(capacity)}, nil
}
