package api

import (
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/apperr"
	"github.com/sanosuguru/go-restaurant-seating/internal/pkg/schema"
)

// リクエスト形式のエラー
var (
	ErrMissingData  = apperr.Validation("missing_data", "Body must have data property")
	ErrMissingField = apperr.Validation("missing_field", "A required property is missing.")
	ErrInvalidBody  = apperr.Validation("invalid_body", "The request body must be valid JSON.")
	ErrInvalidID    = apperr.Validation("invalid_id", "The id must be a positive integer.")
)

// CustomValidator はEcho用のカスタムバリデーター
// validate タグは pkg/schema の共有インスタンスで検査する
type CustomValidator struct{}

func NewValidator() *CustomValidator {
	return &CustomValidator{}
}

// Validate は required を満たさない最初の項目を missing_field として返す
func (cv *CustomValidator) Validate(i interface{}) error {
	field, err := schema.FirstMissing(i)
	if err != nil {
		return err
	}
	if field != "" {
		return ErrMissingField.WithMessage("A '%s' property is required.", field)
	}
	return nil
}
