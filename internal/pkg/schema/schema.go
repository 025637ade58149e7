// Package schema はタグ付き構造体による入力スキーマ検証を提供する
package schema

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	// エラーのフィールド名を JSON 名で返す
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FirstMissing は required タグを満たさない最初のフィールド名を返す
// 全フィールドが揃っていれば空文字を返す
func FirstMissing(s any) (string, error) {
	err := validate.Struct(s)
	if err == nil {
		return "", nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "", err
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return fe.Field(), nil
		}
	}
	return "", nil
}
