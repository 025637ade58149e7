package apperr

import (
	"errors"
	"fmt"
)

// Kind はエラーの分類を表す
type Kind int

const (
	// KindValidation はクライアントが修正可能な入力エラー（書き込み前に検出）
	KindValidation Kind = iota + 1
	// KindNotFound は参照先のIDが存在しない
	KindNotFound
	// KindConflict はコミット時点で前提条件が崩れていた
	KindConflict
	// KindStore はストア側のトランザクション失敗
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// Error は理由コードとメッセージを持つドメインエラー
// errors.Is は Reason が一致すれば true を返すため、メッセージが動的でもセンチネルと比較できる
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is は理由コードで比較する
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Reason == t.Reason
}

// WithMessage は同じ理由コードでメッセージだけ差し替えたコピーを返す
func (e *Error) WithMessage(format string, args ...any) *Error {
	return &Error{Kind: e.Kind, Reason: e.Reason, Message: fmt.Sprintf(format, args...), Err: e.Err}
}

// AsConflict は同じ理由コードを Conflict として返す
func (e *Error) AsConflict() *Error {
	return &Error{Kind: KindConflict, Reason: e.Reason, Message: e.Message, Err: e.Err}
}

func Validation(reason, message string) *Error {
	return &Error{Kind: KindValidation, Reason: reason, Message: message}
}

func NotFound(reason, message string) *Error {
	return &Error{Kind: KindNotFound, Reason: reason, Message: message}
}

func Conflict(reason, message string) *Error {
	return &Error{Kind: KindConflict, Reason: reason, Message: message}
}

// Store はストア起因のエラーをラップする
func Store(message string, err error) *Error {
	return &Error{Kind: KindStore, Reason: "store_failure", Message: message, Err: err}
}

// KindOf はエラーの分類を返す。apperr.Error でなければ KindStore として扱う
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

// ReasonOf はエラーの理由コードを返す
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return "internal_error"
}
