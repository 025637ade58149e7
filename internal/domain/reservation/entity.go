package reservation

import (
	"strings"
	"time"
)

// Status は予約の状態を表す
type Status string

const (
	StatusBooked    Status = "booked"
	StatusSeated    Status = "seated"
	StatusFinished  Status = "finished"
	StatusCancelled Status = "cancelled"
)

// Statuses は有効な状態の一覧
var Statuses = []Status{StatusBooked, StatusSeated, StatusFinished, StatusCancelled}

// Valid は定義済みの状態かを返す
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal は finished / cancelled なら true
func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// Reservation は予約エンティティを表す
type Reservation struct {
	ID           int64
	FirstName    string
	LastName     string
	MobileNumber string
	Date         string // YYYY-MM-DD
	Time         string // HH:MM
	People       int
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Details は検証済みの予約項目
type Details struct {
	FirstName    string
	LastName     string
	MobileNumber string
	Date         string
	Time         string
	People       int
}

// NewReservation は booked 状態の予約を作成する
func NewReservation(d Details) *Reservation {
	now := time.Now()
	r := &Reservation{
		Status:    StatusBooked,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.apply(d)
	return r
}

func (r *Reservation) apply(d Details) {
	r.FirstName = d.FirstName
	r.LastName = d.LastName
	r.MobileNumber = NormalizePhone(d.MobileNumber)
	r.Date = d.Date
	r.Time = d.Time
	r.People = d.People
}

// IsTerminal は予約が終了済みかを返す
func (r *Reservation) IsTerminal() bool {
	return r.Status.IsTerminal()
}

// ensureMutable は終了済みの予約ならエラーを返す
func (r *Reservation) ensureMutable() error {
	if r.IsTerminal() {
		return ErrImmutable.WithMessage("A %s reservation cannot be updated.", r.Status)
	}
	return nil
}

// Edit は予約項目を更新する（booked / seated のみ）
func (r *Reservation) Edit(d Details) error {
	if err := r.ensureMutable(); err != nil {
		return err
	}
	r.apply(d)
	r.UpdatedAt = time.Now()
	return nil
}

// Seat は予約を着席状態にする
func (r *Reservation) Seat() error {
	if r.Status == StatusSeated {
		return ErrAlreadySeated.WithMessage("Reservation %d is already seated.", r.ID)
	}
	if err := r.ensureMutable(); err != nil {
		return err
	}
	r.Status = StatusSeated
	r.UpdatedAt = time.Now()
	return nil
}

// Finish は着席中の予約を終了する
func (r *Reservation) Finish() error {
	if r.Status != StatusSeated {
		return ErrNotSeated.WithMessage("Reservation %d is not seated.", r.ID)
	}
	r.Status = StatusFinished
	r.UpdatedAt = time.Now()
	return nil
}

// Cancel は予約をキャンセルする（booked / seated から）
func (r *Reservation) Cancel() error {
	if err := r.ensureMutable(); err != nil {
		return err
	}
	r.Status = StatusCancelled
	r.UpdatedAt = time.Now()
	return nil
}

// ApplyStatus は状態更新リクエストを適用する
// seated / finished は卓の着席・退席操作でのみ遷移できる
func (r *Reservation) ApplyStatus(target Status) error {
	if !target.Valid() {
		return ErrInvalidStatus.WithMessage("The status must be booked, seated, finished, or cancelled. Not: %s", target)
	}
	if err := r.ensureMutable(); err != nil {
		return err
	}
	switch target {
	case StatusCancelled:
		return r.Cancel()
	case StatusBooked:
		if r.Status == StatusBooked {
			return nil
		}
		return ErrTransitionNotAllowed.WithMessage("A %s reservation cannot return to booked.", r.Status)
	default:
		return ErrTransitionNotAllowed.WithMessage("A reservation can only become %s through its table.", target)
	}
}

// NormalizePhone は数字以外を取り除く
func NormalizePhone(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}
