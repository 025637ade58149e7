package reservation

import (
	"encoding/json"
	"math"

	"github.com/sanosuguru/go-restaurant-seating/internal/domain/calendar"
	"github.com/sanosuguru/go-restaurant-seating/internal/pkg/schema"
)

// Payload はリクエストから受け取った未検証の予約データ
// people は型検査のため生の JSON のまま受け取る
type Payload struct {
	FirstName       string           `json:"first_name" validate:"required"`
	LastName        string           `json:"last_name" validate:"required"`
	MobileNumber    string           `json:"mobile_number" validate:"required"`
	ReservationDate string           `json:"reservation_date" validate:"required"`
	ReservationTime string           `json:"reservation_time" validate:"required"`
	People          *json.RawMessage `json:"people" validate:"required"`
	Status          string           `json:"status,omitempty"`
}

// Validator は予約データを決められた順序で検証し、最初の失敗で止まる
type Validator struct {
	policy *calendar.Policy
}

func NewValidator(policy *calendar.Policy) *Validator {
	return &Validator{policy: policy}
}

// ForCreate は作成用の検証を行う（初期状態の検査を含む）
func (v *Validator) ForCreate(p *Payload) (Details, error) {
	d, err := v.validate(p)
	if err != nil {
		return Details{}, err
	}
	if p.Status != "" && Status(p.Status) != StatusBooked {
		return Details{}, ErrInvalidInitialStatus.WithMessage("Cannot create a reservation with a status of %s.", p.Status)
	}
	return d, nil
}

// ForUpdate は更新用の検証を行う
func (v *Validator) ForUpdate(p *Payload) (Details, error) {
	return v.validate(p)
}

func (v *Validator) validate(p *Payload) (Details, error) {
	if p == nil {
		return Details{}, ErrMissingData
	}

	// 1. 必須項目
	field, err := schema.FirstMissing(p)
	if err != nil {
		return Details{}, err
	}
	if field != "" {
		return Details{}, ErrMissingField.WithMessage("A '%s' property is required.", field)
	}

	// 2. 人数
	people, err := parsePeople(*p.People)
	if err != nil {
		return Details{}, err
	}

	// 3. 日付・時刻の形式
	date, err := calendar.ParseDate(p.ReservationDate)
	if err != nil {
		return Details{}, ErrInvalidDate
	}
	tod, err := calendar.ParseTimeOfDay(p.ReservationTime)
	if err != nil {
		return Details{}, ErrInvalidTime
	}

	// 4. 営業日・営業時間
	if v.policy.IsPast(v.policy.Instant(date, tod)) {
		return Details{}, ErrPastReservation
	}
	if v.policy.IsClosedDay(date) {
		return Details{}, ErrClosedDay.WithMessage("The restaurant is closed on %ss.", v.policy.ClosedDay)
	}
	if v.policy.BeforeOpening(tod) {
		return Details{}, ErrBeforeOpening.WithMessage("The reservation must be after %s.", v.policy.OpensAt.Kitchen())
	}
	if v.policy.AfterClosing(tod) {
		return Details{}, ErrAfterClosing.WithMessage("The reservation must be before %s.", v.policy.ClosesAt.Kitchen())
	}

	// 5. 電話番号
	mobile := NormalizePhone(p.MobileNumber)
	if len(mobile) != 10 {
		return Details{}, ErrInvalidMobileNumber
	}

	return Details{
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		MobileNumber: mobile,
		Date:         date.Format(calendar.DateLayout),
		Time:         tod.String(),
		People:       people,
	}, nil
}

func parsePeople(raw json.RawMessage) (int, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, ErrPeopleNotNumber
	}
	// 整数で、保存先の INTEGER に収まること
	if n != math.Trunc(n) || math.IsInf(n, 0) || n > math.MaxInt32 {
		return 0, ErrPeopleNotNumber
	}
	if n < 1 {
		return 0, ErrPeopleTooFew
	}
	return int(n), nil
}
