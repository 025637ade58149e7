package calendar

import (
	"fmt"
	"regexp"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?$`)
)

// Clock は現在時刻を返す
type Clock interface {
	Now() time.Time
}

// SystemClock はシステム時刻を返す Clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock は常に同じ時刻を返す Clock（テスト用）
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// TimeOfDay は 0:00 からの経過分で表した時刻
type TimeOfDay int

// NewTimeOfDay は時・分から TimeOfDay を作成する
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Kitchen は "10:30am" 形式の表記を返す
func (t TimeOfDay) Kitchen() string {
	return time.Date(2000, 1, 1, t.Hour(), t.Minute(), 0, 0, time.UTC).Format("3:04pm")
}

// MatchesDateFormat は YYYY-MM-DD の形をしているかを返す
func MatchesDateFormat(s string) bool {
	return datePattern.MatchString(s)
}

// MatchesTimeFormat は HH:MM（秒付きも可）の形をしているかを返す
func MatchesTimeFormat(s string) bool {
	return timePattern.MatchString(s)
}

// ParseDate は YYYY-MM-DD を解析する。2023-02-30 のような暦上存在しない日付はエラー
func ParseDate(s string) (time.Time, error) {
	if !MatchesDateFormat(s) {
		return time.Time{}, fmt.Errorf("日付の形式が不正です: %q", s)
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("日付が不正です: %w", err)
	}
	return d, nil
}

// ParseTimeOfDay は HH:MM または HH:MM:SS を解析する
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if !MatchesTimeFormat(s) {
		return 0, fmt.Errorf("時刻の形式が不正です: %q", s)
	}
	layout := TimeLayout
	if len(s) == len("15:04:05") {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("時刻が不正です: %w", err)
	}
	return NewTimeOfDay(t.Hour(), t.Minute()), nil
}

// Policy は営業日・営業時間・過去日時の判定を行う
// 状態を持たず、現在時刻は Clock から注入される
type Policy struct {
	OpensAt   TimeOfDay
	ClosesAt  TimeOfDay
	ClosedDay time.Weekday
	Location  *time.Location
	LeadTime  time.Duration
	clock     Clock
}

// DefaultPolicy は 10:30〜21:30、火曜定休、UTC のポリシーを返す
func DefaultPolicy(clock Clock) *Policy {
	return NewPolicy(NewTimeOfDay(10, 30), NewTimeOfDay(21, 30), time.Tuesday, time.UTC, 0, clock)
}

func NewPolicy(opensAt, closesAt TimeOfDay, closedDay time.Weekday, loc *time.Location, leadTime time.Duration, clock Clock) *Policy {
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Policy{
		OpensAt:   opensAt,
		ClosesAt:  closesAt,
		ClosedDay: closedDay,
		Location:  loc,
		LeadTime:  leadTime,
		clock:     clock,
	}
}

// Now は UTC の現在時刻を返す
func (p *Policy) Now() time.Time {
	return p.clock.Now().UTC()
}

// Instant は店舗のタイムゾーンで日付と時刻を組み合わせ、UTC の時刻を返す
func (p *Policy) Instant(date time.Time, tod TimeOfDay) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), tod.Hour(), tod.Minute(), 0, 0, p.Location).UTC()
}

// IsPast は instant が現在時刻（リードタイム込み）以前なら true
func (p *Policy) IsPast(instant time.Time) bool {
	return !instant.UTC().After(p.Now().Add(p.LeadTime))
}

// IsClosedDay は定休日なら true
func (p *Policy) IsClosedDay(date time.Time) bool {
	return date.Weekday() == p.ClosedDay
}

// IsWithinServiceWindow は開店〜閉店（両端含む）なら true
func (p *Policy) IsWithinServiceWindow(tod TimeOfDay) bool {
	return !p.BeforeOpening(tod) && !p.AfterClosing(tod)
}

func (p *Policy) BeforeOpening(tod TimeOfDay) bool {
	return tod < p.OpensAt
}

func (p *Policy) AfterClosing(tod TimeOfDay) bool {
	return tod > p.ClosesAt
}
