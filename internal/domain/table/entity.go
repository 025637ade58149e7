package table

import "time"

// Table は卓エンティティを表す
type Table struct {
	ID            int64
	Name          string
	Capacity      int
	ReservationID *int64 // 着席中の予約。nil なら空席
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Details は検証済みの卓項目
type Details struct {
	Name     string
	Capacity int
}

// NewTable は空席の卓を作成する
func NewTable(d Details) *Table {
	now := time.Now()
	return &Table{
		Name:      d.Name,
		Capacity:  d.Capacity,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsFree は卓が空いているかを返す
func (t *Table) IsFree() bool {
	return t.ReservationID == nil
}

// CanHold は people 人を収容できるかを返す
func (t *Table) CanHold(people int) bool {
	return t.Capacity >= people
}

// Occupy は予約を卓に紐付ける
func (t *Table) Occupy(reservationID int64) error {
	if !t.IsFree() {
		return Occupied(t.ID)
	}
	t.ReservationID = &reservationID
	t.UpdatedAt = time.Now()
	return nil
}

// Release は卓を空け、着席していた予約IDを返す
func (t *Table) Release() (int64, error) {
	if t.IsFree() {
		return 0, NotOccupied(t.ID)
	}
	id := *t.ReservationID
	t.ReservationID = nil
	t.UpdatedAt = time.Now()
	return id, nil
}

// Edit は卓名と収容人数を更新する
// 着席中の場合は seatedPeople 以上の収容人数が必要
func (t *Table) Edit(d Details, seatedPeople int) error {
	if !t.IsFree() && d.Capacity < seatedPeople {
		return CapacityExceeded(t.ID, d.Capacity, seatedPeople)
	}
	t.Name = d.Name
	t.Capacity = d.Capacity
	t.UpdatedAt = time.Now()
	return nil
}
