package memory

import (
	"context"
	"sort"
	"time"

	"github.com/sanosuguru/go-restaurant-seating/internal/domain/table"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/transaction"
)

type TableRepository struct{ store *Store }

func NewTableRepository(s *Store) *TableRepository {
	return &TableRepository{store: s}
}

func (r *TableRepository) Create(ctx context.Context, tx transaction.Tx, t *table.Table) error {
	mt, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	t.ID = r.store.allocTableID()
	mt.tables[t.ID] = copyTable(t)
	return nil
}

func (r *TableRepository) GetByID(ctx context.Context, id int64) (*table.Table, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	t, ok := r.store.tables[id]
	if !ok {
		return nil, table.NotFound(id)
	}
	return copyTable(t), nil
}

func (r *TableRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*table.Table, error) {
	mt, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}
	t, ok := mt.table(id)
	if !ok {
		return nil, table.NotFound(id)
	}
	return copyTable(t), nil
}

func (r *TableRepository) GetByReservationIDForUpdate(ctx context.Context, tx transaction.Tx, reservationID int64) (*table.Table, error) {
	mt, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}
	for _, t := range mt.allTables() {
		if t.ReservationID != nil && *t.ReservationID == reservationID {
			return copyTable(t), nil
		}
	}
	return nil, table.ErrTableNotFound.WithMessage("No table is seated with reservation %d.", reservationID)
}

func (r *TableRepository) List(ctx context.Context) ([]*table.Table, error) {
	r.store.mu.RLock()
	result := make([]*table.Table, 0, len(r.store.tables))
	for _, t := range r.store.tables {
		result = append(result, copyTable(t))
	}
	r.store.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *TableRepository) Update(ctx context.Context, tx transaction.Tx, t *table.Table) error {
	mt, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	current, ok := mt.table(t.ID)
	if !ok {
		return table.NotFound(t.ID)
	}
	updated := copyTable(current)
	updated.Name = t.Name
	updated.Capacity = t.Capacity
	updated.UpdatedAt = time.Now()
	mt.tables[t.ID] = updated
	return nil
}

func (r *TableRepository) Occupy(ctx context.Context, tx transaction.Tx, tableID, reservationID int64) error {
	mt, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	current, ok := mt.table(tableID)
	if !ok {
		return table.NotFound(tableID)
	}
	if !current.IsFree() {
		return table.Occupied(tableID).AsConflict()
	}
	updated := copyTable(current)
	if err := updated.Occupy(reservationID); err != nil {
		return err
	}
	mt.tables[tableID] = updated
	return nil
}

func (r *TableRepository) Release(ctx context.Context, tx transaction.Tx, tableID, reservationID int64) error {
	mt, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	current, ok := mt.table(tableID)
	if !ok {
		return table.NotFound(tableID)
	}
	if current.ReservationID == nil || *current.ReservationID != reservationID {
		return table.NotOccupied(tableID).AsConflict()
	}
	updated := copyTable(current)
	if _, err := updated.Release(); err != nil {
		return err
	}
	mt.tables[tableID] = updated
	return nil
}

func (r *TableRepository) Delete(ctx context.Context, tx transaction.Tx, id int64) error {
	mt, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	current, ok := mt.table(id)
	if !ok {
		return table.NotFound(id)
	}
	if !current.IsFree() {
		return table.Occupied(id).AsConflict()
	}
	delete(mt.tables, id)
	mt.deletedTables[id] = true
	return nil
}

// Put はテスト用に卓を直接保存する
func (r *TableRepository) Put(t *table.Table) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if t.ID == 0 {
		r.store.nextTableID++
		t.ID = r.store.nextTableID
	} else if t.ID > r.store.nextTableID {
		r.store.nextTableID = t.ID
	}
	r.store.tables[t.ID] = copyTable(t)
}

var _ table.Repository = (*TableRepository)(nil)
