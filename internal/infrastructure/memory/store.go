// Package memory はプロセス内で完結するストア実装
// トランザクションはストア全体のロックで直列化されるため、
// トランザクション内の読み取りはそのまま「ロック付き読み取り」として振る舞う
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/sanosuguru/go-restaurant-seating/internal/domain/reservation"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/table"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/transaction"
)

var (
	ErrTxClosed  = errors.New("トランザクションは終了しています")
	ErrForeignTx = errors.New("memory ストアのトランザクションではありません")
)

// Store は予約と卓を保持する
type Store struct {
	txMu sync.Mutex // 書き込みトランザクションを直列化する

	mu           sync.RWMutex
	reservations map[int64]*reservation.Reservation
	tables       map[int64]*table.Table
	nextResID    int64
	nextTableID  int64
	failCommit   error
}

func NewStore() *Store {
	return &Store{
		reservations: make(map[int64]*reservation.Reservation),
		tables:       make(map[int64]*table.Table),
	}
}

// FailNextCommit は次のコミットを err で失敗させる（障害注入用）
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCommit = err
}

func (s *Store) allocReservationID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextResID++
	return s.nextResID
}

func (s *Store) allocTableID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTableID++
	return s.nextTableID
}

// Tx は変更を溜めておき、コミット時にまとめて反映する
type Tx struct {
	store         *Store
	reservations  map[int64]*reservation.Reservation
	tables        map[int64]*table.Table
	deletedTables map[int64]bool
	done          bool
}

// Commit は溜めた変更を反映する
func (t *Tx) Commit() error {
	if t.done {
		return ErrTxClosed
	}
	t.done = true
	defer t.store.txMu.Unlock()

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if err := t.store.failCommit; err != nil {
		t.store.failCommit = nil
		return err
	}
	for id, r := range t.reservations {
		t.store.reservations[id] = r
	}
	for id, tb := range t.tables {
		t.store.tables[id] = tb
	}
	for id := range t.deletedTables {
		delete(t.store.tables, id)
	}
	return nil
}

// Rollback は変更を破棄する。コミット後は何もしない
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

func (t *Tx) reservation(id int64) (*reservation.Reservation, bool) {
	if r, ok := t.reservations[id]; ok {
		return r, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	r, ok := t.store.reservations[id]
	return r, ok
}

func (t *Tx) table(id int64) (*table.Table, bool) {
	if t.deletedTables[id] {
		return nil, false
	}
	if tb, ok := t.tables[id]; ok {
		return tb, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	tb, ok := t.store.tables[id]
	return tb, ok
}

// allTables はトランザクション内から見える卓の一覧
func (t *Tx) allTables() []*table.Table {
	t.store.mu.RLock()
	seen := make(map[int64]*table.Table, len(t.store.tables))
	for id, tb := range t.store.tables {
		seen[id] = tb
	}
	t.store.mu.RUnlock()
	for id, tb := range t.tables {
		seen[id] = tb
	}
	result := make([]*table.Table, 0, len(seen))
	for id, tb := range seen {
		if !t.deletedTables[id] {
			result = append(result, tb)
		}
	}
	return result
}

// TxManager はストアのトランザクションを開始する
type TxManager struct {
	store *Store
}

func NewTxManager(s *Store) *TxManager {
	return &TxManager{store: s}
}

// Begin は他のトランザクションが終わるまで待ってから開始する
func (m *TxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	acquired := make(chan struct{})
	go func() {
		m.store.txMu.Lock()
		close(acquired)
	}()
	select {
	case <-acquired:
	case <-ctx.Done():
		// ロック取得後すぐに解放する
		go func() {
			<-acquired
			m.store.txMu.Unlock()
		}()
		return nil, ctx.Err()
	}
	return &Tx{
		store:         m.store,
		reservations:  make(map[int64]*reservation.Reservation),
		tables:        make(map[int64]*table.Table),
		deletedTables: make(map[int64]bool),
	}, nil
}

func unwrapTx(tx transaction.Tx) (*Tx, error) {
	mt, ok := tx.(*Tx)
	if !ok || mt == nil {
		return nil, ErrForeignTx
	}
	if mt.done {
		return nil, ErrTxClosed
	}
	return mt, nil
}

func copyReservation(r *reservation.Reservation) *reservation.Reservation {
	c := *r
	return &c
}

func copyTable(t *table.Table) *table.Table {
	c := *t
	if t.ReservationID != nil {
		id := *t.ReservationID
		c.ReservationID = &id
	}
	return &c
}

var _ transaction.Manager = (*TxManager)(nil)
