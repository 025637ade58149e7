package application

import (
	"context"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-restaurant-seating/internal/domain/reservation"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/table"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/transaction"
	"github.com/sanosuguru/go-restaurant-seating/internal/pkg/logger"
)

type TableService struct {
	txManager       transaction.Manager
	tableRepo       table.Repository
	reservationRepo reservation.Repository
	collaborators
}

func NewTableService(txm transaction.Manager, tr table.Repository, rr reservation.Repository, opts ...Option) *TableService {
	return &TableService{
		txManager:       txm,
		tableRepo:       tr,
		reservationRepo: rr,
		collaborators:   newCollaborators(opts),
	}
}

func (s *TableService) Create(ctx context.Context, p *table.Payload) (*table.Table, error) {
	d, err := table.Validate(p)
	if err != nil {
		return nil, err
	}
	t := table.NewTable(d)
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		return s.tableRepo.Create(ctx, tx, t)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("卓を作成しました", zap.Int64("table_id", t.ID), zap.String("table_name", t.Name))
	return t, nil
}

func (s *TableService) Get(ctx context.Context, id int64) (*table.Table, error) {
	return s.tableRepo.GetByID(ctx, id)
}

func (s *TableService) List(ctx context.Context) ([]*table.Table, error) {
	return s.tableRepo.List(ctx)
}

// Update は卓名と収容人数を更新する
// 着席中の卓は着席している人数未満に減らせない
func (s *TableService) Update(ctx context.Context, id int64, p *table.Payload) (*table.Table, error) {
	if _, err := s.tableRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	d, err := table.Validate(p)
	if err != nil {
		return nil, err
	}

	var t *table.Table
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		var err error
		if t, err = s.tableRepo.GetByIDForUpdate(ctx, tx, id); err != nil {
			return err
		}
		seatedPeople := 0
		if !t.IsFree() {
			r, err := s.reservationRepo.GetByIDForUpdate(ctx, tx, *t.ReservationID)
			if err != nil {
				return err
			}
			seatedPeople = r.People
		}
		if err := t.Edit(d, seatedPeople); err != nil {
			return err
		}
		return s.tableRepo.Update(ctx, tx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Delete は空いている卓を削除する
func (s *TableService) Delete(ctx context.Context, id int64) error {
	err := transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		t, err := s.tableRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !t.IsFree() {
			return table.Occupied(t.ID)
		}
		return s.tableRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	logger.Info("卓を削除しました", zap.Int64("table_id", id))
	return nil
}
