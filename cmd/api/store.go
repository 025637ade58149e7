package main

import (
	"context"
	"fmt"

	"github.com/sanosuguru/go-restaurant-seating/internal/config"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/reservation"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/table"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/transaction"
	"github.com/sanosuguru/go-restaurant-seating/internal/infrastructure/memory"
	"github.com/sanosuguru/go-restaurant-seating/internal/infrastructure/postgres"
)

// store は選択したドライバーのリポジトリ一式
type store struct {
	txManager    transaction.Manager
	reservations reservation.Repository
	tables       table.Repository
	ping         func(ctx context.Context) error
	close        func() error
}

func openStore(cfg *config.Config) (*store, error) {
	switch cfg.Store.Driver {
	case "memory":
		s := memory.NewStore()
		return &store{
			txManager:    memory.NewTxManager(s),
			reservations: memory.NewReservationRepository(s),
			tables:       memory.NewTableRepository(s),
			close:        func() error { return nil },
		}, nil
	case "postgres":
		db, err := postgres.NewConnection(&cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := postgres.RunMigrations(db.DB, cfg.Store.MigrationsPath); err != nil {
			db.Close()
			return nil, err
		}
		return &store{
			txManager:    postgres.NewTxManager(db),
			reservations: postgres.NewReservationRepository(db),
			tables:       postgres.NewTableRepository(db),
			ping:         func(ctx context.Context) error { return postgres.Ping(ctx, db) },
			close:        db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (postgres or memory)", cfg.Store.Driver)
	}
}
