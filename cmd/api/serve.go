package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-restaurant-seating/internal/api"
	"github.com/sanosuguru/go-restaurant-seating/internal/api/handler"
	"github.com/sanosuguru/go-restaurant-seating/internal/api/middleware"
	"github.com/sanosuguru/go-restaurant-seating/internal/application"
	"github.com/sanosuguru/go-restaurant-seating/internal/config"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/calendar"
	"github.com/sanosuguru/go-restaurant-seating/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-restaurant-seating/internal/infrastructure/redis"
	"github.com/sanosuguru/go-restaurant-seating/internal/pkg/logger"
	"github.com/sanosuguru/go-restaurant-seating/internal/pkg/metrics"
	"github.com/sanosuguru/go-restaurant-seating/internal/worker"
)

func newServeCmd() *cobra.Command {
	var driver string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the no-show sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if driver != "" {
				cfg.Store.Driver = driver
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&driver, "store", "", "store driver: postgres or memory (overrides STORE_DRIVER)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger.Set(logger.NewLoggerWithFile(cfg.App.Env, cfg.App.LogFile))
	defer logger.Sync()

	policy, err := cfg.Restaurant.Policy(calendar.SystemClock{})
	if err != nil {
		return err
	}
	m := metrics.Init()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.close()
	logger.Info("ストアに接続しました", zap.String("driver", cfg.Store.Driver))

	health := handler.NewHealthHandler()
	if st.ping != nil {
		health.WithCheck(cfg.Store.Driver, st.ping)
	}

	opts := []application.Option{application.WithMetrics(m)}

	if cfg.Redis.Enabled {
		client, err := redisinfra.NewClient(&cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer client.Close()
		opts = append(opts,
			application.WithLocker(redisinfra.NewLockManager(client)),
			application.WithCache(redisinfra.NewReservationCache(client, cfg.Redis.CacheTTL)),
		)
		health.WithCheck("redis", func(ctx context.Context) error { return redisinfra.Ping(ctx, client) })
		logger.Info("Redis に接続しました", zap.String("addr", cfg.Redis.Addr()))
	}

	if cfg.RabbitMQ.Enabled {
		publisher, err := rabbitmq.NewPublisher(&cfg.RabbitMQ)
		if err != nil {
			return fmt.Errorf("rabbitmq: %w", err)
		}
		defer publisher.Close()
		opts = append(opts, application.WithPublisher(publisher))
		logger.Info("RabbitMQ に接続しました", zap.String("queue", cfg.RabbitMQ.Queue))
	}

	reservationService := application.NewReservationService(st.txManager, st.reservations, st.tables, policy, opts...)
	tableService := application.NewTableService(st.txManager, st.tables, st.reservations, opts...)
	seatingService := application.NewSeatingService(st.txManager, st.tables, st.reservations, opts...)

	if err := initOccupiedGauge(ctx, tableService, m); err != nil {
		logger.Warn("使用中の卓数を取得できません", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	middleware.SetupMiddleware(e)
	e.Use(middleware.PrometheusMiddleware(m))

	handler.RegisterRoutes(e, handler.Handlers{
		Reservations: handler.NewReservationHandler(reservationService),
		Tables:       handler.NewTableHandler(tableService, seatingService),
		Health:       health,
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.MetricsBasicAuth(cfg.Metrics))

	if cfg.Worker.NoShowEnabled {
		sweeper := worker.NewNoShowSweeper(reservationService, cfg.Worker.NoShowInterval, cfg.Worker.NoShowGrace)
		go sweeper.Start(ctx)
		defer sweeper.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("サーバー起動", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("サーバー起動エラー: %w", err)
	case <-ctx.Done():
	}

	logger.Info("サーバーをシャットダウンしています...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーシャットダウンエラー: %w", err)
	}
	logger.Info("サーバーが正常にシャットダウンしました")
	return nil
}

// initOccupiedGauge は起動時点の使用中の卓数をゲージに反映する
func initOccupiedGauge(ctx context.Context, tables *application.TableService, m *metrics.Metrics) error {
	list, err := tables.List(ctx)
	if err != nil {
		return err
	}
	occupied := 0
	for _, t := range list {
		if !t.IsFree() {
			occupied++
		}
	}
	m.OccupiedTables.Set(float64(occupied))
	return nil
}
