package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/availability"
	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/order"
	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/events"
	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/handler"
	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/notify"
	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/storage/postgres"
	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/pkg/health"
	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories and the transactional checkout store.
	customerRepo := postgres.NewCustomerRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	overrideRepo := postgres.NewOverrideRepository(pool)
	store := postgres.NewStore(pool, customerRepo, orderRepo)

	// Availability gate: weekly schedule plus manual override.
	schedule, err := availability.NewSchedule(availability.ScheduleConfig{
		Timezone:   cfg.Store.Timezone,
		OpensAt:    cfg.Store.OpensAt,
		ClosesAt:   cfg.Store.ClosesAt,
		ClosedDays: cfg.Store.ClosedDays,
	})
	if err != nil {
		return errors.Wrap(err, "build schedule")
	}
	gate := availability.NewGate(schedule, overrideRepo, cfg.Store.OverrideDuration, lg.Named("availability"))

	// Event bus, optionally mirrored to Kafka.
	var sink events.Sink
	var kafkaSink *events.KafkaSink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink = events.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, lg.Named("kafka"))
		sink = kafkaSink
	}
	bus := events.NewBus(sink, lg.Named("events"))
	defer bus.Close()

	// Telegram notifier, or a no-op when unconfigured.
	var notifier order.Notifier = notify.Noop{}
	tg := notify.NewTelegram(notify.TelegramConfig{
		Token:  cfg.Telegram.Token,
		ChatID: cfg.Telegram.ChatID,
	}, lg.Named("telegram"))
	if tg.Enabled() {
		notifier = tg
	} else {
		lg.Info("Telegram notifications disabled")
	}

	// Domain service and HTTP layer.
	orderService := order.NewService(gate, store, orderRepo, bus, notifier, lg.Named("orders"))
	auth := handler.NewOperatorAuth(cfg.OperatorKey, cfg.KeyPepper)
	h := handler.NewHandler(orderService, customerRepo, gate, bus, auth, schedule.Location())

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Routes())

	meter := m.MeterProvider().Meter("cafe-api")
	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "X-Operator-Key"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("cafe-api", meter),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		if kafkaSink != nil {
			if err := kafkaSink.Close(); err != nil {
				lg.Error("Kafka sink close error", zap.Error(err))
			}
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
