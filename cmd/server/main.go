package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"clinicbook/internal/api"
	"clinicbook/internal/config"
	"clinicbook/internal/database"
	"clinicbook/internal/events"
	"clinicbook/internal/fallback"
	"clinicbook/internal/metrics"
	"clinicbook/internal/repository"
	"clinicbook/internal/service"
	"clinicbook/internal/slotlock"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("CLINICBOOK_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	fb, err := fallback.NewStore(cfg.Fallback.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open fallback store error")
	}

	var rdb *redis.Client
	var locker slotlock.Locker = slotlock.Noop{}
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		locker = slotlock.New(rdb, time.Duration(cfg.Redis.LockTTLSeconds)*time.Second)
		logger.Info().Str("address", cfg.Redis.Address).Msg("redis slot lock enabled")
	}

	repo := repository.NewAppointmentRepository(db, fb, &logger)
	scheduler := service.NewScheduler(db, db, repo, locker, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	subscribeAuditLog(bus, &logger)
	scheduler.UseEventBus(bus)

	backup := database.NewBackupService(cfg.Backup, &logger, cfg.Database.Path, cfg.Fallback.Path)
	go backup.Start(ctx)

	metrics.Register()
	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	opts := api.Options{
		Port:          cfg.Server.Port,
		RatePerMinute: cfg.Booking.RatePerMinute,
		Burst:         cfg.Booking.Burst,
	}
	if rdb != nil {
		opts.Redis = redisPinger{rdb}
	}

	srv := api.NewHTTPServer(opts, scheduler, db, fb, &logger)
	logger.Info().Int("port", cfg.Server.Port).Msg("clinicbook server started")
	if err := srv.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

// subscribeAuditLog writes one structured log line per scheduling
// event, independent of the handler logs, as a greppable audit trail.
func subscribeAuditLog(bus *events.Bus, logger *zerolog.Logger) {
	log := func(e events.Event) {
		logger.Info().
			Str("event", e.Type).
			Str("doctor_id", e.DoctorID).
			Str("subject_id", e.SubjectID).
			Str("detail", e.Detail).
			Msg("scheduling event")
	}
	bus.Subscribe(events.AppointmentBooked, log)
	bus.Subscribe(events.AppointmentCancelled, log)
	bus.Subscribe(events.SettingsUpdated, log)
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
