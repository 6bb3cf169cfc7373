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
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/kmvit/booking-bot/internal/booking"
	"github.com/kmvit/booking-bot/internal/bot"
	"github.com/kmvit/booking-bot/internal/cache"
	"github.com/kmvit/booking-bot/internal/config"
	"github.com/kmvit/booking-bot/internal/db"
	"github.com/kmvit/booking-bot/internal/events"
	"github.com/kmvit/booking-bot/internal/metrics"
	"github.com/kmvit/booking-bot/internal/reminder"
	"github.com/kmvit/booking-bot/internal/schedule"
)

func main() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	// .env is optional; the config file can reference its variables.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("BOOKING_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if cfg.Telegram.BotToken == "" || cfg.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		logger.Fatal().Msg("set telegram.bot_token in config")
	}

	database, err := db.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.SeedProcedures(ctx); err != nil {
		logger.Fatal().Err(err).Msg("seed procedures error")
	}

	day, err := schedule.NewWorkday(cfg.Schedule.WorkStart, cfg.Schedule.WorkEnd, cfg.Schedule.SlotMinutes)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid work schedule")
	}

	loc := cfg.Location()
	now := time.Now().In(loc)
	if err := database.EnsureWeekendBlackouts(ctx, now, cfg.Booking.WeekendHorizonDays, day.BaseSlots()); err != nil {
		logger.Fatal().Err(err).Msg("pre-generate weekend blackouts error")
	}
	if purged, err := database.PurgeExpiredBlackouts(ctx, now); err != nil {
		logger.Error().Err(err).Msg("purge expired blackouts error")
	} else if purged > 0 {
		logger.Info().Int64("purged", purged).Msg("expired blackouts removed")
	}

	var rdb *redis.Client
	var slotCache *cache.SlotCache
	if ttl := cfg.CacheTTL(); ttl > 0 {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		slotCache = cache.New(rdb, ttl, logger)
	}

	engine := schedule.NewEngine(day, database, database, cfg.Booking.HorizonDays)
	bus := events.NewBus()
	svc := booking.NewService(database, database, engine, bus, slotCache, cfg.Booking.StrictSlotCheck, logger)

	b, err := bot.New(cfg.Telegram.BotToken, bot.Deps{
		DB:      database,
		Service: svc,
		Engine:  engine,
		Cache:   slotCache,
		Admins:  cfg.Admins,
		Debug:   cfg.Telegram.Debug,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("create bot error")
	}
	b.SubscribeEvents(bus)

	notifier := reminder.New(database, b, reminder.Config{
		DayBefore: cfg.Reminders.DayBefore,
		DayOf:     cfg.Reminders.DayOf,
	}, loc, logger)

	scheduler := cron.New(cron.WithLocation(loc))
	if err := notifier.Register(ctx, scheduler); err != nil {
		logger.Fatal().Err(err).Msg("register reminder triggers")
	}
	// Nightly maintenance keeps the blackout horizon rolling.
	if _, err := scheduler.AddFunc("5 0 * * *", func() {
		n := time.Now().In(loc)
		if err := database.EnsureWeekendBlackouts(ctx, n, cfg.Booking.WeekendHorizonDays, day.BaseSlots()); err != nil {
			logger.Error().Err(err).Msg("refresh weekend blackouts error")
		}
		if _, err := database.PurgeExpiredBlackouts(ctx, n); err != nil {
			logger.Error().Err(err).Msg("purge expired blackouts error")
		}
	}); err != nil {
		logger.Fatal().Err(err).Msg("register maintenance job")
	}
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.Backup.Enabled {
		backup := db.NewBackupService(cfg.Database.Path, db.BackupConfig{
			Enabled:       cfg.Backup.Enabled,
			IntervalHours: cfg.Backup.IntervalHours,
			Path:          cfg.Backup.Path,
			RetentionDays: cfg.Backup.RetentionDays,
		}, logger)
		go backup.Start(ctx)
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, database, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	logger.Info().Msg("booking bot started")
	b.Start(ctx)
}

func startHealthServer(ctx context.Context, port int, database *db.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := database.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
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
