package main // Entry point package

import (
    "context"
    "errors"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"

    "github.com/iliyamo/movie-booking/internal/booking"
    "github.com/iliyamo/movie-booking/internal/catalog"
    "github.com/iliyamo/movie-booking/internal/config"
    "github.com/iliyamo/movie-booking/internal/database"
    "github.com/iliyamo/movie-booking/internal/handler"
    "github.com/iliyamo/movie-booking/internal/queue"
    "github.com/iliyamo/movie-booking/internal/repository"
    "github.com/iliyamo/movie-booking/internal/router"
)

func main() {
    _ = godotenv.Load() // best-effort
    cfg := config.Load()
    setupLogger(cfg)

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatal().Err(err).Msg("db connect failed")
    }
    defer db.Close()

    if cfg.MigrateOnStart {
        if err := database.MigrateUp(db); err != nil {
            log.Fatal().Err(err).Msg("migrations failed")
        }
    }

    posters, err := catalog.LoadPosters(cfg.PostersFile)
    if err != nil {
        log.Fatal().Err(err).Str("file", cfg.PostersFile).Msg("poster table")
    }

    rdb := config.NewRedisClient(ctx) // nil when Redis is not reachable
    if rdb != nil {
        defer rdb.Close()
    }

    users := repository.NewUserRepo(db)
    movies := repository.NewMovieRepo(db)
    showtimes := repository.NewShowtimeRepo(db)
    bookings := repository.NewBookingRepo(db)

    cat := &catalog.Service{
        Movies:    movies,
        Showtimes: showtimes,
        Posters:   posters,
        Logger:    log.With().Str("component", "catalog").Logger(),
    }
    movieH := &handler.MovieHandler{Catalog: cat}
    bookingH := &handler.BookingHandler{
        Processor: &booking.Processor{Showtimes: showtimes, Bookings: bookings},
        Bookings:  bookings,
        Showtimes: showtimes,
        Movies:    movies,
    }

    if cfg.QueueEnabled {
        pub := queue.NewPublisher(cfg.RabbitURL)
        defer pub.Close()
        bookingH.Notifier = pub

        consumer := &queue.Consumer{URL: cfg.RabbitURL}
        go func() {
            if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
                log.Error().Err(err).Msg("booking consumer stopped")
            }
        }()
    }

    e := router.New(router.Deps{
        Cfg:       cfg,
        Cache:     config.LoadCacheConfig(),
        RateLimit: config.LoadRateLimitConfig(),
        Redis:     rdb,
        DB:        db,
        Users:     users,
        Auth:      handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(db)),
        Movies:    movieH,
        Bookings:  bookingH,
        Admin:     &handler.AdminHandler{Catalog: cat, Movies: movieH},
    })

    addr := ":" + cfg.Port
    go func() {
        log.Info().Str("addr", addr).Str("env", cfg.Env).Int("posters", posters.Len()).Msg("listening")
        if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Fatal().Err(err).Msg("server error")
        }
    }()

    <-ctx.Done()
    log.Info().Msg("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        log.Error().Err(err).Msg("shutdown")
    }
}

// setupLogger sets the global zerolog level and, outside production, a
// human readable console writer.
func setupLogger(cfg config.Config) {
    level, err := zerolog.ParseLevel(cfg.LogLevel)
    if err != nil || level == zerolog.NoLevel {
        level = zerolog.InfoLevel
    }
    zerolog.SetGlobalLevel(level)
    zerolog.TimeFieldFormat = time.RFC3339
    if cfg.Env != "prod" {
        log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
    }
}
