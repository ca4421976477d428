// Command ingest loads a movie catalog file into the database and can
// backfill poster URLs from the poster table.
//
//	ingest -file movies.json
//	ingest -posters [-posters-file posters.json]
package main

import (
    "context"
    "encoding/json"
    "flag"
    "fmt"
    "io"
    "os"
    "os/signal"
    "syscall"

    "github.com/joho/godotenv"
    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"

    "github.com/iliyamo/movie-booking/internal/catalog"
    "github.com/iliyamo/movie-booking/internal/config"
    "github.com/iliyamo/movie-booking/internal/database"
    "github.com/iliyamo/movie-booking/internal/repository"
)

type options struct {
    file        string
    backfill    bool
    postersFile string
    migrate     bool
}

func main() {
    var opts options
    flag.StringVar(&opts.file, "file", "", "catalog JSON file to ingest")
    flag.BoolVar(&opts.backfill, "posters", false, "copy poster table URLs onto matching movies")
    flag.StringVar(&opts.postersFile, "posters-file", os.Getenv("POSTERS_FILE"), "poster table JSON (embedded table when empty)")
    flag.BoolVar(&opts.migrate, "migrate", false, "apply migrations before running")
    flag.Parse()

    _ = godotenv.Load() // best-effort
    log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

    if opts.file == "" && !opts.backfill {
        flag.Usage()
        os.Exit(2)
    }
    if err := run(opts, os.Stdout); err != nil {
        log.Error().Err(err).Msg("ingest failed")
        os.Exit(1)
    }
}

// run executes the requested steps and writes each report to out as
// indented JSON.  A report is written even when its step fails part way.
func run(opts options, out io.Writer) error {
    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    dbc, err := config.LoadDatabaseFrom(os.LookupEnv)
    if err != nil {
        return fmt.Errorf("invalid configuration: %w", err)
    }
    db, err := database.Open(dbc.User, dbc.Pass, dbc.Host, dbc.Port, dbc.Name)
    if err != nil {
        return fmt.Errorf("db connect: %w", err)
    }
    defer db.Close()
    if opts.migrate {
        if err := database.MigrateUp(db); err != nil {
            return fmt.Errorf("migrations: %w", err)
        }
    }

    posters, err := catalog.LoadPosters(opts.postersFile)
    if err != nil {
        return fmt.Errorf("poster table: %w", err)
    }
    svc := &catalog.Service{
        Movies:    repository.NewMovieRepo(db),
        Showtimes: repository.NewShowtimeRepo(db),
        Posters:   posters,
        Logger:    log.Logger,
    }

    if opts.file != "" {
        f, err := os.Open(opts.file)
        if err != nil {
            return fmt.Errorf("open catalog: %w", err)
        }
        entries, err := catalog.Decode(f)
        f.Close()
        if err != nil {
            return fmt.Errorf("decode %s: %w", opts.file, err)
        }
        rep, err := svc.Ingestor().Ingest(ctx, entries)
        if err := writeReport(out, rep); err != nil {
            return err
        }
        if err != nil {
            return fmt.Errorf("ingestion aborted: %w", err)
        }
    }

    if opts.backfill {
        rep, err := svc.BackfillPosters(ctx)
        if err := writeReport(out, rep); err != nil {
            return err
        }
        if err != nil {
            return fmt.Errorf("poster backfill aborted: %w", err)
        }
    }
    return nil
}

func writeReport(out io.Writer, rep any) error {
    enc := json.NewEncoder(out)
    enc.SetIndent("", "  ")
    if err := enc.Encode(rep); err != nil {
        return fmt.Errorf("write report: %w", err)
    }
    return nil
}
