package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/banshee-data/activity.report/internal/api"
	"github.com/banshee-data/activity.report/internal/db"
	"github.com/banshee-data/activity.report/internal/monitoring"
	"github.com/banshee-data/activity.report/internal/version"
)

const serviceName = "activity-report"

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "analyze":
		handleAnalyze(args)
	case "serve":
		handleServe(args)
	case "migrate":
		handleMigrate(args)
	case "version":
		fmt.Println(version.Current().String())
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`activity-report - wrist accelerometer wear, activity and sleep analysis

Usage: activity-report <command> [options]

Commands:
  analyze    Analyse one recording or a directory of recordings
  serve      Serve stored runs over HTTP
  migrate    Manage the run database schema (up, down, version, force N, to N, status)
  version    Show version
  help       Show this help message

Examples:
  # Analyse a directory, writing every report format and storing runs
  activity-report analyze -in ./data -out ./results -db runs.db

  # Only JSON and CSV, using a tuned config
  activity-report analyze -in ./data -out ./results -formats json,csv -config tuning.json

  # Browse stored runs
  activity-report serve -listen :8080 -db runs.db`)
}

// setupLogging installs the log sink selected by format. The returned
// function flushes it.
func setupLogging(format, level string) (monitoring.LogFunc, func(), error) {
	switch format {
	case "", "std":
		return monitoring.Logf, func() {}, nil
	case "json", "console":
		logger, err := monitoring.NewZapLogger(level, format, serviceName)
		if err != nil {
			return nil, nil, err
		}
		logf := monitoring.ZapLogf(logger)
		monitoring.SetLogger(logf)
		return logf, func() { _ = logger.Sync() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown log format %q (want json, console or std)", format)
	}
}

func handleAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	opts := analyzeOptions{}
	fs.StringVar(&opts.In, "in", "", "Input CSV file or directory (required)")
	fs.StringVar(&opts.Out, "out", "results", "Output directory")
	fs.StringVar(&opts.DBPath, "db", "", "SQLite database to store runs in (optional)")
	fs.StringVar(&opts.ConfigPath, "config", "", "Analysis config JSON file")
	fs.IntVar(&opts.Workers, "workers", 0, "Parallel workers (default from config)")
	fs.StringVar(&opts.Formats, "formats", "", "Comma separated report formats: json,csv,txt,xlsx,html,png (default all)")
	fs.StringVar(&opts.Pattern, "pattern", "", "Glob for files in a directory input (default *.csv)")
	fs.StringVar(&opts.TZ, "tz", "UTC", "Time zone of the recording timestamps")
	logFormat := fs.String("log-format", "std", "Log format: json, console or std")
	logLevel := fs.String("log-level", "info", "Log level for json and console formats")
	fs.Parse(args)

	if opts.In == "" {
		fs.Usage()
		log.Fatal("-in is required")
	}
	logf, flush, err := setupLogging(*logFormat, *logLevel)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer flush()
	opts.Logf = logf

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := runAnalyze(ctx, opts, os.Stdout)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
	if summary.Successful == 0 {
		flush()
		os.Exit(2)
	}
}

func handleServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	listen := fs.String("listen", ":8080", "Listen address")
	dbPath := fs.String("db", "activity.db", "SQLite database of stored runs")
	logFormat := fs.String("log-format", "std", "Log format: json, console or std")
	fs.Parse(args)

	logf, flush, err := setupLogging(*logFormat, "info")
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer flush()

	store, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()
	store.Logf = logf

	apiServer := api.NewServer(store, logf)
	mux := apiServer.ServeMux()
	if err := store.AttachAdminRoutes(mux); err != nil {
		log.Fatalf("Failed to attach admin routes: %v", err)
	}

	server := &http.Server{
		Addr:              *listen,
		Handler:           apiServer.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logf("HTTP server shutdown error: %v", err)
		}
	}()

	logf("listening on %s (%s)", *listen, version.Current().String())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func handleMigrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dbPath := fs.String("db", "activity.db", "SQLite database of stored runs")
	fs.Parse(args)

	if fs.NArg() < 1 {
		log.Fatal("Usage: activity-report migrate [-db path] up|down|version|status|force N|to N")
	}
	store, err := db.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := runMigrate(store, fs.Args(), os.Stdout); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
}

// runMigrate executes one migrate action against an opened database.
func runMigrate(store *db.DB, args []string, out io.Writer) error {
	versionArg := func() (int, error) {
		if len(args) < 2 {
			return 0, fmt.Errorf("%s needs a version number", args[0])
		}
		v, err := strconv.Atoi(args[1])
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid version %q", args[1])
		}
		return v, nil
	}

	switch args[0] {
	case "up":
		if err := store.MigrateUp(); err != nil {
			return err
		}
		fmt.Fprintln(out, "All migrations applied")
	case "down":
		if err := store.MigrateDown(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Rolled back one migration")
	case "version":
		v, dirty, err := store.MigrateVersion()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "version %d (dirty: %v)\n", v, dirty)
	case "status":
		s, err := store.GetMigrationStatus()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "current %d, latest %d, dirty %v, pending %v\n", s.CurrentVersion, s.LatestVersion, s.Dirty, s.Pending())
	case "force":
		v, err := versionArg()
		if err != nil {
			return err
		}
		if err := store.MigrateForce(v); err != nil {
			return err
		}
		fmt.Fprintf(out, "Forced version %d\n", v)
	case "to":
		v, err := versionArg()
		if err != nil {
			return err
		}
		if err := store.MigrateTo(uint(v)); err != nil {
			return err
		}
		fmt.Fprintf(out, "Migrated to version %d\n", v)
	default:
		return fmt.Errorf("unknown migrate action %q", args[0])
	}
	return nil
}
