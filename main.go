package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wtlin1228/codecrafters-http-server-go/config"
	"github.com/wtlin1228/codecrafters-http-server-go/filesystem"
	"github.com/wtlin1228/codecrafters-http-server-go/http"
	"github.com/wtlin1228/codecrafters-http-server-go/telemetry"
)

const name = "codecrafters-http-server"

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalln(err)
	}
}

// loadConfig reads the environment and then applies the flags in args.
// Only flags given explicitly override the environment, so an explicit
// --workers 0 is rejected rather than replaced by the default.
func loadConfig(args []string) (*config.Config, error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	var (
		directory = flags.String("directory", "", "directory served by /files/ (disabled when empty)")
		host      = flags.String("host", "", "listen host (default 127.0.0.1)")
		port      = flags.Int("port", 0, "listen port (default 4221)")
		workers   = flags.Int("workers", 0, "worker pool size (default 4)")
		queue     = flags.Int("queue", 0, "pending connection queue size (default 64)")
	)
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if flags.NArg() > 0 {
		cfg.Directory = flags.Arg(0)
	}
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "directory":
			cfg.Directory = *directory
		case "host":
			cfg.Server.Host = *host
		case "port":
			cfg.Server.Port = *port
		case "workers":
			cfg.Pool.Workers = *workers
		case "queue":
			cfg.Pool.QueueSize = *queue
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	logger := telemetry.NewLogger(name, cfg, os.Stderr)
	slog.SetDefault(logger)

	pool, err := http.NewWorkerPool(cfg.Pool.Workers, cfg.Pool.QueueSize, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	server := http.NewServer(name, http.NewDispatcher(filesystem.NewLocalFileSystem()).Handler(), pool, logger)
	server.Directory = cfg.Directory

	if cfg.Directory == "" {
		logger.Info("no served directory, /files/ is unavailable")
	} else {
		logger.Info("serving files", "directory", cfg.Directory)
	}

	err = server.ListenAndServe(ctx, cfg.ServerAddress())
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("server stopped")
		return nil
	}
	return err
}
