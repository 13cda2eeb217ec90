// Command migrate applies the embedded schema migrations.
//
// Usage:
//
//	migrate [-database URL] up|down|version
//	migrate [-database URL] steps N
//	migrate [-database URL] force V
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"retailops/internal/infrastructure/config"
	"retailops/internal/infrastructure/storage/postgres"
	"retailops/pkg/logger"
)

func main() {
	databaseURL := flag.String("database", "", "database URL (defaults to database.url from config)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-database URL] up|down|version|steps N|force V\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	url := *databaseURL
	if url == "" {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalw("failed to load config", "error", err)
		}
		url = cfg.Database.URL
	}
	if url == "" {
		log.Fatal("database URL is required (set -database or RETAILOPS_DATABASE_URL)")
	}

	if err := run(context.Background(), url, flag.Args()); err != nil {
		log.Fatalw("migration failed", "command", flag.Arg(0), "error", err)
	}
}

func run(ctx context.Context, url string, args []string) error {
	mg, err := postgres.NewMigrator(url)
	if err != nil {
		return err
	}
	defer func() {
		if err := mg.Close(); err != nil {
			logger.Warn(ctx, "close migrator", "error", err)
		}
	}()

	switch args[0] {
	case "up":
		return mg.Up(ctx)
	case "down":
		return mg.Down(ctx)
	case "steps":
		n, err := intArg(args, "steps")
		if err != nil {
			return err
		}
		return mg.Steps(ctx, n)
	case "force":
		v, err := intArg(args, "force")
		if err != nil {
			return err
		}
		return mg.Force(ctx, v)
	case "version":
		v, dirty, err := mg.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version %d (dirty: %t)\n", v, dirty)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func intArg(args []string, cmd string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s requires a numeric argument", cmd)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", cmd, args[1])
	}
	return n, nil
}
