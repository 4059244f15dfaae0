package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"relmap/internal/codec"
	"relmap/internal/config"
	"relmap/internal/logging"
	"relmap/internal/repository/sqlite"
	"relmap/internal/schema"
	"relmap/internal/service"
)

const usage = `usage: relmap [-config path] [ownership|tree|all]`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "relmap:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("relmap", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "config file (default: search RELMAP_CONFIG, ./relmap.yaml, XDG, /etc)")
	flags.Usage = func() {
		fmt.Fprintln(stderr, usage)
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}

	flow := "all"
	switch flags.NArg() {
	case 0:
	case 1:
		flow = flags.Arg(0)
	default:
		return errors.New(usage)
	}
	if flow != "all" && flow != "ownership" && flow != "tree" {
		return fmt.Errorf("unknown flow %q\n%s", flow, usage)
	}

	cfg, path, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(zerolog.SyncWriter(stderr), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	if path == "" {
		log.Debug().Msg("no config file found, using defaults")
	} else {
		log.Debug().Str("path", path).Msg("config loaded")
	}
	log.Info().Str("flow", flow).Msg(cfg.Summary())

	eventBus := service.NewEventBus()
	events := make(chan service.Event, 100)
	eventBus.Subscribe(events)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range events {
			log.Info().Str("event", string(event.Type)).Fields(event.Payload).Msg("event")
		}
	}()
	defer func() {
		close(events)
		<-done
	}()

	if flow == "all" || flow == "ownership" {
		if err := runOwnership(ctx, cfg, log, eventBus, stdout); err != nil {
			return fmt.Errorf("ownership: %w", err)
		}
	}
	if flow == "all" || flow == "tree" {
		if err := runTree(ctx, cfg, log, eventBus, stdout); err != nil {
			return fmt.Errorf("tree: %w", err)
		}
	}
	return nil
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

func openStore(cfg *config.Config, log zerolog.Logger, path string, s schema.Schema) (*sqlite.Store, error) {
	model, err := schema.Compile(s)
	if err != nil {
		return nil, err
	}

	if cfg.Database.Fresh {
		if err := sqlite.Reset(path); err != nil {
			return nil, err
		}
	}

	store, err := sqlite.Open(path, model, sqlite.Options{
		ForeignKeys:      cfg.Database.ForeignKeys,
		SharedConnection: cfg.Database.SharedConnection,
		Logger:           &log,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", store.Path()).Str("schema", store.Model().Name()).Msg("database opened")
	return store, nil
}

func runOwnership(ctx context.Context, cfg *config.Config, log zerolog.Logger, eventBus *service.EventBus, w io.Writer) error {
	store, err := openStore(cfg, log, cfg.Ownership.Database, schema.Ownership())
	if err != nil {
		return err
	}
	defer store.Close()

	svc, err := service.NewOwnershipService(store, eventBus)
	if err != nil {
		return err
	}
	return svc.Run(ctx, w)
}

func runTree(ctx context.Context, cfg *config.Config, log zerolog.Logger, eventBus *service.EventBus, w io.Writer) error {
	seed, err := codec.LoadSeed(cfg.Tree.Seed)
	if err != nil {
		return err
	}

	store, err := openStore(cfg, log, cfg.Tree.Database, schema.Tree())
	if err != nil {
		return err
	}
	defer store.Close()

	svc, err := service.NewTreeService(store, eventBus)
	if err != nil {
		return err
	}
	return svc.Run(ctx, w, seed)
}
