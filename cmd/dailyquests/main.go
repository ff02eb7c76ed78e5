// Command dailyquests drives the daily task engine against a YAML world, for
// balance checks and save debugging without a game client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"dailyquests/internal/config"
	"dailyquests/internal/host"
	"dailyquests/internal/logging"
	"dailyquests/internal/quest"
	"dailyquests/internal/storage"
	"dailyquests/internal/telemetry"
)

type app struct {
	settings *config.Settings
	log      *zap.Logger
	world    *host.MemoryWorld
	svc      *quest.Service
	events   *telemetry.MemoryRepository
	metrics  *prometheus.Registry

	seen int
}

func main() {
	global := flag.NewFlagSet("dailyquests", flag.ContinueOnError)
	settingsPath := global.String("settings", "", "settings file (yaml)")
	if err := global.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		printUsage()
		os.Exit(2)
	}

	if err := run(context.Background(), *settingsPath, cmd, args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", args[0], err)
		os.Exit(1)
	}
}

func run(ctx context.Context, settingsPath string, cmd command, args []string) error {
	s, err := config.LoadSettings(settingsPath)
	if err != nil {
		return err
	}
	log, err := newLogger(s)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cat, err := config.LoadCatalog(s.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	world, err := host.LoadWorld(s.WorldPath)
	if err != nil {
		return fmt.Errorf("load world: %w", err)
	}

	store, closer, err := storage.Open(ctx, s.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer closer.Close()

	reg := prometheus.NewRegistry()
	events := telemetry.NewMemoryRepository()
	rec := telemetry.NewRecorder(events, telemetry.NewMetrics(reg), log)

	a := &app{
		settings: s,
		log:      log,
		world:    world,
		events:   events,
		metrics:  reg,
		svc: quest.NewService(quest.Options{
			Catalog:   cat,
			Host:      world.Host(),
			Store:     store,
			Namespace: s.Storage.Namespace,
			Key:       s.Storage.Key,
			Logger:    log,
			Rand:      quest.NewRand(s.Seed),
			Recorder:  rec,
		}),
	}
	a.seen = len(world.Messages())

	if err := a.svc.Initialize(ctx); err != nil {
		return err
	}
	cmdErr := cmd(ctx, a, args)
	a.flushMessages()

	if err := world.SaveWorld(s.WorldPath); err != nil {
		return errors.Join(cmdErr, fmt.Errorf("save world: %w", err))
	}
	return cmdErr
}

func newLogger(s *config.Settings) (*zap.Logger, error) {
	if s.Dev {
		return logging.NewDevelopment()
	}
	return logging.New(s.LogLevel)
}

// serveMetrics exposes the registry until ctx ends.
func (a *app) serveMetrics(ctx context.Context) {
	if a.settings.MetricsAddr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: a.settings.MetricsAddr, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	go func() {
		a.log.Info("serving metrics", zap.String("addr", a.settings.MetricsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server", zap.Error(err))
		}
	}()
}

// flushMessages prints player notifications raised since the last flush.
func (a *app) flushMessages() {
	msgs := a.world.Messages()
	for _, m := range msgs[a.seen:] {
		fmt.Println(">", m)
	}
	a.seen = len(msgs)
}

func printUsage() {
	fmt.Println("usage: dailyquests [--settings file] <command> [args]")
	fmt.Println()
	fmt.Println("  list                  show the working set")
	fmt.Println("  accept ID             accept a task")
	fmt.Println("  abandon ID            drop an accepted task")
	fmt.Println("  submit ID             hand in items for a submit task")
	fmt.Println("  claim ID              claim a finished task's reward")
	fmt.Println("  refresh               reroll unaccepted tasks")
	fmt.Println("  use ITEM              use one owned item")
	fmt.Println("  kill NAMEKEY [WEAPON] kill an enemy, optionally with a weapon type")
	fmt.Println("  buy AMOUNT            spend cash at the task merchant")
	fmt.Println("  tick                  run the day check once")
	fmt.Println("  run                   tick until interrupted")
}
