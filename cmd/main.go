package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"pushgate/internal/config"
	"pushgate/internal/handlers"
	"pushgate/internal/logger"
	"pushgate/internal/middleware"
	"pushgate/internal/runner"
	"pushgate/internal/runs"
	"pushgate/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const (
	FlagConfig = "config"
	EnvConfig  = "PUSHGATE_CONFIG"
	FlagListen = "listen"
	EnvListen  = "PUSHGATE_LISTEN"
)

func main() {
	cmd := cli.Command{
		Name:  "pushgate",
		Usage: "gate push events into build, test and publish jobs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    FlagConfig,
				Aliases: []string{"c"},
				Sources: cli.EnvVars(EnvConfig),
				Usage:   "Path to a TOML config `FILE`.",
			},
			&cli.StringFlag{
				Name:    FlagListen,
				Aliases: []string{"l"},
				Sources: cli.EnvVars(EnvListen),
				Usage:   "Listen `ADDRESS`, overrides the config file.",
			},
		},
		Action: serve,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("ERROR: %v", err)
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String(FlagConfig))
	if err != nil {
		return err
	}
	if addr := cmd.String(FlagListen); addr != "" {
		cfg.Listen = addr
	}

	logger.InitLogger()
	defer logger.Lg.Sync()

	if err := store.Open(cfg.DBPath, cfg.RedisAddr); err != nil {
		return err
	}
	store.CreateTable(store.Db) //ignores if already exists btw

	r := runs.NewRepo(store.Db, store.Rdb)
	cargo := runner.NewCargoRunner(cfg.CargoBin, cfg.WorkDir)
	dispatcher := runner.NewDispatcher(cargo, r, cfg.RegistryToken)
	service := runs.NewService(r, dispatcher)

	workerCtx, cancel := context.WithCancel(ctx)
	wg := &sync.WaitGroup{}

	wg.Add(1)
	go dispatcher.Worker(workerCtx, wg)

	app := fiber.New()
	app.Use(middleware.RequestLogger())
	h := handlers.NewHTTP(service)

	// endpoints
	app.Post("/events", h.PostEvent)
	app.Get("/runs/:id", h.GetRunById)
	app.Get("/runs", h.GetRuns)

	go func() {
		if err := app.Listen(cfg.Listen); err != nil {
			logger.Lg.Info("Server stopped", zap.Error(err))
		}
	}()

	GracefulShutdown(app, cancel, wg)
	logger.Lg.Info("Shutdown complete")
	return nil
}

func GracefulShutdown(app *fiber.App, cancel context.CancelFunc, wg *sync.WaitGroup) {
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	<-sigchan
	logger.Lg.Info("Shutdown sig rcv")
	cancel()
	if err := store.Db.Close(); err != nil {
		logger.Lg.Error("db close error", zap.Error(err))
	}
	if err := app.Shutdown(); err != nil {
		logger.Lg.Error("Server shutdown error", zap.Error(err))
	}
	wg.Wait()
}
