package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"charitylottery/internal/config"
	"charitylottery/internal/epoch"
	"charitylottery/internal/handlers"
	"charitylottery/internal/scheduler"
	"charitylottery/internal/seed"
	"charitylottery/internal/services"
	"charitylottery/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:   "charitylottery",
		Usage:  "periodic charity lottery ledger",
		Flags:  config.Flags(),
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c)
	if err != nil {
		return err
	}

	// 1. Logging
	logOut := io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	defer logger.Init("charitylottery", cfg.Verbose, false, logOut).Close()

	// 2. Storage
	var store storage.Store
	if cfg.Memory {
		store = storage.NewMemoryStore()
	} else {
		store, err = storage.NewBoltStore(cfg.DBDir)
		if err != nil {
			return err
		}
	}
	defer store.Close()
	logger.Infof("Using %s store", store.Type())

	// 3. Lottery services
	clock, err := epoch.NewWallClock(cfg.EpochGenesis, cfg.EpochLength)
	if err != nil {
		return err
	}
	lotteryService := services.NewLotteryService(store, seed.CryptoSource{}, clock,
		services.WithEpochSlack(cfg.EpochSlack),
		services.WithDefaultGuide(cfg.DefaultGuide),
	)
	if err := lotteryService.Bootstrap(c.Context); err != nil {
		return err
	}
	charityService := services.NewCharityService(store)

	// 4. Draw scheduler
	sched, err := scheduler.New(lotteryService, cfg.DrawSchedule)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	// 5. HTTP routes
	httpHandler := handlers.NewHTTPHandler(lotteryService, charityService)
	r := gin.Default()
	httpHandler.RegisterPublicRoutes(r)
	ownerRoutes := r.Group("/")
	ownerRoutes.Use(httpHandler.OwnerMiddleware())
	httpHandler.RegisterOwnerRoutes(ownerRoutes)

	srv := &http.Server{Addr: cfg.Port, Handler: r}
	go func() {
		logger.Infof("Server starting on %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to run server: %v", err)
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	<-signals

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
