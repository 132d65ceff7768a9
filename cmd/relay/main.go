package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexredboyPRO/Synkim/internal/config"
	"github.com/alexredboyPRO/Synkim/internal/handler"
	"github.com/alexredboyPRO/Synkim/internal/hub"
	"github.com/alexredboyPRO/Synkim/internal/service"
	"github.com/alexredboyPRO/Synkim/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(log.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: "relay",
	})
	l := log.L()

	// Room store: in-memory by default, Redis when state must survive
	// relay restarts.
	var store service.RoomStore
	switch cfg.Rooms.Store {
	case "redis":
		redisStore, err := service.NewRedisRoomStore(cfg.Redis)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to initialize redis room store")
		}
		defer redisStore.Close()
		store = redisStore
		l.Info().Str("address", cfg.Redis.Address).Msg("using redis room store")
	default:
		store = service.NewMemoryRoomStore()
		l.Info().Msg("using in-memory room store")
	}

	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run()

	syncSvc := service.NewSyncService(wsHub, store, cfg.Rooms)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := syncSvc.Start(ctx); err != nil {
		l.Fatal().Err(err).Msg("failed to start sync service")
	}
	defer syncSvc.Stop()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(log.GinMiddleware(l), gin.Recovery())

	handler.NewWSHandler(wsHub, syncSvc, cfg).RegisterRoutes(router)
	handler.NewHTTPHandler(syncSvc).RegisterRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		l.Info().Str("addr", server.Addr).Msg("relay listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info().Msg("shutting down relay")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Warn().Err(err).Msg("server forced to shutdown")
	}

	l.Info().Msg("relay stopped")
}
