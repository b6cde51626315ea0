package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/checkers-arena-go/internal/api"
	appcfg "github.com/kapu/checkers-arena-go/internal/config"
	"github.com/kapu/checkers-arena-go/internal/hub"
	"github.com/kapu/checkers-arena-go/internal/msgcat"
	"github.com/kapu/checkers-arena-go/internal/obslog"
	"github.com/kapu/checkers-arena-go/internal/profile"
	"github.com/kapu/checkers-arena-go/internal/render"
	"github.com/kapu/checkers-arena-go/internal/room"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}

	messages, err := msgcat.New(cfg.MsgOverrideDir)
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}

	registry := room.NewRegistry(room.Config{
		CodeLen:          cfg.RoomCodeLen,
		ReactionTTL:      cfg.ReactionTTL,
		MandatoryCapture: cfg.MandatoryCapture,
	})

	h := hub.New(registry, messages)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	server := api.New(
		h,
		registry,
		profile.NewClient(cfg.ProfileAPIBase),
		render.NewSVGBoardRenderer(),
		messages,
		cfg.PublicDir,
	)

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		obslog.L().Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			obslog.L().Fatal("http server", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	obslog.L().Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)

	h.Close()
	cancel()
	registry.Close()
}
