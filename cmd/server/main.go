package main

import (
	"log"

	"go.uber.org/zap"

	"notifyhub/config"
	"notifyhub/internal/api"
	"notifyhub/internal/auth"
	"notifyhub/internal/directory"
	"notifyhub/internal/dispatch"
	"notifyhub/internal/history"
	"notifyhub/internal/realtime"
	"notifyhub/internal/sender"
	"notifyhub/pkg/logger"
	"notifyhub/pkg/mq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl := logger.New()
	defer zl.Sync()

	dir := directory.New(cfg.Users)
	hist := history.NewStore()
	hub := realtime.NewHub(zl)

	emailSender, err := sender.NewPostmarkSender(cfg.Email)
	if err != nil {
		zl.Fatal("email sender init failed", zap.Error(err))
	}
	smsSender, err := sender.NewTwilioSender(cfg.SMS)
	if err != nil {
		zl.Fatal("sms sender init failed", zap.Error(err))
	}

	// An unreachable broker is degraded mode, not a startup failure:
	// email/SMS requests fall back to direct synchronous sends.
	var broker dispatch.Broker
	publisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Queue)
	if err != nil {
		zl.Warn("broker unavailable, running in direct-send mode", zap.Error(err))
	} else {
		broker = publisher
		defer publisher.Close()
	}

	dispatcher := dispatch.New(dispatch.Deps{
		Directory: dir,
		History:   hist,
		Realtime:  hub,
		Broker:    broker,
		Email:     emailSender,
		SMS:       smsSender,
		Queue:     cfg.MQ.Queue,
		Logger:    zl,
	})

	authService := auth.NewService(dir, cfg.JWT.Secret)

	router := api.NewRouter(
		api.NewAuthHandler(authService),
		api.NewNotificationHandler(dispatcher, hist),
		api.NewWSHandler(hub, zl),
		authService,
	)

	zl.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		zl.Fatal("server start failed", zap.Error(err))
	}
}
