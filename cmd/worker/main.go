package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"notifyhub/config"
	"notifyhub/internal/directory"
	"notifyhub/internal/mqhandler"
	"notifyhub/internal/sender"
	"notifyhub/pkg/logger"
	"notifyhub/pkg/mq"
	redisclient "notifyhub/pkg/redis"
	"notifyhub/pkg/util"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl := logger.New()
	defer zl.Sync()

	zl.Info("Starting delivery worker...")

	rdb := redisclient.NewClient(cfg.Redis)
	defer rdb.Close()

	retries := util.NewRetryCounter(rdb, 24*time.Hour)

	dir := directory.New(cfg.Users)

	emailSender, err := sender.NewPostmarkSender(cfg.Email)
	if err != nil {
		zl.Fatal("email sender init failed", zap.Error(err))
	}
	smsSender, err := sender.NewTwilioSender(cfg.SMS)
	if err != nil {
		zl.Fatal("sms sender init failed", zap.Error(err))
	}

	// Unlike the server, the worker is useless without the broker.
	dlqPublisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Queue)
	if err != nil {
		zl.Fatal("failed to init DLQ publisher", zap.Error(err))
	}
	defer dlqPublisher.Close()

	consumer, err := mq.NewConsumer(cfg.MQ.URL, cfg.MQ.Queue, zl)
	if err != nil {
		zl.Fatal("failed to init consumer", zap.Error(err))
	}
	defer consumer.Close()

	handler := mqhandler.NewNotificationDeliveryHandler(dir, emailSender, smsSender, zl)
	consumer.SetHandler(handler.Handle)
	consumer.SetRetryPolicy(retries, cfg.MQ.MaxRetries, dlqPublisher)

	go func() {
		if err := consumer.StartConsuming(); err != nil {
			zl.Fatal("consumer failed", zap.Error(err))
		}
	}()

	zl.Info("Worker ready, waiting for messages", zap.String("queue", cfg.MQ.Queue))

	// On shutdown, in-flight unacked messages are redelivered by the
	// broker; no drain logic is needed.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("Worker shutting down")
}
