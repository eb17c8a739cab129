package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/ds124wfegd/memeditor/config"
	"github.com/ds124wfegd/memeditor/internal/database"
	"github.com/ds124wfegd/memeditor/internal/pkg/processor"
	"github.com/ds124wfegd/memeditor/internal/pkg/storage"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	viperInstance, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Cannot load config. Error: {%s}", err.Error())
	}
	cfg, err := config.ParseConfig(viperInstance)
	if err != nil {
		logrus.Fatalf("Cannot parse config. Error: {%s}", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo := database.NewExportRepository(storage.NewFileStorage(cfg.Storage.BasePath))
	processor.StartExportConsumer(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, processor.NewExportProcessor(repo))
}
