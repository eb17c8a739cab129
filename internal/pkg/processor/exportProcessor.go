package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/memeditor/internal/database"
	"github.com/ds124wfegd/memeditor/internal/entity"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	ThumbnailSize   = 150
	FormatThumbnail = "thumbnail"
)

// ExportProcessor archives stored exports: it renders a thumbnail and marks
// the export metadata archived.
type ExportProcessor interface {
	Process(event entity.ExportEvent) error
}

type exportProcessor struct {
	repo database.ExportRepository
}

func NewExportProcessor(repo database.ExportRepository) ExportProcessor {
	return &exportProcessor{repo: repo}
}

func (p *exportProcessor) Process(event entity.ExportEvent) error {
	export, err := p.repo.FindByID(event.ExportID)
	if err != nil {
		return fmt.Errorf("failed to load export metadata: %w", err)
	}
	if export == nil {
		return fmt.Errorf("export %s: %w", event.ExportID, errNotFound)
	}

	reader, err := p.repo.GetFile(event.ExportID, database.FormatOriginal)
	if err != nil {
		return fmt.Errorf("failed to open export: %w", err)
	}
	img, err := imaging.Decode(reader)
	reader.Close()
	if err != nil {
		return fmt.Errorf("failed to decode export: %w", err)
	}

	thumb := imaging.Thumbnail(img, ThumbnailSize, ThumbnailSize, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	if err := p.repo.SaveFile(event.ExportID, FormatThumbnail, &buf); err != nil {
		return fmt.Errorf("failed to save thumbnail: %w", err)
	}

	export.Status = entity.ExportStatusArchived
	export.Formats = map[string]string{
		database.FormatOriginal: p.repo.GetFilePath(event.ExportID, database.FormatOriginal),
		FormatThumbnail:         p.repo.GetFilePath(event.ExportID, FormatThumbnail),
	}
	if err := p.repo.Save(export); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	return nil
}

var errNotFound = errors.New("not found")

// StartExportConsumer reads export events until ctx is cancelled.
func StartExportConsumer(ctx context.Context, brokers []string, topic, groupID string, processor ExportProcessor) {

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})

	defer reader.Close()

	logrus.WithFields(logrus.Fields{"brokers": brokers, "topic": topic}).Info("export consumer started")

	delay := time.Duration(0)
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logrus.Info("export consumer stopped")
				return
			}
			delay = nextBackoff(delay)
			logrus.WithError(err).WithField("retry_in", delay).Error("error reading message from kafka")
			if !sleepContext(ctx, delay) {
				logrus.Info("export consumer stopped")
				return
			}
			continue
		}
		delay = 0

		var event entity.ExportEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logrus.WithError(err).WithField("offset", msg.Offset).Error("failed to parse export event")
			continue
		}

		entry := logrus.WithFields(logrus.Fields{
			"export_id": event.ExportID,
			"partition": msg.Partition,
			"offset":    msg.Offset,
		})
		if err := processor.Process(event); err != nil {
			entry.WithError(err).Error("archiving failed")
			continue
		}
		entry.Info("export archived")
	}
}

const (
	minReadBackoff = 100 * time.Millisecond
	maxReadBackoff = 10 * time.Second
)

// nextBackoff doubles d within [minReadBackoff, maxReadBackoff].
func nextBackoff(d time.Duration) time.Duration {
	if d < minReadBackoff {
		return minReadBackoff
	}
	d *= 2
	if d > maxReadBackoff {
		return maxReadBackoff
	}
	return d
}

// sleepContext waits for d and reports false if ctx ended first.
func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
