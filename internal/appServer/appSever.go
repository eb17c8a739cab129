// launching the server, redis, kafka, storage
package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/memeditor/config"
	"github.com/ds124wfegd/memeditor/internal/database"
	redisCache "github.com/ds124wfegd/memeditor/internal/database/redis"
	"github.com/ds124wfegd/memeditor/internal/pkg/compositor"
	"github.com/ds124wfegd/memeditor/internal/pkg/kafka"
	"github.com/ds124wfegd/memeditor/internal/pkg/source"
	"github.com/ds124wfegd/memeditor/internal/pkg/storage"
	"github.com/ds124wfegd/memeditor/internal/service"
	"github.com/ds124wfegd/memeditor/internal/transport"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// NewCompositor builds the compositor with the bundled fonts plus any fonts
// found in cfg.FontsDir.
func NewCompositor(cfg config.EditorConfig) *compositor.Compositor {
	fonts := compositor.NewFonts()
	if cfg.FontsDir != "" {
		n, err := fonts.LoadDir(cfg.FontsDir)
		if err != nil {
			logrus.WithError(err).WithField("dir", cfg.FontsDir).Warn("failed to load fonts")
		} else {
			logrus.WithFields(logrus.Fields{"dir": cfg.FontsDir, "count": n}).Info("fonts loaded")
		}
	}

	compCfg := compositor.DefaultConfig()
	if cfg.BannerMaxSize > 0 {
		compCfg.BannerMaxSize = cfg.BannerMaxSize
	}
	if cfg.BannerMargin > 0 {
		compCfg.BannerMargin = cfg.BannerMargin
	}
	return compositor.New(fonts, compCfg)
}

// newCatalogCache returns nil when Redis is disabled or unreachable; the
// catalog then always goes to the network.
func newCatalogCache(cfg *config.Config) (*redis.Client, source.CatalogCache) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).WithField("addr", cfg.Redis.Addr).Warn("redis unavailable, catalog cache disabled")
		client.Close()
		return nil, nil
	}
	logrus.WithField("addr", cfg.Redis.Addr).Info("connected to redis")
	return client, redisCache.NewCatalogCache(client, cfg.Catalog.CacheTTL)
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(new(logrus.JSONFormatter))

	fileStorage := storage.NewFileStorage(cfg.Storage.BasePath)
	exportRepo := database.NewExportRepository(fileStorage)
	kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	redisClient, cache := newCatalogCache(cfg)

	httpClient := &http.Client{Timeout: cfg.Catalog.Timeout}
	var catalogOpts []source.CatalogOption
	if cache != nil {
		catalogOpts = append(catalogOpts, source.WithCache(cache))
	}
	catalog := source.NewCatalogClient(cfg.Catalog.URL, httpClient, catalogOpts...)
	fetcherOpts := []source.FetcherOption{source.WithMaxPixels(cfg.Editor.MaxImagePixels)}
	if cfg.Editor.AllowPrivateURL {
		fetcherOpts = append(fetcherOpts, source.WithPrivateNetworks())
	}
	fetcher := source.NewFetcher(&http.Client{Timeout: cfg.Catalog.Timeout}, cfg.Editor.MaxUploadBytes, fetcherOpts...)

	editorService := service.NewEditorService(NewCompositor(cfg.Editor), catalog, fetcher, exportRepo, kafkaProducer,
		service.Options{
			MaxUploadBytes: cfg.Editor.MaxUploadBytes,
			DownloadName:   cfg.Editor.DownloadName,
			JitterMax:      cfg.Editor.JitterMax,
			JitterSeed:     cfg.Editor.JitterSeed,
			MaxImagePixels: cfg.Editor.MaxImagePixels,
			SessionTTL:     cfg.Editor.SessionTTL,
			MaxSessions:    cfg.Editor.MaxSessions,
		})
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go editorService.RunJanitor(janitorCtx, cfg.Editor.JanitorInterval)
	catalogService := service.NewCatalogService(catalog)

	editorHandler := transport.NewEditorHandler(editorService)
	catalogHandler := transport.NewCatalogHandler(catalogService)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(editorHandler, catalogHandler, cfg.Server.RequestTimeout)); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
	if err := kafkaProducer.Close(); err != nil {
		logrus.Errorf("error occured on kafka producer close: %s", err.Error())
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logrus.Errorf("error occured on redis close: %s", err.Error())
		}
	}
}
