// cmd/enrolld/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CortezCreations/ck-ld-group-enroll/internal/api/routes"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/auth"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/backend"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/backend/rest"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/config"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/dispatch"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/enroll"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/logger"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/store"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/store/leveldb"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/store/sqlstore"
	"go.uber.org/zap"
)

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.Store.Driver == "postgres" {
		return sqlstore.NewClient(cfg.Store)
	}
	return leveldb.NewClient(cfg.Store)
}

func openBackend(cfg *config.Config) backend.LearningBackend {
	if cfg.Backend.Mode == "memory" {
		return backend.NewMemory()
	}
	return rest.NewClient(cfg.Backend)
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	st, err := openStore(cfg)
	if err != nil {
		zlog.Fatal("failed to open task store", zap.Error(err))
	}
	defer st.Close()

	be := openBackend(cfg)

	var (
		dispatcher enroll.Dispatcher
		issuer     *auth.TokenIssuer
		queueDisp  *dispatch.Queue
	)
	switch cfg.Dispatch.Mode {
	case "queue":
		queueDisp, err = dispatch.NewQueue(cfg.Dispatch, zlog)
		if err != nil {
			zlog.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer queueDisp.Close()
		dispatcher = queueDisp
	default:
		issuer = auth.NewTokenIssuer(
			cfg.Dispatch.TokenSecret,
			store.RecordKey,
			time.Duration(cfg.Dispatch.TokenTTLSecs)*time.Second,
		)
		dispatcher = dispatch.NewLoopback(cfg.Dispatch, issuer, zlog)
	}

	service := enroll.NewService(st, be, dispatcher, zlog)

	if queueDisp != nil {
		if err := queueDisp.Subscribe(func(ctx context.Context) {
			if _, err := service.RunStep(ctx); err != nil {
				if _, ok := enroll.IsRecordError(err); !ok {
					zlog.Error("queued step failed", zap.Error(err))
				}
			}
		}); err != nil {
			zlog.Fatal("failed to subscribe to dispatch subject", zap.Error(err))
		}
	}

	router := routes.SetupRouter(service, issuer, zlog)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		zlog.Info("starting server",
			zap.String("port", cfg.Server.Port),
			zap.String("dispatch", cfg.Dispatch.Mode),
			zap.String("store", cfg.Store.Driver),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server stopped", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	zlog.Info("received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zlog.Error("error during server shutdown", zap.Error(err))
	}

	zlog.Info("shutdown complete")
}
