// main wires the KYC service: stores, provider clients, the verification
// engine, audit pipeline, and the HTTP surface. Business logic lives in the
// internal packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/rekognition"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"kyc/internal/audit"
	audithandler "kyc/internal/audit/handler"
	customerhandler "kyc/internal/customer/handler"
	"kyc/internal/customer/metrics"
	"kyc/internal/customer/models"
	"kyc/internal/customer/service"
	"kyc/internal/customer/store"
	"kyc/internal/document"
	"kyc/internal/liveness"
	livenesshandler "kyc/internal/liveness/handler"
	"kyc/internal/organisation"
	"kyc/internal/platform/config"
	"kyc/internal/platform/httpserver"
	"kyc/internal/platform/logger"
	"kyc/internal/platform/middleware"
	"kyc/internal/secrets"
	"kyc/internal/verification"
	"kyc/internal/verification/nationalid"
	"kyc/internal/verification/recognition"
	"kyc/internal/verification/registry"
	"kyc/internal/verification/sanctions"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	customers := store.NewPostgres(db)
	if err := customers.Migrate(ctx); err != nil {
		return err
	}
	auditStore := audit.NewPostgresStore(db)
	if err := auditStore.Migrate(ctx); err != nil {
		return err
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	sess, err := session.NewSession(aws.NewConfig().WithRegion(cfg.AWSRegion))
	if err != nil {
		return err
	}
	secretProvider := secrets.NewAWSProvider(sess, cfg.SecretName)

	publisher := audit.NewPublisher(cfg.AuditBuffer, log)
	var sink audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	}
	worker := audit.NewWorker(auditStore, sink, publisher.Inbox(), log)

	directory := organisation.NewDirectory(organisation.NewHTTPFetcher(secretProvider), log)
	if err := directory.Refresh(ctx); err != nil {
		log.Warn("initial organisation refresh failed, starting with an empty directory", "error", err)
	}

	m := metrics.New()
	blobs := document.NewS3Store(sess, cfg.S3Bucket)
	documents := document.NewService(customers, blobs, publisher, m, log)

	engine := verification.NewEngine(log)
	engine.Register(nationalid.New(), verification.Always)
	engine.Register(
		registry.New(registry.NewHTTPClient(), secretProvider, blobs, log),
		verification.RequiresAll(models.DocNationalID))
	engine.Register(
		recognition.New(recognition.NewRekognitionClient(sess, cfg.S3Bucket), log),
		verification.And(
			verification.RequiresAll(models.DocNationalID),
			verification.RequiresAny(models.DocSelfie, models.DocLiveness)))
	engine.Register(
		sanctions.New(sanctions.NewHTTPClient(), secretProvider, log),
		verification.RequiresAll(models.DocNationalID))

	customerService := service.New(customers, engine, directory, documents, publisher, m, log)

	livenessService := liveness.NewService(
		liveness.NewRekognitionProvider(rekognition.New(sess)),
		liveness.NewRedisStore(redisClient),
		customers, documents, log)

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(directory, log))
		customerhandler.New(customerService, documents, log).Register(r)
		livenesshandler.New(livenessService, log).Register(r)
		audithandler.New(auditStore, log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return worker.Run(ctx) })
	group.Go(func() error { return directory.Run(ctx, cfg.OrgRefreshInterval) })
	group.Go(func() error {
		log.Info("kyc server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
