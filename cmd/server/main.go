package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"healthchain/internal/accessrequest"
	accessrequesthandler "healthchain/internal/accessrequest/handler"
	"healthchain/internal/audit"
	"healthchain/internal/bounty"
	bountyhandler "healthchain/internal/bounty/handler"
	"healthchain/internal/dataset"
	datasethandler "healthchain/internal/dataset/handler"
	"healthchain/internal/identity"
	identityhandler "healthchain/internal/identity/handler"
	"healthchain/internal/jwttoken"
	"healthchain/internal/platform/config"
	"healthchain/internal/platform/httpserver"
	"healthchain/internal/platform/logger"
	"healthchain/internal/platform/metrics"
	platformredis "healthchain/internal/platform/redis"
	"healthchain/internal/record"
	recordhandler "healthchain/internal/record/handler"
	httptransport "healthchain/internal/transport/http"
	id "healthchain/pkg/domain"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Audit trail: Postgres when a DSN is configured, in-process otherwise.
	var auditStore audit.Store
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store, err := audit.NewPostgresStore(db)
		if err != nil {
			log.Error("audit store init failed", "error", err)
			os.Exit(1)
		}
		auditStore = store
	} else {
		auditStore = audit.NewInMemoryStore()
	}

	// Sharing index: Redis when configured, in-process otherwise.
	healthChecks := map[string]httptransport.HealthChecker{}
	var sharedIndex record.SharedIndex = record.NewInMemoryIndex()
	if cfg.RedisURL != "" {
		client, err := platformredis.New(cfg.Redis())
		if err != nil {
			log.Error("redis connect failed", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		sharedIndex = record.NewRedisIndex(client)
		healthChecks["redis"] = client
	}

	profileStore := identity.NewInMemory()

	recorderOpts := []audit.RecorderOption{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaAuditTopic, log, m)
		if err != nil {
			log.Error("kafka connect failed", "error", err)
			os.Exit(1)
		}
		g.Go(func() error { return publisher.Run(ctx) })
		recorderOpts = append(recorderOpts, audit.WithSink(publisher))
	}
	recorder := audit.NewRecorder(auditStore, profileStore, log, recorderOpts...)

	identityOpts := []identity.Option{identity.WithMetrics(m)}
	if cfg.BootstrapAdmin != "" {
		identityOpts = append(identityOpts, identity.WithBootstrapAdmin(id.UserID(cfg.BootstrapAdmin)))
	}
	identitySvc := identity.NewService(profileStore, recorder, log, identityOpts...)

	recordStore := record.NewInMemory()
	recordSvc := record.NewService(recordStore, sharedIndex, identitySvc, recorder, log, record.WithMetrics(m))

	requestSvc := accessrequest.NewService(
		accessrequest.NewInMemory(), recordStore, recordSvc, identitySvc, recorder, log,
		accessrequest.WithMetrics(m),
	)

	datasetSvc := dataset.NewService(dataset.NewInMemory(), identitySvc, recorder, log)
	bountySvc := bounty.NewService(bounty.NewInMemoryLedger(), identitySvc, recorder, log)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)

	router := httptransport.NewRouter(
		httptransport.Options{
			Logger:       log,
			Metrics:      m,
			Validator:    jwttoken.NewJWTServiceAdapter(jwtService),
			HealthChecks: healthChecks,
		},
		identityhandler.New(identitySvc, log),
		recordhandler.New(recordSvc, log),
		accessrequesthandler.New(requestSvc, log),
		datasethandler.New(datasetSvc, log),
		bountyhandler.New(bountySvc, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	g.Go(func() error {
		log.Info("starting healthchain", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
