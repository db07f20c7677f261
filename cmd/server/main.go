// Command server runs the case-management HTTP API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"casefile/internal/access"
	caseservice "casefile/internal/cases/service"
	casestore "casefile/internal/cases/store"
	"casefile/internal/identity"
	"casefile/internal/investigation"
	"casefile/internal/judiciary"
	"casefile/internal/payments"
	"casefile/internal/platform/config"
	"casefile/internal/platform/httpserver"
	"casefile/internal/platform/logger"
	"casefile/internal/platform/metrics"
	"casefile/internal/platform/middleware"
	"casefile/internal/platform/postgres"
	platformredis "casefile/internal/platform/redis"
	"casefile/internal/rewards"
	"casefile/internal/timeline"
	httptransport "casefile/internal/transport/http"
	"casefile/internal/wanted"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	} else {
		log.Warn("CASEFILE_DATABASE_URL not set, running with in-memory storage")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	m := metrics.New()

	// Timeline: store-backed recorder, optionally mirrored to Kafka.
	var timelineStore timeline.Store
	if db != nil {
		timelineStore = timeline.NewPostgresStore(db)
	} else {
		timelineStore = timeline.NewMemoryStore()
	}
	recorderOpts := []timeline.Option{timeline.WithLogger(log)}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := timeline.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("kafka publisher init failed", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		recorderOpts = append(recorderOpts, timeline.WithPublisher(publisher))
	}
	recorder := timeline.NewStoreRecorder(timelineStore, recorderOpts...)

	var (
		caseSt       casestore.Store
		accessSt     access.Store
		userSt       identity.UserStore
		tokenSt      identity.TokenStore
		investSt     investigation.Store
		verdictSt    judiciary.VerdictStore
		wantedSt     wanted.Store
		rewardSt     rewards.Store
		paymentSt    payments.Store
		evidenceList judiciary.EvidenceLister
	)
	if db != nil {
		caseSt = casestore.NewPostgres(db)
		accessSt = access.NewPostgresStore(db)
		userSt = identity.NewPostgresUserStore(db)
		tokenSt = identity.NewPostgresTokenStore(db)
		investSt = investigation.NewPostgresStore(db)
		verdictSt = judiciary.NewPostgresVerdictStore(db)
		wantedSt = wanted.NewPostgresStore(db)
		rewardSt = rewards.NewPostgresStore(db)
		paymentSt = payments.NewPostgresStore(db)
		evidenceList = judiciary.NewPostgresEvidenceStore(db)
	} else {
		caseSt = casestore.NewMemory()
		accessSt = access.NewMemoryStore()
		memUsers := identity.NewMemoryUserStore()
		userSt = memUsers
		tokenSt = identity.NewMemoryTokenStore(memUsers)
		investSt = investigation.NewMemoryStore()
		verdictSt = judiciary.NewMemoryVerdictStore()
		wantedSt = wanted.NewMemoryStore()
		rewardSt = rewards.NewMemoryStore()
		paymentSt = payments.NewMemoryStore()
	}

	authority := access.NewAuthority(accessSt)
	identitySvc := identity.New(userSt, tokenSt, identity.WithLogger(log))

	wantedOpts := []wanted.Option{
		wanted.WithLogger(log),
		wanted.WithRecorder(recorder),
		wanted.WithMetrics(m),
		wanted.WithPromotionAge(cfg.WantedPromotionAfter),
	}
	if redisClient != nil {
		wantedOpts = append(wantedOpts, wanted.WithCache(redisClient.Client))
	}
	wantedSvc := wanted.New(wantedSt, wantedOpts...)

	judiciaryOpts := []judiciary.Option{
		judiciary.WithLogger(log),
		judiciary.WithRecorder(recorder),
		judiciary.WithMetrics(m),
	}
	if evidenceList != nil {
		judiciaryOpts = append(judiciaryOpts, judiciary.WithEvidenceLister(evidenceList))
	}
	judiciarySvc := judiciary.New(caseSt, verdictSt, authority, judiciaryOpts...)

	casesSvc := caseservice.New(caseSt, authority,
		caseservice.WithLogger(log),
		caseservice.WithRecorder(recorder),
		caseservice.WithMetrics(m),
		caseservice.WithSuspectHook(wantedSvc),
		caseservice.WithVerdictChecker(judiciarySvc),
	)
	investigationSvc := investigation.New(investSt, caseSt, authority,
		investigation.WithLogger(log),
		investigation.WithRecorder(recorder),
		investigation.WithMetrics(m),
		investigation.WithUserResolver(identitySvc),
	)
	rewardsSvc := rewards.New(rewardSt, wantedSt, caseSt, authority,
		rewards.WithLogger(log),
		rewards.WithRecorder(recorder),
		rewards.WithMetrics(m),
		rewards.WithUserResolver(identitySvc),
	)
	paymentsSvc := payments.New(paymentSt, caseSt, payments.MockGateway{},
		payments.WithLogger(log),
		payments.WithRecorder(recorder),
		payments.WithMetrics(m),
		payments.WithMaxPendingAge(cfg.PaymentPendingMaxAge),
	)

	handler := httptransport.NewHandler(httptransport.Deps{
		Logger:             log,
		JWTValidator:       middleware.NewHMACValidator(cfg.JWTSigningKey),
		Identity:           identitySvc,
		Cases:              casesSvc,
		Investigation:      investigationSvc,
		Judiciary:          judiciarySvc,
		Rewards:            rewardsSvc,
		Wanted:             wantedSvc,
		Payments:           paymentsSvc,
		Timeline:           timelineStore,
		PaymentCallbackURL: cfg.PublicBaseURL + "/api/v1/payments/callback",
	})

	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
