// Command sweeper runs the scheduled maintenance passes: wanted-list
// promotion, payment reconciliation, reward snapshot computation, and idle
// token expiry. Run it from cron or a scheduler; every pass is idempotent.
package main

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"casefile/internal/access"
	casestore "casefile/internal/cases/store"
	"casefile/internal/identity"
	"casefile/internal/payments"
	"casefile/internal/platform/config"
	"casefile/internal/platform/logger"
	"casefile/internal/platform/metrics"
	"casefile/internal/platform/postgres"
	platformredis "casefile/internal/platform/redis"
	"casefile/internal/rewards"
	"casefile/internal/wanted"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if cfg.DatabaseURL == "" {
		log.Error("CASEFILE_DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	m := metrics.New()
	caseSt := casestore.NewPostgres(db)
	wantedSt := wanted.NewPostgresStore(db)
	authority := access.NewAuthority(access.NewPostgresStore(db))
	identitySvc := identity.New(
		identity.NewPostgresUserStore(db),
		identity.NewPostgresTokenStore(db),
		identity.WithLogger(log),
	)

	wantedOpts := []wanted.Option{
		wanted.WithLogger(log),
		wanted.WithMetrics(m),
		wanted.WithPromotionAge(cfg.WantedPromotionAfter),
	}
	if redisClient != nil {
		wantedOpts = append(wantedOpts, wanted.WithCache(redisClient.Client))
	}
	wantedSvc := wanted.New(wantedSt, wantedOpts...)

	paymentsSvc := payments.New(payments.NewPostgresStore(db), caseSt, payments.MockGateway{},
		payments.WithLogger(log),
		payments.WithMetrics(m),
		payments.WithMaxPendingAge(cfg.PaymentPendingMaxAge),
	)
	rewardsSvc := rewards.New(rewards.NewPostgresStore(db), wantedSt, caseSt, authority,
		rewards.WithLogger(log),
		rewards.WithMetrics(m),
	)

	now := time.Now().UTC()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		promoted, err := wantedSvc.PromoteStale(gctx, now)
		if err != nil {
			return err
		}
		log.Info("wanted promotion pass done", "promoted", promoted)
		return nil
	})
	g.Go(func() error {
		failed, err := paymentsSvc.Reconcile(gctx, now)
		if err != nil {
			return err
		}
		log.Info("payment reconcile pass done", "failed", failed)
		return nil
	})
	g.Go(func() error {
		snapshots, err := rewardsSvc.ComputeSnapshots(gctx, now)
		if err != nil {
			return err
		}
		log.Info("reward snapshot pass done", "snapshots", len(snapshots))
		return nil
	})
	g.Go(func() error {
		expired, err := identitySvc.ExpireIdleTokens(gctx, now, cfg.TokenMaxIdle)
		if err != nil {
			return err
		}
		log.Info("token expiry pass done", "expired", expired)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("sweep failed", "error", err)
		os.Exit(1)
	}
}
