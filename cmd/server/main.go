// Command server runs the kioskgate access engine: HTTP API for kiosks and
// auditors, background sweepers, and the ledger stream. Dependency selection
// is environment driven; with nothing configured the server runs entirely
// in memory for local development.
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

	_ "github.com/jackc/pgx/v5/stdlib"

	"kioskgate/internal/entitlement"
	entitlementhandler "kioskgate/internal/entitlement/handler"
	httptransport "kioskgate/internal/http"
	"kioskgate/internal/identity"
	"kioskgate/internal/kiosk"
	kioskhandler "kioskgate/internal/kiosk/handler"
	"kioskgate/internal/ledger"
	ledgerhandler "kioskgate/internal/ledger/handler"
	"kioskgate/internal/location"
	"kioskgate/internal/platform/config"
	"kioskgate/internal/platform/httpserver"
	"kioskgate/internal/platform/logger"
	platformredis "kioskgate/internal/platform/redis"
	"kioskgate/internal/policy"
	"kioskgate/internal/session"
	sessionhandler "kioskgate/internal/session/handler"
	sessionmetrics "kioskgate/internal/session/metrics"
	"kioskgate/internal/token"
	"kioskgate/internal/verify"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence. Postgres when configured, in-memory otherwise.
	var (
		db               *sql.DB
		identityStore    identity.Store
		locationStore    location.Store
		entitlementStore entitlement.Store
		ledgerStore      ledger.Store
		kioskStore       kiosk.Store
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		identityStore = identity.NewPostgresStore(db)
		locationStore = location.NewPostgresStore(db)
		entitlementStore = entitlement.NewPostgresStore(db)
		ledgerStore = ledger.NewPostgresStore(db)
		kioskStore = kiosk.NewPostgresStore(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		identityStore = identity.NewInMemoryStore()
		locationStore = location.NewInMemoryStore()
		entitlementStore = entitlement.NewInMemoryStore()
		ledgerStore = ledger.NewInMemoryStore()
		kioskStore = kiosk.NewInMemoryStore()
	}

	// Session state. Redis-backed when configured so several instances can
	// share in-flight sessions.
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	var sessionStore session.Store
	if redisClient != nil {
		defer redisClient.Close()
		sessionStore = session.NewRedisStore(redisClient.Client, cfg.SessionIdleTimeout)
	} else {
		sessionStore = session.NewInMemoryStore()
	}

	// Ledger stream, optional.
	var stream ledger.Stream
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := ledger.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.LedgerTopic, log)
		if err != nil {
			log.Error("connect ledger stream", "error", err)
			os.Exit(1)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := publisher.Close(flushCtx); err != nil {
				log.Error("close ledger stream", "error", err)
			}
		}()
		stream = publisher
	}

	ledgerService, err := ledger.NewService(ledgerStore, stream, log)
	if err != nil {
		log.Error("build ledger service", "error", err)
		os.Exit(1)
	}

	evaluator, err := entitlement.NewEvaluator(entitlementStore)
	if err != nil {
		log.Error("build entitlement evaluator", "error", err)
		os.Exit(1)
	}

	// Credential verifiers. The photo path needs the external extractor; it
	// is only registered when one is configured, and locations requiring
	// photo verification will fail closed without it.
	verifiers := []verify.Verifier{
		verify.NewQRVerifier(identityStore),
		verify.NewPINVerifier(identityStore),
	}
	if cfg.ExtractorURL != "" {
		extractor := verify.NewHTTPExtractor(cfg.ExtractorURL, &http.Client{Timeout: cfg.FaceVerifyTimeout})
		verifiers = append(verifiers, verify.NewFaceVerifier(
			identityStore, extractor, cfg.FaceMatchThreshold, cfg.FaceVerifyTimeout, cfg.FaceWorkers))
	} else {
		log.Warn("EXTRACTOR_URL not set, photo verification disabled")
	}

	sessionMetrics := sessionmetrics.New()
	sessionService, err := session.NewService(
		sessionStore,
		locationStore,
		policy.NewResolver(),
		verify.NewRegistry(verifiers...),
		evaluator,
		ledgerService,
		sessionMetrics,
		log,
	)
	if err != nil {
		log.Error("build session service", "error", err)
		os.Exit(1)
	}

	tokens := token.NewManager(cfg.JWTSigningKey, cfg.TokenTTL)
	kioskService, err := kiosk.NewService(kioskStore, locationStore, tokens, log)
	if err != nil {
		log.Error("build kiosk service", "error", err)
		os.Exit(1)
	}

	var health []httptransport.HealthChecker
	if redisClient != nil {
		health = append(health, redisClient)
	}
	if db != nil {
		health = append(health, dbHealth{db})
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Sessions:     sessionhandler.New(sessionService, log),
		Ledger:       ledgerhandler.New(ledgerService, log),
		Kiosks:       kioskhandler.New(kioskService, log),
		Entitlements: entitlementhandler.New(entitlementStore, log),
		Tokens:       tokens,
		Logger:       log,
		Health:       health,
	})

	// Background maintenance.
	go session.NewSweeper(sessionStore, cfg.SessionIdleTimeout, cfg.SessionSweepInterval, sessionMetrics, log).Run(ctx)
	go func() {
		if err := entitlement.NewJanitor(entitlementStore, cfg.EntitlementSweepInterval, log).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("entitlement janitor stopped", "error", err)
		}
	}()
	go func() {
		ticker := time.NewTicker(cfg.KioskPruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := kioskService.PruneOffline(ctx, cfg.KioskOfflineAfter); err != nil {
					log.ErrorContext(ctx, "kiosk prune failed", "error", err)
				}
			}
		}
	}()

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("starting kioskgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// dbHealth adapts *sql.DB to the router's health check.
type dbHealth struct {
	db *sql.DB
}

func (h dbHealth) Health(ctx context.Context) error {
	return h.db.PingContext(ctx)
}
