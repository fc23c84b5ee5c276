package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contenthub/backend/internal/audit"
	auditrepo "contenthub/backend/internal/audit/repository"
	authservice "contenthub/backend/internal/auth/service"
	"contenthub/backend/internal/config"
	"contenthub/backend/internal/db"
	"contenthub/backend/internal/security"
	"contenthub/backend/internal/server"
	"contenthub/backend/internal/server/middleware"
	sessionrepo "contenthub/backend/internal/session/repository"
	"contenthub/backend/internal/telemetry/otel"
	userrepo "contenthub/backend/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx := context.Background()

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "contenthub-auth", false)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	tokens := security.NewTokenProvider(
		[]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience,
		cfg.AccessTTL(), cfg.RefreshTTL(),
	)
	hasher := security.NewHasher(cfg.BcryptCost)

	users := userrepo.NewPostgresRepository(pool)
	sessions := sessionrepo.NewPostgresRepository()
	auditEvents := auditrepo.NewPostgresRepository(pool)
	auditLogger := audit.NewLogger(
		auditEvents,
		otel.NewAuditSink(providers.LoggerProvider),
		middleware.GetClientIP,
	)

	authSvc := authservice.NewAuthService(
		pool, users, sessions, hasher, tokens, auditLogger,
		cfg.RefreshTTL(), cfg.GracePeriod(),
	)

	handler := server.NewHTTPHandler(server.Deps{
		Auth:         authSvc,
		Users:        users,
		AuditEvents:  auditEvents,
		Tokens:       tokens,
		HealthPinger: pool,
		CookieSecure: cfg.CookieSecure,
		RefreshTTL:   cfg.RefreshTTL(),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	// Give in-flight async audit writes time to land before the pool closes.
	time.Sleep(audit.ShutdownDrainDuration)

	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
