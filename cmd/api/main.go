package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"github.com/portal-auth/internal/application/auth"
	"github.com/portal-auth/internal/application/gate"
	"github.com/portal-auth/internal/application/janitor"
	"github.com/portal-auth/internal/application/whitelist"
	"github.com/portal-auth/internal/config"
	"github.com/portal-auth/internal/infrastructure/dynamo"
	"github.com/portal-auth/internal/infrastructure/logmail"
	"github.com/portal-auth/internal/infrastructure/memory"
	"github.com/portal-auth/internal/infrastructure/resend"
	"github.com/portal-auth/internal/infrastructure/smtp"
	"github.com/portal-auth/internal/infrastructure/sqlstore"
	"github.com/portal-auth/internal/logger"
	transporthttp "github.com/portal-auth/internal/transport/http"
)

// stores is the persistence selected by STORE_DRIVER.
type stores struct {
	codes    auth.CodeStore
	sessions transporthttp.SessionRepository
	// pruners are set only for stores without native expiry.
	codePruner    janitor.Pruner
	sessionPruner janitor.Pruner
	close         func() error
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	logger.Init(cfg.IsDev(), cfg.SentryDSN)
	defer sentry.Flush(2 * time.Second)

	if err := run(cfg); err != nil {
		slog.Error("fatal", "error", err)
		sentry.Flush(2 * time.Second)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	guard := whitelist.NewGuard(cfg.AllowedEmails)
	if guard.Len() == 0 {
		slog.Warn("ALLOWED_EMAILS is empty; every code request will be rejected")
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	mailer, err := newMailer(cfg)
	if err != nil {
		return err
	}

	deps := &transporthttp.Deps{
		Guard:       guard,
		CodeRepo:    st.codes,
		SessionRepo: st.sessions,
		Mailer:      mailer,
	}
	if cfg.SessionCheckURL != "" {
		deps.PortalChecker = gate.NewRemoteChecker(cfg.SessionCheckURL, nil)
	}

	if cfg.JanitorInterval > 0 && (st.codePruner != nil || st.sessionPruner != nil) {
		j := janitor.New(st.codePruner, st.sessionPruner, cfg.CodeRetention, cfg.JanitorInterval, nil)
		go j.Run(ctx)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "store", cfg.StoreDriver, "mail", cfg.MailDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreDriver {
	case "dynamo":
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		return &stores{
			codes:    dynamo.NewCodeRepo(client, cfg.DynamoTables.VerificationCodes),
			sessions: dynamo.NewSessionRepo(client, cfg.DynamoTables.Sessions),
			close:    func() error { return nil },
		}, nil

	case sqlstore.DriverSQLite, sqlstore.DriverPostgres:
		db, err := sqlstore.Open(ctx, cfg.StoreDriver, cfg.DBConnection)
		if err != nil {
			return nil, err
		}
		if err := sqlstore.Migrate(db.DB, cfg.StoreDriver); err != nil {
			db.Close()
			return nil, err
		}
		codes, sessions := sqlstore.NewCodeRepo(db), sqlstore.NewSessionRepo(db)
		return &stores{
			codes:         codes,
			sessions:      sessions,
			codePruner:    codes,
			sessionPruner: sessions,
			close:         db.Close,
		}, nil

	case "memory":
		slog.Warn("using in-memory store; all codes and sessions are lost on restart")
		codes, sessions := memory.NewCodeRepo(), memory.NewSessionRepo()
		return &stores{
			codes:         codes,
			sessions:      sessions,
			codePruner:    codes,
			sessionPruner: sessions,
			close:         func() error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

func newMailer(cfg *config.Config) (auth.Mailer, error) {
	switch cfg.MailDriver {
	case "smtp":
		return smtp.NewMailer(cfg), nil
	case "resend":
		return resend.NewMailer(cfg.ResendAPIKey, cfg.MailFrom)
	case "log":
		return logmail.NewMailer(nil), nil
	}
	return nil, fmt.Errorf("unknown MAIL_DRIVER %q", cfg.MailDriver)
}
