package main

import (
	"context"
	"database/sql"
	"encoding/base64"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/wingettech/directory-service/internal/auth"
	"github.com/wingettech/directory-service/internal/directory"
	"github.com/wingettech/directory-service/internal/httpapi"
	"github.com/wingettech/directory-service/internal/obs"
	"github.com/wingettech/directory-service/internal/settings"
)

var version = "0.3.0"

func main() {
	obs.Init()

	dsn := os.Getenv("DIRSVC_PG_DSN")
	if dsn == "" {
		log.Fatal("DIRSVC_PG_DSN is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	enc, err := buildEncryptor(os.Getenv("DIRSVC_SETTINGS_KEY"))
	if err != nil {
		log.Fatalf("settings key: %v", err)
	}
	settingsStore := settings.NewStore(db, enc)
	dirService := directory.NewService(settingsStore)
	probe := directory.NewProbe(settingsStore)

	tokenStore := auth.NewPGTokenStore(db)
	tokens, err := auth.NewService(probe, tokenStore, auth.Config{
		Issuer:     envOr("DIRSVC_JWT_ISSUER", "directory-service"),
		Audience:   envOr("DIRSVC_JWT_AUDIENCE", "directory-service"),
		Secret:     os.Getenv("DIRSVC_JWT_SECRET"),
		AccessTTL:  time.Duration(envInt("DIRSVC_ACCESS_TTL_MINUTES", 15)) * time.Minute,
		RefreshTTL: time.Duration(envInt("DIRSVC_REFRESH_TTL_DAYS", 7)) * 24 * time.Hour,
	})
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	api := httpapi.New(dirService, probe, tokens, settingsStore, httpapi.ReadyProbe{DB: db}, version)

	srv := &http.Server{
		Addr:              envOr("DIRSVC_LISTEN_ADDR", ":8080"),
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go sweepExpiredTokens(sweepCtx, tokenStore)

	log.Printf("Starting directory-service %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = db.Close()
	log.Println("Stopped")
}

// sweepExpiredTokens periodically deletes refresh-token rows whose expiry
// passed. Revoked rows age out the same way.
func sweepExpiredTokens(ctx context.Context, store *auth.PGTokenStore) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.DeleteExpired(ctx, time.Now().UTC())
			if err != nil {
				obs.LogEvent("warn", "token sweep failed", map[string]any{"error": err.Error()})
				continue
			}
			if n > 0 {
				obs.LogEvent("info", "token sweep", map[string]any{"deleted": n})
			}
		}
	}
}

// buildEncryptor returns a SecretBox when a base64 32-byte key is configured
// and the plaintext pass-through otherwise.
func buildEncryptor(key string) (settings.Encryptor, error) {
	if key == "" {
		log.Println("DIRSVC_SETTINGS_KEY not set; bind password stored unencrypted")
		return settings.Plaintext{}, nil
	}
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, err
	}
	return settings.NewSecretBox(raw)
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("%s: %v", name, err)
	}
	return n
}
