package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/Vonnie2507/sms-inbox/internal/api"
	"github.com/Vonnie2507/sms-inbox/internal/cache"
	"github.com/Vonnie2507/sms-inbox/internal/client"
	"github.com/Vonnie2507/sms-inbox/internal/config"
	"github.com/Vonnie2507/sms-inbox/internal/notify"
	"github.com/Vonnie2507/sms-inbox/internal/repo"
	"github.com/Vonnie2507/sms-inbox/internal/resolve"
	"github.com/Vonnie2507/sms-inbox/internal/service"
)

func main() {
	_ = godotenv.Load()

	logger := slog.Default()

	cfg, err := config.LoadAll()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := sql.Open("pgx", cfg.Database.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	messages := repo.NewPostgresMessageRepo(db)
	contacts := repo.NewPostgresContactDirectory(db)
	resolver := resolve.NewResolver(messages, contacts, logger)

	var publisher notify.Publisher = notify.NopPublisher{}
	var receipts cache.ReceiptCache = cache.NopReceiptCache{}
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		audience := repo.NewRoleAudience(db, cfg.Notify.Roles)
		publisher = notify.NewAsyncPublisher(notify.NewRedisPublisher(rdb, audience, logger), logger)
		receipts = cache.NewRedisReceiptCache(rdb, cfg.Redis.TTL)
	}

	gateway := client.NewTwilioClient(cfg.SMS.APIBaseURL, cfg.SMS.AccountSID, cfg.SMS.AuthToken)

	inbox := service.NewInbox(messages, resolver, gateway, publisher, receipts, cfg.SMS, logger)
	handler := loggingMiddleware(api.Router(api.NewHandler(inbox, logger)))

	logger.Info("sms-inbox starting",
		"addr", cfg.Server.Address,
		"sms_enabled", cfg.SMS.Enabled,
		"redis", cfg.Redis.Enabled,
	)

	if err := http.ListenAndServe(cfg.Server.Address, handler); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
