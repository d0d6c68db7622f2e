package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/slotgrid/slotgrid/libs/config"
	"github.com/slotgrid/slotgrid/libs/db"
	"github.com/slotgrid/slotgrid/libs/httpx"
	"github.com/slotgrid/slotgrid/libs/kafkax"
	otelx "github.com/slotgrid/slotgrid/libs/otel"
	"github.com/slotgrid/slotgrid/libs/runtime"
	"github.com/slotgrid/slotgrid/services/availability-service/internal/consumer"
	"github.com/slotgrid/slotgrid/services/availability-service/internal/engine"
	"github.com/slotgrid/slotgrid/services/availability-service/internal/freebusy"
	"github.com/slotgrid/slotgrid/services/availability-service/internal/handlers"
	"github.com/slotgrid/slotgrid/services/availability-service/internal/model"
	"github.com/slotgrid/slotgrid/services/availability-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "availability-service")
	port, err := config.Port("PORT", "8084")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, db.DefaultOptions())
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	repo := storage.NewRepository(pool)

	var rdb *redis.Client
	var busyCache *freebusy.BusyCache
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()
		ttl := time.Duration(config.Int("FREEBUSY_CACHE_TTL_SECONDS", 300)) * time.Second
		busyCache = freebusy.NewBusyCache(rdb, ttl)
	}

	fbProvider := buildFreeBusyProvider(logger)

	brokers := config.String("KAFKA_BROKERS", "")
	if brokers != "" && busyCache != nil {
		busyConsumer := consumer.New(logger, consumer.Config{
			Brokers: brokers,
			GroupID: config.String("KAFKA_GROUP_ID", "availability-service"),
			Topic:   config.String("KAFKA_BUSY_TOPIC", "calendar.busy.synced.v1"),
		}, busySyncHandler(busyCache))
		go busyConsumer.Run(ctx)
	}

	overlayTimeout := time.Duration(config.Int("FREEBUSY_TIMEOUT_SECONDS", 3)) * time.Second
	slotsHandler := handlers.NewSlotsHandler(repo, engine.NewGenerator(logger), fbProvider, cacheOrNil(busyCache), logger, overlayTimeout)

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if brokers != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}
	if rdb != nil {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: freebusy.ReadyCheck(rdb)})
	}

	mux := runtime.NewBaseMux(readyChecks...)
	mux.HandleFunc("/api/v1/public/slots", slotsHandler.Slots)

	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	var rateLimitMW httpx.Middleware
	if rdb != nil {
		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl:availability"))
		rateLimitMW = rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute)
	} else {
		rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
		rateLimitMW = rl.Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: parseList(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods: parseList(config.String("CORS_ALLOWED_METHODS", "GET,OPTIONS")),
			AllowedHeaders: parseList(config.String("CORS_ALLOWED_HEADERS", "Content-Type,X-Request-Id")),
			MaxAge:         time.Duration(config.Int("CORS_MAX_AGE_SECONDS", 600)) * time.Second,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20))),
		httpx.WithTimeout(time.Duration(config.Int("REQUEST_TIMEOUT_SECONDS", 10))*time.Second),
		rateLimitMW,
	)
	wrapped := otelhttp.NewHandler(handler, "availability")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           wrapped,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

// buildFreeBusyProvider prefers the HTTP transport; the gRPC client only
// exists in protogen builds and returns nil otherwise.
func buildFreeBusyProvider(logger *slog.Logger) freebusy.Provider {
	if base := strings.TrimSpace(config.String("FREEBUSY_HTTP_URL", "")); base != "" {
		timeout := time.Duration(config.Int("FREEBUSY_TIMEOUT_SECONDS", 3)) * time.Second
		logger.Info("free/busy overlay enabled (http)", "base_url", base)
		return freebusy.NewHTTPProvider(strings.TrimSuffix(base, "/"), timeout)
	}
	if addr := strings.TrimSpace(config.String("FREEBUSY_GRPC_ADDR", "")); addr != "" {
		p, err := freebusy.NewGRPCProvider(addr)
		if err != nil {
			logger.Error("free/busy grpc provider init failed; overlay disabled", "err", err)
			return nil
		}
		if p != nil {
			logger.Info("free/busy overlay enabled (grpc)", "addr", addr)
		}
		return p
	}
	return nil
}

// busySyncHandler applies calendar.busy.synced events to the fallback cache.
func busySyncHandler(cache *freebusy.BusyCache) consumer.Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			ProviderID string `json:"provider_id"`
			Busy       []struct {
				Start time.Time `json:"start"`
				End   time.Time `json:"end"`
			} `json:"busy"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			return err
		}
		if payload.ProviderID == "" {
			return nil
		}
		intervals := make([]model.BusyInterval, 0, len(payload.Busy))
		for _, b := range payload.Busy {
			if !b.End.After(b.Start) {
				continue
			}
			intervals = append(intervals, model.BusyInterval{Start: b.Start, End: b.End})
		}
		return cache.Put(ctx, payload.ProviderID, intervals)
	}
}

// cacheOrNil keeps the handler's interface field nil when redis is absent,
// so the nil check there works (a typed nil *BusyCache would not be nil).
func cacheOrNil(c *freebusy.BusyCache) handlers.BusyCache {
	if c == nil {
		return nil
	}
	return c
}

func parseList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
