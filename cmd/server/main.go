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

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/tricket/internal/cache"
	"github.com/iliyamo/tricket/internal/config"
	"github.com/iliyamo/tricket/internal/database"
	"github.com/iliyamo/tricket/internal/handler"
	"github.com/iliyamo/tricket/internal/queue"
	"github.com/iliyamo/tricket/internal/router"
	"github.com/iliyamo/tricket/internal/schedule"
	"github.com/iliyamo/tricket/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Printf("redis: unavailable at %s; rate limiting disabled", cfg.Redis.Address())
	} else {
		defer rdb.Close()
	}

	store, closeStore := openStore(ctx, cfg, rdb)
	defer closeStore()

	var opts []service.APIOption
	opts = append(opts, service.WithHTTPClient(&http.Client{Timeout: cfg.Tricket.APITimeout}))
	if cfg.RabbitMQURL != "" {
		opts = append(opts, service.WithPublisher(queue.NewPublisher(cfg.RabbitMQURL)))
		if cfg.SyncConsumer {
			go func() {
				if err := queue.StartSyncConsumer(ctx, cfg.RabbitMQURL, cfg.SyncLogDir); err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("sync-consumer: stopped: %v", err)
				}
			}()
		}
	}

	c := cache.New(store, cfg.Cache.TTL(), cache.WithPrefix(cfg.Cache.Prefix))
	api := service.NewAPIClient(cfg.Tricket.APIURL, cfg.Tricket.APIKey, c, opts...)
	tr := service.NewTricket(api,
		service.WithHomeURL(cfg.Tricket.HomeURL),
		service.WithProductionsSlug(cfg.Tricket.ProductionsSlug),
		service.WithClock(schedule.SystemClock{}),
		service.WithLocation(cfg.Tricket.Location()),
	)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, &handler.PublicHandler{Tricket: tr}, &handler.ScheduleHandler{Tricket: tr})
	router.RegisterAdmin(e, &handler.AdminHandler{
		Tricket:      tr,
		JWTSecret:    cfg.JWTSecret,
		PasswordHash: cfg.AdminPasswordHash,
		TokenTTL:     cfg.AccessTTL(),
	}, cfg.JWTSecret, cfg.Limit, rdb)
	if cfg.AdminPasswordHash == "" {
		log.Printf("admin: ADMIN_PASSWORD_HASH not set; token endpoint will reject every request")
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, cache=%s)", addr, cfg.Env, cfg.Cache.Driver)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// openStore builds the cache backend selected by CACHE_DRIVER. A redis
// driver without a reachable server falls back to memory.
func openStore(ctx context.Context, cfg config.Config, rdb *redis.Client) (cache.Store, func()) {
	switch cfg.Cache.Driver {
	case config.DriverRedis:
		if rdb != nil {
			return cache.NewRedisStore(rdb), func() {}
		}
		log.Printf("cache: redis unavailable, falling back to memory")
	case config.DriverMySQL:
		db, err := database.Open(cfg.DB)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		s := cache.NewMySQLStore(db)
		if err := s.EnsureSchema(ctx); err != nil {
			log.Fatalf("database: %v", err)
		}
		go purgeExpired(ctx, s, time.Hour)
		return s, func() { _ = db.Close() }
	}
	return cache.NewMemoryStore(), func() {}
}

// purgeExpired removes stale transient rows every interval. Reads already
// ignore them; this only keeps the table small.
func purgeExpired(ctx context.Context, s *cache.MySQLStore, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				log.Printf("cache: purge expired: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("cache: purged %d expired entries", n)
			}
		}
	}
}
