package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/seatrack/seatrack/backend/go-services/handlers"
	"github.com/seatrack/seatrack/backend/go-services/internal/auth"
	"github.com/seatrack/seatrack/backend/go-services/internal/config"
	"github.com/seatrack/seatrack/backend/go-services/internal/database"
	"github.com/seatrack/seatrack/backend/go-services/internal/oauth"
	"github.com/seatrack/seatrack/backend/go-services/internal/oidc"
	"github.com/seatrack/seatrack/backend/go-services/internal/password"
	"github.com/seatrack/seatrack/backend/go-services/internal/sessions"
	"github.com/seatrack/seatrack/backend/go-services/internal/storage"
	"github.com/seatrack/seatrack/backend/go-services/internal/tokens"
	"github.com/seatrack/seatrack/backend/go-services/internal/users"
	"github.com/seatrack/seatrack/backend/go-services/pkg/logger"
	"github.com/seatrack/seatrack/backend/go-services/pkg/metrics"
	"github.com/seatrack/seatrack/backend/go-services/pkg/middleware"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func main() {
	// LOG_LEVEL is read before config so config errors are logged at the right level
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)
	logger.SetFormat(cfg.Log.Format)
	logger.Infof("config loaded: store=%s redis=%v minio=%v google=%v facebook=%v",
		cfg.Store.Backend, cfg.Redis.Addr() != "", cfg.MinIO.Endpoint != "",
		cfg.OAuth.Google.ClientID != "", cfg.OAuth.Facebook.ClientID != "")

	ctx := context.Background()
	checks := map[string]handlers.Check{}

	store, closeStore := openStore(ctx, cfg)
	defer closeStore()
	if p, ok := store.(pinger); ok {
		checks["store"] = p.Ping
	}

	var rdb *redis.Client
	var blacklist sessions.Blacklist = sessions.NewMemoryBlacklist()
	if addr := cfg.Redis.Addr(); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("redis %s unreachable, revocations stay in process memory: %v", addr, err)
		} else {
			blacklist = sessions.NewRedisBlacklist(rdb)
			logger.Infof("connected to redis %s", addr)
		}
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		defer rdb.Close()
	}

	tok, err := tokens.NewService(cfg.JWT.Secret,
		tokens.WithTTL(cfg.JWT.TokenTTL),
		tokens.WithIssuer(cfg.JWT.Issuer),
		tokens.WithBlacklist(blacklist),
	)
	if err != nil {
		logger.Fatalf("token service: %v", err)
	}
	accounts := auth.NewService(store, password.NewBcrypt(cfg.Password.Cost), tok)

	if _, err := accounts.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		logger.Fatalf("bootstrap admin: %v", err)
	}

	bridge := oauth.NewBridge(accounts,
		oauth.NewGoogle(cfg.OAuth.Google.ProfileURL, cfg.OAuth.Timeout),
		oauth.NewFacebook(cfg.OAuth.Facebook.ProfileURL, cfg.OAuth.Timeout),
	)
	if cfg.OAuth.Google.ClientID != "" {
		vctx, cancel := context.WithTimeout(ctx, cfg.OAuth.Timeout)
		ver, err := oidc.NewVerifier(vctx, oidc.GoogleIssuer, cfg.OAuth.Google.ClientID)
		cancel()
		if err != nil {
			logger.Warnf("google id token sign-in disabled: %v", err)
		} else {
			bridge.WithIDTokenVerifier(ver)
		}
	}

	var avatars handlers.AvatarStore
	if cfg.MinIO.Endpoint != "" {
		s, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			logger.Warnf("avatar storage disabled: %v", err)
		} else {
			avatars = s
			checks["storage"] = s.Ping
		}
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(logger.GinMiddleware(), gin.Recovery(), middleware.CORS(cfg.Server.AllowedOrigins))

	// limiters sit on the route groups, after authentication where there is
	// one, so signed-in callers get their own bucket
	var limit []gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			limit = append(limit, middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			limit = append(limit, middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	handlers.RegisterHealth(r, checks)
	handlers.RegisterSwagger(r)

	root := r.Group("/")
	handlers.NewAuthHandler(accounts, avatars).WithRateLimit(limit...).Register(root)
	handlers.NewAdminHandler(accounts).WithRateLimit(limit...).Register(root)
	handlers.NewOAuthHandler(bridge, oauth.NewPublicConfig(cfg.OAuth)).WithRateLimit(limit...).Register(root)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("starting auth service on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Infof("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}

// openStore connects the configured credential store. Mongo gets a few
// attempts with backoff to tolerate startup races with its container.
func openStore(ctx context.Context, cfg *config.Config) (users.Store, func()) {
	switch cfg.Store.Backend {
	case "mongo":
		const maxAttempts = 5
		backoff := time.Second
		var db *mongo.Database
		var err error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			db, err = database.ConnectMongo(ctx, cfg.MongoDB)
			if err == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, err)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if err != nil {
			logger.Fatalf("could not connect to MongoDB after %d attempts: %v", maxAttempts, err)
		}
		s, err := users.NewMongoStore(ctx, db)
		if err != nil {
			logger.Fatalf("mongo store: %v", err)
		}
		logger.Infof("using MongoDB credential store (%s)", cfg.MongoDB.Database)
		return s, func() { _ = db.Client().Disconnect(context.Background()) }

	case "postgres":
		db, err := database.ConnectPostgres(ctx, cfg.Postgres.URL)
		if err != nil {
			logger.Fatalf("postgres: %v", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatalf("postgres migrations: %v", err)
		}
		logger.Infof("using PostgreSQL credential store")
		return users.NewPostgresStore(db), func() { _ = db.Close() }
	}

	logger.Warnf("using in-memory credential store; accounts are lost on restart")
	return users.NewMemoryStore(), func() {}
}
