package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/clck-web/internal/activity"
	activitystore "github.com/serroba/clck-web/internal/activity/store"
	"github.com/serroba/clck-web/internal/clckapi"
	"github.com/serroba/clck-web/internal/handlers"
	"github.com/serroba/clck-web/internal/health"
	"github.com/serroba/clck-web/internal/messaging"
	"github.com/serroba/clck-web/internal/middleware"
	"github.com/serroba/clck-web/internal/ratelimit"
	"github.com/serroba/clck-web/internal/session"
	"github.com/serroba/clck-web/internal/store"
	"github.com/serroba/clck-web/internal/submission"
	"go.uber.org/zap"
)

const (
	sessionIDLength = 21
	consumerGroup   = "clck-activity"
)

func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		return NewLogger(opts.LogFormat, opts.LogLevel)
	})
}

// RedisPackage provides *RedisClient. Only register it when Options.RedisAddr is set.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*RedisClient, error) {
		opts := do.MustInvoke[*Options](i)

		client := redis.NewClient(&redis.Options{
			Addr: opts.RedisAddr,
		})

		return &RedisClient{Client: client}, nil
	})
}

// PostgresPackage provides *PostgresPool. Only register it when Options.DatabaseURL is set.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*PostgresPool, error) {
		opts := do.MustInvoke[*Options](i)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()

			return nil, fmt.Errorf("ping postgres: %w", err)
		}

		return &PostgresPool{Pool: pool}, nil
	})
}

func ClientPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*clckapi.Client, error) {
		opts := do.MustInvoke[*Options](i)

		return clckapi.New(opts.APIURL, clckapi.WithTimeout(opts.RequestTimeout()))
	})
}

func SessionPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*session.Registry, error) {
		opts := do.MustInvoke[*Options](i)
		client := do.MustInvoke[*clckapi.Client](i)
		logger := do.MustInvoke[*zap.Logger](i)

		newID, err := nanoid.Standard(sessionIDLength)
		if err != nil {
			return nil, err
		}

		registry := session.NewRegistry(
			newID,
			func(clipboard *session.Clipboard) *submission.Controller {
				return submission.NewController(client, clipboard, submission.WithLogger(logger))
			},
			session.Config{
				TTL:         opts.SessionTTL(),
				MaxSessions: opts.MaxSessions,
			},
			logger,
		)
		registry.Start(context.Background())

		return registry, nil
	})
}

func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (ratelimit.Store, error) {
		opts := do.MustInvoke[*Options](i)
		if opts.RedisAddr != "" {
			return store.NewRateLimitRedisStore(do.MustInvoke[*RedisClient](i).Client), nil
		}

		memStore := store.NewRateLimitMemoryStore()
		memStore.StartSweeper(context.Background(), time.Minute, time.Hour)

		return memStore, nil
	})

	do.Provide(i, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		opts := do.MustInvoke[*Options](i)
		policy := ratelimit.NewSubmissionPolicy(
			int64(opts.RateLimitPerMinute),
			int64(opts.RateLimitPerHour),
			ratelimit.ScopeSubmit,
			ratelimit.ScopeCopy,
		).
			Limit(ratelimit.ScopeRead, time.Minute, int64(opts.ReadLimitPerMinute)).
			Limit(ratelimit.ScopeWrite, time.Minute, int64(opts.WriteLimitPerMinute))

		return ratelimit.NewPolicyLimiter(do.MustInvoke[ratelimit.Store](i), policy), nil
	})
}

// MessagingPackage provides the event publisher: Redis streams when Redis is
// configured, an in-process channel otherwise.
func MessagingPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*gochannel.GoChannel, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		return messaging.NewInProcessPubSub(messaging.NewZapLoggerAdapter(logger)), nil
	})

	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.RedisAddr == "" {
			return messaging.NewPublisherGroup(do.MustInvoke[*gochannel.GoChannel](i)), nil
		}

		pub, err := messaging.NewRedisPublisher(do.MustInvoke[*RedisClient](i).Client, messaging.NewZapLoggerAdapter(logger))
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(pub), nil
	})
}

func ActivityPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (activity.Publishers, error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return activity.NewPublishers(group.Publisher()), nil
	})

	do.Provide(i, func(i *do.Injector) (activity.Store, error) {
		opts := do.MustInvoke[*Options](i)
		if opts.DatabaseURL == "" {
			return activitystore.NewLog(do.MustInvoke[*zap.Logger](i)), nil
		}

		pg := store.NewActivityPostgresStore(do.MustInvoke[*PostgresPool](i).Pool)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}

		return pg, nil
	})
}

// ConsumerGroupPackage provides the activity consumers. They read Redis streams
// when Redis is configured and the in-process channel otherwise.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		var subscriber message.Subscriber

		if opts.RedisAddr == "" {
			subscriber = do.MustInvoke[*gochannel.GoChannel](i)
		} else {
			sub, err := messaging.NewRedisSubscriber(
				do.MustInvoke[*RedisClient](i).Client,
				consumerGroup,
				messaging.NewZapLoggerAdapter(logger),
			)
			if err != nil {
				return nil, err
			}

			subscriber = sub
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		activity.RegisterConsumers(group, subscriber, do.MustInvoke[activity.Store](i), logger)

		return group, nil
	})
}

func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*chi.Mux, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		resolver := ratelimit.NewRouteScopeResolver(map[string]ratelimit.Scope{
			"POST /":     ratelimit.ScopeSubmit,
			"POST /copy": ratelimit.ScopeCopy,
		})

		router := chi.NewMux()
		router.Use(chimw.RequestID)

		// Forwarding headers are client controlled unless a proxy sets them.
		if opts.TrustProxy {
			router.Use(chimw.RealIP)
		}

		router.Use(
			middleware.RequestLogger(logger),
			chimw.Recoverer,
			middleware.RequestMetaHandler,
			middleware.RateLimiter(do.MustInvoke[*ratelimit.PolicyLimiter](i), resolver, logger),
		)

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		api := humachi.New(router, huma.DefaultConfig("clck", "1.0.0"))

		web, err := handlers.NewWebHandler(
			do.MustInvoke[*session.Registry](i),
			handlers.Config{
				RedirectOrigin: opts.RedirectOrigin,
				SecureCookies:  opts.SecureCookies,
				SettleWait:     opts.RequestTimeout(),
			},
			do.MustInvoke[activity.Publishers](i),
			logger,
		)
		if err != nil {
			return nil, err
		}

		handlers.RegisterRoutes(router, api, web)

		var redisChecker health.Checker
		if opts.RedisAddr != "" {
			redisChecker = health.NewRedisChecker(do.MustInvoke[*RedisClient](i).Client)
		}

		health.RegisterRoutes(api, health.NewHandler(do.MustInvoke[*clckapi.Client](i), redisChecker))

		return api, nil
	})
}
