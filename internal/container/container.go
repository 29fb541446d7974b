// Package container wires the application services with samber/do.
package container

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Options struct {
	Port                  int    `default:"3000"                 help:"Port to listen on"                                          short:"p"`
	APIURL                string `default:"https://clck.dev"     help:"Base URL of the shortening API"                             short:"a"`
	RedirectOrigin        string `default:"https://api.clck.dev" help:"Origin that resolves short codes"                           short:"o"`
	RequestTimeoutSeconds int    `default:"10"                   help:"Timeout in seconds for calls to the shortening API"`
	SessionTTLMinutes     int    `default:"30"                   help:"Idle minutes before a browser session is dropped"`
	MaxSessions           int    `default:"10000"                help:"Maximum number of live browser sessions"`
	SecureCookies         bool   `default:"false"                help:"Mark the session cookie Secure"`
	RateLimitPerMinute    int    `default:"10"                   help:"Submissions and copies allowed per client per minute"`
	RateLimitPerHour      int    `default:"100"                  help:"Submissions and copies allowed per client per hour"`
	ReadLimitPerMinute    int    `default:"120"                  help:"Reads (pages, redirects, state) allowed per client per minute"`
	WriteLimitPerMinute   int    `default:"30"                   help:"Other writes allowed per client per minute"`
	TrustProxy            bool   `default:"false"                help:"Take the client address from X-Real-IP/X-Forwarded-For"`
	RedisAddr             string `default:""                     help:"Redis address; empty keeps rate limits and events in memory" short:"r"`
	DatabaseURL           string `default:""                     help:"PostgreSQL URL for activity events; empty logs them"`
	LogFormat             string `default:"console"              help:"Log format: console or json"`
	LogLevel              string `default:"info"                 help:"Minimum log level"`
}

// RequestTimeout is the bound on a single call to the shortening API.
func (o *Options) RequestTimeout() time.Duration {
	return time.Duration(o.RequestTimeoutSeconds) * time.Second
}

// SessionTTL is how long an idle browser session is kept.
func (o *Options) SessionTTL() time.Duration {
	return time.Duration(o.SessionTTLMinutes) * time.Minute
}

// NewLogger builds a console (development) or json (production) logger.
func NewLogger(format, level string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if format == "json" {
		cfg = zap.NewProductionConfig()
	}

	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}

		cfg.Level = lvl
	}

	return cfg.Build()
}

// RedisClient closes the client when the injector shuts down.
type RedisClient struct {
	*redis.Client
}

func (c *RedisClient) Shutdown() error {
	return c.Close()
}

// PostgresPool closes the pool when the injector shuts down.
type PostgresPool struct {
	*pgxpool.Pool
}

func (p *PostgresPool) Shutdown() error {
	p.Close()

	return nil
}
