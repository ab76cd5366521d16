package cache

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the Redis options used by the shared scorer throttle.
// Only Addr is required; the rest fall back to conservative defaults.
type Config struct {
	Addr        string
	Password    string
	DB          int
	UseTLS      bool
	DialTimeout time.Duration
	ReadTimeout time.Duration
	PoolSize    int
}

// New returns a configured redis.Client and verifies connectivity with PING.
// The returned closer must be called on shutdown.
func New(ctx context.Context, cfg Config) (*redis.Client, func(), error) {
	opts := &redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: defaultDuration(cfg.DialTimeout, 3*time.Second),
		ReadTimeout: defaultDuration(cfg.ReadTimeout, 500*time.Millisecond),
		PoolSize:    defaultInt(cfg.PoolSize, 10),
		MaxRetries:  1,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	closer := func() {
		_ = client.Close()
	}
	return client, closer, nil
}

func defaultDuration(v, d time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return d
}

func defaultInt(v, d int) int {
	if v > 0 {
		return v
	}
	return d
}
