package sqlx

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jmoiron/sqlx"
)

// ConnectRetryConfig controls how Connect retries the first ping while the
// database is still coming up.
type ConnectRetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	// Zero disables retrying.
	MaxRetries uint

	// InitialInterval is the wait before the first retry.
	InitialInterval time.Duration

	// MaxInterval caps a single wait.
	MaxInterval time.Duration

	// MaxElapsedTime bounds the whole sequence. Zero means no bound.
	MaxElapsedTime time.Duration

	// Multiplier grows the interval after each retry.
	Multiplier float64

	// JitterFactor randomizes each wait by ±JitterFactor.
	JitterFactor float64
}

// Default values for ConnectRetryConfig.
const (
	DefaultConnectMaxRetries      = 5
	DefaultConnectInitialInterval = 250 * time.Millisecond
	DefaultConnectMaxInterval     = 5 * time.Second
	DefaultConnectMaxElapsedTime  = 30 * time.Second
	DefaultConnectMultiplier      = 2.0
	DefaultConnectJitterFactor    = 0.5
)

// DefaultConnectRetryConfig returns defaults suited to waiting for a
// database container to accept connections: five retries starting at
// 250ms, at most 30s in total.
func DefaultConnectRetryConfig() ConnectRetryConfig {
	return ConnectRetryConfig{
		MaxRetries:      DefaultConnectMaxRetries,
		InitialInterval: DefaultConnectInitialInterval,
		MaxInterval:     DefaultConnectMaxInterval,
		MaxElapsedTime:  DefaultConnectMaxElapsedTime,
		Multiplier:      DefaultConnectMultiplier,
		JitterFactor:    DefaultConnectJitterFactor,
	}
}

// NoConnectRetry returns a config that pings once.
func NoConnectRetry() ConnectRetryConfig {
	return ConnectRetryConfig{}
}

// IsEnabled returns true if retries are enabled.
func (c ConnectRetryConfig) IsEnabled() bool {
	return c.MaxRetries > 0
}

func (c ConnectRetryConfig) backOff() *backoff.ExponentialBackOff {
	jitter := c.JitterFactor
	if jitter <= 0 {
		jitter = DefaultConnectJitterFactor
	}
	b := backoff.NewExponentialBackOff()
	if c.InitialInterval > 0 {
		b.InitialInterval = c.InitialInterval
	}
	if c.MaxInterval > 0 {
		b.MaxInterval = c.MaxInterval
	}
	if c.Multiplier > 0 {
		b.Multiplier = c.Multiplier
	}
	b.RandomizationFactor = jitter
	return b
}

// ping checks db, retrying as configured. notify is called before every
// retry with the error that caused it.
func (c ConnectRetryConfig) ping(
	ctx context.Context,
	db *sqlx.DB,
	notify func(attempt int, err error, next time.Duration),
) error {
	if !c.IsEnabled() {
		return db.PingContext(ctx)
	}

	// backoff.Retry bounds the sequence by 15 minutes unless told
	// otherwise; zero turns the bound off.
	opts := []backoff.RetryOption{
		backoff.WithBackOff(c.backOff()),
		backoff.WithMaxTries(c.MaxRetries + 1),
		backoff.WithMaxElapsedTime(c.MaxElapsedTime),
	}

	attempt := 0
	opts = append(opts, backoff.WithNotify(func(err error, next time.Duration) {
		attempt++
		if notify != nil {
			notify(attempt, err, next)
		}
	}))

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, db.PingContext(ctx)
	}, opts...)
	return err
}
