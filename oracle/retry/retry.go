package retry

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/VerisLabs/hurdleRateOracle/oracle/log"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Config controls the backoff of Do.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 5,
		BaseDelay:   1 * time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
	}
}

// FetchConfig is tuned for source API calls made by the executor.
func FetchConfig(maxAttempts int, baseDelay time.Duration) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		MaxDelay:    30 * time.Second,
		Multiplier:  1.5,
	}
}

type Func func() error

type IsRetryable func(error) bool

type transientError struct {
	err error
}

func (e transientError) Error() string { return e.err.Error() }
func (e transientError) Unwrap() error { return e.err }

// Transient marks err as worth retrying regardless of its message.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return transientError{err: err}
}

var retryableMessages = []string{
	"connection refused",
	"timeout",
	"temporary failure",
	"network is unreachable",
	"no such host",
	"connection reset",
	"broken pipe",
	"i/o timeout",
	"EOF",
}

// DefaultIsRetryable retries errors marked Transient and common network failures.
func DefaultIsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var transient transientError
	if errors.As(err, &transient) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrCircuitOpen) {
		return false
	}

	msg := err.Error()
	for _, retryable := range retryableMessages {
		if strings.Contains(msg, retryable) {
			return true
		}
	}
	return false
}

// Do runs fn until it succeeds, returns a non-retryable error, or runs out of attempts.
func Do(ctx context.Context, config *Config, fn Func, isRetryable IsRetryable) error {
	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			if attempt > 1 {
				log.Debugf("retry: succeeded on attempt %d", attempt)
			}
			return nil
		}

		lastErr = err
		if attempt == config.MaxAttempts {
			break
		}
		if !isRetryable(err) {
			return err
		}

		delay := calculateDelay(config, attempt)
		log.Debugf("retry: attempt %d/%d failed: %v, waiting %v", attempt, config.MaxAttempts, err, delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return errors.Wrapf(lastErr, "all %d attempts failed", config.MaxAttempts)
}

func calculateDelay(config *Config, attempt int) time.Duration {
	delay := float64(config.BaseDelay) * math.Pow(config.Multiplier, float64(attempt-1))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}

type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker stops calling a failing dependency for resetTimeout after
// maxFailures consecutive failures.
type CircuitBreaker struct {
	mu           sync.Mutex
	maxFailures  int
	resetTimeout time.Duration
	failures     int
	lastFailTime time.Time
	state        CircuitState
	now          func() time.Time
}

func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        StateClosed,
		now:          time.Now,
	}
}

func (cb *CircuitBreaker) Execute(fn Func) error {
	cb.mu.Lock()
	if cb.state == StateOpen {
		if cb.now().Sub(cb.lastFailTime) <= cb.resetTimeout {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		log.Debugf("circuit breaker: open -> half-open")
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		cb.lastFailTime = cb.now()
		if cb.failures >= cb.maxFailures || cb.state == StateHalfOpen {
			cb.state = StateOpen
			log.Errorf("circuit breaker: open after %d failures", cb.failures)
		}
		return err
	}

	cb.state = StateClosed
	cb.failures = 0
	return nil
}

func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
