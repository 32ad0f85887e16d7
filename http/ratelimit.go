// Package http provides HTTP client infrastructure for catalog interactions
// with built-in retry logic, rate limiting, and error handling.
package http

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter manages per-domain request pacing using a token bucket.
// The catalog tolerates roughly one request every half second; anything
// faster risks blocks, so the limiter also reduces the rate dynamically
// when the server starts pushing back.
type RateLimiter struct {
	limiters     map[string]*rate.Limiter
	backoffState map[string]*BackoffState
	mu           sync.RWMutex
	config       RateLimiterConfig
}

// BackoffState tracks rate limit backoff for a domain.
type BackoffState struct {
	// CurrentBackoff is the current backoff duration
	CurrentBackoff time.Duration
	// LastError is when the last rate limit error occurred
	LastError time.Time
	// ConsecutiveErrors is the count of consecutive rate limit errors
	ConsecutiveErrors int
	// OriginalRPS is the original configured rate to restore after cooldown
	OriginalRPS float64
	// ReducedRPS is the current reduced rate (0 means using original)
	ReducedRPS float64
}

// Backoff tuning for catalog rate limiting.
const (
	// InitialBackoff is the first backoff applied after a rate limit error.
	InitialBackoff = 1 * time.Second
	// MaxBackoff caps the exponential backoff.
	MaxBackoff = 60 * time.Second
	// BackoffMultiplier is the exponential backoff multiplier.
	BackoffMultiplier = 2.0
	// BackoffCooldownPeriod is how long after the last error before the
	// original rate is restored.
	BackoffCooldownPeriod = 5 * time.Minute
	// MinRPSMultiplier is the floor for dynamic rate reduction
	// (0.25 = 25% of the configured rate).
	MinRPSMultiplier = 0.25
)

// RateLimiterConfig defines rate limiting behavior.
type RateLimiterConfig struct {
	// CatalogRPS is requests per second for catalog page fetches
	// (default: 2.0, i.e. one request per 500ms).
	CatalogRPS float64
	// MediaRPS is requests per second for audio payload fetches.
	MediaRPS float64
	// CustomRates maps domains to RPS values (0 = unlimited).
	CustomRates map[string]float64
	// EnableDynamicBackoff enables automatic rate reduction on errors.
	EnableDynamicBackoff bool
}

// DefaultRateLimiterConfig returns defaults aligned with the catalog's
// observed tolerance.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		CatalogRPS:           2.0,
		MediaRPS:             2.0,
		CustomRates:          make(map[string]float64),
		EnableDynamicBackoff: true,
	}
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.CatalogRPS == 0 {
		cfg.CatalogRPS = DefaultRateLimiterConfig().CatalogRPS
	}
	if cfg.MediaRPS == 0 {
		cfg.MediaRPS = DefaultRateLimiterConfig().MediaRPS
	}
	if cfg.CustomRates == nil {
		cfg.CustomRates = make(map[string]float64)
	}

	return &RateLimiter{
		limiters:     make(map[string]*rate.Limiter),
		backoffState: make(map[string]*BackoffState),
		config:       cfg,
	}
}

// Wait waits until the rate limit allows a request for the given URL.
// Returns an error if the context is canceled or exceeded deadline.
func (rl *RateLimiter) Wait(ctx context.Context, urlStr string) error {
	if rl == nil {
		return nil
	}

	limiter := rl.getLimiter(urlStr)
	if limiter == nil {
		// No rate limiting for this domain
		return nil
	}

	if !limiter.Allow() {
		reservation := limiter.Reserve()
		if !reservation.OK() {
			return fmt.Errorf("rate limit: cannot reserve token")
		}

		select {
		case <-time.After(reservation.Delay()):
			return nil
		case <-ctx.Done():
			reservation.Cancel()
			return ctx.Err()
		}
	}

	return nil
}

// getLimiter returns the rate limiter for a given URL, creating one if necessary.
func (rl *RateLimiter) getLimiter(urlStr string) *rate.Limiter {
	domain := rl.extractDomain(urlStr)
	rps := rl.getRPS(domain, urlStr)

	// Unlimited (0 RPS)
	if rps == 0 {
		return nil
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limiters[domain]; ok {
		return limiter
	}

	// Token bucket with a burst of 1: requests are strictly paced.
	limiter := rate.NewLimiter(rate.Limit(rps), 1)
	rl.limiters[domain] = limiter
	return limiter
}

// getRPS returns the requests per second for a domain. Audio payload URLs
// use the media rate; everything else uses the catalog rate.
func (rl *RateLimiter) getRPS(domain, urlStr string) float64 {
	if rps, ok := rl.config.CustomRates[domain]; ok {
		return rps
	}
	if strings.Contains(urlStr, "/track/download/") {
		return rl.config.MediaRPS
	}
	return rl.config.CatalogRPS
}

// extractDomain extracts the domain from a URL string.
func (rl *RateLimiter) extractDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return "unknown"
	}

	host := u.Host
	if host == "" {
		return "unknown"
	}

	if idx := strings.IndexByte(host, ':'); idx != -1 {
		host = host[:idx]
	}

	return host
}

// SetCustomRate sets a custom rate limit for a specific domain.
func (rl *RateLimiter) SetCustomRate(domain string, rps float64) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.config.CustomRates[domain] = rps

	// Clear existing limiter to force recreation with new rate
	delete(rl.limiters, domain)
}

// RecordRateLimitError records a rate limit error for a domain and updates
// backoff state. Call this when a 429/403/503 response is received.
// Returns the recommended backoff duration before retrying.
func (rl *RateLimiter) RecordRateLimitError(urlStr string, retryAfter time.Duration) time.Duration {
	if rl == nil || !rl.config.EnableDynamicBackoff {
		if retryAfter > 0 {
			return retryAfter
		}
		return InitialBackoff
	}

	domain := rl.extractDomain(urlStr)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, exists := rl.backoffState[domain]
	if !exists {
		state = &BackoffState{
			CurrentBackoff: InitialBackoff,
			LastError:      time.Now(),
			OriginalRPS:    rl.getRPS(domain, urlStr),
		}
		rl.backoffState[domain] = state
	}

	state.LastError = time.Now()
	state.ConsecutiveErrors++

	// 1s -> 2s -> 4s -> 8s -> ... -> max
	if state.ConsecutiveErrors > 1 {
		state.CurrentBackoff = time.Duration(float64(state.CurrentBackoff) * BackoffMultiplier)
		if state.CurrentBackoff > MaxBackoff {
			state.CurrentBackoff = MaxBackoff
		}
	}

	// Respect a server-specified Retry-After when it is longer.
	effectiveBackoff := state.CurrentBackoff
	if retryAfter > effectiveBackoff {
		effectiveBackoff = retryAfter
		state.CurrentBackoff = retryAfter
	}

	rl.reduceRate(domain, state)

	return effectiveBackoff
}

// reduceRate reduces the rate limit for a domain based on backoff state.
// Must be called with mutex held.
func (rl *RateLimiter) reduceRate(domain string, state *BackoffState) {
	// 1 error: 75%, 2 errors: 50%, 3+ errors: 25%
	reductionFactor := 1.0
	switch {
	case state.ConsecutiveErrors >= 3:
		reductionFactor = MinRPSMultiplier
	case state.ConsecutiveErrors == 2:
		reductionFactor = 0.5
	case state.ConsecutiveErrors == 1:
		reductionFactor = 0.75
	}

	newRPS := state.OriginalRPS * reductionFactor
	if newRPS < state.OriginalRPS*MinRPSMultiplier {
		newRPS = state.OriginalRPS * MinRPSMultiplier
	}

	state.ReducedRPS = newRPS

	if limiter, ok := rl.limiters[domain]; ok {
		limiter.SetLimit(rate.Limit(newRPS))
	}
}

// RecordSuccess records a successful request, potentially resetting backoff state.
func (rl *RateLimiter) RecordSuccess(urlStr string) {
	if rl == nil || !rl.config.EnableDynamicBackoff {
		return
	}

	domain := rl.extractDomain(urlStr)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, exists := rl.backoffState[domain]
	if !exists {
		return
	}

	// If enough time has passed since the last error, restore the original rate.
	if time.Since(state.LastError) > BackoffCooldownPeriod {
		if limiter, ok := rl.limiters[domain]; ok && state.ReducedRPS > 0 {
			limiter.SetLimit(rate.Limit(state.OriginalRPS))
		}
		delete(rl.backoffState, domain)
		return
	}

	// Gradually reduce the error count; recover to half rate once clear.
	if state.ConsecutiveErrors > 0 {
		state.ConsecutiveErrors--

		if state.ReducedRPS > 0 && state.ConsecutiveErrors == 0 {
			newRPS := state.OriginalRPS * 0.5
			if newRPS > state.ReducedRPS {
				state.ReducedRPS = newRPS
				if limiter, ok := rl.limiters[domain]; ok {
					limiter.SetLimit(rate.Limit(newRPS))
				}
			}
		}
	}
}

// GetBackoffState returns a copy of the current backoff state for a domain,
// or nil if the domain is not backed off.
func (rl *RateLimiter) GetBackoffState(urlStr string) *BackoffState {
	if rl == nil {
		return nil
	}

	domain := rl.extractDomain(urlStr)

	rl.mu.RLock()
	defer rl.mu.RUnlock()

	if state, ok := rl.backoffState[domain]; ok {
		copied := *state
		return &copied
	}
	return nil
}

// IsBackedOff returns true if the domain is currently in a backoff state.
func (rl *RateLimiter) IsBackedOff(urlStr string) bool {
	state := rl.GetBackoffState(urlStr)
	if state == nil {
		return false
	}
	return time.Since(state.LastError) < state.CurrentBackoff
}

// WaitForBackoff waits for the current backoff period to expire.
// Returns immediately if not in backoff state.
func (rl *RateLimiter) WaitForBackoff(ctx context.Context, urlStr string) error {
	state := rl.GetBackoffState(urlStr)
	if state == nil {
		return nil
	}

	remaining := state.CurrentBackoff - time.Since(state.LastError)
	if remaining <= 0 {
		return nil
	}

	select {
	case <-time.After(remaining):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
