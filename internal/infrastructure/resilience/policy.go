package resilience

import "time"

// Config holds retry and circuit breaker settings for one operation family.
type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

// DefaultConfig returns the baseline policy applied to operations that have
// no dedicated profile.
func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     400 * time.Millisecond,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,
	}
}

// Profiles maps operation names to policies. Operations without an entry
// fall back to Default.
type Profiles struct {
	Default      Config
	PerOperation map[string]Config
}

// DefaultProfiles tunes policies per collaborator. SEC endpoints throttle
// hard, so filing fetches back off longer between attempts. Language model
// calls are slow and expensive, so they retry at most once and hold the
// breaker open longer.
func DefaultProfiles() Profiles {
	edgar := DefaultConfig()
	edgar.RetryMaxAttempts = 4
	edgar.RetryInitialBackoff = 250 * time.Millisecond
	edgar.RetryMaxBackoff = 2 * time.Second

	llm := DefaultConfig()
	llm.RetryMaxAttempts = 2
	llm.RetryInitialBackoff = 500 * time.Millisecond
	llm.RetryMaxBackoff = 1 * time.Second
	llm.BreakerOpenTimeout = 60 * time.Second

	return Profiles{
		Default: DefaultConfig(),
		PerOperation: map[string]Config{
			"edgar.tickers":       edgar,
			"edgar.submissions":   edgar,
			"edgar.document":      edgar,
			"edgar.company_facts": edgar,
			"ollama.generate":     llm,
			"ollama.embed":        llm,
			"finbert.classify":    llm,
		},
	}
}

// SingleProfile wraps one Config as a profile set, for callers and tests
// that do not distinguish operations.
func SingleProfile(cfg Config) Profiles {
	return Profiles{Default: cfg}
}

// For resolves the normalized policy for an operation.
func (p Profiles) For(operation string) Config {
	if cfg, ok := p.PerOperation[operation]; ok {
		return cfg.normalize()
	}
	return p.Default.normalize()
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	if out.RetryMaxAttempts <= 0 {
		out.RetryMaxAttempts = def.RetryMaxAttempts
	}
	if out.RetryInitialBackoff <= 0 {
		out.RetryInitialBackoff = def.RetryInitialBackoff
	}
	if out.RetryMaxBackoff <= 0 {
		out.RetryMaxBackoff = def.RetryMaxBackoff
	}
	if out.RetryMaxBackoff < out.RetryInitialBackoff {
		out.RetryMaxBackoff = out.RetryInitialBackoff
	}
	if out.RetryMultiplier < 1.0 {
		out.RetryMultiplier = def.RetryMultiplier
	}

	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = def.BreakerMinRequests
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if out.BreakerHalfOpenMaxCalls == 0 {
		out.BreakerHalfOpenMaxCalls = def.BreakerHalfOpenMaxCalls
	}

	return out
}
