package resilience

import "time"

const (
	DefaultThreshold         = 5
	DefaultResetTimeout      = 30 * time.Second
	DefaultHalfOpenSuccesses = 3

	// Frame sources: a camera that stops answering should go quiet fast and
	// be probed again soon, since the user is watching.
	SourceThreshold         = 3
	SourceResetTimeout      = 5 * time.Second
	SourceHalfOpenSuccesses = 1

	// Remote render calls.
	RPCThreshold         = 5
	RPCResetTimeout      = 15 * time.Second
	RPCHalfOpenSuccesses = 2
)

// Config holds circuit breaker settings.
type Config struct {
	Threshold         int           // failures before opening
	ResetTimeout      time.Duration // wait before half-open attempt
	HalfOpenSuccesses int           // successes needed to close
}

// DefaultConfig returns general purpose defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:         DefaultThreshold,
		ResetTimeout:      DefaultResetTimeout,
		HalfOpenSuccesses: DefaultHalfOpenSuccesses,
	}
}

// SourceConfig returns settings for live frame sources.
func SourceConfig() Config {
	return Config{
		Threshold:         SourceThreshold,
		ResetTimeout:      SourceResetTimeout,
		HalfOpenSuccesses: SourceHalfOpenSuccesses,
	}
}

// RPCConfig returns settings for remote render calls.
func RPCConfig() Config {
	return Config{
		Threshold:         RPCThreshold,
		ResetTimeout:      RPCResetTimeout,
		HalfOpenSuccesses: RPCHalfOpenSuccesses,
	}
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = DefaultResetTimeout
	}
	if c.HalfOpenSuccesses <= 0 {
		c.HalfOpenSuccesses = DefaultHalfOpenSuccesses
	}
	return c
}
