package clipsync

import "fmt"

// AuthError wraps a failed credential exchange. The cycle that hit it fails;
// renewal is not retried in a tight loop.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("auth: %v", e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// ConfigError marks a setup mistake (unparseable lookback unit, missing
// broadcaster entry). Fatal to a one-shot invocation, never retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "config: " + e.Reason }

// UpstreamLookupError wraps a failed Helix call, including network-level
// faults. Retryable on the next cycle.
type UpstreamLookupError struct {
	Op  string // "users", "videos", "games", "clips", "broadcaster"
	Err error
}

func (e *UpstreamLookupError) Error() string {
	return fmt.Sprintf("upstream %s lookup: %v", e.Op, e.Err)
}
func (e *UpstreamLookupError) Unwrap() error { return e.Err }

// EnrichmentError wraps the first failed cross-reference resolution. The
// cycle fails as a whole; partial enrichment is never silently accepted.
type EnrichmentError struct {
	Err error
}

func (e *EnrichmentError) Error() string { return fmt.Sprintf("enrichment: %v", e.Err) }
func (e *EnrichmentError) Unwrap() error { return e.Err }

// DeliveryError wraps a failed webhook send or edit for a single clip. It is
// logged and the cycle continues with the remaining clips.
type DeliveryError struct {
	ClipID string
	Err    error
}

func (e *DeliveryError) Error() string { return fmt.Sprintf("deliver clip %s: %v", e.ClipID, e.Err) }
func (e *DeliveryError) Unwrap() error { return e.Err }
