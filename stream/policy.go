package stream

import "time"

// CompletionTier maps a requested region size to the minimum completion
// ratio at which a stalled fill may be accepted.
type CompletionTier struct {
	// MaxSize is the largest region size in bytes this tier applies to.
	MaxSize int `json:"max_size"`

	// Ratio is the minimum filled fraction required for acceptance.
	Ratio float64 `json:"ratio"`
}

// AssemblyPolicy tunes how the buffered assembler trades latency against
// completeness when the link stops delivering bytes mid-region. Larger
// regions are more likely to lose trailing bytes under link load, so the
// acceptance threshold relaxes with size: zero-filling a small tail beats
// discarding an otherwise valid frame and missing a full sensor cycle.
type AssemblyPolicy struct {
	// StallWindow is how long the fill count may sit unchanged before
	// the region is considered stalled.
	StallWindow time.Duration `json:"stall_window"`

	// ActivityWindow is how recently transport bytes must have arrived
	// for a stall to be deferred.
	ActivityWindow time.Duration `json:"activity_window"`

	// RefillWindow bounds a single transport drain pass.
	RefillWindow time.Duration `json:"refill_window"`

	// PollInterval is the backoff sleep between polls of an idle link.
	PollInterval time.Duration `json:"poll_interval"`

	// Tiers lists acceptance thresholds by region size, in ascending
	// MaxSize order. Regions larger than every tier use FallbackRatio.
	Tiers []CompletionTier `json:"tiers"`

	// FallbackRatio applies to regions larger than every tier.
	FallbackRatio float64 `json:"fallback_ratio"`
}

// DefaultAssemblyPolicy returns the stall-tolerance tuning matched to the
// sensor's serial link behaviour.
func DefaultAssemblyPolicy() AssemblyPolicy {
	return AssemblyPolicy{
		StallWindow:    5 * time.Millisecond,
		ActivityWindow: 3 * time.Millisecond,
		RefillWindow:   10 * time.Millisecond,
		PollInterval:   200 * time.Microsecond,
		Tiers: []CompletionTier{
			{MaxSize: 200, Ratio: 0.95},
			{MaxSize: 300, Ratio: 0.85},
		},
		FallbackRatio: 0.75,
	}
}

// MinCompletionRatio returns the acceptance threshold for a region of the
// given size.
func (p AssemblyPolicy) MinCompletionRatio(size int) float64 {
	for _, tier := range p.Tiers {
		if size <= tier.MaxSize {
			return tier.Ratio
		}
	}
	return p.FallbackRatio
}
