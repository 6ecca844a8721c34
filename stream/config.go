package stream

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/mmwave/packet"
)

// Config tunes the stream frame reader. The zero value is usable: every
// unset field takes its default when the reader is constructed.
type Config struct {
	// FramePeriod is the sensor's expected inter-frame interval, used to
	// pace resynchronisation attempts.
	FramePeriod time.Duration `json:"frame_period"`

	// ResyncFraction is the fraction of FramePeriod that must elapse
	// after a successful sync before the next magic-word search polls
	// the transport.
	ResyncFraction float64 `json:"resync_fraction"`

	// GlobalTimeout bounds one whole ReadPacket call.
	GlobalTimeout time.Duration `json:"global_timeout"`

	// HeaderTimeout bounds the header region fill.
	HeaderTimeout time.Duration `json:"header_timeout"`

	// BodyBaseTimeout and BodyTimePer100B derive the payload region
	// timeout from the payload size.
	BodyBaseTimeout time.Duration `json:"body_base_timeout"`
	BodyTimePer100B time.Duration `json:"body_time_per_100b"`

	// Assembly is the stall-tolerance policy for region fills.
	Assembly AssemblyPolicy `json:"assembly"`

	// Bounds are the header validation limits.
	Bounds packet.Bounds `json:"bounds"`

	// Debug enables human-readable traces of synchronisation and
	// validation decisions. It never alters framing behaviour.
	Debug bool `json:"debug"`
}

// DefaultConfig returns the reader tuning for the mmWave demo firmware at
// its 10Hz frame rate.
func DefaultConfig() Config {
	return Config{
		FramePeriod:     100 * time.Millisecond,
		ResyncFraction:  0.65,
		GlobalTimeout:   150 * time.Millisecond,
		HeaderTimeout:   25 * time.Millisecond,
		BodyBaseTimeout: 50 * time.Millisecond,
		BodyTimePer100B: 10 * time.Millisecond,
		Assembly:        DefaultAssemblyPolicy(),
		Bounds:          packet.DefaultBounds(),
	}
}

// normalized fills unset fields with their defaults.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.FramePeriod <= 0 {
		c.FramePeriod = def.FramePeriod
	}
	if c.ResyncFraction <= 0 || c.ResyncFraction > 1 {
		c.ResyncFraction = def.ResyncFraction
	}
	if c.GlobalTimeout <= 0 {
		c.GlobalTimeout = def.GlobalTimeout
	}
	if c.HeaderTimeout <= 0 {
		c.HeaderTimeout = def.HeaderTimeout
	}
	if c.BodyBaseTimeout <= 0 {
		c.BodyBaseTimeout = def.BodyBaseTimeout
	}
	if c.BodyTimePer100B <= 0 {
		c.BodyTimePer100B = def.BodyTimePer100B
	}
	if c.Assembly.StallWindow <= 0 {
		c.Assembly.StallWindow = def.Assembly.StallWindow
	}
	if c.Assembly.ActivityWindow <= 0 {
		c.Assembly.ActivityWindow = def.Assembly.ActivityWindow
	}
	if c.Assembly.RefillWindow <= 0 {
		c.Assembly.RefillWindow = def.Assembly.RefillWindow
	}
	if c.Assembly.PollInterval <= 0 {
		c.Assembly.PollInterval = def.Assembly.PollInterval
	}
	if len(c.Assembly.Tiers) == 0 && c.Assembly.FallbackRatio == 0 {
		c.Assembly.Tiers = def.Assembly.Tiers
		c.Assembly.FallbackRatio = def.Assembly.FallbackRatio
	}
	if c.Bounds == (packet.Bounds{}) {
		c.Bounds = def.Bounds
	}
	return c
}

// BodyTimeout returns the uncapped fill timeout for a payload of the given
// byte count. The caller additionally caps it by the remaining global
// budget.
func (c Config) BodyTimeout(payloadLen int) time.Duration {
	return c.BodyBaseTimeout + time.Duration(payloadLen)*c.BodyTimePer100B/100
}

// LoadConfig loads a Config from a JSON file. Fields omitted from the file
// retain their default values, so partial configs are safe. Durations are
// written as strings like "25ms".
func LoadConfig(path string) (Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return Config{}, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return Config{}, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	return raw.apply(DefaultConfig())
}

// rawConfig is the JSON shape of Config: optional fields with durations as
// strings.
type rawConfig struct {
	FramePeriod     *string  `json:"frame_period,omitempty"`
	ResyncFraction  *float64 `json:"resync_fraction,omitempty"`
	GlobalTimeout   *string  `json:"global_timeout,omitempty"`
	HeaderTimeout   *string  `json:"header_timeout,omitempty"`
	BodyBaseTimeout *string  `json:"body_base_timeout,omitempty"`
	BodyTimePer100B *string  `json:"body_time_per_100b,omitempty"`

	StallWindow    *string          `json:"stall_window,omitempty"`
	ActivityWindow *string          `json:"activity_window,omitempty"`
	RefillWindow   *string          `json:"refill_window,omitempty"`
	PollInterval   *string          `json:"poll_interval,omitempty"`
	Tiers          []CompletionTier `json:"tiers,omitempty"`
	FallbackRatio  *float64         `json:"fallback_ratio,omitempty"`

	MaxPacketLen   *uint32 `json:"max_packet_len,omitempty"`
	MaxDetectedObj *uint32 `json:"max_detected_obj,omitempty"`
	MaxTLV         *uint32 `json:"max_tlv,omitempty"`

	Debug *bool `json:"debug,omitempty"`
}

func (r rawConfig) apply(base Config) (Config, error) {
	setDur := func(dst *time.Duration, src *string, name string) error {
		if src == nil {
			return nil
		}
		d, err := time.ParseDuration(*src)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, *src, err)
		}
		*dst = d
		return nil
	}

	for _, f := range []struct {
		dst  *time.Duration
		src  *string
		name string
	}{
		{&base.FramePeriod, r.FramePeriod, "frame_period"},
		{&base.GlobalTimeout, r.GlobalTimeout, "global_timeout"},
		{&base.HeaderTimeout, r.HeaderTimeout, "header_timeout"},
		{&base.BodyBaseTimeout, r.BodyBaseTimeout, "body_base_timeout"},
		{&base.BodyTimePer100B, r.BodyTimePer100B, "body_time_per_100b"},
		{&base.Assembly.StallWindow, r.StallWindow, "stall_window"},
		{&base.Assembly.ActivityWindow, r.ActivityWindow, "activity_window"},
		{&base.Assembly.RefillWindow, r.RefillWindow, "refill_window"},
		{&base.Assembly.PollInterval, r.PollInterval, "poll_interval"},
	} {
		if err := setDur(f.dst, f.src, f.name); err != nil {
			return Config{}, err
		}
	}

	if r.ResyncFraction != nil {
		base.ResyncFraction = *r.ResyncFraction
	}
	if len(r.Tiers) > 0 {
		base.Assembly.Tiers = r.Tiers
	}
	if r.FallbackRatio != nil {
		base.Assembly.FallbackRatio = *r.FallbackRatio
	}
	if r.MaxPacketLen != nil {
		base.Bounds.MaxPacketLen = *r.MaxPacketLen
	}
	if r.MaxDetectedObj != nil {
		base.Bounds.MaxDetectedObj = *r.MaxDetectedObj
	}
	if r.MaxTLV != nil {
		base.Bounds.MaxTLV = *r.MaxTLV
	}
	if r.Debug != nil {
		base.Debug = *r.Debug
	}

	return base.normalized(), nil
}
