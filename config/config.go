// Package config defines plantstream's process configuration: a JSON
// file with defaults applied for anything unset, validated before the
// process wires any component.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/c360/plantstream/errors"
	"github.com/c360/plantstream/pkg/retry"
)

// Duration wraps time.Duration so JSON configs can use readable values
// like "30s" or "100ms".
type Duration time.Duration

// UnmarshalJSON accepts either a Go duration string or a number of
// nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		parsed, err := time.ParseDuration(asString)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", asString, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var asNumber int64
	if err := json.Unmarshal(data, &asNumber); err != nil {
		return fmt.Errorf("duration must be a string or number: %w", err)
	}
	*d = Duration(asNumber)
	return nil
}

// MarshalJSON renders the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root process configuration.
type Config struct {
	Engine  EngineConfig  `json:"engine"`
	Channel ChannelConfig `json:"channel"`
	Gateway GatewayConfig `json:"gateway"`
}

// EngineConfig controls the telemetry engine.
type EngineConfig struct {
	// TickInterval is the spacing between simulation ticks.
	TickInterval Duration `json:"tick_interval"`

	// WateringDuration is how long the pump runs per watering cycle.
	WateringDuration Duration `json:"watering_duration"`

	// QueryLatency is the simulated network latency applied to facade
	// queries and commands. Zero disables the delay (tests).
	QueryLatency Duration `json:"query_latency"`
}

// ChannelConfig controls the resilient channel client.
type ChannelConfig struct {
	// URL of the upstream WebSocket endpoint. Empty disables the
	// channel client.
	URL string `json:"url"`

	// MaxRetries is the number of reconnect attempts after a failed
	// dial before the client gives up. Zero retries forever.
	MaxRetries   int      `json:"max_retries"`
	InitialDelay Duration `json:"initial_delay"`
	MaxDelay     Duration `json:"max_delay"`
	Multiplier   float64  `json:"multiplier"`
}

// Backoff maps the channel settings onto a retry policy.
func (c ChannelConfig) Backoff() retry.Config {
	return retry.Config{
		MaxAttempts:  c.MaxRetries,
		InitialDelay: c.InitialDelay.Std(),
		MaxDelay:     c.MaxDelay.Std(),
		Multiplier:   c.Multiplier,
	}
}

// GatewayConfig controls the HTTP/WebSocket gateway.
type GatewayConfig struct {
	// Addr is the listen address. Empty disables the gateway.
	Addr string `json:"addr"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			TickInterval:     Duration(30 * time.Second),
			WateringDuration: Duration(10 * time.Second),
			QueryLatency:     Duration(100 * time.Millisecond),
		},
		Channel: ChannelConfig{
			MaxRetries:   5,
			InitialDelay: Duration(time.Second),
			MaxDelay:     Duration(60 * time.Second),
			Multiplier:   2.0,
		},
		Gateway: GatewayConfig{
			Addr: ":3001",
		},
	}
}

// Load reads a JSON config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.WrapInvalid(err, "config", "Load", "read config file")
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.WrapInvalid(err, "config", "Load", "parse config file")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks invariants the components rely on.
func (c Config) Validate() error {
	if c.Engine.TickInterval.Std() <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("tick_interval must be positive, got %s", c.Engine.TickInterval.Std()),
			"config", "Validate", "engine settings")
	}
	if c.Engine.WateringDuration.Std() <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("watering_duration must be positive, got %s", c.Engine.WateringDuration.Std()),
			"config", "Validate", "engine settings")
	}
	if c.Engine.QueryLatency.Std() < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("query_latency must not be negative, got %s", c.Engine.QueryLatency.Std()),
			"config", "Validate", "engine settings")
	}
	if c.Channel.MaxRetries < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("max_retries must not be negative, got %d", c.Channel.MaxRetries),
			"config", "Validate", "channel settings")
	}
	if c.Channel.URL != "" && c.Channel.InitialDelay.Std() <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("initial_delay must be positive when channel is enabled"),
			"config", "Validate", "channel settings")
	}
	return nil
}
