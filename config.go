package spanz

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "SPANZ"

// Configuration keys.
const (
	KeyDebugPRNGSeed   = "debug_prng_seed"
	KeyTimingPolicy    = "timing_policy"
	KeyCollectorBuffer = "collector_buffer"
	KeyLogLevel        = "log_level"
)

// Config holds process-wide settings shared by every Tracer.
type Config struct {
	LogLevel string
	// DebugPRNGSeed seeds identifiers reproducibly when positive.
	DebugPRNGSeed   int64
	CollectorBuffer int
	TimingPolicy    TimingPolicy
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		LogLevel:        "info",
		CollectorBuffer: 1024,
		TimingPolicy:    StopOnClose,
	}
}

// DebugSeed returns the fixed seed, or 0 when platform seeding applies.
func (c Config) DebugSeed() uint64 {
	if c.DebugPRNGSeed > 0 {
		return uint64(c.DebugPRNGSeed)
	}
	return 0
}

// NewViper returns a viper instance reading SPANZ_* environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	d := DefaultConfig()
	v.SetDefault(KeyDebugPRNGSeed, 0)
	v.SetDefault(KeyTimingPolicy, d.TimingPolicy.String())
	v.SetDefault(KeyCollectorBuffer, d.CollectorBuffer)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	return v
}

// LoadConfig reads Config from v. Values that do not parse are errors
// rather than silent zeroes.
func LoadConfig(v *viper.Viper) (Config, error) {
	if v == nil {
		v = NewViper()
	}
	cfg := DefaultConfig()

	seed, err := cast.ToInt64E(v.Get(KeyDebugPRNGSeed))
	if err != nil {
		return cfg, errors.Wrapf(err, "parse %s", KeyDebugPRNGSeed)
	}
	cfg.DebugPRNGSeed = seed

	policy, err := ParseTimingPolicy(cast.ToString(v.Get(KeyTimingPolicy)))
	if err != nil {
		return cfg, err
	}
	cfg.TimingPolicy = policy

	buf, err := cast.ToIntE(v.Get(KeyCollectorBuffer))
	if err != nil {
		return cfg, errors.Wrapf(err, "parse %s", KeyCollectorBuffer)
	}
	if buf <= 0 {
		return cfg, errors.Errorf("%s must be > 0, got %d", KeyCollectorBuffer, buf)
	}
	cfg.CollectorBuffer = buf

	if lvl := cast.ToString(v.Get(KeyLogLevel)); lvl != "" {
		cfg.LogLevel = lvl
	}
	return cfg, nil
}

// ParseTimingPolicy parses "stop_on_close" or "manual". Empty selects
// StopOnClose.
func ParseTimingPolicy(s string) (TimingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stop_on_close":
		return StopOnClose, nil
	case "manual":
		return ManualStop, nil
	default:
		return StopOnClose, errors.Errorf("unknown %s %q", KeyTimingPolicy, s)
	}
}
