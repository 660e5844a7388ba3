package config

import "sync/atomic"

// Config is the umbrella configuration object produced by Initialize.
// It is immutable after load except for the feature-flag table, which is
// swapped atomically on hot-reload (see loader.go's watch loop) so that
// concurrent readers never observe a torn set of flags.
type Config struct {
	configDir string

	Defaults Defaults
	Cache    CacheConfig
	HTTP     HTTPConfig
	Breaker  BreakerConfig
	Budget   BudgetConfig
	Memory   MemoryConfig
	Queue    QueueConfig
	Ingest   IngestConfig
	Masking  MaskingConfig
	Mission  MissionConfig

	flags atomic.Pointer[map[string]bool]
}

// Defaults holds system-wide tunables that don't belong to one component.
type Defaults struct {
	TenantRoot       string `yaml:"tenant_root,omitempty"`
	MetricsNamespace string `yaml:"metrics_namespace,omitempty"`
	TracingEnabled   bool   `yaml:"tracing_enabled"`
}

// ConfigDir returns the directory Initialize loaded this config from.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// Flag reads a single ENABLE_* feature flag at the call site. Flags are never
// cached by callers — every read goes through this method so tests can toggle
// behavior mid-run (spec §4.3).
func (c *Config) Flag(name string) bool {
	m := c.flags.Load()
	if m == nil {
		return false
	}
	return (*m)[name]
}

// setFlags atomically replaces the flag table (called by the loader on
// initial load and on every hot-reload).
func (c *Config) setFlags(flags map[string]bool) {
	c.flags.Store(&flags)
}
