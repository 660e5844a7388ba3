package config

import (
	"sync"
	"time"
)

// BuiltinConfig holds all built-in defaults, applied before the YAML file
// layer and before environment overrides (spec §4.3: defaults < file < env <
// runtime overrides).
type BuiltinConfig struct {
	Flags    map[string]bool
	Cache    CacheConfig
	HTTP     HTTPConfig
	Breaker  BreakerConfig
	Budget   BudgetConfig
	Memory   MemoryConfig
	Queue    QueueConfig
	Ingest   IngestConfig
	Masking  MaskingConfig
	Mission  MissionConfig
	Defaults Defaults
}

var (
	builtinConfig     *BuiltinConfig
	builtinConfigOnce sync.Once
)

// GetBuiltinConfig returns the singleton built-in configuration (thread-safe,
// lazy-initialized), mirroring the teacher's builtin-registry pattern.
func GetBuiltinConfig() *BuiltinConfig {
	builtinConfigOnce.Do(initBuiltinConfig)
	return builtinConfig
}

// allFlags is the exhaustive ENABLE_* flag table with each flag's built-in
// default: ENABLE_INGEST_STRICT, ENABLE_HTTP_RETRY, ENABLE_RERANK and
// ENABLE_MISSION_PARALLEL default to on; the other three default to off.
func allFlags() map[string]bool {
	return map[string]bool{
		"ENABLE_INGEST_CONCURRENT": false,
		"ENABLE_INGEST_STRICT":     true,
		"ENABLE_HTTP_RETRY":        true,
		"ENABLE_SEMANTIC_CACHE":    false,
		"ENABLE_RERANK":            true,
		"ENABLE_MISSION_PARALLEL":  true,
		"ENABLE_CONFIG_HOT_RELOAD": false,
	}
}

func initBuiltinConfig() {
	builtinConfig = &BuiltinConfig{
		Flags: allFlags(),
		Cache: CacheConfig{
			L1Size:      10_000,
			L1TTL:       30 * time.Second,
			L2TTL:       10 * time.Minute,
			L3TTL:       24 * time.Hour,
			NegativeTTL: 30 * time.Second,
			SemanticSim: 0.95,
		},
		HTTP: HTTPConfig{
			TimeoutPerAttempt: 30 * time.Second,
			TotalDeadline:     2 * time.Minute,
			MaxBodyBytes:      100 << 20,
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				Strategy:    RetryExponential,
				BaseDelay:   250 * time.Millisecond,
				MaxDelay:    30 * time.Second,
				Multiplier:  2.0,
				Jitter:      true,
			},
		},
		Breaker: BreakerConfig{
			FailureThreshold:     5,
			SuccessThreshold:     2,
			Timeout:              30 * time.Second,
			FailureRateThreshold: 0.5,
			MinCalls:             10,
		},
		Budget: BudgetConfig{
			HardCapUSD:     10.0,
			WindowDuration: 24 * time.Hour,
			RewardQuality:  0.5,
			RewardCost:     0.4,
			RewardLatency:  0.1,
		},
		Memory: MemoryConfig{
			EmbeddingModel:     "text-embedding-3-small",
			EmbeddingDimension: 1536,
			DedupCosineThresh:  0.97,
			DefaultTTL:         90 * 24 * time.Hour,
			RerankEnabled:      true,
		},
		Queue: QueueConfig{
			WorkerCount:   4,
			LeaseDuration: 5 * time.Minute,
			MaxAttempts:   5,
			PollInterval:  15 * time.Second,
			TickBatchSize: 100,
			TickBudget:    10 * time.Second,
		},
		Ingest: IngestConfig{
			ChunkTokenBudget: 400,
			ChunkOverlap:     40,
			Concurrent:       false,
			Strict:           true,
			MaxDownloadBytes: 500 << 20,
		},
		Masking: MaskingConfig{
			Enabled:       true,
			PatternGroups: []string{"pii", "secrets"},
		},
		Mission: MissionConfig{
			SoftDeadline:    20 * time.Minute,
			MaxRetries:      2,
			OutboxRetention: 30 * 24 * time.Hour,
			Depths: map[MissionDepth]MissionDepthPolicy{
				MissionStandard:      {StageCount: 10, QualityGate: GateDegradeWarn, ScoreThreshold: 0.55},
				MissionDeep:          {StageCount: 15, QualityGate: GateRetryStronger, ScoreThreshold: 0.6},
				MissionComprehensive: {StageCount: 20, QualityGate: GateRetryStronger, ScoreThreshold: 0.65},
				MissionExperimental:  {StageCount: 25, QualityGate: GateShortCircuit, ScoreThreshold: 0.7},
			},
		},
		Defaults: Defaults{
			MetricsNamespace: "mediacore",
		},
	}
}
