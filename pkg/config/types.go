package config

import "time"

// MaskingConfig defines PII/secret redaction configuration for the ingestion
// pipeline's privacy filter stage.
type MaskingConfig struct {
	Enabled       bool             `yaml:"enabled"`
	PatternGroups []string         `yaml:"pattern_groups,omitempty"`
	Patterns      []string         `yaml:"patterns,omitempty"`
	Custom        []MaskingPattern `yaml:"custom_patterns,omitempty"`
}

// MaskingPattern defines a regex-based redaction pattern.
type MaskingPattern struct {
	Pattern     string `yaml:"pattern" validate:"required"`
	Replacement string `yaml:"replacement" validate:"required"`
	Description string `yaml:"description,omitempty"`
}

// CacheConfig tunes the multi-level cache stack (C2).
type CacheConfig struct {
	L1Size        int           `yaml:"l1_size,omitempty" validate:"omitempty,min=1"`
	L1TTL         time.Duration `yaml:"l1_ttl,omitempty"`
	L2TTL         time.Duration `yaml:"l2_ttl,omitempty"`
	L3TTL         time.Duration `yaml:"l3_ttl,omitempty"`
	NegativeTTL   time.Duration `yaml:"negative_ttl,omitempty"`
	RedisAddr     string        `yaml:"redis_addr,omitempty"`
	SemanticCache bool          `yaml:"semantic_cache_enabled"`
	SemanticSim   float64       `yaml:"semantic_similarity_threshold,omitempty" validate:"omitempty,min=0,max=1"`
}

// RetryConfig tunes the intelligent retry primitive (C1).
type RetryConfig struct {
	Enabled        bool          `yaml:"enabled"`
	MaxAttempts    int           `yaml:"max_attempts,omitempty" validate:"omitempty,min=1"`
	Strategy       RetryStrategy `yaml:"strategy,omitempty"`
	BaseDelay      time.Duration `yaml:"base_delay,omitempty"`
	MaxDelay       time.Duration `yaml:"max_delay,omitempty"`
	Multiplier     float64       `yaml:"multiplier,omitempty" validate:"omitempty,min=1"`
	Jitter         bool          `yaml:"jitter"`
}

// BreakerConfig tunes the circuit breaker (C1).
type BreakerConfig struct {
	FailureThreshold     int           `yaml:"failure_threshold,omitempty" validate:"omitempty,min=1"`
	SuccessThreshold     int           `yaml:"success_threshold,omitempty" validate:"omitempty,min=1"`
	Timeout              time.Duration `yaml:"timeout,omitempty"`
	FailureRateThreshold float64       `yaml:"failure_rate_threshold,omitempty" validate:"omitempty,min=0,max=1"`
	MinCalls             int           `yaml:"min_calls,omitempty" validate:"omitempty,min=1"`
}

// HTTPConfig tunes the resilient HTTP facade (C2).
type HTTPConfig struct {
	TimeoutPerAttempt time.Duration `yaml:"timeout_per_attempt,omitempty"`
	TotalDeadline     time.Duration `yaml:"total_deadline,omitempty"`
	AllowedHosts      []string      `yaml:"allowed_hosts,omitempty"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes,omitempty"`
	Retry             RetryConfig   `yaml:"retry"`
}

// BudgetConfig holds tenant-window budget defaults consulted by the router (C6).
type BudgetConfig struct {
	HardCapUSD      float64       `yaml:"hard_cap_usd,omitempty" validate:"omitempty,min=0"`
	WindowDuration  time.Duration `yaml:"window_duration,omitempty"`
	RewardQuality   float64       `yaml:"reward_weight_quality,omitempty"`
	RewardCost      float64       `yaml:"reward_weight_cost,omitempty"`
	RewardLatency   float64       `yaml:"reward_weight_latency,omitempty"`
}

// MemoryConfig tunes the vector store / memory layer (C4).
type MemoryConfig struct {
	EmbeddingModel      string        `yaml:"embedding_model,omitempty" validate:"required"`
	EmbeddingDimension  int           `yaml:"embedding_dimension,omitempty" validate:"omitempty,min=1"`
	DedupCosineThresh   float64       `yaml:"dedup_cosine_threshold,omitempty" validate:"omitempty,min=0,max=1"`
	DefaultTTL          time.Duration `yaml:"default_ttl,omitempty"`
	RerankEnabled       bool          `yaml:"rerank_enabled"`
}

// QueueConfig tunes the priority queue + scheduler (C7).
type QueueConfig struct {
	WorkerCount     int           `yaml:"worker_count,omitempty" validate:"omitempty,min=1"`
	LeaseDuration   time.Duration `yaml:"lease_duration,omitempty"`
	MaxAttempts     int           `yaml:"max_attempts,omitempty" validate:"omitempty,min=1"`
	PollInterval    time.Duration `yaml:"poll_interval,omitempty"`
	TickBatchSize   int           `yaml:"tick_batch_size,omitempty" validate:"omitempty,min=1"`
	TickBudget      time.Duration `yaml:"tick_budget,omitempty"`
}

// IngestConfig tunes the ingestion pipeline (C8).
type IngestConfig struct {
	ChunkTokenBudget int  `yaml:"chunk_token_budget,omitempty" validate:"omitempty,min=1"`
	ChunkOverlap     int  `yaml:"chunk_overlap,omitempty" validate:"omitempty,min=0"`
	Concurrent       bool `yaml:"concurrent_enabled"`
	Strict           bool `yaml:"strict"`
	MaxDownloadBytes int64 `yaml:"max_download_bytes,omitempty"`
}

// MissionDepth names one of the four named mission depths spec §4.9 lists
// ("standard ≈10 stages, deep ≈15, comprehensive ≈20, experimental ≈25").
type MissionDepth string

const (
	MissionStandard      MissionDepth = "standard"
	MissionDeep          MissionDepth = "deep"
	MissionComprehensive MissionDepth = "comprehensive"
	MissionExperimental  MissionDepth = "experimental"
)

// QualityGatePolicy is a depth's response to a stage scoring below
// threshold (spec §4.9 "(a) retry with a stronger router policy, (b)
// degrade and continue with a warning, or (c) short-circuit the mission").
type QualityGatePolicy string

const (
	GateRetryStronger QualityGatePolicy = "retry_stronger"
	GateDegradeWarn   QualityGatePolicy = "degrade_warn"
	GateShortCircuit  QualityGatePolicy = "short_circuit"
)

// MissionDepthPolicy is one depth's stage count and quality-gate behavior.
type MissionDepthPolicy struct {
	StageCount     int               `yaml:"stage_count,omitempty" validate:"omitempty,min=1"`
	QualityGate    QualityGatePolicy `yaml:"quality_gate,omitempty"`
	ScoreThreshold float64           `yaml:"score_threshold,omitempty" validate:"omitempty,min=0,max=1"`
}

// MissionConfig tunes the autonomous mission orchestrator (C9).
type MissionConfig struct {
	SoftDeadline     time.Duration                       `yaml:"soft_deadline,omitempty"`
	MaxRetries       int                                 `yaml:"max_retries,omitempty" validate:"omitempty,min=0"`
	Depths           map[MissionDepth]MissionDepthPolicy `yaml:"depths,omitempty"`
	OutboxRetention  time.Duration                       `yaml:"outbox_retention,omitempty"`
}
