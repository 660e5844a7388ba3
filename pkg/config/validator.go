package config

import "fmt"

// Validator validates configuration comprehensively with clear error messages,
// failing fast on the first invalid section (grounded on the teacher's
// ValidateAll ordering pattern).
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll validates every config section in dependency order.
func (v *Validator) ValidateAll() error {
	if err := v.validateHTTP(); err != nil {
		return err
	}
	if err := v.validateCache(); err != nil {
		return err
	}
	if err := v.validateBreaker(); err != nil {
		return err
	}
	if err := v.validateBudget(); err != nil {
		return err
	}
	if err := v.validateMemory(); err != nil {
		return err
	}
	if err := v.validateQueue(); err != nil {
		return err
	}
	if err := v.validateIngest(); err != nil {
		return err
	}
	if err := v.validateMission(); err != nil {
		return err
	}
	return nil
}

func (v *Validator) validateHTTP() error {
	h := v.cfg.HTTP
	if h.TimeoutPerAttempt <= 0 {
		return NewValidationError("http", "timeout_per_attempt", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if h.Retry.MaxAttempts < 1 {
		return NewValidationError("http.retry", "max_attempts", fmt.Errorf("%w: must be >= 1", ErrInvalidValue))
	}
	if h.Retry.Enabled && !h.Retry.Strategy.IsValid() {
		return NewValidationError("http.retry", "strategy", fmt.Errorf("%w: %q", ErrInvalidValue, h.Retry.Strategy))
	}
	return nil
}

func (v *Validator) validateCache() error {
	c := v.cfg.Cache
	if c.L1Size < 1 {
		return NewValidationError("cache", "l1_size", fmt.Errorf("%w: must be >= 1", ErrInvalidValue))
	}
	if c.SemanticSim < 0 || c.SemanticSim > 1 {
		return NewValidationError("cache", "semantic_similarity_threshold", fmt.Errorf("%w: must be in [0,1]", ErrInvalidValue))
	}
	return nil
}

func (v *Validator) validateBreaker() error {
	b := v.cfg.Breaker
	if b.FailureThreshold < 1 || b.SuccessThreshold < 1 || b.MinCalls < 1 {
		return NewValidationError("breaker", "", fmt.Errorf("%w: thresholds must be >= 1", ErrInvalidValue))
	}
	if b.FailureRateThreshold < 0 || b.FailureRateThreshold > 1 {
		return NewValidationError("breaker", "failure_rate_threshold", fmt.Errorf("%w: must be in [0,1]", ErrInvalidValue))
	}
	return nil
}

func (v *Validator) validateBudget() error {
	b := v.cfg.Budget
	if b.HardCapUSD < 0 {
		return NewValidationError("budget", "hard_cap_usd", fmt.Errorf("%w: must be >= 0", ErrInvalidValue))
	}
	sum := b.RewardQuality + b.RewardCost + b.RewardLatency
	if sum <= 0 {
		return NewValidationError("budget", "reward_weights", fmt.Errorf("%w: weights must sum to a positive value", ErrInvalidValue))
	}
	return nil
}

func (v *Validator) validateMemory() error {
	m := v.cfg.Memory
	if m.EmbeddingModel == "" {
		return NewValidationError("memory", "embedding_model", ErrMissingRequiredField)
	}
	if m.EmbeddingDimension < 1 {
		return NewValidationError("memory", "embedding_dimension", fmt.Errorf("%w: must be >= 1", ErrInvalidValue))
	}
	if m.DedupCosineThresh < 0 || m.DedupCosineThresh > 1 {
		return NewValidationError("memory", "dedup_cosine_threshold", fmt.Errorf("%w: must be in [0,1]", ErrInvalidValue))
	}
	return nil
}

func (v *Validator) validateQueue() error {
	q := v.cfg.Queue
	if q.WorkerCount < 1 {
		return NewValidationError("queue", "worker_count", fmt.Errorf("%w: must be >= 1", ErrInvalidValue))
	}
	if q.LeaseDuration <= 0 {
		return NewValidationError("queue", "lease_duration", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if q.MaxAttempts < 1 {
		return NewValidationError("queue", "max_attempts", fmt.Errorf("%w: must be >= 1", ErrInvalidValue))
	}
	return nil
}

func (v *Validator) validateIngest() error {
	i := v.cfg.Ingest
	if i.ChunkTokenBudget < 1 {
		return NewValidationError("ingest", "chunk_token_budget", fmt.Errorf("%w: must be >= 1", ErrInvalidValue))
	}
	if i.ChunkOverlap < 0 || i.ChunkOverlap >= i.ChunkTokenBudget {
		return NewValidationError("ingest", "chunk_overlap", fmt.Errorf("%w: must be in [0, chunk_token_budget)", ErrInvalidValue))
	}
	return nil
}

func (v *Validator) validateMission() error {
	m := v.cfg.Mission
	if m.SoftDeadline <= 0 {
		return NewValidationError("mission", "soft_deadline", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if m.MaxRetries < 0 {
		return NewValidationError("mission", "max_retries", fmt.Errorf("%w: must be >= 0", ErrInvalidValue))
	}
	if m.OutboxRetention <= 0 {
		return NewValidationError("mission", "outbox_retention", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	for depth, policy := range m.Depths {
		if policy.StageCount < 1 {
			return NewValidationError("mission.depths", string(depth)+".stage_count", fmt.Errorf("%w: must be >= 1", ErrInvalidValue))
		}
		if policy.ScoreThreshold < 0 || policy.ScoreThreshold > 1 {
			return NewValidationError("mission.depths", string(depth)+".score_threshold", fmt.Errorf("%w: must be in [0,1]", ErrInvalidValue))
		}
		switch policy.QualityGate {
		case GateRetryStronger, GateDegradeWarn, GateShortCircuit:
		default:
			return NewValidationError("mission.depths", string(depth)+".quality_gate", fmt.Errorf("%w: %q", ErrInvalidValue, policy.QualityGate))
		}
	}
	for _, depth := range []MissionDepth{MissionStandard, MissionDeep, MissionComprehensive, MissionExperimental} {
		if _, ok := m.Depths[depth]; !ok {
			return NewValidationError("mission.depths", string(depth), fmt.Errorf("%w: missing policy for depth %q", ErrMissingRequiredField, depth))
		}
	}
	return nil
}
