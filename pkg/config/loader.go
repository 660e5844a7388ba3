package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// yamlFile is the single layered config source this module reads:
// mediacore.yaml, living under configDir. It mirrors the built-in struct
// shape exactly so mergo can overlay it with WithOverride.
type yamlFile struct {
	Defaults *Defaults     `yaml:"defaults"`
	Cache    *CacheConfig  `yaml:"cache"`
	HTTP     *HTTPConfig   `yaml:"http"`
	Breaker  *BreakerConfig `yaml:"breaker"`
	Budget   *BudgetConfig `yaml:"budget"`
	Memory   *MemoryConfig `yaml:"memory"`
	Queue    *QueueConfig  `yaml:"queue"`
	Ingest   *IngestConfig `yaml:"ingest"`
	Masking  *MaskingConfig `yaml:"masking"`
	Mission  *MissionConfig `yaml:"mission"`
	Flags    map[string]bool `yaml:"flags"`
}

// Initialize loads, merges, validates, and returns ready-to-use configuration.
// Precedence (spec §4.3): defaults < file < env < runtime overrides.
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	if cfg.Flag("ENABLE_CONFIG_HOT_RELOAD") {
		if err := watchForReload(ctx, configDir, cfg); err != nil {
			log.Warn("config hot-reload watch failed to start", "error", err)
		}
	}

	log.Info("configuration initialized")
	return cfg, nil
}

func load(configDir string) (*Config, error) {
	builtin := GetBuiltinConfig()

	cfg := &Config{
		configDir: configDir,
		Defaults:  builtin.Defaults,
		Cache:     builtin.Cache,
		HTTP:      builtin.HTTP,
		Breaker:   builtin.Breaker,
		Budget:    builtin.Budget,
		Memory:    builtin.Memory,
		Queue:     builtin.Queue,
		Ingest:    builtin.Ingest,
		Masking:   builtin.Masking,
		Mission:   builtin.Mission,
	}
	flags := cloneFlags(builtin.Flags)

	file, err := loadYAMLFile(configDir)
	if err != nil {
		return nil, err
	}
	if file != nil {
		if err := mergeFile(cfg, file, flags); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg, flags)
	cfg.setFlags(flags)
	return cfg, nil
}

func loadYAMLFile(configDir string) (*yamlFile, error) {
	path := filepath.Join(configDir, "mediacore.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, NewLoadError(path, err)
	}

	data = ExpandEnv(data)

	var strict yaml.Node
	if err := yaml.Unmarshal(data, &strict); err != nil {
		return nil, NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}
	if err := rejectUnknownKeys(&strict, knownTopLevelKeys); err != nil {
		return nil, NewLoadError(path, err)
	}

	var file yamlFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // unknown keys inside a section fail the decode
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}
	return &file, nil
}

var knownTopLevelKeys = map[string]bool{
	"defaults": true, "cache": true, "http": true, "breaker": true,
	"budget": true, "memory": true, "queue": true, "ingest": true,
	"masking": true, "mission": true, "flags": true,
}

// rejectUnknownKeys rejects unknown top-level section names with
// ErrUnknownField by walking the raw YAML node tree; unknown keys nested
// inside a known section are rejected by loadYAMLFile's KnownFields decode.
func rejectUnknownKeys(doc *yaml.Node, known map[string]bool) error {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i < len(root.Content); i += 2 {
		key := root.Content[i].Value
		if !known[key] {
			return fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
	}
	return nil
}

func mergeFile(cfg *Config, file *yamlFile, flags map[string]bool) error {
	merge := func(dst, src any) error {
		if src == nil {
			return nil
		}
		return mergo.Merge(dst, src, mergo.WithOverride)
	}
	if err := merge(&cfg.Defaults, file.Defaults); err != nil {
		return err
	}
	if err := merge(&cfg.Cache, file.Cache); err != nil {
		return err
	}
	if err := merge(&cfg.HTTP, file.HTTP); err != nil {
		return err
	}
	if err := merge(&cfg.Breaker, file.Breaker); err != nil {
		return err
	}
	if err := merge(&cfg.Budget, file.Budget); err != nil {
		return err
	}
	if err := merge(&cfg.Memory, file.Memory); err != nil {
		return err
	}
	if err := merge(&cfg.Queue, file.Queue); err != nil {
		return err
	}
	if err := merge(&cfg.Ingest, file.Ingest); err != nil {
		return err
	}
	if err := merge(&cfg.Masking, file.Masking); err != nil {
		return err
	}
	if err := merge(&cfg.Mission, file.Mission); err != nil {
		return err
	}
	for k, v := range file.Flags {
		flags[k] = v
	}
	return nil
}

// applyEnvOverrides reads ENABLE_* flags and a handful of named behavior-bearing
// env vars (spec §6), which take precedence over the file layer.
func applyEnvOverrides(cfg *Config, flags map[string]bool) {
	for name := range flags {
		if v, ok := os.LookupEnv(name); ok {
			flags[name], _ = strconv.ParseBool(v)
		}
	}
	if v := os.Getenv("RETRY_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Retry.MaxAttempts = n
		}
	}
	if v := os.Getenv("BUDGET_HARD_CAP_USD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Budget.HardCapUSD = f
		}
	}
	if v := os.Getenv("TENANT_ROOT"); v != "" {
		cfg.Defaults.TenantRoot = v
	}
}

func cloneFlags(src map[string]bool) map[string]bool {
	out := make(map[string]bool, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// watchForReload reloads mediacore.yaml when it changes and swaps in the
// reloaded feature-flag table without a process restart; every other
// section keeps the values it had at startup. The env layer always wins over a reload (applyEnvOverrides reruns after
// every merge), matching the documented precedence.
func watchForReload(ctx context.Context, configDir string, cfg *Config) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(configDir); err != nil {
		watcher.Close()
		return err
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.HasSuffix(ev.Name, "mediacore.yaml") {
					continue
				}
				reloaded, err := load(configDir)
				if err != nil {
					slog.Error("config hot-reload failed", "error", err)
					continue
				}
				if err := validate(reloaded); err != nil {
					slog.Error("config hot-reload validation failed", "error", err)
					continue
				}
				cfg.setFlags(*reloaded.flags.Load())
				slog.Info("configuration hot-reloaded")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "error", err)
			}
		}
	}()
	return nil
}

func validate(cfg *Config) error {
	return NewValidator(cfg).ValidateAll()
}
