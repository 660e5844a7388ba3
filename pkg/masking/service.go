package masking

import (
	"log/slog"
	"regexp"

	"github.com/fathomhq/mediacore/pkg/config"
)

// Hit records one pattern match during Apply, for the privacy filter stage's
// "filtered spans annotated with reason" requirement (spec §4.8 stage 5).
type Hit struct {
	Pattern string
	Count   int
	Block   bool
}

// Result is the outcome of applying the filter to one piece of text.
type Result struct {
	Masked  string
	Hits    []Hit
	Blocked bool // true if any matched pattern is a Block pattern (hard fail)
}

// Filter applies built-in + custom regex patterns and registered code
// maskers to ingested text. Created once per process (singleton, like the
// teacher's MaskingService); thread-safe and stateless aside from compiled
// patterns.
type Filter struct {
	patterns    map[string]*CompiledPattern // built-in + custom, keyed by name
	groups      map[string][]string         // group name -> pattern names
	codeMaskers map[string]Masker
	cfg         config.MaskingConfig
}

// NewFilter builds a Filter from a MaskingConfig. All patterns are compiled
// eagerly; invalid custom patterns are logged and skipped (fail-closed would
// block ingestion entirely over an operator typo, which spec §4.8 doesn't
// call for).
func NewFilter(cfg config.MaskingConfig) *Filter {
	f := &Filter{
		patterns:    make(map[string]*CompiledPattern),
		groups:      builtinGroups(),
		codeMaskers: make(map[string]Masker),
		cfg:         cfg,
	}

	for _, d := range builtinPatternDefs() {
		compiled, err := regexp.Compile(d.pattern)
		if err != nil {
			slog.Error("masking: failed to compile built-in pattern, skipping", "pattern", d.name, "error", err)
			continue
		}
		f.patterns[d.name] = &CompiledPattern{Name: d.name, Regex: compiled, Replacement: d.replacement, Description: d.description, Block: d.block}
	}
	for i, custom := range cfg.Custom {
		compiled, err := regexp.Compile(custom.Pattern)
		if err != nil {
			slog.Error("masking: failed to compile custom pattern, skipping", "index", i, "error", err)
			continue
		}
		name := "custom:" + custom.Description
		if custom.Description == "" {
			name = "custom"
		}
		f.patterns[name] = &CompiledPattern{Name: name, Regex: compiled, Replacement: custom.Replacement, Description: custom.Description}
	}

	f.registerMasker(&StructuredPIIMasker{})

	slog.Info("masking: privacy filter initialized",
		"builtin_patterns", len(builtinPatternDefs()),
		"compiled_patterns", len(f.patterns),
		"code_maskers", len(f.codeMaskers))
	return f
}

// Apply runs the configured pattern groups/patterns and code maskers over
// text in resolveNames order: the regex patterns first, then the
// structurally-aware code maskers on the regex-masked text. Returns the masked text and the spans
// that were matched, annotated with whether they trigger a hard-fail
// (spec §4.8 stage 5, "filtered spans annotated with reason").
func (f *Filter) Apply(text string) Result {
	if !f.cfg.Enabled || text == "" {
		return Result{Masked: text}
	}

	names := f.resolveNames()
	masked := text
	var hits []Hit
	blocked := false

	for _, name := range names {
		if masker, ok := f.codeMaskers[name]; ok {
			if masker.AppliesTo(masked) {
				next := masker.Mask(masked)
				if next != masked {
					hits = append(hits, Hit{Pattern: name, Count: 1})
					masked = next
				}
			}
			continue
		}
		pattern, ok := f.patterns[name]
		if !ok {
			continue
		}
		matches := pattern.Regex.FindAllStringIndex(masked, -1)
		if len(matches) == 0 {
			continue
		}
		hits = append(hits, Hit{Pattern: name, Count: len(matches), Block: pattern.Block})
		if pattern.Block {
			blocked = true
		}
		masked = pattern.Regex.ReplaceAllString(masked, pattern.Replacement)
	}

	return Result{Masked: masked, Hits: hits, Blocked: blocked}
}

// resolveNames expands cfg.PatternGroups + cfg.Patterns into a deduplicated,
// ordered name list covering both regex pattern names and code masker names.
func (f *Filter) resolveNames() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, group := range f.cfg.PatternGroups {
		for _, name := range f.groups[group] {
			add(name)
		}
	}
	for _, name := range f.cfg.Patterns {
		add(name)
	}
	for name := range f.codeMaskers {
		add(name)
	}
	return names
}

func (f *Filter) registerMasker(m Masker) {
	f.codeMaskers[m.Name()] = m
}
