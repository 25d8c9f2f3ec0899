package postprocessors

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driven"
)

// BuilderFunc creates a PostProcessor from the processor's config table.
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

// Stage says where a processor may sit in the segmenter.
type Stage int

const (
	// StageSplit turns the whole ruling text into pieces. Exactly one split
	// stage runs, and it runs first.
	StageSplit Stage = iota
	// StageFilter rewrites or drops pieces produced by the split stage.
	StageFilter
)

func (s Stage) String() string {
	if s == StageSplit {
		return "split"
	}
	return "filter"
}

// Spec describes a registered processor.
type Spec struct {
	Stage   Stage
	Keys    []string
	Builder BuilderFunc
}

// Registry maps processor names to their specs.
type Registry struct {
	specs map[string]Spec
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]Spec)}
}

// Register adds a processor under name. It replaces any earlier spec of the
// same name.
func (r *Registry) Register(name string, spec Spec) {
	r.specs[name] = spec
}

// Build creates the named processor after checking cfg only uses the keys
// the processor understands.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PostProcessor, error) {
	spec, ok := r.specs[name]
	if !ok {
		return nil, fmt.Errorf("unknown processor: %s", name)
	}
	if err := checkKeys(name, spec.Keys, cfg); err != nil {
		return nil, err
	}
	return spec.Builder(cfg)
}

// Validate checks a pipeline config against the registry: every processor is
// known and listed once, the split stage comes first and is the only one,
// and no processor config carries keys its processor ignores.
func (r *Registry) Validate(cfg domain.PipelineConfig) error {
	if len(cfg.Processors) == 0 {
		return errors.New("pipeline has no processors")
	}

	var errs []error
	seen := make(map[string]bool, len(cfg.Processors))
	for i, name := range cfg.Processors {
		spec, ok := r.specs[name]
		if !ok {
			errs = append(errs, fmt.Errorf("unknown processor: %s", name))
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Errorf("processor %s listed twice", name))
		}
		seen[name] = true

		switch {
		case i == 0 && spec.Stage != StageSplit:
			errs = append(errs, fmt.Errorf("processor %s is a %s stage and cannot run first", name, spec.Stage))
		case i > 0 && spec.Stage == StageSplit:
			errs = append(errs, fmt.Errorf("processor %s splits text and must run before %s",
				name, cfg.Processors[0]))
		}

		if err := checkKeys(name, spec.Keys, cfg.GetProcessorConfig(name)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.specs[name]
	return ok
}

// StageOf returns the stage of a registered processor.
func (r *Registry) StageOf(name string) (Stage, bool) {
	spec, ok := r.specs[name]
	return spec.Stage, ok
}

// Names returns the registered processor names in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.specs))
}

func checkKeys(name string, allowed []string, cfg map[string]any) error {
	var unknown []string
	for key := range cfg {
		if !slices.Contains(allowed, key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	slices.Sort(unknown)
	return fmt.Errorf("%s: unknown config keys %v (accepted: %v)", name, unknown, allowed)
}
