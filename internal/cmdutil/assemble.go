package cmdutil

import (
	"fmt"

	"github.com/fukkitmc/mapjar/internal/artifact"
	"github.com/fukkitmc/mapjar/internal/config"
	"github.com/fukkitmc/mapjar/internal/depgraph"
	oerrors "github.com/fukkitmc/mapjar/internal/errors"
	"github.com/fukkitmc/mapjar/internal/fingerprint"
	"github.com/fukkitmc/mapjar/internal/mapping"
	"github.com/fukkitmc/mapjar/internal/metric"
	"github.com/fukkitmc/mapjar/internal/provider"
	"github.com/fukkitmc/mapjar/internal/remap"
	"github.com/fukkitmc/mapjar/internal/remap/classfile"
)

// Assembly is a provider wired from configuration, plus the collaborators
// commands report on afterwards.
type Assembly struct {
	Provider *provider.Provider
	Store    *mapping.Store
	Engine   remap.Engine
	Graph    *depgraph.Graph
	Metrics  *metric.Metrics
	Registry *metric.Registry
}

// AssembleOpts configures Assemble.
type AssembleOpts struct {
	Config   *config.Config
	Refresh  bool
	Observer provider.Observer
}

// Assemble builds a provider from cfg. It fails with a validation error when
// a required remap input is missing.
func Assemble(opts AssembleOpts) (*Assembly, error) {
	cfg := opts.Config
	if err := config.ValidateRemapInputs(cfg); err != nil {
		return nil, configError(err)
	}

	store, err := mapping.NewStore(mapping.StoreOptions{Path: cfg.Mappings.File})
	if err != nil {
		return nil, err
	}

	engine, err := NewEngine(cfg.Engine)
	if err != nil {
		return nil, err
	}
	adapter := remap.NewAdapter(engine, cfg.Engine.Threads)

	registry := metric.NewRegistry()
	metrics := metric.NewMetrics()
	if err := metrics.Register(registry.PrometheusRegistry()); err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}

	graph := depgraph.New(depgraph.DefaultGroup)

	p, err := provider.New(provider.Config{
		ArtifactName:          cfg.Minecraft.Name,
		Layout:                Layout(cfg),
		Inputs:                Inputs(cfg),
		SourceNamespace:       cfg.Mappings.From,
		IntermediateNamespace: cfg.Mappings.Intermediate,
		TargetNamespace:       cfg.Mappings.To,
		Refresh:               opts.Refresh,
		Classpath:             cfg.Classpath,
		Source:                provider.StaticSource(cfg.Minecraft.Jar),
		Mappings:              store,
		Transformer:           adapter,
		Materializer: &provider.RemapMaterializer{
			Transformer: adapter,
			Mappings:    store,
			From:        cfg.Mappings.Intermediate,
			To:          cfg.Mappings.To,
			Classpath:   cfg.Classpath,
		},
		Registrar: graph,
		Metrics:   metrics,
		Observer:  opts.Observer,
	})
	if err != nil {
		return nil, err
	}

	return &Assembly{
		Provider: p,
		Store:    store,
		Engine:   engine,
		Graph:    graph,
		Metrics:  metrics,
		Registry: registry,
	}, nil
}

// NewEngine returns the remap engine selected by cfg.
func NewEngine(cfg config.EngineConfig) (remap.Engine, error) {
	switch cfg.Kind {
	case "", config.EngineBuiltin:
		return classfile.New(), nil
	case config.EngineExec:
		e := remap.NewExecEngine(cfg.Jar)
		e.Java = cfg.Java
		e.JVMArgs = cfg.JVMArgs
		return e, nil
	default:
		return nil, oerrors.NewValidationError(
			fmt.Sprintf("unknown remap engine %q", cfg.Kind),
			"engine.kind",
			"Use \"builtin\" or \"exec\".",
		)
	}
}

// Layout returns the cache layout of cfg.
func Layout(cfg *config.Config) artifact.Layout {
	return artifact.Layout{CacheDir: cfg.CacheDir, MappedDir: cfg.MappedDir}
}

// Inputs returns the fingerprint inputs of cfg.
func Inputs(cfg *config.Config) fingerprint.Inputs {
	return fingerprint.Inputs{
		BaseVersion:    cfg.Minecraft.Version,
		MappingName:    cfg.Mappings.Name,
		MappingVersion: cfg.Mappings.Version,
	}
}

// Refs derives both cached artifact references without assembling a
// provider.
func Refs(cfg *config.Config) (intermediate, mapped artifact.Ref, err error) {
	layout, in := Layout(cfg), Inputs(cfg)
	if intermediate, err = layout.Ref(cfg.Minecraft.Name, fingerprint.RoleIntermediary, in); err != nil {
		return
	}
	mapped, err = layout.Ref(cfg.Minecraft.Name, fingerprint.RoleMapped, in)
	return
}

// configError turns config.ValidationErrors into a DetailError.
func configError(err error) error {
	return &oerrors.DetailError{
		Type:    "configuration incomplete",
		Message: err.Error(),
		Hint:    "Set the missing keys in ~/.mapjar/config.yaml, as MAPJAR_* variables or with flags.",
		Cause:   oerrors.ErrValidation,
	}
}
