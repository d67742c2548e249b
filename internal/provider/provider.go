// Package provider produces the mapped artifact: it decides whether the
// cache is usable, rebuilds it transactionally when it is not, validates the
// result and registers it for downstream consumers.
package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fukkitmc/mapjar/internal/artifact"
	"github.com/fukkitmc/mapjar/internal/fingerprint"
	"github.com/fukkitmc/mapjar/internal/metric"
	"github.com/fukkitmc/mapjar/internal/output"
	"github.com/fukkitmc/mapjar/internal/remap"
)

// Default names used when Config leaves them empty.
const (
	DefaultArtifactName          = "minecraft"
	DefaultSourceNamespace       = "official"
	DefaultIntermediateNamespace = "intermediary"
	DefaultTargetNamespace       = "named"

	// SourceRole tags the pre-transformation artifact in logs.
	SourceRole = "source"
)

// Config is everything a Provider needs. No global state is consulted.
type Config struct {
	// ArtifactName is the logical name of the artifact ("minecraft").
	ArtifactName string

	// Layout decides where cached artifacts live.
	Layout artifact.Layout

	// Inputs are the fingerprint components shared by both artifacts.
	Inputs fingerprint.Inputs

	// Namespaces of the two remap passes: Source -> Intermediate for the
	// intermediate artifact, Intermediate -> Target for the materializer.
	SourceNamespace       string
	IntermediateNamespace string
	TargetNamespace       string

	// Refresh forces a rebuild even when the cache is valid.
	Refresh bool

	// Classpath holds supporting jars for symbol resolution.
	Classpath []string

	Source       SourceProvider
	Mappings     MappingOwner
	Transformer  Transformer
	Materializer Materializer
	Registrar    Registrar

	// Metrics and Observer are optional.
	Metrics  *metric.Metrics
	Observer Observer
}

// Result describes a successful Provide call.
type Result struct {
	Outcome      Outcome
	States       []State
	Intermediate artifact.Ref
	Mapped       artifact.Ref
	Elapsed      time.Duration
}

// CacheStatus is the on-disk state of both artifacts.
type CacheStatus struct {
	Intermediate       artifact.Ref
	Mapped             artifact.Ref
	IntermediateExists bool
	MappedExists       bool
}

// Valid reports whether both artifacts are present.
func (s CacheStatus) Valid() bool {
	return s.IntermediateExists && s.MappedExists
}

// Provider runs the provide state machine.
type Provider struct {
	cfg          Config
	intermediate artifact.Ref
	mapped       artifact.Ref
}

// New validates cfg and derives both artifact references from the same
// fingerprint inputs.
func New(cfg Config) (*Provider, error) {
	if cfg.ArtifactName == "" {
		cfg.ArtifactName = DefaultArtifactName
	}
	if cfg.SourceNamespace == "" {
		cfg.SourceNamespace = DefaultSourceNamespace
	}
	if cfg.IntermediateNamespace == "" {
		cfg.IntermediateNamespace = DefaultIntermediateNamespace
	}
	if cfg.TargetNamespace == "" {
		cfg.TargetNamespace = DefaultTargetNamespace
	}

	switch {
	case cfg.Layout.CacheDir == "":
		return nil, errors.New("provider: cache directory is required")
	case cfg.Source == nil:
		return nil, errors.New("provider: source provider is required")
	case cfg.Mappings == nil:
		return nil, errors.New("provider: mapping owner is required")
	case cfg.Transformer == nil:
		return nil, errors.New("provider: transformer is required")
	case cfg.Materializer == nil:
		return nil, errors.New("provider: materializer is required")
	case cfg.Registrar == nil:
		return nil, errors.New("provider: registrar is required")
	}

	intermediate, err := cfg.Layout.Ref(cfg.ArtifactName, fingerprint.RoleIntermediary, cfg.Inputs)
	if err != nil {
		return nil, err
	}
	mapped, err := cfg.Layout.Ref(cfg.ArtifactName, fingerprint.RoleMapped, cfg.Inputs)
	if err != nil {
		return nil, err
	}
	return &Provider{cfg: cfg, intermediate: intermediate, mapped: mapped}, nil
}

// Intermediate returns the intermediate artifact reference.
func (p *Provider) Intermediate() artifact.Ref {
	return p.intermediate
}

// Mapped returns the mapped artifact reference.
func (p *Provider) Mapped() artifact.Ref {
	return p.mapped
}

// Status reports which artifacts are cached.
func (p *Provider) Status() (CacheStatus, error) {
	st := CacheStatus{Intermediate: p.intermediate, Mapped: p.mapped}
	var err error
	if st.IntermediateExists, err = artifact.Exists(p.intermediate.Path); err != nil {
		return st, err
	}
	if st.MappedExists, err = artifact.Exists(p.mapped.Path); err != nil {
		return st, err
	}
	return st, nil
}

// Clean removes both artifacts and invalidates mapping caches.
func (p *Provider) Clean() []error {
	return Cleanup(p.mapped.Path, p.intermediate.Path, p.cfg.Mappings)
}

// run tracks one Provide invocation.
type run struct {
	p      *Provider
	states []State
}

func (r *run) enter(s State) {
	r.states = append(r.states, s)
	output.Debug("provider state", "state", s.String(), "artifact", r.p.cfg.ArtifactName)
	if r.p.cfg.Metrics != nil {
		r.p.cfg.Metrics.RecordState(s.String())
	}
	if r.p.cfg.Observer != nil {
		r.p.cfg.Observer(s)
	}
}

// Provide makes sure the mapped artifact exists and registers it.
//
// State sequence:
//  1. CHECK_PRECONDITIONS: mappings file and source artifact must exist
//  2. CHECK_CACHE:         both artifacts present and no refresh -> SKIP
//  3. REBUILD:             delete, remap source -> intermediate, materialize
//  4. VALIDATE:            the mapped artifact must exist
//  5. REGISTER:            publish name + mapped fingerprint
//
// A failure in REBUILD or VALIDATE goes through FAILED_CLEANUP, which removes
// both artifacts and invalidates mapping caches before the error is returned.
func (p *Provider) Provide(ctx context.Context) (res *Result, err error) {
	start := time.Now()
	r := &run{p: p}
	outcome := outcomeFailed

	defer func() {
		if p.cfg.Metrics != nil {
			p.cfg.Metrics.RecordProvide(string(outcome))
		}
	}()

	r.enter(StateCheckPreconditions)
	if err := p.checkPreconditions(); err != nil {
		return nil, err
	}

	r.enter(StateCheckCache)
	valid, err := p.cacheValid()
	if err != nil {
		return nil, err
	}

	if valid {
		r.enter(StateSkip)
		outcome = OutcomeSkipped
		output.Debug("cache valid, skipping remap", "mapped", p.mapped.Path)
	} else {
		r.enter(StateRebuild)
		if err := p.rebuild(ctx); err != nil {
			p.failedCleanup(r)
			outcome = outcomeFailed
			return nil, &RebuildError{Artifact: p.cfg.ArtifactName, Cause: err}
		}
		outcome = OutcomeRebuilt
	}

	r.enter(StateValidate)
	if err := p.validate(); err != nil {
		p.failedCleanup(r)
		outcome = outcomeFailed
		return nil, err
	}

	r.enter(StateRegister)
	p.cfg.Registrar.Register(p.mapped.Name, p.mapped.Version, fingerprint.RoleMapped)

	return &Result{
		Outcome:      outcome,
		States:       r.states,
		Intermediate: p.intermediate,
		Mapped:       p.mapped,
		Elapsed:      time.Since(start),
	}, nil
}

func (p *Provider) checkPreconditions() error {
	ok, err := p.cfg.Mappings.Exists()
	if err != nil {
		return err
	}
	if !ok {
		return &PreconditionMissingError{What: "mappings file", Path: p.cfg.Mappings.Path()}
	}

	src := p.cfg.Source.SourceArtifactPath()
	if src == "" {
		return &PreconditionMissingError{What: "input jar", Path: "(unset)"}
	}
	ok, err = artifact.Exists(src)
	if err != nil {
		return err
	}
	if !ok {
		return &PreconditionMissingError{What: "input jar", Path: src}
	}
	return nil
}

func (p *Provider) cacheValid() (bool, error) {
	st, err := p.Status()
	if err != nil {
		return false, err
	}
	if p.cfg.Refresh {
		output.Debug("refresh requested, ignoring cache")
		return false, nil
	}
	return st.Valid(), nil
}

// rebuild regenerates both artifacts. Panics are converted to errors so the
// caller's cleanup still runs.
func (p *Provider) rebuild(ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic during rebuild: %v", rec)
		}
	}()

	if err := artifact.Remove(p.mapped.Path); err != nil {
		return err
	}
	if err := artifact.EnsureParent(p.mapped.Path); err != nil {
		return err
	}
	if err := artifact.Remove(p.intermediate.Path); err != nil {
		return err
	}
	if err := artifact.EnsureParent(p.intermediate.Path); err != nil {
		return err
	}

	table, err := p.cfg.Mappings.Load(p.cfg.SourceNamespace, p.cfg.IntermediateNamespace)
	if err != nil {
		return err
	}

	source := artifact.Ref{
		Path:    p.cfg.Source.SourceArtifactPath(),
		Name:    p.cfg.ArtifactName,
		Version: p.cfg.Inputs.BaseVersion,
		Role:    SourceRole,
	}
	logRemap(p.cfg.ArtifactName, p.cfg.SourceNamespace, p.cfg.IntermediateNamespace)

	t0 := time.Now()
	err = p.cfg.Transformer.Transform(ctx, remap.NewJob(source, p.intermediate, table, p.cfg.Classpath))
	p.recordRemap(fingerprint.RoleIntermediary, time.Since(t0))
	if err != nil {
		return err
	}

	t0 = time.Now()
	err = p.cfg.Materializer.Materialize(ctx, p.intermediate, p.mapped)
	p.recordRemap(fingerprint.RoleMapped, time.Since(t0))
	return err
}

func (p *Provider) validate() error {
	ok, err := artifact.Exists(p.mapped.Path)
	if err != nil {
		return fmt.Errorf("validating mapped jar: %w", err)
	}
	if !ok {
		return &MissingOutputError{Path: p.mapped.Path}
	}
	if p.cfg.Metrics != nil {
		if info, err := os.Stat(p.mapped.Path); err == nil {
			p.cfg.Metrics.RecordArtifactSize(fingerprint.RoleMapped, info.Size())
		}
	}
	return nil
}

func (p *Provider) failedCleanup(r *run) {
	r.enter(StateFailedCleanup)
	errs := p.Clean()
	log := output.ArtifactLogger(p.cfg.ArtifactName)
	for _, e := range errs {
		log.Warn("cleanup incomplete", "error", e)
	}
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.RecordCleanup(len(errs))
	}
}

func (p *Provider) recordRemap(pass string, d time.Duration) {
	if p.cfg.Metrics == nil {
		return
	}
	engine := "unknown"
	if a, ok := p.cfg.Transformer.(interface{ Engine() remap.Engine }); ok {
		engine = a.Engine().Name()
	}
	p.cfg.Metrics.RecordRemap(pass, engine, d)
}

func logRemap(name, from, to string) {
	output.ArtifactLogger(name).Info(output.FormatRemapHeader(name, from, to))
}
