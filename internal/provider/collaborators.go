package provider

import (
	"context"
	"fmt"

	"github.com/fukkitmc/mapjar/internal/artifact"
	"github.com/fukkitmc/mapjar/internal/mapping"
	"github.com/fukkitmc/mapjar/internal/remap"
)

// SourceProvider exposes the pre-transformation artifact.
type SourceProvider interface {
	SourceArtifactPath() string
}

// StaticSource is a SourceProvider for a fixed path.
type StaticSource string

// SourceArtifactPath implements SourceProvider.
func (s StaticSource) SourceArtifactPath() string {
	return string(s)
}

// MappingOwner is the component owning the mapping definition and the
// caches derived from it. *mapping.Store implements it.
type MappingOwner interface {
	Invalidator

	// Path is the mapping definition file.
	Path() string

	// Exists reports whether the mapping definition file is present.
	Exists() (bool, error)

	// Load builds a rename table between two namespaces.
	Load(from, to string) (*mapping.Table, error)
}

// Transformer runs one remap job. *remap.Adapter implements it.
type Transformer interface {
	Transform(ctx context.Context, job *remap.Job) error
}

// Materializer produces the final mapped artifact from the intermediate one.
type Materializer interface {
	Materialize(ctx context.Context, intermediate, mapped artifact.Ref) error
}

// Registrar receives the identity of the produced artifact.
// *depgraph.Graph implements it.
type Registrar interface {
	Register(name, version, role string)
}

// RemapMaterializer produces the mapped artifact with a second remap pass
// over the intermediate artifact.
type RemapMaterializer struct {
	Transformer Transformer
	Mappings    MappingOwner
	From, To    string
	Classpath   []string
}

// Materialize implements Materializer.
func (m *RemapMaterializer) Materialize(ctx context.Context, intermediate, mapped artifact.Ref) error {
	table, err := m.Mappings.Load(m.From, m.To)
	if err != nil {
		return err
	}
	logRemap(mapped.Name, m.From, m.To)
	return m.Transformer.Transform(ctx, remap.NewJob(intermediate, mapped, table, m.Classpath))
}

// CopyMaterializer publishes the intermediate artifact unchanged as the
// mapped one.
type CopyMaterializer struct{}

// Materialize implements Materializer.
func (CopyMaterializer) Materialize(ctx context.Context, intermediate, mapped artifact.Ref) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := artifact.CopyFile(intermediate.Path, mapped.Path); err != nil {
		return fmt.Errorf("materializing %s: %w", mapped.ID(), err)
	}
	return nil
}
