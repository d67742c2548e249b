// Package depgraph is an in-memory dependency graph that records the
// artifacts a build produced, in the form downstream consumers resolve them.
package depgraph

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/fukkitmc/mapjar/internal/artifact"
	"github.com/fukkitmc/mapjar/internal/fingerprint"
	"github.com/fukkitmc/mapjar/internal/output"
)

// DefaultGroup is the group registered artifacts are published under.
const DefaultGroup = "net.minecraft"

// Dependency is one registered artifact.
type Dependency struct {
	Group   string `json:"group" yaml:"group"`
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	Role    string `json:"role" yaml:"role"`
}

// ID returns "<name>-<version>", the identity the artifact is cached under.
func (d Dependency) ID() string {
	return d.Name + fingerprint.Separator + d.Version
}

// Notation returns the "group:name:version" coordinate.
func (d Dependency) Notation() string {
	return fmt.Sprintf("%s:%s:%s", d.Group, d.Name, d.Version)
}

// Graph collects registrations. It is safe for concurrent use.
type Graph struct {
	group string

	mu   sync.Mutex
	deps map[string]Dependency
}

// New creates an empty graph registering under group. An empty group uses
// DefaultGroup.
func New(group string) *Graph {
	if group == "" {
		group = DefaultGroup
	}
	return &Graph{group: group, deps: map[string]Dependency{}}
}

// Register records an artifact under role. Registering the same name and
// role again replaces the earlier version.
func (g *Graph) Register(name, version, role string) {
	d := Dependency{Group: g.group, Name: name, Version: version, Role: role}

	g.mu.Lock()
	g.deps[role+"/"+name] = d
	g.mu.Unlock()

	output.Debug("registered dependency", "notation", d.Notation(), "role", role)
}

// RegisterRef records an artifact reference.
func (g *Graph) RegisterRef(ref artifact.Ref) {
	g.Register(ref.Name, ref.Version, ref.Role)
}

// Dependencies returns registrations sorted by role then name.
func (g *Graph) Dependencies() []Dependency {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Dependency, 0, len(g.deps))
	for _, d := range g.deps {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role < out[j].Role
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Lookup returns the dependency registered for name under role.
func (g *Graph) Lookup(name, role string) (Dependency, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	d, ok := g.deps[role+"/"+name]
	return d, ok
}

// report is the serialized form of a graph.
type report struct {
	Dependencies []Dependency `json:"dependencies" yaml:"dependencies"`
}

// WriteReport writes the registrations in the given format.
func (g *Graph) WriteReport(w io.Writer, format output.Format) error {
	deps := g.Dependencies()
	if format == output.FormatText {
		for _, d := range deps {
			if _, err := fmt.Fprintf(w, "%s\t%s\n", d.Role, d.Notation()); err != nil {
				return err
			}
		}
		return nil
	}
	return output.WriteStructured(w, format, report{Dependencies: deps})
}

// Save writes the graph as YAML to path.
func (g *Graph) Save(path string) error {
	if err := artifact.EnsureParent(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("saving dependency graph: %w", err)
	}
	if err := g.WriteReport(f, output.FormatYAML); err != nil {
		f.Close()
		return fmt.Errorf("saving dependency graph: %w", err)
	}
	return f.Close()
}

// Load reads a graph saved with Save. A missing file yields an empty graph.
func Load(path, group string) (*Graph, error) {
	g := New(group)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return g, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading dependency graph: %w", err)
	}

	var r report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing dependency graph %s: %w", path, err)
	}
	for _, d := range r.Dependencies {
		g.deps[d.Role+"/"+d.Name] = d
	}
	return g, nil
}
