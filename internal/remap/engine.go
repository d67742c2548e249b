// Package remap runs rename transformations over jars. The Adapter owns the
// file-level contract (fresh output, verbatim resources, atomic publish) and
// delegates class rewriting to an Engine session.
package remap

import (
	"context"

	"github.com/fukkitmc/mapjar/internal/mapping"
)

// Options are the engine features the adapter always requests.
type Options struct {
	// RenameInvalidLocals replaces local variable names that are not valid
	// Java identifiers.
	RenameInvalidLocals bool

	// RebuildSourceFilenames rewrites SourceFile attributes to match renamed
	// classes.
	RebuildSourceFilenames bool

	// Threads bounds engine parallelism. Zero lets the engine decide.
	Threads int
}

// ClassSink receives rewritten class files.
type ClassSink interface {
	// WriteClass stores a class under its internal name (without ".class").
	WriteClass(name string, data []byte) error
}

// Engine opens remap sessions for one mapping table.
type Engine interface {
	// Name identifies the engine in logs.
	Name() string

	// Open acquires engine resources for a session.
	Open(ctx context.Context, table *mapping.Table, opts Options) (Session, error)
}

// Session is a single remap run. Close must always be called, and releases
// everything Open acquired.
type Session interface {
	// ReadClasspath loads supporting jars used only to resolve symbols.
	ReadClasspath(ctx context.Context, paths ...string) error

	// ReadInput loads the jar whose classes are rewritten.
	ReadInput(ctx context.Context, path string) error

	// Apply rewrites every input class into sink. It blocks until all
	// classes are written or the first failure.
	Apply(ctx context.Context, sink ClassSink) error

	// Close releases session resources.
	Close() error
}
