package remap

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fukkitmc/mapjar/internal/artifact"
	"github.com/fukkitmc/mapjar/internal/output"
)

// DefaultOptions are the options the adapter hands every engine.
var DefaultOptions = Options{
	RenameInvalidLocals:    true,
	RebuildSourceFilenames: true,
}

// Adapter runs jobs through an Engine.
type Adapter struct {
	engine Engine
	opts   Options
}

// NewAdapter creates an adapter for engine. threads bounds engine
// parallelism; zero lets the engine decide.
func NewAdapter(engine Engine, threads int) *Adapter {
	opts := DefaultOptions
	opts.Threads = threads
	return &Adapter{engine: engine, opts: opts}
}

// Engine returns the wrapped engine.
func (a *Adapter) Engine() Engine {
	return a.engine
}

// Transform remaps job.Input into job.Output. Any existing output is deleted
// first. The output only appears once it is complete. Every call redoes the
// whole transformation.
func (a *Adapter) Transform(ctx context.Context, job *Job) (err error) {
	start := time.Now()
	log := output.ArtifactLogger(job.Output.Name)

	defer func() {
		if err != nil {
			err = &EngineError{Input: job.Input.Path, Engine: a.engine.Name(), Cause: err}
		}
	}()

	ok, err := artifact.Exists(job.Input.Path)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("input jar not found: %s", job.Input.Path)
	}
	if job.Table == nil {
		return fmt.Errorf("no mapping table for %s", job.Output.Path)
	}

	if err := artifact.Remove(job.Output.Path); err != nil {
		return err
	}
	if err := artifact.EnsureParent(job.Output.Path); err != nil {
		return err
	}

	staging := job.stagingPath()
	w, err := newJarWriter(staging)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			w.Abort()
			if rmErr := os.Remove(staging); rmErr != nil && !os.IsNotExist(rmErr) {
				log.Warn("could not remove staged output", "path", staging, "error", rmErr)
			}
		}
	}()

	log.Debug("remap job started",
		"job", job.ID,
		"engine", a.engine.Name(),
		"input", job.Input.Path,
		"output", job.Output.Path,
		"table", job.Table.String(),
		"classpath", len(job.Classpath),
	)

	resources, err := w.CopyResources(job.Input.Path)
	if err != nil {
		return err
	}

	if err := a.runSession(ctx, job, w); err != nil {
		return err
	}

	if err := w.Close(); err != nil {
		return err
	}
	if err := artifact.Commit(staging, job.Output.Path); err != nil {
		return err
	}
	committed = true

	log.Debug("remap job finished",
		"job", job.ID,
		"resources", resources,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// runSession holds the engine session for the duration of one job. The
// session is closed on every path, including panics inside the engine.
func (a *Adapter) runSession(ctx context.Context, job *Job, sink ClassSink) (err error) {
	session, err := a.engine.Open(ctx, job.Table, a.opts)
	if err != nil {
		return fmt.Errorf("opening %s session: %w", a.engine.Name(), err)
	}

	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
		if closeErr := session.Close(); closeErr != nil {
			if err == nil {
				err = fmt.Errorf("closing %s session: %w", a.engine.Name(), closeErr)
			} else {
				output.Debug("engine session close failed", "job", job.ID, "error", closeErr)
			}
		}
	}()

	if len(job.Classpath) > 0 {
		if err := session.ReadClasspath(ctx, job.Classpath...); err != nil {
			return fmt.Errorf("reading classpath: %w", err)
		}
	}
	if err := session.ReadInput(ctx, job.Input.Path); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return session.Apply(ctx, sink)
}
