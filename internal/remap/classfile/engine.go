package classfile

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fukkitmc/mapjar/internal/mapping"
	"github.com/fukkitmc/mapjar/internal/remap"
)

// EngineName identifies the built-in engine.
const EngineName = "builtin"

// Engine is the in-process remap engine.
type Engine struct{}

// New creates the built-in engine.
func New() *Engine {
	return &Engine{}
}

// Name implements remap.Engine.
func (e *Engine) Name() string {
	return EngineName
}

// Open implements remap.Engine.
func (e *Engine) Open(_ context.Context, table *mapping.Table, opts remap.Options) (remap.Session, error) {
	if table == nil {
		return nil, fmt.Errorf("nil mapping table")
	}
	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	return &session{
		table:   table,
		opts:    opts,
		threads: threads,
		h:       newHierarchy(table),
		inputs:  map[string]*ClassFile{},
	}, nil
}

type session struct {
	table   *mapping.Table
	opts    remap.Options
	threads int
	h       *hierarchy

	mu     sync.Mutex
	inputs map[string]*ClassFile
	closed bool
}

// ReadClasspath records the hierarchy of supporting classes. Their bodies
// are discarded.
func (s *session) ReadClasspath(ctx context.Context, paths ...string) error {
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := remap.ReadClasses(p, func(name string, data []byte) error {
			cf, err := Parse(data)
			if err != nil {
				return fmt.Errorf("%s: %s: %w", p, name, err)
			}
			info, err := infoOf(cf)
			if err != nil {
				return fmt.Errorf("%s: %s: %w", p, name, err)
			}
			s.mu.Lock()
			s.h.add(name, info)
			s.mu.Unlock()
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadInput parses every class of the input jar.
func (s *session) ReadInput(ctx context.Context, path string) error {
	return remap.ReadClasses(path, func(name string, data []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		cf, err := Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		actual, err := cf.Name()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		info, err := infoOf(cf)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if _, dup := s.inputs[actual]; dup {
			return fmt.Errorf("duplicate input class %s", actual)
		}
		s.inputs[actual] = cf
		// Input definitions take precedence over classpath ones.
		s.h.classes[actual] = info
		return nil
	})
}

// Apply rewrites input classes on a bounded worker pool.
func (s *session) Apply(ctx context.Context, sink remap.ClassSink) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("session closed")
	}
	names := make([]string, 0, len(s.inputs))
	for n := range s.inputs {
		names = append(names, n)
	}
	s.mu.Unlock()
	sort.Strings(names)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.threads)
	for _, name := range names {
		cf := s.inputs[name]
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("remapping %s: %w", name, &remap.PanicError{Value: r})
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := newClassRemap(s.table, s.h, s.opts, cf)
			if err != nil {
				return fmt.Errorf("remapping %s: %w", name, err)
			}
			newName, err := c.run()
			if err != nil {
				return fmt.Errorf("remapping %s: %w", name, err)
			}
			return sink.WriteClass(newName, cf.Bytes())
		})
	}
	return g.Wait()
}

// Close drops parsed classes.
func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.inputs = nil
	return nil
}

func infoOf(cf *ClassFile) (classInfo, error) {
	super, err := cf.SuperName()
	if err != nil {
		return classInfo{}, err
	}
	ifaces, err := cf.InterfaceNames()
	if err != nil {
		return classInfo{}, err
	}
	return classInfo{super: super, interfaces: ifaces}, nil
}
