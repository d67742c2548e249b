package remap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fukkitmc/mapjar/internal/mapping"
	"github.com/fukkitmc/mapjar/internal/output"
)

var (
	// ErrJavaNotFound is returned when the java executable is not found.
	ErrJavaNotFound = errors.New("java executable not found")

	// ErrRemapperJarNotFound is returned when the remapper jar is missing.
	ErrRemapperJarNotFound = errors.New("tiny-remapper jar not found")
)

// ExecEngine delegates remapping to a tiny-remapper process.
type ExecEngine struct {
	// Java is the java executable. If empty, "java" is used from PATH.
	Java string

	// Jar is the tiny-remapper fat jar.
	Jar string

	// JVMArgs are passed before -jar.
	JVMArgs []string

	// Stderr receives the tool's diagnostic output. If nil, it is captured
	// and attached to errors.
	Stderr io.Writer
}

// NewExecEngine creates an engine running jar with java from PATH.
func NewExecEngine(jar string) *ExecEngine {
	return &ExecEngine{Java: "java", Jar: jar}
}

// Name implements Engine.
func (e *ExecEngine) Name() string {
	return "tiny-remapper"
}

// Check verifies that java and the remapper jar are available.
func (e *ExecEngine) Check() error {
	if _, err := exec.LookPath(e.java()); err != nil {
		return fmt.Errorf("%w: %s", ErrJavaNotFound, e.java())
	}
	if _, err := os.Stat(e.Jar); err != nil {
		return fmt.Errorf("%w: %s", ErrRemapperJarNotFound, e.Jar)
	}
	return nil
}

// Open implements Engine. The session exports the table to a private
// temporary directory which Close removes.
func (e *ExecEngine) Open(ctx context.Context, table *mapping.Table, opts Options) (Session, error) {
	if err := e.Check(); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "mapjar-remap-*")
	if err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	mappingsPath := filepath.Join(dir, "mappings.tiny")
	f, err := os.Create(mappingsPath)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	if err := mapping.WriteTiny(f, table); err != nil {
		f.Close()
		os.RemoveAll(dir)
		return nil, fmt.Errorf("exporting mappings: %w", err)
	}
	if err := f.Close(); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	return &execSession{
		engine:   e,
		dir:      dir,
		mappings: mappingsPath,
		from:     table.From,
		to:       table.To,
		opts:     opts,
	}, nil
}

func (e *ExecEngine) java() string {
	if e.Java != "" {
		return e.Java
	}
	return "java"
}

type execSession struct {
	engine    *ExecEngine
	dir       string
	mappings  string
	from, to  string
	opts      Options
	input     string
	classpath []string
}

func (s *execSession) ReadClasspath(_ context.Context, paths ...string) error {
	s.classpath = append(s.classpath, paths...)
	return nil
}

func (s *execSession) ReadInput(_ context.Context, path string) error {
	if s.input != "" {
		return fmt.Errorf("input already set to %s", s.input)
	}
	s.input = path
	return nil
}

// args builds the tiny-remapper command line.
func (s *execSession) args(out string) []string {
	args := append([]string{}, s.engine.JVMArgs...)
	args = append(args, "-jar", s.engine.Jar, s.input, out, s.mappings, s.from, s.to)
	args = append(args, s.classpath...)
	if s.opts.RenameInvalidLocals {
		args = append(args, "--renameInvalidLocals")
	}
	if s.opts.RebuildSourceFilenames {
		args = append(args, "--rebuildSourceFilenames")
	}
	if s.opts.Threads > 0 {
		args = append(args, "--threads="+strconv.Itoa(s.opts.Threads))
	}
	return args
}

func (s *execSession) Apply(ctx context.Context, sink ClassSink) error {
	if s.input == "" {
		return errors.New("no input jar")
	}

	out := filepath.Join(s.dir, "output.jar")
	args := s.args(out)

	cmd := exec.CommandContext(ctx, s.engine.java(), args...)
	var stderr bytes.Buffer
	if s.engine.Stderr != nil {
		cmd.Stderr = s.engine.Stderr
	} else {
		cmd.Stderr = &stderr
	}

	output.Debug("running remapper", "cmd", s.engine.java()+" "+strings.Join(args, " "))

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("tiny-remapper interrupted: %w", ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("tiny-remapper failed with exit code %d: %s",
				exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return fmt.Errorf("tiny-remapper: %w", err)
	}

	return ReadClasses(out, sink.WriteClass)
}

func (s *execSession) Close() error {
	return os.RemoveAll(s.dir)
}
