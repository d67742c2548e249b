package remap

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// ClassSuffix marks class file entries.
const ClassSuffix = ".class"

// entryTime is stamped on every rewritten class so repeated runs produce
// identical archives.
var entryTime = time.Date(1980, time.February, 1, 0, 0, 0, 0, time.UTC)

// IsClassEntry reports whether a jar entry is a class file the engine
// rewrites. Classes under META-INF (multi-release variants, module-info) are
// treated as resources.
func IsClassEntry(name string) bool {
	return strings.HasSuffix(name, ClassSuffix) && !strings.HasPrefix(name, "META-INF/")
}

// jarWriter assembles the output jar. Resources are copied as they are added;
// classes are buffered and written in name order on Close so output does not
// depend on engine scheduling.
type jarWriter struct {
	f  *os.File
	zw *zip.Writer

	mu      sync.Mutex
	names   map[string]struct{}
	classes map[string][]byte
}

func newJarWriter(path string) (*jarWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating output: %w", err)
	}
	return &jarWriter{
		f:       f,
		zw:      zip.NewWriter(f),
		names:   map[string]struct{}{},
		classes: map[string][]byte{},
	}, nil
}

// CopyResources copies every non-class entry of the jar at path verbatim.
func (w *jarWriter) CopyResources(path string) (int, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return 0, fmt.Errorf("opening input: %w", err)
	}
	defer zr.Close()

	w.mu.Lock()
	defer w.mu.Unlock()

	n := 0
	for _, f := range zr.File {
		if IsClassEntry(f.Name) {
			continue
		}
		if _, dup := w.names[f.Name]; dup {
			continue
		}
		if err := w.zw.Copy(f); err != nil {
			return n, fmt.Errorf("copying %s: %w", f.Name, err)
		}
		w.names[f.Name] = struct{}{}
		n++
	}
	return n, nil
}

// WriteClass implements ClassSink.
func (w *jarWriter) WriteClass(name string, data []byte) error {
	entry := name + ClassSuffix

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, dup := w.names[entry]; dup {
		return fmt.Errorf("duplicate output class %s", name)
	}
	if _, dup := w.classes[entry]; dup {
		return fmt.Errorf("duplicate output class %s", name)
	}
	w.classes[entry] = data
	return nil
}

// Close writes buffered classes and finalizes the archive.
func (w *jarWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	names := make([]string, 0, len(w.classes))
	for n := range w.classes {
		names = append(names, n)
	}
	sort.Strings(names)

	var firstErr error
	for _, n := range names {
		hdr := &zip.FileHeader{Name: n, Method: zip.Deflate, Modified: entryTime}
		out, err := w.zw.CreateHeader(hdr)
		if err == nil {
			_, err = out.Write(w.classes[n])
		}
		if err != nil {
			firstErr = fmt.Errorf("writing %s: %w", n, err)
			break
		}
	}

	if err := w.zw.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("finalizing output: %w", err)
	}
	if err := w.f.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing output: %w", err)
	}
	return firstErr
}

// Abort releases the file without finalizing it.
func (w *jarWriter) Abort() {
	_ = w.f.Close()
}

// ReadClasses calls fn for every class entry of the jar at path, passing the
// internal class name and its bytes.
func ReadClasses(path string, fn func(name string, data []byte) error) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if !IsClassEntry(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("reading %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("reading %s: %w", f.Name, err)
		}
		if err := fn(strings.TrimSuffix(f.Name, ClassSuffix), data); err != nil {
			return err
		}
	}
	return nil
}
