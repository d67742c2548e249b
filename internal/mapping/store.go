package mapping

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fukkitmc/mapjar/internal/artifact"
	"github.com/fukkitmc/mapjar/internal/output"
)

// EmbeddedTinyPath is where mapping jars (yarn, intermediary) carry their
// Tiny file.
const EmbeddedTinyPath = "mappings/mappings.tiny"

const defaultTableCacheSize = 16

// StoreOptions configures a Store.
type StoreOptions struct {
	// Path is the mapping definition: a .tiny file or a jar/zip embedding
	// mappings/mappings.tiny.
	Path string

	// DerivedDir receives files extracted from Path. Defaults to a
	// "<name>.derived" directory next to Path.
	DerivedDir string

	// Overlay is applied on top of every loaded table. Nil means DefaultOverlay;
	// use an empty slice to disable it.
	Overlay []Pair

	// CacheSize bounds the number of built tables kept in memory.
	CacheSize int
}

// Store owns one mapping definition and everything derived from it: the
// extracted Tiny file, the parsed tree and built tables.
type Store struct {
	path       string
	derivedDir string
	overlay    []Pair

	mu     sync.Mutex
	tree   *Tree
	tables *lru.Cache[string, *Table]
}

// NewStore creates a Store. It performs no I/O.
func NewStore(opts StoreOptions) (*Store, error) {
	if opts.Path == "" {
		return nil, errors.New("mapping store: path is required")
	}
	size := opts.CacheSize
	if size <= 0 {
		size = defaultTableCacheSize
	}
	tables, err := lru.New[string, *Table](size)
	if err != nil {
		return nil, fmt.Errorf("mapping store: %w", err)
	}
	derived := opts.DerivedDir
	if derived == "" {
		derived = strings.TrimSuffix(opts.Path, filepath.Ext(opts.Path)) + ".derived"
	}
	overlay := opts.Overlay
	if overlay == nil {
		overlay = DefaultOverlay
	}
	return &Store{
		path:       opts.Path,
		derivedDir: derived,
		overlay:    overlay,
		tables:     tables,
	}, nil
}

// Path returns the mapping definition file.
func (s *Store) Path() string { return s.path }

// DerivedDir returns the directory holding files derived from the definition.
func (s *Store) DerivedDir() string { return s.derivedDir }

// Exists reports whether the mapping definition file is present.
func (s *Store) Exists() (bool, error) {
	return artifact.Exists(s.path)
}

// Load returns the rename table between two namespaces with the overlay
// applied. Tables are cached until CleanFiles is called.
func (s *Store) Load(from, to string) (*Table, error) {
	key := from + "->" + to
	if t, ok := s.tables.Get(key); ok {
		return t, nil
	}

	tree, err := s.Tree()
	if err != nil {
		return nil, err
	}
	t, err := tree.Table(from, to)
	if err != nil {
		return nil, &MappingUnavailableError{Path: s.path, Cause: err}
	}
	if len(s.overlay) > 0 {
		t = t.WithOverlay(s.overlay)
	}

	s.tables.Add(key, t)
	output.Debug("mapping table loaded", "from", from, "to", to, "classes", t.Len())
	return t, nil
}

// Tree returns the parsed mapping definition.
func (s *Store) Tree() (*Tree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tree != nil {
		return s.tree, nil
	}

	ok, err := s.Exists()
	if err != nil {
		return nil, &MappingUnavailableError{Path: s.path, Cause: err}
	}
	if !ok {
		return nil, &MappingUnavailableError{Path: s.path}
	}

	tinyPath, err := s.tinyFile()
	if err != nil {
		return nil, &MappingUnavailableError{Path: s.path, Cause: err}
	}

	f, err := os.Open(tinyPath)
	if err != nil {
		return nil, &MappingUnavailableError{Path: s.path, Cause: err}
	}
	defer f.Close()

	tree, err := ParseTree(f)
	if err != nil {
		return nil, &MappingUnavailableError{Path: s.path, Cause: err}
	}
	s.tree = tree
	return tree, nil
}

// CleanFiles drops every mapping-derived cache: built tables, the parsed
// tree and extracted files. The definition itself is left alone.
func (s *Store) CleanFiles() error {
	s.mu.Lock()
	s.tree = nil
	s.mu.Unlock()
	s.tables.Purge()

	if err := os.RemoveAll(s.derivedDir); err != nil {
		return fmt.Errorf("cleaning mapping caches: %w", err)
	}
	output.Debug("mapping caches cleaned", "dir", s.derivedDir)
	return nil
}

// tinyFile returns a path to a plain Tiny file, extracting it from a jar
// definition when needed.
func (s *Store) tinyFile() (string, error) {
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".jar", ".zip":
	default:
		return s.path, nil
	}

	extracted := filepath.Join(s.derivedDir, "mappings.tiny")
	if ok, err := artifact.Exists(extracted); err != nil {
		return "", err
	} else if ok {
		return extracted, nil
	}

	zr, err := zip.OpenReader(s.path)
	if err != nil {
		return "", fmt.Errorf("opening mapping jar: %w", err)
	}
	defer zr.Close()

	entry, err := zr.Open(EmbeddedTinyPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("mapping jar has no %s", EmbeddedTinyPath)
		}
		return "", err
	}
	defer entry.Close()

	if err := os.MkdirAll(s.derivedDir, 0o755); err != nil {
		return "", err
	}
	tmp := artifact.TempPath(extracted)
	out, err := os.Create(tmp)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, entry); err != nil {
		out.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("extracting %s: %w", EmbeddedTinyPath, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := artifact.Commit(tmp, extracted); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return extracted, nil
}
