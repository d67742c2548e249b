// Package artifact describes cached jars: where they live on disk and the
// logical identity they are registered under.
package artifact

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/fukkitmc/mapjar/internal/fingerprint"
)

// Extension is the container extension of every cached artifact.
const Extension = ".jar"

// Ref is an on-disk artifact plus its logical identity.
type Ref struct {
	// Path is the absolute location of the jar.
	Path string

	// Name is the logical artifact name ("minecraft").
	Name string

	// Version is the fingerprint the artifact is keyed by.
	Version string

	// Role is the pipeline stage tag (intermediary, mapped).
	Role string
}

// ID returns the identity string "<name>-<version>".
func (r Ref) ID() string {
	return r.Name + fingerprint.Separator + r.Version
}

// String implements fmt.Stringer.
func (r Ref) String() string {
	return fmt.Sprintf("%s (%s)", r.ID(), r.Path)
}

// FileName returns the cache file name for an artifact name and fingerprint.
func FileName(name, version string) string {
	return name + fingerprint.Separator + version + Extension
}

// Layout maps fingerprints onto cache paths.
type Layout struct {
	// CacheDir holds intermediate artifacts.
	CacheDir string

	// MappedDir holds mapped artifacts. Defaults to CacheDir.
	MappedDir string
}

// dirFor returns the directory for the given role.
func (l Layout) dirFor(role string) string {
	if role == fingerprint.RoleMapped && l.MappedDir != "" {
		return l.MappedDir
	}
	return l.CacheDir
}

// Ref derives the artifact reference for name, role and fingerprint inputs.
func (l Layout) Ref(name, role string, in fingerprint.Inputs) (Ref, error) {
	if name == "" {
		return Ref{}, &fingerprint.InvalidInputError{Component: "artifactName"}
	}
	version, err := in.Build(role)
	if err != nil {
		return Ref{}, err
	}
	return Ref{
		Path:    filepath.Join(l.dirFor(role), FileName(name, version)),
		Name:    name,
		Version: version,
		Role:    role,
	}, nil
}

// Exists reports whether a regular file exists at path. Errors other than
// "does not exist" are returned to the caller.
func Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("checking %s: %w", path, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("checking %s: is a directory", path)
	}
	return true, nil
}

// Remove deletes path. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting %s: %w", path, err)
	}
	return nil
}

// EnsureParent creates the parent directory of path.
func EnsureParent(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	return nil
}

// TempPath returns a unique sibling path for staging writes to path. Staging
// next to the target keeps the final rename on the same filesystem.
func TempPath(path string) string {
	return path + "." + uuid.NewString() + ".tmp"
}

// Commit atomically moves a staged file into place.
func Commit(tmp, path string) error {
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("moving %s into place: %w", filepath.Base(path), err)
	}
	return nil
}

// CopyFile atomically copies src to dst through a staged temp file.
func CopyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	if err := EnsureParent(dst); err != nil {
		return err
	}

	tmp := TempPath(dst)
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	return Commit(tmp, dst)
}
