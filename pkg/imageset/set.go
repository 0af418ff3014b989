// Package imageset manages the list of images sent for extraction and
// loads them for upload.
//
// A [Set] keeps paths in the order they were added and rejects a second
// file with the same base name, since uploads are identified by name.
// [Load] reads the files and optionally downsizes large images with
// github.com/disintegration/imaging.
package imageset

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/tokendeck/pkg/errors"
)

// Set is an ordered list of image paths, unique by base name.
type Set struct {
	paths []string
	names map[string]struct{}
}

// NewSet returns a set holding paths. Duplicates are dropped.
func NewSet(paths ...string) (*Set, error) {
	s := &Set{}
	if _, err := s.Add(paths...); err != nil {
		return nil, err
	}
	return s, nil
}

// Add appends paths that are not already present by base name and returns
// how many were added. Every path is checked before any is added, so on
// error the set is unchanged.
func (s *Set) Add(paths ...string) (int, error) {
	for _, p := range paths {
		if _, err := errors.ImageMIMEType(p); err != nil {
			return 0, err
		}
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				return 0, errors.New(errors.ErrCodeFileNotFound, "image not found: %s", p)
			}
			return 0, errors.Wrap(errors.ErrCodeInvalidImage, err, "stat %s", p)
		}
		if info.IsDir() {
			return 0, errors.New(errors.ErrCodeInvalidImage, "%s is a directory", p)
		}
	}

	if s.names == nil {
		s.names = make(map[string]struct{})
	}
	added := 0
	for _, p := range paths {
		name := filepath.Base(p)
		if _, dup := s.names[name]; dup {
			continue
		}
		s.names[name] = struct{}{}
		s.paths = append(s.paths, p)
		added++
	}
	return added, nil
}

// Reset empties the set.
func (s *Set) Reset() {
	s.paths = nil
	s.names = nil
}

// Len returns the number of images.
func (s *Set) Len() int { return len(s.paths) }

// Paths returns the image paths in insertion order.
func (s *Set) Paths() []string { return slices.Clone(s.paths) }

// Names returns the base names in insertion order.
func (s *Set) Names() []string {
	names := make([]string, len(s.paths))
	for i, p := range s.paths {
		names[i] = filepath.Base(p)
	}
	return names
}

// Supported reports whether path has an accepted image extension.
func Supported(path string) bool {
	_, err := errors.ImageMIMEType(path)
	return err == nil
}

// Collect lists the supported images directly inside dir, sorted by name.
// Hidden files are skipped.
func Collect(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "directory not found: %s", dir)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", dir)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !Supported(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}

// Expand resolves command-line arguments into image paths: directories are
// replaced by their [Collect] result, files are kept as given.
func Expand(args []string) ([]string, error) {
	var out []string
	for _, a := range args {
		info, err := os.Stat(a)
		if err == nil && info.IsDir() {
			files, err := Collect(a)
			if err != nil {
				return nil, err
			}
			out = append(out, files...)
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
