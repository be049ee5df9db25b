package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/RishiKendai/codesim/internal/models"
)

// DirectoryStore serves submissions laid out on disk, one directory per
// student. The student ID is the directory's base name.
type DirectoryStore struct {
	dirs map[string]string
}

func NewDirectoryStore(dirs ...string) (*DirectoryStore, error) {
	store := &DirectoryStore{dirs: make(map[string]string, len(dirs))}
	for _, dir := range dirs {
		if err := store.Add(dir); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// Add registers dir and returns an error if it is not a directory or its
// base name collides with one already registered.
func (s *DirectoryStore) Add(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to stat submission directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	id := filepath.Base(filepath.Clean(dir))
	if existing, ok := s.dirs[id]; ok && existing != dir {
		return fmt.Errorf("duplicate student id %q for %s and %s", id, existing, dir)
	}
	s.dirs[id] = dir
	return nil
}

// IDs returns the registered student IDs, sorted
func (s *DirectoryStore) IDs() []string {
	ids := make([]string, 0, len(s.dirs))
	for id := range s.dirs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *DirectoryStore) Content(_ context.Context, studentID, path string) (models.Content, error) {
	dir, ok := s.dirs[studentID]
	if !ok {
		return models.Absent(), nil
	}

	rel := filepath.FromSlash(path)
	if !filepath.IsLocal(rel) {
		return models.Absent(), fmt.Errorf("path %q escapes the submission directory", path)
	}

	data, err := os.ReadFile(filepath.Join(dir, rel))
	if errors.Is(err, fs.ErrNotExist) {
		return models.Absent(), nil
	}
	if err != nil {
		return models.Absent(), fmt.Errorf("failed to read %s for %s: %w", path, studentID, err)
	}

	return models.Present(string(data)), nil
}

// Paths lists every regular file under the student's directory as a
// slash-separated relative path. Hidden entries are skipped.
func (s *DirectoryStore) Paths(_ context.Context, studentID string) ([]string, error) {
	dir, ok := s.dirs[studentID]
	if !ok {
		return nil, nil
	}

	var paths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files for %s: %w", studentID, err)
	}

	sort.Strings(paths)
	return paths, nil
}
