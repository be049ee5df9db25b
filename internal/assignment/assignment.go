// Package assignment loads assignment definitions from YAML.
package assignment

import (
	"fmt"
	"os"

	"github.com/RishiKendai/codesim/internal/models"
	"gopkg.in/yaml.v3"
)

// Assignment describes which files to compare and how to check them
// against the starter code.
type Assignment struct {
	ID            string
	Files         []models.FileSpec
	ReferenceFile string
	Functions     []string
	Threshold     int
	BatchSize     int
	EarlyExit     *bool
}

type fileEntry struct {
	Path   string   `yaml:"path"`
	Weight *float64 `yaml:"weight"`
}

type document struct {
	ID            string      `yaml:"id"`
	Files         []fileEntry `yaml:"files"`
	ReferenceFile string      `yaml:"referenceFile"`
	Functions     []string    `yaml:"functions"`
	Threshold     int         `yaml:"threshold"`
	BatchSize     int         `yaml:"batchSize"`
	EarlyExit     *bool       `yaml:"earlyExit"`
}

// Load reads and validates an assignment file
func Load(path string) (*Assignment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read assignment: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Assignment, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse assignment: %w", err)
	}

	a := Assignment{
		ID:            doc.ID,
		Files:         make([]models.FileSpec, len(doc.Files)),
		ReferenceFile: doc.ReferenceFile,
		Functions:     doc.Functions,
		Threshold:     doc.Threshold,
		BatchSize:     doc.BatchSize,
		EarlyExit:     doc.EarlyExit,
	}
	for i, entry := range doc.Files {
		// an omitted weight counts as 1, an explicit 0 excludes the file
		weight := 1.0
		if entry.Weight != nil {
			weight = *entry.Weight
		}
		a.Files[i] = models.FileSpec{Path: entry.Path, Weight: weight}
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

func (a *Assignment) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("assignment id is required")
	}

	seen := make(map[string]bool, len(a.Files))
	for _, file := range a.Files {
		if file.Path == "" {
			return fmt.Errorf("assignment %s: file path is required", a.ID)
		}
		if seen[file.Path] {
			return fmt.Errorf("assignment %s: duplicate file %s", a.ID, file.Path)
		}
		seen[file.Path] = true
		if file.Weight < 0 {
			return fmt.Errorf("assignment %s: negative weight for %s", a.ID, file.Path)
		}
	}

	if a.ReferenceFile != "" && len(a.Files) > 0 && !seen[a.ReferenceFile] {
		return fmt.Errorf("assignment %s: reference file %s is not listed in files", a.ID, a.ReferenceFile)
	}
	if a.Threshold < 0 || a.Threshold > 100 {
		return fmt.Errorf("assignment %s: threshold must be between 0 and 100", a.ID)
	}
	if a.BatchSize < 0 {
		return fmt.Errorf("assignment %s: batch size must not be negative", a.ID)
	}
	return nil
}

// EarlyExitOr returns the assignment's early exit setting, or def when unset
func (a *Assignment) EarlyExitOr(def bool) bool {
	if a.EarlyExit == nil {
		return def
	}
	return *a.EarlyExit
}
