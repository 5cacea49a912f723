package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tickerflow/internal/evalopt"
)

type rubricFile struct {
	Rubric []rubricEntry `yaml:"rubric"`
}

type rubricEntry struct {
	ID     string   `yaml:"id"`
	Weight *float64 `yaml:"weight"`
}

// LoadRubric reads a rubric file. A missing file yields the default rubric
// with a warning.
func LoadRubric(path string, logger *slog.Logger) (evalopt.Rubric, error) {
	if logger == nil {
		logger = slog.Default()
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("rubric file not found, using default rubric", "path", path)
		return evalopt.DefaultRubric(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rubric: %w", err)
	}
	return ParseRubric(path, data)
}

// ParseRubric validates and decodes a rubric document. Entries without a
// weight get evalopt.DefaultWeight; negative weights are rejected. An empty
// document or list yields the default rubric.
func ParseRubric(filename string, data []byte) (evalopt.Rubric, error) {
	if isEmptyDocument(data) {
		return evalopt.DefaultRubric(), nil
	}
	if err := validate(filename, data, defRubric); err != nil {
		return nil, err
	}

	var doc rubricFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	if len(doc.Rubric) == 0 {
		return evalopt.DefaultRubric(), nil
	}

	rubric := make(evalopt.Rubric, len(doc.Rubric))
	for i, e := range doc.Rubric {
		w := evalopt.DefaultWeight
		if e.Weight != nil {
			w = *e.Weight
		}
		rubric[i] = evalopt.Criterion{ID: e.ID, Weight: w}
	}
	if err := rubric.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return rubric, nil
}
