package catalogfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"trivia-round-service/internal/domain"
)

// Loader reads question records from disk: either a single aggregate JSON
// file (an array of questions) or a directory of per-generator *.json files
// with an optional manifest controlling load order and disabled files.
type Loader struct {
	path string
}

// manifest is the optional manifest.json sitting next to per-generator
// files. Files listed in Order load first, in that order; files listed in
// Disabled are skipped entirely.
type manifest struct {
	Order    []string `json:"order,omitempty"`
	Disabled []string `json:"disabled,omitempty"`
}

func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

func (l *Loader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	info, err := os.Stat(l.path)
	if err != nil {
		return nil, fmt.Errorf("stat catalog path: %w", err)
	}
	if info.IsDir() {
		return l.loadDir()
	}
	return loadFile(l.path)
}

func loadFile(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", filepath.Base(path), err)
	}
	return questions, nil
}

func (l *Loader) loadDir() ([]domain.Question, error) {
	entries, err := os.ReadDir(l.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}

	var m manifest
	manifestPath := filepath.Join(l.path, "manifest.json")
	if data, err := os.ReadFile(manifestPath); err == nil {
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse manifest.json: %w", err)
		}
	}
	disabled := make(map[string]struct{}, len(m.Disabled))
	for _, name := range m.Disabled {
		disabled[name] = struct{}{}
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || name == "manifest.json" {
			continue
		}
		if _, off := disabled[name]; off {
			continue
		}
		names = append(names, name)
	}
	names = orderNames(names, m.Order)

	var questions []domain.Question
	for _, name := range names {
		batch, err := loadFile(filepath.Join(l.path, name))
		if err != nil {
			return nil, err
		}
		questions = append(questions, batch...)
	}
	return questions, nil
}

// orderNames puts manifest-ordered files first, then the rest lexically.
func orderNames(names, order []string) []string {
	present := make(map[string]struct{}, len(names))
	for _, name := range names {
		present[name] = struct{}{}
	}
	out := make([]string, 0, len(names))
	taken := make(map[string]struct{}, len(names))
	for _, name := range order {
		if _, ok := present[name]; ok {
			out = append(out, name)
			taken[name] = struct{}{}
		}
	}
	var rest []string
	for _, name := range names {
		if _, ok := taken[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
