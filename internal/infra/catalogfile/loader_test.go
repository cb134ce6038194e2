package catalogfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const artistBatch = `[
	{"id": "q-artist", "kind": "free-text", "title": "Who?", "tags": ["music"],
	 "answers": [{"display": "Kanye West", "aliases": ["ye"]}]}
]`

const geoBatch = `[
	{"id": "q-capital", "kind": "multiple-choice", "title": "Capital?", "tags": ["geography"],
	 "choices": [{"id": "c1", "text": "Sydney"}, {"id": "c2", "text": "Canberra", "correct": true}]},
	{"id": "q-wall", "kind": "true-false", "title": "Wall?",
	 "choices": [{"id": "true", "text": "True"}, {"id": "false", "text": "False", "correct": true}]}
]`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadAggregateFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "catalog.json", geoBatch)

	loader := NewLoader(filepath.Join(dir, "catalog.json"))
	questions, err := loader.LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 2 || questions[0].ID != "q-capital" {
		t.Fatalf("questions = %+v", questions)
	}
}

func TestLoadDirectoryLexicalOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_geo.json", geoBatch)
	writeFile(t, dir, "a_artist.json", artistBatch)

	questions, err := NewLoader(dir).LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	if questions[0].ID != "q-artist" {
		t.Fatalf("expected lexical order, first = %s", questions[0].ID)
	}
}

func TestLoadDirectoryManifestOrderAndDisabled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_artist.json", artistBatch)
	writeFile(t, dir, "b_geo.json", geoBatch)
	writeFile(t, dir, "c_broken.json", `not json`)
	writeFile(t, dir, "manifest.json", `{
		"order": ["b_geo.json", "a_artist.json"],
		"disabled": ["c_broken.json"]
	}`)

	questions, err := NewLoader(dir).LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	if questions[0].ID != "q-capital" {
		t.Fatalf("expected manifest order, first = %s", questions[0].ID)
	}
}

func TestLoadDisabledFileIsSkippedEntirely(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_artist.json", artistBatch)
	writeFile(t, dir, "manifest.json", `{"disabled": ["a_artist.json"]}`)

	questions, err := NewLoader(dir).LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 0 {
		t.Fatalf("expected no questions, got %d", len(questions))
	}
}

func TestLoadMalformedBatchFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.json", `{"not": "an array"}`)

	if _, err := NewLoader(dir).LoadQuestions(context.Background()); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadMissingPathFails(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "missing.json"))
	if _, err := loader.LoadQuestions(context.Background()); err == nil {
		t.Fatalf("expected stat error")
	}
}

func TestLoadMalformedManifestFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_artist.json", artistBatch)
	writeFile(t, dir, "manifest.json", `{`)

	if _, err := NewLoader(dir).LoadQuestions(context.Background()); err == nil {
		t.Fatalf("expected manifest parse error")
	}
}
