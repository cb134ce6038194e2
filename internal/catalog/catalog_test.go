package catalog

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"trivia-round-service/internal/domain"
)

func fixtureQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Kind: domain.KindFreeText, Tags: []string{"music", "HipHop"},
			Answers: []domain.Answer{{Display: "Kanye West", Aliases: []string{"ye"}}}},
		{ID: "q2", Kind: domain.KindMultipleChoice, Tags: []string{"geography"},
			Choices: []domain.Choice{{ID: "c1", Text: "A"}, {ID: "c2", Text: "B", Correct: true}}},
		{ID: "q3", Kind: domain.KindNumeric, Tags: []string{"history"},
			Numeric: &domain.NumericSpec{Value: 1989}},
	}
}

func TestNewRejectsEmptyCatalog(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("New(nil) error = %v, want ErrNoQuestions", err)
	}
}

func TestByID(t *testing.T) {
	idx, err := New(fixtureQuestions())
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	if q, ok := idx.ByID("q1"); !ok || q.Kind != domain.KindFreeText {
		t.Fatalf("ByID(q1) = %+v, %v", q, ok)
	}
	if _, ok := idx.ByID("missing"); ok {
		t.Fatalf("ByID(missing) should fail silently")
	}
}

func TestAliasIndexBuiltAtLoad(t *testing.T) {
	idx, err := New(fixtureQuestions())
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	q, _ := idx.ByID("q1")
	if q.AliasIndex["ye"] != "Kanye West" || q.AliasIndex["kanye west"] != "Kanye West" {
		t.Fatalf("alias index = %v, want normalized aliases and display", q.AliasIndex)
	}
}

func TestTagIndexNormalizedAndCopied(t *testing.T) {
	idx, err := New(fixtureQuestions())
	if err != nil {
		t.Fatalf("build index: %v", err)
	}

	set := idx.IDsForTag("hiphop")
	if _, ok := set["q1"]; !ok || len(set) != 1 {
		t.Fatalf("IDsForTag(hiphop) = %v", set)
	}

	// Mutating the returned set must not corrupt the index.
	delete(set, "q1")
	set["bogus"] = struct{}{}
	again := idx.IDsForTag("hiphop")
	if _, ok := again["q1"]; !ok || len(again) != 1 {
		t.Fatalf("index corrupted through returned set: %v", again)
	}

	if got := idx.IDsForTag("unknown"); len(got) != 0 {
		t.Fatalf("IDsForTag(unknown) = %v, want empty", got)
	}
}

func TestAllIDsIsCopy(t *testing.T) {
	idx, err := New(fixtureQuestions())
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	all := idx.AllIDs()
	delete(all, "q1")
	if len(idx.AllIDs()) != 3 {
		t.Fatalf("AllIDs affected by caller mutation")
	}
}

func TestDuplicateIDKeepsLast(t *testing.T) {
	questions := []domain.Question{
		{ID: "q1", Kind: domain.KindFreeText, Title: "first"},
		{ID: "q1", Kind: domain.KindNumeric, Title: "second", Numeric: &domain.NumericSpec{Value: 1}},
	}
	idx, err := New(questions)
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	q, ok := idx.ByID("q1")
	if !ok || q.Title != "second" {
		t.Fatalf("duplicate handling: got %+v", q)
	}
	if idx.Len() != 1 {
		t.Fatalf("expected 1 question, got %d", idx.Len())
	}
	// The stale kind bucket must not offer the replaced record.
	if ids := idx.byKind[domain.KindFreeText]; len(ids) != 0 {
		t.Fatalf("stale kind bucket: %v", ids)
	}
}

func TestPickWeightedEmptyEligible(t *testing.T) {
	idx, err := New(fixtureQuestions())
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	if _, ok := idx.PickWeighted(map[string]struct{}{}); ok {
		t.Fatalf("expected no pick from empty eligible set")
	}
}

func TestPickWeightedRespectsEligible(t *testing.T) {
	idx, err := New(fixtureQuestions(), WithRand(rand.New(rand.NewSource(1))))
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	eligible := map[string]struct{}{"q2": {}}
	for i := 0; i < 50; i++ {
		q, ok := idx.PickWeighted(eligible)
		if !ok || q.ID != "q2" {
			t.Fatalf("pick outside eligible set: %+v, %v", q, ok)
		}
	}
}

func TestPickWeightedDistribution(t *testing.T) {
	var questions []domain.Question
	for _, kind := range domain.Kinds() {
		for i := 0; i < 10; i++ {
			questions = append(questions, domain.Question{
				ID:   fmt.Sprintf("%s-%d", kind, i),
				Kind: kind,
			})
		}
	}
	idx, err := New(questions, WithRand(rand.New(rand.NewSource(42))))
	if err != nil {
		t.Fatalf("build index: %v", err)
	}

	const draws = 1000
	counts := make(map[domain.Kind]int)
	eligible := idx.AllIDs()
	for i := 0; i < draws; i++ {
		q, ok := idx.PickWeighted(eligible)
		if !ok {
			t.Fatalf("draw %d failed", i)
		}
		counts[q.Kind]++
	}

	for kind, weight := range kindWeights {
		want := float64(weight) / 100
		got := float64(counts[kind]) / draws
		if math.Abs(got-want) > 0.05 {
			t.Fatalf("kind %s frequency %.3f, want %.3f ± 0.05", kind, got, want)
		}
	}
}
