package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"trivia-round-service/internal/domain"
	"trivia-round-service/internal/infra/memory"
)

type countingLoader struct {
	inner *memory.StaticLoader
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	l.calls++
	return l.inner.LoadQuestions(ctx)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:    "q-artist",
			Kind:  domain.KindFreeText,
			Title: "Who?",
			Tags:  []string{"music"},
			Answers: []domain.Answer{
				{Display: "Kanye West", Aliases: []string{"ye"}},
			},
		},
	}
}

func TestCatalogCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{inner: memory.NewStaticLoader(sampleQuestions())}
	cache := NewCatalogCache(newClient(mr), loader, time.Minute)

	questions, err := cache.LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 1 || questions[0].ID != "q-artist" {
		t.Fatalf("questions = %+v", questions)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}

	// Second load hits redis, loader not incremented.
	again, err := cache.LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls = %d", loader.calls)
	}
	if len(again) != 1 || again[0].Answers[0].Display != "Kanye West" {
		t.Fatalf("cached questions = %+v", again)
	}
}

func TestCatalogCacheReloadsAfterExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{inner: memory.NewStaticLoader(sampleQuestions())}
	cache := NewCatalogCache(newClient(mr), loader, time.Minute)

	if _, err := cache.LoadQuestions(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := cache.LoadQuestions(context.Background()); err != nil {
		t.Fatalf("load after expiry: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls = %d", loader.calls)
	}
}
