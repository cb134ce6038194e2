package catalog

import (
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"trivia-round-service/internal/domain"
	"trivia-round-service/internal/rules"
)

// Catalog is the read interface the round engine and tag filter consume.
type Catalog interface {
	ByID(id string) (domain.Question, bool)
	IDsForTag(tag string) map[string]struct{}
	AllIDs() map[string]struct{}
	PickWeighted(eligible map[string]struct{}) (domain.Question, bool)
}

// kindWeights fixes the per-kind selection weights so the type distribution
// stays stable regardless of how many questions of each kind exist.
var kindWeights = map[domain.Kind]int{
	domain.KindFreeText:       25,
	domain.KindMultiEntry:     25,
	domain.KindMultipleChoice: 20,
	domain.KindOrderedList:    20,
	domain.KindTrueFalse:      5,
	domain.KindNumeric:        5,
}

// Index holds the loaded questions, the tag index, and the id universe.
// Built once at load; read-only thereafter.
type Index struct {
	questions map[string]domain.Question
	byKind    map[domain.Kind][]string
	tags      map[string]map[string]struct{}
	ids       map[string]struct{}
	rndMu     sync.Mutex
	rnd       *rand.Rand
	logger    *slog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithRand injects the random source used by PickWeighted.
func WithRand(rnd *rand.Rand) Option {
	return func(idx *Index) { idx.rnd = rnd }
}

// WithLogger injects the logger used for load diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) { idx.logger = logger }
}

// New builds an Index from loaded question records. Alias maps are
// normalized here with the question's own strictness so evaluation uses the
// exact same lookup form. Loading zero questions is a fatal configuration
// error.
func New(questions []domain.Question, opts ...Option) (*Index, error) {
	idx := &Index{
		questions: make(map[string]domain.Question),
		byKind:    make(map[domain.Kind][]string),
		tags:      make(map[string]map[string]struct{}),
		ids:       make(map[string]struct{}),
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(idx)
	}

	for _, q := range questions {
		if q.ID == "" {
			continue
		}
		if _, dup := idx.questions[q.ID]; dup {
			idx.logger.Warn("duplicate question id, keeping last", "id", q.ID)
			idx.removeFromKind(q.ID)
		}
		q.AliasIndex = buildAliasIndex(q)
		idx.questions[q.ID] = q
		kind := q.Kind
		if _, known := kindWeights[kind]; !known {
			// Unknown kinds select and evaluate as free-text.
			idx.logger.Warn("unknown question kind, treating as free-text", "id", q.ID, "kind", string(kind))
			kind = domain.KindFreeText
		}
		idx.byKind[kind] = append(idx.byKind[kind], q.ID)
		idx.ids[q.ID] = struct{}{}
		for _, tag := range q.Tags {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag == "" {
				continue
			}
			set, ok := idx.tags[tag]
			if !ok {
				set = make(map[string]struct{})
				idx.tags[tag] = set
			}
			set[q.ID] = struct{}{}
		}
	}
	if len(idx.questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	for kind := range idx.byKind {
		sort.Strings(idx.byKind[kind])
	}
	return idx, nil
}

func (idx *Index) removeFromKind(id string) {
	prev := idx.questions[id]
	kind := prev.Kind
	if _, known := kindWeights[kind]; !known {
		kind = domain.KindFreeText
	}
	ids := idx.byKind[kind]
	for i, existing := range ids {
		if existing == id {
			idx.byKind[kind] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

// buildAliasIndex maps every normalized alias (and the display form itself)
// to its canonical display form.
func buildAliasIndex(q domain.Question) map[string]string {
	if len(q.Answers) == 0 {
		return nil
	}
	strict := q.Strictness == domain.StrictnessStrict
	index := make(map[string]string)
	for _, a := range q.Answers {
		if key := rules.Normalize(a.Display, strict); key != "" {
			index[key] = a.Display
		}
		for _, alias := range a.Aliases {
			if key := rules.Normalize(alias, strict); key != "" {
				index[key] = a.Display
			}
		}
	}
	return index
}

// ByID looks up a question; the bool is false for unknown ids.
func (idx *Index) ByID(id string) (domain.Question, bool) {
	q, ok := idx.questions[id]
	return q, ok
}

// IDsForTag returns a copy of the tag's id set, empty for unknown tags.
// Callers can never corrupt the index through the returned set.
func (idx *Index) IDsForTag(tag string) map[string]struct{} {
	out := make(map[string]struct{})
	for id := range idx.tags[strings.ToLower(strings.TrimSpace(tag))] {
		out[id] = struct{}{}
	}
	return out
}

// AllIDs returns a copy of the full id universe.
func (idx *Index) AllIDs() map[string]struct{} {
	out := make(map[string]struct{}, len(idx.ids))
	for id := range idx.ids {
		out[id] = struct{}{}
	}
	return out
}

// Len reports the number of loaded questions.
func (idx *Index) Len() int {
	return len(idx.questions)
}

// PickWeighted selects a random question from eligible. It groups the
// eligible ids by kind, draws a kind from the fixed weight table, then
// draws uniformly within that kind. When no kind has both a nonzero weight
// and eligible members it falls back to a uniform draw over all eligible
// ids.
func (idx *Index) PickWeighted(eligible map[string]struct{}) (domain.Question, bool) {
	// Lobbies pick concurrently; only the rand source needs guarding.
	idx.rndMu.Lock()
	defer idx.rndMu.Unlock()

	eligibleByKind := make(map[domain.Kind][]string)
	var all []string
	for _, kind := range domain.Kinds() {
		for _, id := range idx.byKind[kind] {
			if _, ok := eligible[id]; ok {
				eligibleByKind[kind] = append(eligibleByKind[kind], id)
				all = append(all, id)
			}
		}
	}
	if len(all) == 0 {
		return domain.Question{}, false
	}

	total := 0
	for kind, ids := range eligibleByKind {
		if len(ids) > 0 {
			total += kindWeights[kind]
		}
	}
	if total == 0 {
		id := all[idx.rnd.Intn(len(all))]
		return idx.questions[id], true
	}

	draw := idx.rnd.Intn(total)
	for _, kind := range domain.Kinds() {
		ids := eligibleByKind[kind]
		if len(ids) == 0 {
			continue
		}
		draw -= kindWeights[kind]
		if draw < 0 {
			id := ids[idx.rnd.Intn(len(ids))]
			return idx.questions[id], true
		}
	}
	// Unreachable while the weight table covers all kinds.
	id := all[idx.rnd.Intn(len(all))]
	return idx.questions[id], true
}
