package round

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"trivia-round-service/internal/catalog"
	"trivia-round-service/internal/domain"
	"trivia-round-service/internal/rules"
	"trivia-round-service/internal/tagfilter"
)

// SettingsStore holds per-lobby settings, currently the tag-filter
// expression (in-memory, Redis, etc).
type SettingsStore interface {
	Filter(lobbyID string) string
	SetFilter(lobbyID, expression string)
	Drop(lobbyID string)
}

// CatalogSource yields the current question catalog.
type CatalogSource interface {
	Catalog(ctx context.Context) (catalog.Catalog, error)
}

// Engine owns one active-or-ended round per lobby. All transitions for a
// lobby are serialized behind that lobby's mutex; different lobbies are
// fully independent.
type Engine struct {
	catalogs CatalogSource
	settings SettingsStore
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	lobbies map[string]*lobby

	flagMu  sync.Mutex
	flagged map[string][]string
}

type lobby struct {
	mu    sync.Mutex
	round *round
}

type round struct {
	question  domain.Question
	cfg       rules.TypeConfig
	startedAt time.Time
	duration  time.Duration
	endsAt    time.Time
	active    bool
	endedAt   time.Time
	reason    domain.EndReason
	subs      map[string]*submission
	nextSeq   int
	summary   *domain.RoundSummary
}

type submission struct {
	entry domain.SubmissionEntry
	seq   int
}

func NewEngine(catalogs CatalogSource, settings SettingsStore, logger *slog.Logger) *Engine {
	return NewEngineWithClock(catalogs, settings, logger, time.Now)
}

// NewEngineWithClock allows deterministic timestamps in tests.
func NewEngineWithClock(catalogs CatalogSource, settings SettingsStore, logger *slog.Logger, now func() time.Time) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		catalogs: catalogs,
		settings: settings,
		logger:   logger,
		now:      now,
		lobbies:  make(map[string]*lobby),
		flagged:  make(map[string][]string),
	}
}

func (e *Engine) lobby(lobbyID string) *lobby {
	e.mu.Lock()
	defer e.mu.Unlock()
	lb, ok := e.lobbies[lobbyID]
	if !ok {
		lb = &lobby{}
		e.lobbies[lobbyID] = lb
	}
	return lb
}

func (e *Engine) peek(lobbyID string) (*lobby, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	lb, ok := e.lobbies[lobbyID]
	return lb, ok
}

// SetFilter stores the lobby's tag-filter expression, applied at the next
// round start. The expression is not validated here; a broken filter fails
// open at compile time.
func (e *Engine) SetFilter(lobbyID, expression string) {
	e.settings.SetFilter(lobbyID, expression)
}

// Filter returns the lobby's current tag-filter expression.
func (e *Engine) Filter(lobbyID string) string {
	return e.settings.Filter(lobbyID)
}

// DropLobby discards a lobby's round state and settings once it empties.
func (e *Engine) DropLobby(lobbyID string) {
	e.mu.Lock()
	delete(e.lobbies, lobbyID)
	e.mu.Unlock()
	e.settings.Drop(lobbyID)
}

// Start picks a question for the lobby and opens a new round. It fails only
// on a non-positive duration, an already-active round, or a catalog that
// cannot serve. A prior ended round is overwritten.
func (e *Engine) Start(ctx context.Context, lobbyID string, duration time.Duration) (domain.RoundPayload, error) {
	if duration <= 0 {
		return domain.RoundPayload{}, domain.ErrInvalidDuration
	}

	lb := e.lobby(lobbyID)
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if lb.round != nil && lb.round.active {
		return domain.RoundPayload{}, domain.ErrRoundActive
	}

	cat, err := e.catalogs.Catalog(ctx)
	if err != nil {
		return domain.RoundPayload{}, fmt.Errorf("load catalog: %w", err)
	}

	eligible := tagfilter.Compile(e.settings.Filter(lobbyID), cat, e.logger)
	question, ok := cat.PickWeighted(eligible)
	if !ok {
		// A valid filter that matches nothing must not stall the game.
		e.logger.Warn("tag filter matched no questions, picking from full catalog",
			"lobby", lobbyID, "filter", e.settings.Filter(lobbyID))
		question, ok = cat.PickWeighted(cat.AllIDs())
	}
	if !ok {
		return domain.RoundPayload{}, domain.ErrNoQuestions
	}

	now := e.now()
	lb.round = &round{
		question:  question,
		cfg:       rules.ConfigFor(question.Kind),
		startedAt: now,
		duration:  duration,
		endsAt:    now.Add(duration),
		active:    true,
		subs:      make(map[string]*submission),
	}

	return domain.RoundPayload{
		LobbyID:    lobbyID,
		Question:   question.ClientView(),
		StartedAt:  now,
		DurationMs: duration.Milliseconds(),
		EndsAt:     lb.round.endsAt,
	}, nil
}

// Submit records a player's answer against the lobby's active round. All
// failure modes are typed statuses, never errors.
func (e *Engine) Submit(lobbyID, playerID string, in rules.Input) domain.SubmitResult {
	lb, ok := e.peek(lobbyID)
	if !ok {
		return domain.SubmitResult{Status: domain.StatusNoRound}
	}

	lb.mu.Lock()
	defer lb.mu.Unlock()

	r := lb.round
	if r == nil {
		return domain.SubmitResult{Status: domain.StatusNoRound}
	}
	if !r.active {
		return domain.SubmitResult{Status: domain.StatusRoundEnded}
	}

	prior := r.subs[playerID]
	if prior != nil {
		if !r.cfg.AllowsRetry {
			return domain.SubmitResult{Status: domain.StatusAlreadySubmitted, Entry: entryCopy(prior, r.cfg)}
		}
		if prior.entry.Correct {
			return domain.SubmitResult{Status: domain.StatusAlreadyCorrect, Entry: entryCopy(prior, r.cfg)}
		}
		in.Found = prior.entry.Found
	}

	ev := rules.Evaluate(r.question, in)
	if !ev.Valid {
		return domain.SubmitResult{Status: domain.StatusInvalidInput}
	}

	entry := domain.SubmissionEntry{
		PlayerID:    playerID,
		Attempts:    1,
		SubmittedAt: e.now(),
	}
	if prior != nil {
		entry.Attempts = prior.entry.Attempts + 1
	}

	var status domain.SubmitStatus
	switch r.question.Kind {
	case domain.KindMultiEntry:
		entry.Found = append(entry.Found, in.Found...)
		entry.Duplicate = ev.Duplicate
		if ev.Correct {
			entry.Found = append(entry.Found, ev.Matched)
			entry.Matched = ev.Matched
			status = domain.StatusCorrect
		} else {
			status = domain.StatusIncorrect
		}
		entry.Value = in.Value
		entry.Correct = len(entry.Found) == len(r.question.Answers)
	case domain.KindMultipleChoice, domain.KindTrueFalse:
		entry.ChoiceID = in.Value
		entry.Correct = ev.Correct
		entry.Matched = ev.Matched
		// Result withheld until reveal for choice kinds.
		status = domain.StatusSubmitted
		if r.cfg.RevealsOnSubmit {
			status = resultStatus(ev.Correct)
		}
	case domain.KindNumeric:
		entry.Value = in.Value
		entry.Correct = ev.Correct
		entry.Matched = ev.Matched
		entry.Band = string(ev.Band)
		status = resultStatus(ev.Correct)
	case domain.KindOrderedList:
		entry.Value = strings.Join(in.Items, ", ")
		entry.Correct = ev.Correct
		entry.ExactCount = ev.ExactCount
		status = resultStatus(ev.Correct)
	default:
		entry.Value = in.Value
		entry.Correct = ev.Correct
		entry.Matched = ev.Matched
		status = resultStatus(ev.Correct)
	}

	r.nextSeq++
	r.subs[playerID] = &submission{entry: entry, seq: r.nextSeq}

	out := redact(entry, r.cfg)
	return domain.SubmitResult{Status: status, Entry: &out}
}

func resultStatus(correct bool) domain.SubmitStatus {
	if correct {
		return domain.StatusCorrect
	}
	return domain.StatusIncorrect
}

// redact strips correctness from the echoed entry for kinds whose result is
// withheld until reveal. The stored entry keeps the full record.
func redact(entry domain.SubmissionEntry, cfg rules.TypeConfig) domain.SubmissionEntry {
	if !cfg.RevealsOnSubmit {
		entry.Correct = false
		entry.Matched = ""
	}
	return entry
}

func entryCopy(s *submission, cfg rules.TypeConfig) *domain.SubmissionEntry {
	entry := redact(s.entry, cfg)
	return &entry
}

// CheckEnd reports whether the active round should end given the lobby's
// current roster. The caller invokes it after each accepted submission and
// then calls Finalize with the returned reason.
func (e *Engine) CheckEnd(lobbyID string, players []string) (domain.EndReason, bool) {
	lb, ok := e.peek(lobbyID)
	if !ok {
		return "", false
	}

	lb.mu.Lock()
	defer lb.mu.Unlock()

	r := lb.round
	if r == nil || !r.active || len(players) == 0 {
		return "", false
	}

	if r.cfg.EndsOnAllCorrect {
		for _, p := range players {
			sub, ok := r.subs[p]
			if !ok || !sub.entry.Correct {
				return "", false
			}
		}
		return domain.EndAllCorrect, true
	}
	if r.cfg.EndsOnAllSubmitted {
		for _, p := range players {
			if _, ok := r.subs[p]; !ok {
				return "", false
			}
		}
		return domain.EndAllSubmitted, true
	}
	return "", false
}

// Finalize ends the lobby's active round and computes its summary once.
// It is a no-op when no round is active, so a late timer firing after an
// all-correct finish is harmless.
func (e *Engine) Finalize(lobbyID string, reason domain.EndReason) (domain.RoundSummary, bool) {
	lb, ok := e.peek(lobbyID)
	if !ok {
		return domain.RoundSummary{}, false
	}

	lb.mu.Lock()
	defer lb.mu.Unlock()

	r := lb.round
	if r == nil || !r.active {
		return domain.RoundSummary{}, false
	}

	r.active = false
	r.endedAt = e.now()
	r.reason = reason
	summary := buildSummary(lobbyID, r)
	r.summary = &summary
	return summary, true
}

// Summary returns the finalized summary of the lobby's most recent round.
func (e *Engine) Summary(lobbyID string) (domain.RoundSummary, bool) {
	lb, ok := e.peek(lobbyID)
	if !ok {
		return domain.RoundSummary{}, false
	}
	lb.mu.Lock()
	defer lb.mu.Unlock()
	if lb.round == nil || lb.round.summary == nil {
		return domain.RoundSummary{}, false
	}
	return *lb.round.summary, true
}

// FlagQuestion records a moderation flag against a catalog question. Unknown
// ids are rejected with ErrQuestionNotFound. Flags live in memory only;
// durable storage is handled elsewhere.
func (e *Engine) FlagQuestion(ctx context.Context, questionID, playerID string) error {
	cat, err := e.catalogs.Catalog(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if _, ok := cat.ByID(questionID); !ok {
		return domain.ErrQuestionNotFound
	}

	e.flagMu.Lock()
	defer e.flagMu.Unlock()
	e.flagged[questionID] = append(e.flagged[questionID], playerID)
	e.logger.Info("question flagged", "question", questionID, "player", playerID)
	return nil
}

// FlaggedQuestions lists question ids carrying at least one flag.
func (e *Engine) FlaggedQuestions() []string {
	e.flagMu.Lock()
	defer e.flagMu.Unlock()
	ids := make([]string, 0, len(e.flagged))
	for id := range e.flagged {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func buildSummary(lobbyID string, r *round) domain.RoundSummary {
	summary := domain.RoundSummary{
		LobbyID:          lobbyID,
		Question:         r.question.RevealView(),
		Reason:           r.reason,
		StartedAt:        r.startedAt,
		EndedAt:          r.endedAt,
		TotalSubmissions: len(r.subs),
	}

	var correct []*submission
	for _, sub := range r.subs {
		if sub.entry.Correct {
			correct = append(correct, sub)
		}
	}
	sort.Slice(correct, func(i, j int) bool {
		if !correct[i].entry.SubmittedAt.Equal(correct[j].entry.SubmittedAt) {
			return correct[i].entry.SubmittedAt.Before(correct[j].entry.SubmittedAt)
		}
		// Arrival order breaks timestamp ties.
		return correct[i].seq < correct[j].seq
	})
	summary.CorrectResponders = make([]domain.Responder, 0, len(correct))
	for _, sub := range correct {
		summary.CorrectResponders = append(summary.CorrectResponders, domain.Responder{
			PlayerID:  sub.entry.PlayerID,
			Matched:   sub.entry.Matched,
			ElapsedMs: sub.entry.SubmittedAt.Sub(r.startedAt).Milliseconds(),
		})
	}
	summary.CorrectCount = len(correct)

	switch r.question.Kind {
	case domain.KindMultipleChoice, domain.KindTrueFalse:
		dist := make(map[string]int)
		for _, sub := range r.subs {
			if sub.entry.ChoiceID != "" {
				dist[sub.entry.ChoiceID]++
			}
		}
		summary.ChoiceDistribution = dist
	}
	return summary
}
