package domain

import (
	"sort"
	"time"
)

// Kind is the fixed category of a question. It determines the input shape,
// the evaluation rule, and the round-end policy.
type Kind string

const (
	KindFreeText       Kind = "free-text"
	KindMultipleChoice Kind = "multiple-choice"
	KindTrueFalse      Kind = "true-false"
	KindMultiEntry     Kind = "multi-entry"
	KindNumeric        Kind = "numeric"
	KindOrderedList    Kind = "ordered-list"
)

// Kinds lists every question kind.
func Kinds() []Kind {
	return []Kind{
		KindFreeText,
		KindMultiEntry,
		KindMultipleChoice,
		KindOrderedList,
		KindTrueFalse,
		KindNumeric,
	}
}

// Strictness selects how aggressively free-text input is normalized before
// alias lookup. Alias keys are normalized with the same setting at load time.
type Strictness string

const (
	// StrictnessLenient trims whitespace and case-folds.
	StrictnessLenient Strictness = "lenient"
	// StrictnessStrict additionally strips punctuation and collapses spaces.
	StrictnessStrict Strictness = "strict"
)

// Content is the media block shown with a question.
type Content struct {
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	AudioURL string `json:"audioUrl,omitempty"`
}

// Answer is one canonical answer with its accepted alternate spellings.
type Answer struct {
	Display string   `json:"display"`
	Aliases []string `json:"aliases,omitempty"`
}

// Choice is a selectable option for choice-based kinds. True/false questions
// use the fixed choice IDs "true" and "false".
type Choice struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// NumericSpec holds the target value plus the band boundaries used for
// proximity display. Tolerance bounds exact correctness; CloseWithin and
// NearWithin bound the wider bands.
type NumericSpec struct {
	Value       float64 `json:"value"`
	Tolerance   float64 `json:"tolerance,omitempty"`
	CloseWithin float64 `json:"closeWithin,omitempty"`
	NearWithin  float64 `json:"nearWithin,omitempty"`
}

// Question is a fully instantiated catalog record. It is immutable once
// loaded; AliasIndex is derived at catalog build time and maps normalized
// alias strings to canonical display forms.
type Question struct {
	ID         string       `json:"id"`
	Kind       Kind         `json:"kind"`
	Title      string       `json:"title"`
	Content    Content      `json:"content"`
	Tags       []string     `json:"tags,omitempty"`
	Strictness Strictness   `json:"strictness,omitempty"`
	Answers    []Answer     `json:"answers,omitempty"`
	Choices    []Choice     `json:"choices,omitempty"`
	Numeric    *NumericSpec `json:"numeric,omitempty"`
	Ordered    []string     `json:"ordered,omitempty"`

	AliasIndex map[string]string `json:"-"`
}

// ClientChoice is a choice with the correctness flag stripped.
type ClientChoice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ClientQuestion is the projection broadcast when a round starts. It must
// never carry correctness data.
type ClientQuestion struct {
	ID      string         `json:"id"`
	Kind    Kind           `json:"kind"`
	Title   string         `json:"title"`
	Content Content        `json:"content"`
	Choices []ClientChoice `json:"choices,omitempty"`
	// Items carries ordered-list entries sorted alphabetically so clients
	// can present them without learning the canonical order.
	Items []string `json:"items,omitempty"`
}

// RevealQuestion is the projection broadcast after a round ends. It includes
// the correctness data ClientQuestion withholds.
type RevealQuestion struct {
	ID      string       `json:"id"`
	Kind    Kind         `json:"kind"`
	Title   string       `json:"title"`
	Content Content      `json:"content"`
	Answers []Answer     `json:"answers,omitempty"`
	Choices []Choice     `json:"choices,omitempty"`
	Numeric *NumericSpec `json:"numeric,omitempty"`
	Ordered []string     `json:"ordered,omitempty"`
}

// ClientView strips correctness data for the round-start broadcast.
func (q Question) ClientView() ClientQuestion {
	view := ClientQuestion{
		ID:      q.ID,
		Kind:    q.Kind,
		Title:   q.Title,
		Content: q.Content,
	}
	for _, c := range q.Choices {
		view.Choices = append(view.Choices, ClientChoice{ID: c.ID, Text: c.Text})
	}
	view.Items = append(view.Items, q.Ordered...)
	sort.Strings(view.Items)
	return view
}

// RevealView exposes the full correctness data for the post-round broadcast.
func (q Question) RevealView() RevealQuestion {
	return RevealQuestion{
		ID:      q.ID,
		Kind:    q.Kind,
		Title:   q.Title,
		Content: q.Content,
		Answers: q.Answers,
		Choices: q.Choices,
		Numeric: q.Numeric,
		Ordered: q.Ordered,
	}
}

// RoundPayload is what the transport broadcasts when a round starts.
type RoundPayload struct {
	LobbyID    string         `json:"lobbyId"`
	Question   ClientQuestion `json:"question"`
	StartedAt  time.Time      `json:"startedAt"`
	DurationMs int64          `json:"durationMs"`
	EndsAt     time.Time      `json:"endsAt"`
}

// SubmitStatus is the typed outcome of a submission attempt.
type SubmitStatus string

const (
	StatusCorrect          SubmitStatus = "correct"
	StatusIncorrect        SubmitStatus = "incorrect"
	StatusSubmitted        SubmitStatus = "submitted"
	StatusAlreadyCorrect   SubmitStatus = "already-correct"
	StatusAlreadySubmitted SubmitStatus = "already-submitted"
	StatusInvalidInput     SubmitStatus = "invalid-input"
	StatusNoRound          SubmitStatus = "no-round"
	StatusRoundEnded       SubmitStatus = "round-ended"
)

// SubmissionEntry is the recorded state of one player's answer, as exposed
// to the transport after a submit.
type SubmissionEntry struct {
	PlayerID    string    `json:"playerId"`
	Value       string    `json:"value,omitempty"`
	ChoiceID    string    `json:"choiceId,omitempty"`
	Correct     bool      `json:"correct"`
	Matched     string    `json:"matched,omitempty"`
	Found       []string  `json:"found,omitempty"`
	// Duplicate marks a multi-entry guess that re-hit an answer the player
	// had already been credited with.
	Duplicate   bool      `json:"duplicate,omitempty"`
	Band        string    `json:"band,omitempty"`
	ExactCount  int       `json:"exactCount,omitempty"`
	Attempts    int       `json:"attempts"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// SubmitResult pairs a status with the entry it refers to (nil for protocol
// statuses like no-round).
type SubmitResult struct {
	Status SubmitStatus     `json:"status"`
	Entry  *SubmissionEntry `json:"entry,omitempty"`
}

// EndReason records why a round ended.
type EndReason string

const (
	EndAllCorrect   EndReason = "all-correct"
	EndAllSubmitted EndReason = "all-submitted"
	EndTimer        EndReason = "timer"
)

// Responder is one correct answer in the summary, ordered by submission time.
type Responder struct {
	PlayerID  string `json:"playerId"`
	Matched   string `json:"matched,omitempty"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// RoundSummary is computed once at finalization and never mutated.
type RoundSummary struct {
	LobbyID            string         `json:"lobbyId"`
	Question           RevealQuestion `json:"question"`
	Reason             EndReason      `json:"reason"`
	StartedAt          time.Time      `json:"startedAt"`
	EndedAt            time.Time      `json:"endedAt"`
	CorrectResponders  []Responder    `json:"correctResponders"`
	CorrectCount       int            `json:"correctCount"`
	TotalSubmissions   int            `json:"totalSubmissions"`
	ChoiceDistribution map[string]int `json:"choiceDistribution,omitempty"`
}
