package rules

import (
	"math"
	"strconv"

	"trivia-round-service/internal/domain"
)

// Input is a submitted value in transport-neutral form. Value carries text,
// choice IDs, and numeric literals; Items carries ordered-list submissions;
// Found carries the display forms a multi-entry player has already been
// credited with.
type Input struct {
	Value string
	Items []string
	Found []string
}

// Band describes how close a numeric guess landed. It feeds scoring and
// display, never pass/fail.
type Band string

const (
	BandExact Band = "exact"
	BandClose Band = "close"
	BandNear  Band = "near"
	BandFar   Band = "far"
)

// Evaluation is the outcome of checking one submission against a question.
type Evaluation struct {
	// Valid is false when the input has the wrong shape for the kind
	// (empty text, unknown choice ID, unparsable number).
	Valid   bool
	Correct bool
	// Matched is the canonical display form or choice ID that matched.
	Matched string
	// Duplicate marks a multi-entry guess that had already been credited.
	Duplicate bool
	// Band is set for numeric questions only.
	Band Band
	// ExactCount is the number of exactly-placed ordered-list positions.
	ExactCount int
}

// Evaluate is the pure, type-dispatched correctness check. Unknown kinds are
// evaluated as free-text, matching the registry fallback.
func Evaluate(q domain.Question, in Input) Evaluation {
	switch q.Kind {
	case domain.KindMultipleChoice, domain.KindTrueFalse:
		return evaluateChoice(q, in.Value)
	case domain.KindNumeric:
		return evaluateNumeric(q, in.Value)
	case domain.KindMultiEntry:
		return evaluateMultiEntry(q, in.Value, in.Found)
	case domain.KindOrderedList:
		return evaluateOrdered(q, in.Items)
	case domain.KindFreeText:
		return evaluateText(q, in.Value)
	default:
		return evaluateText(q, in.Value)
	}
}

func evaluateText(q domain.Question, value string) Evaluation {
	norm := Normalize(value, q.Strictness == domain.StrictnessStrict)
	if norm == "" {
		return Evaluation{}
	}
	if display, ok := q.AliasIndex[norm]; ok {
		return Evaluation{Valid: true, Correct: true, Matched: display}
	}
	return Evaluation{Valid: true}
}

func evaluateChoice(q domain.Question, choiceID string) Evaluation {
	for _, c := range q.Choices {
		if c.ID != choiceID {
			continue
		}
		ev := Evaluation{Valid: true, Correct: c.Correct}
		if c.Correct {
			ev.Matched = c.ID
		}
		return ev
	}
	return Evaluation{}
}

func evaluateNumeric(q domain.Question, value string) Evaluation {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || q.Numeric == nil {
		return Evaluation{}
	}
	target := q.Numeric
	diff := math.Abs(v - target.Value)

	tolerance := target.Tolerance
	if tolerance <= 0 {
		tolerance = 1e-9
	}

	ev := Evaluation{Valid: true, Band: BandFar}
	switch {
	case diff <= tolerance:
		ev.Correct = true
		ev.Band = BandExact
		ev.Matched = strconv.FormatFloat(target.Value, 'f', -1, 64)
	case target.CloseWithin > 0 && diff <= target.CloseWithin:
		ev.Band = BandClose
	case target.NearWithin > 0 && diff <= target.NearWithin:
		ev.Band = BandNear
	}
	return ev
}

func evaluateMultiEntry(q domain.Question, value string, found []string) Evaluation {
	norm := Normalize(value, q.Strictness == domain.StrictnessStrict)
	if norm == "" {
		return Evaluation{}
	}
	display, ok := q.AliasIndex[norm]
	if !ok {
		return Evaluation{Valid: true}
	}
	// A found answer leaves the remaining pool; it cannot be credited twice.
	for _, f := range found {
		if f == display {
			return Evaluation{Valid: true, Matched: display, Duplicate: true}
		}
	}
	return Evaluation{Valid: true, Correct: true, Matched: display}
}

func evaluateOrdered(q domain.Question, items []string) Evaluation {
	if len(items) == 0 {
		return Evaluation{}
	}
	ev := Evaluation{Valid: true}
	for i, item := range items {
		if i < len(q.Ordered) && item == q.Ordered[i] {
			ev.ExactCount++
		}
	}
	ev.Correct = ev.ExactCount == len(q.Ordered) && len(items) == len(q.Ordered)
	return ev
}
