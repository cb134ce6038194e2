package rules

import "trivia-round-service/internal/domain"

// InputShape tells the transport what payload a kind expects.
type InputShape string

const (
	InputText     InputShape = "text"
	InputChoice   InputShape = "choice"
	InputNumber   InputShape = "number"
	InputOrdering InputShape = "ordering"
)

// TypeConfig is the per-kind behavior policy. It is the single source of
// truth: no other component hard-codes per-kind behavior.
type TypeConfig struct {
	AllowsRetry        bool
	RevealsOnSubmit    bool
	EndsOnAllCorrect   bool
	EndsOnAllSubmitted bool
	InputShape         InputShape
}

var typeConfigs = map[domain.Kind]TypeConfig{
	domain.KindFreeText: {
		AllowsRetry:      true,
		RevealsOnSubmit:  true,
		EndsOnAllCorrect: true,
		InputShape:       InputText,
	},
	domain.KindMultiEntry: {
		AllowsRetry:      true,
		RevealsOnSubmit:  true,
		EndsOnAllCorrect: true,
		InputShape:       InputText,
	},
	domain.KindMultipleChoice: {
		EndsOnAllSubmitted: true,
		InputShape:         InputChoice,
	},
	domain.KindTrueFalse: {
		EndsOnAllSubmitted: true,
		InputShape:         InputChoice,
	},
	domain.KindNumeric: {
		RevealsOnSubmit:    true,
		EndsOnAllSubmitted: true,
		InputShape:         InputNumber,
	},
	domain.KindOrderedList: {
		RevealsOnSubmit:    true,
		EndsOnAllSubmitted: true,
		InputShape:         InputOrdering,
	},
}

// ConfigFor returns the behavior policy for a kind. Unknown kinds fall back
// to the free-text configuration.
func ConfigFor(kind domain.Kind) TypeConfig {
	if cfg, ok := typeConfigs[kind]; ok {
		return cfg
	}
	return typeConfigs[domain.KindFreeText]
}
