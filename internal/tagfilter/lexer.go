package tagfilter

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenTag tokenKind = iota
	tokenStar
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
	tokenEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func isTagRune(r rune) bool {
	return r == '_' || r == ':' || r == '-' ||
		('0' <= r && r <= '9') ||
		('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

// tokenize splits a filter expression into tokens. Tags match
// [a-zA-Z0-9_:-]+ and are case-folded to lowercase.
func tokenize(expr string) ([]token, error) {
	var tokens []token
	runes := []rune(expr)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '&':
			tokens = append(tokens, token{kind: tokenAnd, text: "&", pos: i})
			i++
		case r == '|':
			tokens = append(tokens, token{kind: tokenOr, text: "|", pos: i})
			i++
		case r == '!':
			tokens = append(tokens, token{kind: tokenNot, text: "!", pos: i})
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokenLParen, text: "(", pos: i})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokenRParen, text: ")", pos: i})
			i++
		case r == '*':
			tokens = append(tokens, token{kind: tokenStar, text: "*", pos: i})
			i++
		case isTagRune(r):
			start := i
			for i < len(runes) && isTagRune(runes[i]) {
				i++
			}
			tag := strings.ToLower(string(runes[start:i]))
			tokens = append(tokens, token{kind: tokenTag, text: tag, pos: start})
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", r, i)
		}
	}
	tokens = append(tokens, token{kind: tokenEOF, pos: len(runes)})
	return tokens, nil
}
