package search

import (
	"regexp"
	"strings"
)

var reToken = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Token is one lowercased term with its byte span in the source line.
type Token struct {
	Term   string
	Offset int
	Length int
}

// Tokenize splits a line into lowercased word tokens.
func Tokenize(line string) []Token {
	locs := reToken.FindAllStringIndex(line, -1)
	if len(locs) == 0 {
		return nil
	}

	tokens := make([]Token, len(locs))

	for i, loc := range locs {
		tokens[i] = Token{
			Term:   strings.ToLower(line[loc[0]:loc[1]]),
			Offset: loc[0],
			Length: loc[1] - loc[0],
		}
	}

	return tokens
}

// Terms returns the distinct lowercased terms of a query in first-seen order.
func Terms(query string) []string {
	tokens := Tokenize(query)
	seen := make(map[string]struct{}, len(tokens))
	terms := make([]string, 0, len(tokens))

	for _, tok := range tokens {
		if _, ok := seen[tok.Term]; ok {
			continue
		}

		seen[tok.Term] = struct{}{}
		terms = append(terms, tok.Term)
	}

	return terms
}
