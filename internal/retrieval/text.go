package retrieval

import (
	"regexp"
	"strings"
)

// stopwords are generic conversational tokens that would dominate similarity
// if left in the query: pronouns, fillers, time words, and money verbs.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"i", "my", "you", "we", "me", "this", "that", "there", "here", "where", "when", "how", "why", "all", "any", "some", "much", "each",
		"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten", "are", "is", "was", "were",
		"and", "or", "but", "if", "then", "else", "do", "does", "did", "done", "to", "from", "in", "on", "at", "by", "for", "with",
		"as", "be", "up", "down", "out", "over", "under", "again", "further", "once",
		"what", "which", "who", "whom", "these", "those",
		"day", "today", "yesterday", "last", "month", "week", "year", "next", "first", "second", "daily", "monthly", "weekly", "yearly",
		"rupees", "dollars", "amount", "transaction", "transactions", "spent",
		"spend", "pay", "paid", "show", "summarize", "describe", "please", "can", "could", "will", "would", "shall",
	} {
		stopwords[w] = struct{}{}
	}
}

var nonAlpha = regexp.MustCompile(`[^a-z\s]`)

// CleanText lower-cases text and strips everything but letters and spaces.
func CleanText(text string) string {
	return nonAlpha.ReplaceAllString(strings.ToLower(text), "")
}

// RemoveStopwords cleans the text and drops stop words.
func RemoveStopwords(text string) string {
	words := strings.Fields(CleanText(text))
	kept := words[:0]
	for _, w := range words {
		if _, ok := stopwords[w]; !ok {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}
