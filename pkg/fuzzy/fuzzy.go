package fuzzy

import "strings"

// Levenshtein calculates the edit distance between two strings: the number of
// single-character insertions, deletions, or substitutions needed to turn one
// into the other.
func Levenshtein(s1, s2 string) int {
	s1 = normalize(s1)
	s2 = normalize(s2)

	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)

	// Two-row variant keeps memory linear in the shorter string.
	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}

// Threshold picks a typo tolerance appropriate for the query length.
func Threshold(query string) int {
	switch {
	case len(query) <= 3:
		return 1
	case len(query) >= 8:
		return 3
	default:
		return 2
	}
}

// Match reports whether query fuzzy-matches text: as a substring, as a prefix
// of any word, or within threshold edits of any word.
func Match(query, text string, threshold int) bool {
	query = normalize(query)
	text = normalize(text)

	if query == "" || text == "" {
		return false
	}
	if strings.Contains(text, query) {
		return true
	}

	for _, word := range strings.Fields(text) {
		if strings.HasPrefix(word, query) {
			return true
		}
		if Levenshtein(query, word) <= threshold {
			return true
		}
	}

	return false
}

// MatchEmail reports whether an email matches the query on subject, sender
// address, sender name, or the start of the body.
func MatchEmail(query, subject, sender, senderName, body string) bool {
	threshold := Threshold(query)

	if Match(query, subject, threshold) ||
		Match(query, senderName, threshold) ||
		Match(query, sender, threshold) {
		return true
	}

	// Bodies can be huge; only the opening matters for relevance.
	if len(body) > 500 {
		body = body[:500]
	}
	return Match(query, body, threshold)
}

// field weights for relevance scoring
const (
	subjectContains = 100.0
	subjectWord     = 50.0
	nameContains    = 80.0
	nameWord        = 30.0
	senderContains  = 60.0
	senderPrefix    = 30.0
)

// Score rates how relevant an email is to a query across subject, sender name
// and sender address. Higher is more relevant; zero means no match.
func Score(query, subject, sender, senderName string) float64 {
	query = normalize(query)
	if query == "" {
		return 0
	}

	score := fieldScore(query, subject, subjectContains, subjectWord, 50.0, 15, 40.0)
	score += fieldScore(query, senderName, nameContains, nameWord, 40.0, 12, 35.0)

	senderNorm := normalize(sender)
	if strings.Contains(senderNorm, query) {
		score += senderContains
	} else {
		local := senderNorm
		if idx := strings.Index(senderNorm, "@"); idx > 0 {
			local = senderNorm[:idx]
		}
		if strings.HasPrefix(local, query) {
			score += senderPrefix
		}
	}

	return score
}

// fieldScore applies the containment / whole-word / fuzzy-per-word cascade to
// one text field.
func fieldScore(query, text string, containsWeight, wordBonus, fuzzyBase float64, fuzzyPenalty int, prefixWeight float64) float64 {
	norm := normalize(text)
	if norm == "" {
		return 0
	}

	if strings.Contains(norm, query) {
		score := containsWeight
		if containsWord(norm, query) {
			score += wordBonus
		}
		return score
	}

	score := 0.0
	for _, word := range strings.Fields(norm) {
		if dist := Levenshtein(query, word); dist <= 2 {
			score += fuzzyBase - float64(dist*fuzzyPenalty)
		}
		if strings.HasPrefix(word, query) {
			score += prefixWeight
		}
	}
	return score
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func containsWord(text, query string) bool {
	for _, word := range strings.Fields(text) {
		if word == query {
			return true
		}
	}
	return false
}
