// Package match filters canonical notices against the configured search
// criteria.
package match

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"licitahunter/internal/notice"
)

// Criteria is the immutable filter set for one run.
type Criteria struct {
	// Keywords is required; the first keyword (in declaration order) found
	// in a notice is recorded on the result.
	Keywords []string
	// MinValue/MaxValue bound the estimated value, inclusive, when set.
	// A notice without a value cannot be excluded by the bounds.
	MinValue *float64
	MaxValue *float64
	// Modalidades restricts the modality codes when non-empty.
	Modalidades []int
	// OrganCNPJPrefixes and OrganTerms narrow results to specific publishing
	// organs (e.g. one state) when either is non-empty. A CNPJ prefix hit or
	// a term hit is enough. Terms are matched as whole words, and against the
	// UF sigla by equality, so a short sigla like "pr" cannot hit inside
	// "prefeitura".
	OrganCNPJPrefixes []string
	OrganTerms        []string
}

// Result pairs a matched notice with the keyword that selected it, so the
// digest can explain why the notice is there.
type Result struct {
	Notice  notice.Notice
	Keyword string
}

// Match returns the notices satisfying every configured criterion,
// preserving input order.
func Match(notices []notice.Notice, c Criteria) []Result {
	var results []Result
	for _, n := range notices {
		kw, ok := matchKeyword(n, c.Keywords)
		if !ok {
			continue
		}
		if !matchValue(n.EstimatedValue, c.MinValue, c.MaxValue) {
			continue
		}
		if !matchModalidade(n.Modalidade, c.Modalidades) {
			continue
		}
		if !matchOrgan(n, c) {
			continue
		}
		results = append(results, Result{Notice: n, Keyword: kw})
	}
	return results
}

// matchKeyword looks for a keyword in the object description only. Organ
// text is the organ filter's concern; a hit there says nothing about what
// is being procured.
func matchKeyword(n notice.Notice, keywords []string) (string, bool) {
	haystack := strings.ToLower(n.Object)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}

func matchValue(value, min, max *float64) bool {
	if value == nil {
		return true
	}
	if min != nil && *value < *min {
		return false
	}
	if max != nil && *value > *max {
		return false
	}
	return true
}

func matchModalidade(code int, allowed []int) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == code {
			return true
		}
	}
	return false
}

func matchOrgan(n notice.Notice, c Criteria) bool {
	if len(c.OrganCNPJPrefixes) == 0 && len(c.OrganTerms) == 0 {
		return true
	}
	for _, prefix := range c.OrganCNPJPrefixes {
		if prefix != "" && strings.HasPrefix(n.OrganCNPJ, prefix) {
			return true
		}
	}
	haystack := strings.ToLower(strings.Join([]string{n.Organ, n.Municipality, n.Object}, " "))
	for _, term := range c.OrganTerms {
		if term == "" {
			continue
		}
		if strings.EqualFold(term, n.UF) {
			return true
		}
		if containsWord(haystack, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// containsWord reports whether term occurs in s delimited by non-letter,
// non-digit runes.
func containsWord(s, term string) bool {
	for start := 0; ; {
		idx := strings.Index(s[start:], term)
		if idx < 0 {
			return false
		}
		begin := start + idx
		end := begin + len(term)
		if wordBoundary(s, begin, end) {
			return true
		}
		start = begin + 1
	}
}

func wordBoundary(s string, begin, end int) bool {
	if begin > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:begin])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
