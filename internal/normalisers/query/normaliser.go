// Package query normalises user queries before they reach the search
// provider and the vector index.
package query

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// KeywordSeparator joins extracted phrases into a provider query.
const KeywordSeparator = " & "

// Characters removed outright (Spanish question and exclamation marks).
var stripped = strings.NewReplacer("¿", "", "?", "", "¡", "", "!", "")

// Sentence punctuation, replaced by a space so adjacent words stay apart.
var sentencePunct = strings.NewReplacer(",", " ", ".", " ")

// Normalize lowercases text, strips question and exclamation marks, folds
// accented letters (including ü and ñ) to their base Latin letter, removes
// commas and periods and collapses whitespace.
func Normalize(text string) string {
	s := strings.ToLower(text)
	s = stripped.Replace(s)
	s = foldAccents(s)
	s = sentencePunct.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// ComposeKeywords orders phrases by their first occurrence in normalized,
// drops duplicates and blanks, and joins them with KeywordSeparator.
// Phrases that do not occur keep their relative order after the ones that do.
// Returns normalized unchanged when no phrase survives.
func ComposeKeywords(normalized string, phrases []string) string {
	type ranked struct {
		phrase string
		pos    int
	}

	seen := make(map[string]bool, len(phrases))
	list := make([]ranked, 0, len(phrases))
	for _, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		pos := strings.Index(normalized, p)
		if pos < 0 {
			pos = len(normalized) + 1
		}
		list = append(list, ranked{phrase: p, pos: pos})
	}

	if len(list) == 0 {
		return normalized
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].pos < list[j].pos
	})

	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.phrase
	}
	return strings.Join(out, KeywordSeparator)
}
