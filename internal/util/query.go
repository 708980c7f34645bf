package util

import (
	"regexp"
	"strings"
)

var queryTokenPattern = regexp.MustCompile(`[A-Za-zА-Яа-яЁё0-9]{3,}`)

var queryStopwords = map[string]struct{}{
	"и": {}, "или": {}, "на": {}, "в": {}, "во": {}, "с": {}, "со": {}, "к": {}, "по": {}, "про": {},
	"для": {}, "что": {}, "как": {}, "мне": {}, "мой": {}, "моя": {}, "мои": {}, "наши": {},
	"лучшие": {}, "лучших": {}, "фильмы": {}, "фильмов": {}, "фильм": {}, "сериалы": {}, "сериал": {}, "топ": {},
	"recommend": {}, "movie": {}, "movies": {}, "best": {}, "about": {}, "please": {}, "new": {},
}

// querySynonyms maps a stem to semantic hints. A query token hits a cluster when
// it contains the stem ("выживание" hits "выжив").
var querySynonyms = []struct {
	stem     string
	synonyms []string
}{
	{"island", []string{"insular"}},
	{"survival", []string{"survive", "survivor"}},
	{"остров", []string{"island", "insular"}},
	{"выжив", []string{"survival", "survive", "survivor"}},
	{"космос", []string{"space", "spaceship", "astronaut"}},
	{"зомби", []string{"zombie", "undead"}},
}

// QueryTerms extracts up to maxTerms distinct 3+ character words from a free-text
// query, skipping stopwords, in order of appearance.
func QueryTerms(query string, maxTerms int) []string {
	tokens := queryTokenPattern.FindAllString(Lower(query), -1)
	terms := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if maxTerms > 0 && len(terms) >= maxTerms {
			break
		}
		if _, stop := queryStopwords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		terms = append(terms, token)
	}
	return terms
}

// ExpandSynonyms returns terms plus every synonym hint of the clusters they hit.
func ExpandSynonyms(terms []string) []string {
	expanded := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	add := func(term string) {
		if _, ok := seen[term]; ok {
			return
		}
		seen[term] = struct{}{}
		expanded = append(expanded, term)
	}
	for _, term := range terms {
		add(term)
	}
	for _, term := range terms {
		for _, cluster := range querySynonyms {
			if matchesStem(term, cluster.stem) {
				for _, synonym := range cluster.synonyms {
					add(synonym)
				}
			}
		}
	}
	return expanded
}

func matchesStem(token, stem string) bool {
	return strings.Contains(token, stem)
}
