// Package heuristic carries the lightweight fallback scorers that predate
// the tree ensemble: a logistic model over URL features and a page-content
// rule set. They answer instantly and need no model artifact, so the online
// service can still produce a verdict before the forest is loaded.
package heuristic

import (
	"math"

	"github.com/hazyhaar/phishsense/feature"
)

// Trained logistic-regression weights over standardised URL features.
var urlWeights = map[string]float64{
	"url_length":          6.0156,
	"dot_count":           1.8407,
	"special_char_count":  0.9769,
	"entropy":             -2.8668,
	"suspicious_keywords": 0.9430,
}

const (
	urlBias      = -1.6438
	urlThreshold = 0.374
)

// URLScore applies the logistic URL model to v and returns the phishing
// probability and the thresholded verdict. Features the model does not
// weight are ignored; a weighted feature missing from v contributes zero.
func URLScore(v feature.Vector) (probability float64, suspicious bool) {
	z := urlBias
	for name, w := range urlWeights {
		z += w * v[name]
	}
	p := 1 / (1 + math.Exp(-z))
	return p, p > urlThreshold
}

// PageSnapshot carries the content signals read from a rendered page.
type PageSnapshot struct {
	HTMLLength     int
	InsecureForms  int // forms without action or posting to plain http
	ExternalImages int // images loaded from a different hostname
}

const (
	shortHTMLBytes    = 7500
	fewExternalImages = 5
	contentRuleWeight = 0.35
)

// ContentScore scores a rendered page: very short markup, insecure form
// targets and few external images each add 0.35, capped at 1.0. Phishing
// kits tend to be small single-page clones posting credentials over plain
// HTTP with assets copied inline.
func ContentScore(s PageSnapshot) float64 {
	score := 0.0
	if s.HTMLLength < shortHTMLBytes {
		score += contentRuleWeight
	}
	if s.InsecureForms > 0 {
		score += contentRuleWeight
	}
	if s.ExternalImages <= fewExternalImages {
		score += contentRuleWeight
	}
	return math.Min(score, 1)
}
