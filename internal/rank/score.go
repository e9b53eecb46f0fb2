package rank

import (
	"math"
	"regexp"
	"strings"
)

// Scoring blend: directional similarity dominates, title match nudges.
const (
	similarityWeight = 0.7
	titleMatchWeight = 0.3

	// Candidates at or below this similarity are discarded outright.
	minSimilarity = 0.1

	// DefaultLimit applies when the caller asks for a non-positive or
	// unparsable number of results.
	DefaultLimit = 10
)

// CosineSimilarity is dot(a,b) / (||a|| * ||b||) over the overlapping
// prefix of the two vectors. Embedding lengths are model-defined and
// may differ between postings, so both the dot product and the norms
// run over n = min(len(a), len(b)). Zero whenever either prefix norm
// is zero.
func CosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TitleMatchScore is 1.0 when the job title contains the user's title
// as a whole word (case-insensitive), 0.5 otherwise.
func TitleMatchScore(jobTitle, userTitle string) float64 {
	userTitle = strings.TrimSpace(userTitle)
	if userTitle == "" {
		return 0.5
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(userTitle) + `\b`)
	if err != nil {
		return 0.5
	}
	if re.MatchString(jobTitle) {
		return 1.0
	}
	return 0.5
}

func finalScore(similarity, titleMatch float64) float64 {
	return similarityWeight*similarity + titleMatchWeight*titleMatch
}
