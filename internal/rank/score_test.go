package rank

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"scaled", []float64{1, 2}, []float64{2, 4}, 1},
		{"both empty", nil, nil, 0},
		{"one empty", []float64{1, 2}, nil, 0},
		{"zero norm", []float64{0, 0}, []float64{1, 2}, 0},
		// shorter vector defines the comparison window
		{"prefix full match", []float64{1, 2}, []float64{1, 2, 3}, 1},
		{"prefix zero norm", []float64{0, 0, 5}, []float64{1, 2}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CosineSimilarity(tc.a, tc.b)
			if !almostEqual(got, tc.want) {
				t.Fatalf("CosineSimilarity(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestCosineSimilaritySymmetryAndBounds(t *testing.T) {
	a := []float64{0.3, -0.2, 0.9, 0.1}
	b := []float64{-0.5, 0.4, 0.2, 0.8}

	ab := CosineSimilarity(a, b)
	ba := CosineSimilarity(b, a)
	if !almostEqual(ab, ba) {
		t.Fatalf("not symmetric: %v vs %v", ab, ba)
	}
	if ab < -1-1e-9 || ab > 1+1e-9 {
		t.Fatalf("out of bounds: %v", ab)
	}
}

func TestTitleMatchScore(t *testing.T) {
	tests := []struct {
		name      string
		jobTitle  string
		userTitle string
		want      float64
	}{
		{"exact", "Backend Developer", "Backend Developer", 1.0},
		{"contained whole word", "Senior Backend Developer (Remote)", "Backend Developer", 1.0},
		{"case insensitive", "BACKEND DEVELOPER", "backend developer", 1.0},
		{"no match", "Accountant", "Backend Developer", 0.5},
		{"substring not whole word", "Developerify Inc role", "Developer", 0.5},
		{"empty user title", "Backend Developer", "", 0.5},
		{"regex metacharacters", "C++ Developer", "C++", 0.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := TitleMatchScore(tc.jobTitle, tc.userTitle)
			if got != tc.want {
				t.Fatalf("TitleMatchScore(%q, %q) = %v, want %v", tc.jobTitle, tc.userTitle, got, tc.want)
			}
		})
	}
}

func TestFinalScoreBlend(t *testing.T) {
	if got := finalScore(1, 1); !almostEqual(got, 1) {
		t.Fatalf("perfect score = %v", got)
	}
	if got := finalScore(0.8, 0.5); !almostEqual(got, 0.7*0.8+0.3*0.5) {
		t.Fatalf("blend = %v", got)
	}
	// similarity dominates: a similar job without a title match beats a
	// dissimilar one with it
	withMatch := finalScore(0.2, 1.0)
	withoutMatch := finalScore(0.9, 0.5)
	if withoutMatch <= withMatch {
		t.Fatalf("similarity should dominate: %v vs %v", withoutMatch, withMatch)
	}
}
