// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

package recommend

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/rs/zerolog"
)

// SimilarityEngine builds and serves the pairwise cosine-similarity
// matrix over the movie corpus's bag-of-words text.
//
// The matrix build is O(M^2 * V) and is performed once; after Build
// returns, the engine is read-only and safe for concurrent use. The
// matrix is indexed by corpus row position, with an index<->movieID
// mapping maintained alongside it.
type SimilarityEngine struct {
	logger zerolog.Logger

	mu    sync.RWMutex
	built bool

	// ids holds movie IDs in corpus order; index maps movieID to row.
	ids    []int
	index  map[int]int
	matrix [][]float64
}

var _ NearestNeighborSearcher = (*SimilarityEngine)(nil)

// NewSimilarityEngine creates an unbuilt similarity engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSimilarityEngine(logger zerolog.Logger) *SimilarityEngine {
	return &SimilarityEngine{
		logger: logger.With().Str("component", "similarity").Logger(),
		index:  make(map[int]int),
	}
}

// Build tokenizes each movie's bag-of-words into a term-frequency vector
// (excluding English stop words) and computes the full pairwise cosine-
// similarity matrix. The matrix is symmetric with a unit diagonal and
// entries in [0, 1] for the non-negative term vectors.
//
// Build is synchronous and must complete before any content-based lookup
// is served. Duplicate movie IDs in the corpus keep the first row.
//
//nolint:gocritic // rangeValCopy: Movie passed by value in range, acceptable for clarity
func (s *SimilarityEngine) Build(movies []Movie) error {
	ids := make([]int, 0, len(movies))
	index := make(map[int]int, len(movies))
	vectors := make([]map[string]float64, 0, len(movies))

	for _, m := range movies {
		if _, seen := index[m.ID]; seen {
			s.logger.Warn().Int("movie_id", m.ID).Msg("duplicate movie in corpus, keeping first")
			continue
		}
		index[m.ID] = len(ids)
		ids = append(ids, m.ID)
		vectors = append(vectors, termFrequencies(m.BagOfWords))
	}

	norms := make([]float64, len(vectors))
	for i, v := range vectors {
		norms[i] = vectorNorm(v)
	}

	matrix := make([][]float64, len(vectors))
	for i := range matrix {
		matrix[i] = make([]float64, len(vectors))
		matrix[i][i] = 1.0
	}

	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			sim := cosineSimilarity(vectors[i], vectors[j], norms[i], norms[j])
			matrix[i][j] = sim
			matrix[j][i] = sim
		}
	}

	s.mu.Lock()
	s.ids = ids
	s.index = index
	s.matrix = matrix
	s.built = true
	s.mu.Unlock()

	s.logger.Info().
		Int("movies", len(ids)).
		Msg("similarity matrix built")

	return nil
}

// Built reports whether the similarity matrix has been built.
func (s *SimilarityEngine) Built() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.built
}

// Size returns the number of movies in the built corpus.
func (s *SimilarityEngine) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Contains reports whether the movie exists in the built corpus.
func (s *SimilarityEngine) Contains(movieID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[movieID]
	return ok
}

// Similarity returns the cosine similarity between two movies, and
// whether both movies exist in the corpus.
func (s *SimilarityEngine) Similarity(a, b int) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, okA := s.index[a]
	j, okB := s.index[b]
	if !okA || !okB {
		return 0, false
	}
	return s.matrix[i][j], true
}

// TopKSimilar returns up to k movie IDs most similar to the given movie,
// in descending-similarity order, excluding the movie itself. Ties are
// broken by original corpus order (stable sort).
//
// If the movie is absent from the corpus, an empty list is returned and
// the condition is logged; a single unknown movie never fails a pipeline.
func (s *SimilarityEngine) TopKSimilar(movieID, k int) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.built || k <= 0 {
		return nil
	}

	row, ok := s.index[movieID]
	if !ok {
		s.logger.Warn().Int("movie_id", movieID).Msg("movie not found in similarity corpus")
		return nil
	}

	order := make([]int, 0, len(s.ids)-1)
	for i := range s.ids {
		if i != row {
			order = append(order, i)
		}
	}

	sims := s.matrix[row]
	sort.SliceStable(order, func(a, b int) bool {
		return sims[order[a]] > sims[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}

	result := make([]int, k)
	for i := 0; i < k; i++ {
		result[i] = s.ids[order[i]]
	}
	return result
}

// ContentBasedRating estimates a rating for (userID, movieID) by
// averaging the collaborative predictor's estimates over the k movies
// most similar to the target.
//
// Returns ErrUnknownMovie if the target is absent from the corpus. A
// known movie with no neighbors (corpus of one) yields zero.
func (s *SimilarityEngine) ContentBasedRating(p Predictor, userID, movieID, k int) (float64, error) {
	if p == nil {
		return 0, ErrModelUnavailable
	}
	if !s.Built() {
		return 0, ErrNotInitialized
	}
	if !s.Contains(movieID) {
		return 0, ErrUnknownMovie
	}

	neighbors := s.TopKSimilar(movieID, k)
	if len(neighbors) == 0 {
		return 0, nil
	}

	var sum float64
	for _, id := range neighbors {
		sum += p.Predict(userID, id)
	}
	return sum / float64(len(neighbors)), nil
}

// termFrequencies tokenizes bag-of-words text into a sparse term-count
// vector. Tokens are lowercased, split on non-alphanumeric runes, must be
// at least two runes long, and must not be stop words.
func termFrequencies(text string) map[string]float64 {
	tf := make(map[string]float64)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, tok := range tokens {
		if len([]rune(tok)) < 2 {
			continue
		}
		if isStopWord(tok) {
			continue
		}
		tf[tok]++
	}

	return tf
}

// vectorNorm returns the Euclidean norm of a sparse vector.
func vectorNorm(v map[string]float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// cosineSimilarity computes the cosine similarity of two sparse term
// vectors with precomputed norms. Iterates the smaller vector.
func cosineSimilarity(a, b map[string]float64, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}

	if len(b) < len(a) {
		a, b = b, a
	}

	var dot float64
	for term, x := range a {
		if y, ok := b[term]; ok {
			dot += x * y
		}
	}

	return dot / (normA * normB)
}
