package search

import (
	"context"
	"log"
	"sort"

	"golang.org/x/sync/errgroup"
)

const (
	// VectorWeight and LexicalWeight combine the two retrieval legs into the
	// fused score.
	VectorWeight  = 0.7
	LexicalWeight = 0.3

	// Relaxation ladder steps applied when a search comes back empty.
	RelaxedThresholdMid   = 0.5
	RelaxedThresholdFloor = 0.3

	// candidateMultiplier widens each leg before fusion.
	candidateMultiplier = 2

	// DefaultLimit caps results when the caller passes none.
	DefaultLimit = 10

	// DefaultVectorThreshold is the score floor for pure-vector search.
	DefaultVectorThreshold = 0.5
)

// Engine ranks corpus entries by a fused vector+lexical score. A store
// failure degrades to an empty result list rather than propagating; losing
// retrieval context is preferable to failing the conversation.
type Engine struct {
	store CorpusStore
}

// NewEngine creates an Engine over the given corpus store.
func NewEngine(store CorpusStore) *Engine {
	return &Engine{store: store}
}

// Search runs a hybrid search at the given threshold, walking the relaxation
// ladder (threshold, 0.5, 0.3) while results are empty. Empty after the floor
// is a valid terminal outcome.
func (e *Engine) Search(ctx context.Context, embedding []float32, query string, limit int, threshold float64) []Result {
	if limit <= 0 {
		limit = DefaultLimit
	}

	for _, t := range relaxationLadder(threshold) {
		results, err := e.searchOnce(ctx, embedding, query, limit, t)
		if err != nil {
			log.Printf("hybrid search failed (returning empty results): %v", err)
			return []Result{}
		}
		if len(results) > 0 {
			return results
		}
	}
	return []Result{}
}

// SearchVector runs pure-vector search with the same relaxation ladder, for
// deployments where no lexical index is available.
func (e *Engine) SearchVector(ctx context.Context, embedding []float32, limit int, threshold float64) []Result {
	if limit <= 0 {
		limit = DefaultLimit
	}

	for _, t := range relaxationLadder(threshold) {
		hits, err := e.store.SearchSemantic(ctx, embedding, limit*candidateMultiplier)
		if err != nil {
			log.Printf("vector search failed (returning empty results): %v", err)
			return []Result{}
		}

		results := make([]Result, 0, len(hits))
		for _, h := range hits {
			if h.Score <= t {
				continue
			}
			results = append(results, Result{
				Text:        h.Text,
				Metadata:    h.Metadata,
				Similarity:  h.Score,
				VectorScore: h.Score,
			})
		}
		sortResults(results)
		if len(results) > limit {
			results = results[:limit]
		}
		if len(results) > 0 {
			return results
		}
	}
	return []Result{}
}

func (e *Engine) searchOnce(ctx context.Context, embedding []float32, query string, limit int, threshold float64) ([]Result, error) {
	candidateLimit := limit * candidateMultiplier

	var semantic, lexical []Hit
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		semantic, err = e.store.SearchSemantic(gctx, embedding, candidateLimit)
		return err
	})
	g.Go(func() error {
		var err error
		lexical, err = e.store.SearchLexical(gctx, query, candidateLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	type candidate struct {
		hit     Hit
		vector  float64
		lexical float64
	}

	// Union both legs; a candidate missing from one leg scores 0 there.
	candidates := make(map[string]*candidate, len(semantic)+len(lexical))
	for _, h := range semantic {
		candidates[h.ID] = &candidate{hit: h, vector: h.Score}
	}
	for _, h := range lexical {
		if c, ok := candidates[h.ID]; ok {
			c.lexical = h.Score
		} else {
			candidates[h.ID] = &candidate{hit: h, lexical: h.Score}
		}
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		fused := VectorWeight*c.vector + LexicalWeight*c.lexical
		// A nonzero lexical rank qualifies on pure keyword match even when
		// the fused score lands under the threshold.
		if fused <= threshold && c.lexical == 0 {
			continue
		}
		results = append(results, Result{
			Text:         c.hit.Text,
			Metadata:     c.hit.Metadata,
			Similarity:   fused,
			VectorScore:  c.vector,
			LexicalScore: c.lexical,
		})
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// relaxationLadder returns the thresholds to try in order: the caller's, then
// 0.5 if the caller's was above it, then 0.3 if the caller's was above that.
func relaxationLadder(threshold float64) []float64 {
	ladder := []float64{threshold}
	if threshold > RelaxedThresholdMid {
		ladder = append(ladder, RelaxedThresholdMid)
	}
	if threshold > RelaxedThresholdFloor {
		ladder = append(ladder, RelaxedThresholdFloor)
	}
	return ladder
}

func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		if results[i].VectorScore != results[j].VectorScore {
			return results[i].VectorScore > results[j].VectorScore
		}
		return results[i].Metadata.ID < results[j].Metadata.ID
	})
}
