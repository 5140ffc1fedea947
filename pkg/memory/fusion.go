package memory

import (
	"math"
	"sort"
)

// cosineSimilarity calculates the cosine similarity between two vectors.
// A length mismatch or a zero-norm vector yields 0.0, never NaN.
func cosineSimilarity(a []float32, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dotProduct / denom
}

// minMaxNormalize rescales values to [0, 1] using the set's own observed
// range. A singleton set, or a set where all values are equal, normalizes
// to all ones so no candidate is arbitrarily penalized.
func minMaxNormalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if len(values) == 1 || max-min < 1e-12 {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}
	span := max - min
	for i, v := range values {
		out[i] = (v - min) / span
	}
	return out
}

// fuseHybrid combines lexical ranks and semantic similarity into one ranking.
//
// Candidates whose embedding dimension does not match the query vector are
// dropped. Both signals are min-max normalized across this query's candidate
// set, lexical ranks after conversion to a higher-is-better 1/(1+rank) value.
// The threshold applies to the combined score. Ties keep candidate insertion
// order (the lexical retrieval order) via the stable sort.
func fuseHybrid(queryVec []float32, cands []*candidate, alpha, threshold float64, limit int) []SearchResult {
	scored := make([]*candidate, 0, len(cands))
	for _, c := range cands {
		if len(c.mem.Embedding) != len(queryVec) {
			continue
		}
		c.sim = cosineSimilarity(queryVec, c.mem.Embedding)
		scored = append(scored, c)
	}
	if len(scored) == 0 {
		return nil
	}

	sims := make([]float64, len(scored))
	lex := make([]float64, len(scored))
	for i, c := range scored {
		sims[i] = c.sim
		lex[i] = 1.0 / (1.0 + c.rank)
	}
	simNorm := minMaxNormalize(sims)
	lexNorm := minMaxNormalize(lex)

	type fused struct {
		cand     *candidate
		combined float64
	}
	results := make([]fused, 0, len(scored))
	for i, c := range scored {
		combined := alpha*simNorm[i] + (1.0-alpha)*lexNorm[i]
		if combined < threshold {
			continue
		}
		results = append(results, fused{cand: c, combined: combined})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].combined > results[j].combined
	})

	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		score := r.combined
		out[i] = resultFrom(r.cand.mem, &score)
	}
	return out
}

// rankSemantic scores every record by raw cosine similarity against the
// query vector. The threshold applies to the raw similarity since it is the
// only signal and acts as an absolute cutoff. Records with a missing or
// mismatched embedding are dropped.
func rankSemantic(queryVec []float32, records []*Memory, threshold float64, limit int) []SearchResult {
	type scored struct {
		mem *Memory
		sim float64
	}
	results := make([]scored, 0, len(records))
	for _, m := range records {
		if len(m.Embedding) != len(queryVec) {
			continue
		}
		sim := cosineSimilarity(queryVec, m.Embedding)
		if sim < threshold {
			continue
		}
		results = append(results, scored{mem: m, sim: sim})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].sim > results[j].sim
	})

	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		score := r.sim
		out[i] = resultFrom(r.mem, &score)
	}
	return out
}
