package memory

import "context"

// gatherLexical runs the lexical half of the retrieval ladder and resolves
// matches against the store:
//
//  1. BM25 ranked search, capped at MaxCandidates.
//  2. Substring match, only when step 1 returned zero raw matches. Each hit
//     gets the best-possible synthetic rank 0 so the fallback path is not
//     penalized during fusion.
//
// Filters are applied after resolution so their semantics never depend on
// which step produced the candidates. An empty return tells the caller to
// fall through to the full semantic scan.
func (s *Service) gatherLexical(ctx context.Context, query string, f Filters, limit int) ([]*candidate, error) {
	matches := s.index.SearchRanked(query, f.Project, limit)
	if len(matches) == 0 {
		for _, id := range s.index.SearchSubstring(query, f.Project, limit) {
			matches = append(matches, RankedMatch{ID: id, Rank: 0.0})
		}
	}

	cands := make([]*candidate, 0, len(matches))
	for _, match := range matches {
		m, err := s.store.GetByID(ctx, match.ID)
		if err != nil {
			return nil, err
		}
		// The index can briefly lead the store; skip ids it cannot resolve.
		if m == nil || m.Archived {
			continue
		}
		if !f.Match(m) {
			continue
		}
		cands = append(cands, &candidate{mem: m, rank: match.Rank})
	}
	return cands, nil
}

// semanticWorkingSet loads the filtered non-archived corpus for a full
// semantic scan, capped at MaxScanLimit.
func (s *Service) semanticWorkingSet(ctx context.Context, f Filters) ([]*Memory, error) {
	return s.store.List(ctx, f, s.cfg.MaxScanLimit, 0)
}
