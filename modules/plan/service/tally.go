package service

import (
	"tablepick/modules/plan/entity"
)

// TallyWinner computes the single winning candidate from an approval count:
// each participant contributes one point to every candidate in their vote set.
// Ties break on the higher rating, then on the earlier position in the candidate
// list. The winner is selected by a single ordered scan of candidates, so map
// iteration order never influences the result. Pure; no side effects.
func TallyWinner(candidates []entity.Candidate, votes map[string][]string) *entity.Candidate {
	if len(candidates) == 0 {
		return nil
	}

	counts := make(map[string]int, len(candidates))
	for _, liked := range votes {
		seen := make(map[string]bool, len(liked))
		for _, candidateID := range liked {
			// A duplicate id within one submission still counts once.
			if seen[candidateID] {
				continue
			}
			seen[candidateID] = true
			counts[candidateID]++
		}
	}

	best := 0
	for i := 1; i < len(candidates); i++ {
		challenger, incumbent := candidates[i], candidates[best]
		switch {
		case counts[challenger.ID] > counts[incumbent.ID]:
			best = i
		case counts[challenger.ID] == counts[incumbent.ID] && challenger.Rating > incumbent.Rating:
			best = i
		}
	}

	winner := candidates[best]
	return &winner
}
