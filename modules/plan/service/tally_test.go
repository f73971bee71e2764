package service

import (
	"testing"

	"tablepick/modules/plan/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates() []entity.Candidate {
	return []entity.Candidate{
		{ID: "c1", Name: "Sushi Ichiban", Rating: 4.6},
		{ID: "c2", Name: "Trattoria Nonna", Rating: 4.2},
		{ID: "c3", Name: "Taqueria El Sol", Rating: 4.2},
	}
}

func TestTallyWinnerHighestApprovalWins(t *testing.T) {
	votes := map[string][]string{
		"u1": {"c2"},
		"u2": {"c2", "c1"},
		"u3": {"c3"},
	}
	winner := TallyWinner(candidates(), votes)
	require.NotNil(t, winner)
	assert.Equal(t, "c2", winner.ID)
}

func TestTallyWinnerTieBreaksOnRating(t *testing.T) {
	votes := map[string][]string{
		"u1": {"c2"},
		"u2": {"c1"},
	}
	// c1 and c2 both have one approval; c1 has the higher rating.
	winner := TallyWinner(candidates(), votes)
	require.NotNil(t, winner)
	assert.Equal(t, "c1", winner.ID)
}

func TestTallyWinnerTieBreaksOnListOrder(t *testing.T) {
	votes := map[string][]string{
		"u1": {"c2"},
		"u2": {"c3"},
	}
	// c2 and c3 tie on both count and rating; c2 comes first in the pool.
	winner := TallyWinner(candidates(), votes)
	require.NotNil(t, winner)
	assert.Equal(t, "c2", winner.ID)
}

func TestTallyWinnerDuplicatesInOneSubmissionCountOnce(t *testing.T) {
	votes := map[string][]string{
		"u1": {"c3", "c3", "c3"},
		"u2": {"c1"},
		"u3": {"c1"},
	}
	winner := TallyWinner(candidates(), votes)
	require.NotNil(t, winner)
	assert.Equal(t, "c1", winner.ID)
}

func TestTallyWinnerNoCandidates(t *testing.T) {
	assert.Nil(t, TallyWinner(nil, map[string][]string{"u1": {"c1"}}))
}

func TestTallyWinnerNoVotesFallsBackToRatingThenOrder(t *testing.T) {
	winner := TallyWinner(candidates(), map[string][]string{})
	require.NotNil(t, winner)
	assert.Equal(t, "c1", winner.ID)
}

func TestTallyWinnerUnknownIDsAreIgnored(t *testing.T) {
	votes := map[string][]string{
		"u1": {"ghost", "c3"},
		"u2": {"ghost"},
	}
	winner := TallyWinner(candidates(), votes)
	require.NotNil(t, winner)
	assert.Equal(t, "c3", winner.ID)
}

func TestTallyWinnerDeterministic(t *testing.T) {
	votes := map[string][]string{
		"u1": {"c1", "c2"},
		"u2": {"c2", "c3"},
		"u3": {"c3", "c1"},
		"u4": {"c2"},
		"u5": {"c1"},
	}
	first := TallyWinner(candidates(), votes)
	require.NotNil(t, first)
	for i := 0; i < 100; i++ {
		again := TallyWinner(candidates(), votes)
		require.NotNil(t, again)
		assert.Equal(t, first.ID, again.ID)
	}
}
