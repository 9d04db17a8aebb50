package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateStats_CountsFullPopulation(t *testing.T) {
	catalog := []Candidate{
		{Difficulty: DifficultyEasy, Topics: []string{"Arrays"}, Assocs: []Association{assoc("Google", "30_days", 3)}},
		{Difficulty: DifficultyHard, Topics: []string{"Graphs", "DP"}, Assocs: []Association{assoc("Amazon", "3_months", 1)}},
	}
	user := []Candidate{
		{Difficulty: DifficultyEasy, Topics: []string{"Arrays"}},
		{Difficulty: DifficultyMedium, Assocs: []Association{assoc("Google", "all_time", 9)}},
	}

	stats := aggregateStats(catalog, user)

	assert.Equal(t, 4, stats.TotalQuestions)
	assert.Equal(t, 2, stats.EasyCount)
	assert.Equal(t, 1, stats.MediumCount)
	assert.Equal(t, 1, stats.HardCount)
	assert.Equal(t, 2, stats.CompaniesCount)
	assert.Equal(t, []string{"30_days", "3_months", "all_time"}, stats.TimePeriods)
	assert.Equal(t, []string{"Arrays", "DP", "Graphs"}, stats.Topics)
}

func TestAggregateStats_EmptyPopulation(t *testing.T) {
	stats := aggregateStats(nil, nil)

	assert.Equal(t, 0, stats.TotalQuestions)
	assert.Equal(t, 0, stats.CompaniesCount)
	assert.NotNil(t, stats.TimePeriods)
	assert.NotNil(t, stats.Topics)
	assert.Empty(t, stats.TimePeriods)
	assert.Empty(t, stats.Topics)
}
