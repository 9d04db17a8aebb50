package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assoc(company, period string, freq float64) Association {
	return Association{Company: company, TimePeriod: period, Frequency: freq}
}

func TestRowConditions_Match(t *testing.T) {
	rc := RowConditions{
		Difficulties: []Difficulty{DifficultyEasy, DifficultyHard},
		Topics:       []string{"array"},
		Search:       "two sum",
	}

	assert.True(t, rc.Match("Two Sum Variant", DifficultyEasy, []string{"Arrays", "Hashing"}))
	assert.False(t, rc.Match("Two Sum Variant", DifficultyMedium, []string{"Arrays"}))
	assert.False(t, rc.Match("Three Sum", DifficultyEasy, []string{"Arrays"}))
	assert.False(t, rc.Match("Two Sum Variant", DifficultyEasy, []string{"Graphs"}))
}

func TestRowConditions_EmptyPassesEverything(t *testing.T) {
	rc := RowConditions{}
	assert.True(t, rc.Match("Anything", DifficultyHard, nil))
}

func TestAssociationConditions_OrMode(t *testing.T) {
	ac := AssociationConditions{Companies: []string{"Google", "Amazon"}}

	matched, ok := ac.Filter([]Association{
		assoc("Google", "30_days", 10),
		assoc("Meta", "30_days", 5),
	})
	require.True(t, ok)
	assert.Len(t, matched, 1)
	assert.Equal(t, "Google", matched[0].Company)
}

func TestAssociationConditions_AndModeRequiresAllCompanies(t *testing.T) {
	ac := AssociationConditions{
		Companies:           []string{"Google", "Amazon"},
		RequireAllCompanies: true,
	}

	// Only one of the two selected companies is present.
	_, ok := ac.Filter([]Association{
		assoc("Google", "30_days", 10),
		assoc("Google", "3_months", 8),
	})
	assert.False(t, ok)

	// Both present across separate rows.
	matched, ok := ac.Filter([]Association{
		assoc("Google", "30_days", 10),
		assoc("Amazon", "6_months", 2),
	})
	require.True(t, ok)
	assert.Len(t, matched, 2)
}

func TestAssociationConditions_BothDimensionsMatchSameRow(t *testing.T) {
	ac := AssociationConditions{
		Companies:   []string{"Google"},
		TimePeriods: []string{"30_days"},
	}

	// Google appears only in 3_months; 30_days belongs to another company.
	_, ok := ac.Filter([]Association{
		assoc("Google", "3_months", 10),
		assoc("Meta", "30_days", 5),
	})
	assert.False(t, ok)

	matched, ok := ac.Filter([]Association{
		assoc("Google", "30_days", 7),
	})
	require.True(t, ok)
	assert.Len(t, matched, 1)
}

func TestAssociationConditions_InactivePassesAll(t *testing.T) {
	ac := AssociationConditions{}
	in := []Association{assoc("Google", "30_days", 1)}

	matched, ok := ac.Filter(in)
	assert.True(t, ok)
	assert.Equal(t, in, matched)

	matched, ok = ac.Filter(nil)
	assert.True(t, ok)
	assert.Empty(t, matched)
}

func TestBuildPredicates_SingleValueAndDegradesToOr(t *testing.T) {
	spec := FilterSpec{
		Companies:    []string{"Google"},
		CompanyLogic: CombineAnd,
		TimePeriods:  []string{"30_days", "3_months"},
	}.Normalized()

	pred := BuildPredicates(spec)

	assert.False(t, pred.Assoc.RequireAllCompanies)
	assert.False(t, pred.Assoc.RequireAllPeriods)
}

func TestBuildPredicates_MultiValueAnd(t *testing.T) {
	spec := FilterSpec{
		Companies:       []string{"Google", "Amazon"},
		CompanyLogic:    CombineAnd,
		TimePeriods:     []string{"30_days", "3_months"},
		TimePeriodLogic: CombineAnd,
	}.Normalized()

	pred := BuildPredicates(spec)

	assert.True(t, pred.Assoc.RequireAllCompanies)
	assert.True(t, pred.Assoc.RequireAllPeriods)
}
