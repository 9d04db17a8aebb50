package discovery

// aggregateStats computes FilterStats over the entire filtered population of
// both sources, before pagination. Difficulty counts are per distinct
// question; company, time-period and topic sets come from the matched
// associations and topics of the same population. An empty population is a
// valid result with zero counts and empty lists.
func aggregateStats(catalog, user []Candidate) FilterStats {
	stats := FilterStats{
		TimePeriods: []string{},
		Topics:      []string{},
	}

	companies := make(map[string]struct{})
	periods := make(map[string]struct{})
	topics := make(map[string]struct{})

	count := func(cands []Candidate) {
		for _, c := range cands {
			stats.TotalQuestions++
			switch c.Difficulty {
			case DifficultyEasy:
				stats.EasyCount++
			case DifficultyMedium:
				stats.MediumCount++
			case DifficultyHard:
				stats.HardCount++
			}
			for _, a := range c.Assocs {
				companies[a.Company] = struct{}{}
				periods[a.TimePeriod] = struct{}{}
			}
			for _, t := range c.Topics {
				if t != "" {
					topics[t] = struct{}{}
				}
			}
		}
	}
	count(catalog)
	count(user)

	stats.CompaniesCount = len(companies)
	stats.TimePeriods = sortedKeys(periods)
	stats.Topics = sortedKeys(topics)
	return stats
}
