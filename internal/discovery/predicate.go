package discovery

import "strings"

// RowConditions are the per-row tests a single question row can answer on
// its own: difficulty membership, topic substring, title search. Each
// source's query layer renders these into parameterized SQL; the Match
// methods carry the same semantics for in-memory evaluation.
type RowConditions struct {
	Difficulties []Difficulty
	Topics       []string
	Search       string
}

// MatchDifficulty reports whether d is in the selected set (empty set
// passes everything).
func (rc RowConditions) MatchDifficulty(d Difficulty) bool {
	if len(rc.Difficulties) == 0 {
		return true
	}
	for _, want := range rc.Difficulties {
		if want == d {
			return true
		}
	}
	return false
}

// MatchTopics reports whether any selected topic is a substring of any of
// the question's topics, case-insensitively.
func (rc RowConditions) MatchTopics(topics []string) bool {
	if len(rc.Topics) == 0 {
		return true
	}
	for _, want := range rc.Topics {
		w := strings.ToLower(want)
		for _, have := range topics {
			if strings.Contains(strings.ToLower(have), w) {
				return true
			}
		}
	}
	return false
}

// MatchTitle reports whether the search text is a substring of the title,
// case-insensitively.
func (rc RowConditions) MatchTitle(title string) bool {
	if rc.Search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(title), strings.ToLower(rc.Search))
}

// Match combines all per-row tests.
func (rc RowConditions) Match(title string, d Difficulty, topics []string) bool {
	return rc.MatchTitle(title) && rc.MatchDifficulty(d) && rc.MatchTopics(topics)
}

// AssociationConditions span a question's association rows. OR mode needs a
// single association row matching every active dimension. AND mode with
// more than one selected value cannot be decided per row: the verdict is a
// post-grouping count — the number of distinct selected values matched
// across the question's associations must equal the number selected.
type AssociationConditions struct {
	Companies           []string
	RequireAllCompanies bool
	TimePeriods         []string
	RequireAllPeriods   bool
}

// Active reports whether any association dimension is constrained.
func (ac AssociationConditions) Active() bool {
	return len(ac.Companies) > 0 || len(ac.TimePeriods) > 0
}

// MatchRow tests a single association row against the active dimensions.
func (ac AssociationConditions) MatchRow(a Association) bool {
	if len(ac.Companies) > 0 && !containsString(ac.Companies, a.Company) {
		return false
	}
	if len(ac.TimePeriods) > 0 && !containsString(ac.TimePeriods, a.TimePeriod) {
		return false
	}
	return true
}

// Filter evaluates a question's grouped associations. It returns the rows
// that matched and the per-question verdict. With no active dimension every
// association matches and the verdict is true regardless of count.
func (ac AssociationConditions) Filter(assocs []Association) ([]Association, bool) {
	if !ac.Active() {
		return assocs, true
	}

	var matched []Association
	companies := make(map[string]struct{})
	periods := make(map[string]struct{})
	for _, a := range assocs {
		if !ac.MatchRow(a) {
			continue
		}
		matched = append(matched, a)
		companies[a.Company] = struct{}{}
		periods[a.TimePeriod] = struct{}{}
	}

	if len(matched) == 0 {
		return nil, false
	}
	if ac.RequireAllCompanies && len(companies) != len(ac.Companies) {
		return nil, false
	}
	if ac.RequireAllPeriods && len(periods) != len(ac.TimePeriods) {
		return nil, false
	}
	return matched, true
}

// Predicates is the full output of the predicate builder, consumed by both
// sources.
type Predicates struct {
	Row   RowConditions
	Assoc AssociationConditions
}

// BuildPredicates translates a normalized FilterSpec into predicate form.
// Single-value AND degrades to OR since co-occurrence of one value is just
// membership.
func BuildPredicates(spec FilterSpec) Predicates {
	return Predicates{
		Row: RowConditions{
			Difficulties: spec.Difficulties,
			Topics:       spec.Topics,
			Search:       spec.Search,
		},
		Assoc: AssociationConditions{
			Companies:           spec.Companies,
			RequireAllCompanies: spec.CompanyLogic == CombineAnd && len(spec.Companies) > 1,
			TimePeriods:         spec.TimePeriods,
			RequireAllPeriods:   spec.TimePeriodLogic == CombineAnd && len(spec.TimePeriods) > 1,
		},
	}
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
