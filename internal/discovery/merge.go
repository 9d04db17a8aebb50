package discovery

import (
	"fmt"
	"sort"
	"strings"
)

// UserIDOffset places user-question identities in a range disjoint from the
// catalog namespace after merging. The catalog namespace must never reach
// this value; mergeAndPage enforces the invariant instead of trusting it.
const UserIDOffset int64 = 1_000_000

// GlobalID projects the provenance-tagged identity into the flat namespaced
// scheme required at the API boundary.
func (c Candidate) GlobalID() int64 {
	if c.Source == SourceUser {
		return c.LocalID + UserIDOffset
	}
	return c.LocalID
}

// LocalIDFromGlobal recovers the source-local identity and provenance of a
// namespaced identifier.
func LocalIDFromGlobal(id int64) (int64, Source) {
	if id >= UserIDOffset {
		return id - UserIDOffset, SourceUser
	}
	return id, SourceCatalog
}

// mergeAndPage combines both source populations into one globally ordered
// sequence and slices out the requested page. The full union is sorted once
// with an identity tie-break; paginating each source independently and
// concatenating would break ordering across page boundaries, so it is never
// done here.
func mergeAndPage(catalog, user []Candidate, spec FilterSpec) (Page, error) {
	for _, c := range catalog {
		if c.LocalID >= UserIDOffset {
			return Page{}, fmt.Errorf("catalog identity %d overflows the user namespace offset %d", c.LocalID, UserIDOffset)
		}
	}

	all := make([]Candidate, 0, len(catalog)+len(user))
	all = append(all, catalog...)
	all = append(all, user...)

	sort.Slice(all, func(i, j int) bool {
		return less(all[i], all[j], spec.SortBy, spec.SortOrder)
	})

	total := len(all)
	totalPages := (total + spec.PageSize - 1) / spec.PageSize

	start := (spec.Page - 1) * spec.PageSize
	end := start + spec.PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	items := make([]MergedQuestion, 0, end-start)
	for _, c := range all[start:end] {
		items = append(items, project(c))
	}

	return Page{
		Items:      items,
		Total:      total,
		Page:       spec.Page,
		PageSize:   spec.PageSize,
		TotalPages: totalPages,
	}, nil
}

// less orders candidates by the resolved sort key and direction; ties always
// break by ascending global identity so paging is deterministic across calls.
func less(a, b Candidate, key SortKey, dir SortDir) bool {
	cmp := 0
	switch key {
	case SortByTitle:
		cmp = strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case SortByDifficulty:
		cmp = a.Difficulty.Rank() - b.Difficulty.Rank()
	default:
		switch {
		case a.MaxFrequency < b.MaxFrequency:
			cmp = -1
		case a.MaxFrequency > b.MaxFrequency:
			cmp = 1
		}
	}
	if dir == SortDesc {
		cmp = -cmp
	}
	if cmp != 0 {
		return cmp < 0
	}
	return a.GlobalID() < b.GlobalID()
}

// project builds the display shape, grouping the candidate's matched
// associations by company with deduplicated, sorted time periods. Grids are
// resolved for page items only; the rest of the population never needs them.
func project(c Candidate) MergedQuestion {
	companies := make(map[string]CompanyGrid, len(c.Assocs))
	periodsByCompany := make(map[string]map[string]struct{}, len(c.Assocs))
	for _, a := range c.Assocs {
		grid := companies[a.Company]
		if a.Frequency > grid.Frequency {
			grid.Frequency = a.Frequency
		}
		if periodsByCompany[a.Company] == nil {
			periodsByCompany[a.Company] = make(map[string]struct{})
		}
		periodsByCompany[a.Company][a.TimePeriod] = struct{}{}
		companies[a.Company] = grid
	}
	for name, set := range periodsByCompany {
		grid := companies[name]
		grid.TimePeriods = sortedKeys(set)
		companies[name] = grid
	}

	topics := c.Topics
	if topics == nil {
		topics = []string{}
	}

	return MergedQuestion{
		ID:             c.GlobalID(),
		Source:         c.Source,
		Title:          c.Title,
		Difficulty:     c.Difficulty,
		AcceptanceRate: c.AcceptanceRate,
		Link:           c.Link,
		Topics:         topics,
		Description:    c.Description,
		Companies:      companies,
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
