package discovery

import (
	"net/url"
	"strconv"
	"strings"
)

// Paging bounds. Callers may override the defaults through config, but the
// hard maximum always applies.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// FilterSpec is the normalized, validated representation of a discovery
// request. Zero values mean "no constraint" for every dimension.
type FilterSpec struct {
	Companies       []string
	CompanyLogic    CombineMode
	TimePeriods     []string
	TimePeriodLogic CombineMode
	Difficulties    []Difficulty
	Topics          []string
	Search          string
	SortBy          SortKey
	SortOrder       SortDir
	Page            int
	PageSize        int
}

// ParseFilterSpec maps inbound query parameters 1:1 onto a FilterSpec.
// Comma lists are split and trimmed, blank tokens discarded, malformed enum
// values fall back to defaults. Garbage never produces an error here.
func ParseFilterSpec(q url.Values) FilterSpec {
	spec := FilterSpec{
		Companies:       splitList(q.Get("companies")),
		CompanyLogic:    parseCombineMode(q.Get("company_logic")),
		TimePeriods:     splitList(q.Get("time_periods")),
		TimePeriodLogic: parseCombineMode(q.Get("time_period_logic")),
		Topics:          splitList(q.Get("topics")),
		Search:          strings.TrimSpace(q.Get("search")),
		SortBy:          parseSortKey(q.Get("sort_by")),
		SortOrder:       parseSortDir(q.Get("sort_order")),
	}

	for _, raw := range splitList(q.Get("difficulties")) {
		if d, ok := ParseDifficulty(raw); ok {
			spec.Difficulties = append(spec.Difficulties, d)
		}
	}

	if n, err := strconv.Atoi(q.Get("page")); err == nil {
		spec.Page = n
	}
	if n, err := strconv.Atoi(q.Get("page_size")); err == nil {
		spec.PageSize = n
	} else if n, err := strconv.Atoi(q.Get("per_page")); err == nil {
		spec.PageSize = n
	}

	return spec.Normalized()
}

// Normalized returns a copy with defaults applied and paging clamped so that
// the offset is always non-negative and the page size stays within 1..100.
func (s FilterSpec) Normalized() FilterSpec {
	if s.CompanyLogic != CombineAnd {
		s.CompanyLogic = CombineOr
	}
	if s.TimePeriodLogic != CombineAnd {
		s.TimePeriodLogic = CombineOr
	}
	switch s.SortBy {
	case SortByFrequency, SortByTitle, SortByDifficulty:
	default:
		s.SortBy = SortByFrequency
	}
	switch s.SortOrder {
	case SortAsc, SortDesc:
	default:
		s.SortOrder = SortDesc
	}
	if s.Page < 1 {
		s.Page = DefaultPage
	}
	if s.PageSize < 1 {
		s.PageSize = DefaultPageSize
	}
	if s.PageSize > MaxPageSize {
		s.PageSize = MaxPageSize
	}
	s.Companies = cleanList(s.Companies)
	s.TimePeriods = cleanList(s.TimePeriods)
	s.Topics = cleanList(s.Topics)
	s.Search = strings.TrimSpace(s.Search)
	return s
}

func parseCombineMode(raw string) CombineMode {
	if strings.EqualFold(strings.TrimSpace(raw), string(CombineAnd)) {
		return CombineAnd
	}
	return CombineOr
}

func parseSortKey(raw string) SortKey {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(SortByTitle):
		return SortByTitle
	case string(SortByDifficulty):
		return SortByDifficulty
	default:
		return SortByFrequency
	}
}

func parseSortDir(raw string) SortDir {
	if strings.EqualFold(strings.TrimSpace(raw), string(SortAsc)) {
		return SortAsc
	}
	return SortDesc
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	return cleanList(strings.Split(raw, ","))
}

func cleanList(items []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
