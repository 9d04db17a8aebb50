package discovery

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Difficulty levels in severity order.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// ParseDifficulty canonicalizes a raw token. Unknown tokens are reported
// via ok=false and dropped by the caller, never surfaced as errors.
func ParseDifficulty(raw string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "easy":
		return DifficultyEasy, true
	case "medium":
		return DifficultyMedium, true
	case "hard":
		return DifficultyHard, true
	}
	return "", false
}

// Rank orders difficulties Easy < Medium < Hard for sorting.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	}
	return 0
}

// CombineMode selects how multi-valued dimensions combine.
type CombineMode string

const (
	CombineOr  CombineMode = "OR"
	CombineAnd CombineMode = "AND"
)

// SortKey selects the global ordering of merged results.
type SortKey string

const (
	SortByFrequency  SortKey = "frequency"
	SortByTitle      SortKey = "title"
	SortByDifficulty SortKey = "difficulty"
)

// SortDir is the ordering direction.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// Source tags a question's provenance.
type Source string

const (
	SourceCatalog Source = "catalog"
	SourceUser    Source = "user"
)

// Association records that a question appeared at a company during a
// time period with a given frequency.
type Association struct {
	QuestionID int64   `json:"-"`
	Company    string  `json:"company_name"`
	TimePeriod string  `json:"time_period"`
	Frequency  float64 `json:"frequency"`
}

// CatalogQuestion is a curated question row as read from the store.
type CatalogQuestion struct {
	ID             int64
	Title          string
	Difficulty     Difficulty
	AcceptanceRate *float64
	Link           string
	Topics         []string
	Description    string
	OwnerID        *uuid.UUID
	Approved       bool
	Public         bool
}

// UserQuestion is a user-submitted question row as read from the store.
type UserQuestion struct {
	ID          int64
	Title       string
	Difficulty  Difficulty
	Topics      []string
	Description string
	Solution    *string
	Link        *string
	OwnerID     uuid.UUID
	Approved    bool
	Public      bool
	CreatedAt   time.Time
}

// CompanyGrid is the per-company display grid attached to page items.
type CompanyGrid struct {
	Frequency   float64  `json:"frequency"`
	TimePeriods []string `json:"time_periods"`
}

// MergedQuestion is a catalog or user question projected into one shape,
// carrying the namespaced global identity.
type MergedQuestion struct {
	ID             int64                  `json:"id"`
	Source         Source                 `json:"source"`
	Title          string                 `json:"title"`
	Difficulty     Difficulty             `json:"difficulty"`
	AcceptanceRate *float64               `json:"acceptance_rate,omitempty"`
	Link           string                 `json:"link,omitempty"`
	Topics         []string               `json:"topics"`
	Description    string                 `json:"description,omitempty"`
	Companies      map[string]CompanyGrid `json:"companies"`
}

// Page is one slice of the globally ordered, merged result set.
type Page struct {
	Items      []MergedQuestion `json:"questions"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"per_page"`
	TotalPages int              `json:"total_pages"`
}

// FilterStats aggregates the full filtered population, independent of
// pagination.
type FilterStats struct {
	TotalQuestions int      `json:"total_questions"`
	EasyCount      int      `json:"easy_count"`
	MediumCount    int      `json:"medium_count"`
	HardCount      int      `json:"hard_count"`
	CompaniesCount int      `json:"companies_count"`
	TimePeriods    []string `json:"time_periods"`
	Topics         []string `json:"topics"`
}
