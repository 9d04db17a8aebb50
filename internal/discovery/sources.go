package discovery

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// QuestionStore is the read abstraction both sources draw from. Row
// conditions and visibility are applied by the store's query layer; the
// association verdict (AND-membership spans multiple rows) is evaluated
// here after grouping.
type QuestionStore interface {
	// CatalogQuestions returns curated rows passing the row conditions and
	// the visibility rule for the given viewer.
	CatalogQuestions(ctx context.Context, row RowConditions, viewer *uuid.UUID) ([]CatalogQuestion, error)
	// CatalogAssociations returns company associations grouped by catalog
	// question identity.
	CatalogAssociations(ctx context.Context, ids []int64) (map[int64][]Association, error)
	// UserQuestions returns user-submitted rows passing the row conditions
	// and the visibility rule for the given viewer.
	UserQuestions(ctx context.Context, row RowConditions, viewer *uuid.UUID) ([]UserQuestion, error)
	// UserAssociations returns company associations grouped by user
	// question identity.
	UserAssociations(ctx context.Context, ids []int64) (map[int64][]Association, error)
}

// Candidate is one filtered question with its matched associations and
// resolved sort material, prior to merging.
type Candidate struct {
	Source         Source
	LocalID        int64
	Title          string
	Difficulty     Difficulty
	AcceptanceRate *float64
	Link           string
	Topics         []string
	Description    string
	OwnerID        *uuid.UUID
	Assocs         []Association
	MaxFrequency   float64
}

type catalogSource struct {
	store QuestionStore
}

// Fetch returns the filtered, unpaginated catalog population. Catalog rows
// live inside the company join: a question with no associations cannot
// appear in a company/time-period result and is excluded here.
func (s catalogSource) Fetch(ctx context.Context, pred Predicates, viewer *uuid.UUID) ([]Candidate, error) {
	rows, err := s.store.CatalogQuestions(ctx, pred.Row, viewer)
	if err != nil {
		return nil, fmt.Errorf("catalog questions: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	assocs, err := s.store.CatalogAssociations(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("catalog associations: %w", err)
	}

	var out []Candidate
	for _, r := range rows {
		all := assocs[r.ID]
		if len(all) == 0 {
			continue
		}
		matched, ok := pred.Assoc.Filter(all)
		if !ok {
			continue
		}
		out = append(out, Candidate{
			Source:         SourceCatalog,
			LocalID:        r.ID,
			Title:          r.Title,
			Difficulty:     r.Difficulty,
			AcceptanceRate: r.AcceptanceRate,
			Link:           r.Link,
			Topics:         r.Topics,
			Description:    r.Description,
			OwnerID:        r.OwnerID,
			Assocs:         matched,
			MaxFrequency:   maxFrequency(matched),
		})
	}
	return out, nil
}

type userSource struct {
	store QuestionStore
}

// Fetch returns the filtered, unpaginated user-pool population. Unlike the
// catalog, a user question without associations is still browsable as long
// as no company/time-period dimension is constrained.
func (s userSource) Fetch(ctx context.Context, pred Predicates, viewer *uuid.UUID) ([]Candidate, error) {
	rows, err := s.store.UserQuestions(ctx, pred.Row, viewer)
	if err != nil {
		return nil, fmt.Errorf("user questions: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	assocs, err := s.store.UserAssociations(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("user associations: %w", err)
	}

	var out []Candidate
	for _, r := range rows {
		matched, ok := pred.Assoc.Filter(assocs[r.ID])
		if !ok {
			continue
		}
		owner := r.OwnerID
		link := ""
		if r.Link != nil {
			link = *r.Link
		}
		out = append(out, Candidate{
			Source:       SourceUser,
			LocalID:      r.ID,
			Title:        r.Title,
			Difficulty:   r.Difficulty,
			Link:         link,
			Topics:       r.Topics,
			Description:  r.Description,
			OwnerID:      &owner,
			Assocs:       matched,
			MaxFrequency: maxFrequency(matched),
		})
	}
	return out, nil
}

func maxFrequency(assocs []Association) float64 {
	var max float64
	for _, a := range assocs {
		if a.Frequency > max {
			max = a.Frequency
		}
	}
	return max
}
