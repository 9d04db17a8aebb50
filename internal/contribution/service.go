package contribution

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jatinkaushik/devprep/internal/db/store"
	"github.com/jatinkaushik/devprep/internal/discovery"
)

var (
	ErrNotFound  = errors.New("question not found")
	ErrForbidden = errors.New("not the question owner")
)

// ValidationError marks rejected input with a field hint.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// TimePeriods is the accepted recency vocabulary for company associations.
var TimePeriods = []string{"30_days", "3_months", "6_months", "more_than_6_months", "all_time"}

func validTimePeriod(p string) bool {
	for _, known := range TimePeriods {
		if p == known {
			return true
		}
	}
	return false
}

// Store is the persistence the contribution service needs.
type Store interface {
	InsertUserQuestion(ctx context.Context, p store.InsertUserQuestionParams) (int64, error)
	GetUserQuestion(ctx context.Context, id int64) (discovery.UserQuestion, error)
	ListUserQuestionsByOwner(ctx context.Context, owner uuid.UUID, limit, offset int) ([]discovery.UserQuestion, int, error)
	UpdateUserQuestion(ctx context.Context, id int64, p store.UpdateUserQuestionParams) error
	DeleteUserQuestion(ctx context.Context, id int64) error
	EnsureCompany(ctx context.Context, name string) (int64, error)
	InsertUserAssociation(ctx context.Context, p store.InsertUserAssociationParams) error
	InsertApprovalRequest(ctx context.Context, questionID int64, requestedBy uuid.UUID) (bool, error)
	AddFavorite(ctx context.Context, userID uuid.UUID, catalogID, userQuestionID *int64) (bool, error)
	RemoveFavorite(ctx context.Context, userID uuid.UUID, catalogID, userQuestionID *int64) error
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]store.Favorite, error)
}

// Service manages user-submitted questions: creation, edits, company
// associations, approval requests and favorites. All mutating operations
// are owner-scoped.
type Service struct {
	store  Store
	logger zerolog.Logger
}

// NewService creates a contribution service.
func NewService(s Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  s,
		logger: logger.With().Str("component", "contribution").Logger(),
	}
}

// CreateQuestionInput carries a new user question.
type CreateQuestionInput struct {
	Title       string
	Difficulty  string
	Topics      []string
	Description string
	Solution    *string
	Link        *string
	Public      bool
}

func (in CreateQuestionInput) validate() (discovery.Difficulty, error) {
	if strings.TrimSpace(in.Title) == "" {
		return "", &ValidationError{Field: "title", Message: "title is required"}
	}
	d, ok := discovery.ParseDifficulty(in.Difficulty)
	if !ok {
		return "", &ValidationError{Field: "difficulty", Message: "must be one of Easy, Medium, Hard"}
	}
	return d, nil
}

// Create stores a new user question owned by the caller. New questions
// always start unapproved; they become publicly visible only after
// moderation.
func (s *Service) Create(ctx context.Context, owner uuid.UUID, in CreateQuestionInput) (discovery.UserQuestion, error) {
	difficulty, err := in.validate()
	if err != nil {
		return discovery.UserQuestion{}, err
	}

	id, err := s.store.InsertUserQuestion(ctx, store.InsertUserQuestionParams{
		Title:       strings.TrimSpace(in.Title),
		Difficulty:  difficulty,
		Topics:      cleanTopics(in.Topics),
		Description: in.Description,
		Solution:    in.Solution,
		Link:        in.Link,
		OwnerID:     owner,
		Public:      in.Public,
	})
	if err != nil {
		return discovery.UserQuestion{}, fmt.Errorf("create question: %w", err)
	}

	s.logger.Info().Int64("question_id", id).Str("owner", owner.String()).Msg("user question created")
	return s.store.GetUserQuestion(ctx, id)
}

// Get returns a user question visible to the viewer: its owner always,
// anyone else only when approved and public.
func (s *Service) Get(ctx context.Context, id int64, viewer *uuid.UUID) (discovery.UserQuestion, error) {
	q, err := s.store.GetUserQuestion(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return discovery.UserQuestion{}, ErrNotFound
	}
	if err != nil {
		return discovery.UserQuestion{}, err
	}

	if viewer != nil && *viewer == q.OwnerID {
		return q, nil
	}
	if q.Approved && q.Public {
		return q, nil
	}
	// Hidden rows are indistinguishable from absent ones.
	return discovery.UserQuestion{}, ErrNotFound
}

// ListOwn pages the caller's own submissions, newest first.
func (s *Service) ListOwn(ctx context.Context, owner uuid.UUID, page, pageSize int) ([]discovery.UserQuestion, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > discovery.MaxPageSize {
		pageSize = discovery.DefaultPageSize
	}
	return s.store.ListUserQuestionsByOwner(ctx, owner, pageSize, (page-1)*pageSize)
}

// Update replaces the editable fields of a question owned by the caller.
func (s *Service) Update(ctx context.Context, id int64, owner uuid.UUID, in CreateQuestionInput) (discovery.UserQuestion, error) {
	difficulty, err := in.validate()
	if err != nil {
		return discovery.UserQuestion{}, err
	}

	if err := s.requireOwner(ctx, id, owner); err != nil {
		return discovery.UserQuestion{}, err
	}

	err = s.store.UpdateUserQuestion(ctx, id, store.UpdateUserQuestionParams{
		Title:       strings.TrimSpace(in.Title),
		Difficulty:  difficulty,
		Topics:      cleanTopics(in.Topics),
		Description: in.Description,
		Solution:    in.Solution,
		Link:        in.Link,
		Public:      in.Public,
	})
	if err != nil {
		return discovery.UserQuestion{}, fmt.Errorf("update question: %w", err)
	}
	return s.store.GetUserQuestion(ctx, id)
}

// Delete removes a question owned by the caller.
func (s *Service) Delete(ctx context.Context, id int64, owner uuid.UUID) error {
	if err := s.requireOwner(ctx, id, owner); err != nil {
		return err
	}
	if err := s.store.DeleteUserQuestion(ctx, id); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	s.logger.Info().Int64("question_id", id).Msg("user question deleted")
	return nil
}

// AssociationInput attaches a company fact to a question.
type AssociationInput struct {
	Company    string
	TimePeriod string
	Frequency  float64
}

// AddCompanyAssociation records that the question appeared at a company
// during a time period. The company is created on first use.
func (s *Service) AddCompanyAssociation(ctx context.Context, questionID int64, owner uuid.UUID, in AssociationInput) error {
	company := strings.TrimSpace(in.Company)
	if company == "" {
		return &ValidationError{Field: "company", Message: "company is required"}
	}
	if !validTimePeriod(in.TimePeriod) {
		return &ValidationError{Field: "time_period", Message: "unknown time period"}
	}
	if in.Frequency < 0 {
		return &ValidationError{Field: "frequency", Message: "frequency must be non-negative"}
	}

	if err := s.requireOwner(ctx, questionID, owner); err != nil {
		return err
	}

	companyID, err := s.store.EnsureCompany(ctx, company)
	if err != nil {
		return err
	}

	return s.store.InsertUserAssociation(ctx, store.InsertUserAssociationParams{
		QuestionID: questionID,
		CompanyID:  companyID,
		TimePeriod: in.TimePeriod,
		Frequency:  in.Frequency,
		CreatedBy:  owner,
	})
}

// RequestPublicApproval files a moderation request to make the question
// publicly visible. Filing twice while one is pending is a no-op; created
// reports whether a new request was opened.
func (s *Service) RequestPublicApproval(ctx context.Context, questionID int64, owner uuid.UUID) (bool, error) {
	q, err := s.store.GetUserQuestion(ctx, questionID)
	if errors.Is(err, store.ErrNotFound) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}
	if q.OwnerID != owner {
		return false, ErrForbidden
	}
	if q.Approved && q.Public {
		return false, &ValidationError{Field: "question_id", Message: "question is already public"}
	}

	created, err := s.store.InsertApprovalRequest(ctx, questionID, owner)
	if err != nil {
		return false, fmt.Errorf("request approval: %w", err)
	}
	if created {
		s.logger.Info().Int64("question_id", questionID).Msg("approval requested")
	}
	return created, nil
}

// AddFavorite bookmarks a question by its global identity; the namespace
// offset picks the pool.
func (s *Service) AddFavorite(ctx context.Context, userID uuid.UUID, globalID int64) (bool, error) {
	catalogID, userQuestionID := splitGlobalID(globalID)
	return s.store.AddFavorite(ctx, userID, catalogID, userQuestionID)
}

// RemoveFavorite drops a bookmark by global identity.
func (s *Service) RemoveFavorite(ctx context.Context, userID uuid.UUID, globalID int64) error {
	catalogID, userQuestionID := splitGlobalID(globalID)
	return s.store.RemoveFavorite(ctx, userID, catalogID, userQuestionID)
}

// ListFavorites returns the caller's bookmarks with global identities.
func (s *Service) ListFavorites(ctx context.Context, userID uuid.UUID) ([]FavoriteItem, error) {
	rows, err := s.store.ListFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]FavoriteItem, 0, len(rows))
	for _, f := range rows {
		item := FavoriteItem{CreatedAt: f.CreatedAt}
		switch {
		case f.CatalogQuestionID != nil:
			item.QuestionID = *f.CatalogQuestionID
			item.Source = discovery.SourceCatalog
		case f.UserQuestionID != nil:
			item.QuestionID = *f.UserQuestionID + discovery.UserIDOffset
			item.Source = discovery.SourceUser
		default:
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) requireOwner(ctx context.Context, questionID int64, owner uuid.UUID) error {
	q, err := s.store.GetUserQuestion(ctx, questionID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if q.OwnerID != owner {
		return ErrForbidden
	}
	return nil
}

func splitGlobalID(globalID int64) (catalogID, userQuestionID *int64) {
	local, source := discovery.LocalIDFromGlobal(globalID)
	if source == discovery.SourceUser {
		return nil, &local
	}
	return &local, nil
}

func cleanTopics(topics []string) []string {
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
